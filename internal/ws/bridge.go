package ws

import (
	"github.com/sirupsen/logrus"

	"ac_simulator/internal/model"
	"ac_simulator/internal/wire"
)

// Bridge implements simulator.Callback and broadcasts reports to the WebSocket hub.
// Failures are answered to the requesting client by the Handler, not broadcast.
type Bridge struct {
	hub    *Hub
	logger *logrus.Logger
}

func NewBridge(hub *Hub, logger *logrus.Logger) *Bridge {
	return &Bridge{hub: hub, logger: logger}
}

func (b *Bridge) OnReport(r model.SimulationReport) {
	msg, err := NewEnvelope(TypeSimReport, wire.ReportFromModel(r))
	if err != nil {
		b.logger.Errorf("Error marshaling report: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}

func (b *Bridge) OnFailure(err error) {
	b.logger.Debugf("Simulation rejected: %v", err)
}
