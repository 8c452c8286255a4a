package ws

import (
	"encoding/json"

	"ac_simulator/internal/wire"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimRun = "sim:run"

	// Server -> Client
	TypeSimDefaults = "sim:defaults"
	TypeSimReport   = "sim:report"
	TypeSimError    = "sim:error"
)

// RunPayload is the body of sim:run and sim:defaults.
type RunPayload = wire.RunRequest

// ReportPayload is the body of sim:report.
type ReportPayload = wire.ReportPayload

// ErrorPayload is the body of sim:error.
type ErrorPayload = wire.ErrorPayload

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
