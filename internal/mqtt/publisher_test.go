package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ac_simulator/internal/model"
	"ac_simulator/internal/simulator"
	"ac_simulator/internal/wire"
)

type fakeToken struct {
	err     error
	pending bool
}

func (t *fakeToken) Wait() bool                     { return !t.pending }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.pending }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type message struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeSender struct {
	mu    sync.Mutex
	msgs  []message
	token *fakeToken
}

func (s *fakeSender) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, message{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	if s.token != nil {
		return s.token
	}
	return &fakeToken{}
}

func testLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	return logger, &buf
}

func TestPublisher_OnReport(t *testing.T) {
	sender := &fakeSender{}
	logger, _ := testLogger()
	pub := NewPublisher(sender, "home/ac", logger)

	engine := simulator.New(pub)
	_, err := engine.Run(simulator.Request{
		Profiles: model.UniformProfiles(30, 24),
		PowerKW:  3.52,
		Window:   model.UsageWindow{StartHour: 8, EndHour: 20},
	})
	require.NoError(t, err)

	require.Len(t, sender.msgs, 1)
	msg := sender.msgs[0]
	assert.Equal(t, "home/ac/state", msg.topic)
	assert.True(t, msg.retained)
	assert.Equal(t, byte(1), msg.qos)

	var p wire.ReportPayload
	require.NoError(t, json.Unmarshal(msg.payload, &p))
	assert.InDelta(t, 20.8, p.TotalEnergyKWh, 1e-9)
	assert.Equal(t, 13, p.ActiveHours)
	assert.Len(t, p.Hours, 24)
}

func TestPublisher_OnFailure(t *testing.T) {
	sender := &fakeSender{}
	logger, _ := testLogger()
	pub := NewPublisher(sender, "acsim", logger)

	pub.OnFailure(model.Invalid(model.ConstraintEndHour, "must be in [0, 23], got 24"))

	require.Len(t, sender.msgs, 1)
	assert.Equal(t, "acsim/error", sender.msgs[0].topic)
	assert.False(t, sender.msgs[0].retained)

	var p wire.ErrorPayload
	require.NoError(t, json.Unmarshal(sender.msgs[0].payload, &p))
	assert.Equal(t, "end_hour", p.Constraint)
}

func TestPublisher_LogsBrokerErrors(t *testing.T) {
	sender := &fakeSender{token: &fakeToken{err: errors.New("not connected")}}
	logger, buf := testLogger()
	pub := NewPublisher(sender, "acsim", logger)

	pub.OnFailure(errors.New("x"))
	assert.Contains(t, buf.String(), "not connected")
}

func TestPublisher_LogsTimeout(t *testing.T) {
	sender := &fakeSender{token: &fakeToken{pending: true}}
	logger, buf := testLogger()
	pub := NewPublisher(sender, "acsim", logger)

	pub.OnFailure(errors.New("x"))
	assert.Contains(t, buf.String(), "Timed out publishing to acsim/error")
}
