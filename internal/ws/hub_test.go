package ws

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewEnvelope(t *testing.T) {
	payload := ErrorPayload{Constraint: "power", Error: "invalid input (power): must be positive"}

	msg, err := NewEnvelope(TypeSimError, payload)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeSimError, env.Type)

	var parsed ErrorPayload
	err = json.Unmarshal(env.Payload, &parsed)
	require.NoError(t, err)

	assert.Equal(t, "power", parsed.Constraint)
	assert.Equal(t, payload.Error, parsed.Error)
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeSimRun, nil)
	require.NoError(t, err)

	var env Envelope
	err = json.Unmarshal(msg, &env)
	require.NoError(t, err)

	assert.Equal(t, TypeSimRun, env.Type)
	assert.Nil(t, env.Payload)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(quietLogger())

	c := &Client{
		hub:  hub,
		send: make(chan []byte, 16),
	}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())

	// Second unregister must not close the channel twice.
	hub.Unregister(c)
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(quietLogger())

	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"test"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestHub_BroadcastFullBuffer(t *testing.T) {
	hub := NewHub(quietLogger())
	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)

	hub.Broadcast([]byte("first"))
	hub.Broadcast([]byte("second"))

	assert.Equal(t, []byte("first"), <-c.send)
	assert.Len(t, c.send, 0)
}

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "sim:run", TypeSimRun)
	assert.Equal(t, "sim:defaults", TypeSimDefaults)
	assert.Equal(t, "sim:report", TypeSimReport)
	assert.Equal(t, "sim:error", TypeSimError)
}
