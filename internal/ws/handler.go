package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"ac_simulator/internal/simulator"
	"ac_simulator/internal/store"
	"ac_simulator/internal/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ErrRateLimited is sent to a client that submits runs faster than allowed.
var ErrRateLimited = errors.New("too many simulation requests, slow down")

// ReportSource provides the most recent stored report.
type ReportSource interface {
	Latest() (store.Entry, bool)
}

// HandlerOptions configures a Handler. Zero RunsPerSec disables rate limiting.
type HandlerOptions struct {
	Defaults   simulator.Request
	Reports    ReportSource
	RunsPerSec float64
	Burst      int
	Logger     *logrus.Logger
}

// Handler manages WebSocket connections and routes messages to the engine.
type Handler struct {
	hub    *Hub
	engine *simulator.Engine
	opts   HandlerOptions
	logger *logrus.Logger
}

func NewHandler(hub *Hub, engine *simulator.Engine, opts HandlerOptions) *Handler {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Handler{hub: hub, engine: engine, opts: opts, logger: opts.Logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	if h.opts.RunsPerSec > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(h.opts.RunsPerSec), h.opts.Burst)
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendDefaults(client)
	h.sendLatest(client)

	// Read messages from client
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warnf("WebSocket read error: %v", err)
			}
			return
		}

		h.handleMessage(c, msg)
	}
}

func (h *Handler) handleMessage(c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.logger.Warnf("Invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeSimRun:
		if c.limiter != nil && !c.limiter.Allow() {
			h.sendError(c, ErrRateLimited)
			return
		}

		var p RunPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.logger.Warnf("Invalid sim:run payload: %v", err)
			h.sendError(c, err)
			return
		}
		req, err := p.ToRequest()
		if err != nil {
			h.sendError(c, err)
			return
		}
		// Successful reports reach every client through the Bridge.
		if _, err := h.engine.Run(req); err != nil {
			h.sendError(c, err)
		}

	default:
		h.logger.Warnf("Unknown message type: %s", env.Type)
	}
}

func (h *Handler) sendError(c *Client, err error) {
	msg, mErr := NewEnvelope(TypeSimError, wire.ErrorFromErr(err))
	if mErr != nil {
		h.logger.Errorf("Error creating sim:error message: %v", mErr)
		return
	}
	c.trySend(msg)
}

func (h *Handler) sendDefaults(c *Client) {
	msg, err := NewEnvelope(TypeSimDefaults, wire.RequestFromModel(h.opts.Defaults))
	if err != nil {
		h.logger.Errorf("Error creating sim:defaults message: %v", err)
		return
	}
	c.trySend(msg)
}

func (h *Handler) sendLatest(c *Client) {
	if h.opts.Reports == nil {
		return
	}
	entry, ok := h.opts.Reports.Latest()
	if !ok {
		return
	}
	p := wire.ReportFromModel(entry.Report)
	p.ID = entry.ID
	msg, err := NewEnvelope(TypeSimReport, p)
	if err != nil {
		h.logger.Errorf("Error creating sim:report message: %v", err)
		return
	}
	c.trySend(msg)
}
