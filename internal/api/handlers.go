// Package api serves the simulator over HTTP: JSON runs, CSV import and
// export, SVG charts and the latest stored report.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"ac_simulator/internal/chart"
	"ac_simulator/internal/export"
	"ac_simulator/internal/ingest"
	"ac_simulator/internal/model"
	"ac_simulator/internal/simulator"
	"ac_simulator/internal/store"
	"ac_simulator/internal/wire"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// RequestIDHeader carries the per-request ID on every response.
const RequestIDHeader = "X-Request-ID"

// Options configures Handlers. Zero RunsPerSec disables rate limiting.
type Options struct {
	Defaults   simulator.Request
	RunsPerSec float64
	Burst      int
	Logger     *logrus.Logger
}

// Handlers provides the /api/* endpoints.
type Handlers struct {
	engine   *simulator.Engine
	reports  *store.Store
	parser   ingest.Parser
	defaults simulator.Request
	limiter  *rate.Limiter
	logger   *logrus.Logger
}

func NewHandlers(engine *simulator.Engine, reports *store.Store, opts Options) *Handlers {
	h := &Handlers{
		engine:   engine,
		reports:  reports,
		parser:   &ingest.CSVParser{},
		defaults: opts.Defaults,
		logger:   opts.Logger,
	}
	if opts.RunsPerSec > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(opts.RunsPerSec), burst)
	}
	return h
}

// Register mounts the endpoints on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/defaults", h.handleDefaults)
	mux.HandleFunc("GET /api/report/latest", h.handleLatest)
	mux.HandleFunc("POST /api/simulate", h.limited(h.handleSimulate))
	mux.HandleFunc("POST /api/import", h.limited(h.handleImport))
	mux.HandleFunc("POST /api/export.csv", h.limited(h.handleExportCSV))
	mux.HandleFunc("POST /api/chart.svg", h.limited(h.handleChart))
	mux.HandleFunc("POST /api/sweep", h.limited(h.handleSweep))
}

func (h *Handlers) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, wire.ErrorPayload{Error: "too many simulation requests, slow down"})
			return
		}
		next(w, r)
	}
}

func (h *Handlers) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wire.RequestFromModel(h.defaults))
}

func (h *Handlers) handleLatest(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.reports.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, wire.ErrorPayload{Error: "no simulation has run yet"})
		return
	}
	p := wire.ReportFromModel(entry.Report)
	p.ID = entry.ID
	w.Header().Set("Last-Modified", entry.ComputedAt.Format(http.TimeFormat))
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) handleSimulate(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runFromBody(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wire.ReportFromModel(report))
}

// handleImport reads a 24-row temperature CSV from the body. Power and window
// come from the power_kw, start_hour and end_hour query parameters, falling
// back to the configured defaults.
func (h *Handlers) handleImport(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.parser.Parse(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	req := simulator.Request{Profiles: profiles, PowerKW: h.defaults.PowerKW, Window: h.defaults.Window}
	q := r.URL.Query()
	if err := queryFloat(q.Get("power_kw"), model.ConstraintPower, &req.PowerKW); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := queryInt(q.Get("start_hour"), model.ConstraintStartHour, &req.Window.StartHour); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := queryInt(q.Get("end_hour"), model.ConstraintEndHour, &req.Window.EndHour); err != nil {
		h.writeError(w, r, err)
		return
	}

	report, err := h.engine.Run(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.ReportFromModel(report))
}

func (h *Handlers) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runFromBody(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultFileName))
	if err := export.WriteCSV(w, report); err != nil {
		h.logger.WithError(err).Warn("Writing CSV response failed")
	}
}

func (h *Handlers) handleChart(w http.ResponseWriter, r *http.Request) {
	report, ok := h.runFromBody(w, r)
	if !ok {
		return
	}
	opts := chart.DefaultOptions()
	if title := r.URL.Query().Get("title"); title != "" {
		opts.Title = title
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := chart.Render(w, report, opts); err != nil {
		h.logger.WithError(err).Warn("Writing SVG response failed")
	}
}

func (h *Handlers) handleSweep(w http.ResponseWriter, r *http.Request) {
	var sr wire.SweepRequest
	if err := decodeJSON(w, r, &sr); err != nil {
		h.writeError(w, r, err)
		return
	}
	base, err := sr.ToRequest()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	results, err := simulator.SweepSetpoints(base, sr.Setpoints)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.SweepFromModel(results))
}

func (h *Handlers) runFromBody(w http.ResponseWriter, r *http.Request) (model.SimulationReport, bool) {
	var rr wire.RunRequest
	if err := decodeJSON(w, r, &rr); err != nil {
		h.writeError(w, r, err)
		return model.SimulationReport{}, false
	}
	req, err := rr.ToRequest()
	if err != nil {
		h.writeError(w, r, err)
		return model.SimulationReport{}, false
	}
	report, err := h.engine.Run(req)
	if err != nil {
		h.writeError(w, r, err)
		return model.SimulationReport{}, false
	}
	return report, true
}

// errBadBody marks request bodies that are not valid JSON for the endpoint.
var errBadBody = errors.New("invalid request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadBody)
		}
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}

func queryFloat(raw string, c model.Constraint, dst *float64) error {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return model.Invalid(c, "%q is not a number", raw)
	}
	*dst = v
	return nil
}

func queryInt(raw string, c model.Constraint, dst *int) error {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return model.Invalid(c, "%q is not an integer", raw)
	}
	*dst = v
	return nil
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		status = http.StatusRequestEntityTooLarge
	case wire.IsInputError(err), errors.Is(err, errBadBody):
		status = http.StatusBadRequest
	}

	entry := h.logger.WithFields(logrus.Fields{
		"request_id": w.Header().Get(RequestIDHeader),
		"path":       r.URL.Path,
		"status":     status,
	}).WithError(err)
	if status == http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Info("Request rejected")
	}
	writeJSON(w, status, wire.ErrorFromErr(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Middleware tags every response with a request ID and logs it.
func Middleware(logger *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Debug("HTTP request")
	})
}
