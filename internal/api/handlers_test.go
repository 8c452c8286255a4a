package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ac_simulator/internal/export"
	"ac_simulator/internal/model"
	"ac_simulator/internal/simulator"
	"ac_simulator/internal/store"
	"ac_simulator/internal/wire"
)

const dayRun = `{"outdoor_c":30,"setpoint_c":24,"power_kw":3.52,"start_hour":8,"end_hour":20}`

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *store.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := store.New()
	engine := simulator.New(s)

	opts.Logger = logger
	if opts.Defaults.Profiles == nil {
		opts.Defaults = simulator.Request{
			Profiles: model.UniformProfiles(30, 24),
			PowerKW:  3.52,
			Window:   model.UsageWindow{StartHour: 8, EndHour: 20},
		}
	}

	mux := http.NewServeMux()
	NewHandlers(engine, s, opts).Register(mux)
	server := httptest.NewServer(Middleware(logger, mux))
	t.Cleanup(server.Close)
	return server, s
}

func post(t *testing.T, url, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSimulate(t *testing.T) {
	server, s := newTestServer(t, Options{})

	resp := post(t, server.URL+"/api/simulate", "application/json", dayRun)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	_, err := uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)

	p := decode[wire.ReportPayload](t, resp)
	assert.InDelta(t, 20.8, p.TotalEnergyKWh, 1e-9)
	assert.Equal(t, 13, p.ActiveHours)
	assert.Equal(t, "Estimated total consumption: 20.80 kWh/day", p.Summary)
	_, stored := s.Latest()
	assert.True(t, stored)
}

func TestSimulate_InputErrors(t *testing.T) {
	server, s := newTestServer(t, Options{})

	tests := []struct {
		name       string
		body       string
		constraint string
	}{
		{"zero power", `{"outdoor_c":30,"setpoint_c":24,"power_kw":0,"start_hour":8,"end_hour":20}`, "power"},
		{"start out of range", `{"outdoor_c":30,"setpoint_c":24,"power_kw":1,"start_hour":-1,"end_hour":20}`, "start_hour"},
		{"end out of range", `{"outdoor_c":30,"setpoint_c":24,"power_kw":1,"start_hour":0,"end_hour":24}`, "end_hour"},
		{"short day", `{"hours":[{"outdoor_temp_c":30,"indoor_setpoint_c":24}],"power_kw":1,"start_hour":0,"end_hour":1}`, "hour_count"},
		{"missing end", `{"outdoor_c":30,"setpoint_c":24,"power_kw":1,"start_hour":0}`, "end_hour"},
		{"hours mixed with uniform", `{"hours":[{"outdoor_temp_c":30,"indoor_setpoint_c":24}],"outdoor_c":30,"setpoint_c":24,"power_kw":1,"start_hour":0,"end_hour":1}`, "hour_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, server.URL+"/api/simulate", "application/json", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			p := decode[wire.ErrorPayload](t, resp)
			assert.Equal(t, tt.constraint, p.Constraint)
			assert.NotEmpty(t, p.Error)
		})
	}
	_, stored := s.Latest()
	assert.False(t, stored)
}

func TestSimulate_BadBody(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	for _, body := range []string{"", "{not json", `{"power_kw":"lots"}`} {
		resp := post(t, server.URL+"/api/simulate", "application/json", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)
	}
}

func TestSimulate_MethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	resp, err := http.Get(server.URL + "/api/simulate")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLatest(t *testing.T) {
	server, s := newTestServer(t, Options{})

	resp, err := http.Get(server.URL + "/api/report/latest")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	post(t, server.URL+"/api/simulate", "application/json", dayRun)

	resp, err = http.Get(server.URL + "/api/report/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	p := decode[wire.ReportPayload](t, resp)
	entry, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, entry.ID, p.ID)
	assert.NotEmpty(t, resp.Header.Get("Last-Modified"))
}

func TestDefaults(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	resp, err := http.Get(server.URL + "/api/defaults")
	require.NoError(t, err)
	defer resp.Body.Close()

	p := decode[wire.RunRequest](t, resp)
	assert.Equal(t, 3.52, p.PowerKW)
	require.NotNil(t, p.EndHour)
	assert.Equal(t, 20, *p.EndHour)
	assert.Len(t, p.Hours, 24)
}

func TestImport(t *testing.T) {
	server, _ := newTestServer(t, Options{})
	sample, err := os.ReadFile("../../testdata/temperatures_sample.csv")
	require.NoError(t, err)

	resp := post(t, server.URL+"/api/import?power_kw=2&start_hour=22&end_hour=3", "text/csv", string(sample))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	p := decode[wire.ReportPayload](t, resp)
	assert.Equal(t, 2.0, p.PowerKW)
	assert.Equal(t, 6, p.ActiveHours)
	assert.InDelta(t, 23.8, p.Hours[0].OutdoorTempC, 0.001)
	assert.Zero(t, p.Hours[15].EnergyKWh)
}

func TestImport_UsesDefaults(t *testing.T) {
	server, _ := newTestServer(t, Options{})
	body := "T_ext,T_int\n" + strings.Repeat("30,24\n", 24)

	resp := post(t, server.URL+"/api/import", "text/csv", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	p := decode[wire.ReportPayload](t, resp)
	assert.InDelta(t, 20.8, p.TotalEnergyKWh, 1e-9)
}

func TestImport_Errors(t *testing.T) {
	server, _ := newTestServer(t, Options{})
	good := "T_ext,T_int\n" + strings.Repeat("30,24\n", 24)

	tests := []struct {
		name       string
		query      string
		body       string
		constraint string
	}{
		{"short file", "", "T_ext,T_int\n30,24\n", "hour_count"},
		{"missing column", "", "outdoor,T_int\n" + strings.Repeat("30,24\n", 24), "import"},
		{"bad power", "?power_kw=abc", good, "power"},
		{"bad start", "?start_hour=x", good, "start_hour"},
		{"end out of range", "?end_hour=25", good, "end_hour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, server.URL+"/api/import"+tt.query, "text/csv", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.constraint, decode[wire.ErrorPayload](t, resp).Constraint)
		})
	}
}

func TestExportCSV(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	resp := post(t, server.URL+"/api/export.csv", "application/json", dayRun)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), export.DefaultFileName)

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 25)
	assert.Equal(t, export.CSVHeader, records[0])
	assert.Equal(t, []string{"8", "30", "24", "2.20", "1.60"}, records[9])
}

func TestChartSVG(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	resp := post(t, server.URL+"/api/chart.svg?title=Office", "application/json", dayRun)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("<svg")))
	assert.Contains(t, string(body), "Office")
	assert.Equal(t, 13, strings.Count(string(body), `class="active"`))
}

func TestSweep(t *testing.T) {
	server, _ := newTestServer(t, Options{})
	body := `{"outdoor_c":30,"setpoint_c":24,"power_kw":3.52,"start_hour":8,"end_hour":20,"setpoints":[22,24,26]}`

	resp := post(t, server.URL+"/api/sweep", "application/json", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := decode[[]wire.SweepPayload](t, resp)
	require.Len(t, rows, 3)
	assert.Equal(t, 24.0, rows[1].SetpointC)
	assert.InDelta(t, 20.8, rows[1].Report.TotalEnergyKWh, 1e-9)
	assert.Greater(t, rows[0].Report.TotalEnergyKWh, rows[2].Report.TotalEnergyKWh)

	resp = post(t, server.URL+"/api/sweep", "application/json", dayRun)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSweep_RejectsSetpoints(t *testing.T) {
	server, _ := newTestServer(t, Options{})

	many := make([]string, simulator.MaxSweepSetpoints+1)
	for i := range many {
		many[i] = "24"
	}

	tests := []struct {
		name      string
		setpoints string
	}{
		{"too many", strings.Join(many, ",")},
		{"out of range", "-500,900"},
		{"one above range", "22,31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"outdoor_c":30,"setpoint_c":24,"power_kw":3.52,"start_hour":8,"end_hour":20,"setpoints":[` + tt.setpoints + `]}`
			resp := post(t, server.URL+"/api/sweep", "application/json", body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			p := decode[wire.ErrorPayload](t, resp)
			assert.Equal(t, string(model.ConstraintTemperature), p.Constraint)
		})
	}
}

func TestRateLimit(t *testing.T) {
	server, _ := newTestServer(t, Options{RunsPerSec: 0.001, Burst: 2})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = post(t, server.URL+"/api/simulate", "application/json", dayRun).StatusCode
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Reads are not limited.
	resp, err := http.Get(server.URL + "/api/defaults")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddleware_KeepsValidRequestID(t *testing.T) {
	server, _ := newTestServer(t, Options{})
	id := uuid.NewString()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/defaults", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(RequestIDHeader))
}
