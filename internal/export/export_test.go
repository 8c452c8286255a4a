package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"ac_simulator/internal/ingest"
	"ac_simulator/internal/model"
	"ac_simulator/internal/simulator"
	"ac_simulator/internal/wire"
)

var daytime = model.UsageWindow{StartHour: 8, EndHour: 20}

func boundaryReport(t *testing.T) model.SimulationReport {
	t.Helper()
	r, err := simulator.Simulate(model.UniformProfiles(30, 24), 3.52, daytime)
	require.NoError(t, err)
	return r
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, boundaryReport(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 25)

	assert.Equal(t, []string{"hour", "outdoor_temp_c", "indoor_temp_c", "cop", "energy_kwh"}, records[0])
	assert.Equal(t, []string{"0", "30", "24", "2.20", "0.00"}, records[1])
	assert.Equal(t, []string{"8", "30", "24", "2.20", "1.60"}, records[9])
	assert.Equal(t, []string{"23", "30", "24", "2.20", "0.00"}, records[24])
}

func TestWriteCSV_Rounding(t *testing.T) {
	profiles := model.UniformProfiles(30, 24)
	profiles[0].OutdoorTempC = 33.3
	r, err := simulator.Simulate(profiles, 1, model.UsageWindow{StartHour: 0, EndHour: 0})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// COP 2.035 → 2.03 or 2.04 depending on binary representation; energy 1/2.035 = 0.4914
	assert.Regexp(t, `^0,33.3,24,2\.0[34],0\.49$`, lines[1])
}

func TestWriteCSV_ReimportsAsProfiles(t *testing.T) {
	r := boundaryReport(t)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))

	profiles, err := (&ingest.CSVParser{}).Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, model.UniformProfiles(30, 24), profiles)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, boundaryReport(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, boundaryReport(t)))

	var p wire.ReportPayload
	require.NoError(t, json.Unmarshal(buf.Bytes(), &p))
	assert.InDelta(t, 20.80, p.TotalEnergyKWh, 1e-9)
	assert.Len(t, p.Hours, 24)
	require.NotNil(t, p.MeanActiveCOP)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, boundaryReport(t)))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 13, doc["active_hours"])
	assert.Equal(t, 8, doc["start_hour"])
	assert.Equal(t, "Estimated total consumption: 20.80 kWh/day", doc["summary"])
	assert.NotContains(t, doc, "advisory")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, boundaryReport(t)))

	out := buf.String()
	assert.Contains(t, out, "usage window: 08:00-20:00")
	assert.NotContains(t, out, "overnight")
	assert.Contains(t, out, "Estimated total consumption: 20.80 kWh/day")
	assert.Contains(t, out, "Active hours: 13, mean COP (active hours): 2.20")
	assert.NotContains(t, out, simulator.LowCOPAdvice)
	assert.Equal(t, 13, strings.Count(out, "●"))
}

func TestWriteSummary_LowCOP(t *testing.T) {
	r, err := simulator.Simulate(model.UniformProfiles(50, 20), 3.52, model.UsageWindow{StartHour: 22, EndHour: 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, r))
	assert.Contains(t, buf.String(), simulator.LowCOPAdvice)
}

func TestWriteSweepTable(t *testing.T) {
	results, err := simulator.SweepSetpoints(simulator.Request{
		Profiles: model.UniformProfiles(30, 24),
		PowerKW:  3.52,
		Window:   daytime,
	}, []float64{22, 24})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSweepTable(&buf, results))
	out := buf.String()
	assert.Contains(t, out, "Set Point Comparison")
	assert.Contains(t, out, "20.80 kWh")
	assert.Contains(t, out, "/°C")

	buf.Reset()
	require.NoError(t, WriteSweepTable(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "csv", "json", "yaml"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite_Dispatch(t *testing.T) {
	r := boundaryReport(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, r))
	assert.True(t, strings.HasPrefix(buf.String(), "hour,outdoor_temp_c"))

	assert.Error(t, Write(&buf, Format("xml"), r))
}
