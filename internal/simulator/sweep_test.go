package simulator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ac_simulator/internal/model"
)

func TestSweepSetpoints(t *testing.T) {
	base := Request{Profiles: model.UniformProfiles(30, 24), PowerKW: 3.52, Window: daytime}

	results, err := SweepSetpoints(base, []float64{22, 24, 26})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 22.0, results[0].SetpointC)
	assert.InDelta(t, 2.1, results[0].Report.MeanActiveCOP, 1e-12)
	assert.InDelta(t, 20.80, results[1].Report.TotalEnergyKWh, 1e-9)

	// A warmer set point narrows the differential and lowers consumption.
	assert.Greater(t, results[0].Report.TotalEnergyKWh, results[1].Report.TotalEnergyKWh)
	assert.Greater(t, results[1].Report.TotalEnergyKWh, results[2].Report.TotalEnergyKWh)

	// The base request is left untouched.
	for _, p := range base.Profiles {
		assert.Equal(t, 24.0, p.IndoorSetpointC)
	}
}

func TestSweepSetpoints_InvalidBase(t *testing.T) {
	base := Request{Profiles: model.UniformProfiles(30, 24), PowerKW: -1, Window: daytime}

	_, err := SweepSetpoints(base, []float64{24})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Contains(t, err.Error(), "set point 24.0°C")
}

func TestSweepSetpoints_Bounds(t *testing.T) {
	base := Request{Profiles: model.UniformProfiles(30, 24), PowerKW: 3.52, Window: daytime}

	tooMany := make([]float64, MaxSweepSetpoints+1)
	for i := range tooMany {
		tooMany[i] = 24
	}

	tests := []struct {
		name      string
		setpoints []float64
	}{
		{"empty", nil},
		{"too many", tooMany},
		{"below range", []float64{24, 17.9}},
		{"above range", []float64{30.5}},
		{"not a number", []float64{math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := SweepSetpoints(base, tt.setpoints)
			require.Error(t, err)
			assert.Nil(t, results)

			c, ok := model.ConstraintOf(err)
			require.True(t, ok)
			assert.Equal(t, model.ConstraintTemperature, c)
		})
	}

	results, err := SweepSetpoints(base, tooMany[:MaxSweepSetpoints])
	require.NoError(t, err)
	assert.Len(t, results, MaxSweepSetpoints)
}
