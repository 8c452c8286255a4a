package ingest

import (
	"ac_simulator/internal/model"
)

// Bounds for manually entered temperatures. They constrain what an operator may
// type; imported files are not subject to them.
const (
	MinOutdoorC         = 10.0
	MaxOutdoorC         = 45.0
	MinHourlySetpointC  = 18.0
	MaxHourlySetpointC  = 30.0
	MinUniformSetpointC = 20.0
	MaxUniformSetpointC = 30.0

	DefaultOutdoorC  = 30.0
	DefaultSetpointC = 24.0
)

// ManualEntry collects temperatures typed in by an operator.
//
// Outdoor holds either 24 hourly values or a single value applied to every hour.
// When Setpoints is non-empty it must hold 24 per-hour set points; otherwise
// Setpoint applies to the whole day.
type ManualEntry struct {
	Outdoor   []float64
	Setpoint  float64
	Setpoints []float64
}

// Profiles validates the entry against the manual-entry bounds and expands it
// into 24 hourly profiles.
func (m ManualEntry) Profiles() ([]model.HourProfile, error) {
	outdoor, err := expandOutdoor(m.Outdoor)
	if err != nil {
		return nil, err
	}

	setpoints, err := m.expandSetpoints()
	if err != nil {
		return nil, err
	}

	return model.ProfilesFromSeries(outdoor, setpoints)
}

func expandOutdoor(values []float64) ([]float64, error) {
	switch len(values) {
	case 0:
		values = []float64{DefaultOutdoorC}
		fallthrough
	case 1:
		values = repeat(values[0])
	case model.HoursPerDay:
	default:
		return nil, model.Invalid(model.ConstraintHourCount, "expected 1 or %d outdoor temperatures, got %d", model.HoursPerDay, len(values))
	}

	for h, v := range values {
		if !(v >= MinOutdoorC && v <= MaxOutdoorC) {
			return nil, model.Invalid(model.ConstraintTemperature, "hour %d: outdoor temperature %v outside [%v, %v] °C", h, v, MinOutdoorC, MaxOutdoorC)
		}
	}
	return values, nil
}

func (m ManualEntry) expandSetpoints() ([]float64, error) {
	if len(m.Setpoints) == 0 {
		if !(m.Setpoint >= MinUniformSetpointC && m.Setpoint <= MaxUniformSetpointC) {
			return nil, model.Invalid(model.ConstraintTemperature, "set point %v outside [%v, %v] °C", m.Setpoint, MinUniformSetpointC, MaxUniformSetpointC)
		}
		return repeat(m.Setpoint), nil
	}

	if len(m.Setpoints) != model.HoursPerDay {
		return nil, model.Invalid(model.ConstraintHourCount, "expected %d hourly set points, got %d", model.HoursPerDay, len(m.Setpoints))
	}
	for h, v := range m.Setpoints {
		if !(v >= MinHourlySetpointC && v <= MaxHourlySetpointC) {
			return nil, model.Invalid(model.ConstraintTemperature, "hour %d: set point %v outside [%v, %v] °C", h, v, MinHourlySetpointC, MaxHourlySetpointC)
		}
	}
	return m.Setpoints, nil
}

func repeat(v float64) []float64 {
	out := make([]float64, model.HoursPerDay)
	for i := range out {
		out[i] = v
	}
	return out
}
