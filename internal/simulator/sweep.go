package simulator

import (
	"fmt"

	"ac_simulator/internal/ingest"
	"ac_simulator/internal/model"
)

// MaxSweepSetpoints bounds the number of days computed by one sweep.
const MaxSweepSetpoints = 48

// SweepResult is the outcome of one set point in a set-point sweep.
type SweepResult struct {
	SetpointC float64
	Report    model.SimulationReport
}

// SweepSetpoints re-runs base with every hour's set point replaced by each value
// in setpoints. Outdoor temperatures, power and window stay fixed.
func SweepSetpoints(base Request, setpoints []float64) ([]SweepResult, error) {
	if err := validateSweep(setpoints); err != nil {
		return nil, err
	}

	results := make([]SweepResult, 0, len(setpoints))
	for _, sp := range setpoints {
		profiles := make([]model.HourProfile, len(base.Profiles))
		copy(profiles, base.Profiles)
		for i := range profiles {
			profiles[i].IndoorSetpointC = sp
		}

		report, err := Simulate(profiles, base.PowerKW, base.Window)
		if err != nil {
			return nil, fmt.Errorf("set point %.1f°C: %w", sp, err)
		}
		results = append(results, SweepResult{SetpointC: sp, Report: report})
	}
	return results, nil
}

func validateSweep(setpoints []float64) error {
	switch {
	case len(setpoints) == 0:
		return model.Invalid(model.ConstraintTemperature, "no set points to compare")
	case len(setpoints) > MaxSweepSetpoints:
		return model.Invalid(model.ConstraintTemperature, "%d set points, at most %d allowed", len(setpoints), MaxSweepSetpoints)
	}
	for _, v := range setpoints {
		if !(v >= ingest.MinHourlySetpointC && v <= ingest.MaxHourlySetpointC) {
			return model.Invalid(model.ConstraintTemperature, "set point %v outside [%v, %v] °C", v, ingest.MinHourlySetpointC, ingest.MaxHourlySetpointC)
		}
	}
	return nil
}
