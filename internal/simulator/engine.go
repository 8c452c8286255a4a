package simulator

import (
	"math"

	"ac_simulator/internal/model"
)

// Request bundles the inputs of one simulated day.
type Request struct {
	Profiles []model.HourProfile
	PowerKW  float64
	Window   model.UsageWindow
}

// Callback receives the outcome of every engine run.
type Callback interface {
	OnReport(report model.SimulationReport)
	OnFailure(err error)
}

// Callbacks fans one event out to several callbacks in order.
type Callbacks []Callback

func (cs Callbacks) OnReport(r model.SimulationReport) {
	for _, c := range cs {
		c.OnReport(r)
	}
}

func (cs Callbacks) OnFailure(err error) {
	for _, c := range cs {
		c.OnFailure(err)
	}
}

// Engine runs simulations and notifies a callback. It keeps no state between runs
// and is safe for concurrent use.
type Engine struct {
	callback Callback
}

// New creates an engine. cb may be nil.
func New(cb Callback) *Engine {
	return &Engine{callback: cb}
}

// Run simulates req and reports the outcome to the callback.
func (e *Engine) Run(req Request) (model.SimulationReport, error) {
	report, err := Simulate(req.Profiles, req.PowerKW, req.Window)
	if e.callback != nil {
		if err != nil {
			e.callback.OnFailure(err)
		} else {
			e.callback.OnReport(report)
		}
	}
	return report, err
}

// Simulate computes the hourly COP, energy and active flags for one day and
// aggregates them. Inputs are validated first; on error no report is returned.
func Simulate(profiles []model.HourProfile, powerKW float64, window model.UsageWindow) (model.SimulationReport, error) {
	if err := validate(profiles, powerKW, window); err != nil {
		return model.SimulationReport{}, err
	}

	report := model.SimulationReport{
		Hours:   make([]model.HourResult, model.HoursPerDay),
		PowerKW: powerKW,
		Window:  window,
	}

	var copSum float64
	for i, p := range profiles {
		hr := model.HourResult{
			Hour:            i,
			OutdoorTempC:    p.OutdoorTempC,
			IndoorSetpointC: p.IndoorSetpointC,
			COP:             COP(p.OutdoorTempC, p.IndoorSetpointC),
			Active:          window.Active(i),
		}
		if hr.Active {
			hr.EnergyKWh = powerKW / hr.COP
			copSum += hr.COP
			report.ActiveHours++
		}
		report.TotalEnergyKWh += hr.EnergyKWh
		report.Hours[i] = hr
	}

	if report.ActiveHours > 0 {
		report.MeanActiveCOP = copSum / float64(report.ActiveHours)
		report.LowCOP = report.MeanActiveCOP < LowCOPThreshold
	}

	return report, nil
}

func validate(profiles []model.HourProfile, powerKW float64, window model.UsageWindow) error {
	if len(profiles) != model.HoursPerDay {
		return model.Invalid(model.ConstraintHourCount, "expected %d hourly profiles, got %d", model.HoursPerDay, len(profiles))
	}
	for i, p := range profiles {
		if p.Hour != i {
			return model.Invalid(model.ConstraintHourOrder, "profile %d is for hour %d, expected hour %d", i, p.Hour, i)
		}
		if !finite(p.OutdoorTempC) {
			return model.Invalid(model.ConstraintTemperature, "hour %d: outdoor temperature %v is not a finite number", i, p.OutdoorTempC)
		}
		if !finite(p.IndoorSetpointC) {
			return model.Invalid(model.ConstraintTemperature, "hour %d: indoor set point %v is not a finite number", i, p.IndoorSetpointC)
		}
	}

	if !(powerKW > 0) || math.IsInf(powerKW, 1) {
		return model.Invalid(model.ConstraintPower, "thermal power must be a positive finite number of kW, got %v", powerKW)
	}

	if window.StartHour < 0 || window.StartHour >= model.HoursPerDay {
		return model.Invalid(model.ConstraintStartHour, "start hour must be in [0,23], got %d", window.StartHour)
	}
	if window.EndHour < 0 || window.EndHour >= model.HoursPerDay {
		return model.Invalid(model.ConstraintEndHour, "end hour must be in [0,23], got %d", window.EndHour)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
