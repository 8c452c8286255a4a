// Package wire holds the JSON shapes shared by the websocket, HTTP and MQTT
// surfaces, and their conversions to and from the simulation model.
package wire

import (
	"errors"

	"ac_simulator/internal/model"
	"ac_simulator/internal/simulator"
)

// HourInput is one hour of caller-supplied temperatures.
type HourInput struct {
	OutdoorTempC    float64 `json:"outdoor_temp_c"`
	IndoorSetpointC float64 `json:"indoor_setpoint_c"`
}

// RunRequest asks for one simulated day. Either Hours (24 entries) or both
// OutdoorC and SetpointC must be given, never a mix.
type RunRequest struct {
	Hours     []HourInput `json:"hours,omitempty"`
	OutdoorC  *float64    `json:"outdoor_c,omitempty"`
	SetpointC *float64    `json:"setpoint_c,omitempty"`
	PowerKW   float64     `json:"power_kw"`
	StartHour *int        `json:"start_hour"`
	EndHour   *int        `json:"end_hour"`
}

// ToRequest converts r into an engine request. Missing fields are reported,
// never defaulted.
func (r RunRequest) ToRequest() (simulator.Request, error) {
	var profiles []model.HourProfile
	switch {
	case len(r.Hours) > 0 && (r.OutdoorC != nil || r.SetpointC != nil):
		return simulator.Request{}, model.Invalid(model.ConstraintHourCount, "give either hours or outdoor_c and setpoint_c, not both")
	case len(r.Hours) > 0:
		profiles = make([]model.HourProfile, len(r.Hours))
		for h, in := range r.Hours {
			profiles[h] = model.HourProfile{Hour: h, OutdoorTempC: in.OutdoorTempC, IndoorSetpointC: in.IndoorSetpointC}
		}
	case r.OutdoorC != nil && r.SetpointC != nil:
		profiles = model.UniformProfiles(*r.OutdoorC, *r.SetpointC)
	default:
		return simulator.Request{}, model.Invalid(model.ConstraintHourCount, "expected %d hourly entries or a uniform outdoor_c and setpoint_c", model.HoursPerDay)
	}

	if r.StartHour == nil {
		return simulator.Request{}, model.Invalid(model.ConstraintStartHour, "start_hour is required")
	}
	if r.EndHour == nil {
		return simulator.Request{}, model.Invalid(model.ConstraintEndHour, "end_hour is required")
	}

	return simulator.Request{
		Profiles: profiles,
		PowerKW:  r.PowerKW,
		Window:   model.UsageWindow{StartHour: *r.StartHour, EndHour: *r.EndHour},
	}, nil
}

// RequestFromModel is the inverse of ToRequest, used to advertise defaults.
func RequestFromModel(req simulator.Request) RunRequest {
	hours := make([]HourInput, len(req.Profiles))
	for i, p := range req.Profiles {
		hours[i] = HourInput{OutdoorTempC: p.OutdoorTempC, IndoorSetpointC: p.IndoorSetpointC}
	}
	start, end := req.Window.StartHour, req.Window.EndHour
	return RunRequest{
		Hours:     hours,
		PowerKW:   req.PowerKW,
		StartHour: &start,
		EndHour:   &end,
	}
}

// HourPayload is one row of a report.
type HourPayload struct {
	Hour            int     `json:"hour" yaml:"hour"`
	OutdoorTempC    float64 `json:"outdoor_temp_c" yaml:"outdoor_temp_c"`
	IndoorSetpointC float64 `json:"indoor_setpoint_c" yaml:"indoor_setpoint_c"`
	COP             float64 `json:"cop" yaml:"cop"`
	EnergyKWh       float64 `json:"energy_kwh" yaml:"energy_kwh"`
	Active          bool    `json:"active" yaml:"active"`
}

// ReportPayload is the serialized form of a SimulationReport. MeanActiveCOP is
// null when no hour is active.
type ReportPayload struct {
	ID             string        `json:"id,omitempty" yaml:"id,omitempty"`
	Hours          []HourPayload `json:"hours" yaml:"hours"`
	PowerKW        float64       `json:"power_kw" yaml:"power_kw"`
	StartHour      int           `json:"start_hour" yaml:"start_hour"`
	EndHour        int           `json:"end_hour" yaml:"end_hour"`
	TotalEnergyKWh float64       `json:"total_energy_kwh" yaml:"total_energy_kwh"`
	ActiveHours    int           `json:"active_hours" yaml:"active_hours"`
	MeanActiveCOP  *float64      `json:"mean_active_cop" yaml:"mean_active_cop"`
	LowCOP         bool          `json:"low_cop" yaml:"low_cop"`
	Summary        string        `json:"summary" yaml:"summary"`
	Advisory       string        `json:"advisory,omitempty" yaml:"advisory,omitempty"`
}

// ReportFromModel converts a report for serialization.
func ReportFromModel(r model.SimulationReport) ReportPayload {
	hours := make([]HourPayload, len(r.Hours))
	for i, h := range r.Hours {
		hours[i] = HourPayload{
			Hour:            h.Hour,
			OutdoorTempC:    h.OutdoorTempC,
			IndoorSetpointC: h.IndoorSetpointC,
			COP:             h.COP,
			EnergyKWh:       h.EnergyKWh,
			Active:          h.Active,
		}
	}

	p := ReportPayload{
		Hours:          hours,
		PowerKW:        r.PowerKW,
		StartHour:      r.Window.StartHour,
		EndHour:        r.Window.EndHour,
		TotalEnergyKWh: r.TotalEnergyKWh,
		ActiveHours:    r.ActiveHours,
		LowCOP:         r.LowCOP,
		Summary:        simulator.Summary(r),
		Advisory:       simulator.Advisory(r),
	}
	if cop, err := r.MeanCOP(); err == nil {
		p.MeanActiveCOP = &cop
	}
	return p
}

// ErrorPayload describes a failed request.
type ErrorPayload struct {
	Constraint string `json:"constraint,omitempty"`
	Error      string `json:"error"`
}

// ErrorFromErr builds an ErrorPayload, naming the violated constraint when err
// is an input error.
func ErrorFromErr(err error) ErrorPayload {
	p := ErrorPayload{Error: err.Error()}
	if c, ok := model.ConstraintOf(err); ok {
		p.Constraint = string(c)
	}
	return p
}

// IsInputError reports whether err should be shown to the caller as a 4xx.
func IsInputError(err error) bool {
	return errors.Is(err, model.ErrInvalidInput)
}

// SweepRequest asks for the base day re-run at each set point.
type SweepRequest struct {
	RunRequest
	Setpoints []float64 `json:"setpoints"`
}

// SweepPayload is one row of a sweep response.
type SweepPayload struct {
	SetpointC float64       `json:"setpoint_c" yaml:"setpoint_c"`
	Report    ReportPayload `json:"report" yaml:"report"`
}

// SweepFromModel converts sweep results for serialization.
func SweepFromModel(results []simulator.SweepResult) []SweepPayload {
	out := make([]SweepPayload, len(results))
	for i, r := range results {
		out[i] = SweepPayload{SetpointC: r.SetpointC, Report: ReportFromModel(r.Report)}
	}
	return out
}
