package export

import (
	"fmt"
	"io"

	"ac_simulator/internal/model"
	"ac_simulator/internal/simulator"
)

// WriteTable prints the hourly results and the daily summary for a terminal.
func WriteTable(w io.Writer, r model.SimulationReport) error {
	p := &errWriter{w: w}

	p.printf("\n")
	p.printf("A/C Daily Consumption\n")
	p.printf("  Thermal power: %.2f kW, usage window: %02d:00-%02d:00", r.PowerKW, r.Window.StartHour, r.Window.EndHour)
	if r.Window.Wraps() {
		p.printf(" (overnight)")
	}
	p.printf("\n\n")

	p.printf(" %4s │ %9s │ %9s │ %5s │ %12s │ %6s\n", "Hour", "T_ext °C", "T_int °C", "COP", "Energy (kWh)", "Active")
	p.printf("──────┼───────────┼───────────┼───────┼──────────────┼────────\n")
	for _, h := range r.Hours {
		active := ""
		if h.Active {
			active = "●"
		}
		p.printf(" %4d │ %9.1f │ %9.1f │ %5.2f │ %12.2f │ %6s\n",
			h.Hour, h.OutdoorTempC, h.IndoorSetpointC, h.COP, h.EnergyKWh, active)
	}
	p.printf("\n")

	writeSummary(p, r)
	return p.err
}

// WriteSummary prints the daily total, the mean active COP and any advisory.
func WriteSummary(w io.Writer, r model.SimulationReport) error {
	p := &errWriter{w: w}
	writeSummary(p, r)
	return p.err
}

func writeSummary(p *errWriter, r model.SimulationReport) {
	p.printf("%s\n", simulator.Summary(r))
	p.printf("  Active hours: %d, mean COP (active hours): %s\n", r.ActiveHours, simulator.MeanCOPText(r))
	if advice := simulator.Advisory(r); advice != "" {
		p.printf("⚠ %s\n", advice)
	}
}

// WriteSweepTable prints a set-point sweep, one row per set point, with the
// marginal change in daily energy per °C relative to the previous row.
func WriteSweepTable(w io.Writer, results []simulator.SweepResult) error {
	if len(results) == 0 {
		return nil
	}
	p := &errWriter{w: w}

	first := results[0].Report
	p.printf("\n")
	p.printf("Set Point Comparison\n")
	p.printf("  Thermal power: %.2f kW, usage window: %02d:00-%02d:00\n\n", first.PowerKW, first.Window.StartHour, first.Window.EndHour)

	p.printf(" %9s │ %12s │ %8s │ %13s │ %7s\n", "Set Point", "Daily Energy", "Mean COP", "Marginal kWh", "Low COP")
	p.printf("───────────┼──────────────┼──────────┼───────────────┼─────────\n")

	for i, res := range results {
		marginal := "-"
		if i > 0 {
			prev := results[i-1]
			if dT := res.SetpointC - prev.SetpointC; dT != 0 {
				m := (res.Report.TotalEnergyKWh - prev.Report.TotalEnergyKWh) / dT
				marginal = fmt.Sprintf("%+.2f/°C", m)
			}
		}
		low := ""
		if res.Report.LowCOP {
			low = "yes"
		}
		p.printf(" %6.1f °C │ %8.2f kWh │ %8s │ %13s │ %7s\n",
			res.SetpointC, res.Report.TotalEnergyKWh, simulator.MeanCOPText(res.Report), marginal, low)
	}
	p.printf("\n")
	return p.err
}

// errWriter keeps the first write error so formatting code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (p *errWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
