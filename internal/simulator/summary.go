package simulator

import (
	"fmt"

	"ac_simulator/internal/model"
)

// LowCOPAdvice is shown when the mean COP over active hours is low.
const LowCOPAdvice = "Average COP is low. Consider raising the set point or improving insulation."

// Summary returns the one-line daily total for display.
func Summary(r model.SimulationReport) string {
	return fmt.Sprintf("Estimated total consumption: %.2f kWh/day", r.TotalEnergyKWh)
}

// Advisory returns the low-COP advice for r, or "" when none applies.
func Advisory(r model.SimulationReport) string {
	if !r.LowCOP {
		return ""
	}
	return LowCOPAdvice
}

// MeanCOPText formats the mean active COP, spelling out the no-active-hours case.
func MeanCOPText(r model.SimulationReport) string {
	cop, err := r.MeanCOP()
	if err != nil {
		return "n/a (no active hours)"
	}
	return fmt.Sprintf("%.2f", cop)
}
