package simulator

import "math"

const (
	BaseCOP  = 2.5  // COP at zero temperature differential
	COPSlope = 0.05 // COP lost per °C of outdoor-over-indoor differential
	MinCOP   = 1.0  // hard floor

	// LowCOPThreshold triggers the low-efficiency advisory.
	LowCOPThreshold = 1.5
)

// COP estimates the coefficient of performance for one hour.
// An outdoor temperature below the set point raises COP above BaseCOP; there is no cap.
func COP(outdoorC, indoorC float64) float64 {
	return math.Max(BaseCOP-COPSlope*(outdoorC-indoorC), MinCOP)
}
