package diurnal

import (
	"math"

	"ac_simulator/internal/model"
)

// DefaultPeakHour is the hour of the warmest outdoor temperature.
const DefaultPeakHour = 15

// Curve is a synthetic outdoor temperature shape for one day.
type Curve struct {
	// HourlyC holds the temperature for each hour [0-23].
	HourlyC [24]float64
	// PeakHour is the hour with the highest temperature.
	PeakHour int
	MinC     float64
	MaxC     float64
}

// NewCurve builds a cosine day curve that reaches maxC at peakHour and minC
// twelve hours earlier. peakHour wraps modulo 24.
func NewCurve(minC, maxC float64, peakHour int) (Curve, error) {
	if math.IsNaN(minC) || math.IsNaN(maxC) || math.IsInf(minC, 0) || math.IsInf(maxC, 0) {
		return Curve{}, model.Invalid(model.ConstraintTemperature, "daily min/max must be finite, got %v/%v", minC, maxC)
	}
	if maxC < minC {
		return Curve{}, model.Invalid(model.ConstraintTemperature, "daily max %v°C is below daily min %v°C", maxC, minC)
	}

	peakHour = ((peakHour % 24) + 24) % 24
	c := Curve{PeakHour: peakHour, MinC: minC, MaxC: maxC}

	mid := (maxC + minC) / 2
	amp := (maxC - minC) / 2
	for h := 0; h < 24; h++ {
		angle := 2 * math.Pi * float64(h-peakHour) / 24.0
		c.HourlyC[h] = mid + amp*math.Cos(angle)
	}
	return c, nil
}

// Series returns the hourly temperatures as a slice.
func (c Curve) Series() []float64 {
	out := make([]float64, 24)
	copy(out, c.HourlyC[:])
	return out
}
