package model

// HoursPerDay is the fixed length of every profile and report.
const HoursPerDay = 24

// HourProfile holds the temperatures for one hour of the simulated day.
type HourProfile struct {
	Hour            int     // 0-23
	OutdoorTempC    float64 // °C
	IndoorSetpointC float64 // °C
}

// UsageWindow is the inclusive range of hours the unit runs. StartHour > EndHour
// wraps past midnight.
type UsageWindow struct {
	StartHour int
	EndHour   int
}

// Wraps reports whether the window spans midnight.
func (w UsageWindow) Wraps() bool {
	return w.StartHour > w.EndHour
}

// Active reports whether the unit runs during hour h.
func (w UsageWindow) Active(h int) bool {
	if w.Wraps() {
		return h >= w.StartHour || h <= w.EndHour
	}
	return w.StartHour <= h && h <= w.EndHour
}

// HourResult is the simulated outcome for one hour.
type HourResult struct {
	Hour            int
	OutdoorTempC    float64
	IndoorSetpointC float64
	COP             float64
	EnergyKWh       float64
	Active          bool
}

// SimulationReport is the full outcome of one simulated day.
type SimulationReport struct {
	Hours          []HourResult
	PowerKW        float64
	Window         UsageWindow
	TotalEnergyKWh float64
	ActiveHours    int
	// MeanActiveCOP is zero when ActiveHours is zero; use MeanCOP to tell the cases apart.
	MeanActiveCOP float64
	LowCOP        bool
}

// MeanCOP returns the mean COP over active hours, or ErrNoActiveHours.
func (r SimulationReport) MeanCOP() (float64, error) {
	if r.ActiveHours == 0 {
		return 0, ErrNoActiveHours
	}
	return r.MeanActiveCOP, nil
}

// UniformProfiles builds 24 profiles sharing one outdoor temperature and one set point.
func UniformProfiles(outdoorC, setpointC float64) []HourProfile {
	profiles := make([]HourProfile, HoursPerDay)
	for h := range profiles {
		profiles[h] = HourProfile{Hour: h, OutdoorTempC: outdoorC, IndoorSetpointC: setpointC}
	}
	return profiles
}

// ProfilesFromSeries zips per-hour outdoor and set-point series into profiles.
// The series must have the same length; the engine still requires 24 entries.
func ProfilesFromSeries(outdoorC, setpointC []float64) ([]HourProfile, error) {
	if len(outdoorC) != len(setpointC) {
		return nil, Invalid(ConstraintHourCount, "%d outdoor temperatures but %d set points", len(outdoorC), len(setpointC))
	}
	profiles := make([]HourProfile, len(outdoorC))
	for h := range profiles {
		profiles[h] = HourProfile{Hour: h, OutdoorTempC: outdoorC[h], IndoorSetpointC: setpointC[h]}
	}
	return profiles, nil
}
