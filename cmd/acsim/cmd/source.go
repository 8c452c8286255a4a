package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ac_simulator/internal/config"
	"ac_simulator/internal/diurnal"
	"ac_simulator/internal/ingest"
	"ac_simulator/internal/model"
)

// runBindings ties the power and window flags to their config keys.
var runBindings = map[string]string{
	"simulation.power_kw":   "power",
	"simulation.start_hour": "start",
	"simulation.end_hour":   "end",
	"simulation.setpoint_c": "setpoint",
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.Float64P("power", "p", 0, "thermal power in kW (config simulation.power_kw)")
	fs.Int("start", 0, "first active hour, 0-23 (config simulation.start_hour)")
	fs.Int("end", 0, "last active hour, 0-23, wraps past midnight when before --start (config simulation.end_hour)")
}

// sourceFlags selects where the 24 hourly temperatures come from: a CSV file,
// manual values, a diurnal curve, or the configured uniform outdoor temperature.
type sourceFlags struct {
	csvPath    string
	outdoor    []float64
	outdoorMin float64
	outdoorMax float64
	peakHour   int
	setpoints  []float64

	withCSV       bool
	withSetpoints bool
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	if s.withCSV {
		fs.StringVar(&s.csvPath, "csv", "", "temperature CSV with T_ext and T_int columns, - for stdin")
	}
	fs.Float64SliceVar(&s.outdoor, "outdoor", nil, "outdoor temperature in °C: one value for the whole day or 24 hourly values")
	fs.Float64Var(&s.outdoorMin, "outdoor-min", 0, "night-time low of a diurnal outdoor curve in °C")
	fs.Float64Var(&s.outdoorMax, "outdoor-max", 0, "afternoon high of a diurnal outdoor curve in °C")
	fs.IntVar(&s.peakHour, "peak-hour", diurnal.DefaultPeakHour, "hour of the diurnal curve's high")
	fs.Float64("setpoint", 0, "indoor set point in °C for every hour (config simulation.setpoint_c)")
	if s.withSetpoints {
		fs.Float64SliceVar(&s.setpoints, "setpoints", nil, "24 hourly indoor set points in °C")
		cmd.MarkFlagsMutuallyExclusive("setpoint", "setpoints")
	}

	cmd.MarkFlagsRequiredTogether("outdoor-min", "outdoor-max")
	cmd.MarkFlagsMutuallyExclusive("outdoor", "outdoor-min")
	if s.withCSV {
		cmd.MarkFlagsMutuallyExclusive("csv", "outdoor")
		cmd.MarkFlagsMutuallyExclusive("csv", "outdoor-min")
		cmd.MarkFlagsMutuallyExclusive("csv", "setpoint")
		if s.withSetpoints {
			cmd.MarkFlagsMutuallyExclusive("csv", "setpoints")
		}
	}
}

// profiles resolves the selected source into 24 hourly profiles. Manually
// entered temperatures are checked against the manual-entry bounds.
func (s *sourceFlags) profiles(cmd *cobra.Command, sim config.SimulationConfig) ([]model.HourProfile, error) {
	if s.csvPath != "" {
		return readCSV(s.csvPath, cmd.InOrStdin())
	}

	entry := ingest.ManualEntry{Setpoint: sim.SetpointC, Setpoints: s.setpoints}
	switch {
	case cmd.Flags().Changed("outdoor-min"):
		curve, err := diurnal.NewCurve(s.outdoorMin, s.outdoorMax, s.peakHour)
		if err != nil {
			return nil, err
		}
		entry.Outdoor = curve.Series()
	case len(s.outdoor) > 0:
		entry.Outdoor = s.outdoor
	default:
		entry.Outdoor = []float64{sim.OutdoorC}
	}
	return entry.Profiles()
}

func readCSV(path string, stdin io.Reader) ([]model.HourProfile, error) {
	var p ingest.Parser = &ingest.CSVParser{}
	if path == "-" {
		return p.Parse(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening temperature file: %w", err)
	}
	defer f.Close()

	profiles, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profiles, nil
}

// writeFile creates path and hands it to write, reporting the first error.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
