package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ac_simulator/internal/export"
	"ac_simulator/internal/simulator"
	"ac_simulator/internal/wire"
)

var defaultSweepValues = []float64{22, 23, 24, 25, 26}

type sweepOptions struct {
	source sourceFlags
	values []float64
	format string
}

func newSweepCmd(a *app) *cobra.Command {
	o := &sweepOptions{source: sourceFlags{withCSV: true}}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Compare daily energy across indoor set points",
		Long: `sweep re-runs the same day once per set point, with every hour's set point
replaced, and prints daily energy, mean active COP and the marginal kWh per °C.`,
		Example: `  acsim sweep --values 22,24,26 --outdoor-min 22 --outdoor-max 34`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd, runBindings); err != nil {
				return err
			}
			return runSweep(cmd, a, o)
		},
	}

	o.source.register(cmd)
	fs := cmd.Flags()
	addRunFlags(fs)
	fs.Float64SliceVar(&o.values, "values", defaultSweepValues, "set points to compare in °C")
	fs.StringVarP(&o.format, "format", "f", string(export.FormatTable), "output format: table, json or yaml")
	return cmd
}

func runSweep(cmd *cobra.Command, a *app, o *sweepOptions) error {
	profiles, err := o.source.profiles(cmd, a.cfg.Simulation)
	if err != nil {
		return err
	}

	base := simulator.Request{Profiles: profiles, PowerKW: a.cfg.Simulation.PowerKW, Window: a.window()}
	results, err := simulator.SweepSetpoints(base, o.values)
	if err != nil {
		return err
	}
	a.logger.Debugf("Swept %d set points", len(results))

	out := cmd.OutOrStdout()
	switch export.Format(o.format) {
	case export.FormatTable:
		return export.WriteSweepTable(out, results)
	case export.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(wire.SweepFromModel(results))
	case export.FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(wire.SweepFromModel(results)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", o.format)
	}
}
