package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ac_simulator/internal/chart"
	"ac_simulator/internal/export"
	"ac_simulator/internal/simulator"
)

type simulateOptions struct {
	source    sourceFlags
	format    string
	output    string
	exportCSV string
	chartPath string
}

func newSimulateCmd(a *app) *cobra.Command {
	o := &simulateOptions{source: sourceFlags{withCSV: true, withSetpoints: true}}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate one day of A/C consumption",
		Example: `  acsim simulate --outdoor 30 --setpoint 24 --power 3.52 --start 8 --end 20
  acsim simulate --csv temperatures.csv --start 22 --end 6 --format json
  acsim simulate --outdoor-min 22 --outdoor-max 34 --export-csv --chart day.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd, runBindings); err != nil {
				return err
			}
			return runSimulate(cmd, a, o)
		},
	}

	o.source.register(cmd)
	fs := cmd.Flags()
	addRunFlags(fs)
	fs.StringVarP(&o.format, "format", "f", string(export.FormatTable), "report format: table, csv, json or yaml")
	fs.StringVarP(&o.output, "output", "o", "", "write the report to this file instead of stdout")
	fs.StringVar(&o.exportCSV, "export-csv", "", "also write the hourly CSV report (--export-csv=PATH, default "+export.DefaultFileName+")")
	fs.Lookup("export-csv").NoOptDefVal = export.DefaultFileName
	fs.StringVar(&o.chartPath, "chart", "", "also write an SVG chart of the day to this path")
	return cmd
}

func runSimulate(cmd *cobra.Command, a *app, o *simulateOptions) error {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}

	profiles, err := o.source.profiles(cmd, a.cfg.Simulation)
	if err != nil {
		return err
	}

	report, err := simulator.Simulate(profiles, a.cfg.Simulation.PowerKW, a.window())
	if err != nil {
		return err
	}
	a.logger.WithFields(logrus.Fields{
		"total_kwh":    report.TotalEnergyKWh,
		"active_hours": report.ActiveHours,
		"low_cop":      report.LowCOP,
	}).Debug("Simulation finished")

	write := func(w io.Writer) error { return export.Write(w, format, report) }
	if o.output != "" {
		if err := writeFile(o.output, write); err != nil {
			return err
		}
		a.logger.Infof("Wrote %s report to %s", format, o.output)
	} else if err := write(cmd.OutOrStdout()); err != nil {
		return err
	}

	if o.exportCSV != "" {
		if err := writeFile(o.exportCSV, func(w io.Writer) error { return export.WriteCSV(w, report) }); err != nil {
			return err
		}
		a.logger.Infof("Exported hourly CSV to %s", o.exportCSV)
	}

	if o.chartPath != "" {
		if err := writeFile(o.chartPath, func(w io.Writer) error { return chart.Render(w, report, chart.DefaultOptions()) }); err != nil {
			return err
		}
		a.logger.Infof("Wrote chart to %s", o.chartPath)
	}
	return nil
}
