// Package cmd implements the acsim command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ac_simulator/internal/config"
	"ac_simulator/internal/logging"
	"ac_simulator/internal/model"
	"ac_simulator/internal/simulator"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string

	v      *viper.Viper
	cfg    *config.Config
	logger *logrus.Logger
}

// NewRootCmd builds the acsim command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "acsim",
		Short: "Air-conditioner daily energy simulator",
		Long: `acsim estimates the daily electricity use of an air conditioner from hourly
outdoor temperatures, indoor set points, the unit's thermal power and a daily
usage window.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./acsim.yaml if present)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")

	root.AddCommand(
		newSimulateCmd(a),
		newSweepCmd(a),
		newServeCmd(a),
		newTemplateCmd(a),
		newFetchTempsCmd(a),
		newConfigCmd(a),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// load reads the configuration with cmd's flags bound over it and builds the
// logger. binds maps config keys to flag names.
func (a *app) load(cmd *cobra.Command, binds map[string]string) error {
	v, err := config.NewViper(a.configPath)
	if err != nil {
		return err
	}

	all := map[string]string{"log.level": "log-level", "log.format": "log-format"}
	for key, name := range binds {
		all[key] = name
	}
	for key, name := range all {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}
	logger, err := logging.NewWithOutput(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.v, a.cfg, a.logger = v, cfg, logger
	logger.Debugf("Configuration loaded from %q", v.ConfigFileUsed())
	return nil
}

// window returns the configured usage window.
func (a *app) window() model.UsageWindow {
	return model.UsageWindow{StartHour: a.cfg.Simulation.StartHour, EndHour: a.cfg.Simulation.EndHour}
}

// defaultRequest is the uniform day offered to interactive clients.
func defaultRequest(sim config.SimulationConfig) simulator.Request {
	return simulator.Request{
		Profiles: model.UniformProfiles(sim.OutdoorC, sim.SetpointC),
		PowerKW:  sim.PowerKW,
		Window:   model.UsageWindow{StartHour: sim.StartHour, EndHour: sim.EndHour},
	}
}
