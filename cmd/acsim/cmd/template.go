package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"ac_simulator/internal/ingest"
)

func newTemplateCmd(a *app) *cobra.Command {
	src := &sourceFlags{withSetpoints: true}

	cmd := &cobra.Command{
		Use:   "template [file]",
		Short: "Write a 24-hour temperature CSV ready for editing and import",
		Long: `template writes an hour,T_ext,T_int file (default ` + ingest.TemplateFileName + `, - for stdout)
filled from the same temperature flags simulate accepts. Edit it and pass it
back with simulate --csv.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd, map[string]string{"simulation.setpoint_c": "setpoint"}); err != nil {
				return err
			}

			profiles, err := src.profiles(cmd, a.cfg.Simulation)
			if err != nil {
				return err
			}

			path := ingest.TemplateFileName
			if len(args) == 1 {
				path = args[0]
			}
			write := func(w io.Writer) error { return ingest.WriteTemplate(w, profiles) }
			if path == "-" {
				return write(cmd.OutOrStdout())
			}
			if err := writeFile(path, write); err != nil {
				return err
			}
			a.logger.Infof("Wrote temperature template to %s", path)
			return nil
		},
	}

	src.register(cmd)
	return cmd
}
