package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const masked = "********"

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd, nil); err != nil {
				return err
			}

			settings := a.v.AllSettings()
			maskSecret(settings, "mqtt", "password")
			maskSecret(settings, "homeassistant", "token")

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	configCmd.AddCommand(viewCmd)
	return configCmd
}

func maskSecret(settings map[string]any, section, key string) {
	m, ok := settings[section].(map[string]any)
	if !ok {
		return
	}
	if v, _ := m[key].(string); v != "" {
		m[key] = masked
	}
}
