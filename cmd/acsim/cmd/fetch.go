package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ac_simulator/internal/homeassistant"
	"ac_simulator/internal/ingest"
	"ac_simulator/internal/model"
)

var fetchBindings = map[string]string{
	"homeassistant.url":       "ha-url",
	"homeassistant.token":     "ha-token",
	"homeassistant.entity_id": "entity",
	"simulation.setpoint_c":   "setpoint",
}

func newFetchTempsCmd(a *app) *cobra.Command {
	var date, tz string

	cmd := &cobra.Command{
		Use:   "fetch-temps [file]",
		Short: "Build a temperature CSV from a day of Home Assistant outdoor history",
		Long: `fetch-temps reads one calendar day of an outdoor temperature entity from the
Home Assistant history API, averages it per hour and writes an hour,T_ext,T_int
file (default ` + ingest.TemplateFileName + `, - for stdout) for simulate --csv.
The token can come from ACSIM_HOMEASSISTANT_TOKEN.`,
		Example: `  acsim fetch-temps --ha-url http://homeassistant.local:8123 --date 2026-07-01 july1.csv`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd, fetchBindings); err != nil {
				return err
			}
			ha := a.cfg.HA
			if ha.URL == "" {
				return fmt.Errorf("Home Assistant URL not set, use --ha-url or homeassistant.url")
			}
			if ha.Token == "" {
				return fmt.Errorf("Home Assistant token not set, use --ha-token or ACSIM_HOMEASSISTANT_TOKEN")
			}

			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("time zone: %w", err)
			}
			day := time.Now().In(loc).AddDate(0, 0, -1)
			if date != "" {
				if day, err = time.ParseInLocation(time.DateOnly, date, loc); err != nil {
					return fmt.Errorf("date: %w", err)
				}
			}

			client := homeassistant.NewClient(ha.URL, ha.Token, a.logger)
			outdoor, err := client.OutdoorDay(cmd.Context(), ha.EntityID, day, loc)
			if err != nil {
				return fmt.Errorf("fetching %s for %s: %w", ha.EntityID, day.Format(time.DateOnly), err)
			}

			setpoints := make([]float64, model.HoursPerDay)
			for h := range setpoints {
				setpoints[h] = a.cfg.Simulation.SetpointC
			}
			profiles, err := model.ProfilesFromSeries(outdoor, setpoints)
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
			a.logger.Infof("Wrote %s outdoor temperatures for %s to %s", ha.EntityID, day.Format(time.DateOnly), path)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.String("ha-url", "", "Home Assistant base URL (config homeassistant.url)")
	fs.String("ha-token", "", "long-lived access token (config homeassistant.token)")
	fs.String("entity", "", "outdoor temperature entity ID (config homeassistant.entity_id)")
	fs.Float64("setpoint", 0, "indoor set point in °C for every hour (config simulation.setpoint_c)")
	fs.StringVar(&date, "date", "", "day to fetch, YYYY-MM-DD (default yesterday)")
	fs.StringVar(&tz, "tz", "Local", "time zone that defines the day's hours")
	return cmd
}
