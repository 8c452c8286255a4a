package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"ac_simulator/internal/model"
)

// DefaultFileName is the suggested name for a CSV report download.
const DefaultFileName = "ac_consumption.csv"

// CSVHeader lists the report columns in order.
var CSVHeader = []string{"hour", "outdoor_temp_c", "indoor_temp_c", "cop", "energy_kwh"}

// WriteCSV writes one row per hour. COP and energy are rounded to two decimals.
func WriteCSV(w io.Writer, r model.SimulationReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, h := range r.Hours {
		record := []string{
			strconv.Itoa(h.Hour),
			strconv.FormatFloat(h.OutdoorTempC, 'f', -1, 64),
			strconv.FormatFloat(h.IndoorSetpointC, 'f', -1, 64),
			strconv.FormatFloat(h.COP, 'f', 2, 64),
			strconv.FormatFloat(h.EnergyKWh, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV row for hour %d: %w", h.Hour, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
