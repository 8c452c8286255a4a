package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"ac_simulator/internal/model"
)

// TemplateFileName is the suggested name for a fresh temperature template.
const TemplateFileName = "ac_temperatures.csv"

// WriteTemplate writes profiles as an hour,T_ext,T_int CSV that CSVParser reads back.
func WriteTemplate(w io.Writer, profiles []model.HourProfile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hour", OutdoorColumns[0], IndoorColumns[0]}); err != nil {
		return fmt.Errorf("writing template header: %w", err)
	}
	for _, p := range profiles {
		record := []string{
			strconv.Itoa(p.Hour),
			strconv.FormatFloat(p.OutdoorTempC, 'f', -1, 64),
			strconv.FormatFloat(p.IndoorSetpointC, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing template row %d: %w", p.Hour, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
