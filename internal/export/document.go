package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"ac_simulator/internal/model"
	"ac_simulator/internal/wire"
)

// Format selects a report encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, csv, json or yaml)", s)
	}
}

// Write encodes r in the given format.
func Write(w io.Writer, f Format, r model.SimulationReport) error {
	switch f {
	case FormatTable:
		return WriteTable(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, r model.SimulationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wire.ReportFromModel(r)); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}

// WriteYAML writes the full report as YAML.
func WriteYAML(w io.Writer, r model.SimulationReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(wire.ReportFromModel(r)); err != nil {
		return fmt.Errorf("encoding YAML report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing YAML encoder: %w", err)
	}
	return nil
}
