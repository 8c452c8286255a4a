package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ac_simulator/internal/model"
)

// Column names accepted for the outdoor and indoor temperature columns. The
// second name of each pair matches the export format so reports re-import.
var (
	OutdoorColumns = []string{"T_ext", "outdoor_temp_c"}
	IndoorColumns  = []string{"T_int", "indoor_temp_c"}
)

// CSVParser parses a 24-row temperature table.
//
// Expected format (extra columns are ignored, rows are hours 0..23 in order):
//
//	T_ext,T_int
//	30.0,24
//	29.5,24
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader) ([]model.HourProfile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, model.Invalid(model.ConstraintImport, "file is empty, expected a header with columns %q and %q", OutdoorColumns[0], IndoorColumns[0])
	}
	if err != nil {
		return nil, model.Invalid(model.ConstraintImport, "reading CSV header: %v", err)
	}

	outIdx, inIdx, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var profiles []model.HourProfile
	lineNum := 1 // header was line 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, model.Invalid(model.ConstraintImport, "line %d: %v", pe.Line, pe.Err)
			}
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		hour := len(profiles)
		if hour >= model.HoursPerDay {
			return nil, model.Invalid(model.ConstraintHourCount, "expected %d data rows, found more (line %d)", model.HoursPerDay, lineNum)
		}

		outdoor, err := parseField(record, outIdx, header[outIdx], lineNum)
		if err != nil {
			return nil, err
		}
		indoor, err := parseField(record, inIdx, header[inIdx], lineNum)
		if err != nil {
			return nil, err
		}

		profiles = append(profiles, model.HourProfile{
			Hour:            hour,
			OutdoorTempC:    outdoor,
			IndoorSetpointC: indoor,
		})
	}

	if len(profiles) != model.HoursPerDay {
		return nil, model.Invalid(model.ConstraintHourCount, "expected %d data rows, got %d", model.HoursPerDay, len(profiles))
	}

	return profiles, nil
}

func locateColumns(header []string) (outIdx, inIdx int, err error) {
	outIdx, inIdx = -1, -1
	for i, col := range header {
		name := strings.TrimSpace(col)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		header[i] = name
		if outIdx < 0 && matchesAny(name, OutdoorColumns) {
			outIdx = i
		}
		if inIdx < 0 && matchesAny(name, IndoorColumns) {
			inIdx = i
		}
	}

	var missing []string
	if outIdx < 0 {
		missing = append(missing, OutdoorColumns[0])
	}
	if inIdx < 0 {
		missing = append(missing, IndoorColumns[0])
	}
	if len(missing) > 0 {
		return 0, 0, model.Invalid(model.ConstraintImport, "file must have columns %q and %q, missing %s",
			OutdoorColumns[0], IndoorColumns[0], strings.Join(missing, ", "))
	}
	return outIdx, inIdx, nil
}

func matchesAny(name string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(name, c) {
			return true
		}
	}
	return false
}

func parseField(record []string, idx int, column string, lineNum int) (float64, error) {
	if idx >= len(record) {
		return 0, model.Invalid(model.ConstraintImport, "line %d: missing value for column %q", lineNum, column)
	}
	raw := strings.TrimSpace(record[idx])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, model.Invalid(model.ConstraintImport, "line %d: column %q: %q is not a number", lineNum, column, raw)
	}
	return v, nil
}
