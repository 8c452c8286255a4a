package ingest

import (
	"io"

	"ac_simulator/internal/model"
)

// Parser reads an hourly temperature profile from a source.
type Parser interface {
	Parse(r io.Reader) ([]model.HourProfile, error)
}
