package model

import (
	"errors"
	"fmt"
)

// Constraint names the input rule an InvalidInputError violated.
type Constraint string

const (
	ConstraintHourCount   Constraint = "hour_count"
	ConstraintHourOrder   Constraint = "hour_order"
	ConstraintTemperature Constraint = "temperature"
	ConstraintPower       Constraint = "power"
	ConstraintStartHour   Constraint = "start_hour"
	ConstraintEndHour     Constraint = "end_hour"
	ConstraintImport      Constraint = "import"
)

var (
	// ErrInvalidInput matches every *InvalidInputError via errors.Is.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveHours is returned when no hour falls inside the usage window.
	ErrNoActiveHours = errors.New("no active hours in usage window")
)

// InvalidInputError reports out-of-contract input.
type InvalidInputError struct {
	Constraint Constraint
	Detail     string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input (%s): %s", e.Constraint, e.Detail)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds an InvalidInputError with a formatted detail.
func Invalid(c Constraint, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Constraint: c, Detail: fmt.Sprintf(format, args...)}
}

// ConstraintOf extracts the violated constraint from err, if any.
func ConstraintOf(err error) (Constraint, bool) {
	var ie *InvalidInputError
	if errors.As(err, &ie) {
		return ie.Constraint, true
	}
	return "", false
}
