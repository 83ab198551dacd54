package attendance

import (
	"errors"
	"fmt"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrUnknownStatus is returned for a status outside the closed enum.
	ErrUnknownStatus = errors.New("unknown attendance status")

	// ErrInvalidTime is wrapped by ParseError.
	ErrInvalidTime = calendar.ErrInvalidClock

	// ErrDuplicateRecord is returned when an employee has two records on one date.
	ErrDuplicateRecord = errors.New("duplicate attendance record")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ParseError identifies a record whose time-of-day could not be parsed.
type ParseError struct {
	EmployeeID string
	Date       calendar.Date
	Field      string // "check_in" or "check_out"
	Value      string
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("attendance %s/%s: cannot parse %s %q: %v",
		e.EmployeeID, e.Date, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateRecordError reports more than one record for (employee, date).
type DuplicateRecordError struct {
	EmployeeID string
	Date       calendar.Date
	Count      int
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("attendance %s/%s: %d records for one day", e.EmployeeID, e.Date, e.Count)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicateRecord }

// Failure is one record (or worker) that could not be processed. Calculators
// return failures next to their partial results instead of aborting.
type Failure struct {
	EmployeeID string        `json:"employee_id"`
	Date       calendar.Date `json:"date,omitempty"`
	Err        error         `json:"-"`
}

func (f Failure) Error() string {
	if f.Date.IsZero() {
		return fmt.Sprintf("%s: %v", f.EmployeeID, f.Err)
	}
	return fmt.Sprintf("%s/%s: %v", f.EmployeeID, f.Date, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// IsClientError returns true if err comes from malformed input data.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrDuplicateRecord)
}
