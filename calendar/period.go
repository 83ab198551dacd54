package calendar

import (
	"errors"
	"time"
)

// ErrInvalidPeriod is returned when a period ends before it starts.
var ErrInvalidPeriod = errors.New("invalid period: end before start")

// =============================================================================
// PERIOD - inclusive day range used for scoring and payroll
// =============================================================================

// Period is the inclusive range [Start, End].
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// MonthPeriod returns the first through last day of a month.
func MonthPeriod(year int, month time.Month) Period {
	start := NewDate(year, month, 1)
	return Period{Start: start, End: start.AddMonths(1).AddDays(-1)}
}

// Validate rejects zero or reversed periods.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every day in the period in order.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
