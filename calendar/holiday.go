package calendar

import "fmt"

// =============================================================================
// HOLIDAYS - official (company-wide) holiday ranges
// =============================================================================

// Holiday is an official holiday spanning Start..End inclusive.
// A single-day holiday has Start == End.
type Holiday struct {
	ID    string `json:"id,omitempty" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Start Date   `json:"start_date" yaml:"start_date"`
	End   Date   `json:"end_date" yaml:"end_date"`
}

// Contains reports whether d falls inside the holiday.
func (h Holiday) Contains(d Date) bool {
	return d.AfterOrEqual(h.Start) && d.BeforeOrEqual(h.End)
}

// Validate rejects holidays without dates or with reversed ranges.
func (h Holiday) Validate() error {
	if h.Start.IsZero() || h.End.IsZero() {
		return fmt.Errorf("holiday %q: start and end dates are required", h.Name)
	}
	if h.End.Before(h.Start) {
		return fmt.Errorf("holiday %q: %w", h.Name, ErrInvalidPeriod)
	}
	return nil
}

// Holidays is the holiday set for a request.
type Holidays []Holiday

// Contains reports whether d is an official holiday.
func (hs Holidays) Contains(d Date) bool {
	for _, h := range hs {
		if h.Contains(d) {
			return true
		}
	}
	return false
}

// Lookup returns the first holiday covering d.
func (hs Holidays) Lookup(d Date) (Holiday, bool) {
	for _, h := range hs {
		if h.Contains(d) {
			return h, true
		}
	}
	return Holiday{}, false
}

// InPeriod returns holidays overlapping p.
func (hs Holidays) InPeriod(p Period) Holidays {
	var out Holidays
	for _, h := range hs {
		if h.Start.BeforeOrEqual(p.End) && h.End.AfterOrEqual(p.Start) {
			out = append(out, h)
		}
	}
	return out
}
