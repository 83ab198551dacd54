/*
Package calendar provides the date and time-of-day primitives the engine works in.

PURPOSE:
  Attendance is recorded per calendar day with wall-clock check-in/check-out
  strings. Everything downstream (daily stats, ranking, payroll) needs the same
  answers to the same questions: which weekday is this, is it inside the month,
  is it an official holiday, how many minutes past midnight is "09:20".

KEY CONCEPTS:
  - Date: a calendar day, always normalized to UTC midnight
  - ClockTime: minutes since midnight parsed from "HH:MM" / "HH:MM:SS"
  - WeekdaySet: the branch's weekly days off
  - Period: an inclusive [Start, End] day range
  - Holiday / Holidays: inclusive holiday ranges

SEE ALSO:
  - schedule: resolves branch working hours built on these types
  - attendance: consumes them to classify a day
*/
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for dates (JSON, YAML, SQLite).
const DateLayout = "2006-01-02"

// =============================================================================
// DATE
// =============================================================================

// Date is a calendar day. The zero value is "no date".
type Date struct {
	Time time.Time
}

// NewDate returns the day at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping t's wall clock date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.Time.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.Time.AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int              { return d.Time.Year() }
func (d Date) Month() time.Month      { return d.Time.Month() }
func (d Date) Day() int               { return d.Time.Day() }
func (d Date) Weekday() time.Weekday  { return d.Time.Weekday() }
func (d Date) IsZero() bool           { return d.Time.IsZero() }
func (d Date) String() string         { return d.Time.Format(DateLayout) }
func (d Date) InMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

// MarshalText implements encoding.TextMarshaler (used by JSON and YAML).
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// WEEKDAY SET
// =============================================================================

// WeekdaySet is a bitmask of weekdays (bit n = time.Weekday(n)).
type WeekdaySet uint8

// NewWeekdaySet builds a set from weekdays. Out-of-range values are ignored;
// callers validate before building.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			s |= 1 << uint(d)
		}
	}
	return s
}

func (s WeekdaySet) Contains(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }
func (s WeekdaySet) IsEmpty() bool                { return s == 0 }

// Days returns the members in Sunday..Saturday order.
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// Ints returns the members as weekday indices, for serialization.
func (s WeekdaySet) Ints() []int {
	days := s.Days()
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}
