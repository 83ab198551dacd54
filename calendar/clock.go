package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is added to a check-out that falls before its check-in
// (shift crossing midnight).
const MinutesPerDay = 24 * 60

// ErrInvalidClock is returned for time-of-day strings that are not HH:MM[:SS].
var ErrInvalidClock = errors.New("invalid time of day")

// ClockTime is a time of day as minutes since midnight. Seconds are dropped.
type ClockTime int

// ParseClock parses "HH:MM" or "HH:MM:SS" (24h clock).
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	hour, err := clockField(parts[0], 23)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minute, err := clockField(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if len(parts) == 3 {
		if _, err := clockField(parts[2], 59); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}

	return ClockTime(hour*60 + minute), nil
}

// MustParseClock panics on invalid input. Only for constants and tests.
func MustParseClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func clockField(s string, max int) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, ErrInvalidClock
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > max {
		return 0, ErrInvalidClock
	}
	return n, nil
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int { return int(c) }

func (c ClockTime) String() string {
	m := int(c) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// MarshalText implements encoding.TextMarshaler.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Span converts a check-in/check-out pair to minutes since the check-in day's
// midnight. A check-out earlier than the check-in belongs to the next day, so
// end is rolled forward by MinutesPerDay.
func Span(checkIn, checkOut ClockTime) (start, end int) {
	start, end = int(checkIn), int(checkOut)
	if end < start {
		end += MinutesPerDay
	}
	return start, end
}
