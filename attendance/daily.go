package attendance

import (
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/schedule"
)

// DayInput is everything needed to classify one worker-day.
type DayInput struct {
	EmployeeID string
	Date       calendar.Date
	Schedule   schedule.BranchSchedule
	Holidays   calendar.Holidays
	Record     *Record // nil when the worker has no row for Date
}

// Compute classifies one day. It is a pure function of its input: calling it
// twice with the same DayInput yields identical DailyStats.
func Compute(in DayInput) (DailyStats, error) {
	if in.Record != nil {
		if err := in.Record.Validate(); err != nil {
			return DailyStats{}, err
		}
		if in.EmployeeID == "" {
			in.EmployeeID = in.Record.EmployeeID
		}
	}

	d := &day{in: in}
	for _, rule := range ladder {
		if rule.Applies(d) {
			return rule.Outcome(d)
		}
	}
	// unreachable: the last rule always applies
	return d.zero(ClassAbsent), nil
}

// =============================================================================
// PERIOD CALENDAR
// =============================================================================

// CalendarInput selects one worker's days over a period.
type CalendarInput struct {
	EmployeeID string
	Period     calendar.Period
	Schedule   schedule.BranchSchedule
	Holidays   calendar.Holidays
	Index      *Index
}

// Calendar computes DailyStats for every day in the period. Days whose record
// is unusable (see Index) or fails to compute are left out and reported.
func Calendar(in CalendarInput) ([]DailyStats, []Failure) {
	var (
		days     []DailyStats
		failures []Failure
	)
	for _, date := range in.Period.Days() {
		rec, ok := in.Index.Get(in.EmployeeID, date)
		if !ok {
			continue
		}
		stats, err := Compute(DayInput{
			EmployeeID: in.EmployeeID,
			Date:       date,
			Schedule:   in.Schedule,
			Holidays:   in.Holidays,
			Record:     rec,
		})
		if err != nil {
			failures = append(failures, Failure{EmployeeID: in.EmployeeID, Date: date, Err: err})
			continue
		}
		days = append(days, stats)
	}
	return days, failures
}
