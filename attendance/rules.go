package attendance

import "github.com/warp/attendance-engine/calendar"

// =============================================================================
// PRECEDENCE LADDER
// =============================================================================
//
// Order matters and is fixed here, not in control flow:
//
//   1. under_review          -> zero stats, excluded from every aggregate
//   2. absent_penalty        -> zero stats, check-in/out ignored
//   3. incomplete times      -> zero stats; leave / official holiday / weekly off / absent
//   4. holiday work          -> whole shift is overtime
//   5. working day           -> delay, overtime, early departure
//
// The last rule always applies.

// Rule is one predicate -> outcome step of the ladder.
type Rule struct {
	Name    string
	Applies func(d *day) bool
	Outcome func(d *day) (DailyStats, error)
}

// day carries the inputs for one evaluation.
type day struct {
	in DayInput
}

func (d *day) status() Status {
	if d.in.Record == nil {
		return ""
	}
	return d.in.Record.Status
}

func (d *day) isOfficialHoliday() bool { return d.in.Holidays.Contains(d.in.Date) }
func (d *day) isWeekend() bool         { return d.in.Schedule.IsWeekend(d.in.Date) }

// zero returns stats with identity filled and every duration zero.
func (d *day) zero(c Classification) DailyStats {
	s := DailyStats{
		EmployeeID:     d.in.EmployeeID,
		Date:           d.in.Date,
		Classification: c,
		Label:          c.Label(),
		Status:         d.status(),
	}
	if d.in.Record != nil {
		s.CheckedIn = d.in.Record.CheckIn != ""
	}
	return s
}

var ladder = []Rule{
	{
		Name:    "under_review",
		Applies: func(d *day) bool { return d.status() == StatusUnderReview },
		Outcome: func(d *day) (DailyStats, error) { return d.zero(ClassUnderReview), nil },
	},
	{
		Name:    "absent_penalty",
		Applies: func(d *day) bool { return d.status() == StatusAbsentPenalty },
		Outcome: func(d *day) (DailyStats, error) { return d.zero(ClassUnauthorizedAbsence), nil },
	},
	{
		Name:    "incomplete_times",
		Applies: func(d *day) bool { return d.in.Record == nil || !d.in.Record.HasBothTimes() },
		Outcome: func(d *day) (DailyStats, error) {
			switch {
			case d.status() == StatusLeave:
				return d.zero(ClassLeave), nil
			case d.isOfficialHoliday():
				return d.zero(ClassOfficialHoliday), nil
			case d.isWeekend():
				return d.zero(ClassWeeklyOff), nil
			default:
				return d.zero(ClassAbsent), nil
			}
		},
	},
	{
		Name: "holiday_work",
		Applies: func(d *day) bool {
			return d.isWeekend() || d.isOfficialHoliday() || d.status() == StatusLeave
		},
		Outcome: holidayWork,
	},
	{
		Name:    "working_day",
		Applies: func(*day) bool { return true },
		Outcome: workingDay,
	},
}

// Rules returns a copy of the ladder in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(ladder))
	copy(out, ladder)
	return out
}

// =============================================================================
// OUTCOMES WITH TIME ARITHMETIC
// =============================================================================

func holidayWork(d *day) (DailyStats, error) {
	start, end, err := d.shift()
	if err != nil {
		return DailyStats{}, err
	}
	worked := end - start

	s := d.zero(ClassHolidayWork)
	s.WorkedMinutes = worked
	s.OvertimeMinutes = worked
	s.NetOvertimeMinutes = worked
	return s, nil
}

func workingDay(d *day) (DailyStats, error) {
	start, end, err := d.shift()
	if err != nil {
		return DailyStats{}, err
	}
	rec := d.in.Record
	sched := d.in.Schedule
	workStart := sched.WorkStart.Minutes()
	workEnd := sched.WorkEnd.Minutes()
	grace := sched.GracePeriodMinutes

	// No partial credit: below grace the delay is zero, above it the full
	// lateness is reported.
	actualDelay := max(0, start-workStart)
	delay := 0
	if actualDelay > grace {
		delay = actualDelay
	}

	overtime := 0
	if start < workStart {
		overtime += workStart - start
	}
	if end > workEnd {
		overtime += end - workEnd
	}

	earlyDeparture, earlyDeduction := 0, 0
	if end < workEnd {
		earlyDeparture = workEnd - end
		if !rec.EarlyDeparturePermission {
			earlyDeduction = earlyDeparture
		}
	}

	// Grace is subtracted again from the already-thresholded delay.
	delayPenalty := max(0, delay-grace)
	net := max(0, overtime-delayPenalty-earlyDeduction)

	var c Classification
	switch {
	case rec.Status == StatusAbsent:
		c = ClassAbsent
	case delay > 0:
		c = ClassLate
	case earlyDeparture > 0 && !rec.EarlyDeparturePermission:
		c = ClassEarlyDeparture
	default:
		c = ClassCommitted
	}

	s := d.zero(c)
	s.WorkedMinutes = end - start
	s.DelayMinutes = delay
	s.DelayPenaltyMinutes = delayPenalty
	s.OvertimeMinutes = overtime
	s.NetOvertimeMinutes = net
	s.EarlyDepartureMinutes = earlyDeparture
	s.EarlyDepartureDeduction = earlyDeduction
	return s, nil
}

// shift parses check-in/out and applies the overnight rollover.
func (d *day) shift() (start, end int, err error) {
	rec := d.in.Record
	in, err := calendar.ParseClock(rec.CheckIn)
	if err != nil {
		return 0, 0, d.parseError("check_in", rec.CheckIn, err)
	}
	out, err := calendar.ParseClock(rec.CheckOut)
	if err != nil {
		return 0, 0, d.parseError("check_out", rec.CheckOut, err)
	}
	start, end = calendar.Span(in, out)
	return start, end, nil
}

func (d *day) parseError(field, value string, err error) error {
	return &ParseError{
		EmployeeID: d.in.EmployeeID,
		Date:       d.in.Date,
		Field:      field,
		Value:      value,
		Err:        err,
	}
}
