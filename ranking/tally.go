package ranking

import (
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/schedule"
)

// tally is one worker's folded period totals. Minutes unless noted.
type tally struct {
	worker       employee.Worker
	penaltyValue float64

	delay       int
	rawOvertime int
	netOvertime int
	worked      int

	// working days only
	workingDays int
	unexcused   int
	leaves      int
	present     int
}

func fold(w employee.Worker, bs schedule.BranchSchedule, period calendar.Period, holidays calendar.Holidays, ix *attendance.Index) (*tally, []attendance.Failure) {
	penalty, _ := bs.PenaltyValue.Float64()
	t := &tally{worker: w, penaltyValue: penalty}

	days, failures := attendance.Calendar(attendance.CalendarInput{
		EmployeeID: w.ID,
		Period:     period,
		Schedule:   bs,
		Holidays:   holidays,
		Index:      ix,
	})

	for _, d := range days {
		if d.Excluded() {
			continue
		}
		t.delay += d.DelayMinutes
		t.rawOvertime += d.OvertimeMinutes
		t.netOvertime += d.NetOvertimeMinutes
		t.worked += d.WorkedMinutes

		if !bs.IsWorkingDay(d.Date, holidays) {
			continue
		}
		t.workingDays++
		switch d.Status {
		case attendance.StatusAbsentPenalty:
			t.unexcused++
		case attendance.StatusLeave:
			t.leaves++
		}
		if d.CheckedIn || d.Status == attendance.StatusPresent || d.Status == attendance.StatusLate {
			t.present++
		}
	}
	return t, failures
}
