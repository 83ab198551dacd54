package attendance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
)

func TestNewIndex_DuplicateDayIsPoisoned(t *testing.T) {
	records := []attendance.Record{
		*record(monday, "09:00", "17:00", attendance.StatusPresent),
		*record(monday, "09:05", "17:30", attendance.StatusPresent),
		*record(monday.AddDays(1), "09:00", "17:00", attendance.StatusPresent),
	}

	ix, failures := attendance.NewIndex(records)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], attendance.ErrDuplicateRecord)

	var dup *attendance.DuplicateRecordError
	require.ErrorAs(t, failures[0].Err, &dup)
	assert.Equal(t, 2, dup.Count)

	_, ok := ix.Get("emp-1", monday)
	assert.False(t, ok, "neither duplicate row is used")

	rec, ok := ix.Get("emp-1", monday.AddDays(1))
	assert.True(t, ok)
	require.NotNil(t, rec)

	rec, ok = ix.Get("emp-1", monday.AddDays(2))
	assert.True(t, ok)
	assert.Nil(t, rec, "no record is not the same as unusable")
	assert.Equal(t, 1, ix.Len())
}

func TestNewIndex_InvalidStatusReported(t *testing.T) {
	records := []attendance.Record{
		*record(monday, "09:00", "17:00", attendance.Status("holiday")),
	}
	ix, failures := attendance.NewIndex(records)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], attendance.ErrUnknownStatus)

	_, ok := ix.Get("emp-1", monday)
	assert.False(t, ok)
}

func TestCalendar_SkipsFailuresAndKeepsTheRest(t *testing.T) {
	records := []attendance.Record{
		*record(monday, "09:00", "17:00", attendance.StatusPresent),
		*record(monday.AddDays(1), "9 o'clock", "17:00", attendance.StatusPresent),
		*record(monday.AddDays(2), "09:00", "18:00", attendance.StatusPresent),
	}
	ix, failures := attendance.NewIndex(records)
	require.Empty(t, failures)

	period := calendar.Period{Start: monday, End: friday}
	days, failures := attendance.Calendar(attendance.CalendarInput{
		EmployeeID: "emp-1",
		Period:     period,
		Schedule:   officeSchedule(15),
		Index:      ix,
	})

	require.Len(t, failures, 1)
	assert.Equal(t, monday.AddDays(1), failures[0].Date)

	require.Len(t, days, 4, "five days minus the failed one")
	assert.Equal(t, attendance.ClassCommitted, days[0].Classification)
	assert.Equal(t, 60, days[1].NetOvertimeMinutes)
	assert.Equal(t, attendance.ClassAbsent, days[2].Classification, "thursday, no record")
	assert.Equal(t, attendance.ClassWeeklyOff, days[3].Classification, "friday")
	assert.Equal(t, time.Friday, days[3].Date.Weekday())
}
