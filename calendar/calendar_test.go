package calendar_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/calendar"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "9:05", want: 545},
		{in: "17:30:59", want: 1050},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := calendar.ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, calendar.ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Minutes())
		})
	}
}

func TestSpan_OvernightRollsForward(t *testing.T) {
	start, end := calendar.Span(calendar.MustParseClock("22:00"), calendar.MustParseClock("06:00"))
	assert.Equal(t, 1320, start)
	assert.Equal(t, 1800, end)
	assert.Equal(t, 480, end-start)

	start, end = calendar.Span(calendar.MustParseClock("09:00"), calendar.MustParseClock("17:00"))
	assert.Equal(t, 480, end-start)
}

func TestMonthPeriod(t *testing.T) {
	p := calendar.MonthPeriod(2024, time.February)
	assert.Equal(t, "2024-02-01", p.Start.String())
	assert.Equal(t, "2024-02-29", p.End.String())
	assert.Len(t, p.Days(), 29)
	assert.NoError(t, p.Validate())

	reversed := calendar.Period{Start: p.End, End: p.Start}
	assert.ErrorIs(t, reversed.Validate(), calendar.ErrInvalidPeriod)
}

func TestHolidays_InclusiveRange(t *testing.T) {
	eid := calendar.Holiday{
		Name:  "Eid",
		Start: calendar.NewDate(2025, time.March, 30),
		End:   calendar.NewDate(2025, time.April, 2),
	}
	hs := calendar.Holidays{eid}

	assert.True(t, hs.Contains(calendar.NewDate(2025, time.March, 30)))
	assert.True(t, hs.Contains(calendar.NewDate(2025, time.April, 2)))
	assert.False(t, hs.Contains(calendar.NewDate(2025, time.April, 3)))
	assert.False(t, hs.Contains(calendar.NewDate(2025, time.March, 29)))

	assert.Len(t, hs.InPeriod(calendar.MonthPeriod(2025, time.April)), 1)
	assert.Empty(t, hs.InPeriod(calendar.MonthPeriod(2025, time.May)))
}

func TestWeekdaySet(t *testing.T) {
	s := calendar.NewWeekdaySet(time.Friday, time.Saturday)
	assert.True(t, s.Contains(time.Friday))
	assert.False(t, s.Contains(time.Sunday))
	assert.Equal(t, []int{5, 6}, s.Ints())
}

func TestDate_JSONRoundTrip(t *testing.T) {
	var h calendar.Holiday
	err := json.Unmarshal([]byte(`{"name":"National Day","start_date":"2025-09-23","end_date":"2025-09-23"}`), &h)
	require.NoError(t, err)
	assert.Equal(t, calendar.NewDate(2025, time.September, 23), h.Start)
	assert.NoError(t, h.Validate())

	err = json.Unmarshal([]byte(`{"start_date":"23/09/2025"}`), &h)
	assert.Error(t, err)
}
