package schedule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/schedule"
)

func ptr[T any](v T) *T { return &v }

func TestResolve_EmptyConfigIsFullyDefaulted(t *testing.T) {
	settings, err := schedule.Resolve(schedule.RawConfig{})
	require.NoError(t, err)

	for _, b := range schedule.DefaultBranches {
		bs := settings.For(b)
		assert.Equal(t, b, bs.Branch)
		assert.Equal(t, "09:00", bs.WorkStart.String())
		assert.Equal(t, "17:00", bs.WorkEnd.String())
		assert.True(t, bs.WeekendDays.Contains(time.Friday))
		assert.Equal(t, 15, bs.GracePeriodMinutes)
		assert.True(t, bs.PenaltyValue.Equal(decimal.NewFromInt(1)))
		assert.True(t, bs.PayrollDaysBase.Equal(decimal.NewFromInt(30)))
		assert.True(t, bs.PayrollHoursBase.Equal(decimal.NewFromInt(8)))
	}
	assert.Equal(t, schedule.DefaultWeights, settings.Weights)
}

func TestResolve_PartialBranchMergesOverDefaults(t *testing.T) {
	raw := schedule.RawConfig{
		Branches: map[string]schedule.RawBranch{
			"factory": {
				WorkStartTime:      ptr("07:30"),
				GracePeriodMinutes: ptr(30),
				WeekendDays:        []int{5, 6},
			},
		},
	}

	settings, err := schedule.Resolve(raw)
	require.NoError(t, err)

	factory := settings.For(schedule.BranchFactory)
	assert.Equal(t, "07:30", factory.WorkStart.String())
	assert.Equal(t, "17:00", factory.WorkEnd.String(), "unset field keeps default")
	assert.Equal(t, 30, factory.GracePeriodMinutes)
	assert.True(t, factory.WeekendDays.Contains(time.Saturday))

	office := settings.For(schedule.BranchOffice)
	assert.Equal(t, "09:00", office.WorkStart.String(), "office untouched")
}

func TestSettings_UnknownBranchFallsBackToOffice(t *testing.T) {
	raw := schedule.RawConfig{
		Branches: map[string]schedule.RawBranch{
			"office": {GracePeriodMinutes: ptr(5)},
		},
	}
	settings, err := schedule.Resolve(raw)
	require.NoError(t, err)

	bs := settings.For(schedule.Branch("warehouse"))
	assert.Equal(t, schedule.BranchOffice, bs.Branch)
	assert.Equal(t, 5, bs.GracePeriodMinutes)
	assert.False(t, settings.Has("warehouse"))
}

func TestResolve_ExtraBranch(t *testing.T) {
	raw := schedule.RawConfig{
		Branches: map[string]schedule.RawBranch{
			"warehouse": {WorkEndTime: ptr("20:00")},
		},
	}
	settings, err := schedule.Resolve(raw)
	require.NoError(t, err)
	require.True(t, settings.Has("warehouse"))
	assert.Equal(t, "20:00", settings.For("warehouse").WorkEnd.String())
	assert.Len(t, settings.Branches(), 3)
	assert.Equal(t, schedule.BranchOffice, settings.Branches()[0].Branch)
}

func TestResolve_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		raw   schedule.RawConfig
		field string
	}{
		{
			name:  "bad start time",
			raw:   schedule.RawConfig{Branches: map[string]schedule.RawBranch{"office": {WorkStartTime: ptr("9am")}}},
			field: "branches.office.work_start_time",
		},
		{
			name:  "negative grace",
			raw:   schedule.RawConfig{Branches: map[string]schedule.RawBranch{"factory": {GracePeriodMinutes: ptr(-1)}}},
			field: "branches.factory.grace_period_minutes",
		},
		{
			name:  "zero days base",
			raw:   schedule.RawConfig{Branches: map[string]schedule.RawBranch{"office": {PayrollDaysBase: ptr(0.0)}}},
			field: "branches.office.payroll_days_base",
		},
		{
			name:  "weekday out of range",
			raw:   schedule.RawConfig{Branches: map[string]schedule.RawBranch{"office": {WeekendDays: []int{7}}}},
			field: "branches.office.weekend_days",
		},
		{
			name:  "weights not summing to 100",
			raw:   schedule.RawConfig{Weights: &schedule.RawWeights{Overtime: ptr(90.0)}},
			field: "weights",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schedule.Resolve(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, schedule.ErrInvalidConfig)

			var cfgErr *schedule.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestResolve_ConfiguredWeights(t *testing.T) {
	raw := schedule.RawConfig{Weights: &schedule.RawWeights{
		Overtime:   ptr(60.0),
		Commitment: ptr(20.0),
		Absence:    ptr(20.0),
	}}
	settings, err := schedule.Resolve(raw)
	require.NoError(t, err)
	assert.Equal(t, schedule.Weights{Overtime: 60, Commitment: 20, Absence: 20}, settings.Weights)
}

func TestParseRawConfig(t *testing.T) {
	raw, err := schedule.ParseRawConfig([]byte(`{
		"branches": {"office": {"work_start_time": "08:00", "penalty_value": 2}}
	}`))
	require.NoError(t, err)

	settings, err := schedule.Resolve(raw)
	require.NoError(t, err)
	office := settings.For(schedule.BranchOffice)
	assert.Equal(t, "08:00", office.WorkStart.String())
	assert.True(t, office.PenaltyValue.Equal(decimal.NewFromInt(2)))

	_, err = schedule.ParseRawConfig([]byte(`{"branches": [`))
	assert.Error(t, err)
}

func TestBranchSchedule_IsWorkingDay(t *testing.T) {
	bs := schedule.Default(schedule.BranchOffice)
	friday := calendar.NewDate(2025, time.January, 3)
	thursday := calendar.NewDate(2025, time.January, 2)
	holidays := calendar.Holidays{{Name: "Bank holiday", Start: thursday, End: thursday}}

	assert.True(t, bs.IsWeekend(friday))
	assert.False(t, bs.IsWorkingDay(friday, nil))
	assert.False(t, bs.IsWorkingDay(thursday, holidays))
	assert.True(t, bs.IsWorkingDay(thursday, nil))
}
