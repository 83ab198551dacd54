package schedule

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// RAW CONFIG - stored, possibly partial form
// =============================================================================

// RawBranch is a branch document as stored. Nil means "use the default".
type RawBranch struct {
	WorkStartTime      *string  `json:"work_start_time,omitempty" yaml:"work_start_time"`
	WorkEndTime        *string  `json:"work_end_time,omitempty" yaml:"work_end_time"`
	WeekendDays        []int    `json:"weekend_days" yaml:"weekend_days"` // nil means default, empty means none
	GracePeriodMinutes *int     `json:"grace_period_minutes,omitempty" yaml:"grace_period_minutes"`
	PenaltyValue       *float64 `json:"penalty_value,omitempty" yaml:"penalty_value"`
	PayrollDaysBase    *float64 `json:"payroll_days_base,omitempty" yaml:"payroll_days_base"`
	PayrollHoursBase   *float64 `json:"payroll_hours_base,omitempty" yaml:"payroll_hours_base"`
}

// RawWeights holds optional ranking weights.
type RawWeights struct {
	Overtime   *float64 `json:"overtime,omitempty" yaml:"overtime"`
	Commitment *float64 `json:"commitment,omitempty" yaml:"commitment"`
	Absence    *float64 `json:"absence,omitempty" yaml:"absence"`
}

// RawConfig is the full stored configuration.
type RawConfig struct {
	Branches map[string]RawBranch `json:"branches,omitempty" yaml:"branches"`
	Weights  *RawWeights          `json:"weights,omitempty" yaml:"weights"`
}

// ParseRawConfig decodes a JSON configuration document.
func ParseRawConfig(data []byte) (RawConfig, error) {
	var raw RawConfig
	if len(data) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("failed to parse schedule config: %w", err)
	}
	return raw, nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	DefaultWorkStart          = "09:00"
	DefaultWorkEnd            = "17:00"
	DefaultGracePeriodMinutes = 15
)

var (
	DefaultWeekendDays      = []int{int(time.Friday)}
	DefaultPenaltyValue     = decimal.NewFromInt(1)
	DefaultPayrollDaysBase  = decimal.NewFromInt(30)
	DefaultPayrollHoursBase = decimal.NewFromInt(8)

	// DefaultWeights is the 80/10/10 split.
	DefaultWeights = Weights{Overtime: 80, Commitment: 10, Absence: 10}
)

// Default returns the hard-default schedule for branch.
func Default(branch Branch) BranchSchedule {
	bs, _ := resolveBranch(branch, RawBranch{})
	return bs
}

// DefaultSettings resolves an empty configuration.
func DefaultSettings() *Settings {
	s, _ := Resolve(RawConfig{})
	return s
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolve merges raw over the defaults and validates the result.
func Resolve(raw RawConfig) (*Settings, error) {
	settings := &Settings{branches: make(map[Branch]BranchSchedule)}

	for _, b := range DefaultBranches {
		bs, err := resolveBranch(b, raw.Branches[string(b)])
		if err != nil {
			return nil, err
		}
		settings.branches[b] = bs
	}

	for name, rb := range raw.Branches {
		b := Branch(name)
		if _, done := settings.branches[b]; done {
			continue
		}
		if name == "" {
			return nil, &ConfigError{Field: "branches", Reason: "branch name must not be empty"}
		}
		bs, err := resolveBranch(b, rb)
		if err != nil {
			return nil, err
		}
		settings.branches[b] = bs
	}

	weights, err := resolveWeights(raw.Weights)
	if err != nil {
		return nil, err
	}
	settings.Weights = weights

	return settings, nil
}

func resolveBranch(branch Branch, rb RawBranch) (BranchSchedule, error) {
	field := func(name string) string { return "branches." + string(branch) + "." + name }

	start, err := calendar.ParseClock(stringOr(rb.WorkStartTime, DefaultWorkStart))
	if err != nil {
		return BranchSchedule{}, &ConfigError{Field: field("work_start_time"), Reason: err.Error()}
	}
	end, err := calendar.ParseClock(stringOr(rb.WorkEndTime, DefaultWorkEnd))
	if err != nil {
		return BranchSchedule{}, &ConfigError{Field: field("work_end_time"), Reason: err.Error()}
	}

	weekend := rb.WeekendDays
	if weekend == nil {
		weekend = DefaultWeekendDays
	}
	days := make([]time.Weekday, 0, len(weekend))
	for _, d := range weekend {
		if d < int(time.Sunday) || d > int(time.Saturday) {
			return BranchSchedule{}, &ConfigError{Field: field("weekend_days"), Reason: fmt.Sprintf("weekday %d out of range 0-6", d)}
		}
		days = append(days, time.Weekday(d))
	}

	grace := DefaultGracePeriodMinutes
	if rb.GracePeriodMinutes != nil {
		grace = *rb.GracePeriodMinutes
	}
	if grace < 0 {
		return BranchSchedule{}, &ConfigError{Field: field("grace_period_minutes"), Reason: "must not be negative"}
	}

	penalty := decimalOr(rb.PenaltyValue, DefaultPenaltyValue)
	if penalty.IsNegative() {
		return BranchSchedule{}, &ConfigError{Field: field("penalty_value"), Reason: "must not be negative"}
	}
	daysBase := decimalOr(rb.PayrollDaysBase, DefaultPayrollDaysBase)
	if !daysBase.IsPositive() {
		return BranchSchedule{}, &ConfigError{Field: field("payroll_days_base"), Reason: "must be positive"}
	}
	hoursBase := decimalOr(rb.PayrollHoursBase, DefaultPayrollHoursBase)
	if !hoursBase.IsPositive() {
		return BranchSchedule{}, &ConfigError{Field: field("payroll_hours_base"), Reason: "must be positive"}
	}

	return BranchSchedule{
		Branch:             branch,
		WorkStart:          start,
		WorkEnd:            end,
		WeekendDays:        calendar.NewWeekdaySet(days...),
		GracePeriodMinutes: grace,
		PenaltyValue:       penalty,
		PayrollDaysBase:    daysBase,
		PayrollHoursBase:   hoursBase,
	}, nil
}

func resolveWeights(rw *RawWeights) (Weights, error) {
	w := DefaultWeights
	if rw == nil {
		return w, nil
	}
	if rw.Overtime != nil {
		w.Overtime = *rw.Overtime
	}
	if rw.Commitment != nil {
		w.Commitment = *rw.Commitment
	}
	if rw.Absence != nil {
		w.Absence = *rw.Absence
	}
	if w.Overtime < 0 || w.Commitment < 0 || w.Absence < 0 {
		return Weights{}, &ConfigError{Field: "weights", Reason: "must not be negative"}
	}
	if math.Abs(w.Total()-100) > 1e-9 {
		return Weights{}, &ConfigError{Field: "weights", Reason: fmt.Sprintf("must sum to 100, got %g", w.Total())}
	}
	return w, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func decimalOr(v *float64, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return decimal.NewFromFloat(*v)
}

func sortedBranches(m map[Branch]BranchSchedule) []Branch {
	out := make([]Branch, 0, len(m))
	for b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
