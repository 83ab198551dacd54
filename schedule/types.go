/*
Package schedule resolves branch work schedules.

PURPOSE:
  Branch configuration arrives partial: a stored document that may set only a
  grace period, or nothing at all for a branch that was never configured.
  Resolve merges it over hard defaults exactly once per request and hands every
  downstream calculator a complete, validated Settings value. Nothing outside
  this package ever sees an unset field.

KEY CONCEPTS:
  - Branch: organizational unit with its own schedule (office, factory)
  - BranchSchedule: fully populated working hours, weekend, grace, payroll bases
  - Weights: ranking component weights (overtime / commitment / absence)
  - RawConfig: the stored, partial form (JSON or YAML)

FALLBACK:
  A worker whose branch has no schedule gets the office schedule. This is a
  documented fallback, not an error.

SEE ALSO:
  - attendance: classifies a day against a BranchSchedule
  - ranking, payroll: read penalty values, weights and payroll bases from here
*/
package schedule

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/calendar"
)

// Branch identifies an organizational unit.
type Branch string

const (
	BranchOffice  Branch = "office"
	BranchFactory Branch = "factory"
)

// DefaultBranches are always present in resolved Settings.
var DefaultBranches = []Branch{BranchOffice, BranchFactory}

// BranchSchedule is a branch's complete working configuration.
type BranchSchedule struct {
	Branch             Branch              `json:"branch"`
	WorkStart          calendar.ClockTime  `json:"work_start_time"`
	WorkEnd            calendar.ClockTime  `json:"work_end_time"`
	WeekendDays        calendar.WeekdaySet `json:"-"`
	GracePeriodMinutes int                 `json:"grace_period_minutes"`

	// PenaltyValue multiplies unexcused absences, both for ranking penalty
	// points and for the payroll absence penalty.
	PenaltyValue     decimal.Decimal `json:"penalty_value"`
	PayrollDaysBase  decimal.Decimal `json:"payroll_days_base"`
	PayrollHoursBase decimal.Decimal `json:"payroll_hours_base"`
}

// IsWeekend reports whether d falls on one of the branch's weekly days off.
func (s BranchSchedule) IsWeekend(d calendar.Date) bool {
	return s.WeekendDays.Contains(d.Weekday())
}

// IsWorkingDay is true when d is neither a weekend day nor an official holiday.
func (s BranchSchedule) IsWorkingDay(d calendar.Date, holidays calendar.Holidays) bool {
	return !s.IsWeekend(d) && !holidays.Contains(d)
}

// Weights are the ranking component weights on the 100-point scale.
type Weights struct {
	Overtime   float64 `json:"overtime"`
	Commitment float64 `json:"commitment"`
	Absence    float64 `json:"absence"`
}

// Total returns the sum of all weights.
func (w Weights) Total() float64 {
	return w.Overtime + w.Commitment + w.Absence
}

// Settings is the resolved configuration for one request.
type Settings struct {
	branches map[Branch]BranchSchedule
	Weights  Weights
}

// For returns the schedule for branch, or the office schedule if the branch
// is unknown.
func (s *Settings) For(branch Branch) BranchSchedule {
	if bs, ok := s.branches[branch]; ok {
		return bs
	}
	return s.branches[BranchOffice]
}

// Has reports whether branch has its own resolved schedule.
func (s *Settings) Has(branch Branch) bool {
	_, ok := s.branches[branch]
	return ok
}

// Branches returns all resolved schedules, office first then by name.
func (s *Settings) Branches() []BranchSchedule {
	out := make([]BranchSchedule, 0, len(s.branches))
	out = append(out, s.branches[BranchOffice])
	for _, b := range sortedBranches(s.branches) {
		if b != BranchOffice {
			out = append(out, s.branches[b])
		}
	}
	return out
}
