/*
Package attendance classifies a single worker-day.

PURPOSE:
  Turns one attendance record (or its absence) into a DailyStats value:
  a classification plus delay, overtime, worked time and early-departure
  minutes. DailyStats is never stored; it is recomputed from its inputs.

KEY CONCEPTS:
  - Status: the closed status enum carried by a record
  - Record: one check-in/check-out row, at most one per (employee, date)
  - Classification: the outcome of the precedence ladder (rules.go)
  - DailyStats: the immutable result
  - Index: (employee, date) lookup that detects duplicate/invalid rows

PRECEDENCE:
  Classification is decided by an ordered list of rules, first match wins.
  See rules.go for the ladder and Rules() to inspect it.

SEE ALSO:
  - schedule: the BranchSchedule a day is measured against
  - ranking, payroll: fold DailyStats over a period
*/
package attendance

import (
	"fmt"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// STATUS - closed enum, rejected at the boundary when unknown
// =============================================================================

type Status string

const (
	StatusPresent       Status = "present"
	StatusAbsent        Status = "absent"
	StatusLate          Status = "late"
	StatusWeekend       Status = "weekend"
	StatusLeave         Status = "leave"
	StatusAbsentPenalty Status = "absent_penalty"
	StatusUnderReview   Status = "under_review"
)

var allStatuses = []Status{
	StatusPresent, StatusAbsent, StatusLate, StatusWeekend,
	StatusLeave, StatusAbsentPenalty, StatusUnderReview,
}

// ParseStatus returns ErrUnknownStatus for anything outside the enum.
func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// IsValid reports whether s is a member of the enum.
func (s Status) IsValid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// UnmarshalText rejects unknown values when decoding JSON/YAML.
func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// =============================================================================
// RECORD
// =============================================================================

// Record is one attendance row. CheckIn/CheckOut are "HH:MM" strings and may
// be empty.
type Record struct {
	EmployeeID               string        `json:"employee_id"`
	Date                     calendar.Date `json:"date"`
	CheckIn                  string        `json:"check_in,omitempty"`
	CheckOut                 string        `json:"check_out,omitempty"`
	Status                   Status        `json:"status"`
	EarlyDeparturePermission bool          `json:"early_departure_permission,omitempty"`
	Note                     string        `json:"note,omitempty"`
}

// HasBothTimes is true when both check-in and check-out are present.
func (r *Record) HasBothTimes() bool {
	return r.CheckIn != "" && r.CheckOut != ""
}

// Validate checks identity fields and the status enum.
func (r *Record) Validate() error {
	if r.EmployeeID == "" {
		return fmt.Errorf("attendance record on %s: employee id is required", r.Date)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("attendance record for %s: date is required", r.EmployeeID)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("attendance record %s/%s: %w: %q", r.EmployeeID, r.Date, ErrUnknownStatus, r.Status)
	}
	return nil
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

type Classification string

const (
	ClassUnderReview         Classification = "under_review"
	ClassUnauthorizedAbsence Classification = "unauthorized_absence"
	ClassLeave               Classification = "leave"
	ClassOfficialHoliday     Classification = "official_holiday"
	ClassWeeklyOff           Classification = "weekly_off"
	ClassAbsent              Classification = "absent"
	ClassHolidayWork         Classification = "holiday_work"
	ClassLate                Classification = "late"
	ClassEarlyDeparture      Classification = "early_departure"
	ClassCommitted           Classification = "committed"
)

var classificationLabels = map[Classification]string{
	ClassUnderReview:         "under review",
	ClassUnauthorizedAbsence: "unauthorized absence",
	ClassLeave:               "leave",
	ClassOfficialHoliday:     "official holiday",
	ClassWeeklyOff:           "weekly day off",
	ClassAbsent:              "absent",
	ClassHolidayWork:         "holiday work",
	ClassLate:                "late",
	ClassEarlyDeparture:      "early departure",
	ClassCommitted:           "committed",
}

// Label is the human-readable classification.
func (c Classification) Label() string {
	if l, ok := classificationLabels[c]; ok {
		return l
	}
	return string(c)
}

// =============================================================================
// DAILY STATS - derived, never persisted
// =============================================================================

// DailyStats is the classification of one worker-day. All durations are minutes.
type DailyStats struct {
	EmployeeID     string         `json:"employee_id"`
	Date           calendar.Date  `json:"date"`
	Classification Classification `json:"classification"`
	Label          string         `json:"label"`

	// Status and CheckedIn echo the record so folds need not re-read it.
	Status    Status `json:"status,omitempty"`
	CheckedIn bool   `json:"checked_in"`

	// DelayMinutes is the full lateness once it exceeds the grace period, else 0.
	DelayMinutes int `json:"delay_minutes"`
	// DelayPenaltyMinutes is DelayMinutes minus the grace period, floored at 0.
	DelayPenaltyMinutes int `json:"delay_penalty_minutes"`

	OvertimeMinutes    int `json:"overtime_minutes"`
	NetOvertimeMinutes int `json:"net_overtime_minutes"`
	WorkedMinutes      int `json:"worked_minutes"`

	EarlyDepartureMinutes   int `json:"early_departure_minutes"`
	EarlyDepartureDeduction int `json:"early_departure_deduction"`
}

// Excluded is true for days that contribute to no aggregate.
func (s DailyStats) Excluded() bool {
	return s.Classification == ClassUnderReview
}
