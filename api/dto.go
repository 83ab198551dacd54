/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine value types
  (DailyStats, EmployeeScore, payroll.Record) are already JSON-tagged and
  are returned as is; the types here wrap them with period and failure
  information, or carry request bodies.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"errors"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/ranking"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// DailyStatsRequest computes one day from an inline record.
type DailyStatsRequest struct {
	EmployeeID string             `json:"employee_id"`
	Branch     schedule.Branch    `json:"branch"`
	Date       calendar.Date      `json:"date"`
	Record     *attendance.Record `json:"record,omitempty"`
}

// PayrollRunRequest computes and stores drafts for a month.
type PayrollRunRequest struct {
	Year        int                             `json:"year"`
	Month       int                             `json:"month"`
	Adjustments map[string]payroll.Adjustments `json:"adjustments,omitempty"`
}

// CommitRequest selects drafts to commit. Empty means every draft of the month.
type CommitRequest struct {
	RecordIDs []string `json:"record_ids,omitempty"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// FailureDTO is one record, worker or payroll entry that was skipped.
type FailureDTO struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Date       string `json:"date,omitempty"`
	RecordID   string `json:"record_id,omitempty"`
	Code       string `json:"code"`
	Error      string `json:"error"`
}

// CalendarDTO is one worker's month of DailyStats.
type CalendarDTO struct {
	EmployeeID string                  `json:"employee_id"`
	Name       string                  `json:"name,omitempty"`
	Year       int                     `json:"year"`
	Month      int                     `json:"month"`
	Days       []attendance.DailyStats `json:"days"`
	Failures   []FailureDTO            `json:"failures"`
}

// RankingResponse is the leaderboard for a period.
type RankingResponse struct {
	Period   calendar.Period         `json:"period"`
	Scores   []ranking.EmployeeScore `json:"scores"`
	Failures []FailureDTO            `json:"failures"`
}

// PayrollResponse is the outcome of a run, a listing or a commit.
type PayrollResponse struct {
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Records  []payroll.Record `json:"records"`
	Totals   *payroll.Totals  `json:"totals,omitempty"`
	Failures []FailureDTO     `json:"failures"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HealthDTO is the health endpoint body.
type HealthDTO struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func attendanceFailures(fs []attendance.Failure) []FailureDTO {
	out := make([]FailureDTO, 0, len(fs))
	for _, f := range fs {
		dto := FailureDTO{EmployeeID: f.EmployeeID, Code: errorCode(f.Err), Error: f.Err.Error()}
		if !f.Date.IsZero() {
			dto.Date = f.Date.String()
		}
		out = append(out, dto)
	}
	return out
}

func recordFailures(fs []payroll.RecordFailure) []FailureDTO {
	out := make([]FailureDTO, 0, len(fs))
	for _, f := range fs {
		out = append(out, FailureDTO{
			EmployeeID: f.EmployeeID,
			RecordID:   f.RecordID,
			Code:       errorCode(f.Err),
			Error:      f.Err.Error(),
		})
	}
	return out
}

// errorCode gives clients a stable identifier for each failure kind.
func errorCode(err error) string {
	var parseErr *attendance.ParseError
	switch {
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.Is(err, attendance.ErrUnknownStatus):
		return "unknown_status"
	case errors.Is(err, attendance.ErrDuplicateRecord):
		return "duplicate_record"
	case errors.Is(err, payroll.ErrMultipleActiveLoans):
		return "multiple_active_loans"
	case errors.Is(err, payroll.ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, payroll.ErrRecordFinalized):
		return "record_finalized"
	case errors.Is(err, payroll.ErrLoanOverpayment):
		return "loan_overpayment"
	case errors.Is(err, payroll.ErrInvalidOverride):
		return "invalid_override"
	case errors.Is(err, payroll.ErrUnknownLoanStatus):
		return "unknown_loan_status"
	case errors.Is(err, payroll.ErrRecordNotFound), errors.Is(err, payroll.ErrLoanNotFound),
		errors.Is(err, employee.ErrWorkerNotFound):
		return "not_found"
	case employee.IsClientError(err):
		return "invalid_worker"
	case errors.Is(err, schedule.ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, calendar.ErrInvalidPeriod):
		return "invalid_period"
	default:
		return "internal"
	}
}
