package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMultipleActiveLoans is returned when a worker has more than one
	// active loan. The worker is left out of the run.
	ErrMultipleActiveLoans = errors.New("more than one active loan")

	// ErrConcurrentModification is returned when the loan changed between
	// draft and commit.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrRecordFinalized is returned for any write to a paid record.
	ErrRecordFinalized = errors.New("payroll record already paid")

	// ErrLoanOverpayment is returned when a deduction exceeds the loan balance.
	ErrLoanOverpayment = errors.New("loan deduction exceeds remaining balance")

	// ErrInvalidOverride is returned for an override outside its bounds.
	ErrInvalidOverride = errors.New("invalid payroll override")

	// ErrUnknownLoanStatus is returned for a loan status outside active|completed.
	ErrUnknownLoanStatus = errors.New("unknown loan status")

	ErrLoanNotFound   = errors.New("loan not found")
	ErrRecordNotFound = errors.New("payroll record not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// MultipleActiveLoansError lists the conflicting loans.
type MultipleActiveLoansError struct {
	EmployeeID string
	LoanIDs    []string
}

func (e *MultipleActiveLoansError) Error() string {
	return fmt.Sprintf("worker %s has %d active loans %v", e.EmployeeID, len(e.LoanIDs), e.LoanIDs)
}

func (e *MultipleActiveLoansError) Unwrap() error { return ErrMultipleActiveLoans }

// OverrideError names the field that was rejected.
type OverrideError struct {
	Field  string
	Value  decimal.Decimal
	Reason string
}

func (e *OverrideError) Error() string {
	return fmt.Sprintf("override %s=%s: %s", e.Field, e.Value, e.Reason)
}

func (e *OverrideError) Unwrap() error { return ErrInvalidOverride }

// StaleLoanError reports the version seen by the draft and the stored one.
type StaleLoanError struct {
	LoanID   string
	Expected int64
	Actual   int64
}

func (e *StaleLoanError) Error() string {
	return fmt.Sprintf("loan %s: expected version %d, found %d", e.LoanID, e.Expected, e.Actual)
}

func (e *StaleLoanError) Unwrap() error { return ErrConcurrentModification }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if recomputing drafts and committing again might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidOverride) ||
		errors.Is(err, ErrLoanOverpayment) ||
		errors.Is(err, ErrRecordFinalized) ||
		errors.Is(err, ErrMultipleActiveLoans) ||
		errors.Is(err, ErrUnknownLoanStatus) ||
		errors.Is(err, calendar.ErrInvalidPeriod) ||
		attendance.IsClientError(err)
}

// IsNotFound returns true if the error indicates a missing record or loan.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrLoanNotFound)
}
