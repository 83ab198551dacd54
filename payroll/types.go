/*
Package payroll turns a month of attendance into draft salary records and
finalizes them against the worker's loan.

PURPOSE:
  Compute is pure draft generation. Everything that touches persistent state
  (saving drafts, manual overrides, commit) goes through a Committer and a
  Store so the loan update and the record flip happen in one transaction.

KEY CONCEPTS:
  Record:   One worker's payroll for one month. draft until committed, then
            paid and immutable.
  Loan:     At most one active loan per worker. Version is bumped on every
            write and checked on commit (optimistic concurrency).
  Override: Manual edits to a draft before commit. The loan deduction may
            only go down.

MONEY:
  All amounts are shopspring/decimal. Computed values are rounded to whole
  currency units, half away from zero.

SEE ALSO:
  - calculator.go: draft formulas
  - commit.go:     transactional finalization
  - memstore/:     in-memory Store
  - store/sqlite:  SQLite Store
*/
package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// PERIOD
// =============================================================================

// Period is a payroll month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (p Period) Validate() error {
	if p.Year < 1 || p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: payroll period %d-%d", calendar.ErrInvalidPeriod, p.Year, p.Month)
	}
	return nil
}

// Dates returns the inclusive calendar range of the month.
func (p Period) Dates() calendar.Period { return calendar.MonthPeriod(p.Year, p.Month) }

func (p Period) String() string { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)) }

// =============================================================================
// LOAN
// =============================================================================

type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
)

// ParseLoanStatus rejects values outside the closed set.
func ParseLoanStatus(s string) (LoanStatus, error) {
	switch st := LoanStatus(s); st {
	case LoanActive, LoanCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLoanStatus, s)
}

// Loan is a worker's repayable advance.
type Loan struct {
	ID                  string          `json:"id"`
	EmployeeID          string          `json:"employee_id"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	PaidAmount          decimal.Decimal `json:"paid_amount"`
	InstallmentPerMonth decimal.Decimal `json:"installment_per_month"`
	Status              LoanStatus      `json:"status"`
	Version             int64           `json:"version"`
}

// Remaining is the unpaid balance, never negative.
func (l Loan) Remaining() decimal.Decimal {
	return decimal.Max(decimal.Zero, l.TotalAmount.Sub(l.PaidAmount))
}

// Installment is this month's proposed deduction: the installment capped at
// the remaining balance.
func (l Loan) Installment() decimal.Decimal {
	return decimal.Max(decimal.Zero, decimal.Min(l.InstallmentPerMonth, l.Remaining()))
}

// apply records a payment. The loan completes once fully repaid.
func (l *Loan) apply(amount decimal.Decimal) {
	l.PaidAmount = l.PaidAmount.Add(amount)
	if l.PaidAmount.GreaterThanOrEqual(l.TotalAmount) {
		l.Status = LoanCompleted
	}
	l.Version++
}

// =============================================================================
// RECORD
// =============================================================================

type Status string

const (
	StatusDraft Status = "draft"
	StatusPaid  Status = "paid"
)

// Record is one worker's payroll for one month.
type Record struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Period     Period `json:"period"`

	BasicSalary     decimal.Decimal `json:"basic_salary"`
	OvertimeMinutes int             `json:"overtime_minutes"`
	OvertimeValue   decimal.Decimal `json:"overtime_value"`
	Incentives      decimal.Decimal `json:"incentives"`
	Commissions     decimal.Decimal `json:"commissions"`
	Bonuses         decimal.Decimal `json:"bonuses"`

	UnexcusedAbsences int             `json:"unexcused_absences"`
	AbsentValue       decimal.Decimal `json:"absent_value"`
	PenaltyValue      decimal.Decimal `json:"penalty_value"`
	Deductions        decimal.Decimal `json:"deductions"`
	Insurance         decimal.Decimal `json:"insurance"`

	// Loan snapshot taken when the draft was computed. LoanVersion is checked
	// on commit; LoanProposed caps any manual override.
	LoanID        string          `json:"loan_id,omitempty"`
	LoanVersion   int64           `json:"loan_version,omitempty"`
	LoanProposed  decimal.Decimal `json:"loan_proposed"`
	LoanDeduction decimal.Decimal `json:"loan_deduction"`
	LoanRemaining decimal.Decimal `json:"loan_remaining"`

	NetSalary decimal.Decimal `json:"net_salary"`
	Status    Status          `json:"status"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}

// Totals is the gross/deduction breakdown of a record.
type Totals struct {
	Gross      decimal.Decimal `json:"gross"`
	Deductions decimal.Decimal `json:"deductions"`
	Net        decimal.Decimal `json:"net"`
}

// Totals recomputes gross, deductions and net from the record's fields.
//
// Unexcused absences are charged twice, once as AbsentValue and once as
// PenaltyValue. This matches the payroll policy in force and is kept as is.
func (r Record) Totals() Totals {
	gross := r.BasicSalary.
		Add(r.OvertimeValue).
		Add(r.Incentives).
		Add(r.Commissions).
		Add(r.Bonuses)
	deductions := r.AbsentValue.
		Add(r.PenaltyValue).
		Add(r.Deductions).
		Add(r.LoanDeduction).
		Add(r.Insurance)
	return Totals{Gross: gross, Deductions: deductions, Net: gross.Sub(deductions)}
}

// IsPaid reports whether the record has been committed.
func (r Record) IsPaid() bool { return r.Status == StatusPaid }

func (r *Record) recompute() { r.NetSalary = r.Totals().Net }

// =============================================================================
// MANUAL INPUTS
// =============================================================================

// Adjustments are the manual money fields supplied when drafts are computed.
type Adjustments struct {
	Incentives  decimal.Decimal `json:"incentives"`
	Commissions decimal.Decimal `json:"commissions"`
	Bonuses     decimal.Decimal `json:"bonuses"`
	Deductions  decimal.Decimal `json:"deductions"`
	Insurance   decimal.Decimal `json:"insurance"`
}

// Override edits a draft. Nil fields are left unchanged.
type Override struct {
	Incentives    *decimal.Decimal `json:"incentives,omitempty"`
	Commissions   *decimal.Decimal `json:"commissions,omitempty"`
	Bonuses       *decimal.Decimal `json:"bonuses,omitempty"`
	Deductions    *decimal.Decimal `json:"deductions,omitempty"`
	Insurance     *decimal.Decimal `json:"insurance,omitempty"`
	LoanDeduction *decimal.Decimal `json:"loan_deduction,omitempty"`
}
