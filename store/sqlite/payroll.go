package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/warp/attendance-engine/payroll"
)

// =============================================================================
// LOANS
// =============================================================================

// PutLoan inserts or replaces a loan as given, without a version check.
// Used for seeding and by the surrounding application; commits go through
// WithTx and UpdateLoan.
func (s *Store) PutLoan(ctx context.Context, l payroll.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO loans
		(id, employee_id, total_amount, paid_amount, installment_per_month, status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.EmployeeID, l.TotalAmount, l.PaidAmount, l.InstallmentPerMonth, string(l.Status), l.Version)
	if err != nil {
		return fmt.Errorf("failed to save loan %s: %w", l.ID, err)
	}
	return nil
}

// Loans returns the employee's loans, or every loan when employeeID is empty.
func (s *Store) Loans(ctx context.Context, employeeID string) ([]payroll.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + loanColumns + ` FROM loans`
	var args []any
	if employeeID != "" {
		query += ` WHERE employee_id = ?`
		args = append(args, employeeID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []payroll.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (s *Store) GetLoan(ctx context.Context, id string) (payroll.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&txStore{q: s.db}).GetLoan(ctx, id)
}

const loanColumns = `id, employee_id, total_amount, paid_amount, installment_per_month, status, version`

func scanLoan(row scanner) (payroll.Loan, error) {
	var (
		l      payroll.Loan
		status string
	)
	if err := row.Scan(&l.ID, &l.EmployeeID, &l.TotalAmount, &l.PaidAmount, &l.InstallmentPerMonth, &status, &l.Version); err != nil {
		return payroll.Loan{}, err
	}
	l.Status = payroll.LoanStatus(status)
	return l, nil
}

func (ts *txStore) GetLoan(ctx context.Context, id string) (payroll.Loan, error) {
	row := ts.q.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Loan{}, fmt.Errorf("%w: %s", payroll.ErrLoanNotFound, id)
	}
	return l, err
}

// UpdateLoan is a compare-and-swap on the version column.
func (ts *txStore) UpdateLoan(ctx context.Context, l payroll.Loan, expectedVersion int64) error {
	res, err := ts.q.ExecContext(ctx, `
		UPDATE loans
		SET paid_amount = ?, status = ?, version = ?
		WHERE id = ? AND version = ?
	`, l.PaidAmount, string(l.Status), l.Version, l.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update loan %s: %w", l.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	current, err := ts.GetLoan(ctx, l.ID)
	if err != nil {
		return err
	}
	return &payroll.StaleLoanError{LoanID: l.ID, Expected: expectedVersion, Actual: current.Version}
}

// =============================================================================
// PAYROLL RECORDS
// =============================================================================

const recordColumns = `id, employee_id, year, month,
	basic_salary, overtime_minutes, overtime_value, incentives, commissions, bonuses,
	unexcused_absences, absent_value, penalty_value, deductions, insurance,
	loan_id, loan_version, loan_proposed, loan_deduction, loan_remaining,
	net_salary, status, paid_at`

// Records returns the month's records ordered by employee.
func (s *Store) Records(ctx context.Context, p payroll.Period) ([]payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM payroll_records WHERE year = ? AND month = ?
		ORDER BY employee_id
	`, p.Year, int(p.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) GetRecord(ctx context.Context, id string) (payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&txStore{q: s.db}).GetRecord(ctx, id)
}

func (ts *txStore) GetRecord(ctx context.Context, id string) (payroll.Record, error) {
	row := ts.q.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM payroll_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Record{}, fmt.Errorf("%w: %s", payroll.ErrRecordNotFound, id)
	}
	return r, err
}

func (ts *txStore) FindRecord(ctx context.Context, employeeID string, p payroll.Period) (payroll.Record, error) {
	row := ts.q.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM payroll_records
		WHERE employee_id = ? AND year = ? AND month = ?
	`, employeeID, p.Year, int(p.Month))
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Record{}, fmt.Errorf("%w: %s %s", payroll.ErrRecordNotFound, employeeID, p)
	}
	return r, err
}

// PutRecord replaces by ID. Any other draft for the same (employee, month)
// is removed first so the unique index holds; a paid one is never replaced.
func (ts *txStore) PutRecord(ctx context.Context, r payroll.Record) error {
	var paid int
	if err := ts.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payroll_records
		WHERE employee_id = ? AND year = ? AND month = ? AND id <> ? AND status = ?
	`, r.EmployeeID, r.Period.Year, int(r.Period.Month), r.ID, string(payroll.StatusPaid)).Scan(&paid); err != nil {
		return fmt.Errorf("failed to check payroll record %s: %w", r.ID, err)
	}
	if paid > 0 {
		return fmt.Errorf("%w: %s %s", payroll.ErrRecordFinalized, r.EmployeeID, r.Period)
	}

	if _, err := ts.q.ExecContext(ctx, `
		DELETE FROM payroll_records
		WHERE employee_id = ? AND year = ? AND month = ? AND id <> ?
	`, r.EmployeeID, r.Period.Year, int(r.Period.Month), r.ID); err != nil {
		return fmt.Errorf("failed to replace payroll record: %w", err)
	}

	var paidAt sql.NullString
	if r.PaidAt != nil {
		paidAt = nullString(r.PaidAt.UTC().Format(time.RFC3339))
	}

	_, err := ts.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO payroll_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.EmployeeID, r.Period.Year, int(r.Period.Month),
		r.BasicSalary, r.OvertimeMinutes, r.OvertimeValue, r.Incentives, r.Commissions, r.Bonuses,
		r.UnexcusedAbsences, r.AbsentValue, r.PenaltyValue, r.Deductions, r.Insurance,
		nullString(r.LoanID), r.LoanVersion, r.LoanProposed, r.LoanDeduction, r.LoanRemaining,
		r.NetSalary, string(r.Status), paidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save payroll record %s: %w", r.ID, err)
	}
	return nil
}

func scanRecord(row scanner) (payroll.Record, error) {
	var (
		r              payroll.Record
		month          int
		loanID, paidAt sql.NullString
		status         string
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.Period.Year, &month,
		&r.BasicSalary, &r.OvertimeMinutes, &r.OvertimeValue, &r.Incentives, &r.Commissions, &r.Bonuses,
		&r.UnexcusedAbsences, &r.AbsentValue, &r.PenaltyValue, &r.Deductions, &r.Insurance,
		&loanID, &r.LoanVersion, &r.LoanProposed, &r.LoanDeduction, &r.LoanRemaining,
		&r.NetSalary, &status, &paidAt,
	)
	if err != nil {
		return payroll.Record{}, err
	}
	r.Period.Month = time.Month(month)
	r.LoanID = loanID.String
	r.Status = payroll.Status(status)
	if paidAt.Valid {
		t, err := time.Parse(time.RFC3339, paidAt.String)
		if err != nil {
			return payroll.Record{}, fmt.Errorf("payroll record %s: bad paid_at: %w", r.ID, err)
		}
		r.PaidAt = &t
	}
	return r, nil
}
