package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Committer persists drafts, applies overrides and finalizes records.
// Every write is a single Store transaction per record, so one failing record
// never blocks the others.
type Committer struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
}

func NewCommitter(store Store, logger *logrus.Logger) *Committer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Committer{store: store, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for PaidAt.
func (c *Committer) WithClock(now func() time.Time) *Committer {
	c.now = now
	return c
}

// RecordFailure is one record that could not be written.
type RecordFailure struct {
	RecordID   string `json:"record_id,omitempty"`
	EmployeeID string `json:"employee_id"`
	Err        error  `json:"-"`
}

func (f RecordFailure) Error() string { return f.EmployeeID + ": " + f.Err.Error() }
func (f RecordFailure) Unwrap() error { return f.Err }

// BatchResult separates the records that were written from those that failed.
type BatchResult struct {
	Records  []Record        `json:"records"`
	Failures []RecordFailure `json:"-"`
}

// =============================================================================
// DRAFTS
// =============================================================================

// SaveDrafts stores freshly computed drafts. A draft replaces the worker's
// existing draft for the same month, keeping its ID; a paid month is never
// touched and is reported as ErrRecordFinalized.
func (c *Committer) SaveDrafts(ctx context.Context, drafts []Record) BatchResult {
	var out BatchResult
	for _, d := range drafts {
		saved := d
		err := c.store.WithTx(ctx, func(tx Tx) error {
			existing, err := tx.FindRecord(ctx, d.EmployeeID, d.Period)
			switch {
			case errors.Is(err, ErrRecordNotFound):
			case err != nil:
				return err
			case existing.IsPaid():
				return ErrRecordFinalized
			default:
				saved.ID = existing.ID
			}
			saved.Status = StatusDraft
			return tx.PutRecord(ctx, saved)
		})
		if err != nil {
			out.Failures = append(out.Failures, c.fail(d, "save draft", err))
			continue
		}
		out.Records = append(out.Records, saved)
	}
	return out
}

// Override applies o to the stored draft id and returns the updated record.
func (c *Committer) Override(ctx context.Context, id string, o Override) (Record, error) {
	var updated Record
	err := c.store.WithTx(ctx, func(tx Tx) error {
		rec, err := tx.GetRecord(ctx, id)
		if err != nil {
			return err
		}
		if err := rec.ApplyOverride(o); err != nil {
			return err
		}
		updated = rec
		return tx.PutRecord(ctx, rec)
	})
	if err != nil {
		return Record{}, err
	}
	c.logger.WithFields(logrus.Fields{
		"record_id":   id,
		"employee_id": updated.EmployeeID,
		"net_salary":  updated.NetSalary.String(),
	}).Info("payroll override applied")
	return updated, nil
}

// =============================================================================
// COMMIT
// =============================================================================

// Commit finalizes records. For each one, in a single transaction: the stored
// record must still be a draft, its loan must be at the version the draft was
// computed against, and the deduction must fit the remaining balance. The
// deduction is then added to the loan and the record is marked paid.
//
// Records not yet stored are inserted as paid.
func (c *Committer) Commit(ctx context.Context, records []Record) BatchResult {
	var out BatchResult
	for _, r := range records {
		paid, err := c.commitOne(ctx, r)
		if err != nil {
			out.Failures = append(out.Failures, c.fail(r, "commit", err))
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"record_id":      paid.ID,
			"employee_id":    paid.EmployeeID,
			"year":           paid.Period.Year,
			"month":          int(paid.Period.Month),
			"loan_id":        paid.LoanID,
			"loan_deduction": paid.LoanDeduction.String(),
		}).Info("payroll record committed")
		out.Records = append(out.Records, paid)
	}
	return out
}

func (c *Committer) commitOne(ctx context.Context, r Record) (Record, error) {
	var paid Record
	err := c.store.WithTx(ctx, func(tx Tx) error {
		rec, err := tx.GetRecord(ctx, r.ID)
		switch {
		case errors.Is(err, ErrRecordNotFound):
			// Unstored record: the month may already hold another one.
			existing, err := tx.FindRecord(ctx, r.EmployeeID, r.Period)
			switch {
			case err == nil && existing.IsPaid():
				return ErrRecordFinalized
			case err != nil && !errors.Is(err, ErrRecordNotFound):
				return err
			}
			rec = r
		case err != nil:
			return err
		}
		if rec.IsPaid() {
			return ErrRecordFinalized
		}

		if rec.LoanID != "" && rec.LoanDeduction.IsPositive() {
			loan, err := tx.GetLoan(ctx, rec.LoanID)
			if err != nil {
				return err
			}
			if loan.Version != rec.LoanVersion {
				return &StaleLoanError{LoanID: loan.ID, Expected: rec.LoanVersion, Actual: loan.Version}
			}
			if rec.LoanDeduction.GreaterThan(loan.Remaining()) {
				return ErrLoanOverpayment
			}
			loan.apply(rec.LoanDeduction)
			if err := tx.UpdateLoan(ctx, loan, rec.LoanVersion); err != nil {
				return err
			}
			rec.LoanRemaining = loan.Remaining()
			rec.LoanVersion = loan.Version
		}

		now := c.now().UTC()
		rec.Status = StatusPaid
		rec.PaidAt = &now
		rec.recompute()
		if err := tx.PutRecord(ctx, rec); err != nil {
			return err
		}
		paid = rec
		return nil
	})
	return paid, err
}

func (c *Committer) fail(r Record, op string, err error) RecordFailure {
	entry := c.logger.WithFields(logrus.Fields{
		"record_id":   r.ID,
		"employee_id": r.EmployeeID,
		"year":        r.Period.Year,
		"month":       int(r.Period.Month),
	}).WithError(err)
	if IsRetryable(err) {
		entry.Warnf("payroll %s conflict", op)
	} else {
		entry.Errorf("payroll %s failed", op)
	}
	return RecordFailure{RecordID: r.ID, EmployeeID: r.EmployeeID, Err: err}
}
