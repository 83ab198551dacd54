package payroll

import "context"

// =============================================================================
// STORE - Persistence for payroll records and loans
// =============================================================================

// Tx is the store as seen inside one transaction.
type Tx interface {
	// GetRecord returns ErrRecordNotFound if id is unknown.
	GetRecord(ctx context.Context, id string) (Record, error)

	// FindRecord returns the record for (employee, period) or ErrRecordNotFound.
	FindRecord(ctx context.Context, employeeID string, p Period) (Record, error)

	// PutRecord inserts or replaces a record by ID.
	PutRecord(ctx context.Context, r Record) error

	// GetLoan returns ErrLoanNotFound if id is unknown.
	GetLoan(ctx context.Context, id string) (Loan, error)

	// UpdateLoan writes l only if the stored version equals expectedVersion,
	// otherwise it returns ErrConcurrentModification.
	UpdateLoan(ctx context.Context, l Loan, expectedVersion int64) error
}

// Store runs transactions.
type Store interface {
	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Tx) error) error
}
