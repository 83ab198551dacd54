/*
Package sqlite provides the SQLite-backed snapshot and commit store.

PURPOSE:
  Reads the snapshot the calculators consume (workers, attendance,
  holidays, branch settings, loans) and implements payroll.Store for the
  commit step. The calculators themselves never touch the database.

KEY TABLES:
  workers:            Worker snapshot (branch, employment type, role, salary)
  attendance_records: One row per (employee, date), enforced by a unique index
  holidays:           Inclusive date ranges
  branch_settings:    Raw branch/weight configuration as JSON, resolved on read
  loans:              Loan state with an optimistic-lock version column
  payroll_records:    One row per (employee, year, month)

CONCURRENCY:
  Loan writes are conditional on the version read by the draft:

    UPDATE loans SET ... , version = ? WHERE id = ? AND version = ?

  Zero affected rows means someone else committed first. The store also
  holds a sync.RWMutex so a single process serializes its own writers.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block the
  single writer.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  committer := payroll.NewCommitter(store, logger)

SEE ALSO:
  - payroll/store.go:     Store and Tx interfaces
  - payroll/memstore:     In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/attendance-engine/payroll"
)

// Store implements payroll.Store and the snapshot readers using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		branch TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		role TEXT NOT NULL,
		basic_salary TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendance_records (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		check_in TEXT,
		check_out TEXT,
		status TEXT NOT NULL,
		early_departure_permission INTEGER NOT NULL DEFAULT 0,
		note TEXT
	);

	-- At most one record per (employee, date)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_employee_date
		ON attendance_records(employee_id, date);

	CREATE INDEX IF NOT EXISTS idx_attendance_date
		ON attendance_records(date);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);

	-- Single row: the raw configuration document
	CREATE TABLE IF NOT EXISTS branch_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		installment_per_month TEXT NOT NULL,
		status TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_loans_employee_status
		ON loans(employee_id, status);

	CREATE TABLE IF NOT EXISTS payroll_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		basic_salary TEXT NOT NULL,
		overtime_minutes INTEGER NOT NULL,
		overtime_value TEXT NOT NULL,
		incentives TEXT NOT NULL,
		commissions TEXT NOT NULL,
		bonuses TEXT NOT NULL,
		unexcused_absences INTEGER NOT NULL,
		absent_value TEXT NOT NULL,
		penalty_value TEXT NOT NULL,
		deductions TEXT NOT NULL,
		insurance TEXT NOT NULL,
		loan_id TEXT,
		loan_version INTEGER NOT NULL DEFAULT 0,
		loan_proposed TEXT NOT NULL,
		loan_deduction TEXT NOT NULL,
		loan_remaining TEXT NOT NULL,
		net_salary TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_at TEXT
	);

	-- One payroll record per worker per month
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payroll_employee_month
		ON payroll_records(employee_id, year, month);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes all data. Only for demo scenarios and tests.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{
		"payroll_records", "loans", "attendance_records", "holidays", "branch_settings", "workers",
	} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(payroll.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore implements payroll.Tx on top of a querier.
type txStore struct {
	q querier
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
