package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// WORKERS
// =============================================================================

// PutWorker inserts or replaces a worker.
func (s *Store) PutWorker(ctx context.Context, w employee.Worker) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workers (id, name, branch, employment_type, role, basic_salary)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			branch = excluded.branch,
			employment_type = excluded.employment_type,
			role = excluded.role,
			basic_salary = excluded.basic_salary
	`, w.ID, w.Name, string(w.Branch), string(w.EmploymentType), string(w.Role), w.BasicSalary.String())
	if err != nil {
		return fmt.Errorf("failed to save worker %s: %w", w.ID, err)
	}
	return nil
}

// Workers returns every worker ordered by ID.
func (s *Store) Workers(ctx context.Context) ([]employee.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, branch, employment_type, role, basic_salary
		FROM workers ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []employee.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// Worker returns one worker or employee.ErrWorkerNotFound.
func (s *Store) Worker(ctx context.Context, id string) (employee.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, branch, employment_type, role, basic_salary
		FROM workers WHERE id = ?
	`, id)
	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return employee.Worker{}, fmt.Errorf("%w: %s", employee.ErrWorkerNotFound, id)
	}
	return w, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorker(row scanner) (employee.Worker, error) {
	var (
		w                            employee.Worker
		branch, employmentType, role string
	)
	if err := row.Scan(&w.ID, &w.Name, &branch, &employmentType, &role, &w.BasicSalary); err != nil {
		return employee.Worker{}, err
	}
	w.Branch = schedule.Branch(branch)
	w.EmploymentType = employee.EmploymentType(employmentType)
	w.Role = employee.Role(role)
	return w, nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// PutAttendance stores a record. A second record for the same (employee, date)
// is rejected with a DuplicateRecordError.
func (s *Store) PutAttendance(ctx context.Context, r attendance.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_records
		(employee_id, date, check_in, check_out, status, early_departure_permission, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.EmployeeID, r.Date.String(), nullString(r.CheckIn), nullString(r.CheckOut),
		string(r.Status), r.EarlyDeparturePermission, nullString(r.Note))
	if err != nil {
		if isUniqueConstraintError(err) {
			return &attendance.DuplicateRecordError{EmployeeID: r.EmployeeID, Date: r.Date, Count: 2}
		}
		return fmt.Errorf("failed to save attendance %s/%s: %w", r.EmployeeID, r.Date, err)
	}
	return nil
}

// Attendance returns records in the period, optionally for one employee,
// ordered by employee then date. Stored statuses are returned as is; an
// unknown value surfaces as a per-record failure when the day is computed.
func (s *Store) Attendance(ctx context.Context, period calendar.Period, employeeID string) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT employee_id, date, check_in, check_out, status, early_departure_permission, note
		FROM attendance_records
		WHERE date >= ? AND date <= ?`
	args := []any{period.Start.String(), period.End.String()}
	if employeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, employeeID)
	}
	query += ` ORDER BY employee_id, date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var (
			r                     attendance.Record
			date, status          string
			checkIn, checkOut, nt sql.NullString
		)
		if err := rows.Scan(&r.EmployeeID, &date, &checkIn, &checkOut, &status, &r.EarlyDeparturePermission, &nt); err != nil {
			return nil, err
		}
		if r.Date, err = calendar.ParseDate(date); err != nil {
			return nil, fmt.Errorf("attendance %s: %w", r.EmployeeID, err)
		}
		r.CheckIn = checkIn.String
		r.CheckOut = checkOut.String
		r.Note = nt.String
		r.Status = attendance.Status(status)
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// PutHoliday stores a holiday, assigning an ID if it has none.
func (s *Store) PutHoliday(ctx context.Context, h calendar.Holiday) (calendar.Holiday, error) {
	if err := h.Validate(); err != nil {
		return calendar.Holiday{}, err
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO holidays (id, name, start_date, end_date)
		VALUES (?, ?, ?, ?)
	`, h.ID, h.Name, h.Start.String(), h.End.String())
	if err != nil {
		return calendar.Holiday{}, fmt.Errorf("failed to save holiday: %w", err)
	}
	return h, nil
}

// Holidays returns every holiday ordered by start date.
func (s *Store) Holidays(ctx context.Context) (calendar.Holidays, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date FROM holidays ORDER BY start_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays calendar.Holidays
	for rows.Next() {
		var (
			h          calendar.Holiday
			start, end string
		)
		if err := rows.Scan(&h.ID, &h.Name, &start, &end); err != nil {
			return nil, err
		}
		if h.Start, err = calendar.ParseDate(start); err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		if h.End, err = calendar.ParseDate(end); err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// BRANCH SETTINGS
// =============================================================================

// SaveSettings stores the raw configuration after checking that it resolves.
func (s *Store) SaveSettings(ctx context.Context, raw schedule.RawConfig) error {
	if _, err := schedule.Resolve(raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO branch_settings (id, config_json, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET config_json = excluded.config_json, updated_at = excluded.updated_at
	`, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// RawSettings returns the stored configuration, empty if none was saved.
func (s *Store) RawSettings(ctx context.Context) (schedule.RawConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM branch_settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.RawConfig{}, nil
	}
	if err != nil {
		return schedule.RawConfig{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return schedule.ParseRawConfig([]byte(data))
}
