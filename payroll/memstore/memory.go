// Package memstore provides an in-memory payroll.Store for tests and dev.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/payroll"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[string]payroll.Record
	byMonth map[monthKey]string
	loans   map[string]payroll.Loan
}

type monthKey struct {
	EmployeeID string
	Period     payroll.Period
}

func New() *Memory {
	return &Memory{
		records: make(map[string]payroll.Record),
		byMonth: make(map[monthKey]string),
		loans:   make(map[string]payroll.Loan),
	}
}

// PutLoan seeds or replaces a loan without a version check.
func (m *Memory) PutLoan(_ context.Context, l payroll.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[l.ID] = l
	return nil
}

// Loans returns every loan of the employee, or all loans when employeeID is empty.
func (m *Memory) Loans(_ context.Context, employeeID string) ([]payroll.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []payroll.Loan
	for _, l := range m.loans {
		if employeeID == "" || l.EmployeeID == employeeID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Records returns the month's records ordered by employee.
func (m *Memory) Records(_ context.Context, p payroll.Period) ([]payroll.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []payroll.Record
	for _, r := range m.records {
		if r.Period == p {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *Memory) GetRecord(ctx context.Context, id string) (payroll.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetRecord(ctx, id)
}

func (m *Memory) GetLoan(ctx context.Context, id string) (payroll.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view().GetLoan(ctx, id)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx holds the write lock for the whole of fn, so transactions are
// serialized. Writes go straight to the maps and are undone from a snapshot
// if fn fails.
func (m *Memory) WithTx(_ context.Context, fn func(payroll.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(m.view()); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	records map[string]payroll.Record
	byMonth map[monthKey]string
	loans   map[string]payroll.Loan
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		records: make(map[string]payroll.Record, len(m.records)),
		byMonth: make(map[monthKey]string, len(m.byMonth)),
		loans:   make(map[string]payroll.Loan, len(m.loans)),
	}
	for k, v := range m.records {
		s.records[k] = v
	}
	for k, v := range m.byMonth {
		s.byMonth[k] = v
	}
	for k, v := range m.loans {
		s.loans[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.records = s.records
	m.byMonth = s.byMonth
	m.loans = s.loans
}

func (m *Memory) view() *txView { return &txView{parent: m} }

// txView assumes the caller holds the lock.
type txView struct {
	parent *Memory
}

func (tv *txView) GetRecord(_ context.Context, id string) (payroll.Record, error) {
	r, ok := tv.parent.records[id]
	if !ok {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	return r, nil
}

func (tv *txView) FindRecord(ctx context.Context, employeeID string, p payroll.Period) (payroll.Record, error) {
	id, ok := tv.parent.byMonth[monthKey{EmployeeID: employeeID, Period: p}]
	if !ok {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	return tv.GetRecord(ctx, id)
}

func (tv *txView) PutRecord(_ context.Context, r payroll.Record) error {
	k := monthKey{EmployeeID: r.EmployeeID, Period: r.Period}
	if id, ok := tv.parent.byMonth[k]; ok && id != r.ID {
		if tv.parent.records[id].IsPaid() {
			return fmt.Errorf("%w: %s %s", payroll.ErrRecordFinalized, r.EmployeeID, r.Period)
		}
		delete(tv.parent.records, id)
	}
	tv.parent.records[r.ID] = r
	tv.parent.byMonth[k] = r.ID
	return nil
}

func (tv *txView) GetLoan(_ context.Context, id string) (payroll.Loan, error) {
	l, ok := tv.parent.loans[id]
	if !ok {
		return payroll.Loan{}, payroll.ErrLoanNotFound
	}
	return l, nil
}

func (tv *txView) UpdateLoan(_ context.Context, l payroll.Loan, expectedVersion int64) error {
	current, ok := tv.parent.loans[l.ID]
	if !ok {
		return payroll.ErrLoanNotFound
	}
	if current.Version != expectedVersion {
		return &payroll.StaleLoanError{LoanID: l.ID, Expected: expectedVersion, Actual: current.Version}
	}
	tv.parent.loans[l.ID] = l
	return nil
}
