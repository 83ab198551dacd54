package sqlite_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/schedule"
	"github.com/warp/attendance-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var (
	ctx     = context.Background()
	january = payroll.Period{Year: 2025, Month: time.January}
	monday  = calendar.NewDate(2025, time.January, 6)
)

func worker() employee.Worker {
	return employee.Worker{
		ID:             "w1",
		Name:           "Amira",
		Branch:         schedule.BranchFactory,
		EmploymentType: employee.EmploymentFactory,
		Role:           employee.RoleEmployee,
		BasicSalary:    decimal.NewFromInt(3000),
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

func TestWorkers_RoundTrip(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.PutWorker(ctx, worker()))

	updated := worker()
	updated.Name = "Amira K."
	require.NoError(t, store.PutWorker(ctx, updated))

	workers, err := store.Workers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "Amira K.", workers[0].Name)
	assert.Equal(t, schedule.BranchFactory, workers[0].Branch)
	assert.True(t, decimal.NewFromInt(3000).Equal(workers[0].BasicSalary))

	_, err = store.Worker(ctx, "missing")
	assert.ErrorIs(t, err, employee.ErrWorkerNotFound)
}

func TestAttendance_OneRecordPerDay(t *testing.T) {
	store := newStore(t)
	r := attendance.Record{
		EmployeeID: "w1", Date: monday, CheckIn: "08:30", CheckOut: "17:10",
		Status: attendance.StatusPresent, EarlyDeparturePermission: true, Note: "ok",
	}
	require.NoError(t, store.PutAttendance(ctx, r))

	err := store.PutAttendance(ctx, r)
	assert.ErrorIs(t, err, attendance.ErrDuplicateRecord)

	records, err := store.Attendance(ctx, calendar.MonthPeriod(2025, time.January), "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, r.CheckIn, records[0].CheckIn)
	assert.True(t, records[0].Date.Equal(monday))
	assert.True(t, records[0].EarlyDeparturePermission)
	assert.Equal(t, "ok", records[0].Note)

	other, err := store.Attendance(ctx, calendar.MonthPeriod(2025, time.February), "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAttendance_RejectsUnknownStatus(t *testing.T) {
	store := newStore(t)
	err := store.PutAttendance(ctx, attendance.Record{EmployeeID: "w1", Date: monday, Status: "sick"})
	assert.ErrorIs(t, err, attendance.ErrUnknownStatus)
}

func TestHolidays_AssignsID(t *testing.T) {
	store := newStore(t)
	h, err := store.PutHoliday(ctx, calendar.Holiday{Name: "New Year", Start: monday, End: monday.AddDays(1)})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)

	holidays, err := store.Holidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.True(t, holidays.Contains(monday.AddDays(1)))
}

func TestSettings_StoredRawAndResolvedLater(t *testing.T) {
	store := newStore(t)

	raw, err := store.RawSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, raw.Branches)

	grace := 5
	require.NoError(t, store.SaveSettings(ctx, schedule.RawConfig{
		Branches: map[string]schedule.RawBranch{"factory": {GracePeriodMinutes: &grace}},
	}))

	raw, err = store.RawSettings(ctx)
	require.NoError(t, err)
	settings, err := schedule.Resolve(raw)
	require.NoError(t, err)
	assert.Equal(t, 5, settings.For(schedule.BranchFactory).GracePeriodMinutes)
	assert.Equal(t, schedule.DefaultGracePeriodMinutes, settings.For(schedule.BranchOffice).GracePeriodMinutes)

	bad := -1
	err = store.SaveSettings(ctx, schedule.RawConfig{
		Branches: map[string]schedule.RawBranch{"office": {GracePeriodMinutes: &bad}},
	})
	assert.ErrorIs(t, err, schedule.ErrInvalidConfig)
}

func TestSettings_EmptyWeekendSurvivesStorage(t *testing.T) {
	// GIVEN: a factory working seven days a week
	store := newStore(t)
	raw := schedule.RawConfig{
		Branches: map[string]schedule.RawBranch{"factory": {WeekendDays: []int{}}},
	}
	direct, err := schedule.Resolve(raw)
	require.NoError(t, err)

	// WHEN: the same document goes through the store
	require.NoError(t, store.SaveSettings(ctx, raw))
	loaded, err := store.RawSettings(ctx)
	require.NoError(t, err)
	stored, err := schedule.Resolve(loaded)
	require.NoError(t, err)

	// THEN: both resolve to no weekend; office keeps the Friday default
	friday := calendar.NewDate(2025, time.January, 3)
	assert.NotNil(t, loaded.Branches["factory"].WeekendDays)
	assert.Empty(t, loaded.Branches["factory"].WeekendDays)
	assert.Equal(t, direct.For(schedule.BranchFactory).WeekendDays, stored.For(schedule.BranchFactory).WeekendDays)
	assert.False(t, stored.For(schedule.BranchFactory).IsWeekend(friday))
	assert.True(t, stored.For(schedule.BranchOffice).IsWeekend(friday))
}

// =============================================================================
// COMMIT STORE
// =============================================================================

func committer(store *sqlite.Store) *payroll.Committer {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return payroll.NewCommitter(store, l)
}

func seedDraft(t *testing.T, store *sqlite.Store) payroll.Record {
	t.Helper()
	require.NoError(t, store.PutLoan(ctx, payroll.Loan{
		ID: "loan-1", EmployeeID: "w1",
		TotalAmount:         decimal.NewFromInt(1000),
		PaidAmount:          decimal.NewFromInt(900),
		InstallmentPerMonth: decimal.NewFromInt(200),
		Status:              payroll.LoanActive,
		Version:             7,
	}))
	loans, err := store.Loans(ctx, "w1")
	require.NoError(t, err)

	result, err := payroll.Compute(payroll.Input{
		Workers: []employee.Worker{worker()},
		Loans:   loans,
		Period:  january,
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	saved := committer(store).SaveDrafts(ctx, result.Records)
	require.Empty(t, saved.Failures)
	return saved.Records[0]
}

func TestCommit_AppliesLoanAndFinalizes(t *testing.T) {
	store := newStore(t)
	draft := seedDraft(t, store)

	stored, err := store.GetRecord(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusDraft, stored.Status)
	assert.True(t, decimal.NewFromInt(100).Equal(stored.LoanDeduction))
	assert.Equal(t, int64(7), stored.LoanVersion)

	result := committer(store).Commit(ctx, []payroll.Record{draft})
	require.Empty(t, result.Failures)

	loan, err := store.GetLoan(ctx, "loan-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(loan.PaidAmount))
	assert.Equal(t, payroll.LoanCompleted, loan.Status)
	assert.Equal(t, int64(8), loan.Version)

	records, err := store.Records(ctx, january)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsPaid())
	require.NotNil(t, records[0].PaidAt)

	again := committer(store).Commit(ctx, []payroll.Record{draft})
	require.Len(t, again.Failures, 1)
	assert.ErrorIs(t, again.Failures[0], payroll.ErrRecordFinalized)
}

func TestCommit_StaleLoanVersionRollsBack(t *testing.T) {
	store := newStore(t)
	draft := seedDraft(t, store)

	// someone else pays the loan in between
	require.NoError(t, store.PutLoan(ctx, payroll.Loan{
		ID: "loan-1", EmployeeID: "w1",
		TotalAmount:         decimal.NewFromInt(1000),
		PaidAmount:          decimal.NewFromInt(950),
		InstallmentPerMonth: decimal.NewFromInt(200),
		Status:              payroll.LoanActive,
		Version:             8,
	}))

	result := committer(store).Commit(ctx, []payroll.Record{draft})
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0], payroll.ErrConcurrentModification)

	stored, err := store.GetRecord(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusDraft, stored.Status)
}

func TestUpdateLoan_CompareAndSwap(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.PutLoan(ctx, payroll.Loan{ID: "l1", EmployeeID: "w1", Status: payroll.LoanActive, Version: 2}))

	err := store.WithTx(ctx, func(tx payroll.Tx) error {
		return tx.UpdateLoan(ctx, payroll.Loan{ID: "l1", Status: payroll.LoanActive, Version: 2}, 1)
	})
	var stale *payroll.StaleLoanError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, int64(2), stale.Actual)

	err = store.WithTx(ctx, func(tx payroll.Tx) error {
		return tx.UpdateLoan(ctx, payroll.Loan{ID: "missing"}, 0)
	})
	assert.ErrorIs(t, err, payroll.ErrLoanNotFound)
}

func TestSaveDrafts_ReplacesDraftForMonth(t *testing.T) {
	store := newStore(t)
	first := seedDraft(t, store)

	result, err := payroll.Compute(payroll.Input{
		Workers: []employee.Worker{worker()},
		Period:  january,
	})
	require.NoError(t, err)
	saved := committer(store).SaveDrafts(ctx, result.Records)
	require.Empty(t, saved.Failures)
	assert.Equal(t, first.ID, saved.Records[0].ID)

	records, err := store.Records(ctx, january)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].LoanID)
}

func TestReset(t *testing.T) {
	store := newStore(t)
	seedDraft(t, store)
	require.NoError(t, store.PutWorker(ctx, worker()))

	require.NoError(t, store.Reset(ctx))

	workers, err := store.Workers(ctx)
	require.NoError(t, err)
	assert.Empty(t, workers)
	records, err := store.Records(ctx, january)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCommit_RecomputedDraftCannotReplacePaidMonth(t *testing.T) {
	// GIVEN: a committed January
	store := newStore(t)
	draft := seedDraft(t, store)
	require.Empty(t, committer(store).Commit(ctx, []payroll.Record{draft}).Failures)

	// WHEN: January is recomputed and committed without SaveDrafts
	loans, err := store.Loans(ctx, "w1")
	require.NoError(t, err)
	result, err := payroll.Compute(payroll.Input{
		Workers: []employee.Worker{worker()},
		Loans:   loans,
		Period:  january,
	})
	require.NoError(t, err)
	again := committer(store).Commit(ctx, result.Records)

	// THEN: rejected, the paid record and the loan are untouched
	require.Len(t, again.Failures, 1)
	assert.ErrorIs(t, again.Failures[0], payroll.ErrRecordFinalized)

	stored, err := store.GetRecord(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())

	loan, err := store.GetLoan(ctx, "loan-1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), loan.Version)
}

func TestPutRecord_NeverReplacesPaidSibling(t *testing.T) {
	store := newStore(t)
	paidAt := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.WithTx(ctx, func(tx payroll.Tx) error {
		return tx.PutRecord(ctx, payroll.Record{ID: "a", EmployeeID: "w1", Period: january, Status: payroll.StatusPaid, PaidAt: &paidAt})
	}))

	err := store.WithTx(ctx, func(tx payroll.Tx) error {
		return tx.PutRecord(ctx, payroll.Record{ID: "b", EmployeeID: "w1", Period: january, Status: payroll.StatusDraft})
	})
	assert.ErrorIs(t, err, payroll.ErrRecordFinalized)

	records, err := store.Records(ctx, january)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].ID)
}
