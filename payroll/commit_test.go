package payroll_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/payroll/memstore"
)

var paidAt = time.Date(2025, time.February, 1, 10, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	ctx       context.Context
	store     *memstore.Memory
	committer *payroll.Committer
	loan      payroll.Loan
}

func newFixture(t *testing.T, loan payroll.Loan) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.PutLoan(ctx, loan))
	return &fixture{
		ctx:       ctx,
		store:     store,
		committer: payroll.NewCommitter(store, quietLogger()).WithClock(func() time.Time { return paidAt }),
		loan:      loan,
	}
}

// drafts recomputes against the loan currently in the store.
func (f *fixture) drafts(t *testing.T) []payroll.Record {
	t.Helper()
	loans, err := f.store.Loans(f.ctx, "")
	require.NoError(t, err)
	result, err := payroll.Compute(payroll.Input{
		Workers: []employee.Worker{factoryWorker("w1", "3000")},
		Loans:   loans,
		Period:  january,
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	return result.Records
}

func nearlyPaidLoan() payroll.Loan {
	return payroll.Loan{
		ID: "loan-1", EmployeeID: "w1",
		TotalAmount: dec("1000"), PaidAmount: dec("900"), InstallmentPerMonth: dec("200"),
		Status: payroll.LoanActive, Version: 1,
	}
}

// =============================================================================
// COMMIT
// =============================================================================

func TestCommit_CompletesLoan(t *testing.T) {
	// GIVEN: total 1000, paid 900, installment 200
	f := newFixture(t, nearlyPaidLoan())

	// WHEN: the draft is committed
	result := f.committer.Commit(f.ctx, f.drafts(t))

	// THEN: 100 is applied and the loan completes
	require.Empty(t, result.Failures)
	require.Len(t, result.Records, 1)
	paid := result.Records[0]
	assert.Equal(t, payroll.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, paidAt, *paid.PaidAt)
	assertMoney(t, "100", paid.LoanDeduction)
	assertMoney(t, "0", paid.LoanRemaining)

	loan, err := f.store.GetLoan(f.ctx, "loan-1")
	require.NoError(t, err)
	assertMoney(t, "1000", loan.PaidAmount)
	assert.Equal(t, payroll.LoanCompleted, loan.Status)
	assert.Equal(t, int64(2), loan.Version)

	stored, err := f.store.GetRecord(f.ctx, paid.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())
}

func TestCommit_PartialInstallmentKeepsLoanActive(t *testing.T) {
	loan := nearlyPaidLoan()
	loan.PaidAmount = dec("0")
	f := newFixture(t, loan)

	result := f.committer.Commit(f.ctx, f.drafts(t))
	require.Empty(t, result.Failures)

	stored, err := f.store.GetLoan(f.ctx, "loan-1")
	require.NoError(t, err)
	assertMoney(t, "200", stored.PaidAmount)
	assert.Equal(t, payroll.LoanActive, stored.Status)
}

func TestCommit_SecondCommitOfSameRecordIsRejected(t *testing.T) {
	f := newFixture(t, nearlyPaidLoan())
	drafts := f.drafts(t)

	first := f.committer.Commit(f.ctx, drafts)
	require.Empty(t, first.Failures)

	second := f.committer.Commit(f.ctx, drafts)
	require.Len(t, second.Failures, 1)
	assert.ErrorIs(t, second.Failures[0], payroll.ErrRecordFinalized)

	loan, err := f.store.GetLoan(f.ctx, "loan-1")
	require.NoError(t, err)
	assertMoney(t, "1000", loan.PaidAmount, "deduction applied once")
}

func TestCommit_RecomputedDraftCannotReplacePaidMonth(t *testing.T) {
	// GIVEN: January committed with a 200 installment
	loan := nearlyPaidLoan()
	loan.PaidAmount = dec("0")
	f := newFixture(t, loan)
	first := f.committer.Commit(f.ctx, f.drafts(t))
	require.Empty(t, first.Failures)
	original := first.Records[0]

	// WHEN: January is recomputed against the advanced loan and committed
	// directly, without SaveDrafts
	second := f.committer.Commit(f.ctx, f.drafts(t))

	// THEN: the month is finalized and the loan is charged once
	assert.Empty(t, second.Records)
	require.Len(t, second.Failures, 1)
	assert.ErrorIs(t, second.Failures[0], payroll.ErrRecordFinalized)

	stored, err := f.store.GetLoan(f.ctx, "loan-1")
	require.NoError(t, err)
	assertMoney(t, "200", stored.PaidAmount)
	assert.Equal(t, int64(2), stored.Version)

	kept, err := f.store.GetRecord(f.ctx, original.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsPaid())
}

func TestCommit_StaleDraftConflicts(t *testing.T) {
	// GIVEN: two payroll runs drafted against the same loan version
	loan := nearlyPaidLoan()
	loan.PaidAmount = dec("0")
	f := newFixture(t, loan)
	runA := f.drafts(t)
	runB := f.drafts(t)
	runB[0].Period.Month = time.February

	// WHEN: both commit
	resA := f.committer.Commit(f.ctx, runA)
	resB := f.committer.Commit(f.ctx, runB)

	// THEN: the second sees a newer loan and is rejected
	require.Empty(t, resA.Failures)
	require.Len(t, resB.Failures, 1)
	assert.ErrorIs(t, resB.Failures[0], payroll.ErrConcurrentModification)
	assert.True(t, payroll.IsRetryable(resB.Failures[0]))

	stored, err := f.store.GetLoan(f.ctx, "loan-1")
	require.NoError(t, err)
	assertMoney(t, "200", stored.PaidAmount)

	_, err = f.store.GetRecord(f.ctx, runB[0].ID)
	assert.ErrorIs(t, err, payroll.ErrRecordNotFound, "failed commit is rolled back")
}

func TestCommit_ConcurrentCommitsApplyOnce(t *testing.T) {
	loan := nearlyPaidLoan()
	loan.PaidAmount = dec("0")
	f := newFixture(t, loan)

	const runs = 8
	drafts := make([][]payroll.Record, runs)
	for i := range drafts {
		drafts[i] = f.drafts(t)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(batch []payroll.Record) {
			defer wg.Done()
			res := f.committer.Commit(f.ctx, batch)
			mu.Lock()
			committed += len(res.Records)
			mu.Unlock()
		}(drafts[i])
	}
	wg.Wait()

	assert.Equal(t, 1, committed)
	stored, err := f.store.GetLoan(f.ctx, "loan-1")
	require.NoError(t, err)
	assertMoney(t, "200", stored.PaidAmount)
}

func TestCommit_OverpaymentRejected(t *testing.T) {
	f := newFixture(t, nearlyPaidLoan())
	drafts := f.drafts(t)
	drafts[0].LoanDeduction = dec("150")

	result := f.committer.Commit(f.ctx, drafts)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0], payroll.ErrLoanOverpayment)
}

func TestCommit_WithoutLoan(t *testing.T) {
	f := newFixture(t, payroll.Loan{ID: "other", EmployeeID: "w9", Status: payroll.LoanCompleted})
	result := f.committer.Commit(f.ctx, f.drafts(t))
	require.Empty(t, result.Failures)
	assert.Empty(t, result.Records[0].LoanID)
	assertMoney(t, "3000", result.Records[0].NetSalary)
}

// =============================================================================
// DRAFTS & OVERRIDES
// =============================================================================

func TestSaveDrafts_ReplacesExistingDraft(t *testing.T) {
	f := newFixture(t, nearlyPaidLoan())

	first := f.committer.SaveDrafts(f.ctx, f.drafts(t))
	require.Empty(t, first.Failures)
	second := f.committer.SaveDrafts(f.ctx, f.drafts(t))
	require.Empty(t, second.Failures)

	assert.Equal(t, first.Records[0].ID, second.Records[0].ID, "draft keeps its ID")
	records, err := f.store.Records(f.ctx, january)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSaveDrafts_PaidMonthUntouched(t *testing.T) {
	f := newFixture(t, nearlyPaidLoan())
	saved := f.committer.SaveDrafts(f.ctx, f.drafts(t))
	require.Empty(t, f.committer.Commit(f.ctx, saved.Records).Failures)

	again := f.committer.SaveDrafts(f.ctx, f.drafts(t))
	require.Len(t, again.Failures, 1)
	assert.ErrorIs(t, again.Failures[0], payroll.ErrRecordFinalized)
}

func TestOverride_StoredDraft(t *testing.T) {
	f := newFixture(t, nearlyPaidLoan())
	saved := f.committer.SaveDrafts(f.ctx, f.drafts(t))
	id := saved.Records[0].ID

	updated, err := f.committer.Override(f.ctx, id, payroll.Override{LoanDeduction: decPtr("40")})
	require.NoError(t, err)
	assertMoney(t, "40", updated.LoanDeduction)

	// commit picks up the overridden deduction from the store
	result := f.committer.Commit(f.ctx, saved.Records)
	require.Empty(t, result.Failures)
	assertMoney(t, "40", result.Records[0].LoanDeduction)

	loan, err := f.store.GetLoan(f.ctx, "loan-1")
	require.NoError(t, err)
	assertMoney(t, "940", loan.PaidAmount)
	assert.Equal(t, payroll.LoanActive, loan.Status)

	_, err = f.committer.Override(f.ctx, id, payroll.Override{Bonuses: decPtr("1")})
	assert.ErrorIs(t, err, payroll.ErrRecordFinalized)
}

func TestOverride_UnknownRecord(t *testing.T) {
	f := newFixture(t, nearlyPaidLoan())
	_, err := f.committer.Override(f.ctx, "missing", payroll.Override{})
	assert.ErrorIs(t, err, payroll.ErrRecordNotFound)
	assert.True(t, payroll.IsNotFound(err))
}
