package payroll

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/schedule"
)

var minutesPerHour = decimal.NewFromInt(60)

// Input is one payroll run.
type Input struct {
	Workers  []employee.Worker
	Records  []attendance.Record
	Loans    []Loan
	Period   Period
	Settings *schedule.Settings // nil means defaults
	Holidays calendar.Holidays

	// Adjustments keyed by employee ID. Missing workers get zeros.
	Adjustments map[string]Adjustments

	// NewID generates record IDs. Defaults to uuid.NewString.
	NewID func() string
}

// Result holds one draft per worker that could be computed.
type Result struct {
	Records  []Record
	Failures []attendance.Failure
}

// Compute builds draft records for every worker. A worker with any bad
// attendance record, or with more than one active loan, is omitted and
// reported; the rest of the run is unaffected.
func Compute(in Input) (Result, error) {
	if err := in.Period.Validate(); err != nil {
		return Result{}, err
	}
	settings := in.Settings
	if settings == nil {
		settings = schedule.DefaultSettings()
	}
	newID := in.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	dates := in.Period.Dates()
	ix, indexFailures := attendance.NewIndex(in.Records)
	badDays := make(map[string][]attendance.Failure)
	for _, f := range indexFailures {
		if dates.Contains(f.Date) {
			badDays[f.EmployeeID] = append(badDays[f.EmployeeID], f)
		}
	}
	loans := activeLoans(in.Loans)

	var result Result
	for _, w := range in.Workers {
		if err := w.Validate(); err != nil {
			result.Failures = append(result.Failures, attendance.Failure{EmployeeID: w.ID, Err: err})
			continue
		}

		loan, err := singleLoan(w.ID, loans[w.ID])
		if err != nil {
			result.Failures = append(result.Failures, attendance.Failure{EmployeeID: w.ID, Err: err})
			continue
		}

		bs := settings.For(w.Branch)
		days, failures := attendance.Calendar(attendance.CalendarInput{
			EmployeeID: w.ID,
			Period:     dates,
			Schedule:   bs,
			Holidays:   in.Holidays,
			Index:      ix,
		})
		failures = append(failures, badDays[w.ID]...)
		if len(failures) > 0 {
			result.Failures = append(result.Failures, failures...)
			continue
		}

		rec := draft(w, bs, days, loan, in.Adjustments[w.ID])
		rec.ID = newID()
		rec.Period = in.Period
		result.Records = append(result.Records, rec)
	}

	attendance.SortFailures(result.Failures)
	return result, nil
}

// draft applies the payroll formulas to one worker's month.
func draft(w employee.Worker, bs schedule.BranchSchedule, days []attendance.DailyStats, loan *Loan, adj Adjustments) Record {
	netOvertime, unexcused := 0, 0
	for _, d := range days {
		if d.Excluded() {
			continue
		}
		netOvertime += d.NetOvertimeMinutes
		if d.Status == attendance.StatusAbsentPenalty {
			unexcused++
		}
	}

	salary := w.BasicSalary
	hourlyRate := decimal.Zero
	dayRate := decimal.Zero
	if salary.IsPositive() {
		dayRate = salary.Div(bs.PayrollDaysBase)
		hourlyRate = dayRate.Div(bs.PayrollHoursBase)
	}

	rec := Record{
		EmployeeID:        w.ID,
		BasicSalary:       salary,
		OvertimeValue:     decimal.Zero,
		Incentives:        adj.Incentives,
		Commissions:       adj.Commissions,
		Bonuses:           adj.Bonuses,
		Deductions:        adj.Deductions,
		Insurance:         adj.Insurance,
		UnexcusedAbsences: unexcused,
		LoanProposed:      decimal.Zero,
		LoanDeduction:     decimal.Zero,
		LoanRemaining:     decimal.Zero,
		Status:            StatusDraft,
	}

	if w.EmploymentType.MonetizesOvertime() {
		rec.OvertimeMinutes = netOvertime
		hours := decimal.NewFromInt(int64(netOvertime)).Div(minutesPerHour)
		rec.OvertimeValue = hours.Mul(hourlyRate).Round(0)
	}

	absences := decimal.NewFromInt(int64(unexcused))
	rec.AbsentValue = absences.Mul(dayRate).Round(0)
	rec.PenaltyValue = absences.Mul(dayRate).Mul(bs.PenaltyValue).Round(0)

	if loan != nil {
		rec.LoanID = loan.ID
		rec.LoanVersion = loan.Version
		rec.LoanProposed = loan.Installment()
		rec.LoanDeduction = rec.LoanProposed
		rec.LoanRemaining = loan.Remaining()
	}

	rec.recompute()
	return rec
}

// =============================================================================
// LOANS
// =============================================================================

func activeLoans(loans []Loan) map[string][]Loan {
	out := make(map[string][]Loan)
	for _, l := range loans {
		if l.Status == LoanActive {
			out[l.EmployeeID] = append(out[l.EmployeeID], l)
		}
	}
	return out
}

// singleLoan enforces at most one active loan per worker.
func singleLoan(employeeID string, loans []Loan) (*Loan, error) {
	switch len(loans) {
	case 0:
		return nil, nil
	case 1:
		return &loans[0], nil
	}
	ids := make([]string, len(loans))
	for i, l := range loans {
		ids[i] = l.ID
	}
	sort.Strings(ids)
	return nil, &MultipleActiveLoansError{EmployeeID: employeeID, LoanIDs: ids}
}
