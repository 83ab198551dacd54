/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for demos. Each scenario creates workers, branch settings, holidays,
  attendance for January 2025 and loans that exercise specific features.

AVAILABLE SCENARIOS:
  factory-floor:   Factory shifts with overtime, lateness and penalties
  office-team:     Office workers with leave, permissions and a holiday
  loan-completion: A loan whose last installment completes it

HOW SCENARIOS WORK:
  1. Reset database (clear all data)
  2. Save branch settings
  3. Create holidays
  4. Create workers
  5. Add attendance records
  6. Add loans

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "factory-floor"}

  Then:
  GET  /api/rankings?from=2025-01-01&to=2025-01-31
  POST /api/payroll/runs {"year": 2025, "month": 1}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Engine endpoints to run against the loaded data
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "factory-floor",
		Name:        "Factory Floor",
		Description: "Factory workers with monetized overtime, late arrivals and an absence penalty",
	},
	{
		ID:          "office-team",
		Name:        "Office Team",
		Description: "Office workers with leave, early-departure permission and an official holiday",
	},
	{
		ID:          "loan-completion",
		Name:        "Loan Completion",
		Description: "A worker whose January installment pays off the loan",
	},
}

// scenario is the data one demo loads.
type scenario struct {
	settings   schedule.RawConfig
	holidays   []calendar.Holiday
	workers    []employee.Worker
	attendance []attendance.Record
	loans      []payroll.Loan
}

var scenarioLoaders = map[string]func() scenario{
	"factory-floor":   factoryFloorScenario,
	"office-team":     officeTeamScenario,
	"loan-completion": loanCompletionScenario,
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, or null.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	build, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	if err := h.seed(ctx, build()); err != nil {
		h.fail(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.WithField("scenario", req.ScenarioID).Info("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) seed(ctx context.Context, s scenario) error {
	if len(s.settings.Branches) > 0 || s.settings.Weights != nil {
		if err := h.Store.SaveSettings(ctx, s.settings); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	for _, hol := range s.holidays {
		if _, err := h.Store.PutHoliday(ctx, hol); err != nil {
			return fmt.Errorf("holiday %s: %w", hol.Name, err)
		}
	}
	for _, w := range s.workers {
		if err := h.Store.PutWorker(ctx, w); err != nil {
			return fmt.Errorf("worker %s: %w", w.ID, err)
		}
	}
	for _, rec := range s.attendance {
		if err := h.Store.PutAttendance(ctx, rec); err != nil {
			return fmt.Errorf("attendance %s %s: %w", rec.EmployeeID, rec.Date, err)
		}
	}
	for _, l := range s.loans {
		if err := h.Store.PutLoan(ctx, l); err != nil {
			return fmt.Errorf("loan %s: %w", l.ID, err)
		}
	}
	return nil
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

func jan(day int) calendar.Date { return calendar.NewDate(2025, time.January, day) }

// workdays returns the January 2025 dates outside the default Friday weekend.
func workdays() []calendar.Date {
	var out []calendar.Date
	for _, d := range calendar.MonthPeriod(2025, time.January).Days() {
		if d.Weekday() != time.Friday {
			out = append(out, d)
		}
	}
	return out
}

func shift(emp string, d calendar.Date, in, out string) attendance.Record {
	return attendance.Record{EmployeeID: emp, Date: d, CheckIn: in, CheckOut: out, Status: attendance.StatusPresent}
}

func factoryFloorScenario() scenario {
	start, end, penalty := "08:00", "17:00", 1.5
	s := scenario{
		settings: schedule.RawConfig{
			Branches: map[string]schedule.RawBranch{
				"factory": {WorkStartTime: &start, WorkEndTime: &end, PenaltyValue: &penalty},
			},
		},
		workers: []employee.Worker{
			{ID: "f-amal", Name: "Amal Hassan", Branch: schedule.BranchFactory, Role: employee.RoleEmployee,
				EmploymentType: employee.EmploymentFactory, BasicSalary: decimal.NewFromInt(6000)},
			{ID: "f-omar", Name: "Omar Said", Branch: schedule.BranchFactory, Role: employee.RoleEmployee,
				EmploymentType: employee.EmploymentFactory, BasicSalary: decimal.NewFromInt(5400)},
			{ID: "f-lina", Name: "Lina Farid", Branch: schedule.BranchFactory, Role: employee.RoleSupervisor,
				EmploymentType: employee.EmploymentFactory, BasicSalary: decimal.NewFromInt(7200)},
		},
		loans: []payroll.Loan{
			{ID: "loan-omar", EmployeeID: "f-omar", TotalAmount: decimal.NewFromInt(3000),
				InstallmentPerMonth: decimal.NewFromInt(500), Status: payroll.LoanActive, Version: 1},
		},
	}
	for i, d := range workdays() {
		// Amal stays an hour late every day.
		s.attendance = append(s.attendance, shift("f-amal", d, "08:00", "18:00"))
		// Omar is late every third day and takes one unexcused absence.
		switch {
		case d.Equal(jan(14)):
			s.attendance = append(s.attendance, attendance.Record{EmployeeID: "f-omar", Date: d, Status: attendance.StatusAbsentPenalty})
		case i%3 == 0:
			s.attendance = append(s.attendance, shift("f-omar", d, "08:40", "17:00"))
		default:
			s.attendance = append(s.attendance, shift("f-omar", d, "08:05", "17:00"))
		}
		s.attendance = append(s.attendance, shift("f-lina", d, "07:50", "17:30"))
	}
	return s
}

func officeTeamScenario() scenario {
	s := scenario{
		holidays: []calendar.Holiday{
			{Name: "Revolution Day", Start: jan(7), End: jan(7)},
		},
		workers: []employee.Worker{
			{ID: "o-sara", Name: "Sara Nabil", Branch: schedule.BranchOffice, Role: employee.RoleEmployee,
				EmploymentType: employee.EmploymentOffice, BasicSalary: decimal.NewFromInt(9000)},
			{ID: "o-karim", Name: "Karim Adel", Branch: schedule.BranchOffice, Role: employee.RoleEmployee,
				EmploymentType: employee.EmploymentOffice, BasicSalary: decimal.NewFromInt(8500)},
			{ID: "o-mona", Name: "Mona Fathy", Branch: schedule.BranchOffice, Role: employee.RoleLineManager,
				EmploymentType: employee.EmploymentOffice, BasicSalary: decimal.NewFromInt(15000)},
		},
	}
	for _, d := range workdays() {
		if d.Equal(jan(7)) {
			continue
		}
		s.attendance = append(s.attendance, shift("o-sara", d, "08:55", "17:30"))
		switch {
		case d.Equal(jan(20)), d.Equal(jan(21)):
			s.attendance = append(s.attendance, attendance.Record{EmployeeID: "o-karim", Date: d, Status: attendance.StatusLeave})
		case d.Equal(jan(27)):
			rec := shift("o-karim", d, "09:00", "14:00")
			rec.EarlyDeparturePermission = true
			s.attendance = append(s.attendance, rec)
		default:
			s.attendance = append(s.attendance, shift("o-karim", d, "09:00", "17:00"))
		}
		s.attendance = append(s.attendance, shift("o-mona", d, "09:00", "17:00"))
	}
	return s
}

func loanCompletionScenario() scenario {
	s := scenario{
		workers: []employee.Worker{
			{ID: "f-youssef", Name: "Youssef Ali", Branch: schedule.BranchFactory, Role: employee.RoleEmployee,
				EmploymentType: employee.EmploymentFactory, BasicSalary: decimal.NewFromInt(5000)},
		},
		loans: []payroll.Loan{
			{ID: "loan-youssef", EmployeeID: "f-youssef", TotalAmount: decimal.NewFromInt(2000),
				PaidAmount: decimal.NewFromInt(1750), InstallmentPerMonth: decimal.NewFromInt(500),
				Status: payroll.LoanActive, Version: 4},
		},
	}
	for _, d := range workdays() {
		s.attendance = append(s.attendance, shift("f-youssef", d, "08:00", "17:00"))
	}
	return s
}
