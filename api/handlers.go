/*
handlers.go - HTTP API handlers for the attendance, ranking and payroll engine

PURPOSE:
  Exposes the calculators via REST API. Handlers load a read-only snapshot
  from the store, resolve branch settings once per request, call the pure
  engine functions and serialize the result. Only the payroll endpoints
  write, and they do so through payroll.Committer.

ENDPOINTS:
  Engine:
    POST   /api/daily-stats                         Compute one day from an inline record
    GET    /api/employees/{id}/calendar?year=&month= One worker's month
    GET    /api/calendars?year=&month=              Every worker's month
    GET    /api/rankings?from=&to=                  Leaderboard for a period

  Payroll:
    POST   /api/payroll/runs                        Compute and store drafts
    GET    /api/payroll/runs/{year}/{month}         List stored records
    PATCH  /api/payroll/records/{id}                Manual override of a draft
    POST   /api/payroll/runs/{year}/{month}/commit  Finalize drafts

  Snapshot data:
    GET/POST /api/workers, POST /api/attendance, GET/POST /api/holidays,
    GET/PUT /api/settings, GET/POST /api/loans

REQUEST FLOW:
  1. Parse HTTP request
  2. Load snapshot (workers, attendance, holidays, settings, loans)
  3. Call engine function
  4. Serialize result plus per-record failures
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed records, invalid override
  - 404: Worker or payroll record not found
  - 409: Loan changed since the draft, record already paid
  - 500: Internal errors
  Per-record problems in a batch never fail the request; they are listed
  in the response's failures array.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/employee"
	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/ranking"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the handlers read and write.
type Store interface {
	payroll.Store

	Ping(ctx context.Context) error
	Reset(ctx context.Context) error

	Workers(ctx context.Context) ([]employee.Worker, error)
	Worker(ctx context.Context, id string) (employee.Worker, error)
	PutWorker(ctx context.Context, w employee.Worker) error

	Attendance(ctx context.Context, period calendar.Period, employeeID string) ([]attendance.Record, error)
	PutAttendance(ctx context.Context, r attendance.Record) error

	Holidays(ctx context.Context) (calendar.Holidays, error)
	PutHoliday(ctx context.Context, h calendar.Holiday) (calendar.Holiday, error)

	RawSettings(ctx context.Context) (schedule.RawConfig, error)
	SaveSettings(ctx context.Context, raw schedule.RawConfig) error

	Loans(ctx context.Context, employeeID string) ([]payroll.Loan, error)
	PutLoan(ctx context.Context, l payroll.Loan) error

	Records(ctx context.Context, p payroll.Period) ([]payroll.Record, error)
	GetRecord(ctx context.Context, id string) (payroll.Record, error)
}

// Options are the config-file inputs to the handlers.
type Options struct {
	// Engine is the config-file document, shown when the store holds none.
	Engine schedule.RawConfig
	// Settings is Engine resolved at startup. Nil means resolve Engine
	// per request.
	Settings *schedule.Settings
	// Holidays are merged with the stored holidays.
	Holidays calendar.Holidays
	// CalendarWorkers bounds the per-worker fan-out of /api/calendars.
	CalendarWorkers int
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Logger    *logrus.Logger
	Committer *payroll.Committer
	opts      Options

	// mu guards currentScenario and serializes scenario loads.
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.CalendarWorkers <= 0 {
		opts.CalendarWorkers = 1
	}
	return &Handler{
		Store:     store,
		Logger:    logger,
		Committer: payroll.NewCommitter(store, logger),
		opts:      opts,
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// settings resolves the stored configuration, falling back to the config file.
func (h *Handler) settings(ctx context.Context) (*schedule.Settings, error) {
	raw, err := h.Store.RawSettings(ctx)
	if err != nil {
		return nil, err
	}
	if len(raw.Branches) == 0 && raw.Weights == nil {
		if h.opts.Settings != nil {
			return h.opts.Settings, nil
		}
		raw = h.opts.Engine
	}
	return schedule.Resolve(raw)
}

func (h *Handler) holidays(ctx context.Context) (calendar.Holidays, error) {
	stored, err := h.Store.Holidays(ctx)
	if err != nil {
		return nil, err
	}
	out := make(calendar.Holidays, 0, len(h.opts.Holidays)+len(stored))
	out = append(out, h.opts.Holidays...)
	return append(out, stored...), nil
}

// snapshot is the read-only input of one engine call.
type snapshot struct {
	settings *schedule.Settings
	holidays calendar.Holidays
	workers  []employee.Worker
	records  []attendance.Record
}

func (h *Handler) loadSnapshot(ctx context.Context, period calendar.Period) (*snapshot, error) {
	settings, err := h.settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve settings: %w", err)
	}
	holidays, err := h.holidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	workers, err := h.Store.Workers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workers: %w", err)
	}
	records, err := h.Store.Attendance(ctx, period, "")
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	return &snapshot{settings: settings, holidays: holidays, workers: workers, records: records}, nil
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the database is reachable.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthDTO{Status: "degraded", Database: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Database: "ok"})
}

// =============================================================================
// ENGINE ENDPOINTS
// =============================================================================

// ComputeDailyStats classifies one day from an inline record.
// POST /api/daily-stats
func (h *Handler) ComputeDailyStats(w http.ResponseWriter, r *http.Request) {
	var req DailyStatsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Date.IsZero() && req.Record != nil {
		req.Date = req.Record.Date
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}
	if req.Record != nil {
		if req.Record.Date.IsZero() {
			req.Record.Date = req.Date
		}
		if req.Record.EmployeeID == "" {
			req.Record.EmployeeID = req.EmployeeID
		}
		if req.Record.EmployeeID == "" {
			req.Record.EmployeeID = "anonymous"
		}
	}

	ctx := r.Context()
	settings, err := h.settings(ctx)
	if err != nil {
		h.fail(w, "Failed to resolve settings", err)
		return
	}
	holidays, err := h.holidays(ctx)
	if err != nil {
		h.fail(w, "Failed to load holidays", err)
		return
	}

	stats, err := attendance.Compute(attendance.DayInput{
		EmployeeID: req.EmployeeID,
		Date:       req.Date,
		Schedule:   settings.For(req.Branch),
		Holidays:   holidays,
		Record:     req.Record,
	})
	if err != nil {
		h.fail(w, "Failed to compute daily stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetCalendar returns one worker's DailyStats for a month.
// GET /api/employees/{id}/calendar?year=2025&month=1
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := monthFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	worker, err := h.Store.Worker(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "Worker not found", err)
		return
	}
	settings, err := h.settings(ctx)
	if err != nil {
		h.fail(w, "Failed to resolve settings", err)
		return
	}
	holidays, err := h.holidays(ctx)
	if err != nil {
		h.fail(w, "Failed to load holidays", err)
		return
	}
	records, err := h.Store.Attendance(ctx, p.Dates(), worker.ID)
	if err != nil {
		h.fail(w, "Failed to load attendance", err)
		return
	}

	ix, indexFailures := attendance.NewIndex(records)
	days, failures := attendance.Calendar(attendance.CalendarInput{
		EmployeeID: worker.ID,
		Period:     p.Dates(),
		Schedule:   settings.For(worker.Branch),
		Holidays:   holidays,
		Index:      ix,
	})
	failures = append(failures, indexFailures...)
	attendance.SortFailures(failures)

	writeJSON(w, http.StatusOK, calendarDTO(worker, p, days, failures))
}

// ListCalendars returns every worker's month. Workers are computed
// concurrently; output order follows the worker list.
// GET /api/calendars?year=2025&month=1
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	p, err := monthFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	snap, err := h.loadSnapshot(r.Context(), p.Dates())
	if err != nil {
		h.fail(w, "Failed to load snapshot", err)
		return
	}

	ix, indexFailures := attendance.NewIndex(snap.records)
	byWorker := make(map[string][]attendance.Failure)
	for _, f := range indexFailures {
		byWorker[f.EmployeeID] = append(byWorker[f.EmployeeID], f)
	}

	out := make([]CalendarDTO, len(snap.workers))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(h.opts.CalendarWorkers)
	for i, worker := range snap.workers {
		i, worker := i, worker
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			days, failures := attendance.Calendar(attendance.CalendarInput{
				EmployeeID: worker.ID,
				Period:     p.Dates(),
				Schedule:   snap.settings.For(worker.Branch),
				Holidays:   snap.holidays,
				Index:      ix,
			})
			failures = append(failures, byWorker[worker.ID]...)
			attendance.SortFailures(failures)
			out[i] = calendarDTO(worker, p, days, failures)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.fail(w, "Failed to compute calendars", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetRankings scores the cohort over a period.
// GET /api/rankings?from=2025-01-01&to=2025-01-31
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	snap, err := h.loadSnapshot(r.Context(), period)
	if err != nil {
		h.fail(w, "Failed to load snapshot", err)
		return
	}

	result, err := ranking.Rank(ranking.Input{
		Workers:  snap.workers,
		Records:  snap.records,
		Period:   period,
		Settings: snap.settings,
		Holidays: snap.holidays,
	})
	if err != nil {
		h.fail(w, "Failed to rank", err)
		return
	}

	scores := result.Scores
	if scores == nil {
		scores = []ranking.EmployeeScore{}
	}
	writeJSON(w, http.StatusOK, RankingResponse{
		Period:   period,
		Scores:   scores,
		Failures: attendanceFailures(result.Failures),
	})
}

// =============================================================================
// PAYROLL ENDPOINTS
// =============================================================================

// RunPayroll computes drafts for a month and stores them. Paid months are
// left untouched and reported as failures.
// POST /api/payroll/runs
func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var req PayrollRunRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p := payroll.Period{Year: req.Year, Month: time.Month(req.Month)}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	saved, computeFailures, err := h.runPayroll(r.Context(), p, req.Adjustments)
	if err != nil {
		h.fail(w, "Failed to compute payroll", err)
		return
	}
	failures := attendanceFailures(computeFailures)
	failures = append(failures, recordFailures(saved.Failures)...)

	writeJSON(w, http.StatusCreated, payrollResponse(p, saved.Records, failures))
}

// runPayroll computes the month's drafts from a fresh snapshot and stores them.
func (h *Handler) runPayroll(ctx context.Context, p payroll.Period, adj map[string]payroll.Adjustments) (payroll.BatchResult, []attendance.Failure, error) {
	snap, err := h.loadSnapshot(ctx, p.Dates())
	if err != nil {
		return payroll.BatchResult{}, nil, err
	}
	loans, err := h.Store.Loans(ctx, "")
	if err != nil {
		return payroll.BatchResult{}, nil, fmt.Errorf("load loans: %w", err)
	}

	result, err := payroll.Compute(payroll.Input{
		Workers:     snap.workers,
		Records:     snap.records,
		Loans:       loans,
		Period:      p,
		Settings:    snap.settings,
		Holidays:    snap.holidays,
		Adjustments: adj,
	})
	if err != nil {
		return payroll.BatchResult{}, nil, err
	}
	saved := h.Committer.SaveDrafts(ctx, result.Records)

	h.Logger.WithFields(logrus.Fields{
		"year":            p.Year,
		"month":           int(p.Month),
		"drafts":          len(saved.Records),
		"skipped_records": len(result.Failures),
		"save_failures":   len(saved.Failures),
	}).Info("payroll run computed")
	return saved, result.Failures, nil
}

// ListPayroll returns the stored records of a month.
// GET /api/payroll/runs/{year}/{month}
func (h *Handler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	p, err := monthFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	records, err := h.Store.Records(r.Context(), p)
	if err != nil {
		h.fail(w, "Failed to load payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, payrollResponse(p, records, nil))
}

// OverridePayroll applies a manual override to a draft.
// PATCH /api/payroll/records/{id}
func (h *Handler) OverridePayroll(w http.ResponseWriter, r *http.Request) {
	var o payroll.Override
	if !decodeJSON(w, r, &o) {
		return
	}
	rec, err := h.Committer.Override(r.Context(), chi.URLParam(r, "id"), o)
	if err != nil {
		h.fail(w, "Failed to apply override", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CommitPayroll finalizes the month's drafts, or the listed ones.
// POST /api/payroll/runs/{year}/{month}/commit
func (h *Handler) CommitPayroll(w http.ResponseWriter, r *http.Request) {
	p, err := monthFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	var req CommitRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	records, err := h.Store.Records(ctx, p)
	if err != nil {
		h.fail(w, "Failed to load payroll", err)
		return
	}

	wanted := make(map[string]bool, len(req.RecordIDs))
	for _, id := range req.RecordIDs {
		wanted[id] = true
	}
	var (
		batch    []payroll.Record
		failures []FailureDTO
	)
	for _, rec := range records {
		if len(wanted) > 0 && !wanted[rec.ID] {
			continue
		}
		delete(wanted, rec.ID)
		if rec.IsPaid() && len(req.RecordIDs) == 0 {
			continue
		}
		batch = append(batch, rec)
	}
	for id := range wanted {
		failures = append(failures, FailureDTO{RecordID: id, Code: "not_found", Error: payroll.ErrRecordNotFound.Error()})
	}

	result := h.Committer.Commit(ctx, batch)
	failures = append(failures, recordFailures(result.Failures)...)
	writeJSON(w, http.StatusOK, payrollResponse(p, result.Records, failures))
}

// =============================================================================
// SNAPSHOT DATA ENDPOINTS
// =============================================================================

// ListWorkers returns all workers.
// GET /api/workers
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Store.Workers(r.Context())
	if err != nil {
		h.fail(w, "Failed to list workers", err)
		return
	}
	if workers == nil {
		workers = []employee.Worker{}
	}
	writeJSON(w, http.StatusOK, workers)
}

// PutWorker creates or replaces a worker.
// POST /api/workers
func (h *Handler) PutWorker(w http.ResponseWriter, r *http.Request) {
	var worker employee.Worker
	if !decodeJSON(w, r, &worker) {
		return
	}
	if err := h.Store.PutWorker(r.Context(), worker); err != nil {
		h.fail(w, "Failed to save worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, worker)
}

// PutAttendance stores one attendance record.
// POST /api/attendance
func (h *Handler) PutAttendance(w http.ResponseWriter, r *http.Request) {
	var rec attendance.Record
	if !decodeJSON(w, r, &rec) {
		return
	}
	if err := h.Store.PutAttendance(r.Context(), rec); err != nil {
		h.fail(w, "Failed to save attendance", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListHolidays returns config-file and stored holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.holidays(r.Context())
	if err != nil {
		h.fail(w, "Failed to list holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

// CreateHoliday stores a holiday range.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var holiday calendar.Holiday
	if !decodeJSON(w, r, &holiday) {
		return
	}
	saved, err := h.Store.PutHoliday(r.Context(), holiday)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// GetSettings returns the effective raw configuration.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Store.RawSettings(r.Context())
	if err != nil {
		h.fail(w, "Failed to load settings", err)
		return
	}
	if len(raw.Branches) == 0 && raw.Weights == nil {
		raw = h.opts.Engine
	}
	writeJSON(w, http.StatusOK, raw)
}

// PutSettings validates and stores the raw configuration.
// PUT /api/settings
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var raw schedule.RawConfig
	if !decodeJSON(w, r, &raw) {
		return
	}
	if err := h.Store.SaveSettings(r.Context(), raw); err != nil {
		h.fail(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// ListLoans returns loans, optionally for one employee.
// GET /api/loans?employee_id=
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Store.Loans(r.Context(), r.URL.Query().Get("employee_id"))
	if err != nil {
		h.fail(w, "Failed to list loans", err)
		return
	}
	if loans == nil {
		loans = []payroll.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

// CreateLoan stores a new loan. Status defaults to active.
// POST /api/loans
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var loan payroll.Loan
	if !decodeJSON(w, r, &loan) {
		return
	}
	if loan.ID == "" || loan.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "id and employee_id are required", nil)
		return
	}
	if loan.TotalAmount.IsNegative() || loan.PaidAmount.IsNegative() || loan.InstallmentPerMonth.IsNegative() {
		writeError(w, http.StatusBadRequest, "loan amounts must not be negative", nil)
		return
	}
	if loan.Status == "" {
		loan.Status = payroll.LoanActive
	}
	if _, err := payroll.ParseLoanStatus(string(loan.Status)); err != nil {
		h.fail(w, "Invalid loan status", err)
		return
	}
	if err := h.Store.PutLoan(r.Context(), loan); err != nil {
		h.fail(w, "Failed to save loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// =============================================================================
// HELPERS
// =============================================================================

func calendarDTO(worker employee.Worker, p payroll.Period, days []attendance.DailyStats, failures []attendance.Failure) CalendarDTO {
	if days == nil {
		days = []attendance.DailyStats{}
	}
	return CalendarDTO{
		EmployeeID: worker.ID,
		Name:       worker.Name,
		Year:       p.Year,
		Month:      int(p.Month),
		Days:       days,
		Failures:   attendanceFailures(failures),
	}
}

func payrollResponse(p payroll.Period, records []payroll.Record, failures []FailureDTO) PayrollResponse {
	if records == nil {
		records = []payroll.Record{}
	}
	if failures == nil {
		failures = []FailureDTO{}
	}
	resp := PayrollResponse{Year: p.Year, Month: int(p.Month), Records: records, Failures: failures}
	if len(records) > 0 {
		var totals payroll.Totals
		for _, rec := range records {
			t := rec.Totals()
			totals.Gross = totals.Gross.Add(t.Gross)
			totals.Deductions = totals.Deductions.Add(t.Deductions)
			totals.Net = totals.Net.Add(t.Net)
		}
		resp.Totals = &totals
	}
	return resp
}

func monthFromQuery(r *http.Request) (payroll.Period, error) {
	return parseMonth(r.URL.Query().Get("year"), r.URL.Query().Get("month"))
}

func monthFromPath(r *http.Request) (payroll.Period, error) {
	return parseMonth(chi.URLParam(r, "year"), chi.URLParam(r, "month"))
}

func parseMonth(yearStr, monthStr string) (payroll.Period, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return payroll.Period{}, fmt.Errorf("year: %w", err)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return payroll.Period{}, fmt.Errorf("month: %w", err)
	}
	p := payroll.Period{Year: year, Month: time.Month(month)}
	return p, p.Validate()
}

func periodFromQuery(r *http.Request) (calendar.Period, error) {
	from, err := calendar.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return calendar.Period{}, fmt.Errorf("from: %w", err)
	}
	to, err := calendar.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return calendar.Period{}, fmt.Errorf("to: %w", err)
	}
	p := calendar.Period{Start: from, End: to}
	return p, p.Validate()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case payroll.IsNotFound(err), errors.Is(err, employee.ErrWorkerNotFound):
		return http.StatusNotFound
	case errors.Is(err, payroll.ErrConcurrentModification), errors.Is(err, payroll.ErrRecordFinalized):
		return http.StatusConflict
	case payroll.IsClientError(err), employee.IsClientError(err), errors.Is(err, schedule.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status it maps to. Server errors are logged.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.WithError(err).Error(message)
	}
	writeJSONError(w, status, message, errorCode(err), err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeJSONError(w, status, message, "", err)
}

func writeJSONError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
