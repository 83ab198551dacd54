/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for dashboards

ROUTE GROUPS:
  /health               Liveness and database check
  /api/daily-stats      Single-day computation
  /api/employees/*      Per-worker calendar
  /api/calendars        All workers' calendars
  /api/rankings         Leaderboard
  /api/payroll/*        Payroll runs, overrides, commit
  /api/workers, /api/attendance, /api/holidays, /api/settings, /api/loans
                        Snapshot data management
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. Deploy behind an authenticating proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
// An empty allowedOrigins list allows every origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Engine routes
		r.Post("/daily-stats", h.ComputeDailyStats)
		r.Get("/employees/{id}/calendar", h.GetCalendar)
		r.Get("/calendars", h.ListCalendars)
		r.Get("/rankings", h.GetRankings)

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Post("/runs", h.RunPayroll)
			r.Get("/runs/{year}/{month}", h.ListPayroll)
			r.Post("/runs/{year}/{month}/commit", h.CommitPayroll)
			r.Patch("/records/{id}", h.OverridePayroll)
		})

		// Snapshot data routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.PutWorker)
		})
		r.Post("/attendance", h.PutAttendance)
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.PutSettings)
		})
		r.Route("/loans", func(r chi.Router) {
			r.Get("/", h.ListLoans)
			r.Post("/", h.CreateLoan)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
