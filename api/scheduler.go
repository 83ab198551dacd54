/*
scheduler.go - Automated payroll draft scheduler

PURPOSE:
  Periodically checks whether the previous month has a payroll run and,
  if not, computes and stores drafts for it. Drafts still need a manual
  commit; the scheduler never pays anyone.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Targets the month before the current date
  - Skips months that already have any stored record, so manual
    overrides and commits are never overwritten
  - Logs each run with draft and failure counts

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewDraftScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunPayroll endpoint (manual run)
  - payroll/commit.go: SaveDrafts
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/attendance-engine/payroll"
)

// DraftScheduler drafts last month's payroll when nobody has run it yet.
type DraftScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewDraftScheduler creates a new scheduler.
func NewDraftScheduler(handler *Handler) *DraftScheduler {
	return &DraftScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		now:           time.Now,
	}
}

// Start begins the scheduler.
func (ds *DraftScheduler) Start() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	log := ds.Handler.Logger.WithField("component", "draft_scheduler")
	if !ds.Enabled {
		log.Info("scheduler disabled, not starting")
		return
	}
	if ds.ticker != nil {
		return
	}

	ds.ticker = time.NewTicker(ds.CheckInterval)
	ds.stop = make(chan struct{})
	ds.wg.Add(1)
	go ds.run(ds.ticker, ds.stop)

	log.WithField("interval", ds.CheckInterval.String()).Info("scheduler started")
}

// Stop stops the scheduler and waits for an in-flight run.
func (ds *DraftScheduler) Stop() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.ticker == nil {
		return
	}
	ds.ticker.Stop()
	close(ds.stop)
	ds.wg.Wait()
	ds.ticker = nil
	ds.Handler.Logger.WithField("component", "draft_scheduler").Info("scheduler stopped")
}

func (ds *DraftScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ds.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	ds.RunNow(ctx)

	for {
		select {
		case <-ticker.C:
			ds.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow drafts the previous month if it has no records. It reports
// whether a run happened.
func (ds *DraftScheduler) RunNow(ctx context.Context) bool {
	p := previousMonth(ds.now())
	log := ds.Handler.Logger.WithFields(logrus.Fields{
		"component": "draft_scheduler",
		"year":      p.Year,
		"month":     int(p.Month),
	})

	existing, err := ds.Handler.Store.Records(ctx, p)
	if err != nil {
		log.WithError(err).Error("failed to list payroll records")
		return false
	}
	if len(existing) > 0 {
		log.Debug("month already has payroll records, skipping")
		return false
	}

	saved, failures, err := ds.Handler.runPayroll(ctx, p, nil)
	if err != nil {
		log.WithError(err).Error("scheduled payroll run failed")
		return false
	}
	log.WithFields(logrus.Fields{
		"drafts":   len(saved.Records),
		"failures": len(failures) + len(saved.Failures),
	}).Info("scheduled payroll drafts stored")
	return true
}

func previousMonth(t time.Time) payroll.Period {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return payroll.Period{Year: first.Year(), Month: first.Month()}
}
