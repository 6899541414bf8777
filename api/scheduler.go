/*
scheduler.go - Automated calendar synchronisation

PURPOSE:
  Periodically pulls shift events from the live calendar into the store so
  that calculations, payslips and charts work from stored events without
  manual imports.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each pass lists the previous and the current month (late edits to last
    month's shifts are still picked up before payday)
  - The synced range is mirrored: events are upserted by ID, and stored
    events the calendar no longer returns are deleted
  - A failed pass is logged and retried on the next tick

CONFIGURATION:
  - CheckInterval: How often to sync (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewCalendarSync(store, calendar.HTTPSource{...}, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - calendar/sources.go: HTTPSource
  - handlers.go: ImportEvents endpoint (manual import)
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store"
)

// CalendarSync copies recent calendar events into the store.
type CalendarSync struct {
	Store         store.Store
	Source        calendar.Source
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool

	// Now is the clock; tests replace it.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCalendarSync creates a new scheduler.
func NewCalendarSync(st store.Store, src calendar.Source, logger *zap.Logger) *CalendarSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarSync{
		Store:         st,
		Source:        src,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (cs *CalendarSync) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		cs.Logger.Info("calendar sync disabled, not starting")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.stop = make(chan struct{})
	cs.wg.Add(1)

	go cs.run()

	cs.Logger.Info("calendar sync started", zap.Duration("interval", cs.CheckInterval))
}

// Stop stops the scheduler and waits for a running pass to finish.
func (cs *CalendarSync) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		cs.ticker = nil
		cs.Logger.Info("calendar sync stopped")
	}
}

func (cs *CalendarSync) run() {
	defer cs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-cs.stop
		cancel()
	}()

	// Run immediately on start
	cs.syncAndLog(ctx)

	for {
		select {
		case <-cs.ticker.C:
			cs.syncAndLog(ctx)
		case <-cs.stop:
			return
		}
	}
}

func (cs *CalendarSync) syncAndLog(ctx context.Context) {
	n, err := cs.RunNow(ctx)
	if err != nil {
		cs.Logger.Error("calendar sync failed", zap.Error(err))
		return
	}
	cs.Logger.Info("calendar sync completed", zap.Int("events", n))
}

// RunNow mirrors the previous and current month immediately and returns how
// many events were stored.
func (cs *CalendarSync) RunNow(ctx context.Context) (int, error) {
	current := payroll.MonthOf(cs.Now().UTC())
	from, _ := current.Prev().Range()
	_, to := current.Range()

	events, err := cs.Source.ListEvents(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list calendar events: %w", err)
	}
	n, removed, err := cs.Store.ReplaceEvents(ctx, from, to, events)
	if err != nil {
		return 0, fmt.Errorf("save calendar events: %w", err)
	}
	if removed > 0 {
		cs.Logger.Info("calendar sync removed deleted shifts", zap.Int("removed", removed))
	}
	return n, nil
}

// GetNextRunTime returns when the next scheduled sync will occur.
func (cs *CalendarSync) GetNextRunTime() time.Time {
	return cs.Now().Add(cs.CheckInterval)
}
