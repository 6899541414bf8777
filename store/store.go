/*
Package store defines persistence for the payroll service.

PURPOSE:
  The payroll core is pure; everything that outlives a request lives here:
  the editable job configuration, imported calendar events and the history
  of monthly calculations.

KEY INTERFACES:
  Store: Configuration, events and runs

CONFIGURATION:
  The configuration is a single document (see factory). UpdateWage is a
  read-modify-write performed atomically by the implementation, so two
  concurrent wage edits cannot lose each other.

EVENTS:
  SaveEvents upserts by event ID, so re-importing an export is harmless.
  ReplaceEvents mirrors a calendar range: shifts deleted from the calendar
  are removed from the store as well.
  ListEvents has calendar.Source semantics and keeps each event's original
  UTC offset; koma windows depend on the shift's local date.

IMPLEMENTATIONS:
  - store/sqlite: SQLite (WAL)
  - store/memory: In-memory for tests

SEE ALSO:
  - calendar/events.go: Event and Source
  - factory/jobs.go: Configuration document
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
)

var (
	// ErrConfigNotFound is returned before any configuration was saved.
	ErrConfigNotFound = errors.New("job configuration not found")

	// ErrJobNotFound is returned when a wage edit names an unknown job.
	ErrJobNotFound = errors.New("job not found")

	// ErrRunNotFound is returned for an unknown run ID.
	ErrRunNotFound = errors.New("payroll run not found")
)

// Run is one recorded monthly calculation.
type Run struct {
	ID          string
	Month       payroll.Month
	EventCount  int
	TotalHours  decimal.Decimal
	TotalSalary decimal.Decimal
	ResultJSON  string
	CreatedAt   time.Time
}

// Store persists configuration, events and runs.
type Store interface {
	calendar.Source

	LoadConfig(ctx context.Context) (payroll.Config, error)
	SaveConfig(ctx context.Context, cfg payroll.Config) error
	UpdateWage(ctx context.Context, job string, wage decimal.Decimal) (payroll.Config, error)

	// SaveEvents upserts by ID and returns how many events were written.
	SaveEvents(ctx context.Context, events []calendar.Event) (int, error)
	// ReplaceEvents makes the stored events intersecting [from, to) equal to
	// events: stored ones missing from events are deleted, the rest upserted.
	// It returns how many were written and how many removed.
	ReplaceEvents(ctx context.Context, from, to time.Time, events []calendar.Event) (saved, removed int, err error)

	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Close() error
}

// EnsureConfig saves fallback when the store holds no configuration yet and
// returns whichever configuration is now current.
func EnsureConfig(ctx context.Context, s Store, fallback payroll.Config) (payroll.Config, error) {
	cfg, err := s.LoadConfig(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return payroll.Config{}, err
	}
	if err := s.SaveConfig(ctx, fallback); err != nil {
		return payroll.Config{}, err
	}
	return fallback, nil
}

// ApplyWage is the shared read-modify-write step of UpdateWage.
func ApplyWage(cfg payroll.Config, job string, wage decimal.Decimal) (payroll.Config, error) {
	if _, ok := cfg.Job(job); !ok {
		return payroll.Config{}, ErrJobNotFound
	}
	return cfg.WithWage(job, wage)
}
