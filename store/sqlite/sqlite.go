/*
Package sqlite provides a SQLite-backed implementation of store.Store.

KEY TABLES:
  job_config:     The single configuration document (jobs, wages, koma)
  events:         Imported calendar events, upserted by id
  payroll_runs:   History of monthly calculations

EVENT TIMESTAMPS:
  Each event keeps two forms of its start and end:
  - start_at / end_at: RFC 3339 with the original offset. Read back as is,
    because koma windows are anchored to the shift's local calendar day.
  - start_utc / end_utc: Fixed-width UTC text, used for range queries and
    ordering (lexical order equals time order).
  All-day events have empty start_at/end_at and midnight UTC bounds.

CONCURRENCY:
  Uses sync.RWMutex around the connection, and UpdateWage runs inside a
  database transaction.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block.

USAGE:
  st, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New().
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/factory"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store"
)

// utcLayout sorts lexically in time order.
const utcLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements store.Store using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.JobFactory
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, factory: factory.NewJobFactory()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS job_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		summary TEXT NOT NULL,
		start_at TEXT NOT NULL DEFAULT '',
		end_at TEXT NOT NULL DEFAULT '',
		all_day_start TEXT NOT NULL DEFAULT '',
		all_day_end TEXT NOT NULL DEFAULT '',
		start_utc TEXT NOT NULL,
		end_utc TEXT NOT NULL,
		imported_at TEXT NOT NULL
	);

	-- Month range queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_events_range
		ON events(start_utc, end_utc);

	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		event_count INTEGER NOT NULL,
		total_hours TEXT NOT NULL,
		total_salary TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_runs_created
		ON payroll_runs(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_payroll_runs_month
		ON payroll_runs(year, month);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOB CONFIGURATION
// =============================================================================

// LoadConfig returns the stored configuration document.
func (s *Store) LoadConfig(ctx context.Context) (payroll.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadConfig(ctx, s.db)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) loadConfig(ctx context.Context, q queryer) (payroll.Config, error) {
	var doc string
	err := q.QueryRowContext(ctx, "SELECT config_json FROM job_config WHERE id = 1").Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Config{}, store.ErrConfigNotFound
	}
	if err != nil {
		return payroll.Config{}, fmt.Errorf("failed to load job config: %w", err)
	}
	return s.factory.ParseJSON(doc)
}

// SaveConfig replaces the configuration document.
func (s *Store) SaveConfig(ctx context.Context, cfg payroll.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveConfig(ctx, s.db, cfg)
}

func (s *Store) saveConfig(ctx context.Context, e execer, cfg payroll.Config) error {
	doc, err := s.factory.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, `
		INSERT INTO job_config (id, config_json, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET config_json = excluded.config_json, updated_at = excluded.updated_at
	`, doc, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save job config: %w", err)
	}
	return nil
}

// UpdateWage changes one job's wage inside a transaction.
func (s *Store) UpdateWage(ctx context.Context, job string, wage decimal.Decimal) (payroll.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return payroll.Config{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cfg, err := s.loadConfig(ctx, tx)
	if err != nil {
		return payroll.Config{}, err
	}
	updated, err := store.ApplyWage(cfg, job, wage)
	if err != nil {
		return payroll.Config{}, err
	}
	if err := s.saveConfig(ctx, tx, updated); err != nil {
		return payroll.Config{}, err
	}
	if err := tx.Commit(); err != nil {
		return payroll.Config{}, fmt.Errorf("failed to commit wage update: %w", err)
	}
	return updated, nil
}

// =============================================================================
// EVENTS
// =============================================================================

// SaveEvents upserts events by id in one transaction.
func (s *Store) SaveEvents(ctx context.Context, events []calendar.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.saveEvents(ctx, tx, events); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit events: %w", err)
	}
	return len(events), nil
}

// ReplaceEvents deletes stored events intersecting [from, to) that are not
// in events, then upserts events, in one transaction.
func (s *Store) ReplaceEvents(ctx context.Context, from, to time.Time, events []calendar.Event) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM events WHERE end_utc > ? AND start_utc < ?
	`, from.UTC().Format(utcLayout), to.UTC().Format(utcLayout))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query events: %w", err)
	}
	var stored []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("failed to scan event id: %w", err)
		}
		stored = append(stored, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to query events: %w", err)
	}

	keep := make(map[string]bool, len(events))
	for _, e := range events {
		keep[e.ID] = true
	}
	removed := 0
	for _, id := range stored {
		if keep[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
			return 0, 0, fmt.Errorf("failed to delete event %s: %w", id, err)
		}
		removed++
	}

	if err := s.saveEvents(ctx, tx, events); err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit events: %w", err)
	}
	return len(events), removed, nil
}

func (s *Store) saveEvents(ctx context.Context, tx *sql.Tx, events []calendar.Event) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, summary, start_at, end_at, all_day_start, all_day_end, start_utc, end_utc, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			summary = excluded.summary,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			all_day_start = excluded.all_day_start,
			all_day_end = excluded.all_day_end,
			start_utc = excluded.start_utc,
			end_utc = excluded.end_utc,
			imported_at = excluded.imported_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range events {
		startUTC, endUTC := bounds(e)
		_, err := stmt.ExecContext(ctx,
			e.ID, e.Summary,
			formatLocal(e.Start), formatLocal(e.End),
			e.AllDayStart, e.AllDayEnd,
			startUTC, endUTC, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save event %s: %w", e.ID, err)
		}
	}
	return nil
}

// ListEvents returns events intersecting [from, to) ordered by start.
func (s *Store) ListEvents(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, summary, start_at, end_at, all_day_start, all_day_end
		FROM events
		WHERE end_utc > ? AND start_utc < ?
		ORDER BY start_utc ASC, id ASC
	`, from.UTC().Format(utcLayout), to.UTC().Format(utcLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []calendar.Event
	for rows.Next() {
		var (
			e              calendar.Event
			startAt, endAt string
		)
		if err := rows.Scan(&e.ID, &e.Summary, &startAt, &endAt, &e.AllDayStart, &e.AllDayEnd); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if e.Start, err = parseLocal(startAt); err != nil {
			return nil, err
		}
		if e.End, err = parseLocal(endAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func formatLocal(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseLocal(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

// bounds returns the UTC range columns for an event.
func bounds(e calendar.Event) (string, string) {
	if e.AllDay() {
		start, _ := time.Parse(time.DateOnly, e.AllDayStart)
		end, err := time.Parse(time.DateOnly, e.AllDayEnd)
		if err != nil {
			end = start.AddDate(0, 0, 1)
		}
		return start.Format(utcLayout), end.Format(utcLayout)
	}
	return e.Start.UTC().Format(utcLayout), e.End.UTC().Format(utcLayout)
}

// =============================================================================
// PAYROLL RUNS
// =============================================================================

// SaveRun records a calculation.
func (s *Store) SaveRun(ctx context.Context, run store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_runs (id, year, month, event_count, total_hours, total_salary, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Month.Year, int(run.Month.Month), run.EventCount,
		run.TotalHours.String(), run.TotalSalary.String(),
		run.ResultJSON, run.CreatedAt.UTC().Format(utcLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("payroll run %s already recorded: %w", run.ID, err)
		}
		return fmt.Errorf("failed to save payroll run: %w", err)
	}
	return nil
}

// GetRun returns one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, runColumns+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, store.ErrRunNotFound
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, runColumns+" ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll runs: %w", err)
	}
	return scanRuns(rows)
}

const runColumns = `
	SELECT id, year, month, event_count, total_hours, total_salary, result_json, created_at
	FROM payroll_runs`

func scanRuns(rows *sql.Rows) ([]store.Run, error) {
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var (
			r                 store.Run
			month             int
			hours, salary, at string
		)
		if err := rows.Scan(&r.ID, &r.Month.Year, &month, &r.EventCount, &hours, &salary, &r.ResultJSON, &at); err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		r.Month.Month = time.Month(month)
		r.TotalHours = parseDecimal(hours)
		r.TotalSalary = parseDecimal(salary)
		r.CreatedAt, _ = time.Parse(utcLayout, at)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
