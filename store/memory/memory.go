// Package memory provides an in-memory store.Store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	config *payroll.Config
	events map[string]calendar.Event
	runs   []store.Run
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{events: make(map[string]calendar.Event)}
}

func (m *Memory) LoadConfig(_ context.Context) (payroll.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return payroll.Config{}, store.ErrConfigNotFound
	}
	return m.config.Clone(), nil
}

func (m *Memory) SaveConfig(_ context.Context, cfg payroll.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cfg.Clone()
	m.config = &c
	return nil
}

func (m *Memory) UpdateWage(_ context.Context, job string, wage decimal.Decimal) (payroll.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return payroll.Config{}, store.ErrConfigNotFound
	}
	updated, err := store.ApplyWage(*m.config, job, wage)
	if err != nil {
		return payroll.Config{}, err
	}
	m.config = &updated
	return updated.Clone(), nil
}

func (m *Memory) SaveEvents(_ context.Context, events []calendar.Event) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events[e.ID] = e
	}
	return len(events), nil
}

func (m *Memory) ReplaceEvents(_ context.Context, from, to time.Time, events []calendar.Event) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keep := make(map[string]bool, len(events))
	for _, e := range events {
		keep[e.ID] = true
	}
	removed := 0
	for id, e := range m.events {
		if !keep[id] && e.Overlaps(from, to) {
			delete(m.events, id)
			removed++
		}
	}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return len(events), removed, nil
}

func (m *Memory) ListEvents(_ context.Context, from, to time.Time) ([]calendar.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]calendar.Event, 0, len(m.events))
	for _, e := range m.events {
		all = append(all, e)
	}
	// Map order is random; fix it before the stable sort in Filter.
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return calendar.Filter(all, from, to), nil
}

func (m *Memory) SaveRun(_ context.Context, run store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (*store.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			r := m.runs[i]
			return &r, nil
		}
	}
	return nil, store.ErrRunNotFound
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]store.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.Run, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
