// Package storetest holds behaviour shared by every store.Store implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store"
)

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("ConfigLifecycle", func(t *testing.T) { testConfigLifecycle(t, open(t)) })
	t.Run("UpdateWage", func(t *testing.T) { testUpdateWage(t, open(t)) })
	t.Run("EventsKeepOffsets", func(t *testing.T) { testEventsKeepOffsets(t, open(t)) })
	t.Run("EventsUpsert", func(t *testing.T) { testEventsUpsert(t, open(t)) })
	t.Run("EventsMonthRange", func(t *testing.T) { testEventsMonthRange(t, open(t)) })
	t.Run("ReplaceEvents", func(t *testing.T) { testReplaceEvents(t, open(t)) })
	t.Run("Runs", func(t *testing.T) { testRuns(t, open(t)) })
}

var jst = time.FixedZone("JST", 9*60*60)

func testConfigLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.LoadConfig(ctx)
	assert.ErrorIs(t, err, store.ErrConfigNotFound)

	cfg, err := store.EnsureConfig(ctx, s, jobs.Default())
	require.NoError(t, err)
	assert.Len(t, cfg.Jobs, 3)

	loaded, err := s.LoadConfig(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Jobs, 3)
	assert.Equal(t, jobs.Waseaka, loaded.Jobs[0].Name)
	assert.True(t, loaded.Jobs[0].Wage.Equal(decimal.NewFromInt(1410)))
	assert.Equal(t, payroll.FormulaSlotBased, loaded.Jobs[0].Formula)
	assert.Len(t, loaded.Slots, 6)

	// A second EnsureConfig keeps what is stored
	edited, err := loaded.WithWage(jobs.Toraya, decimal.NewFromInt(1300))
	require.NoError(t, err)
	require.NoError(t, s.SaveConfig(ctx, edited))
	again, err := store.EnsureConfig(ctx, s, jobs.Default())
	require.NoError(t, err)
	toraya, _ := again.Job(jobs.Toraya)
	assert.True(t, toraya.Wage.Equal(decimal.NewFromInt(1300)))

	bad := jobs.Default()
	bad.Jobs[0].Formula = "piecework"
	assert.ErrorIs(t, s.SaveConfig(ctx, bad), payroll.ErrUnknownFormula)
}

func testUpdateWage(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.UpdateWage(ctx, jobs.Toraya, decimal.NewFromInt(1300))
	assert.ErrorIs(t, err, store.ErrConfigNotFound)

	require.NoError(t, s.SaveConfig(ctx, jobs.Default()))

	cfg, err := s.UpdateWage(ctx, jobs.Haluene, decimal.RequireFromString("1550.5"))
	require.NoError(t, err)
	h, _ := cfg.Job(jobs.Haluene)
	assert.True(t, h.Wage.Equal(decimal.RequireFromString("1550.5")))

	loaded, err := s.LoadConfig(ctx)
	require.NoError(t, err)
	h, _ = loaded.Job(jobs.Haluene)
	assert.True(t, h.Wage.Equal(decimal.RequireFromString("1550.5")))

	_, err = s.UpdateWage(ctx, "コンビニ", decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, store.ErrJobNotFound)

	_, err = s.UpdateWage(ctx, jobs.Haluene, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, payroll.ErrInvalidConfig)

	// Rejected edits leave the stored wage alone
	loaded, err = s.LoadConfig(ctx)
	require.NoError(t, err)
	h, _ = loaded.Job(jobs.Haluene)
	assert.True(t, h.Wage.Equal(decimal.RequireFromString("1550.5")))
}

func testEventsKeepOffsets(t *testing.T, s store.Store) {
	ctx := context.Background()

	e := calendar.Event{
		ID:      "e1",
		Summary: jobs.Waseaka,
		Start:   time.Date(2026, 2, 3, 16, 0, 0, 0, jst),
		End:     time.Date(2026, 2, 3, 21, 30, 0, 0, jst),
	}
	n, err := s.SaveEvents(ctx, []calendar.Event{e})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	from, to := payroll.NewMonth(2026, time.February).Range()
	events, err := s.ListEvents(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.True(t, got.Start.Equal(e.Start))
	_, offset := got.Start.Zone()
	assert.Equal(t, 9*60*60, offset)
	assert.Equal(t, 4, payroll.OverlappingSlots(got.Start, got.End, jobs.Slots()))
}

func testEventsUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()

	e := calendar.Event{
		ID:      "e1",
		Summary: jobs.Toraya,
		Start:   time.Date(2026, 2, 7, 10, 0, 0, 0, jst),
		End:     time.Date(2026, 2, 7, 18, 0, 0, 0, jst),
	}
	_, err := s.SaveEvents(ctx, []calendar.Event{e})
	require.NoError(t, err)

	e.End = time.Date(2026, 2, 7, 16, 0, 0, 0, jst)
	_, err = s.SaveEvents(ctx, []calendar.Event{e})
	require.NoError(t, err)

	from, to := payroll.NewMonth(2026, time.February).Range()
	events, err := s.ListEvents(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 6*time.Hour, events[0].End.Sub(events[0].Start))
}

func testEventsMonthRange(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.SaveEvents(ctx, []calendar.Event{
		{ID: "mar", Summary: jobs.Haluene, Start: time.Date(2026, 3, 2, 10, 0, 0, 0, jst), End: time.Date(2026, 3, 2, 15, 0, 0, 0, jst)},
		{ID: "late", Summary: jobs.Toraya, Start: time.Date(2026, 2, 20, 10, 0, 0, 0, jst), End: time.Date(2026, 2, 20, 12, 0, 0, 0, jst)},
		{ID: "early", Summary: jobs.Toraya, Start: time.Date(2026, 2, 2, 10, 0, 0, 0, jst), End: time.Date(2026, 2, 2, 12, 0, 0, 0, jst)},
		{ID: "holiday", Summary: "建国記念の日", AllDayStart: "2026-02-11", AllDayEnd: "2026-02-12"},
		// 2026-02-01 08:00 JST is still January in UTC
		{ID: "edge", Summary: jobs.Toraya, Start: time.Date(2026, 2, 1, 8, 0, 0, 0, jst), End: time.Date(2026, 2, 1, 8, 30, 0, 0, jst)},
	})
	require.NoError(t, err)

	from, to := payroll.NewMonth(2026, time.February).Range()
	events, err := s.ListEvents(ctx, from, to)
	require.NoError(t, err)

	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"early", "holiday", "late"}, ids)
	assert.True(t, events[1].AllDay())
	assert.Equal(t, "2026-02-11", events[1].AllDayStart)
}

func testReplaceEvents(t *testing.T, s store.Store) {
	ctx := context.Background()
	feb1 := calendar.Event{ID: "t1", Summary: jobs.Toraya, Start: time.Date(2026, 2, 7, 10, 0, 0, 0, jst), End: time.Date(2026, 2, 7, 18, 0, 0, 0, jst)}
	feb2 := calendar.Event{ID: "t2", Summary: jobs.Toraya, Start: time.Date(2026, 2, 8, 10, 0, 0, 0, jst), End: time.Date(2026, 2, 8, 14, 0, 0, 0, jst)}
	mar := calendar.Event{ID: "h1", Summary: jobs.Haluene, Start: time.Date(2026, 3, 2, 10, 0, 0, 0, jst), End: time.Date(2026, 3, 2, 15, 0, 0, 0, jst)}

	// GIVEN: Two February shifts and one in March
	_, err := s.SaveEvents(ctx, []calendar.Event{feb1, feb2, mar})
	require.NoError(t, err)

	// WHEN: February is replaced by a calendar that lost t2 and moved t1
	feb1.End = time.Date(2026, 2, 7, 16, 0, 0, 0, jst)
	from, to := payroll.NewMonth(2026, time.February).Range()
	saved, removed, err := s.ReplaceEvents(ctx, from, to, []calendar.Event{feb1})
	require.NoError(t, err)

	// THEN: t2 is gone, t1 is updated and March is untouched
	assert.Equal(t, 1, saved)
	assert.Equal(t, 1, removed)

	events, err := s.ListEvents(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "t1", events[0].ID)
	assert.Equal(t, 6*time.Hour, events[0].End.Sub(events[0].Start))

	marFrom, marTo := payroll.NewMonth(2026, time.March).Range()
	march, err := s.ListEvents(ctx, marFrom, marTo)
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, "h1", march[0].ID)

	// An empty calendar clears the range
	_, removed, err = s.ReplaceEvents(ctx, from, to, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	events, err = s.ListEvents(ctx, from, to)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func testRuns(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrRunNotFound)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.SaveRun(ctx, store.Run{
			ID:          id,
			Month:       payroll.NewMonth(2026, time.February),
			EventCount:  i + 1,
			TotalHours:  decimal.RequireFromString("19"),
			TotalSalary: decimal.NewFromInt(26834),
			ResultJSON:  `{"total_salary":"26834"}`,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	run, err := s.GetRun(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, payroll.NewMonth(2026, time.February), run.Month)
	assert.Equal(t, 2, run.EventCount)
	assert.True(t, run.TotalSalary.Equal(decimal.NewFromInt(26834)))
	assert.True(t, run.TotalHours.Equal(decimal.NewFromInt(19)))
	assert.JSONEq(t, `{"total_salary":"26834"}`, run.ResultJSON)
	assert.True(t, run.CreatedAt.Equal(base.Add(time.Minute)))

	recent, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3", recent[0].ID)
	assert.Equal(t, "r2", recent[1].ID)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
