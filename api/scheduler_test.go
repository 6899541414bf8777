package api_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/shift-payroll/api"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store/memory"
)

// stubSource records the ranges it was asked for.
type stubSource struct {
	mu     sync.Mutex
	events []calendar.Event
	err    error
	calls  [][2]time.Time
	called chan struct{}
}

func (s *stubSource) ListEvents(_ context.Context, from, to time.Time) ([]calendar.Event, error) {
	s.mu.Lock()
	s.calls = append(s.calls, [2]time.Time{from, to})
	s.mu.Unlock()
	if s.called != nil {
		select {
		case s.called <- struct{}{}:
		default:
		}
	}
	return s.events, s.err
}

func TestCalendarSync_RunNow(t *testing.T) {
	// GIVEN: A calendar with one shop shift
	jst := time.FixedZone("JST", 9*60*60)
	src := &stubSource{events: []calendar.Event{{
		ID:      "t1",
		Summary: jobs.Toraya,
		Start:   time.Date(2026, 3, 7, 10, 0, 0, 0, jst),
		End:     time.Date(2026, 3, 7, 18, 0, 0, 0, jst),
	}}}
	st := memory.New()
	cs := api.NewCalendarSync(st, src, zap.NewNop())
	cs.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	// WHEN: Syncing in March
	n, err := cs.RunNow(context.Background())

	// THEN: February and March are requested and the event is stored
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, src.calls, 1)
	febStart, _ := payroll.NewMonth(2026, time.February).Range()
	_, marEnd := payroll.NewMonth(2026, time.March).Range()
	assert.Equal(t, febStart, src.calls[0][0])
	assert.Equal(t, marEnd, src.calls[0][1])

	from, to := payroll.NewMonth(2026, time.March).Range()
	stored, err := st.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "t1", stored[0].ID)
}

func TestCalendarSync_DeletedShiftStopsCounting(t *testing.T) {
	// GIVEN: Two shop shifts synced from the calendar
	jst := time.FixedZone("JST", 9*60*60)
	shifts := []calendar.Event{
		{ID: "t1", Summary: jobs.Toraya, Start: time.Date(2026, 3, 7, 10, 0, 0, 0, jst), End: time.Date(2026, 3, 7, 18, 0, 0, 0, jst)},
		{ID: "t2", Summary: jobs.Toraya, Start: time.Date(2026, 3, 8, 10, 0, 0, 0, jst), End: time.Date(2026, 3, 8, 14, 0, 0, 0, jst)},
	}
	src := &stubSource{events: shifts}
	st := memory.New()
	cs := api.NewCalendarSync(st, src, zap.NewNop())
	cs.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	_, err := cs.RunNow(context.Background())
	require.NoError(t, err)

	// WHEN: One shift is deleted from the calendar and the sync runs again
	src.events = shifts[:1]
	_, err = cs.RunNow(context.Background())
	require.NoError(t, err)

	// THEN: Only the remaining shift is paid
	from, to := payroll.NewMonth(2026, time.March).Range()
	stored, err := st.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	res, err := payroll.Calculate(2026, time.March, calendar.Shifts(stored), jobs.Default())
	require.NoError(t, err)
	toraya, _ := res.Job(jobs.Toraya)
	assert.Equal(t, 1, toraya.ShiftCount)
	// (8h - 0.5h) x 1250 + 292
	assert.True(t, toraya.Salary.Equal(decimal.NewFromInt(9667)), toraya.Salary.String())
}

func TestCalendarSync_SourceError(t *testing.T) {
	src := &stubSource{err: errors.New("calendar unavailable")}
	cs := api.NewCalendarSync(memory.New(), src, zap.NewNop())

	_, err := cs.RunNow(context.Background())
	assert.ErrorContains(t, err, "calendar unavailable")
}

func TestCalendarSync_StartRunsImmediately(t *testing.T) {
	src := &stubSource{called: make(chan struct{}, 1)}
	cs := api.NewCalendarSync(memory.New(), src, zap.NewNop())
	cs.CheckInterval = time.Hour

	cs.Start()
	defer cs.Stop()

	select {
	case <-src.called:
	case <-time.After(5 * time.Second):
		t.Fatal("sync did not run on start")
	}
}

func TestCalendarSync_Disabled(t *testing.T) {
	src := &stubSource{}
	cs := api.NewCalendarSync(memory.New(), src, zap.NewNop())
	cs.Enabled = false

	cs.Start()
	cs.Stop()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Empty(t, src.calls)
}
