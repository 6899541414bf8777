package calendar_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
)

const export = `{
  "items": [
    {"id": "e3", "summary": "とらや", "start": {"dateTime": "2026-02-07T10:00:00+09:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}},
    {"id": "e1", "summary": "早稲アカ", "start": {"dateTime": "2026-02-03T07:00:00Z"}, "end": {"dateTime": "2026-02-03T12:30:00Z"}},
    {"id": "e2", "start": {"dateTime": "2026-02-04T10:00:00+09:00"}, "end": {"dateTime": "2026-02-04T11:00:00+09:00"}},
    {"id": "e4", "summary": "建国記念の日", "start": {"date": "2026-02-11"}, "end": {"date": "2026-02-12"}},
    {"id": "e5", "summary": "ハルエネ", "start": {"dateTime": "2026-03-02T10:00:00+09:00"}, "end": {"dateTime": "2026-03-02T15:00:00+09:00"}}
  ]
}`

func TestDecode(t *testing.T) {
	events, err := calendar.Decode(strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, events, 4, "item without summary is dropped")

	assert.Equal(t, "e3", events[0].ID)
	assert.Equal(t, 8*time.Hour, events[0].End.Sub(events[0].Start))

	// "Z" timestamps parse as UTC
	assert.Equal(t, time.UTC, events[1].Start.Location())
	assert.Equal(t, 7, events[1].Start.Hour())

	assert.True(t, events[2].AllDay())
	assert.True(t, events[2].Start.IsZero())
}

func TestDecode_UnparseableTimestamp(t *testing.T) {
	doc := `{"items": [{"summary": "とらや", "start": {"dateTime": "2026-02-07 10:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}}]}`

	_, err := calendar.Decode(strings.NewReader(doc))
	assert.ErrorIs(t, err, payroll.ErrMalformedEvent)
}

func TestDecodeFor_OnlyJobEntriesMustParse(t *testing.T) {
	doc := `{"items": [
		{"id": "x1", "summary": "歯医者", "start": {"dateTime": "2026-02-09 15:00"}, "end": {"dateTime": "2026-02-09T16:00:00+09:00"}},
		{"id": "t1", "summary": "とらや", "start": {"dateTime": "2026-02-07T10:00:00+09:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}}
	]}`

	// A private entry with a broken timestamp is skipped
	events, err := calendar.DecodeFor(strings.NewReader(doc), jobs.Default())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "t1", events[0].ID)

	// Decode without a configuration stays strict
	_, err = calendar.Decode(strings.NewReader(doc))
	assert.ErrorIs(t, err, payroll.ErrMalformedEvent)

	// A job entry with a broken timestamp still fails, at its index
	bad := `{"items": [{"summary": "x"}, {"summary": "とらや 早番", "start": {"dateTime": "soon"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}}]}`
	_, err = calendar.DecodeFor(strings.NewReader(bad), jobs.Default())
	var malformed *payroll.MalformedEventError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, malformed.Index)
}

func TestFileSource_WithJobsSkipsPrivateEntries(t *testing.T) {
	doc := `{"items": [
		{"id": "x1", "summary": "歯医者", "start": {"dateTime": "bad"}, "end": {"dateTime": "bad"}},
		{"id": "t1", "summary": "とらや", "start": {"dateTime": "2026-02-07T10:00:00+09:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}}
	]}`
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg := jobs.Default()
	from, to := payroll.NewMonth(2026, time.February).Range()
	events, err := calendar.FileSource{Path: path, Jobs: &cfg}.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "t1", events[0].ID)
}

func TestDecode_AssignsMissingIDs(t *testing.T) {
	doc := `{"items": [{"summary": "とらや", "start": {"dateTime": "2026-02-07T10:00:00+09:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}}]}`

	events, err := calendar.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.NotEmpty(t, events[0].ID)
}

func TestFilter_MonthRangeAndOrder(t *testing.T) {
	events, err := calendar.Decode(strings.NewReader(export))
	require.NoError(t, err)

	from, to := payroll.NewMonth(2026, time.February).Range()
	feb := calendar.Filter(events, from, to)

	var ids []string
	for _, e := range feb {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"e1", "e3", "e4"}, ids)
}

func TestAllDayEventNamingAJobIsMalformed(t *testing.T) {
	// GIVEN: An all-day entry whose title names an employer
	// THEN: The core rejects it, since it has no shift times

	doc := `{"items": [{"summary": "ハルエネ 研修", "start": {"date": "2026-02-11"}, "end": {"date": "2026-02-12"}}]}`
	events, err := calendar.Decode(strings.NewReader(doc))
	require.NoError(t, err)

	_, err = payroll.Calculate(2026, time.February, calendar.Shifts(events), jobs.Default())
	assert.ErrorIs(t, err, payroll.ErrMalformedEvent)
}

func TestEncode_RoundTrip(t *testing.T) {
	events, err := calendar.Decode(strings.NewReader(export))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, calendar.Encode(&buf, events))

	again, err := calendar.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, again, len(events))
	for i := range events {
		assert.Equal(t, events[i].ID, again[i].ID)
		assert.True(t, events[i].Start.Equal(again[i].Start))
		assert.Equal(t, events[i].AllDayStart, again[i].AllDayStart)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o600))

	from, to := payroll.NewMonth(2026, time.March).Range()
	events, err := calendar.FileSource{Path: path}.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e5", events[0].ID)
}

func TestQuery(t *testing.T) {
	q := calendar.Query(payroll.NewMonth(2026, time.February))
	assert.Equal(t, "2026-02-01T00:00:00Z", q.Get("timeMin"))
	assert.Equal(t, "2026-03-01T00:00:00Z", q.Get("timeMax"))
	assert.Equal(t, "true", q.Get("singleEvents"))
	assert.Equal(t, "startTime", q.Get("orderBy"))
}

func TestHTTPSource_Pagination(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-02-01T00:00:00Z", r.URL.Query().Get("timeMin"))

		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"items": [{"id": "a", "summary": "とらや", "start": {"dateTime": "2026-02-07T10:00:00+09:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}}], "nextPageToken": "p2"}`)
			return
		}
		fmt.Fprint(w, `{"items": [{"id": "b", "summary": "ハルエネ", "start": {"dateTime": "2026-02-08T10:00:00+09:00"}, "end": {"dateTime": "2026-02-08T12:00:00+09:00"}}]}`)
	}))
	defer srv.Close()

	src := calendar.HTTPSource{BaseURL: srv.URL, AccessToken: "tok", Client: srv.Client()}
	from, to := payroll.NewMonth(2026, time.February).Range()

	events, err := src.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, events, 2)
	assert.Equal(t, "b", events[1].ID)
}

func TestHTTPSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	from, to := payroll.NewMonth(2026, time.February).Range()
	_, err := calendar.HTTPSource{BaseURL: srv.URL}.ListEvents(context.Background(), from, to)
	assert.Error(t, err)
}

func TestHTTPSource_RetriesTransientStatus(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"items": [{"id": "a", "summary": "とらや", "start": {"dateTime": "2026-02-07T10:00:00+09:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}}]}`)
	}))
	defer srv.Close()

	src := calendar.HTTPSource{
		BaseURL: srv.URL,
		Backoff: func() retry.Backoff { return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond)) },
	}
	from, to := payroll.NewMonth(2026, time.February).Range()

	events, err := src.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, events, 1)
}

func TestHTTPSource_GivesUpAfterRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := calendar.HTTPSource{
		BaseURL: srv.URL,
		Backoff: func() retry.Backoff { return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond)) },
	}
	from, to := payroll.NewMonth(2026, time.February).Range()

	_, err := src.ListEvents(context.Background(), from, to)
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

const recurring = `{
  "items": [
    {
      "id": "weekly",
      "summary": "早稲アカ",
      "start": {"dateTime": "2026-01-27T16:00:00+09:00"},
      "end": {"dateTime": "2026-01-27T21:30:00+09:00"},
      "recurrence": ["RRULE:FREQ=WEEKLY;COUNT=6"]
    },
    {"id": "single", "summary": "とらや", "start": {"dateTime": "2026-02-07T10:00:00+09:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}}
  ]
}`

func TestExpand_WeeklyShift(t *testing.T) {
	// GIVEN: A weekly cram-school shift starting late January
	events, err := calendar.Decode(strings.NewReader(recurring))
	require.NoError(t, err)
	require.True(t, events[0].Recurring())

	// WHEN: It is expanded over February
	from, to := payroll.NewMonth(2026, time.February).Range()
	expanded, err := calendar.Expand(events, from, to)
	require.NoError(t, err)

	// THEN: Four February Tuesdays plus the single event remain
	require.Len(t, expanded, 5)
	assert.Equal(t, "weekly_20260203T070000Z", expanded[0].ID)
	assert.Equal(t, "single", expanded[4].ID)

	// AND: Instances keep the local offset, so koma still resolve per local day
	first := expanded[0]
	_, offset := first.Start.Zone()
	assert.Equal(t, 9*60*60, offset)
	assert.Equal(t, 4, payroll.OverlappingSlots(first.Start, first.End, jobs.Slots()))

	res, err := payroll.Calculate(2026, time.February, calendar.Shifts(expanded), jobs.Default())
	require.NoError(t, err)
	wa, ok := res.Job(jobs.Waseaka)
	require.True(t, ok)
	assert.Equal(t, 4, wa.ShiftCount)
	assert.Equal(t, 16, wa.SlotCount)
}

func TestExpand_WithoutLowerBound(t *testing.T) {
	events, err := calendar.Decode(strings.NewReader(recurring))
	require.NoError(t, err)

	expanded, err := calendar.Expand(events, time.Time{}, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, expanded, 7, "all six occurrences plus the single event")
}

func TestExpand_InvalidRule(t *testing.T) {
	e := calendar.Event{
		ID:         "bad",
		Summary:    jobs.Toraya,
		Start:      time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC),
		Recurrence: []string{"RRULE:FREQ=SOMETIMES"},
	}
	from, to := payroll.NewMonth(2026, time.February).Range()

	_, err := calendar.Expand([]calendar.Event{e}, from, to)
	assert.ErrorIs(t, err, payroll.ErrMalformedEvent)
}

func TestFileSource_ExpandsRecurring(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte(recurring), 0o600))

	from, to := payroll.NewMonth(2026, time.March).Range()
	events, err := calendar.FileSource{Path: path}.ListEvents(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "weekly_20260303T070000Z", events[0].ID)
}
