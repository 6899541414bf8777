/*
Package calendar is the boundary with the calendar service that holds the
shifts.

PURPOSE:
  Shifts are entered as ordinary calendar events. This package decodes the
  calendar's events.list payload into Event values, filters them to a month
  the way the service's timeMin/timeMax query does, and hands them to the
  payroll core as payroll.ShiftEvent.

PAYLOAD:
  {
    "items": [
      {
        "id": "abc",
        "summary": "早稲アカ",
        "start": {"dateTime": "2026-02-03T16:00:00+09:00"},
        "end":   {"dateTime": "2026-02-03T21:30:00+09:00"}
      },
      {"summary": "休み", "start": {"date": "2026-02-11"}, "end": {"date": "2026-02-12"}}
    ]
  }

  Timed events carry dateTime (RFC 3339, "Z" or numeric offset). All-day
  events carry only date; they reach the core with zero timestamps and are
  rejected there only if their title names a job.

SOURCES:
  FileSource: An exported payload on disk
  HTTPSource: The live events.list endpoint
  store.Store implementations also satisfy Source for imported events.
*/
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// EVENT - One calendar entry as the service reports it
// =============================================================================

type Event struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time

	// AllDayStart / AllDayEnd hold "YYYY-MM-DD" for all-day events.
	AllDayStart string
	AllDayEnd   string

	// Recurrence holds RFC 5545 lines of a recurring master, see Expand.
	Recurrence []string
}

// AllDay reports whether the event has no clock times.
func (e Event) AllDay() bool { return e.Start.IsZero() && e.AllDayStart != "" }

// Overlaps reports whether the event intersects [from, to), matching the
// service's timeMin/timeMax filter.
func (e Event) Overlaps(from, to time.Time) bool {
	start, end := e.Start, e.End
	if e.AllDay() {
		var err error
		if start, err = time.Parse(time.DateOnly, e.AllDayStart); err != nil {
			return false
		}
		if end, err = time.Parse(time.DateOnly, e.AllDayEnd); err != nil {
			end = start.AddDate(0, 0, 1)
		}
	}
	return end.After(from) && start.Before(to)
}

// Shift converts the event for the payroll core.
func (e Event) Shift() payroll.ShiftEvent {
	return payroll.ShiftEvent{ID: e.ID, Title: e.Summary, Start: e.Start, End: e.End}
}

// Shifts converts a list of events.
func Shifts(events []Event) []payroll.ShiftEvent {
	out := make([]payroll.ShiftEvent, len(events))
	for i, e := range events {
		out[i] = e.Shift()
	}
	return out
}

// Source lists events intersecting [from, to), ordered by start.
type Source interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

type listResponse struct {
	Items         []itemJSON `json:"items"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

type itemJSON struct {
	ID         string        `json:"id,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	Start      eventTimeJSON `json:"start"`
	End        eventTimeJSON `json:"end"`
	Recurrence []string      `json:"recurrence,omitempty"`
}

type eventTimeJSON struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Decode reads an events.list payload. Items without a summary are dropped.
// A dateTime that is present but not RFC 3339 fails with a
// payroll.MalformedEventError.
func Decode(r io.Reader) ([]Event, error) {
	events, _, err := decodePage(r, nil)
	return events, err
}

// DecodeFor is Decode against a job configuration. An item whose timestamps
// do not parse is dropped unless its summary names a job; only those fail.
func DecodeFor(r io.Reader, cfg payroll.Config) ([]Event, error) {
	events, _, err := decodePage(r, cfg.Matches)
	return events, err
}

// decodePage decodes one page. A nil relevant treats every item as relevant.
func decodePage(r io.Reader, relevant func(summary string) bool) ([]Event, string, error) {
	var resp listResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, "", fmt.Errorf("decode calendar events: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for i, item := range resp.Items {
		if item.Summary == "" {
			continue
		}
		ev, err := item.toEvent()
		if err != nil {
			if relevant != nil && !relevant(item.Summary) {
				continue
			}
			return nil, "", &payroll.MalformedEventError{Index: i, Title: item.Summary, Reason: err.Error()}
		}
		events = append(events, ev)
	}
	return events, resp.NextPageToken, nil
}

func (item itemJSON) toEvent() (Event, error) {
	ev := Event{
		ID:          item.ID,
		Summary:     item.Summary,
		AllDayStart: item.Start.Date,
		AllDayEnd:   item.End.Date,
		Recurrence:  item.Recurrence,
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	var err error
	if item.Start.DateTime != "" {
		if ev.Start, err = time.Parse(time.RFC3339, item.Start.DateTime); err != nil {
			return Event{}, fmt.Errorf("start: %w", err)
		}
	}
	if item.End.DateTime != "" {
		if ev.End, err = time.Parse(time.RFC3339, item.End.DateTime); err != nil {
			return Event{}, fmt.Errorf("end: %w", err)
		}
	}
	return ev, nil
}

// Encode writes events in the events.list shape.
func Encode(w io.Writer, events []Event) error {
	resp := listResponse{Items: make([]itemJSON, 0, len(events))}
	for _, e := range events {
		item := itemJSON{ID: e.ID, Summary: e.Summary, Recurrence: e.Recurrence}
		if e.AllDay() {
			item.Start.Date, item.End.Date = e.AllDayStart, e.AllDayEnd
		} else {
			item.Start.DateTime = e.Start.Format(time.RFC3339)
			item.End.DateTime = e.End.Format(time.RFC3339)
		}
		resp.Items = append(resp.Items, item)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Filter keeps events intersecting [from, to) and orders them by start.
func Filter(events []Event, from, to time.Time) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Overlaps(from, to) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return sortKey(out[i]).Before(sortKey(out[j])) })
	return out
}

func sortKey(e Event) time.Time {
	if e.AllDay() {
		t, _ := time.Parse(time.DateOnly, e.AllDayStart)
		return t
	}
	return e.Start
}
