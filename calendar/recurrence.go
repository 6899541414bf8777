package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/warp/shift-payroll/payroll"
)

// instanceIDLayout matches the suffix the calendar service gives expanded
// instances of a recurring event.
const instanceIDLayout = "20060102T150405Z"

// Recurring reports whether the event is a recurring master.
func (e Event) Recurring() bool {
	return len(e.Recurrence) > 0
}

// Expand replaces each recurring master with its instances intersecting
// [from, to). Single events pass through untouched, in place. Only RRULE
// lines are honoured; EXDATE and RDATE are ignored.
//
// A zero from expands from each master's own start.
func Expand(events []Event, from, to time.Time) ([]Event, error) {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !e.Recurring() {
			out = append(out, e)
			continue
		}
		instances, err := e.instances(from, to)
		if err != nil {
			return nil, &payroll.MalformedEventError{Index: -1, Title: e.Summary, Reason: err.Error()}
		}
		out = append(out, instances...)
	}
	return out, nil
}

func (e Event) instances(from, to time.Time) ([]Event, error) {
	start, end := e.Start, e.End
	if e.AllDay() {
		var err error
		if start, err = time.Parse(time.DateOnly, e.AllDayStart); err != nil {
			return nil, fmt.Errorf("recurrence: start date: %w", err)
		}
		if end, err = time.Parse(time.DateOnly, e.AllDayEnd); err != nil {
			end = start.AddDate(0, 0, 1)
		}
	}
	if start.IsZero() {
		return nil, fmt.Errorf("recurrence: missing start")
	}
	dur := end.Sub(start)

	var out []Event
	for _, line := range e.Recurrence {
		rule, ok := strings.CutPrefix(strings.TrimSpace(line), "RRULE:")
		if !ok {
			continue
		}
		rr, err := rrule.StrToRRule(rule)
		if err != nil {
			return nil, fmt.Errorf("recurrence: %w", err)
		}
		rr.DTStart(start)

		after := start
		if !from.IsZero() {
			after = from.Add(-dur)
		}
		for _, occ := range rr.Between(after, to, true) {
			inst := Event{
				ID:      e.ID + "_" + occ.UTC().Format(instanceIDLayout),
				Summary: e.Summary,
			}
			if e.AllDay() {
				inst.AllDayStart = occ.Format(time.DateOnly)
				inst.AllDayEnd = occ.Add(dur).Format(time.DateOnly)
			} else {
				inst.Start, inst.End = occ, occ.Add(dur)
			}
			if inst.Overlaps(from, to) {
				out = append(out, inst)
			}
		}
	}
	return out, nil
}
