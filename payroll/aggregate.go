package payroll

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SHIFT CLASSIFIER & AGGREGATOR
// =============================================================================

// AggregateShifts folds events into per-job totals.
//
// Classification is a substring match of each job name against the event
// title, in configuration order. It does not stop at the first match: a
// title containing two job names counts for both. Zero-length shifts count
// as a shift with 0 hours. Events that match a job must have both timestamps
// and must not end before they start, otherwise the whole fold fails.
// Events matching no job are never inspected.
//
// Every configured job has an entry in the returned map, including jobs with
// no shifts.
func AggregateShifts(events []ShiftEvent, cfg Config) (map[string]Aggregate, error) {
	aggs := make(map[string]Aggregate, len(cfg.Jobs))
	for _, job := range cfg.Jobs {
		aggs[job.Name] = Aggregate{TotalHours: decimal.Zero}
	}

	for i, ev := range events {
		if ev.Title == "" {
			continue
		}
		matched := matchJobs(ev.Title, cfg.Jobs)
		if len(matched) == 0 {
			continue
		}
		if err := checkEvent(i, ev); err != nil {
			return nil, err
		}

		hours := ev.Hours()
		slots := -1

		for _, job := range matched {
			agg := aggs[job.Name]
			agg.ShiftCount++
			agg.TotalHours = agg.TotalHours.Add(hours)
			if job.Formula == FormulaSlotBased {
				if slots < 0 {
					slots = OverlappingSlots(ev.Start, ev.End, cfg.Slots)
				}
				agg.SlotCount += slots
			}
			aggs[job.Name] = agg
		}
	}
	return aggs, nil
}

// Matches reports whether title names at least one configured job.
func (c Config) Matches(title string) bool {
	return title != "" && len(matchJobs(title, c.Jobs)) > 0
}

// matchJobs returns every job whose name appears in title, in order.
func matchJobs(title string, jobs []Job) []Job {
	var matched []Job
	for _, job := range jobs {
		if strings.Contains(title, job.Name) {
			matched = append(matched, job)
		}
	}
	return matched
}

func checkEvent(i int, ev ShiftEvent) error {
	switch {
	case ev.Start.IsZero():
		return &MalformedEventError{Index: i, Title: ev.Title, Reason: "missing start"}
	case ev.End.IsZero():
		return &MalformedEventError{Index: i, Title: ev.Title, Reason: "missing end"}
	case ev.End.Before(ev.Start):
		return &MalformedEventError{Index: i, Title: ev.Title, Reason: "ends before it starts"}
	}
	return nil
}
