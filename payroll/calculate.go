package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Calculate computes the payroll for one month.
//
// The configuration is validated first, so an unknown formula fails before
// any event is looked at. Events are expected to be pre-filtered to the
// month by the calendar collaborator; Calculate does not filter them again.
// On error no Result is returned.
func Calculate(year int, month time.Month, events []ShiftEvent, cfg Config) (*Result, error) {
	m := NewMonth(year, month)
	if !m.Valid() {
		return nil, &InvalidConfigError{Reason: fmt.Sprintf("month %d out of range", int(month))}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aggs, err := AggregateShifts(events, cfg)
	if err != nil {
		return nil, err
	}

	start, end := m.Range()
	result := &Result{
		Month:       m,
		RangeStart:  start,
		RangeEnd:    end,
		Jobs:        make([]JobResult, 0, len(cfg.Jobs)),
		TotalHours:  decimal.Zero,
		TotalSalary: decimal.Zero,
	}

	for _, job := range cfg.Jobs {
		agg := aggs[job.Name]
		salary, err := ComputeSalary(job, agg)
		if err != nil {
			return nil, err
		}
		line := JobResult{
			Name:       job.Name,
			Formula:    job.Formula,
			Wage:       job.Wage,
			Hours:      agg.TotalHours,
			ShiftCount: agg.ShiftCount,
			SlotCount:  agg.SlotCount,
			Salary:     salary,
		}
		result.Jobs = append(result.Jobs, line)
		result.TotalHours = result.TotalHours.Add(line.Hours)
		result.TotalSalary = result.TotalSalary.Add(line.Salary)
	}

	return result, nil
}
