/*
Package payroll computes monthly part-time wages from calendar shifts.

PURPOSE:
  This package is the pure computation core. It receives already-retrieved
  calendar events (one per worked shift), classifies them by employer,
  aggregates hours, shift counts and slot ("koma") counts, then applies the
  employer's salary formula. Calendar I/O, storage and rendering live in
  other packages.

KEY CONCEPTS IN THIS FILE (types.go):
  - ShiftEvent: A calendar event carrying a title and start/end timestamps
  - Job: One employer with its hourly wage and formula
  - Config: The ordered employer configuration plus the slot schedule
  - Aggregate: Per-employer running totals for one month
  - Result: The immutable monthly payroll breakdown

DESIGN PRINCIPLES:
  1. No state: every Calculate call is independent and idempotent
  2. Precision: decimal.Decimal for hours and money so totals add up exactly
  3. Closed formula set: Formula is an enum, evaluated with an exhaustive switch
  4. Loud failures: malformed events abort the month, no partial results

USAGE:
  cfg := jobs.Default()
  result, err := payroll.Calculate(2026, time.February, events, cfg)

SEE ALSO:
  - slots.go: Slot overlap resolver
  - aggregate.go: Shift classifier & aggregator
  - formula.go: Payroll formula engine
  - calculate.go: Top-level monthly computation
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SHIFT EVENT - External input from the calendar collaborator
// =============================================================================

// ShiftEvent is one calendar event. Events with an empty Title are ignored.
type ShiftEvent struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (e ShiftEvent) Duration() time.Duration { return e.End.Sub(e.Start) }

// Hours returns the duration as fractional hours.
func (e ShiftEvent) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(e.Duration())).Div(decimal.NewFromInt(int64(time.Hour)))
}

// =============================================================================
// EMPLOYER CONFIGURATION
// =============================================================================

// Job is a single employer. Name doubles as the title keyword.
type Job struct {
	Name    string
	Wage    decimal.Decimal
	Formula Formula
}

// Config is the caller-owned employer configuration. Jobs are evaluated in
// slice order. Calculate treats it as read-only.
type Config struct {
	Jobs  []Job
	Slots SlotSchedule
}

// Job returns the job with the given name.
func (c Config) Job(name string) (Job, bool) {
	for _, j := range c.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

// WithWage returns a copy of the configuration with one job's wage replaced.
// The receiver is left untouched.
func (c Config) WithWage(name string, wage decimal.Decimal) (Config, error) {
	if wage.IsNegative() {
		return c, &InvalidConfigError{Job: name, Reason: "wage must not be negative"}
	}
	out := c.Clone()
	for i := range out.Jobs {
		if out.Jobs[i].Name == name {
			out.Jobs[i].Wage = wage
			return out, nil
		}
	}
	return c, &InvalidConfigError{Job: name, Reason: "unknown job"}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := Config{
		Jobs:  make([]Job, len(c.Jobs)),
		Slots: make(SlotSchedule, len(c.Slots)),
	}
	copy(out.Jobs, c.Jobs)
	copy(out.Slots, c.Slots)
	return out
}

// Validate checks names, wages, formulas and the slot schedule. Formula
// errors are reported as UnknownFormulaError.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Jobs))
	for _, j := range c.Jobs {
		if j.Name == "" {
			return &InvalidConfigError{Reason: "job name must not be empty"}
		}
		if seen[j.Name] {
			return &InvalidConfigError{Job: j.Name, Reason: "duplicate job name"}
		}
		seen[j.Name] = true
		if !j.Formula.Valid() {
			return &UnknownFormulaError{Job: j.Name, Formula: string(j.Formula)}
		}
		if j.Wage.IsNegative() {
			return &InvalidConfigError{Job: j.Name, Reason: "wage must not be negative"}
		}
	}
	return c.Slots.Validate()
}

// =============================================================================
// AGGREGATE - Per-employer running totals for one month
// =============================================================================

// Aggregate is created fresh per calculation and discarded afterwards.
// SlotCount is only meaningful for FormulaSlotBased.
type Aggregate struct {
	TotalHours decimal.Decimal
	ShiftCount int
	SlotCount  int
}

// =============================================================================
// RESULT - Monthly payroll breakdown
// =============================================================================

// JobResult is one employer's line in the result.
type JobResult struct {
	Name       string
	Formula    Formula
	Wage       decimal.Decimal
	Hours      decimal.Decimal
	ShiftCount int
	SlotCount  int
	Salary     decimal.Decimal
}

// Result is produced once per Calculate call and never mutated afterwards.
type Result struct {
	Month       Month
	RangeStart  time.Time
	RangeEnd    time.Time
	Jobs        []JobResult // configuration order
	TotalHours  decimal.Decimal
	TotalSalary decimal.Decimal
}

// Job returns the line for the named employer.
func (r *Result) Job(name string) (JobResult, bool) {
	for _, j := range r.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return JobResult{}, false
}
