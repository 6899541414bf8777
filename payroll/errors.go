/*
errors.go - Error types for the payroll core

ERROR CATEGORIES:
  1. Event errors - A shift event cannot be used (MalformedEvent)
  2. Configuration errors - Unknown formula, bad names, wages or slots

No error here is retryable: the computation is pure, so the same inputs
fail the same way. Callers either get a complete Result or an error.

USAGE:
  if errors.Is(err, payroll.ErrMalformedEvent) {
      var me *payroll.MalformedEventError
      errors.As(err, &me) // me.Index, me.Title, me.Reason
  }
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedEvent is returned when an event has missing or unparseable
	// timestamps, or ends before it starts.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrUnknownFormula is returned when a job references a formula outside
	// the closed set. Reported before any aggregation begins.
	ErrUnknownFormula = errors.New("unknown formula")

	// ErrInvalidConfig is returned for structural configuration problems.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MalformedEventError identifies the offending event. Index is the event's
// position in the input slice, or -1 when unknown.
type MalformedEventError struct {
	Index  int
	Title  string
	Reason string
}

func (e *MalformedEventError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed event %q: %s", e.Title, e.Reason)
	}
	return fmt.Sprintf("malformed event #%d %q: %s", e.Index, e.Title, e.Reason)
}

func (e *MalformedEventError) Unwrap() error {
	return ErrMalformedEvent
}

// UnknownFormulaError names the job and the formula it asked for.
type UnknownFormulaError struct {
	Job     string
	Formula string
}

func (e *UnknownFormulaError) Error() string {
	if e.Job == "" {
		return fmt.Sprintf("unknown formula %q", e.Formula)
	}
	return fmt.Sprintf("unknown formula %q for job %q", e.Formula, e.Job)
}

func (e *UnknownFormulaError) Unwrap() error {
	return ErrUnknownFormula
}

// InvalidConfigError describes a configuration problem other than formulas.
type InvalidConfigError struct {
	Job    string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	if e.Job == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration for job %q: %s", e.Job, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error stems from caller-supplied input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, ErrUnknownFormula) ||
		errors.Is(err, ErrInvalidConfig)
}
