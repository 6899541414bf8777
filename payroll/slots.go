package payroll

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CLOCK TIME - Wall-clock HH:MM without a date
// =============================================================================

type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (ClockTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ClockTime{}, fmt.Errorf("clock time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("clock time %q: bad hour", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q: bad minute", s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// MustClock is ParseClock for constants. Panics on bad input.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }
func (c ClockTime) Before(o ClockTime) bool { return c.Minutes() < o.Minutes() }
func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// On replaces the hour and minute of t, keeping its date, seconds,
// sub-seconds and location.
func (c ClockTime) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, t.Second(), t.Nanosecond(), t.Location())
}

// =============================================================================
// SLOT SCHEDULE - Fixed daily koma for the slot-based employer
// =============================================================================

type Slot struct {
	Name  string
	Start ClockTime
	End   ClockTime
}

// SlotSchedule is ordered by start time and non-overlapping.
type SlotSchedule []Slot

// Validate checks ordering, non-overlap and that each slot ends after it starts.
func (s SlotSchedule) Validate() error {
	for i, slot := range s {
		if slot.Name == "" {
			return &InvalidConfigError{Reason: fmt.Sprintf("slot #%d has no name", i)}
		}
		if !slot.Start.Before(slot.End) {
			return &InvalidConfigError{Reason: fmt.Sprintf("slot %s ends before it starts", slot.Name)}
		}
		if i > 0 && slot.Start.Before(s[i-1].End) {
			return &InvalidConfigError{Reason: fmt.Sprintf("slot %s overlaps or precedes slot %s", slot.Name, s[i-1].Name)}
		}
	}
	return nil
}

// Window returns the slot's boundaries anchored to the calendar day of
// anchor. Only hour and minute change; anchor's seconds and location carry
// over.
func (slot Slot) Window(anchor time.Time) (time.Time, time.Time) {
	return slot.Start.On(anchor), slot.End.On(anchor)
}

// MatchSlots returns the slots a shift overlaps. Windows are always derived
// from the shift's start date, even for shifts that cross midnight. Overlap
// is open-interval: a shift ending exactly at a slot's start does not count.
func MatchSlots(start, end time.Time, schedule SlotSchedule) []Slot {
	var matched []Slot
	for _, slot := range schedule {
		winStart, winEnd := slot.Window(start)
		if start.Before(winEnd) && end.After(winStart) {
			matched = append(matched, slot)
		}
	}
	return matched
}

// OverlappingSlots counts the slots a shift overlaps.
func OverlappingSlots(start, end time.Time, schedule SlotSchedule) int {
	return len(MatchSlots(start, end, schedule))
}
