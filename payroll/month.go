package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - The payroll period
// =============================================================================

// Month is a calendar month. Ranges are half-open and expressed in UTC.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month { return Month{Year: year, Month: month} }

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month { return Month{Year: t.Year(), Month: t.Month()} }

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

func (m Month) Valid() bool { return m.Month >= time.January && m.Month <= time.December }

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// Next returns the following month; December rolls into January.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Prev returns the preceding month; January rolls back to December.
func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Range returns [first instant of m, first instant of the next month).
func (m Month) Range() (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// QueryRange returns the range as ISO-8601 strings with a Z suffix, the form
// calendar list queries expect for timeMin/timeMax.
func (m Month) QueryRange() (string, string) {
	start, end := m.Range()
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}

// Contains reports whether t falls inside the month's range.
func (m Month) Contains(t time.Time) bool {
	start, end := m.Range()
	return !t.Before(start) && t.Before(end)
}

// MonthRange is Month.QueryRange for a bare (year, month) pair.
func MonthRange(year int, month time.Month) (string, string) {
	return NewMonth(year, month).QueryRange()
}
