/*
Package jobs holds the reference deployment: three part-time employers and
the cram school's daily koma schedule.

AVAILABLE JOBS:
  早稲アカ (Waseaka): cram school, paid per koma (slot_based), 1410/h
  とらや   (Toraya):  shop, hourly with a 30 min unpaid break (hourly_minus_break), 1250/h
  ハルエネ (Haluene): call work, plain hourly (flat_hourly), 1500/h

Names are matched as substrings of calendar event titles, so a shift titled
"早稲アカ 授業" counts for 早稲アカ.

USAGE:
  cfg := jobs.Default()                 // payroll.Config
  cfg, _ = cfg.WithWage(jobs.Toraya, decimal.NewFromInt(1300))

SEE ALSO:
  - payroll/formula.go: The formulas referenced here
  - factory/jobs.go: JSON/YAML configuration of the same data
*/
package jobs

import (
	"github.com/shopspring/decimal"

	"github.com/warp/shift-payroll/payroll"
)

// =============================================================================
// EMPLOYERS
// =============================================================================

const (
	Waseaka = "早稲アカ"
	Toraya  = "とらや"
	Haluene = "ハルエネ"
)

// Display metadata used by reports. Core fonts in PDFs cannot render the
// Japanese names, hence the labels.
var (
	Labels = map[string]string{
		Waseaka: "Waseaka",
		Toraya:  "Toraya",
		Haluene: "Haluene",
	}
	Colors = map[string]string{
		Waseaka: "#ff4500",
		Toraya:  "#008000",
		Haluene: "#9932cc",
	}
)

// DefaultColor is used for jobs without an assigned colour.
const DefaultColor = "#cccccc"

// =============================================================================
// KOMA SCHEDULE
// =============================================================================

// Slots returns the six daily koma of the slot-based employer.
func Slots() payroll.SlotSchedule {
	return payroll.SlotSchedule{
		{Name: "Y", Start: payroll.MustClock("10:40"), End: payroll.MustClock("12:10")},
		{Name: "Z", Start: payroll.MustClock("12:20"), End: payroll.MustClock("13:50")},
		{Name: "A", Start: payroll.MustClock("15:00"), End: payroll.MustClock("16:30")},
		{Name: "B", Start: payroll.MustClock("16:40"), End: payroll.MustClock("18:10")},
		{Name: "C", Start: payroll.MustClock("18:20"), End: payroll.MustClock("19:50")},
		{Name: "D", Start: payroll.MustClock("20:00"), End: payroll.MustClock("21:30")},
	}
}

// Default returns a fresh copy of the reference configuration. Callers may
// change wages on their copy without affecting later calls.
func Default() payroll.Config {
	return payroll.Config{
		Jobs: []payroll.Job{
			{Name: Waseaka, Wage: decimal.NewFromInt(1410), Formula: payroll.FormulaSlotBased},
			{Name: Toraya, Wage: decimal.NewFromInt(1250), Formula: payroll.FormulaHourlyMinusBreak},
			{Name: Haluene, Wage: decimal.NewFromInt(1500), Formula: payroll.FormulaFlatHourly},
		},
		Slots: Slots(),
	}
}

// Label returns the ASCII display label for a job, falling back to its name.
func Label(name string) string {
	if l, ok := Labels[name]; ok {
		return l
	}
	return name
}

// Color returns the chart colour for a job.
func Color(name string) string {
	if c, ok := Colors[name]; ok {
		return c
	}
	return DefaultColor
}
