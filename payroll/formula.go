package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// FORMULA - Closed set of salary formulas
// =============================================================================

// Formula selects how an employer's monthly salary is computed. The set is
// fixed; adding a formula is a code change, not configuration.
type Formula string

const (
	// FormulaSlotBased pays per koma at 1.5x wage plus per-koma and per-day allowances.
	FormulaSlotBased Formula = "slot_based"

	// FormulaHourlyMinusBreak pays hours minus a 30 minute break per shift, plus a per-day allowance.
	FormulaHourlyMinusBreak Formula = "hourly_minus_break"

	// FormulaFlatHourly pays all hours plus a per-day allowance.
	FormulaFlatHourly Formula = "flat_hourly"
)

// Formulas lists the closed set in a stable order.
var Formulas = []Formula{FormulaSlotBased, FormulaHourlyMinusBreak, FormulaFlatHourly}

// Valid reports whether f is one of the known formulas.
func (f Formula) Valid() bool {
	switch f {
	case FormulaSlotBased, FormulaHourlyMinusBreak, FormulaFlatHourly:
		return true
	}
	return false
}

// ParseFormula converts a configuration string into a Formula.
func ParseFormula(s string) (Formula, error) {
	f := Formula(s)
	if !f.Valid() {
		return "", &UnknownFormulaError{Formula: s}
	}
	return f, nil
}

// Business constants of the reference deployment.
var (
	slotWageMultiplier = decimal.RequireFromString("1.5")
	slotDayAllowance   = decimal.NewFromInt(425)
	slotAllowance      = decimal.NewFromInt(215)

	breakHoursPerShift = decimal.RequireFromString("0.5")
	breakDayAllowance  = decimal.NewFromInt(292)

	flatDayAllowance = decimal.NewFromInt(376)
)

// =============================================================================
// FORMULA ENGINE
// =============================================================================

// salaryPlaces bounds salaries to micro-yen. Hours are a 16 digit quotient,
// so 20 minutes at 1500 would otherwise pay 499.99999999999995.
const salaryPlaces = 6

// ComputeSalary applies the job's formula to its monthly aggregate and rounds
// the result half away from zero to salaryPlaces.
// hourly_minus_break may go negative when shifts are shorter than the break;
// that is returned as is.
func ComputeSalary(job Job, agg Aggregate) (decimal.Decimal, error) {
	shifts := decimal.NewFromInt(int64(agg.ShiftCount))
	slots := decimal.NewFromInt(int64(agg.SlotCount))

	var salary decimal.Decimal
	switch job.Formula {
	case FormulaSlotBased:
		// slots × (wage × 1.5) + 425 × shifts + slots × 215
		slotWage := job.Wage.Mul(slotWageMultiplier)
		salary = slots.Mul(slotWage).
			Add(slotDayAllowance.Mul(shifts)).
			Add(slots.Mul(slotAllowance))

	case FormulaHourlyMinusBreak:
		// (hours − 0.5 × shifts) × wage + 292 × shifts
		paidHours := agg.TotalHours.Sub(breakHoursPerShift.Mul(shifts))
		salary = paidHours.Mul(job.Wage).Add(breakDayAllowance.Mul(shifts))

	case FormulaFlatHourly:
		// hours × wage + 376 × shifts
		salary = agg.TotalHours.Mul(job.Wage).Add(flatDayAllowance.Mul(shifts))

	default:
		return decimal.Zero, &UnknownFormulaError{Job: job.Name, Formula: string(job.Formula)}
	}
	return salary.Round(salaryPlaces), nil
}
