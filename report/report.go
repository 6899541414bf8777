/*
Package report turns a payroll.Result into what people read: formatted
amounts, per-job salary shares, a plain-text summary, a pie chart and a
payslip PDF.

FORMATTING:
  Hours:  Two decimals, "19.00"
  Yen:    Rounded half-to-even to whole yen with digit grouping, "26,834"
  Koma:   Shown only for slot-based jobs

SHARES:
  Each job's fraction of the month's total salary, in configuration order,
  with its display label and colour. A month whose total is not positive
  has no shares (there is nothing to chart).

SEE ALSO:
  - jobs/jobs.go: Labels and colours
  - report/chart.go: Pie chart PNG
  - report/payslip.go: Payslip PDF
*/
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
)

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.Japanese)
)

// FormatHours renders hours with two decimals.
func FormatHours(h decimal.Decimal) string {
	return h.StringFixedBank(2)
}

// FormatYen renders an amount as whole yen with digit grouping.
func FormatYen(d decimal.Decimal) string {
	return printer.Sprintf("%d", d.RoundBank(0).IntPart())
}

// =============================================================================
// SHARES
// =============================================================================

type Share struct {
	Job     string
	Label   string
	Color   string
	Salary  decimal.Decimal
	Percent decimal.Decimal // one decimal place
}

// Shares returns each job's part of the total salary, or nil when the total
// is zero or negative.
func Shares(res *payroll.Result) []Share {
	if res == nil || !res.TotalSalary.IsPositive() {
		return nil
	}
	out := make([]Share, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		out = append(out, Share{
			Job:     j.Name,
			Label:   jobs.Label(j.Name),
			Color:   jobs.Color(j.Name),
			Salary:  j.Salary,
			Percent: j.Salary.Mul(hundred).Div(res.TotalSalary).Round(1),
		})
	}
	return out
}

// =============================================================================
// TEXT
// =============================================================================

// WriteText prints the monthly summary as an aligned table.
func WriteText(w io.Writer, res *payroll.Result) error {
	from, to := res.Month.QueryRange()
	if _, err := fmt.Fprintf(w, "Payroll %s (%s .. %s)\n\n", res.Month, from, to); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "JOB\tFORMULA\tSHIFTS\tKOMA\tHOURS\tSALARY\t")
	for _, j := range res.Jobs {
		koma := "-"
		if j.Formula == payroll.FormulaSlotBased {
			koma = fmt.Sprint(j.SlotCount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t\n",
			jobs.Label(j.Name), j.Formula, j.ShiftCount, koma, FormatHours(j.Hours), FormatYen(j.Salary))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%s\t%s\t\n", FormatHours(res.TotalHours), FormatYen(res.TotalSalary))
	return tw.Flush()
}
