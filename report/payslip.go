package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
)

// WritePayslip renders the month as a one-page A4 payslip. Core PDF fonts
// have no Japanese glyphs, so jobs are printed under their labels.
func WritePayslip(w io.Writer, res *payroll.Result, generatedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle(fmt.Sprintf("Payslip %s", res.Month), false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	from, to := res.Month.QueryRange()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Month: %s", res.Month))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", from, to))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(12)

	widths := []float64{8, 42, 42, 20, 20, 24, 34}
	pdf.SetFont("Helvetica", "B", 11)
	for i, h := range []string{"", "Job", "Formula", "Shifts", "Koma", "Hours", "Salary (JPY)"} {
		align := "L"
		if i >= 3 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, j := range res.Jobs {
		r, g, b := hexRGB(jobs.Color(j.Name))
		pdf.SetFillColor(r, g, b)
		pdf.CellFormat(widths[0], 8, "", "", 0, "L", true, 0, "")

		koma := "-"
		if j.Formula == payroll.FormulaSlotBased {
			koma = strconv.Itoa(j.SlotCount)
		}
		pdf.CellFormat(widths[1], 8, tr(" "+jobs.Label(j.Name)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 8, string(j.Formula), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 8, strconv.Itoa(j.ShiftCount), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 8, koma, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 8, FormatHours(j.Hours), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 8, FormatYen(j.Salary), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4], 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(widths[5], 8, FormatHours(res.TotalHours), "T", 0, "R", false, 0, "")
	pdf.CellFormat(widths[6], 8, FormatYen(res.TotalSalary), "T", 0, "R", false, 0, "")
	pdf.Ln(-1)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render payslip: %w", err)
	}
	return nil
}

// hexRGB parses "#rrggbb", falling back to the default job colour.
func hexRGB(hex string) (int, int, int) {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return 0xcc, 0xcc, 0xcc
	}
	return r, g, b
}
