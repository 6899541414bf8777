package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/shift-payroll/api"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/report"
)

var (
	calcFile    string
	calcMonth   string
	calcFormat  string
	calcPayslip string
	calcChart   string
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate a month from an exported events.list file",
	Long: `Calculate reads a calendar export, keeps the events inside the month and
prints the per-employer breakdown.

Examples:
  # February 2026 as a table
  payroll calculate --file export.json --month 2026-02

  # JSON, with a payslip and a share chart
  payroll calculate --file export.json --month 2026-02 --format json \
    --payslip feb.pdf --chart feb.png
`,
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().StringVarP(&calcFile, "file", "f", "", "events.list export (required)")
	calculateCmd.Flags().StringVarP(&calcMonth, "month", "m", "", "month as YYYY-MM (default: current month)")
	calculateCmd.Flags().StringVar(&calcFormat, "format", "text", "output format: text or json")
	calculateCmd.Flags().StringVar(&calcPayslip, "payslip", "", "also write a PDF payslip to this path")
	calculateCmd.Flags().StringVar(&calcChart, "chart", "", "also write a PNG share chart to this path")
	_ = calculateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(calculateCmd)
}

func runCalculate(cmd *cobra.Command, args []string) error {
	if calcFormat != "text" && calcFormat != "json" {
		return fmt.Errorf("unknown format %q", calcFormat)
	}

	m, err := monthArg(calcMonth)
	if err != nil {
		return err
	}
	cfg, err := loadJobs()
	if err != nil {
		return err
	}

	from, to := m.Range()
	events, err := calendar.FileSource{Path: calcFile, Jobs: &cfg}.ListEvents(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	res, err := payroll.Calculate(m.Year, m.Month, calendar.Shifts(events), cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if calcFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.NewResultDTO(res)); err != nil {
			return err
		}
	} else if err := report.WriteText(out, res); err != nil {
		return err
	}

	if calcPayslip != "" {
		if err := writeFile(calcPayslip, func(w io.Writer) error {
			return report.WritePayslip(w, res, time.Now())
		}); err != nil {
			return fmt.Errorf("write payslip: %w", err)
		}
	}
	if calcChart != "" {
		err := writeFile(calcChart, func(w io.Writer) error {
			return report.WriteShareChart(w, res)
		})
		switch {
		case errors.Is(err, report.ErrNoShares):
			fmt.Fprintln(cmd.ErrOrStderr(), "no salary this month, chart skipped")
		case err != nil:
			return fmt.Errorf("write chart: %w", err)
		}
	}
	return nil
}

// monthArg parses YYYY-MM, defaulting to the current month.
func monthArg(s string) (payroll.Month, error) {
	if s == "" {
		return payroll.MonthOf(time.Now()), nil
	}
	return payroll.ParseMonth(s)
}

// writeFile creates path and removes it again when render fails.
func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
