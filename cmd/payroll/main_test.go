package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/api"
)

const export = `{
  "items": [
    {"id": "w1", "summary": "早稲アカ 授業", "start": {"dateTime": "2026-02-03T16:00:00+09:00"}, "end": {"dateTime": "2026-02-03T21:30:00+09:00"}},
    {"id": "w2", "summary": "早稲アカ", "start": {"dateTime": "2026-02-05T12:20:00+09:00"}, "end": {"dateTime": "2026-02-05T13:50:00+09:00"}},
    {"id": "t1", "summary": "とらや", "start": {"dateTime": "2026-02-07T10:00:00+09:00"}, "end": {"dateTime": "2026-02-07T18:00:00+09:00"}},
    {"id": "t2", "summary": "とらや 早番", "start": {"dateTime": "2026-02-08T10:00:00+09:00"}, "end": {"dateTime": "2026-02-08T14:00:00+09:00"}},
    {"id": "x1", "summary": "歯医者", "start": {"dateTime": "2026-02-09T15:00:00+09:00"}, "end": {"dateTime": "2026-02-09T16:00:00+09:00"}},
    {"id": "m1", "summary": "とらや", "start": {"dateTime": "2026-03-01T10:00:00+09:00"}, "end": {"dateTime": "2026-03-01T18:00:00+09:00"}}
  ]
}`

// execute runs the CLI with every calculate flag reset.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jobsFile, calcFile, calcMonth, calcFormat, calcPayslip, calcChart = "", "", "", "text", "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o600))
	return path
}

func TestCalculate_Text(t *testing.T) {
	out, err := execute(t, "calculate", "--file", writeExport(t), "--month", "2026-02")
	require.NoError(t, err)

	assert.Contains(t, out, "Payroll 2026-02")
	assert.Contains(t, out, "26,834")
}

func TestCalculate_JSONWithReports(t *testing.T) {
	// GIVEN: A February export and output paths
	dir := t.TempDir()
	pdf := filepath.Join(dir, "feb.pdf")
	png := filepath.Join(dir, "feb.png")

	// WHEN: Calculating as JSON with both reports
	out, err := execute(t, "calculate", "--file", writeExport(t), "--month", "2026-02",
		"--format", "json", "--payslip", pdf, "--chart", png)
	require.NoError(t, err)

	// THEN: The JSON carries the total and both files exist
	var res api.ResultDTO
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, decimal.NewFromInt(26834).Equal(res.TotalSalary), res.TotalSalary.String())
	assert.Equal(t, "2026-02", res.Month.Label)

	body, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
	_, err = os.Stat(png)
	assert.NoError(t, err)
}

func TestCalculate_EmptyMonthSkipsChart(t *testing.T) {
	png := filepath.Join(t.TempDir(), "jan.png")
	out, err := execute(t, "calculate", "--file", writeExport(t), "--month", "2026-01", "--chart", png)
	require.NoError(t, err)

	assert.Contains(t, out, "chart skipped")
	_, err = os.Stat(png)
	assert.True(t, os.IsNotExist(err))
}

func TestCalculate_Rejects(t *testing.T) {
	path := writeExport(t)

	_, err := execute(t, "calculate", "--file", path, "--month", "2026-13")
	assert.Error(t, err)

	_, err = execute(t, "calculate", "--file", path, "--month", "2026-02", "--format", "xml")
	assert.Error(t, err)

	_, err = execute(t, "calculate", "--file", filepath.Join(t.TempDir(), "missing.json"), "--month", "2026-02")
	assert.Error(t, err)
}

func TestCalculate_JobsFile(t *testing.T) {
	jobs := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(jobs, []byte(`jobs:
  - name: とらや
    wage: 1000
    formula: hourly_minus_break
`), 0o600))

	out, err := execute(t, "--jobs", jobs, "calculate", "--file", writeExport(t), "--month", "2026-02", "--format", "json")
	require.NoError(t, err)

	// (12h - 0.5h x 2 shifts) x 1000 + 292 x 2 shifts
	var res api.ResultDTO
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Jobs, 1)
	assert.True(t, decimal.NewFromInt(11584).Equal(res.TotalSalary), res.TotalSalary.String())
}

func TestRange(t *testing.T) {
	out, err := execute(t, "range", "2026-12")
	require.NoError(t, err)
	assert.Equal(t, "2026-12-01T00:00:00Z\n2027-01-01T00:00:00Z\n", out)
}
