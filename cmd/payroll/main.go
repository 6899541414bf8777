// Command payroll computes a month's part-time salary from a calendar export
// without running the server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/shift-payroll/factory"
	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/payroll"
)

var jobsFile string

var rootCmd = &cobra.Command{
	Use:           "payroll",
	Short:         "Monthly part-time payroll from calendar shifts",
	Long:          "payroll classifies calendar events into employers, counts koma and hours, and applies each employer's pay formula.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&jobsFile, "jobs", "", "JSON/YAML job configuration (default: reference jobs)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadJobs returns the configuration named by --jobs.
func loadJobs() (payroll.Config, error) {
	if jobsFile == "" {
		return jobs.Default(), nil
	}
	cfg, err := factory.NewJobFactory().LoadFile(jobsFile)
	if err != nil {
		return payroll.Config{}, fmt.Errorf("load jobs: %w", err)
	}
	return cfg, nil
}
