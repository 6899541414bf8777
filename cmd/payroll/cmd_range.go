package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rangeCmd = &cobra.Command{
	Use:   "range [YYYY-MM]",
	Short: "Print the timeMin/timeMax query bounds of a month",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var s string
		if len(args) == 1 {
			s = args[0]
		}
		m, err := monthArg(s)
		if err != nil {
			return err
		}
		from, to := m.QueryRange()
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", from, to)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rangeCmd)
}
