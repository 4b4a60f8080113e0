package cmd

import (
	"fmt"

	"github.com/brnhx/govthread/pkg/govern"
	"github.com/spf13/cobra"
)

// inspectCmd decodes and prints a schedule file in the on-disk grammar
// described by spec.md §6: one "threadId available higher" record per line.
var inspectCmd = &cobra.Command{
	Use:   "inspect <schedule-file>",
	Short: "decode and print a governor schedule file",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, clean, err := govern.ReadSchedule(args[0])
		if err != nil {
			return err
		}
		for i, sp := range points {
			fmt.Printf("%4d: threadId=%d available=%d higher=%d\n", i, sp.ThreadID, sp.Available, sp.Higher)
		}
		if clean {
			fmt.Println("END")
		} else {
			fmt.Println("(no END sentinel: run did not complete)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
