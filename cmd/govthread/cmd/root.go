// Package cmd implements the govthread CLI's subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command. Subcommands register themselves onto it from
// their own init().
var rootCmd = &cobra.Command{
	Use:   "govthread",
	Short: "govthread rewrites source to use the deterministic thread governor",
	Long: `govthread instruments Go source files with calls into the
deterministic thread governor (pkg/govern), and inspects the schedule
files the governor writes.`,
}

// Execute runs the root command, exiting the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
