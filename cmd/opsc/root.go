package main

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

type exitCodeError struct {
	code int
	err  error
}

func (e exitCodeError) Error() string {
	if e.err == nil {
		return "command failed"
	}
	return e.err.Error()
}

func (e exitCodeError) ExitCode() int {
	if e.code <= 0 {
		return 1
	}
	return e.code
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "opsc",
		Short:         "Structural tooling for ops voice-composition trees",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newParseCmd(),
		newIndexCmd(),
		newMapCmd(),
		newFilesCmd(),
		newStatsCmd(),
		newVoicesCmd(),
		newIncludesCmd(),
		newComposeCmd(),
		newDiffCmd(),
	)
	return cmd
}
