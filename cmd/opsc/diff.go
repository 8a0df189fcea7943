package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ops-suite/internal/structdiff"
)

func newDiffCmd() *cobra.Command {
	var beforeCache string
	var afterCache string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "diff [before] [after]",
		Short: "Compare two ops trees or cached indexes structurally",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			beforeTarget := ""
			afterTarget := "."
			if len(args) >= 1 {
				beforeTarget = args[0]
			}
			if len(args) == 2 {
				afterTarget = args[1]
			}

			if strings.TrimSpace(beforeCache) == "" && beforeTarget == "" {
				return fmt.Errorf("diff needs a before side: pass --before-cache or a before path")
			}

			before, err := loadOrBuild(beforeCache, beforeTarget)
			if err != nil {
				return fmt.Errorf("load before index: %w", err)
			}
			after, err := loadOrBuild(afterCache, afterTarget)
			if err != nil {
				return fmt.Errorf("load after index: %w", err)
			}

			report := structdiff.Compare(before, after)
			if jsonOutput {
				return emitJSON(report)
			}

			printChangeReport(report, true)
			for _, change := range report.ModifiedVoices {
				fmt.Printf("  ~ %s voice %s (%s)\n", change.After.File, change.After.Name, strings.Join(change.Fields, ","))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&beforeCache, "before-cache", "", "cache file for the before side")
	cmd.Flags().StringVar(&afterCache, "after-cache", "", "cache file for the after side")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	return cmd
}
