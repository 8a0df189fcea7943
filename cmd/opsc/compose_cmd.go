package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ops-suite/internal/compose"
)

func newComposeCmd() *cobra.Command {
	var cachePath string
	var depth int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "compose <voice> [path]",
		Short: "Resolve a voice's arrow chain into an ordered step plan",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			target := "."
			if len(args) == 2 {
				target = args[1]
			}

			idx, err := loadOrBuild(cachePath, target)
			if err != nil {
				return err
			}

			plan, err := compose.Build(idx, name, compose.Options{Depth: depth})
			if err != nil {
				return err
			}

			if jsonOutput {
				return emitJSON(plan)
			}

			truncated := ""
			if plan.Truncated {
				truncated = " (truncated)"
			}
			fmt.Printf("compose %s (%s)%s: %d steps\n", plan.Voice, plan.File, truncated, plan.StepCount)
			printSteps(plan.Steps, 1)
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "load index from cache instead of parsing")
	cmd.Flags().IntVar(&depth, "depth", compose.DefaultDepth, "maximum voice-reference expansion depth")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	return cmd
}

func printSteps(steps []compose.Step, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, step := range steps {
		switch {
		case step.Cycle:
			fmt.Printf("%s%s (cycle)\n", pad, step.Text)
		case step.Voice != "":
			fmt.Printf("%s%s (voice)\n", pad, step.Text)
		default:
			fmt.Printf("%s%s\n", pad, step.Text)
		}
		printSteps(step.Steps, indent+1)
	}
}
