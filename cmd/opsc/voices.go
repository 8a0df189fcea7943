package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ops-suite/internal/refs"
)

func newVoicesCmd() *cobra.Command {
	var cachePath string
	var useRegex bool
	var kind string
	var countOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "voices <name|regex> [path]",
		Short: "Find voices and definitions by name across an ops tree",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 2 {
				target = args[1]
			}

			idx, err := loadOrBuild(cachePath, target)
			if err != nil {
				return err
			}

			report, err := refs.Find(idx, args[0], refs.Options{
				Regex: useRegex,
				Kind:  kind,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return emitJSON(report)
			}
			if countOnly {
				fmt.Printf("matches: %d\n", len(report.Matches))
				return nil
			}

			for _, match := range report.Matches {
				if match.Kind == refs.KindVoice {
					marker := ""
					if match.Truncated {
						marker = " (truncated)"
					}
					fmt.Printf("%s:%d voice %s%s / %s\n", match.File, match.Line, match.Name, marker, match.Body)
					continue
				}
				fmt.Printf("%s:%d def %s\n", match.File, match.Line, match.Name)
			}
			if len(report.Matches) == 0 {
				fmt.Printf("no matches for %q\n", report.Query)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "load index from cache instead of parsing")
	cmd.Flags().BoolVar(&useRegex, "regex", false, "treat the query as a regular expression")
	cmd.Flags().StringVar(&kind, "kind", "", "restrict to voice or def")
	cmd.Flags().BoolVar(&countOnly, "count", false, "print only the match count")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	return cmd
}
