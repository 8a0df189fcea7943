package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ops-suite/internal/stats"
)

func newStatsCmd() *cobra.Command {
	var cachePath string
	var top int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats [path]",
		Short: "Report aggregate metrics for an ops tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top <= 0 {
				return fmt.Errorf("top must be > 0")
			}

			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			idx, err := loadOrBuild(cachePath, target)
			if err != nil {
				return err
			}

			report, err := stats.Build(idx, stats.Options{TopFiles: top})
			if err != nil {
				return err
			}

			if jsonOutput {
				return emitJSON(report)
			}

			fmt.Printf(
				"stats: files=%d voices=%d defs=%d includes=%d truncated=%d errors=%d root=%s\n",
				report.FileCount,
				report.VoiceCount,
				report.DefinitionCount,
				report.IncludeCount,
				report.TruncatedVoices,
				report.ReadErrorCount,
				report.Root,
			)
			if len(report.EventCounts) > 0 {
				fmt.Println("events:")
				for _, kind := range report.EventCounts {
					fmt.Printf("  %s count=%d\n", kind.Kind, kind.Count)
				}
			}
			if len(report.TopFiles) > 0 {
				fmt.Printf("top files (limit=%d):\n", top)
				for _, file := range report.TopFiles {
					fmt.Printf("  %s voices=%d defs=%d includes=%d size=%d\n",
						file.Path, file.Voices, file.Definitions, file.Includes, file.SizeBytes)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "load index from cache instead of parsing")
	cmd.Flags().IntVar(&top, "top", 10, "number of top files by voice count")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	return cmd
}
