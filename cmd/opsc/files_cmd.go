package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ops-suite/internal/files"
)

func newFilesCmd() *cobra.Command {
	var cachePath string
	var minVoices int
	var minDefs int
	var sortBy string
	var top int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "files [path]",
		Short: "List indexed ops files with density filters",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			idx, err := loadOrBuild(cachePath, target)
			if err != nil {
				return err
			}

			report, err := files.Build(idx, files.Options{
				MinVoices:      minVoices,
				MinDefinitions: minDefs,
				SortBy:         sortBy,
				Top:            top,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return emitJSON(report)
			}

			fmt.Printf("files: total=%d shown=%d root=%s\n", report.TotalFiles, report.ShownFiles, report.Root)
			for _, entry := range report.Entries {
				line := fmt.Sprintf("  %s voices=%d defs=%d includes=%d size=%d",
					entry.Path, entry.Voices, entry.Definitions, entry.Includes, entry.SizeBytes)
				if entry.Truncated > 0 {
					line += fmt.Sprintf(" truncated=%d", entry.Truncated)
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "load index from cache instead of parsing")
	cmd.Flags().IntVar(&minVoices, "min-voices", 0, "minimum voice count")
	cmd.Flags().IntVar(&minDefs, "min-defs", 0, "minimum definition count")
	cmd.Flags().StringVar(&sortBy, "sort", "voices", "sort by voices|defs|includes|size|path")
	cmd.Flags().IntVar(&top, "top", 50, "maximum entries to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	return cmd
}
