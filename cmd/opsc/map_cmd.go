package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newMapCmd() *cobra.Command {
	var cachePath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "map [path]",
		Short: "Print structural summaries for indexed ops files",
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

			if jsonOutput {
				return emitJSON(idx)
			}

			for _, file := range idx.Files {
				fmt.Println(file.Path)
				if len(file.Includes) > 0 {
					fmt.Printf("  includes: %s\n", strings.Join(file.Includes, ", "))
				}
				for _, def := range file.Definitions {
					fmt.Printf("  def %s [%d]\n", def.Name, def.Line)
				}
				for _, voice := range file.Voices {
					marker := ""
					if voice.Truncated {
						marker = " (truncated)"
					}
					fmt.Printf("  voice %s [%d:%d]%s\n", voice.Name, voice.StartLine, voice.EndLine, marker)
				}
			}

			if len(idx.Errors) > 0 {
				fmt.Printf("errors: %d\n", len(idx.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "", "load index from cache instead of parsing")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	return cmd
}
