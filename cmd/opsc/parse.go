package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ops-suite/internal/opsparse"
)

func newParseCmd() *cobra.Command {
	var jsonOutput bool
	var showEvents bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a single ops file and dump its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opsparse.ParseFile(args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return emitJSON(parseView(result, showEvents))
			}

			defNames := make([]string, 0, len(result.Definitions))
			for name := range result.Definitions {
				defNames = append(defNames, name)
			}
			sort.Strings(defNames)
			for _, name := range defNames {
				fmt.Printf("def %s [line %d]\n", name, result.Definitions[name].Line)
			}

			voiceNames := make([]string, 0, len(result.Voices))
			for name := range result.Voices {
				voiceNames = append(voiceNames, name)
			}
			sort.Strings(voiceNames)
			for _, name := range voiceNames {
				voice := result.Voices[name]
				marker := ""
				if voice.Truncated {
					marker = " (truncated)"
				}
				fmt.Printf("voice %s [%d:%d]%s / %s\n", name, voice.StartLine, voice.EndLine, marker, voice.Body)
			}

			if len(result.Includes) > 0 {
				fmt.Printf("includes: %s\n", strings.Join(result.Includes, ", "))
			}
			if len(result.Symbols) > 0 {
				fmt.Printf("symbols: %s\n", strings.Join(result.Symbols, ", "))
			}
			if showEvents {
				for _, event := range result.Events {
					fmt.Printf("  %d:%d %s %s\n", event.Line, event.Column, event.Kind, event.Content)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	cmd.Flags().BoolVar(&showEvents, "events", false, "print the boundary event log")
	return cmd
}

// parseView flattens the maps for stable JSON output.
type parseJSON struct {
	Definitions []defJSON      `json:"definitions,omitempty"`
	Voices      []voiceJSON    `json:"voices,omitempty"`
	Includes    []string       `json:"includes,omitempty"`
	Symbols     []string       `json:"symbols,omitempty"`
	Events      []eventJSON    `json:"events,omitempty"`
	EventCounts map[string]int `json:"event_counts,omitempty"`
}

type defJSON struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

type voiceJSON struct {
	Name      string `json:"name"`
	Body      string `json:"body"`
	Truncated bool   `json:"truncated,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

type eventJSON struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Kind     string `json:"kind"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

func parseView(result opsparse.Result, withEvents bool) parseJSON {
	view := parseJSON{
		Includes: result.Includes,
		Symbols:  result.Symbols,
	}

	for name, def := range result.Definitions {
		view.Definitions = append(view.Definitions, defJSON{Name: name, Line: def.Line})
	}
	sort.Slice(view.Definitions, func(i, j int) bool {
		return view.Definitions[i].Name < view.Definitions[j].Name
	})

	for name, voice := range result.Voices {
		view.Voices = append(view.Voices, voiceJSON{
			Name:      name,
			Body:      voice.Body,
			Truncated: voice.Truncated,
			StartLine: voice.StartLine,
			EndLine:   voice.EndLine,
		})
	}
	sort.Slice(view.Voices, func(i, j int) bool {
		return view.Voices[i].Name < view.Voices[j].Name
	})

	view.EventCounts = map[string]int{}
	for _, event := range result.Events {
		view.EventCounts[event.Kind]++
		if withEvents {
			view.Events = append(view.Events, eventJSON(event))
		}
	}
	return view
}
