// Package refs finds voices and definitions across an index by exact name
// or regular expression.
package refs

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ops-suite/internal/model"
)

const (
	KindVoice      = "voice"
	KindDefinition = "def"
)

type Options struct {
	// Regex treats the query as a regular expression instead of an exact
	// name match.
	Regex bool
	// Kind restricts matches to "voice" or "def"; empty means both.
	Kind string
}

type Match struct {
	File      string `json:"file"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Line      int    `json:"line"`
	Body      string `json:"body,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

type Report struct {
	Root    string  `json:"root"`
	Query   string  `json:"query"`
	Matches []Match `json:"matches,omitempty"`
}

func Find(idx *model.Index, query string, opts Options) (Report, error) {
	if idx == nil {
		return Report{}, fmt.Errorf("index is nil")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Report{}, fmt.Errorf("query is empty")
	}

	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	switch kind {
	case "", KindVoice, KindDefinition:
	default:
		return Report{}, fmt.Errorf("unsupported kind %q", opts.Kind)
	}

	matches := func(name string) bool { return name == query }
	if opts.Regex {
		pattern, err := regexp.Compile(query)
		if err != nil {
			return Report{}, fmt.Errorf("compile query: %w", err)
		}
		matches = pattern.MatchString
	}

	report := Report{Root: idx.Root, Query: query}
	for _, file := range idx.Files {
		if kind == "" || kind == KindVoice {
			for _, voice := range file.Voices {
				if !matches(voice.Name) {
					continue
				}
				report.Matches = append(report.Matches, Match{
					File:      file.Path,
					Kind:      KindVoice,
					Name:      voice.Name,
					Line:      voice.StartLine,
					Body:      voice.Body,
					Truncated: voice.Truncated,
				})
			}
		}
		if kind == "" || kind == KindDefinition {
			for _, def := range file.Definitions {
				if !matches(def.Name) {
					continue
				}
				report.Matches = append(report.Matches, Match{
					File: file.Path,
					Kind: KindDefinition,
					Name: def.Name,
					Line: def.Line,
				})
			}
		}
	}

	sort.Slice(report.Matches, func(i, j int) bool {
		left, right := report.Matches[i], report.Matches[j]
		if left.File == right.File {
			if left.Line == right.Line {
				return left.Name < right.Name
			}
			return left.Line < right.Line
		}
		return left.File < right.File
	})
	return report, nil
}
