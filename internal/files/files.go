// Package files lists indexed ops files with density filters and sorting.
package files

import (
	"fmt"
	"sort"
	"strings"

	"ops-suite/internal/model"
)

type Options struct {
	MinVoices      int
	MinDefinitions int
	SortBy         string
	Top            int
}

type Entry struct {
	Path        string `json:"path"`
	Voices      int    `json:"voices"`
	Definitions int    `json:"definitions"`
	Includes    int    `json:"includes"`
	Truncated   int    `json:"truncated,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

type Report struct {
	Root       string  `json:"root"`
	TotalFiles int     `json:"total_files"`
	ShownFiles int     `json:"shown_files"`
	Entries    []Entry `json:"entries,omitempty"`
}

func Build(idx *model.Index, opts Options) (Report, error) {
	if idx == nil {
		return Report{}, fmt.Errorf("index is nil")
	}
	if opts.MinVoices < 0 {
		opts.MinVoices = 0
	}
	if opts.MinDefinitions < 0 {
		opts.MinDefinitions = 0
	}
	if opts.Top <= 0 {
		opts.Top = 50
	}
	sortBy := strings.ToLower(strings.TrimSpace(opts.SortBy))
	if sortBy == "" {
		sortBy = "voices"
	}
	switch sortBy {
	case "voices", "defs", "includes", "size", "path":
	default:
		return Report{}, fmt.Errorf("unsupported sort %q", opts.SortBy)
	}

	entries := make([]Entry, 0, len(idx.Files))
	for _, file := range idx.Files {
		if len(file.Voices) < opts.MinVoices {
			continue
		}
		if len(file.Definitions) < opts.MinDefinitions {
			continue
		}
		truncated := 0
		for _, voice := range file.Voices {
			if voice.Truncated {
				truncated++
			}
		}
		entries = append(entries, Entry{
			Path:        file.Path,
			Voices:      len(file.Voices),
			Definitions: len(file.Definitions),
			Includes:    len(file.Includes),
			Truncated:   truncated,
			SizeBytes:   file.SizeBytes,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		switch sortBy {
		case "path":
			return entries[i].Path < entries[j].Path
		case "defs":
			if entries[i].Definitions == entries[j].Definitions {
				return entries[i].Path < entries[j].Path
			}
			return entries[i].Definitions > entries[j].Definitions
		case "includes":
			if entries[i].Includes == entries[j].Includes {
				return entries[i].Path < entries[j].Path
			}
			return entries[i].Includes > entries[j].Includes
		case "size":
			if entries[i].SizeBytes == entries[j].SizeBytes {
				return entries[i].Path < entries[j].Path
			}
			return entries[i].SizeBytes > entries[j].SizeBytes
		default:
			if entries[i].Voices == entries[j].Voices {
				return entries[i].Path < entries[j].Path
			}
			return entries[i].Voices > entries[j].Voices
		}
	})

	if opts.Top < len(entries) {
		entries = entries[:opts.Top]
	}

	return Report{
		Root:       idx.Root,
		TotalFiles: len(idx.Files),
		ShownFiles: len(entries),
		Entries:    entries,
	}, nil
}
