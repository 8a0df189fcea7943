// Package stats reports aggregate metrics from an ops index.
package stats

import (
	"fmt"
	"sort"

	"ops-suite/internal/model"
)

type Options struct {
	TopFiles int
}

type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

type FileMetric struct {
	Path        string `json:"path"`
	Voices      int    `json:"voices"`
	Definitions int    `json:"definitions"`
	Includes    int    `json:"includes"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
}

type Report struct {
	Root            string       `json:"root"`
	FileCount       int          `json:"file_count"`
	VoiceCount      int          `json:"voice_count"`
	DefinitionCount int          `json:"definition_count"`
	IncludeCount    int          `json:"include_count"`
	TruncatedVoices int          `json:"truncated_voices"`
	ReadErrorCount  int          `json:"read_error_count"`
	EventCounts     []KindCount  `json:"event_counts,omitempty"`
	TopFiles        []FileMetric `json:"top_files,omitempty"`
}

func Build(idx *model.Index, opts Options) (Report, error) {
	if idx == nil {
		return Report{}, fmt.Errorf("index is nil")
	}
	if opts.TopFiles <= 0 {
		opts.TopFiles = 10
	}

	eventCounts := map[string]int{}
	metrics := make([]FileMetric, 0, len(idx.Files))
	for _, file := range idx.Files {
		for kind, count := range file.EventCounts {
			eventCounts[kind] += count
		}
		metrics = append(metrics, FileMetric{
			Path:        file.Path,
			Voices:      len(file.Voices),
			Definitions: len(file.Definitions),
			Includes:    len(file.Includes),
			SizeBytes:   file.SizeBytes,
		})
	}

	kindList := make([]KindCount, 0, len(eventCounts))
	for kind, count := range eventCounts {
		kindList = append(kindList, KindCount{Kind: kind, Count: count})
	}
	sort.Slice(kindList, func(i, j int) bool {
		if kindList[i].Count == kindList[j].Count {
			return kindList[i].Kind < kindList[j].Kind
		}
		return kindList[i].Count > kindList[j].Count
	})

	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Voices == metrics[j].Voices {
			return metrics[i].Path < metrics[j].Path
		}
		return metrics[i].Voices > metrics[j].Voices
	})
	if opts.TopFiles < len(metrics) {
		metrics = metrics[:opts.TopFiles]
	}

	return Report{
		Root:            idx.Root,
		FileCount:       idx.FileCount(),
		VoiceCount:      idx.VoiceCount(),
		DefinitionCount: idx.DefinitionCount(),
		IncludeCount:    idx.IncludeCount(),
		TruncatedVoices: idx.TruncatedVoiceCount(),
		ReadErrorCount:  len(idx.Errors),
		EventCounts:     kindList,
		TopFiles:        metrics,
	}, nil
}
