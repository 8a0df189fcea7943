// Package structdiff compares two ops indexes to detect added, removed, and
// modified voices and definitions, plus per-file include changes.
package structdiff

import (
	"sort"

	"ops-suite/internal/model"
)

type VoiceChange struct {
	Before model.Voice `json:"before"`
	After  model.Voice `json:"after"`
	Fields []string    `json:"fields"`
}

type FileIncludeChange struct {
	File    string   `json:"file"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

type Stats struct {
	AddedVoices        int `json:"added_voices"`
	RemovedVoices      int `json:"removed_voices"`
	ModifiedVoices     int `json:"modified_voices"`
	AddedDefinitions   int `json:"added_definitions"`
	RemovedDefinitions int `json:"removed_definitions"`
	ChangedFiles       int `json:"changed_files"`
}

type Report struct {
	BeforeRoot         string              `json:"before_root"`
	AfterRoot          string              `json:"after_root"`
	AddedVoices        []model.Voice       `json:"added_voices,omitempty"`
	RemovedVoices      []model.Voice       `json:"removed_voices,omitempty"`
	ModifiedVoices     []VoiceChange       `json:"modified_voices,omitempty"`
	AddedDefinitions   []model.Definition  `json:"added_definitions,omitempty"`
	RemovedDefinitions []model.Definition  `json:"removed_definitions,omitempty"`
	IncludeChanges     []FileIncludeChange `json:"include_changes,omitempty"`
	Stats              Stats               `json:"stats"`
}

func Compare(before, after *model.Index) Report {
	report := Report{}
	if before != nil {
		report.BeforeRoot = before.Root
	}
	if after != nil {
		report.AfterRoot = after.Root
	}

	beforeVoices := flattenVoices(before)
	afterVoices := flattenVoices(after)

	for key, afterVoice := range afterVoices {
		beforeVoice, exists := beforeVoices[key]
		if !exists {
			report.AddedVoices = append(report.AddedVoices, afterVoice)
			continue
		}
		fields := changedVoiceFields(beforeVoice, afterVoice)
		if len(fields) == 0 {
			continue
		}
		report.ModifiedVoices = append(report.ModifiedVoices, VoiceChange{
			Before: beforeVoice,
			After:  afterVoice,
			Fields: fields,
		})
	}
	for key, beforeVoice := range beforeVoices {
		if _, exists := afterVoices[key]; !exists {
			report.RemovedVoices = append(report.RemovedVoices, beforeVoice)
		}
	}

	beforeDefs := flattenDefinitions(before)
	afterDefs := flattenDefinitions(after)
	for key, def := range afterDefs {
		if _, exists := beforeDefs[key]; !exists {
			report.AddedDefinitions = append(report.AddedDefinitions, def)
		}
	}
	for key, def := range beforeDefs {
		if _, exists := afterDefs[key]; !exists {
			report.RemovedDefinitions = append(report.RemovedDefinitions, def)
		}
	}

	report.IncludeChanges = compareIncludes(before, after)

	sortVoices(report.AddedVoices)
	sortVoices(report.RemovedVoices)
	sort.Slice(report.ModifiedVoices, func(i, j int) bool {
		left, right := report.ModifiedVoices[i].After, report.ModifiedVoices[j].After
		if left.File == right.File {
			return left.Name < right.Name
		}
		return left.File < right.File
	})
	sortDefinitions(report.AddedDefinitions)
	sortDefinitions(report.RemovedDefinitions)

	report.Stats = Stats{
		AddedVoices:        len(report.AddedVoices),
		RemovedVoices:      len(report.RemovedVoices),
		ModifiedVoices:     len(report.ModifiedVoices),
		AddedDefinitions:   len(report.AddedDefinitions),
		RemovedDefinitions: len(report.RemovedDefinitions),
		ChangedFiles:       countChangedFiles(report),
	}
	return report
}

func flattenVoices(idx *model.Index) map[string]model.Voice {
	flat := map[string]model.Voice{}
	if idx == nil {
		return flat
	}
	for _, file := range idx.Files {
		for _, voice := range file.Voices {
			voice.File = file.Path
			flat[file.Path+"\x00"+voice.Name] = voice
		}
	}
	return flat
}

func flattenDefinitions(idx *model.Index) map[string]model.Definition {
	flat := map[string]model.Definition{}
	if idx == nil {
		return flat
	}
	for _, file := range idx.Files {
		for _, def := range file.Definitions {
			def.File = file.Path
			flat[file.Path+"\x00"+def.Name] = def
		}
	}
	return flat
}

func changedVoiceFields(before, after model.Voice) []string {
	var fields []string
	if before.Body != after.Body {
		fields = append(fields, "body")
	}
	if before.Truncated != after.Truncated {
		fields = append(fields, "truncated")
	}
	if before.StartLine != after.StartLine || before.EndLine != after.EndLine {
		fields = append(fields, "lines")
	}
	return fields
}

func compareIncludes(before, after *model.Index) []FileIncludeChange {
	beforeByFile := includesByFile(before)
	afterByFile := includesByFile(after)

	paths := map[string]bool{}
	for path := range beforeByFile {
		paths[path] = true
	}
	for path := range afterByFile {
		paths[path] = true
	}

	var changes []FileIncludeChange
	for path := range paths {
		beforeSet := beforeByFile[path]
		afterSet := afterByFile[path]

		var added, removed []string
		for include := range afterSet {
			if !beforeSet[include] {
				added = append(added, include)
			}
		}
		for include := range beforeSet {
			if !afterSet[include] {
				removed = append(removed, include)
			}
		}
		if len(added) == 0 && len(removed) == 0 {
			continue
		}
		sort.Strings(added)
		sort.Strings(removed)
		changes = append(changes, FileIncludeChange{File: path, Added: added, Removed: removed})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].File < changes[j].File })
	return changes
}

func includesByFile(idx *model.Index) map[string]map[string]bool {
	byFile := map[string]map[string]bool{}
	if idx == nil {
		return byFile
	}
	for _, file := range idx.Files {
		if len(file.Includes) == 0 {
			continue
		}
		set := make(map[string]bool, len(file.Includes))
		for _, include := range file.Includes {
			set[include] = true
		}
		byFile[file.Path] = set
	}
	return byFile
}

func countChangedFiles(report Report) int {
	files := map[string]bool{}
	for _, voice := range report.AddedVoices {
		files[voice.File] = true
	}
	for _, voice := range report.RemovedVoices {
		files[voice.File] = true
	}
	for _, change := range report.ModifiedVoices {
		files[change.After.File] = true
	}
	for _, def := range report.AddedDefinitions {
		files[def.File] = true
	}
	for _, def := range report.RemovedDefinitions {
		files[def.File] = true
	}
	for _, change := range report.IncludeChanges {
		files[change.File] = true
	}
	return len(files)
}

func sortVoices(voices []model.Voice) {
	sort.Slice(voices, func(i, j int) bool {
		if voices[i].File == voices[j].File {
			return voices[i].Name < voices[j].Name
		}
		return voices[i].File < voices[j].File
	})
}

func sortDefinitions(defs []model.Definition) {
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].File == defs[j].File {
			return defs[i].Name < defs[j].Name
		}
		return defs[i].File < defs[j].File
	})
}
