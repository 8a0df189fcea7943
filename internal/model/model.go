// Package model defines the core data types for ops file indexing: Definition, Voice, BoundaryEvent, FileSummary, and Index.
package model

import "time"

// Definition is a declared symbol placeholder from a `def <name>` line.
// The ops format attaches no attributes to definitions.
type Definition struct {
	File string `json:"file,omitempty"`
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Voice is a named transformation chain from a `voice <name> / <body>` line.
// Body holds the arrow-separated step text, space-joined across continuation
// lines. Truncated is set when brace balance was never reached and the
// partial body was kept as-is.
type Voice struct {
	File      string `json:"file,omitempty"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	Truncated bool   `json:"truncated,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// BoundaryEvent records a lexical transition seen while scanning ops text.
// Kind is one of comment, include, def_start, voice_start, namespace,
// malformed. Position is the byte offset of the content within the source.
type BoundaryEvent struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Kind     string `json:"kind"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

// FileSummary contains the parse output of a single ops file.
type FileSummary struct {
	Path            string         `json:"path"`
	SizeBytes       int64          `json:"size_bytes,omitempty"`
	ModTimeUnixNano int64          `json:"mod_time_unix_nano,omitempty"`
	Definitions     []Definition   `json:"definitions,omitempty"`
	Voices          []Voice        `json:"voices,omitempty"`
	Includes        []string       `json:"includes,omitempty"`
	Symbols         []string       `json:"symbols,omitempty"`
	EventCounts     map[string]int `json:"event_counts,omitempty"`
}

// ReadError records a file that could not be read during indexing.
type ReadError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Index is a structural snapshot of an ops tree.
type Index struct {
	Version     string        `json:"version"`
	Root        string        `json:"root"`
	GeneratedAt time.Time     `json:"generated_at"`
	Files       []FileSummary `json:"files"`
	Errors      []ReadError   `json:"errors,omitempty"`
}

// FileCount returns the number of successfully parsed files in the index.
func (idx *Index) FileCount() int {
	if idx == nil {
		return 0
	}
	return len(idx.Files)
}

// VoiceCount returns the total number of voices across all files.
func (idx *Index) VoiceCount() int {
	if idx == nil {
		return 0
	}

	total := 0
	for _, file := range idx.Files {
		total += len(file.Voices)
	}
	return total
}

// DefinitionCount returns the total number of definitions across all files.
func (idx *Index) DefinitionCount() int {
	if idx == nil {
		return 0
	}

	total := 0
	for _, file := range idx.Files {
		total += len(file.Definitions)
	}
	return total
}

// IncludeCount returns the total number of include entries across all files.
func (idx *Index) IncludeCount() int {
	if idx == nil {
		return 0
	}

	total := 0
	for _, file := range idx.Files {
		total += len(file.Includes)
	}
	return total
}

// TruncatedVoiceCount returns the number of voices whose bodies were cut off
// by the continuation cap or end of input before braces balanced.
func (idx *Index) TruncatedVoiceCount() int {
	if idx == nil {
		return 0
	}

	total := 0
	for _, file := range idx.Files {
		for _, voice := range file.Voices {
			if voice.Truncated {
				total++
			}
		}
	}
	return total
}
