// Package opsparse implements the line-oriented parser for the ops
// voice-composition format. The parser never fails: malformed input degrades
// to partial output, and every significant lexical transition is logged as a
// boundary event.
package opsparse

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"ops-suite/internal/expand"
	"ops-suite/internal/model"
)

// continuationCap bounds multi-line voice body scanning on pathological
// input. When the cap is hit the partial body is kept and flagged.
const continuationCap = 200

// Event kinds recorded in the boundary log.
const (
	EventComment    = "comment"
	EventInclude    = "include"
	EventDefStart   = "def_start"
	EventVoiceStart = "voice_start"
	EventNamespace  = "namespace"
	EventMalformed  = "malformed"
)

var baseBuiltins = map[string]bool{
	"opic":    true,
	"true":    true,
	"false":   true,
	"null":    true,
	"result":  true,
	"input":   true,
	"output":  true,
	"env":     true,
	"context": true,
	"if":      true,
	"then":    true,
	"else":    true,
}

var (
	dottedRef = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)`)
	chainHead = regexp.MustCompile(`\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*->`)
)

// Options controls symbol resolution. A nil Snapshot disables expansion so
// the parse is pure text scanning.
type Options struct {
	// SourceDir is used to relativize resolved include paths.
	SourceDir string
	// Snapshot is the pre-scanned expansion map; the parser performs no
	// filesystem access of its own.
	Snapshot *expand.Snapshot
	// Builtins extends the fixed builtin vocabulary. The base set is never
	// shrunk.
	Builtins []string
}

// Result is the flat parse output for one ops source.
type Result struct {
	Definitions map[string]model.Definition
	Voices      map[string]model.Voice
	Includes    []string
	Events      []model.BoundaryEvent
	Symbols     []string
}

// Parse scans ops source text in a single pass over its lines, preceded by a
// symbol-discovery pass that feeds expansion resolution.
func Parse(src string, opts Options) Result {
	result := Result{
		Definitions: make(map[string]model.Definition),
		Voices:      make(map[string]model.Voice),
	}

	lines := strings.Split(src, "\n")
	offsets := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		offsets[i] = offset
		offset += len(line) + 1
	}

	builtin := builtinSet(opts.Builtins)

	includeSeen := make(map[string]bool)
	addInclude := func(path string) {
		if path == "" || includeSeen[path] {
			return
		}
		includeSeen[path] = true
		result.Includes = append(result.Includes, path)
	}

	resolveSymbols(&result, lines, builtin, opts, addInclude)

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		lineNo := i + 1
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ";") {
			column := strings.Index(line, ";") + 1
			result.addEvent(lineNo, column, EventComment,
				strings.TrimSpace(strings.TrimPrefix(trimmed, ";")), offsets[i])
			continue
		}

		result.logNamespaceRefs(line, lineNo, offsets[i], builtin)

		fields := strings.Fields(trimmed)
		switch fields[0] {
		case "include":
			path := strings.TrimSpace(strings.TrimPrefix(trimmed, "include"))
			if path == "" {
				result.addEvent(lineNo, 1, EventMalformed, trimmed, offsets[i])
				continue
			}
			addInclude(path)
			result.addEvent(lineNo, strings.Index(line, "include")+1, EventInclude, path, offsets[i])
		case "def":
			if len(fields) < 2 {
				result.addEvent(lineNo, 1, EventMalformed, trimmed, offsets[i])
				continue
			}
			name := fields[1]
			result.Definitions[name] = model.Definition{Name: name, Line: lineNo}
			result.addEvent(lineNo, columnOf(line, name), EventDefStart, name, offsets[i])
		case "voice":
			i = result.parseVoice(lines, offsets, i, builtin)
		}
	}

	result.Symbols = deriveSymbols(result.Events)
	return result
}

// ParseFile reads a file, scans its resolution bases, and parses it. Used by
// callers that work on a single file; the index builder scans snapshots once
// per directory instead.
func ParseFile(path string) (Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return Parse(string(source), Options{
		SourceDir: filepath.Dir(path),
		Snapshot:  expand.ScanFor(path),
	}), nil
}

// parseVoice consumes a voice header line and any continuation lines while
// braces stay unbalanced. It returns the index of the last consumed line.
//
// The voice name is the second whitespace token before the first `/`. This
// reproduces the historical tokenization; a header with extra tokens picks
// the wrong one, so such lines additionally get a malformed event.
func (r *Result) parseVoice(lines []string, offsets []int, start int, builtin map[string]bool) int {
	line := lines[start]
	trimmed := strings.TrimSpace(line)
	lineNo := start + 1

	slash := strings.Index(trimmed, "/")
	if slash < 0 {
		r.addEvent(lineNo, 1, EventMalformed, trimmed, offsets[start])
		return start
	}

	tokens := strings.Fields(trimmed[:slash])
	if len(tokens) < 2 {
		r.addEvent(lineNo, 1, EventMalformed, trimmed, offsets[start])
		return start
	}
	if len(tokens) > 2 {
		r.addEvent(lineNo, 1, EventMalformed, strings.TrimSpace(trimmed[:slash]), offsets[start])
	}
	name := tokens[1]

	body := strings.TrimSpace(strings.Trim(strings.TrimSpace(trimmed[slash+1:]), `"`))
	end := start
	steps := 0
	for unbalanced(body) && steps < continuationCap && end+1 < len(lines) {
		end++
		steps++
		r.logNamespaceRefs(lines[end], end+1, offsets[end], builtin)
		body = strings.TrimSpace(body + " " + strings.TrimSpace(lines[end]))
	}

	r.Voices[name] = model.Voice{
		Name:      name,
		Body:      body,
		Truncated: unbalanced(body),
		StartLine: lineNo,
		EndLine:   end + 1,
	}
	r.addEvent(lineNo, columnOf(line, name), EventVoiceStart, name, offsets[start])
	return end
}

func (r *Result) logNamespaceRefs(line string, lineNo, lineOffset int, builtin map[string]bool) {
	for _, match := range dottedRef.FindAllStringSubmatchIndex(line, -1) {
		namespace := line[match[2]:match[3]]
		if builtin[namespace] {
			continue
		}
		column := match[2] + 1
		r.Events = append(r.Events, model.BoundaryEvent{
			Line:     lineNo,
			Column:   column,
			Kind:     EventNamespace,
			Content:  namespace,
			Position: lineOffset + match[2],
		})
	}
}

func (r *Result) addEvent(lineNo, column int, kind, content string, lineOffset int) {
	if column < 1 {
		column = 1
	}
	r.Events = append(r.Events, model.BoundaryEvent{
		Line:     lineNo,
		Column:   column,
		Kind:     kind,
		Content:  content,
		Position: lineOffset + column - 1,
	})
}

// resolveSymbols runs the discovery pass (dotted references and arrow-chain
// left operands on non-comment lines) and appends expansion hits to the
// include list in discovery order.
func resolveSymbols(result *Result, lines []string, builtin map[string]bool, opts Options, addInclude func(string)) {
	var discovered []string
	seen := make(map[string]bool)
	note := func(symbol string) {
		if builtin[symbol] || seen[symbol] {
			return
		}
		seen[symbol] = true
		discovered = append(discovered, symbol)
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}
		for _, match := range dottedRef.FindAllStringSubmatch(line, -1) {
			note(match[1])
		}
		for _, match := range chainHead.FindAllStringSubmatch(line, -1) {
			note(match[1])
		}
	}

	if opts.Snapshot == nil {
		return
	}
	for _, symbol := range discovered {
		if entry, ok := opts.Snapshot.Lookup(symbol); ok {
			addInclude(relativize(entry.Path, opts.SourceDir))
			continue
		}
		if path, ok := opts.Snapshot.Probe(symbol + ".ops"); ok {
			addInclude(relativize(path, opts.SourceDir))
		}
	}
}

func deriveSymbols(events []model.BoundaryEvent) []string {
	var symbols []string
	seen := make(map[string]bool)
	for _, event := range events {
		switch event.Kind {
		case EventDefStart, EventVoiceStart, EventNamespace:
		default:
			continue
		}
		if seen[event.Content] {
			continue
		}
		seen[event.Content] = true
		symbols = append(symbols, event.Content)
	}
	return symbols
}

func builtinSet(extra []string) map[string]bool {
	if len(extra) == 0 {
		return baseBuiltins
	}
	merged := make(map[string]bool, len(baseBuiltins)+len(extra))
	for name := range baseBuiltins {
		merged[name] = true
	}
	for _, name := range extra {
		name = strings.TrimSpace(name)
		if name != "" {
			merged[name] = true
		}
	}
	return merged
}

func unbalanced(body string) bool {
	return strings.Count(body, "{") != strings.Count(body, "}")
}

func columnOf(line, token string) int {
	if idx := strings.Index(line, token); idx >= 0 {
		return idx + 1
	}
	return 1
}

func relativize(path, sourceDir string) string {
	if strings.TrimSpace(sourceDir) == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(sourceDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
