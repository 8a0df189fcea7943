// Package compose resolves a voice's arrow chain into an ordered step plan,
// inlining steps that name other voices.
package compose

import (
	"fmt"
	"sort"
	"strings"

	"ops-suite/internal/model"
)

// DefaultDepth bounds voice-reference inlining.
const DefaultDepth = 8

type Options struct {
	// Depth limits how many voice-reference levels are expanded.
	Depth int
}

// Step is one stage of a resolved chain. When the step text names another
// voice, Voice is set and Steps holds its expansion (empty past the depth
// limit or on a cycle).
type Step struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
	Cycle bool   `json:"cycle,omitempty"`
	Steps []Step `json:"steps,omitempty"`
}

type Plan struct {
	Root      string `json:"root"`
	Voice     string `json:"voice"`
	File      string `json:"file,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Steps     []Step `json:"steps,omitempty"`
	StepCount int    `json:"step_count"`
}

// Build resolves the named voice from the index into a plan.
func Build(idx *model.Index, name string, opts Options) (Plan, error) {
	if idx == nil {
		return Plan{}, fmt.Errorf("index is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Plan{}, fmt.Errorf("voice name is empty")
	}
	if opts.Depth <= 0 {
		opts.Depth = DefaultDepth
	}

	voices := voicesByName(idx)
	voice, ok := voices[name]
	if !ok {
		return Plan{}, fmt.Errorf("voice %q not found", name)
	}

	visiting := map[string]bool{name: true}
	steps := expandChain(voice.Body, voices, visiting, opts.Depth)

	plan := Plan{
		Root:      idx.Root,
		Voice:     name,
		File:      voice.File,
		Truncated: voice.Truncated,
		Steps:     steps,
	}
	plan.StepCount = countSteps(steps)
	return plan, nil
}

// Chain splits an arrow-separated body into its step texts, stripping braces,
// quotes, and surrounding space.
func Chain(body string) []string {
	var steps []string
	for _, raw := range strings.Split(body, "->") {
		step := strings.Trim(strings.TrimSpace(raw), `{}" `)
		if step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}

func expandChain(body string, voices map[string]model.Voice, visiting map[string]bool, depth int) []Step {
	texts := Chain(body)
	steps := make([]Step, 0, len(texts))
	for _, text := range texts {
		step := Step{Text: text}
		if referenced, ok := voices[text]; ok {
			step.Voice = text
			if visiting[text] {
				step.Cycle = true
			} else if depth > 1 {
				visiting[text] = true
				step.Steps = expandChain(referenced.Body, voices, visiting, depth-1)
				delete(visiting, text)
			}
		}
		steps = append(steps, step)
	}
	return steps
}

func countSteps(steps []Step) int {
	total := 0
	for _, step := range steps {
		total++
		total += countSteps(step.Steps)
	}
	return total
}

// voicesByName flattens the index; when the same voice name appears in
// several files the lexically first file wins.
func voicesByName(idx *model.Index) map[string]model.Voice {
	paths := make([]string, 0, len(idx.Files))
	byPath := make(map[string]model.FileSummary, len(idx.Files))
	for _, file := range idx.Files {
		paths = append(paths, file.Path)
		byPath[file.Path] = file
	}
	sort.Strings(paths)

	voices := map[string]model.Voice{}
	for _, path := range paths {
		for _, voice := range byPath[path].Voices {
			if _, taken := voices[voice.Name]; taken {
				continue
			}
			voices[voice.Name] = voice
		}
	}
	return voices
}
