package structdiff

import (
	"reflect"
	"testing"

	"ops-suite/internal/model"
)

func TestCompareDetectsVoiceChanges(t *testing.T) {
	before := &model.Index{
		Root: "/a",
		Files: []model.FileSummary{{
			Path: "main.ops",
			Voices: []model.Voice{
				{Name: "main.keep", Body: "x -> y", StartLine: 1, EndLine: 1},
				{Name: "main.gone", Body: "z", StartLine: 2, EndLine: 2},
				{Name: "main.edit", Body: "old -> out", StartLine: 3, EndLine: 3},
			},
		}},
	}
	after := &model.Index{
		Root: "/a",
		Files: []model.FileSummary{{
			Path: "main.ops",
			Voices: []model.Voice{
				{Name: "main.keep", Body: "x -> y", StartLine: 1, EndLine: 1},
				{Name: "main.edit", Body: "new -> out", StartLine: 3, EndLine: 3},
				{Name: "main.fresh", Body: "w", StartLine: 4, EndLine: 4},
			},
		}},
	}

	report := Compare(before, after)
	if report.Stats.AddedVoices != 1 || report.AddedVoices[0].Name != "main.fresh" {
		t.Fatalf("unexpected added voices: %+v", report.AddedVoices)
	}
	if report.Stats.RemovedVoices != 1 || report.RemovedVoices[0].Name != "main.gone" {
		t.Fatalf("unexpected removed voices: %+v", report.RemovedVoices)
	}
	if report.Stats.ModifiedVoices != 1 {
		t.Fatalf("unexpected modified voices: %+v", report.ModifiedVoices)
	}
	if !reflect.DeepEqual(report.ModifiedVoices[0].Fields, []string{"body"}) {
		t.Fatalf("unexpected changed fields: %+v", report.ModifiedVoices[0].Fields)
	}
	if report.Stats.ChangedFiles != 1 {
		t.Fatalf("unexpected changed files: %d", report.Stats.ChangedFiles)
	}
}

func TestCompareTruncationFlagChange(t *testing.T) {
	before := &model.Index{Files: []model.FileSummary{{
		Path:   "a.ops",
		Voices: []model.Voice{{Name: "v", Body: "{x ->", Truncated: true}},
	}}}
	after := &model.Index{Files: []model.FileSummary{{
		Path:   "a.ops",
		Voices: []model.Voice{{Name: "v", Body: "{x ->", Truncated: false}},
	}}}

	report := Compare(before, after)
	if report.Stats.ModifiedVoices != 1 {
		t.Fatalf("expected modified voice, got %+v", report)
	}
	if !reflect.DeepEqual(report.ModifiedVoices[0].Fields, []string{"truncated"}) {
		t.Fatalf("unexpected fields: %+v", report.ModifiedVoices[0].Fields)
	}
}

func TestCompareDefinitionsAndIncludes(t *testing.T) {
	before := &model.Index{Files: []model.FileSummary{{
		Path:        "a.ops",
		Definitions: []model.Definition{{Name: "old"}},
		Includes:    []string{"x.ops"},
	}}}
	after := &model.Index{Files: []model.FileSummary{{
		Path:        "a.ops",
		Definitions: []model.Definition{{Name: "new"}},
		Includes:    []string{"x.ops", "y.ops"},
	}}}

	report := Compare(before, after)
	if report.Stats.AddedDefinitions != 1 || report.Stats.RemovedDefinitions != 1 {
		t.Fatalf("unexpected definition stats: %+v", report.Stats)
	}
	if len(report.IncludeChanges) != 1 {
		t.Fatalf("unexpected include changes: %+v", report.IncludeChanges)
	}
	change := report.IncludeChanges[0]
	if !reflect.DeepEqual(change.Added, []string{"y.ops"}) || len(change.Removed) != 0 {
		t.Fatalf("unexpected include change: %+v", change)
	}
}

func TestCompareIdenticalIndexes(t *testing.T) {
	idx := &model.Index{Files: []model.FileSummary{{
		Path:     "a.ops",
		Voices:   []model.Voice{{Name: "v", Body: "x"}},
		Includes: []string{"b.ops"},
	}}}

	report := Compare(idx, idx)
	if report.Stats != (Stats{}) {
		t.Fatalf("expected empty stats, got %+v", report.Stats)
	}
}
