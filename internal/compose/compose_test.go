package compose

import (
	"reflect"
	"testing"

	"ops-suite/internal/model"
)

func testIndex() *model.Index {
	return &model.Index{
		Root: "/tmp/songs",
		Files: []model.FileSummary{
			{
				Path: "main.ops",
				Voices: []model.Voice{
					{Name: "main.mix", Body: `{osc -> main.fx -> out}`, File: "main.ops"},
					{Name: "main.fx", Body: `"reverb -> delay"`, File: "main.ops"},
					{Name: "main.loop", Body: `{gain -> main.loop}`, File: "main.ops"},
				},
			},
		},
	}
}

func TestChainSplitsAndStrips(t *testing.T) {
	got := Chain(`{osc -> "gain" -> out}`)
	want := []string{"osc", "gain", "out"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chain: got %+v want %+v", got, want)
	}
}

func TestBuildInlinesVoiceReferences(t *testing.T) {
	plan, err := Build(testIndex(), "main.mix", Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.Steps) != 3 {
		t.Fatalf("expected 3 top-level steps, got %+v", plan.Steps)
	}
	fx := plan.Steps[1]
	if fx.Voice != "main.fx" || len(fx.Steps) != 2 {
		t.Fatalf("voice reference not inlined: %+v", fx)
	}
	if fx.Steps[0].Text != "reverb" || fx.Steps[1].Text != "delay" {
		t.Fatalf("unexpected inlined steps: %+v", fx.Steps)
	}
	if plan.StepCount != 5 {
		t.Fatalf("expected 5 total steps, got %d", plan.StepCount)
	}
}

func TestBuildDetectsCycles(t *testing.T) {
	plan, err := Build(testIndex(), "main.loop", Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("unexpected steps: %+v", plan.Steps)
	}
	self := plan.Steps[1]
	if !self.Cycle || len(self.Steps) != 0 {
		t.Fatalf("expected cycle marker without expansion: %+v", self)
	}
}

func TestBuildDepthLimit(t *testing.T) {
	idx := &model.Index{
		Files: []model.FileSummary{{
			Path: "a.ops",
			Voices: []model.Voice{
				{Name: "a", Body: "b"},
				{Name: "b", Body: "c"},
				{Name: "c", Body: "leaf"},
			},
		}},
	}
	plan, err := Build(idx, "a", Options{Depth: 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b := plan.Steps[0]
	if b.Voice != "b" || len(b.Steps) != 1 {
		t.Fatalf("unexpected first level: %+v", b)
	}
	c := b.Steps[0]
	if c.Voice != "c" || len(c.Steps) != 0 {
		t.Fatalf("depth limit not applied: %+v", c)
	}
}

func TestBuildUnknownVoice(t *testing.T) {
	if _, err := Build(testIndex(), "ghost", Options{}); err == nil {
		t.Fatal("expected error for unknown voice")
	}
}
