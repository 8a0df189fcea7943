package includegraph

import (
	"reflect"
	"testing"

	"ops-suite/internal/model"
)

func testIndex() *model.Index {
	return &model.Index{
		Root: "/tmp/songs",
		Files: []model.FileSummary{
			{Path: "main.ops", Includes: []string{"helper.ops", "lib/filter.ops"}},
			{Path: "helper.ops", Includes: []string{"lib/filter.ops"}},
			{Path: "lib/filter.ops", Includes: []string{"missing.ops"}},
		},
	}
}

func TestBuildCountsEdges(t *testing.T) {
	report, err := Build(testIndex(), Options{Top: 5, IncludeEdges: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.EdgeCount != 4 {
		t.Fatalf("expected 4 edges, got %d: %+v", report.EdgeCount, report.Edges)
	}
	if report.InternalEdgeCount != 3 || report.ExternalEdgeCount != 1 {
		t.Fatalf("unexpected internal/external split: %+v", report)
	}
	if report.TopIncoming[0].Node != "lib/filter.ops" || report.TopIncoming[0].Incoming != 2 {
		t.Fatalf("unexpected fan-in ranking: %+v", report.TopIncoming)
	}
}

func TestBuildRelativeIncludeResolution(t *testing.T) {
	idx := &model.Index{
		Root: "/tmp/songs",
		Files: []model.FileSummary{
			{Path: "songs/main.ops", Includes: []string{"../shared.ops"}},
			{Path: "shared.ops"},
		},
	}
	report, err := Build(idx, Options{IncludeEdges: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(report.Edges) != 1 || report.Edges[0].To != "shared.ops" || !report.Edges[0].Internal {
		t.Fatalf("unexpected edges: %+v", report.Edges)
	}
}

func TestFocusWalkForwardAndReverse(t *testing.T) {
	report, err := Build(testIndex(), Options{Focus: "main.ops", Depth: 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{"helper.ops", "lib/filter.ops", "lib/missing.ops"}
	if !reflect.DeepEqual(report.FocusWalk, want) {
		t.Fatalf("forward walk: got %+v want %+v", report.FocusWalk, want)
	}

	report, err = Build(testIndex(), Options{Focus: "lib/filter.ops", Depth: 1, Reverse: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want = []string{"helper.ops", "main.ops"}
	if !reflect.DeepEqual(report.FocusWalk, want) {
		t.Fatalf("reverse walk: got %+v want %+v", report.FocusWalk, want)
	}
}

func TestBuildNilIndex(t *testing.T) {
	if _, err := Build(nil, Options{}); err == nil {
		t.Fatal("expected error for nil index")
	}
}
