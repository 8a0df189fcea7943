package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ops-suite/internal/model"
	"ops-suite/internal/structdiff"
)

func TestNewRootCmd_HasCoreCommands(t *testing.T) {
	root := newRootCmd()

	registered := map[string]bool{}
	for _, sub := range root.Commands() {
		registered[sub.Name()] = true
	}

	for _, name := range []string{"parse", "index", "map", "files", "stats", "voices", "includes", "compose", "diff"} {
		if !registered[name] {
			t.Fatalf("missing command %q", name)
		}
	}
}

func TestShouldSkipWatchDir(t *testing.T) {
	root := filepath.Clean("/tmp/tree")
	cases := []struct {
		path string
		name string
		want bool
	}{
		{path: root, name: "tree", want: false},
		{path: filepath.Join(root, ".git"), name: ".git", want: true},
		{path: filepath.Join(root, "vendor"), name: "vendor", want: true},
		{path: filepath.Join(root, ".hidden"), name: ".hidden", want: true},
		{path: filepath.Join(root, "patches"), name: "patches", want: false},
	}

	for _, tc := range cases {
		got := shouldSkipWatchDir(root, tc.path, tc.name)
		if got != tc.want {
			t.Fatalf("shouldSkipWatchDir(%q,%q)=%v want=%v", tc.path, tc.name, got, tc.want)
		}
	}
}

func TestShouldIgnoreWatchPath(t *testing.T) {
	ignored := map[string]bool{
		filepath.Clean("/tmp/tree/.ops/index.json"): true,
	}

	if !shouldIgnoreWatchPath(filepath.Clean("/tmp/tree/.ops/index.json"), ignored) {
		t.Fatal("expected explicit ignored path to be ignored")
	}
	if !shouldIgnoreWatchPath(filepath.Clean("/tmp/tree/.#main.ops"), ignored) {
		t.Fatal("expected editor lockfile to be ignored")
	}
	if shouldIgnoreWatchPath(filepath.Clean("/tmp/tree/main.ops"), ignored) {
		t.Fatal("did not expect regular ops file to be ignored")
	}
}

func TestSummarizeChangesByFile(t *testing.T) {
	report := structdiff.Report{
		AddedVoices: []model.Voice{
			{File: "a.ops"},
			{File: "a.ops"},
			{File: "b.ops"},
		},
		RemovedVoices: []model.Voice{
			{File: "a.ops"},
		},
		ModifiedVoices: []structdiff.VoiceChange{
			{After: model.Voice{File: "b.ops"}},
		},
		IncludeChanges: []structdiff.FileIncludeChange{
			{File: "a.ops", Added: []string{"mixer.ops"}, Removed: []string{"old.ops", "gone.ops"}},
		},
	}

	summaries := summarizeChangesByFile(report)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 file summaries, got %d", len(summaries))
	}
	first := summaries[0]
	if first.File != "a.ops" || first.VoiceAdded != 2 || first.VoiceRemoved != 1 || first.IncludeAdded != 1 || first.IncludeRemoved != 2 {
		t.Fatalf("unexpected summary for a.ops: %+v", first)
	}
	second := summaries[1]
	if second.File != "b.ops" || second.VoiceAdded != 1 || second.VoiceModified != 1 {
		t.Fatalf("unexpected summary for b.ops: %+v", second)
	}
}

func TestIndexOnceIfChanged(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, ".ops", "index.json")
	sourcePath := filepath.Join(tmpDir, "main.ops")

	writeSource := func(body string) {
		t.Helper()
		if err := os.WriteFile(sourcePath, []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	runIndexOnce := func() error {
		root := newRootCmd()
		root.SetArgs([]string{"index", tmpDir, "--out", outPath, "--once-if-changed"})
		return root.Execute()
	}

	writeSource("def lead\nvoice lead / {\"a\" -> \"b\"}\n")

	// First run: no baseline cache means changed.
	err := runIndexOnce()
	if err == nil {
		t.Fatal("expected once-if-changed to return change exit on first run")
	}
	assertExitCode(t, err, 2)

	// Second run: unchanged input should return success.
	if err := runIndexOnce(); err != nil {
		t.Fatalf("expected unchanged second run to succeed, got %v", err)
	}

	// Third run: add a voice so changes are detected again.
	writeSource("def lead\nvoice lead / {\"a\" -> \"b\"}\nvoice pad / \"hold\"\n")
	err = runIndexOnce()
	if err == nil {
		t.Fatal("expected changed third run to return change exit")
	}
	assertExitCode(t, err, 2)
}

func TestRunStatsOutput(t *testing.T) {
	tmpDir := t.TempDir()
	sourcePath := filepath.Join(tmpDir, "main.ops")
	source := "def lead\nvoice lead / {\"a\" -> \"b\"}\nvoice pad / \"hold\"\n"
	if err := os.WriteFile(sourcePath, []byte(source), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	text := captureStdout(t, func() error {
		root := newRootCmd()
		root.SetArgs([]string{"stats", tmpDir, "--top", "5"})
		return root.Execute()
	})

	for _, expected := range []string{"stats: files=1 voices=2 defs=1", "events:", "top files"} {
		if !strings.Contains(text, expected) {
			t.Fatalf("expected output to contain %q, got:\n%s", expected, text)
		}
	}
}

func TestRunVoicesCount(t *testing.T) {
	tmpDir := t.TempDir()
	sourcePath := filepath.Join(tmpDir, "main.ops")
	source := "voice lead / \"a\"\nvoice pad / \"b\"\n"
	if err := os.WriteFile(sourcePath, []byte(source), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	text := captureStdout(t, func() error {
		root := newRootCmd()
		root.SetArgs([]string{"voices", ".*", tmpDir, "--regex", "--count"})
		return root.Execute()
	})

	if strings.TrimSpace(text) != "matches: 2" {
		t.Fatalf("unexpected count output %q", text)
	}
}

func TestRunComposeExpandsVoiceReferences(t *testing.T) {
	tmpDir := t.TempDir()
	sourcePath := filepath.Join(tmpDir, "main.ops")
	source := "voice lead / {\"intro\" -> pad}\nvoice pad / {\"hold\" -> \"release\"}\n"
	if err := os.WriteFile(sourcePath, []byte(source), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	text := captureStdout(t, func() error {
		root := newRootCmd()
		root.SetArgs([]string{"compose", "lead", tmpDir})
		return root.Execute()
	})

	for _, expected := range []string{"compose lead", "pad (voice)", "release"} {
		if !strings.Contains(text, expected) {
			t.Fatalf("expected output to contain %q, got:\n%s", expected, text)
		}
	}
}

func captureStdout(t *testing.T, run func() error) string {
	t.Helper()

	originalStdout := os.Stdout
	readPipe, writePipe, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe failed: %v", err)
	}
	os.Stdout = writePipe
	defer func() {
		os.Stdout = originalStdout
	}()

	runErr := run()
	_ = writePipe.Close()
	if runErr != nil {
		t.Fatalf("command returned error: %v", runErr)
	}

	var output bytes.Buffer
	if _, err := output.ReadFrom(readPipe); err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	return output.String()
}

func assertExitCode(t *testing.T, err error, want int) {
	t.Helper()
	withCode, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatalf("expected error with exit code, got %T (%v)", err, err)
	}
	if got := withCode.ExitCode(); got != want {
		t.Fatalf("unexpected exit code: got=%d want=%d err=%v", got, want, err)
	}
}
