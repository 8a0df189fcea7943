package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatchBasenameAndPath(t *testing.T) {
	m := New([]string{"*.bak", "drafts/", "scratch/*.ops", "!scratch/keep.ops"})

	cases := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"song.bak", false, true},
		{"lib/song.bak", false, true},
		{"drafts", true, true},
		{"drafts", false, false},
		{"scratch/junk.ops", false, true},
		{"scratch/keep.ops", false, false},
		{"song.ops", false, false},
	}
	for _, tc := range cases {
		if got := m.Match(tc.path, tc.isDir); got != tc.want {
			t.Fatalf("Match(%q, %t) = %t, want %t", tc.path, tc.isDir, got, tc.want)
		}
	}
}

func TestNilMatcherMatchesNothing(t *testing.T) {
	var m *Matcher
	if m.Match("anything.ops", false) {
		t.Fatal("nil matcher must match nothing")
	}
}

func TestAppendOnNil(t *testing.T) {
	var m *Matcher
	m = m.Append([]string{"*.tmp"})
	if !m.Match("x.tmp", false) {
		t.Fatal("appended rule not applied")
	}
}

func TestForRoot(t *testing.T) {
	root := t.TempDir()
	if _, err := ForRoot(root); err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}

	content := "# comment\n*.bak\n"
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ForRoot(root)
	if err != nil {
		t.Fatalf("ForRoot: %v", err)
	}
	if !m.Match("old.bak", false) {
		t.Fatal("pattern from file not applied")
	}
}
