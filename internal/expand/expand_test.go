package expand

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("def x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestScanClaimsStems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "osc.ops"))
	writeFile(t, filepath.Join(dir, "lib", "filter.ops"))
	writeFile(t, filepath.Join(dir, "notes.txt"))

	snapshot := Scan(dir)
	if snapshot.Len() != 2 {
		t.Fatalf("expected 2 stems, got %d: %+v", snapshot.Len(), snapshot.Entries())
	}

	osc, ok := snapshot.Lookup("osc")
	if !ok || osc.Origin != "." {
		t.Fatalf("unexpected osc entry: %+v ok=%t", osc, ok)
	}
	filter, ok := snapshot.Lookup("filter")
	if !ok || filter.Origin != "lib" {
		t.Fatalf("unexpected filter entry: %+v ok=%t", filter, ok)
	}
}

func TestScanSubdirectoryClaimsBeforeSibling(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "helper.ops"))
	writeFile(t, filepath.Join(dir, "zlib", "helper.ops"))

	snapshot := Scan(dir)
	entry, ok := snapshot.Lookup("helper")
	if !ok {
		t.Fatal("helper not claimed")
	}
	if entry.Origin != "zlib" {
		t.Fatalf("expected subdirectory claim to win, got origin %q", entry.Origin)
	}
}

func TestScanFirstBaseWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(first, "shared.ops"))
	writeFile(t, filepath.Join(second, "shared.ops"))

	snapshot := Scan(first, second)
	entry, ok := snapshot.Lookup("shared")
	if !ok {
		t.Fatal("shared not claimed")
	}
	if entry.Path != filepath.Join(first, "shared.ops") {
		t.Fatalf("expected first base to win, got %q", entry.Path)
	}
}

func TestProbeOnlyDirectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "osc.ops"))
	writeFile(t, filepath.Join(dir, "lib", "filter.ops"))

	snapshot := Scan(dir)
	if _, ok := snapshot.Probe("osc.ops"); !ok {
		t.Fatal("expected direct file to be probed")
	}
	if _, ok := snapshot.Probe("filter.ops"); ok {
		t.Fatal("nested file must not satisfy a direct probe")
	}
}

func TestScanForUsesParentBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shared.ops"))
	writeFile(t, filepath.Join(dir, "songs", "main.ops"))

	snapshot := ScanFor(filepath.Join(dir, "songs", "main.ops"))
	if _, ok := snapshot.Lookup("shared"); !ok {
		t.Fatalf("expected parent-directory stem, got %+v", snapshot.Entries())
	}
}

func TestScanSkipsUnreadableBase(t *testing.T) {
	snapshot := Scan(filepath.Join(t.TempDir(), "missing"))
	if snapshot.Len() != 0 {
		t.Fatalf("expected empty snapshot, got %d", snapshot.Len())
	}
}
