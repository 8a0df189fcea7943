// Package expand builds immutable symbol-expansion snapshots from ops
// resolution bases, mapping filename stems to candidate include paths.
package expand

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is a resolved expansion candidate for a filename stem.
// Origin is "." for a file sitting directly in a base, or the name of the
// subdirectory that contains it.
type Entry struct {
	Stem   string `json:"stem"`
	Path   string `json:"path"`
	Origin string `json:"origin"`
}

// Snapshot is a pre-scanned view of the filesystem used to resolve symbol
// references without touching the disk again. Parsing against the same
// snapshot is deterministic regardless of platform readdir order.
type Snapshot struct {
	entries map[string]Entry
	direct  map[string]bool
	bases   []string
}

// ScanFor derives the resolution bases for a source file (its directory,
// then the parent directory) and scans them.
func ScanFor(sourcePath string) *Snapshot {
	dir := filepath.Dir(filepath.Clean(sourcePath))
	parent := filepath.Dir(dir)
	if parent == dir {
		return Scan(dir)
	}
	return Scan(dir, parent)
}

// Scan catalogues every .ops file found directly in a base, or inside a
// subdirectory one level down. Stems are claimed first-wins in a fixed
// order: bases in argument order, subdirectory entries before direct
// siblings, alphabetical within each class. Unreadable directories are
// skipped.
func Scan(bases ...string) *Snapshot {
	snapshot := &Snapshot{
		entries: make(map[string]Entry),
		direct:  make(map[string]bool),
	}

	for _, base := range bases {
		base = filepath.Clean(base)
		if strings.TrimSpace(base) == "" {
			continue
		}
		snapshot.bases = append(snapshot.bases, base)

		listing, err := os.ReadDir(base)
		if err != nil {
			continue
		}

		var subdirs []string
		var files []string
		for _, entry := range listing {
			name := entry.Name()
			if entry.IsDir() {
				if strings.HasPrefix(name, ".") {
					continue
				}
				subdirs = append(subdirs, name)
				continue
			}
			if isOpsFile(name) {
				files = append(files, name)
			}
		}
		sort.Strings(subdirs)
		sort.Strings(files)

		for _, subdir := range subdirs {
			nested, err := os.ReadDir(filepath.Join(base, subdir))
			if err != nil {
				continue
			}
			names := make([]string, 0, len(nested))
			for _, entry := range nested {
				if !entry.IsDir() && isOpsFile(entry.Name()) {
					names = append(names, entry.Name())
				}
			}
			sort.Strings(names)
			for _, name := range names {
				snapshot.claim(stemOf(name), filepath.Join(base, subdir, name), subdir)
			}
		}

		for _, name := range files {
			path := filepath.Join(base, name)
			snapshot.direct[path] = true
			snapshot.claim(stemOf(name), path, ".")
		}
	}

	return snapshot
}

func (s *Snapshot) claim(stem, path, origin string) {
	if _, taken := s.entries[stem]; taken {
		return
	}
	s.entries[stem] = Entry{Stem: stem, Path: path, Origin: origin}
}

// Lookup returns the expansion entry claimed by a stem, if any.
func (s *Snapshot) Lookup(stem string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	entry, ok := s.entries[stem]
	return entry, ok
}

// Probe checks the resolution bases for a file with the given name,
// returning the first hit in base order. Only files seen directly in a base
// during the scan qualify.
func (s *Snapshot) Probe(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, base := range s.bases {
		candidate := filepath.Join(base, name)
		if s.direct[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// Len returns the number of claimed stems.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns all claimed entries sorted by stem.
func (s *Snapshot) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stem < out[j].Stem })
	return out
}

func isOpsFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".ops")
}

func stemOf(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
