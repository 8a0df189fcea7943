// Package ignore filters paths with .opsignore patterns (a gitignore-style
// subset: globs, directory-only suffixes, and ! negation).
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const FileName = ".opsignore"

type rule struct {
	glob    string
	negated bool
	dirOnly bool
}

// Matcher evaluates slash-separated, root-relative paths against ignore
// rules. Later rules override earlier ones.
type Matcher struct {
	rules []rule
}

// ForRoot loads <root>/.opsignore when present. A missing file yields a nil
// matcher, which matches nothing.
func ForRoot(root string) (*Matcher, error) {
	f, err := os.Open(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(lines), nil
}

// New builds a Matcher from raw pattern lines. Blank lines and # comments
// are dropped.
func New(lines []string) *Matcher {
	m := &Matcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r := rule{}
		if strings.HasPrefix(line, "!") {
			r.negated = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			r.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		r.glob = line
		m.rules = append(m.rules, r)
	}
	return m
}

// Append merges extra pattern lines (from project config) after the file
// rules.
func (m *Matcher) Append(lines []string) *Matcher {
	extra := New(lines)
	if m == nil {
		return extra
	}
	m.rules = append(m.rules, extra.rules...)
	return m
}

// Match reports whether the path should be skipped. isDir marks directory
// paths so dir-only rules apply.
func (m *Matcher) Match(path string, isDir bool) bool {
	if m == nil || len(m.rules) == 0 {
		return false
	}

	path = filepath.ToSlash(path)
	skipped := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if globMatch(r.glob, path) {
			skipped = !r.negated
		}
	}
	return skipped
}

// globMatch applies a pattern. Patterns containing a slash match the whole
// relative path; bare patterns match the basename or any path component.
func globMatch(glob, path string) bool {
	if strings.Contains(glob, "/") {
		ok, _ := filepath.Match(glob, path)
		return ok
	}
	if ok, _ := filepath.Match(glob, filepath.Base(path)); ok {
		return true
	}
	for _, part := range strings.Split(path, "/") {
		if ok, _ := filepath.Match(glob, part); ok {
			return true
		}
	}
	return false
}
