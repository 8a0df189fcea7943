// Package index builds and caches structural snapshots of ops trees by
// walking for .ops files and parsing each one against a per-directory
// expansion snapshot.
package index

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ops-suite/internal/expand"
	"ops-suite/internal/ignore"
	"ops-suite/internal/model"
	"ops-suite/internal/opsparse"
)

const schemaVersion = "0.1.0"

type Builder struct {
	ignore   *ignore.Matcher
	builtins []string
}

type BuildStats struct {
	CandidateFiles int `json:"candidate_files"`
	ParsedFiles    int `json:"parsed_files"`
	ReusedFiles    int `json:"reused_files"`
}

func NewBuilder() *Builder {
	return &Builder{}
}

// SetIgnore configures an .opsignore-style matcher to skip paths.
func (b *Builder) SetIgnore(m *ignore.Matcher) {
	b.ignore = m
}

// SetBuiltins extends the parser builtin vocabulary for every parsed file.
func (b *Builder) SetBuiltins(names []string) {
	b.builtins = names
}

func (b *Builder) BuildPath(path string) (*model.Index, error) {
	idx, _, err := b.BuildPathIncremental(path, nil)
	return idx, err
}

// BuildPathIncremental builds an index for a file or tree, reusing summaries
// from a previous index when a file's size and mtime are unchanged.
func (b *Builder) BuildPathIncremental(path string, previous *model.Index) (*model.Index, BuildStats, error) {
	stats := BuildStats{}

	if strings.TrimSpace(path) == "" {
		path = "."
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, stats, err
	}
	target = filepath.Clean(target)

	info, err := os.Stat(target)
	if err != nil {
		return nil, stats, err
	}

	root := target
	var candidates []sourceCandidate
	if info.IsDir() {
		candidates, err = b.collectCandidates(target)
		if err != nil {
			return nil, stats, err
		}
	} else {
		root = filepath.Dir(target)
		candidates = append(candidates, sourceCandidate{
			Path:            target,
			SizeBytes:       info.Size(),
			ModTimeUnixNano: info.ModTime().UnixNano(),
		})
	}
	root = filepath.Clean(root)

	idx := &model.Index{
		Version:     schemaVersion,
		Root:        root,
		GeneratedAt: time.Now().UTC(),
	}

	previousByPath := previousFilesByPath(previous, root)
	snapshots := scanSnapshots(candidates)

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Path < candidates[j].Path
	})

	tasks := make([]parseTask, 0, len(candidates))
	ordered := make([]model.FileSummary, 0, len(candidates))
	valid := make([]bool, 0, len(candidates))
	for _, candidate := range candidates {
		stats.CandidateFiles++

		relPath, relErr := filepath.Rel(root, candidate.Path)
		if relErr != nil {
			relPath = candidate.Path
		}
		relPath = filepath.ToSlash(relPath)

		if previousFile, ok := previousByPath[relPath]; ok && canReuseSummary(previousFile, candidate) {
			reused := previousFile
			reused.Path = relPath
			ordered = append(ordered, reused)
			valid = append(valid, true)
			stats.ReusedFiles++
			continue
		}

		position := len(ordered)
		ordered = append(ordered, model.FileSummary{})
		valid = append(valid, false)
		tasks = append(tasks, parseTask{
			Position:        position,
			FilePath:        candidate.Path,
			RelPath:         relPath,
			Snapshot:        snapshots[filepath.Dir(candidate.Path)],
			SizeBytes:       candidate.SizeBytes,
			ModTimeUnixNano: candidate.ModTimeUnixNano,
		})
	}

	for _, result := range b.parseFiles(tasks) {
		if result.Err != nil {
			idx.Errors = append(idx.Errors, model.ReadError{
				Path:  result.RelPath,
				Error: result.Err.Error(),
			})
			continue
		}
		ordered[result.Position] = result.Summary
		valid[result.Position] = true
		stats.ParsedFiles++
	}

	idx.Files = make([]model.FileSummary, 0, len(ordered))
	for i, ok := range valid {
		if ok {
			idx.Files = append(idx.Files, ordered[i])
		}
	}
	return idx, stats, nil
}

type parseTask struct {
	Position        int
	FilePath        string
	RelPath         string
	Snapshot        *expand.Snapshot
	SizeBytes       int64
	ModTimeUnixNano int64
}

type parseResult struct {
	Position int
	RelPath  string
	Summary  model.FileSummary
	Err      error
}

type sourceCandidate struct {
	Path            string
	SizeBytes       int64
	ModTimeUnixNano int64
}

// scanSnapshots builds one expansion snapshot per candidate directory so the
// parse workers never touch the filesystem for resolution.
func scanSnapshots(candidates []sourceCandidate) map[string]*expand.Snapshot {
	snapshots := make(map[string]*expand.Snapshot)
	for _, candidate := range candidates {
		dir := filepath.Dir(candidate.Path)
		if _, ok := snapshots[dir]; ok {
			continue
		}
		snapshots[dir] = expand.ScanFor(candidate.Path)
	}
	return snapshots
}

func (b *Builder) parseFiles(tasks []parseTask) []parseResult {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]parseResult, len(tasks))
	workers := indexWorkerCount(len(tasks))

	taskCh := make(chan int, len(tasks))
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range taskCh {
				task := tasks[idx]
				result := parseResult{Position: task.Position, RelPath: task.RelPath}

				source, readErr := os.ReadFile(task.FilePath)
				if readErr != nil {
					result.Err = readErr
					results[idx] = result
					continue
				}

				parsed := opsparse.Parse(string(source), opsparse.Options{
					SourceDir: filepath.Dir(task.FilePath),
					Snapshot:  task.Snapshot,
					Builtins:  b.builtins,
				})
				summary := summarize(task.RelPath, parsed)
				summary.SizeBytes = task.SizeBytes
				summary.ModTimeUnixNano = task.ModTimeUnixNano
				result.Summary = summary
				results[idx] = result
			}
		}()
	}

	for i := range tasks {
		taskCh <- i
	}
	close(taskCh)
	wg.Wait()
	return results
}

// summarize flattens a parse result into the cacheable per-file form.
func summarize(relPath string, parsed opsparse.Result) model.FileSummary {
	summary := model.FileSummary{
		Path:     relPath,
		Includes: parsed.Includes,
		Symbols:  parsed.Symbols,
	}

	for _, def := range parsed.Definitions {
		def.File = relPath
		summary.Definitions = append(summary.Definitions, def)
	}
	sort.Slice(summary.Definitions, func(i, j int) bool {
		if summary.Definitions[i].Line == summary.Definitions[j].Line {
			return summary.Definitions[i].Name < summary.Definitions[j].Name
		}
		return summary.Definitions[i].Line < summary.Definitions[j].Line
	})

	for _, voice := range parsed.Voices {
		voice.File = relPath
		summary.Voices = append(summary.Voices, voice)
	}
	sort.Slice(summary.Voices, func(i, j int) bool {
		if summary.Voices[i].StartLine == summary.Voices[j].StartLine {
			return summary.Voices[i].Name < summary.Voices[j].Name
		}
		return summary.Voices[i].StartLine < summary.Voices[j].StartLine
	})

	if len(parsed.Events) > 0 {
		summary.EventCounts = make(map[string]int, 6)
		for _, event := range parsed.Events {
			summary.EventCounts[event.Kind]++
		}
	}
	return summary
}

func indexWorkerCount(taskCount int) int {
	if taskCount <= 0 {
		return 0
	}

	if raw := strings.TrimSpace(os.Getenv("OPS_INDEX_WORKERS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > taskCount {
				return taskCount
			}
			return parsed
		}
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > taskCount {
		workers = taskCount
	}
	return workers
}

func previousFilesByPath(previous *model.Index, root string) map[string]model.FileSummary {
	reused := map[string]model.FileSummary{}
	if previous == nil {
		return reused
	}
	if filepath.Clean(previous.Root) != root {
		return reused
	}
	for _, file := range previous.Files {
		reused[file.Path] = file
	}
	return reused
}

func canReuseSummary(summary model.FileSummary, candidate sourceCandidate) bool {
	return summary.SizeBytes == candidate.SizeBytes &&
		summary.ModTimeUnixNano == candidate.ModTimeUnixNano
}

func (b *Builder) collectCandidates(root string) ([]sourceCandidate, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is empty")
	}

	files := make([]sourceCandidate, 0, 64)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() {
			name := entry.Name()
			if path != root {
				if name == ".git" || name == ".hg" || name == ".svn" || name == "node_modules" || name == "vendor" {
					return filepath.SkipDir
				}
				if strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				if b.ignore != nil {
					relPath, relErr := filepath.Rel(root, path)
					if relErr == nil && b.ignore.Match(filepath.ToSlash(relPath), true) {
						return filepath.SkipDir
					}
				}
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".ops") {
			return nil
		}
		if b.ignore != nil {
			relPath, relErr := filepath.Rel(root, path)
			if relErr == nil && b.ignore.Match(filepath.ToSlash(relPath), false) {
				return nil
			}
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		files = append(files, sourceCandidate{
			Path:            path,
			SizeBytes:       info.Size(),
			ModTimeUnixNano: info.ModTime().UnixNano(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
