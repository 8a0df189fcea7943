package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"ops-suite/internal/structdiff"
)

// watchWithFSNotify runs the change callback whenever ops files under the
// target change, debounced by the interval. Returns an error only when the
// fsnotify backend cannot be set up, so the caller can fall back to polling.
func watchWithFSNotify(ctx context.Context, target string, debounce time.Duration, ignorePaths map[string]bool, onChange func()) error {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	absTarget = filepath.Clean(absTarget)

	info, err := os.Stat(absTarget)
	if err != nil {
		return err
	}
	root := absTarget
	if !info.IsDir() {
		root = filepath.Dir(absTarget)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, root); err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	pending := false

	resetDebounce := func() {
		if pending {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		timer.Reset(debounce)
		pending = true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			eventPath := filepath.Clean(event.Name)
			if shouldIgnoreWatchPath(eventPath, ignorePaths) {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(eventPath); statErr == nil && info.IsDir() {
					_ = addWatchRecursive(watcher, eventPath)
				}
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Chmod) == 0 {
				continue
			}
			resetDebounce()
		case <-timer.C:
			if pending {
				pending = false
				onChange()
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return watchErr
		}
	}
}

func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if shouldSkipWatchDir(root, path, entry.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func shouldSkipWatchDir(root, path, name string) bool {
	if path == root {
		return false
	}
	if name == ".git" || name == ".hg" || name == ".svn" || name == "node_modules" || name == "vendor" {
		return true
	}
	return strings.HasPrefix(name, ".")
}

func shouldIgnoreWatchPath(path string, ignorePaths map[string]bool) bool {
	if ignorePaths[path] {
		return true
	}

	base := filepath.Base(path)
	if base == ".DS_Store" || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") || strings.HasPrefix(base, ".#") {
		return true
	}
	return false
}

type fileChangeSummary struct {
	File           string
	VoiceAdded     int
	VoiceRemoved   int
	VoiceModified  int
	DefAdded       int
	DefRemoved     int
	IncludeAdded   int
	IncludeRemoved int
}

func printChangeReport(report structdiff.Report, hasBaseline bool) {
	if !hasBaseline {
		fmt.Println("changes: baseline cache not found; treating current index as changed")
		return
	}

	totalIncludeAdded := 0
	totalIncludeRemoved := 0
	for _, item := range report.IncludeChanges {
		totalIncludeAdded += len(item.Added)
		totalIncludeRemoved += len(item.Removed)
	}

	fmt.Printf(
		"changes: files=%d voices=+%d -%d ~%d defs=+%d -%d includes=+%d -%d\n",
		report.Stats.ChangedFiles,
		report.Stats.AddedVoices,
		report.Stats.RemovedVoices,
		report.Stats.ModifiedVoices,
		report.Stats.AddedDefinitions,
		report.Stats.RemovedDefinitions,
		totalIncludeAdded,
		totalIncludeRemoved,
	)

	for _, summary := range summarizeChangesByFile(report) {
		parts := make([]string, 0, 4)
		if summary.VoiceAdded > 0 || summary.VoiceRemoved > 0 || summary.VoiceModified > 0 {
			parts = append(parts, fmt.Sprintf("voices:+%d -%d ~%d", summary.VoiceAdded, summary.VoiceRemoved, summary.VoiceModified))
		}
		if summary.DefAdded > 0 || summary.DefRemoved > 0 {
			parts = append(parts, fmt.Sprintf("defs:+%d -%d", summary.DefAdded, summary.DefRemoved))
		}
		if summary.IncludeAdded > 0 || summary.IncludeRemoved > 0 {
			parts = append(parts, fmt.Sprintf("includes:+%d -%d", summary.IncludeAdded, summary.IncludeRemoved))
		}
		if len(parts) == 0 {
			continue
		}
		fmt.Printf("  %s %s\n", summary.File, strings.Join(parts, " "))
	}
}

func summarizeChangesByFile(report structdiff.Report) []fileChangeSummary {
	byFile := map[string]*fileChangeSummary{}
	ensure := func(path string) *fileChangeSummary {
		if existing, ok := byFile[path]; ok {
			return existing
		}
		created := &fileChangeSummary{File: path}
		byFile[path] = created
		return created
	}

	for _, item := range report.AddedVoices {
		ensure(item.File).VoiceAdded++
	}
	for _, item := range report.RemovedVoices {
		ensure(item.File).VoiceRemoved++
	}
	for _, item := range report.ModifiedVoices {
		ensure(item.After.File).VoiceModified++
	}
	for _, item := range report.AddedDefinitions {
		ensure(item.File).DefAdded++
	}
	for _, item := range report.RemovedDefinitions {
		ensure(item.File).DefRemoved++
	}
	for _, item := range report.IncludeChanges {
		summary := ensure(item.File)
		summary.IncludeAdded += len(item.Added)
		summary.IncludeRemoved += len(item.Removed)
	}

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	out := make([]fileChangeSummary, 0, len(files))
	for _, file := range files {
		out = append(out, *byFile[file])
	}
	return out
}
