package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ops-suite/internal/config"
	"ops-suite/internal/index"
	"ops-suite/internal/logger"
	"ops-suite/internal/model"
	"ops-suite/internal/structdiff"
)

func newIndexCmd() *cobra.Command {
	var outPath string
	var jsonOutput bool
	var incremental bool
	var watch bool
	var poll bool
	var reportChanges bool
	var onceIfChanged bool
	var debug bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build a structural index of an ops tree and optionally cache it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && interval <= 0 {
				return fmt.Errorf("interval must be > 0 in watch mode")
			}
			if watch && onceIfChanged {
				return fmt.Errorf("--once-if-changed cannot be used with --watch")
			}
			if onceIfChanged {
				reportChanges = true
			}

			target := "."
			if len(args) == 1 {
				target = args[0]
			}

			builder, cfg, err := newBuilder(target)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("out") && cfg.CachePath != "" {
				outPath = cfg.CachePath
			}
			if onceIfChanged && strings.TrimSpace(outPath) == "" {
				return fmt.Errorf("--once-if-changed requires a cache path for the baseline")
			}

			var previous *model.Index
			hasBaseline := false
			if strings.TrimSpace(outPath) != "" {
				cached, err := index.Load(outPath)
				switch {
				case err == nil:
					previous = cached
					hasBaseline = true
				case os.IsNotExist(err):
				case errors.Is(err, index.ErrSchemaMismatch):
					// stale cache: rebuild from scratch
				default:
					return fmt.Errorf("load cache %s: %w", outPath, err)
				}
			}

			buildOnce := func(base *model.Index) (*model.Index, index.BuildStats, error) {
				if incremental {
					return builder.BuildPathIncremental(target, base)
				}
				idx, err := builder.BuildPath(target)
				return idx, index.BuildStats{}, err
			}

			buildBase := (*model.Index)(nil)
			if incremental {
				buildBase = previous
			}

			idx, stats, err := buildOnce(buildBase)
			if err != nil {
				return err
			}

			report := structdiff.Report{}
			changed := true
			if hasBaseline {
				report = structdiff.Compare(previous, idx)
				changed = report.Stats.ChangedFiles > 0 || !readErrorsEqual(previous.Errors, idx.Errors)
			}

			if strings.TrimSpace(outPath) != "" && (!onceIfChanged || changed || !hasBaseline) {
				if err := index.Save(outPath, idx); err != nil {
					return err
				}
			}

			if jsonOutput {
				if err := emitJSON(idx); err != nil {
					return err
				}
			} else {
				printIndexSummary(idx, stats, incremental)
				if strings.TrimSpace(outPath) != "" {
					fmt.Printf("cache: %s\n", outPath)
				}
				if reportChanges {
					printChangeReport(report, hasBaseline)
				}
			}

			if onceIfChanged {
				if changed {
					return exitCodeError{
						code: 2,
						err:  errors.New("structural changes detected"),
					}
				}
				if !jsonOutput {
					fmt.Println("once-if-changed: no structural changes")
				}
				return nil
			}

			if !watch {
				return nil
			}

			cleanup, logErr := logger.Setup(logger.Config{Root: idx.Root, Debug: debug})
			if logErr == nil && cleanup != nil {
				defer func() { _ = cleanup() }()
			}

			fmt.Printf("watching: interval=%s target=%s\n", interval.String(), target)
			logger.L().Info("watch started", "target", target, "interval", interval.String())
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			current := idx
			onChange := func() {
				base := (*model.Index)(nil)
				if incremental {
					base = current
				}

				next, nextStats, err := buildOnce(base)
				if err != nil {
					fmt.Fprintf(os.Stderr, "watch build error: %v\n", err)
					logger.L().Error("watch build failed", "error", err.Error())
					return
				}

				watchReport := structdiff.Compare(current, next)
				watchChanged := watchReport.Stats.ChangedFiles > 0 || !readErrorsEqual(current.Errors, next.Errors)
				if !watchChanged {
					return
				}

				current = next
				if strings.TrimSpace(outPath) != "" {
					if err := index.Save(outPath, next); err != nil {
						fmt.Fprintf(os.Stderr, "watch save error: %v\n", err)
						logger.L().Error("watch save failed", "error", err.Error())
					}
				}

				if jsonOutput {
					if err := emitJSON(next); err != nil {
						fmt.Fprintf(os.Stderr, "watch json error: %v\n", err)
					}
					return
				}

				fmt.Printf("watch: changed files=%d voices=+%d -%d ~%d\n",
					watchReport.Stats.ChangedFiles,
					watchReport.Stats.AddedVoices,
					watchReport.Stats.RemovedVoices,
					watchReport.Stats.ModifiedVoices)
				logger.L().Info("watch rebuild",
					"changed_files", watchReport.Stats.ChangedFiles,
					"added_voices", watchReport.Stats.AddedVoices,
					"removed_voices", watchReport.Stats.RemovedVoices,
					"modified_voices", watchReport.Stats.ModifiedVoices)
				printIndexSummary(next, nextStats, incremental)
				if reportChanges {
					printChangeReport(watchReport, true)
				}
			}

			ignorePaths := map[string]bool{}
			if strings.TrimSpace(outPath) != "" {
				if absOut, err := filepath.Abs(outPath); err == nil {
					ignorePaths[filepath.Clean(absOut)] = true
				}
			}

			if !poll {
				if err := watchWithFSNotify(ctx, target, interval, ignorePaths, onChange); err == nil {
					fmt.Println("watch: stopped")
					return nil
				} else {
					fmt.Fprintf(os.Stderr, "watch backend fallback to polling: %v\n", err)
				}
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					fmt.Println("watch: stopped")
					return nil
				case <-ticker.C:
					onChange()
				}
			}
		},
	}

	cmd.Flags().StringVar(&outPath, "out", config.DefaultCachePath, "output path for index cache")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit index JSON to stdout")
	cmd.Flags().BoolVar(&incremental, "incremental", true, "reuse unchanged files from previous index cache")
	cmd.Flags().BoolVar(&watch, "watch", false, "watch for structural changes and rebuild continuously")
	cmd.Flags().BoolVar(&poll, "poll", false, "force polling watch mode instead of fsnotify")
	cmd.Flags().BoolVar(&reportChanges, "report-changes", false, "print grouped structural change summary against previous cache")
	cmd.Flags().BoolVar(&onceIfChanged, "once-if-changed", false, "exit with code 2 when structural changes are detected")
	cmd.Flags().BoolVar(&debug, "debug", false, "verbose logging to .ops/logs/opsc.log in watch mode")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "debounce/poll interval for watch mode")
	return cmd
}

func readErrorsEqual(left, right []model.ReadError) bool {
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i].Path != right[i].Path || left[i].Error != right[i].Error {
			return false
		}
	}
	return true
}

func printIndexSummary(idx *model.Index, stats index.BuildStats, incremental bool) {
	if incremental {
		fmt.Printf(
			"indexed: files=%d voices=%d defs=%d errors=%d root=%s parsed=%d reused=%d\n",
			idx.FileCount(),
			idx.VoiceCount(),
			idx.DefinitionCount(),
			len(idx.Errors),
			idx.Root,
			stats.ParsedFiles,
			stats.ReusedFiles,
		)
		return
	}

	fmt.Printf("indexed: files=%d voices=%d defs=%d errors=%d root=%s\n",
		idx.FileCount(), idx.VoiceCount(), idx.DefinitionCount(), len(idx.Errors), idx.Root)
}
