package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"ops-suite/internal/config"
	"ops-suite/internal/ignore"
	"ops-suite/internal/index"
	"ops-suite/internal/model"
)

// newBuilder prepares a builder for a target, applying the tree's
// .opsrc.yaml and .opsignore when present.
func newBuilder(target string) (*index.Builder, config.Config, error) {
	root, err := filepath.Abs(target)
	if err != nil {
		return nil, config.Config{}, err
	}
	if info, statErr := os.Stat(root); statErr == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, config.Config{}, err
	}

	matcher, err := ignore.ForRoot(root)
	if err != nil {
		return nil, config.Config{}, err
	}
	if len(cfg.Ignore) > 0 {
		matcher = matcher.Append(cfg.Ignore)
	}

	builder := index.NewBuilder()
	builder.SetIgnore(matcher)
	builder.SetBuiltins(cfg.Builtins)
	return builder, cfg, nil
}

func loadOrBuild(cachePath string, target string) (*model.Index, error) {
	if strings.TrimSpace(cachePath) != "" {
		return index.Load(cachePath)
	}
	builder, _, err := newBuilder(target)
	if err != nil {
		return nil, err
	}
	return builder.BuildPath(target)
}

func emitJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
