// Package config loads the optional per-tree .opsrc.yaml project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const FileName = ".opsrc.yaml"

// DefaultCachePath is where opsc index writes its cache unless overridden.
const DefaultCachePath = ".ops/index.json"

// Config carries project-level settings for an ops tree.
type Config struct {
	// CachePath overrides the default index cache location.
	CachePath string `yaml:"cache_path"`
	// Ignore adds .opsignore-style patterns on top of the ignore file.
	Ignore []string `yaml:"ignore"`
	// Builtins adds names to the parser's builtin exclusion vocabulary.
	// The base vocabulary can never be removed.
	Builtins []string `yaml:"builtins"`
}

// Load reads <root>/.opsrc.yaml. A missing file yields the defaults with a
// nil error; a malformed file is an error.
func Load(root string) (Config, error) {
	cfg := Config{CachePath: DefaultCachePath}

	path := filepath.Join(root, FileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{CachePath: DefaultCachePath}, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.CachePath == "" {
		cfg.CachePath = DefaultCachePath
	}
	return cfg, nil
}
