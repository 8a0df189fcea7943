package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ops-suite/internal/model"
)

// ErrSchemaMismatch is returned by Load when the cache was written under a
// different index schema version and must be rebuilt.
var ErrSchemaMismatch = errors.New("index cache schema mismatch")

// Save writes the index cache as indented JSON. The payload goes to a temp
// file in the cache directory first and is renamed into place, so an
// interrupted run never leaves a half-written cache for the next --watch or
// --once-if-changed baseline load to trip over.
func Save(path string, idx *model.Index) error {
	if idx == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(idx); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a cached index and rejects caches written under a different
// schema version.
func Load(path string) (*model.Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var idx model.Index
	if err := json.NewDecoder(file).Decode(&idx); err != nil {
		return nil, err
	}
	if idx.Version != schemaVersion {
		return nil, fmt.Errorf("%w: %s has version %q, want %q", ErrSchemaMismatch, path, idx.Version, schemaVersion)
	}
	return &idx, nil
}
