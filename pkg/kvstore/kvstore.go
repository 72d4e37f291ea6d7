// Package kvstore loads and saves flat JSON objects keyed by string.
//
// It is the persistence layer shared by the permission lists. There is no
// locking here: callers must not Save the same path from two goroutines at once.
package kvstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads the JSON object stored at path.
// If the file does not exist, cannot be read, or does not decode, def is
// returned unchanged.
func Load[V any](path string, def map[string]V) map[string]V {
	m, err := Read[V](path)
	if err != nil || m == nil {
		return def
	}
	return m
}

// Read is Load without the fallback. A missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist); a file holding JSON null
// yields a nil map.
func Read[V any](path string) (map[string]V, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]V
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return m, nil
}

// Save writes m to path as indented JSON, replacing any existing content.
// The write goes through a temp file that is renamed into place.
func Save[V any](m map[string]V, path string) error {
	if m == nil {
		m = map[string]V{}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
