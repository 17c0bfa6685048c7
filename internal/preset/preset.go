// Package preset persists named filter configurations to a flat TOML
// file so an analyst can switch between saved filter sets.
package preset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Preset is one saved filter configuration: value filters plus an
// optional date range. Projection, sampling and row limit are deliberate
// omissions; they belong to the current working state, not to a preset.
type Preset struct {
	Filters   map[string][]string `toml:"filters"`
	DateStart string              `toml:"date_start,omitempty"`
	DateEnd   string              `toml:"date_end,omitempty"`
}

// Store reads and writes the preset file. Semantics are load-all /
// save-all / delete-one; the file is small and rewritten wholesale.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns all presets by name. A missing file is an empty store,
// not an error.
func (s *Store) Load() (map[string]Preset, error) {
	presets := map[string]Preset{}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return presets, nil
	}
	if _, err := toml.DecodeFile(s.path, &presets); err != nil {
		return nil, fmt.Errorf("decode presets %s: %w", s.path, err)
	}
	return presets, nil
}

// Save adds or replaces one preset.
func (s *Store) Save(name string, p Preset) error {
	if name == "" {
		return fmt.Errorf("preset name must not be empty")
	}
	presets, err := s.Load()
	if err != nil {
		return err
	}
	presets[name] = p
	return s.write(presets)
}

// Delete removes one preset. Deleting a name that does not exist is an
// error so a typo doesn't silently succeed.
func (s *Store) Delete(name string) error {
	presets, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := presets[name]; !ok {
		return fmt.Errorf("preset %q not found", name)
	}
	delete(presets, name)
	return s.write(presets)
}

// write replaces the preset file atomically: encode to a buffer, write a
// sibling temp file, rename over the original.
func (s *Store) write(presets map[string]Preset) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(presets); err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preset directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".presets-*.toml")
	if err != nil {
		return fmt.Errorf("create temp preset file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write presets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp preset file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace preset file: %w", err)
	}
	return nil
}
