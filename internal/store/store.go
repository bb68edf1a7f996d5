// Package store persists the saved watch folders and their prefixes.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/BBlackMMan/Renamer/internal/logging"
	"github.com/BBlackMMan/Renamer/internal/model"
)

// Record is one saved folder: its path, an optional shortcut name, and
// the prefix used when renaming inside it.
type Record struct {
	Path     string    `yaml:"path"`
	Name     string    `yaml:"name,omitempty"`
	Prefix   string    `yaml:"prefix"`
	LastUsed time.Time `yaml:"last_used"`
}

// Store is a YAML-backed record map keyed by "<name>_<path>" (or the
// bare path when the folder has no shortcut name). A corrupt file is
// never fatal: the store falls back to its .bak copy, quarantines the
// broken file, and reads as empty.
type Store struct {
	path   string
	logger *logging.Logger
}

func New(path string, logger *logging.Logger) *Store {
	return &Store{path: path, logger: logger}
}

func key(path, name string) string {
	if name != "" {
		return name + "_" + path
	}
	return path
}

// Prefix returns the saved prefix for the folder, falling back to the
// shortcut name and then the built-in default.
func (s *Store) Prefix(path, name string) string {
	records := s.load()
	if rec, ok := records[key(path, name)]; ok && rec.Prefix != "" {
		return rec.Prefix
	}
	if name != "" {
		return name
	}
	return model.DefaultPrefix
}

// SavePrefix upserts the record for the folder and stamps it as used.
func (s *Store) SavePrefix(path, name, prefix string) error {
	records := s.load()
	records[key(path, name)] = Record{
		Path:     path,
		Name:     name,
		Prefix:   prefix,
		LastUsed: time.Now().UTC(),
	}
	return s.save(records)
}

// Folders returns the shortcut-name to path mapping of all named
// records, for the menu's saved-folder list.
func (s *Store) Folders() map[string]string {
	folders := make(map[string]string)
	for _, rec := range s.load() {
		if rec.Name != "" && rec.Path != "" {
			folders[rec.Name] = rec.Path
		}
	}
	return folders
}

// Records returns all saved records sorted by shortcut name.
func (s *Store) Records() []Record {
	records := s.load()
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func (s *Store) load() map[string]Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("read store: %v", err)
		}
		return make(map[string]Record)
	}

	var records map[string]Record
	if err := yamlv3.Unmarshal(data, &records); err != nil {
		s.logger.Warnf("store is corrupt: %v", err)
		if restored := s.restoreFromBackup(); restored != nil {
			return restored
		}
		s.quarantine()
		return make(map[string]Record)
	}
	if records == nil {
		records = make(map[string]Record)
	}
	return records
}

// restoreFromBackup tries the .bak copy left by AtomicWrite. Returns
// nil when there is no usable backup.
func (s *Store) restoreFromBackup() map[string]Record {
	data, err := os.ReadFile(s.path + ".bak")
	if err != nil {
		return nil
	}
	var records map[string]Record
	if err := yamlv3.Unmarshal(data, &records); err != nil {
		s.logger.Warnf("store backup is also corrupt: %v", err)
		return nil
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.logger.Warnf("restore store from backup: %v", err)
	} else {
		s.logger.Infof("store restored from backup")
	}
	if records == nil {
		records = make(map[string]Record)
	}
	return records
}

// quarantine moves the corrupt store aside so the next save starts
// clean while keeping the bytes for inspection.
func (s *Store) quarantine() {
	dir := filepath.Join(filepath.Dir(s.path), "quarantine")
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Warnf("create quarantine dir: %v", err)
		return
	}
	stamp := time.Now().Format("20060102T150405")
	dst := filepath.Join(dir, fmt.Sprintf("%s.%s.corrupt", filepath.Base(s.path), stamp))
	if err := os.Rename(s.path, dst); err != nil {
		s.logger.Warnf("quarantine store: %v", err)
		return
	}
	s.logger.Warnf("quarantined corrupt store: %s", dst)
}

func (s *Store) save(records map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return AtomicWrite(s.path, records)
}
