package store

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBlackMMan/Renamer/internal/logging"
	"github.com/BBlackMMan/Renamer/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folders.yaml")
	return New(path, logging.New(io.Discard, logging.LevelError, "store"))
}

func TestStore_PrefixDefaults(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, model.DefaultPrefix, s.Prefix("/pics", ""))
	assert.Equal(t, "Vacation", s.Prefix("/pics", "Vacation"), "shortcut name stands in for a missing prefix")
}

func TestStore_SaveAndReload(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SavePrefix("/pics", "Vacation", "Beach"))
	assert.Equal(t, "Beach", s.Prefix("/pics", "Vacation"))

	// A fresh Store over the same file sees the saved record.
	s2 := New(s.path, s.logger)
	assert.Equal(t, "Beach", s2.Prefix("/pics", "Vacation"))
}

func TestStore_KeyIncludesName(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SavePrefix("/pics", "Vacation", "Beach"))
	require.NoError(t, s.SavePrefix("/pics", "", "Plain"))

	assert.Equal(t, "Beach", s.Prefix("/pics", "Vacation"))
	assert.Equal(t, "Plain", s.Prefix("/pics", ""))
}

func TestStore_Folders(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SavePrefix("/pics", "Vacation", "Beach"))
	require.NoError(t, s.SavePrefix("/shots", "Work", "Shot"))
	require.NoError(t, s.SavePrefix("/anon", "", "X")) // unnamed, excluded

	folders := s.Folders()
	assert.Equal(t, map[string]string{
		"Vacation": "/pics",
		"Work":     "/shots",
	}, folders)
}

func TestStore_Records_Sorted(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SavePrefix("/b", "Zeta", "Z"))
	require.NoError(t, s.SavePrefix("/a", "Alpha", "A"))

	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Alpha", records[0].Name)
	assert.Equal(t, "Zeta", records[1].Name)
	assert.False(t, records[0].LastUsed.IsZero())
}

func TestStore_CorruptFileReadsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{not: [valid yaml"), 0644))

	assert.Equal(t, model.DefaultPrefix, s.Prefix("/pics", ""))

	// Corrupt file was quarantined, not left in place.
	_, err := os.Stat(s.path)
	assert.True(t, os.IsNotExist(err))
	quarantined, err := filepath.Glob(filepath.Join(filepath.Dir(s.path), "quarantine", "*.corrupt"))
	require.NoError(t, err)
	assert.NotEmpty(t, quarantined)

	// The store keeps working after quarantine.
	require.NoError(t, s.SavePrefix("/pics", "Vacation", "Beach"))
	assert.Equal(t, "Beach", s.Prefix("/pics", "Vacation"))
}

func TestStore_CorruptFileRestoredFromBackup(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SavePrefix("/pics", "Vacation", "Beach"))
	require.NoError(t, s.SavePrefix("/pics", "Vacation", "Coast")) // creates .bak of the first save

	// Smash the live file; the .bak still holds the first save.
	require.NoError(t, os.WriteFile(s.path, []byte("{not: [valid yaml"), 0644))

	assert.Equal(t, "Beach", s.Prefix("/pics", "Vacation"))
}

func TestAtomicWrite_KeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folders.yaml")

	require.NoError(t, AtomicWrite(path, map[string]Record{"v": {Path: "/pics", Prefix: "one"}}))
	require.NoError(t, AtomicWrite(path, map[string]Record{"v": {Path: "/pics", Prefix: "two"}}))

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Contains(t, string(bak), "one")

	live, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(live), "two")
}

func TestAtomicWrite_RoundTripsRecordSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folders.yaml")
	require.NoError(t, AtomicWrite(path, map[string]Record{
		"Vacation_/pics": {Path: "/pics", Name: "Vacation", Prefix: "Beach"},
	}))

	// The written bytes load back through the store, not just as YAML.
	s := New(path, logging.New(io.Discard, logging.LevelError, "store"))
	assert.Equal(t, "Beach", s.Prefix("/pics", "Vacation"))
}

func TestAtomicWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AtomicWrite(filepath.Join(dir, "folders.yaml"), map[string]Record{"a": {Path: "/a", Prefix: "b"}}))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".renamer-tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
