package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_RecordAndReadBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "renames.jsonl")

	j, err := NewJournal(path, 0)
	require.NoError(t, err)

	require.NoError(t, j.Record(JournalEntry{
		Event:     string(TypeRenameApplied),
		Directory: "/pics",
		From:      "vacation.png",
		To:        "Horizon_01.png",
	}))
	require.NoError(t, j.Record(JournalEntry{
		Event:     string(TypePassCompleted),
		Directory: "/pics",
		Details:   map[string]any{"renamed": 1},
	}))
	require.NoError(t, j.Close())

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "vacation.png", entries[0].From)
	assert.Equal(t, "Horizon_01.png", entries[0].To)
	assert.False(t, entries[0].Timestamp.IsZero())
	assert.Equal(t, string(TypePassCompleted), entries[1].Event)
}

func TestJournal_CreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal", "renames.jsonl")

	j, err := NewJournal(path, 0)
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestJournal_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "renames.jsonl")

	// Tiny cap so the second entry forces a rotation.
	j, err := NewJournal(path, 120)
	require.NoError(t, err)
	defer j.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, j.Record(JournalEntry{
			Event: string(TypeRenameApplied),
			From:  "a_rather_long_source_name.png",
			To:    "Horizon_01.png",
		}))
	}

	archived, err := filepath.Glob(filepath.Join(dir, archiveDir, "*.jsonl"))
	require.NoError(t, err)
	assert.NotEmpty(t, archived, "rotation should archive the old journal")

	// Current journal still usable after rotation.
	require.NoError(t, j.Record(JournalEntry{Event: string(TypePassCompleted)}))
}

func TestJournal_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "renames.jsonl")

	j1, err := NewJournal(path, 0)
	require.NoError(t, err)
	require.NoError(t, j1.Record(JournalEntry{Event: "first"}))
	require.NoError(t, j1.Close())

	j2, err := NewJournal(path, 0)
	require.NoError(t, err)
	require.NoError(t, j2.Record(JournalEntry{Event: "second"}))
	require.NoError(t, j2.Close())

	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
