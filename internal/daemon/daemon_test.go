package daemon

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBlackMMan/Renamer/internal/events"
	"github.com/BBlackMMan/Renamer/internal/model"
)

func fastConfig() model.Config {
	return model.Config{
		Watcher: model.WatcherConfig{
			DebounceSec:         0.05,
			RescanIntervalSec:   1,
			StabilityPollMs:     10,
			StabilityTimeoutSec: 1,
			StabilityThreshold:  2,
		},
		Daemon: model.DaemonConfig{ShutdownTimeoutSec: 5},
	}
}

func newTestDaemon(t *testing.T, watchDir string) *Daemon {
	t.Helper()
	d, err := newDaemon(t.TempDir(), watchDir, "Horizon", fastConfig(), io.Discard, nil)
	require.NoError(t, err)
	return d
}

// waitForNames polls until the directory holds exactly want, or fails.
func waitForNames(t *testing.T, dir string, want []string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	var got []string
	for time.Now().Before(deadline) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		got = got[:0]
		for _, e := range entries {
			got = append(got, e.Name())
		}
		sort.Strings(got)
		if assert.ObjectsAreEqual(want, got) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("directory never reached %v, last saw %v", want, got)
}

func TestDaemon_StartupPassReconcilesExistingFiles(t *testing.T) {
	watchDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(watchDir, "vacation.png"), []byte("img"), 0644))

	d := newTestDaemon(t, watchDir)
	require.NoError(t, d.Start())
	defer d.Shutdown()

	waitForNames(t, watchDir, []string{"Horizon_01.png"})
}

func TestDaemon_ReactsToNewFile(t *testing.T) {
	watchDir := t.TempDir()

	d := newTestDaemon(t, watchDir)
	require.NoError(t, d.Start())
	defer d.Shutdown()

	require.NoError(t, os.WriteFile(filepath.Join(watchDir, "fresh.jpg"), []byte("img"), 0644))

	waitForNames(t, watchDir, []string{"Horizon_01.jpg"})
}

func TestDaemon_SecondWatcherOnSameDirRejected(t *testing.T) {
	watchDir := t.TempDir()
	baseDir := t.TempDir()

	d1, err := newDaemon(baseDir, watchDir, "Horizon", fastConfig(), io.Discard, nil)
	require.NoError(t, err)
	require.NoError(t, d1.Start())
	defer d1.Shutdown()

	d2, err := newDaemon(baseDir, watchDir, "Horizon", fastConfig(), io.Discard, nil)
	require.NoError(t, err)
	require.Error(t, d2.Start(), "same directory, same lock")
}

func TestDaemon_ReorganizeAndSetPrefix(t *testing.T) {
	watchDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(watchDir, "a.png"), []byte("img"), 0644))

	d := newTestDaemon(t, watchDir)
	require.NoError(t, d.Start())
	defer d.Shutdown()

	waitForNames(t, watchDir, []string{"Horizon_01.png"})

	d.SetPrefix("Sunset")
	assert.Equal(t, "Sunset", d.Prefix())
	require.NoError(t, d.Reorganize())

	waitForNames(t, watchDir, []string{"Sunset_01.png"})
}

func TestDaemon_JournalRecordsRenames(t *testing.T) {
	watchDir := t.TempDir()
	baseDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(watchDir, "a.png"), []byte("img"), 0644))

	d, err := newDaemon(baseDir, watchDir, "Horizon", fastConfig(), io.Discard, nil)
	require.NoError(t, err)
	require.NoError(t, d.Start())
	waitForNames(t, watchDir, []string{"Horizon_01.png"})
	d.Shutdown()

	entries, err := events.ReadEntries(filepath.Join(baseDir, "journal", "renames.jsonl"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "a.png", entries[0].From)
	assert.Equal(t, "Horizon_01.png", entries[0].To)
}

type recordingCloser struct{ closed bool }

func (c *recordingCloser) Close() error { c.closed = true; return nil }

func TestDaemon_JournalFailureReleasesLogFile(t *testing.T) {
	baseDir := t.TempDir()
	// A plain file where the journal directory belongs makes the journal
	// constructor fail.
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "journal"), []byte("x"), 0644))

	closer := &recordingCloser{}
	_, err := newDaemon(baseDir, t.TempDir(), "Horizon", fastConfig(), io.Discard, closer)
	require.Error(t, err)
	assert.True(t, closer.closed, "log file closed on constructor failure")
}

func TestDaemon_ShutdownIdempotent(t *testing.T) {
	watchDir := t.TempDir()

	d := newTestDaemon(t, watchDir)
	require.NoError(t, d.Start())

	d.Shutdown()
	d.Shutdown() // second call is a no-op
}
