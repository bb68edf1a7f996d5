package lock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLock_TryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "watch.lock")

	fl := New(path)
	if err := fl.TryLock(); err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	defer fl.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if !strings.Contains(string(data), "\n") {
		t.Errorf("lock file should hold a PID line, got %q", data)
	}
}

func TestFileLock_SecondHolderRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.lock")

	fl1 := New(path)
	if err := fl1.TryLock(); err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}
	defer fl1.Unlock()

	fl2 := New(path)
	if err := fl2.TryLock(); err == nil {
		fl2.Unlock()
		t.Fatal("expected second TryLock to fail")
	}
}

func TestFileLock_UnlockAllowsRelock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.lock")

	fl1 := New(path)
	if err := fl1.TryLock(); err != nil {
		t.Fatalf("first TryLock failed: %v", err)
	}
	if err := fl1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	fl2 := New(path)
	if err := fl2.TryLock(); err != nil {
		t.Fatalf("re-lock after unlock failed: %v", err)
	}
	fl2.Unlock()
}

func TestFileLock_DoubleUnlockSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.lock")

	fl := New(path)
	fl.TryLock()
	fl.Unlock()
	if err := fl.Unlock(); err != nil {
		t.Fatalf("double unlock should be safe, got: %v", err)
	}
}

func TestPathForDir_StablePerDirectory(t *testing.T) {
	a := PathForDir("/locks", "/pics/vacation")
	b := PathForDir("/locks", "/pics/vacation/") // trailing slash cleans away
	c := PathForDir("/locks", "/pics/other")

	if a != b {
		t.Errorf("same directory produced different lock paths: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different directories share a lock path")
	}
	if filepath.Dir(a) != "/locks" {
		t.Errorf("lock path outside lock dir: %q", a)
	}
}
