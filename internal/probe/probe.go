// Package probe decides whether a candidate file is fully written and
// safe to rename.
package probe

import (
	"context"
	"time"

	"github.com/BBlackMMan/Renamer/internal/fsys"
)

// Prober polls a file's size until it stops changing. A file is stable
// once its size has been positive and unchanged for Threshold
// consecutive polls; this tolerates filesystems that grow a file in
// small increments while it is being copied in.
type Prober struct {
	FS        fsys.FS
	Interval  time.Duration // poll spacing
	Threshold int           // consecutive unchanged polls required
	Timeout   time.Duration // overall budget
}

// New returns a Prober with the given settings over fs.
func New(fs fsys.FS, interval time.Duration, threshold int, timeout time.Duration) *Prober {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	if threshold <= 0 {
		threshold = 2
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{FS: fs, Interval: interval, Threshold: threshold, Timeout: timeout}
}

// IsStable blocks until the file at path is declared stable, the
// timeout elapses, the file disappears, or ctx is cancelled.
//
// On timeout the file is still accepted if its size is positive at the
// final check: a slow but completed write must not be dropped forever.
// A vanished or zero-length file is rejected.
func (p *Prober) IsStable(ctx context.Context, path string) bool {
	deadline := time.Now().Add(p.Timeout)
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	var lastSize int64 = -1
	stableCount := 0

	for {
		info, err := p.FS.Stat(path)
		if err != nil {
			// Gone between polls.
			return false
		}

		size := info.Size()
		if size > 0 && size == lastSize {
			stableCount++
			if stableCount >= p.Threshold {
				return true
			}
		} else {
			stableCount = 0
		}
		lastSize = size

		if time.Now().After(deadline) {
			return p.finalCheck(path)
		}

		select {
		case <-ctx.Done():
			return p.finalCheck(path)
		case <-ticker.C:
		}
	}
}

// finalCheck is the timeout fallback: accept any still-present file with
// a positive size.
func (p *Prober) finalCheck(path string) bool {
	info, err := p.FS.Stat(path)
	return err == nil && info.Size() > 0
}
