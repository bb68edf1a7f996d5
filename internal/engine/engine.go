// Package engine reconciles a watched directory with its canonical
// naming: every accessible image file renamed to <prefix>_<NN>.<ext> in
// creation-time order, with no gaps and no collisions, against a
// filesystem that may mutate underneath it.
package engine

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/BBlackMMan/Renamer/internal/events"
	"github.com/BBlackMMan/Renamer/internal/fsys"
	"github.com/BBlackMMan/Renamer/internal/logging"
	"github.com/BBlackMMan/Renamer/internal/model"
	"github.com/BBlackMMan/Renamer/internal/probe"
	"github.com/BBlackMMan/Renamer/internal/resolve"
)

// EventKind is a normalized filesystem event kind. The watcher feeding
// the engine is unreliable: events may duplicate, arrive out of order,
// or never arrive. Correctness only needs the engine to be triggered
// eventually; every accepted trigger performs a full resolve.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
	EventMoved    EventKind = "moved"
)

// orphanWarnThreshold is the number of consecutive passes a
// temporary-named file may survive before it is reported.
const orphanWarnThreshold = 2

// Options configures an Engine. Zero values get defaults.
type Options struct {
	Dir      string
	Prefix   string
	FS       fsys.FS
	Prober   *probe.Prober
	Bus      *events.Bus      // optional
	Journal  *events.Journal  // optional
	Logger   *logging.Logger  // optional
	Debounce time.Duration
}

// Engine owns all mutable reconciliation state. A single pass runs at a
// time; triggers arriving while one is in flight are dropped, not
// queued, because the in-flight pass already resolves the whole
// directory and will pick up whatever caused the dropped trigger.
type Engine struct {
	dir      string
	fs       fsys.FS
	prober   *probe.Prober
	resolver *resolve.Resolver
	bus      *events.Bus
	journal  *events.Journal
	logger   *logging.Logger
	debounce time.Duration

	inflight *semaphore.Weighted
	wg       sync.WaitGroup

	mu          sync.Mutex
	prefix      string
	pendingTemp map[string]struct{}
	lastEvent   map[string]time.Time
	orphanSeen  map[string]int
}

func New(opts Options) *Engine {
	fs := opts.FS
	if fs == nil {
		fs = fsys.OS()
	}
	prober := opts.Prober
	if prober == nil {
		prober = probe.New(fs, 0, 0, 0)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1500 * time.Millisecond
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = model.DefaultPrefix
	}

	return &Engine{
		dir:         opts.Dir,
		fs:          fs,
		prober:      prober,
		resolver:    resolve.New(fs, opts.Logger),
		bus:         opts.Bus,
		journal:     opts.Journal,
		logger:      opts.Logger,
		debounce:    debounce,
		inflight:    semaphore.NewWeighted(1),
		prefix:      prefix,
		pendingTemp: make(map[string]struct{}),
		lastEvent:   make(map[string]time.Time),
		orphanSeen:  make(map[string]int),
	}
}

// Prefix returns the current rename prefix.
func (e *Engine) Prefix() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prefix
}

// SetPrefix changes the prefix. A pass already in flight keeps the
// value it started with; the next trigger reconciles under the new one.
func (e *Engine) SetPrefix(prefix string) {
	if prefix == "" {
		return
	}
	e.mu.Lock()
	e.prefix = prefix
	e.mu.Unlock()
}

// OnFilesystemEvent ingests one raw watcher event. Events for the
// engine's own temporary files, for already-canonical names (on
// modify), and for paths inside the debounce window are dropped;
// anything surviving schedules an asynchronous reconciliation pass.
// This path never blocks: the stability probe runs on the spawned
// worker, not here.
func (e *Engine) OnFilesystemEvent(kind EventKind, path string) {
	if !e.accept(kind, path) {
		return
	}
	e.logger.Debugf("event accepted kind=%s file=%s", kind, filepath.Base(path))

	// A moved event names the vacated path; probing it would always
	// fail and strand the numbering gap until the next rescan.
	trigger := path
	if kind == EventMoved {
		trigger = ""
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runPass(trigger)
	}()
}

// accept applies the ignore filters and the debounce window.
func (e *Engine) accept(kind EventKind, path string) bool {
	name := filepath.Base(path)
	if !model.IsImageExt(name) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if model.IsTempName(name) {
		return false
	}
	if _, pending := e.pendingTemp[name]; pending {
		return false
	}
	if kind == EventModified && model.IsCanonicalName(e.prefix, name) {
		return false
	}

	now := time.Now()
	if last, ok := e.lastEvent[path]; ok && now.Sub(last) < e.debounce {
		e.logger.Debugf("event dropped (debounce): %s", name)
		return false
	}
	e.lastEvent[path] = now
	return true
}

// Reorganize runs one reconciliation pass synchronously, bypassing the
// debounce filter. It is still subject to single-flight.
func (e *Engine) Reorganize() error {
	return e.runPass("")
}

// WaitIdle blocks until all event-spawned passes have finished.
func (e *Engine) WaitIdle() {
	e.wg.Wait()
}

// runPass is the pass pipeline: probe the trigger's stability, resolve
// the directory, compute the plan, apply it in two phases, then evict
// stale debounce entries. Every exit path returns the engine to idle
// with the single-flight slot released; there is no error state.
func (e *Engine) runPass(trigger string) error {
	if !e.inflight.TryAcquire(1) {
		e.logger.Debugf("pass already in flight, trigger dropped")
		return nil
	}
	defer e.inflight.Release(1)

	if trigger != "" && !e.prober.IsStable(context.Background(), trigger) {
		// Not fully written yet. A later event or the periodic rescan
		// will retry.
		e.logger.Warnf("file not stable yet, pass skipped: %s", filepath.Base(trigger))
		return nil
	}

	files, err := e.resolver.Resolve(e.dir)
	if err != nil {
		e.logger.Warnf("resolve aborted: %v", err)
		return err
	}

	// Temp-named files are the engine's own transient state, never
	// plan input. They normally disappear within the pass that made
	// them; one that lingers is reported instead of silently recycled.
	regular := files[:0:0]
	var leftover []string
	for _, f := range files {
		if model.IsTempName(f.Name) {
			leftover = append(leftover, f.Name)
			continue
		}
		regular = append(regular, f)
	}

	prefix := e.Prefix()
	plan := ComputePlan(regular, prefix)

	renamed := 0
	if len(plan) > 0 {
		e.logger.Infof("reorganizing %d of %d files under prefix %q", len(plan), len(regular), prefix)
		renamed = e.applyPlan(plan)
		e.publish(events.TypePassCompleted, map[string]any{
			"planned": len(plan),
			"renamed": renamed,
		})
		e.record(events.JournalEntry{
			Event:     string(events.TypePassCompleted),
			Directory: e.dir,
			Details:   map[string]any{"planned": len(plan), "renamed": renamed},
		})
	} else {
		e.logger.Debugf("directory already in order (%d files)", len(regular))
	}

	e.noteOrphans(leftover)
	e.evictStale()
	return nil
}

// noteOrphans tracks temp-named files across passes and warns once one
// survives orphanWarnThreshold consecutive passes.
func (e *Engine) noteOrphans(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		seen[name] = struct{}{}
		e.orphanSeen[name]++
		if e.orphanSeen[name] == orphanWarnThreshold {
			e.logger.Warnf("temporary file not recovered after %d passes: %s", orphanWarnThreshold, name)
			e.publish(events.TypeTempOrphan, map[string]any{"name": name})
			e.record(events.JournalEntry{
				Event:     string(events.TypeTempOrphan),
				Directory: e.dir,
				From:      name,
			})
		}
	}
	for name := range e.orphanSeen {
		if _, ok := seen[name]; !ok {
			delete(e.orphanSeen, name)
		}
	}
}

// evictStale drops debounce entries older than five windows so the
// event cache stays bounded.
func (e *Engine) evictStale() {
	cutoff := time.Now().Add(-5 * e.debounce)
	e.mu.Lock()
	defer e.mu.Unlock()
	for path, at := range e.lastEvent {
		if at.Before(cutoff) {
			delete(e.lastEvent, path)
		}
	}
}

func (e *Engine) registerTemp(name string) {
	e.mu.Lock()
	e.pendingTemp[name] = struct{}{}
	e.mu.Unlock()
}

func (e *Engine) unregisterTemp(name string) {
	e.mu.Lock()
	delete(e.pendingTemp, name)
	delete(e.orphanSeen, name)
	e.mu.Unlock()
}

func (e *Engine) publish(t events.Type, data map[string]any) {
	if e.bus != nil {
		e.bus.Publish(t, data)
	}
}

func (e *Engine) record(entry events.JournalEntry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(entry); err != nil {
		e.logger.Warnf("journal write: %v", err)
	}
}
