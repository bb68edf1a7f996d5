// Package daemon runs the directory watcher service: one fsnotify loop
// feeding the reconciliation engine, a periodic rescan as a safety net,
// and a per-directory lock so only one watcher owns a directory.
package daemon

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BBlackMMan/Renamer/internal/engine"
	"github.com/BBlackMMan/Renamer/internal/events"
	"github.com/BBlackMMan/Renamer/internal/fsys"
	"github.com/BBlackMMan/Renamer/internal/lock"
	"github.com/BBlackMMan/Renamer/internal/logging"
	"github.com/BBlackMMan/Renamer/internal/model"
	"github.com/BBlackMMan/Renamer/internal/probe"
)

// Daemon ties the watcher, engine, journal, and lock together for one
// watched directory.
type Daemon struct {
	baseDir  string // state root: logs/, locks/, journal/
	watchDir string
	config   model.Config
	logger   *logging.Logger
	logFile  io.Closer

	fileLock *lock.FileLock
	watcher  *fsnotify.Watcher
	ticker   *time.Ticker
	bus      *events.Bus
	journal  *events.Journal
	engine   *engine.Engine

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown sync.Once
}

// New creates a Daemon logging to <baseDir>/logs/daemon.log and
// journaling renames under <baseDir>/journal/.
func New(baseDir, watchDir, prefix string, cfg model.Config) (*Daemon, error) {
	logPath := filepath.Join(baseDir, "logs", "daemon.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open daemon log: %w", err)
	}

	return newDaemon(baseDir, watchDir, prefix, cfg, logFile, logFile)
}

// newDaemon is the internal constructor for testing.
func newDaemon(baseDir, watchDir, prefix string, cfg model.Config, w io.Writer, closer io.Closer) (*Daemon, error) {
	cfg.ApplyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	logger := logging.New(w, logging.ParseLevel(cfg.Logging.Level), "daemon")

	journal, err := events.NewJournal(filepath.Join(baseDir, "journal", "renames.jsonl"), 0)
	if err != nil {
		cancel()
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("open rename journal: %w", err)
	}

	fs := fsys.OS()
	bus := events.NewBus(0)
	eng := engine.New(engine.Options{
		Dir:    watchDir,
		Prefix: prefix,
		FS:     fs,
		Prober: probe.New(
			fs,
			time.Duration(cfg.Watcher.StabilityPollMs)*time.Millisecond,
			cfg.Watcher.StabilityThreshold,
			time.Duration(cfg.Watcher.StabilityTimeoutSec)*time.Second,
		),
		Bus:      bus,
		Journal:  journal,
		Logger:   logger.WithTag("engine"),
		Debounce: time.Duration(cfg.Watcher.DebounceSec * float64(time.Second)),
	})

	d := &Daemon{
		baseDir:  baseDir,
		watchDir: watchDir,
		config:   cfg,
		logger:   logger,
		logFile:  closer,
		fileLock: lock.New(lock.PathForDir(filepath.Join(baseDir, "locks"), watchDir)),
		ticker:   time.NewTicker(time.Duration(cfg.Watcher.RescanIntervalSec) * time.Second),
		bus:      bus,
		journal:  journal,
		engine:   eng,
		ctx:      ctx,
		cancel:   cancel,
	}
	return d, nil
}

// Bus exposes the event bus so callers can observe applied renames.
func (d *Daemon) Bus() *events.Bus { return d.bus }

// Prefix returns the engine's current rename prefix.
func (d *Daemon) Prefix() string { return d.engine.Prefix() }

// SetPrefix changes the rename prefix for subsequent passes.
func (d *Daemon) SetPrefix(prefix string) { d.engine.SetPrefix(prefix) }

// Reorganize runs one reconciliation pass synchronously, bypassing the
// debounce filter.
func (d *Daemon) Reorganize() error { return d.engine.Reorganize() }

// Start acquires the directory lock, wires fsnotify, runs the startup
// reconciliation pass, and launches the background loops. It does not
// block; use Shutdown (or Run) to stop.
func (d *Daemon) Start() error {
	if err := d.fileLock.TryLock(); err != nil {
		return fmt.Errorf("watch lock: %w", err)
	}
	d.logger.Infof("watcher starting pid=%d dir=%s", os.Getpid(), d.watchDir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.fileLock.Unlock()
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(d.watchDir); err != nil {
		watcher.Close()
		d.fileLock.Unlock()
		return fmt.Errorf("watch %s: %w", d.watchDir, err)
	}
	d.watcher = watcher

	// Files that were already sitting in the directory get reconciled
	// before any event arrives.
	if err := d.engine.Reorganize(); err != nil {
		d.logger.Warnf("startup pass: %v", err)
	}

	d.wg.Add(2)
	go d.watchLoop()
	go d.rescanLoop()

	d.logger.Infof("watcher ready")
	return nil
}

// Run starts the daemon and blocks until SIGINT/SIGTERM.
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return err
	}
	d.waitSignals()
	return nil
}

// watchLoop normalizes fsnotify events into engine event kinds. A
// rename into the directory surfaces as Create on the new name and a
// rename away as Rename on the old one; either way the engine performs
// a full resolve, so the mapping only needs to trigger it.
func (d *Daemon) watchLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			switch {
			case event.Has(fsnotify.Create):
				d.engine.OnFilesystemEvent(engine.EventCreated, event.Name)
			case event.Has(fsnotify.Write):
				d.engine.OnFilesystemEvent(engine.EventModified, event.Name)
			case event.Has(fsnotify.Rename):
				d.engine.OnFilesystemEvent(engine.EventMoved, event.Name)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Errorf("fsnotify error=%v", err)
		}
	}
}

// rescanLoop triggers periodic full passes. These heal anything the
// event stream missed: dropped notifications, deletions, files touched
// while a pass was in flight.
func (d *Daemon) rescanLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-d.ticker.C:
			d.logger.Debugf("periodic rescan")
			if err := d.engine.Reorganize(); err != nil {
				d.logger.Warnf("periodic rescan: %v", err)
			}
		}
	}
}

// waitSignals blocks until a shutdown signal arrives.
func (d *Daemon) waitSignals() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	d.logger.Infof("received signal=%s, shutting down", sig)

	go func() {
		<-sigCh
		d.logger.Warnf("received second signal, forcing exit")
		os.Exit(1)
	}()

	d.Shutdown()
}

// Shutdown stops the loops, drains in-flight passes, and releases
// resources. Idempotent.
func (d *Daemon) Shutdown() {
	d.shutdown.Do(func() {
		d.logger.Infof("shutdown started")

		d.cancel()
		d.ticker.Stop()
		if d.watcher != nil {
			d.watcher.Close()
		}

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			d.engine.WaitIdle()
			close(done)
		}()

		select {
		case <-done:
			d.logger.Infof("all passes drained")
		case <-time.After(time.Duration(d.config.Daemon.ShutdownTimeoutSec) * time.Second):
			d.logger.Warnf("shutdown timeout after %ds", d.config.Daemon.ShutdownTimeoutSec)
		}

		d.bus.Close()
		d.journal.Close()
		d.fileLock.Unlock()
		if d.logFile != nil {
			d.logFile.Close()
		}
		d.logger.Infof("watcher stopped")
	})
}
