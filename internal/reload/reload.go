// Package reload implements the live-reload controller (spec.md §4.G):
// given the main config path, it watches that file plus every file
// pulled in transitively via ".load", and on change re-parses and
// swaps the dispatch engine's active Rule Table. Debounced fsnotify
// watching is adapted from the teacher's plugin directory watcher
// (cli/plugins/manager.go's watchForChanges/Reload pair), generalized
// from a directory watch to an explicit, growing set of watched files.
package reload

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kbhookd/kbhookd/internal/keymap"
	"github.com/kbhookd/kbhookd/internal/langparser"
	"github.com/kbhookd/kbhookd/internal/ruletable"
	"github.com/kbhookd/kbhookd/internal/tracer"
)

// debounceWindow absorbs the burst of several fsnotify events a single
// save typically produces (write + chmod, or remove + create for
// atomic-rename editors like vim), mirroring the teacher's 500ms
// plugin-reload debounce.
const debounceWindow = 500 * time.Millisecond

// Engine is the subset of *dispatch.Engine the controller depends on.
// Declared locally to avoid an import cycle (dispatch does not need to
// know about reload).
type Engine interface {
	SetTable(*ruletable.RuleTable)
}

// Controller owns the fsnotify watcher and re-parses the configuration
// on every watched file's change, or on an explicit Reload call (used
// by the SIGUSR1 signal handler for an out-of-band reload).
type Controller struct {
	mainPath string
	keys     *keymap.KeyTable
	engine   Engine
	tracer   *tracer.Tracer
	logger   *zap.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]bool

	closeOnce sync.Once
}

// New builds a Controller with an empty watch set; no file is watched
// yet. Call Reload once before Start to populate the active Rule Table
// and register mainPath plus every loaded file with the watcher.
func New(mainPath string, keys *keymap.KeyTable, engine Engine, tr *tracer.Tracer, logger *zap.Logger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(mainPath)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	c := &Controller{
		mainPath: abs,
		keys:     keys,
		engine:   engine,
		tracer:   tr,
		logger:   logger,
		watcher:  watcher,
		watched:  make(map[string]bool),
	}
	return c, nil
}

// Close releases the underlying fsnotify watcher.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.watcher.Close()
	})
}

// Reload parses the configuration from scratch and, on success, swaps
// the engine's active Rule Table and extends the watch set to cover
// every file the new table pulled in via .load (spec.md §4.G steps
// 1-4). On a parse error, the running table is left untouched and the
// error is only logged, per step 2 — reload failure is never fatal.
func (c *Controller) Reload() {
	genID := uuid.New().String()
	table, err := langparser.Parse(c.keys, readFile, c.mainPath)
	if err != nil {
		c.logger.Error("configuration reload failed, keeping previous rule table",
			zap.String("reload_id", genID), zap.String("path", c.mainPath), zap.Error(err))
		if c.tracer != nil {
			c.tracer.ObserveReload("failed")
		}
		return
	}

	c.engine.SetTable(table)
	c.logger.Info("configuration reloaded",
		zap.String("reload_id", genID), zap.String("path", c.mainPath), zap.Int("files", len(table.LoadedFiles)))
	if c.tracer != nil {
		c.tracer.ObserveReload("applied")
	}

	c.syncWatches(table.LoadedFiles)
}

// syncWatches adds any not-yet-watched file (and mainPath itself) to
// the fsnotify watcher. Files are never removed from the watch set even
// across a reload that drops a .load — an extra watch on a now-unused
// file is harmless, and removing it races with editors that briefly
// delete-then-recreate a file on save.
func (c *Controller) syncWatches(loadedFiles []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	want := append([]string{c.mainPath}, loadedFiles...)
	for _, f := range want {
		if c.watched[f] {
			continue
		}
		if err := c.watcher.Add(f); err != nil {
			c.logger.Warn("failed to watch configuration file", zap.String("path", f), zap.Error(err))
			continue
		}
		c.watched[f] = true
	}
}

// Start runs the debounced watch loop until stop is closed. It must be
// called from its own goroutine; Reload should be called once
// synchronously beforehand to establish the initial table and watch
// set.
func (c *Controller) Start(stop <-chan struct{}) {
	var reloadTimer *time.Timer
	for {
		select {
		case <-stop:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if !isRelevant(event) {
				continue
			}
			c.logger.Debug("configuration change detected", zap.String("event", event.String()))
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				// Atomic-save editors replace the file under a new
				// inode, which silently drops fsnotify's watch on it.
				// Re-arm immediately so the next edit is still seen.
				_ = c.watcher.Add(event.Name)
			}
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(debounceWindow, c.Reload)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error("configuration watcher error", zap.Error(err))
		}
	}
}

func isRelevant(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Remove == fsnotify.Remove ||
		event.Op&fsnotify.Rename == fsnotify.Rename
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
