// Package watcher reloads the statute corpus when its source files change, using
// fsnotify with a debounce so that a burst of writes causes a single reload.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches corpus files and directories and invokes onReload after changes settle.
type Watcher struct {
	paths      []string
	extensions []string
	onReload   func(ctx context.Context)
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dirs     []string        // watched corpus directories
	files    map[string]bool // corpus files named explicitly
	timer    *time.Timer
	ctx      context.Context
	started  bool
	done     chan struct{}
	stopOnce sync.Once

	reloadMu sync.Mutex
	reloads  int
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for watch events and reloads.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long the corpus must be quiet before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher over corpus paths, each a file or a directory.
// extensions filters which files in watched directories count (empty = all).
func NewWatcher(paths, extensions []string, onReload func(ctx context.Context), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		paths:      paths,
		extensions: extensions,
		onReload:   onReload,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		files:      make(map[string]bool),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	for _, p := range w.paths {
		if err := w.addPathLocked(p); err != nil {
			_ = fw.Close()
			w.watcher = nil
			w.dirs = nil
			w.files = make(map[string]bool)
			return err
		}
	}
	w.ctx = ctx
	w.started = true
	w.logger.Debug("corpus watcher started",
		zap.Strings("directories", w.dirs),
		zap.Int("files", len(w.files)),
		zap.Duration("debounce", w.debounce))
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("corpus watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.underDir(path) {
				w.addNewDirectory(path)
			}
			return
		}
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	if !w.relevant(path) {
		return
	}
	w.logger.Debug("corpus file changed", zap.String("op", ev.Op.String()), zap.String("path", path))
	w.schedule()
}

// addNewDirectory starts watching a directory created under a corpus directory and
// reloads if it already holds corpus files.
func (w *Watcher) addNewDirectory(dir string) {
	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()
	if fw == nil {
		return
	}
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if matchExtension(path, w.extensions) && !isLockFile(path) {
			found = true
		}
		return nil
	})
	if found {
		w.schedule()
	}
}

func (w *Watcher) relevant(path string) bool {
	w.mu.Lock()
	explicit := w.files[path]
	w.mu.Unlock()
	if explicit {
		return true
	}
	return w.underDir(path) && matchExtension(path, w.extensions) && !isLockFile(path)
}

func (w *Watcher) underDir(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.dirs {
		if d != path && inDir(d, path) {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	ctx := w.ctx
	w.timer = time.AfterFunc(w.debounce, func() { w.reload(ctx) })
}

// reload runs onReload; reloads never overlap.
func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	w.reloads++
	w.logger.Info("corpus changed; reloading", zap.Int("reload", w.reloads))
	if w.onReload != nil {
		w.onReload(ctx)
	}
}

// Reloads returns how many reloads have started.
func (w *Watcher) Reloads() int {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	return w.reloads
}

// addPathLocked watches p. A directory is watched recursively; a file is watched
// through its parent directory. A missing path without an extension is created as
// a directory.
func (w *Watcher) addPathLocked(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if !os.IsNotExist(err) || filepath.Ext(abs) != "" {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		if err := os.MkdirAll(abs, 0755); err != nil {
			return err
		}
		info, err = os.Stat(abs)
		if err != nil {
			return err
		}
	}
	if !info.IsDir() {
		if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
			return err
		}
		w.files[abs] = true
		return nil
	}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return err
	}
	w.dirs = append(w.dirs, abs)
	return nil
}

// Paths returns the watched corpus directories followed by the watched corpus files.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := append([]string(nil), w.dirs...)
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

// Stop stops the watcher and cancels a pending reload.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func isLockFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "~$")
}
