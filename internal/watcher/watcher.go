// Package watcher reloads data files dropped into the watched directories,
// so record updates reach the store without a restart.
package watcher

import (
	"context"
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

// LoadFunc receives the path of a created or modified data file once its
// writes have settled.
type LoadFunc func(path string)

// Watcher watches data directories and invokes the load callback on settled
// file changes. Rapid write bursts to one file collapse into a single call.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onLoad     LoadFunc
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  map[string]*time.Timer
	started  bool
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher over roots. extensions filters which files trigger a
// load (empty means all); missing roots are created.
func New(roots, extensions []string, recursive bool, onLoad LoadFunc, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		onLoad:     onLoad,
		debounce:   defaultDebounce,
		logger:     logger,
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
}

// Start begins watching. It returns immediately; the event loop runs until
// ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	for _, root := range w.roots {
		if err := w.watchRootLocked(root); err != nil {
			_ = fsw.Close()
			w.fsw = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()

	w.logger.Debug("watcher started",
		zap.Strings("roots", w.roots), zap.Strings("extensions", w.extensions))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err == nil && info.IsDir() {
			if w.recursive {
				w.mu.Lock()
				if w.fsw != nil {
					_ = w.fsw.Add(ev.Name)
				}
				w.mu.Unlock()
			}
			return
		}
		if w.matchExtension(ev.Name) {
			w.scheduleLoad(ev.Name)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.mu.Lock()
		if t, ok := w.pending[ev.Name]; ok {
			t.Stop()
			delete(w.pending, ev.Name)
		}
		w.mu.Unlock()
	}
}

// scheduleLoad arms (or re-arms) the per-file debounce timer.
func (w *Watcher) scheduleLoad(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.logger.Debug("watcher loading file", zap.String("path", path))
		w.onLoad(path)
	})
}

func (w *Watcher) watchRootLocked(root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// SyncExistingFiles invokes the load callback for every matching file already
// present under the watched roots. Call after Start to pick up files that
// predate the watcher.
func (w *Watcher) SyncExistingFiles() {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	for _, root := range roots {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if w.matchExtension(path) {
				w.onLoad(path)
			}
			return nil
		})
	}
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher and cancels pending loads.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
