// Package watcher reloads the opened file when it changes on disk, using fsnotify
// with debouncing.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/kagami/pkg/utils"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches a single file and calls onChange, debounced, after it is written
// or replaced. The parent directory is watched so that editors which save by
// renaming a temp file over the target are still seen.
type Watcher struct {
	onChange func(path string)
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	target   string
	dir      string
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = utils.OrNop(l) }
}

// WithDebounce sets how long the file must stay quiet before onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher that calls onChange with the watched path.
func NewWatcher(onChange func(path string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()
	w.logger.Debug("watcher starting", zap.Duration("debounce", w.debounce))
	go w.run(ctx, watcher)
	return nil
}

// Watch switches the watched file to path. An empty path stops watching any file.
func (w *Watcher) Watch(path string) error {
	var abs string
	if path != "" {
		var err error
		if abs, err = filepath.Abs(path); err != nil {
			return err
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	if abs == w.target {
		return nil
	}
	w.stopTimerLocked()
	dir := ""
	if abs != "" {
		dir = filepath.Dir(abs)
	}
	if dir != w.dir {
		if w.dir != "" {
			_ = w.watcher.Remove(w.dir)
		}
		if dir != "" {
			if err := w.watcher.Add(dir); err != nil {
				w.dir, w.target = "", ""
				return err
			}
		}
		w.dir = dir
	}
	w.target = abs
	w.logger.Debug("watching file", zap.String("path", abs))
	return nil
}

// Path returns the watched file, or "" when none.
func (w *Watcher) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
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
	w.mu.Lock()
	target := w.target
	w.mu.Unlock()
	if target == "" || filepath.Clean(ev.Name) != target {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.debounceChange(target)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// A replacing save removes the file before creating it again.
		w.mu.Lock()
		w.stopTimerLocked()
		w.mu.Unlock()
	}
}

func (w *Watcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTimerLocked()
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		current := w.timer == t && w.target == path
		if current {
			w.timer = nil
		}
		w.mu.Unlock()
		if !current {
			return
		}
		w.logger.Debug("file changed (debounced)", zap.String("path", path))
		if w.onChange != nil {
			w.onChange(path)
		}
	})
	w.timer = t
}

func (w *Watcher) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	w.stopTimerLocked()
	_ = w.watcher.Close()
	w.watcher = nil
	w.target, w.dir = "", ""
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
