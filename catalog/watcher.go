package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to
// settle before reloading.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reloads a YAML map file into the catalog whenever it changes on
// disk. Each reload produces a new graph instance; an invalid edit is logged
// and the previous instance stays registered.
//
// The parent directory is watched rather than the file itself so that
// editors which save via rename keep being observed.
type Watcher struct {
	path     string
	catalog  *Catalog
	log      logging.Logger
	debounce time.Duration
	onReload func(*core.RegionGraph, error)

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// WatcherOption configures optional Watcher behaviour.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger used for reload outcomes.
func WithWatcherLogger(log logging.Logger) WatcherOption {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithReloadHook registers fn to observe every reload attempt made by the
// watch loop. err is nil when the graph was registered.
func WithReloadHook(fn func(*core.RegionGraph, error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher creates a watcher for the map file at path feeding cat.
func NewWatcher(path string, cat *Catalog, opts ...WatcherOption) (*Watcher, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve map path %q: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		path:     filepath.Clean(abs),
		catalog:  cat,
		log:      logging.Noop(),
		debounce: DefaultDebounce,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path of the watched map file.
func (w *Watcher) Path() string { return w.path }

// Catalog returns the catalog reloads are published to.
func (w *Watcher) Catalog() *Catalog { return w.catalog }

// Reload reads the map file once and registers the result. A map without a
// name is registered under the file's base name.
func (w *Watcher) Reload() (*core.RegionGraph, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("open map %q: %w", w.path, err)
	}
	defer f.Close()

	g, err := core.LoadRegionGraph(f)
	if err != nil {
		return nil, fmt.Errorf("load map %q: %w", w.path, err)
	}
	if strings.TrimSpace(g.Name()) == "" {
		g = g.WithName(strings.TrimSuffix(filepath.Base(w.path), filepath.Ext(w.path)))
	}
	if err := w.catalog.Put(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Start loads the map once and then watches it until ctx is cancelled or
// Stop is called. The initial load must succeed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if _, err := w.Reload(); err != nil {
		w.setWatching(false)
		return err
	}
	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		w.setWatching(false)
		return fmt.Errorf("watch %q: %w", filepath.Dir(w.path), err)
	}

	w.log.Info(ctx, "watching map file", logging.String("path", w.path))
	go w.loop(ctx)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
		w.setWatching(false)
	})
}

// IsWatching reports whether the watch loop is active.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) setWatching(v bool) {
	w.mu.Lock()
	w.watching = v
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.reloadAndReport(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn(ctx, "map watcher error", logging.Err(err))
		}
	}
}

func (w *Watcher) reloadAndReport(ctx context.Context) {
	g, err := w.Reload()
	if err != nil {
		w.log.Warn(ctx, "map reload failed; keeping previous graph",
			logging.String("path", w.path),
			logging.Err(err),
		)
	} else {
		w.log.Info(ctx, "map reloaded",
			logging.String("path", w.path),
			logging.String("name", g.Name()),
			logging.Int("regions", g.Len()),
		)
	}
	if w.onReload != nil {
		w.onReload(g, err)
	}
}
