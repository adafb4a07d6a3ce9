package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher turns create/remove events on the signal files into wake-ups for
// the loop. It only shortens latency: the loop's ticker still runs and the
// check order is unchanged.
type Watcher struct {
	dir    string
	names  map[string]bool
	logger *slog.Logger

	fs      *fsnotify.Watcher
	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher watches dir for changes to the named files.
func NewWatcher(dir string, names []string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("daemon: create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("daemon: watch %s: %w", dir, err)
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &Watcher{
		dir:     dir,
		names:   set,
		logger:  logger,
		fs:      fw,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// Start begins forwarding events. Only the first call starts the goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.loop(ctx)
	})
}

// Wake returns the channel signalled on relevant events.
func (w *Watcher) Wake() <-chan struct{} {
	return w.wake
}

// Stop stops the watcher. Safe to call multiple times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.fs.Close()
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.names[filepath.Base(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.wake <- struct{}{}:
			default:
				// A wake-up is already pending.
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("daemon: watcher error", "dir", w.dir, "error", err)
		}
	}
}
