package tasks

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"soundsmith/internal/shared"
)

// Watcher rescans the library when files under it change.
//
// Events are debounced so a copy-in of many files triggers one scan, not one
// per file. The watcher covers the library root and its subdirectories.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	scanner     *Scanner
	dir         string
	logger      *log.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a Watcher over dir that triggers scanner on changes.
func NewWatcher(dir string, scanner *Scanner, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Watcher{
		watcher:     fw,
		scanner:     scanner,
		dir:         dir,
		logger:      logger,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching the library directory. Non-blocking; the event loop
// runs in its own goroutine until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.logger.Warn("failed to watch library root", "dir", w.dir, "error", err)
	} else {
		w.logger.Info("watching library", "dir", w.dir)
	}

	// Subdirectories need their own watches; fsnotify is not recursive.
	for _, sub := range []string{"generated", "imports"} {
		path := filepath.Join(w.dir, sub)
		if err := w.watcher.Add(path); err == nil {
			w.logger.Debug("watching library subdirectory", "dir", path)
		}
	}

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for the event loop to drain. The watcher
// is one-shot: once stopped it cannot be started again.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("failed to close watcher", "error", err)
	}
}

// run is the main event loop for the watcher.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-debounceTicker.C:
			w.processDebounced(ctx)
		}
	}
}

// handleEvent records an audio file event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !audioExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		// New subdirectories get added to the watch set instead.
		if event.Op&fsnotify.Create != 0 && filepath.Ext(event.Name) == "" {
			if err := w.watcher.Add(event.Name); err == nil {
				w.logger.Debug("watching new subdirectory", "dir", event.Name)
			}
		}
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebounced triggers one scan once all recorded events have settled
// past the debounce window.
func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	if len(w.debounceMap) == 0 {
		w.mu.Unlock()
		return
	}

	now := time.Now()
	for _, eventTime := range w.debounceMap {
		if now.Sub(eventTime) < w.debounceDur {
			// Still settling; check again next tick.
			w.mu.Unlock()
			return
		}
	}
	settled := len(w.debounceMap)
	w.debounceMap = make(map[string]time.Time)
	w.mu.Unlock()

	w.logger.Info("library changed, rescanning", "events", settled)
	if _, err := w.scanner.Scan(ctx, nil); err != nil {
		w.logger.Error("watch-triggered scan failed", "error", err)
	}
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
