package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"scribe/internal/logging"
)

type pendingEvent struct {
	op   Operation
	seen time.Time
}

// Watcher monitors file system changes below a root folder.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	root         string
	ignore       IgnoreFunc
	logger       *slog.Logger
	debounceMs   int
	maxWatches   int
	onFileChange FileChangeHandler
	pending      map[string]pendingEvent
	mu           sync.Mutex
	done         chan struct{}
	running      bool
	stopOnce     sync.Once
}

// NewWatcher creates a new file watcher for root. A disabled config yields a
// watcher whose Start and Stop are no-ops.
func NewWatcher(root string, ignore IgnoreFunc, cfg Config, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if !cfg.Enabled {
		return &Watcher{root: root, logger: logger}, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceMs := cfg.DebounceMs
	if debounceMs <= 0 {
		debounceMs = 300
	}

	maxWatches := cfg.MaxWatches
	if maxWatches <= 0 {
		maxWatches = 1000
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		root:       root,
		ignore:     ignore,
		logger:     logger,
		debounceMs: debounceMs,
		maxWatches: maxWatches,
		pending:    make(map[string]pendingEvent),
		done:       make(chan struct{}),
	}, nil
}

// Root returns the watched folder.
func (w *Watcher) Root() string { return w.root }

// SetOnFileChange sets the callback for file change events.
func (w *Watcher) SetOnFileChange(handler FileChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onFileChange = handler
}

// Start begins watching for file changes.
func (w *Watcher) Start() error {
	if w.fsWatcher == nil {
		return nil
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addDirectories(); err != nil {
		return err
	}

	go w.processEvents()
	go w.processDebounce()

	w.logger.Debug("watcher started", "root", w.root, "watches", w.WatchedPaths())
	return nil
}

// Stop stops watching for file changes.
func (w *Watcher) Stop() error {
	if w.fsWatcher == nil {
		return nil
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.stopOnce.Do(func() {
		close(w.done)
	})
	return w.fsWatcher.Close()
}

func (w *Watcher) ignored(path string) bool {
	return w.ignore != nil && w.ignore(path)
}

// addDirectories adds directories to the watcher up to maxWatches.
func (w *Watcher) addDirectories() error {
	watchCount := 0

	return filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if watchCount >= w.maxWatches {
			return filepath.SkipDir
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Debug("watch failed", "path", path, "error", err)
			return nil
		}
		watchCount++
		return nil
	})
}

// processEvents processes raw fsnotify events.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent handles a single fsnotify event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if event.Op == fsnotify.Chmod || w.ignored(path) {
		return
	}

	// Editor swap and backup files.
	base := filepath.Base(path)
	if len(base) > 0 && (base[0] == '#' || base[len(base)-1] == '~' || filepath.Ext(base) == ".swp") {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.mu.Lock()
			if len(w.fsWatcher.WatchList()) < w.maxWatches {
				_ = w.fsWatcher.Add(path)
			}
			w.mu.Unlock()
		}
	}

	op := operationOf(event.Op)
	w.mu.Lock()
	if prev, ok := w.pending[path]; ok && prev.op == OpCreate && op == OpModify {
		op = OpCreate
	}
	w.pending[path] = pendingEvent{op: op, seen: time.Now()}
	w.mu.Unlock()
}

// processDebounce processes debounced events.
func (w *Watcher) processDebounce() {
	ticker := time.NewTicker(time.Duration(w.debounceMs/2) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.flushPending()
		}
	}
}

// flushPending sends events for paths that have been stable.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	handler := w.onFileChange
	if handler == nil || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	now := time.Now()
	debounce := time.Duration(w.debounceMs) * time.Millisecond
	type ready struct {
		path string
		op   Operation
	}
	toSend := make([]ready, 0)

	for path, ev := range w.pending {
		if now.Sub(ev.seen) >= debounce {
			toSend = append(toSend, ready{path, w.settle(path, ev.op)})
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, r := range toSend {
		handler(r.path, r.op)
	}
}

// settle corrects the recorded operation against the path's current state.
func (w *Watcher) settle(path string, op Operation) Operation {
	_, err := os.Stat(path)
	switch {
	case os.IsNotExist(err) && op != OpRename:
		return OpDelete
	case err == nil && op == OpDelete:
		return OpCreate
	}
	return op
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// WatchedPaths returns the number of watched paths.
func (w *Watcher) WatchedPaths() int {
	if w.fsWatcher == nil {
		return 0
	}
	return len(w.fsWatcher.WatchList())
}
