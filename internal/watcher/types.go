package watcher

import (
	"time"

	"github.com/fsnotify/fsnotify"

	"scribe/internal/config"
)

// Operation represents the type of file system operation.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
)

// String returns the string representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

func operationOf(op fsnotify.Op) Operation {
	switch {
	case op.Has(fsnotify.Remove):
		return OpDelete
	case op.Has(fsnotify.Rename):
		return OpRename
	case op.Has(fsnotify.Create):
		return OpCreate
	default:
		return OpModify
	}
}

// Config holds file watcher configuration.
type Config struct {
	Enabled    bool
	DebounceMs int
	MaxWatches int
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		DebounceMs: 300,
		MaxWatches: 1000,
	}
}

// FromConfig maps the application's watcher section.
func FromConfig(c config.WatcherConfig) Config {
	return Config{
		Enabled:    c.Enabled,
		DebounceMs: c.DebounceMs,
		MaxWatches: c.MaxWatches,
	}
}

// FileChangeMsg is a Bubble Tea message for a debounced file change.
type FileChangeMsg struct {
	Path      string
	Operation Operation
	Time      time.Time
}

// NewFileChangeMsg creates a new file change message.
func NewFileChangeMsg(path string, op Operation) FileChangeMsg {
	return FileChangeMsg{
		Path:      path,
		Operation: op,
		Time:      time.Now(),
	}
}

// FileChangeHandler is a callback for file change events.
type FileChangeHandler func(path string, op Operation)

// IgnoreFunc reports whether a path should not be watched or reported.
type IgnoreFunc func(path string) bool
