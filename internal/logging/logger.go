// Package logging builds the slog loggers passed into every component.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Level represents a logging level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LogFileName is the file created by OpenFile inside the log directory.
const LogFileName = "scribe.log"

// ParseLevel parses a level string to Level.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to w at the given level.
func New(w io.Writer, level Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level.slogLevel(),
	}))
}

// Discard returns a logger that drops everything. The TUI owns the terminal,
// so this is the default until file logging is enabled.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// OpenFile creates dir if needed and returns a logger appending to dir/scribe.log.
// The returned closer must be called on shutdown.
func OpenFile(dir string, level Level) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return New(f, level), f, nil
}

// Child returns a logger tagged with a component name.
func Child(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With("component", name)
}

// UserAction records an action taken by the user as a structured record.
func UserAction(l *slog.Logger, action string, detail map[string]any) {
	if l == nil || action == "" {
		return
	}
	attrs := make([]slog.Attr, 0, len(detail)+1)
	attrs = append(attrs, slog.String("action", action))
	for k, v := range detail {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.LogAttrs(context.Background(), slog.LevelInfo, "user action", attrs...)
}

// StatusSink receives short status messages, typically the status bar.
type StatusSink interface {
	ShowStatus(msg string, timeout time.Duration)
}

// StatusHandler forwards INFO and above to a StatusSink and then to next.
type StatusHandler struct {
	next    slog.Handler
	sink    StatusSink
	timeout time.Duration
}

// NewStatusHandler wraps next so records also reach sink.
func NewStatusHandler(next slog.Handler, sink StatusSink, timeout time.Duration) *StatusHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &StatusHandler{next: next, sink: sink, timeout: timeout}
}

// WithStatus returns a logger whose INFO+ records are mirrored to sink.
func WithStatus(l *slog.Logger, sink StatusSink) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return slog.New(NewStatusHandler(l.Handler(), sink, 5*time.Second))
}

func (h *StatusHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo || h.next.Enabled(ctx, level)
}

func (h *StatusHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelInfo && h.sink != nil {
		h.sink.ShowStatus(strings.ToUpper(r.Level.String())+": "+r.Message, h.timeout)
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *StatusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &StatusHandler{next: h.next.WithAttrs(attrs), sink: h.sink, timeout: h.timeout}
}

func (h *StatusHandler) WithGroup(name string) slog.Handler {
	return &StatusHandler{next: h.next.WithGroup(name), sink: h.sink, timeout: h.timeout}
}
