// Package eventbus is a synchronous in-process publish/subscribe dispatcher.
package eventbus

import (
	"fmt"
	"log/slog"
	"sync"

	"scribe/internal/logging"
)

// Topics published by the application.
const (
	TabChanged      = "ui.tab.changed"     // {index: int, tab_count: int}
	FolderSelected  = "ui.folder.selected" // {path: string or nil}
	FileSaveRequest = "command.file.save"  // nil
	FileSaved       = "state.file.saved"   // {path: string} or nil
	FolderChanged   = "state.folder.changed"
	AIEditApplied   = "state.ai.edit.applied"
)

// Payload is the optional data passed with an event. nil means none.
type Payload map[string]any

// String returns payload[key] if it is a string.
func (p Payload) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

// Int returns payload[key] if it is an int.
func (p Payload) Int(key string) (int, bool) {
	i, ok := p[key].(int)
	return i, ok
}

// Handler receives published events. Handlers are compared by identity,
// so they should be pointers or other comparable values.
type Handler interface {
	HandleEvent(event string, payload Payload) error
}

type funcHandler struct {
	fn func(event string, payload Payload) error
}

func (h *funcHandler) HandleEvent(event string, payload Payload) error {
	return h.fn(event, payload)
}

// Func adapts fn into a Handler. Each call returns a distinct handle; keep it
// to subscribe the same handler again idempotently.
func Func(fn func(event string, payload Payload) error) Handler {
	return &funcHandler{fn: fn}
}

// Bus dispatches events to subscribers in registration order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]Handler
	logger *slog.Logger
}

// New creates an empty bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bus{
		subs:   make(map[string][]Handler),
		logger: logger,
	}
}

// Subscribe registers h for event. Registering the same handler twice is a no-op.
func (b *Bus) Subscribe(event string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.subs[event] {
		if sameHandler(existing, h) {
			return
		}
	}
	b.subs[event] = append(b.subs[event], h)
	b.logger.Debug("handler subscribed", "event", event)
}

// Publish invokes every handler registered for event at the time of the call.
// Handler errors and panics are logged and never stop dispatch.
func (b *Bus) Publish(event string, payload Payload) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[event]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", "event", event)
		return
	}

	for i, h := range handlers {
		if err := b.dispatch(h, event, payload); err != nil {
			b.logger.Error("event handler failed", "event", event, "handler", i, "error", err)
		}
	}
}

// Subscribers returns the number of handlers registered for event.
func (b *Bus) Subscribers(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[event])
}

func (b *Bus) dispatch(h Handler, event string, payload Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()
	return h.HandleEvent(event, payload)
}

// sameHandler compares handlers without panicking on non-comparable dynamic types.
func sameHandler(a, b Handler) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
