package undo

import "sync"

// DefaultMaxChanges is the default maximum number of changes to track.
const DefaultMaxChanges = 100

// Tracker is a bounded stack of file changes.
type Tracker struct {
	changes []FileChange
	maxSize int
	mu      sync.RWMutex
}

// NewTracker creates a Tracker holding at most maxSize changes.
func NewTracker(maxSize int) *Tracker {
	if maxSize <= 0 {
		maxSize = DefaultMaxChanges
	}
	return &Tracker{
		changes: make([]FileChange, 0),
		maxSize: maxSize,
	}
}

// Record adds a change, evicting the oldest at capacity.
func (t *Tracker) Record(change FileChange) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.changes) >= t.maxSize {
		t.changes = t.changes[1:]
	}
	t.changes = append(t.changes, change)
}

// PopLast removes and returns the most recent change.
func (t *Tracker) PopLast() *FileChange {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.changes) == 0 {
		return nil
	}

	change := t.changes[len(t.changes)-1]
	t.changes = t.changes[:len(t.changes)-1]
	return &change
}

// ListRecent returns the N most recent changes (newest first).
func (t *Tracker) ListRecent(n int) []FileChange {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n <= 0 || len(t.changes) == 0 {
		return nil
	}
	if n > len(t.changes) {
		n = len(t.changes)
	}

	result := make([]FileChange, n)
	for i := 0; i < n; i++ {
		result[i] = t.changes[len(t.changes)-1-i]
	}
	return result
}

// Count returns the number of tracked changes.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.changes)
}
