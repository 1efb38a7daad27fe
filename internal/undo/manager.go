package undo

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
)

// ErrNothingToUndo and ErrNothingToRedo report an empty stack.
var (
	ErrNothingToUndo = apperr.Validation("nothing to undo")
	ErrNothingToRedo = apperr.Validation("nothing to redo")
)

// Manager applies whole-file changes and keeps undo and redo stacks.
type Manager struct {
	tracker *Tracker
	undone  []FileChange
	maxRedo int
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewManager creates a Manager keeping up to maxChanges undoable changes.
func NewManager(maxChanges int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		tracker: NewTracker(maxChanges),
		undone:  make([]FileChange, 0),
		maxRedo: 50,
		logger:  logger,
	}
}

// Apply replaces the file at path with data and records the change.
func (m *Manager) Apply(path string, data []byte, source Source) (*FileChange, error) {
	old, err := os.ReadFile(path)
	wasNew := false
	switch {
	case errors.Is(err, os.ErrNotExist):
		wasNew = true
		old = nil
	case err != nil:
		return nil, apperr.FileOp("failed to read file before edit", path, err)
	}

	change := NewFileChange(path, source, old, data, wasNew)
	if err := m.applyChange(change); err != nil {
		return nil, apperr.FileOp("failed to apply edit", path, err)
	}
	m.Record(*change)
	m.logger.Info("change applied", "id", change.ID, "path", path, "source", string(source), "delta", change.SizeChange())
	return change, nil
}

// Record records a new file change and clears the redo stack.
func (m *Manager) Record(change FileChange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracker.Record(change)
	m.undone = make([]FileChange, 0)
}

// Undo reverts the last change and returns it.
func (m *Manager) Undo() (*FileChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	change := m.tracker.PopLast()
	if change == nil {
		return nil, ErrNothingToUndo
	}

	if err := m.revertChange(change); err != nil {
		m.tracker.Record(*change)
		return nil, apperr.FileOp("failed to undo", change.FilePath, err)
	}

	if len(m.undone) >= m.maxRedo {
		m.undone = m.undone[1:]
	}
	m.undone = append(m.undone, *change)
	m.logger.Info("change undone", "id", change.ID, "path", change.FilePath)
	return change, nil
}

// Redo re-applies the last undone change.
func (m *Manager) Redo() (*FileChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undone) == 0 {
		return nil, ErrNothingToRedo
	}

	change := m.undone[len(m.undone)-1]
	m.undone = m.undone[:len(m.undone)-1]

	if err := m.applyChange(&change); err != nil {
		m.undone = append(m.undone, change)
		return nil, apperr.FileOp("failed to redo", change.FilePath, err)
	}

	m.tracker.Record(change)
	m.logger.Info("change redone", "id", change.ID, "path", change.FilePath)
	return &change, nil
}

// ListRecent returns the N most recent undoable changes, newest first.
func (m *Manager) ListRecent(n int) []FileChange {
	return m.tracker.ListRecent(n)
}

// Count returns the number of undoable changes.
func (m *Manager) Count() int {
	return m.tracker.Count()
}

// RedoCount returns the number of undone changes that can be re-applied.
func (m *Manager) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undone)
}

func (m *Manager) revertChange(change *FileChange) error {
	if change.WasNew {
		if err := os.Remove(change.FilePath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return fileutil.WritePreservingMode(change.FilePath, change.OldContent, 0o644)
}

func (m *Manager) applyChange(change *FileChange) error {
	if err := os.MkdirAll(filepath.Dir(change.FilePath), 0o755); err != nil {
		return err
	}
	return fileutil.WritePreservingMode(change.FilePath, change.NewContent, 0o644)
}
