// Package tabs tracks the files behind open editor tabs and their dirty flags.
package tabs

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
)

// ID identifies a tab. It is a random 32-character hex token.
type ID string

// NewID generates a fresh tab id.
func NewID() ID {
	return ID(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Entry is the state kept for one tab.
type Entry struct {
	FilePath string
	Dirty    bool
}

// State is the registry of open tabs. Tabs are never deduplicated by path here.
type State struct {
	mu      sync.RWMutex
	entries map[ID]*Entry
}

// NewState creates an empty registry.
func NewState() *State {
	return &State{entries: make(map[ID]*Entry)}
}

// Add registers a clean tab for path and returns its id.
func (s *State) Add(path string) (ID, error) {
	if strings.TrimSpace(path) == "" {
		return "", apperr.Validation("tab path is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := NewID()
	for s.entries[id] != nil {
		id = NewID()
	}
	s.entries[id] = &Entry{FilePath: fileutil.Canonical(path)}
	return id, nil
}

// MarkDirty sets the dirty flag of a tab.
func (s *State) MarkDirty(id ID, dirty bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.Dirty = dirty
	return nil
}

// Close removes a tab.
func (s *State) Close(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(id); err != nil {
		return err
	}
	delete(s.entries, id)
	return nil
}

// IsDirty reports whether a tab has unsaved changes.
func (s *State) IsDirty(id ID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.lookup(id)
	if err != nil {
		return false, err
	}
	return e.Dirty, nil
}

// FilePath returns the canonical path of a tab.
func (s *State) FilePath(id ID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	return e.FilePath, nil
}

// UpdatePath points a tab at a new file, as done by save-as.
func (s *State) UpdatePath(id ID, path string) error {
	if strings.TrimSpace(path) == "" {
		return apperr.Validation("tab path is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.FilePath = fileutil.Canonical(path)
	return nil
}

// FindByPath returns the id of some tab open on path.
func (s *State) FindByPath(path string) (ID, bool) {
	canonical := fileutil.Canonical(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, e := range s.entries {
		if e.FilePath == canonical {
			return id, true
		}
	}
	return "", false
}

// FindAllByPath returns the ids of every tab open on path.
func (s *State) FindAllByPath(path string) []ID {
	canonical := fileutil.Canonical(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []ID
	for id, e := range s.entries {
		if e.FilePath == canonical {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of open tabs.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *State) lookup(id ID) (*Entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, apperr.NotFound("tab", string(id))
	}
	return e, nil
}
