package undo

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Source names what produced a change.
type Source string

const (
	SourceAIEdit Source = "ai_edit"
)

// FileChange represents a single whole-file replacement.
type FileChange struct {
	ID         string    `json:"id"`
	FilePath   string    `json:"file_path"`
	Source     Source    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
	OldContent []byte    `json:"old_content"` // nil for new files
	NewContent []byte    `json:"new_content"`
	WasNew     bool      `json:"was_new"`
}

// NewFileChange creates a new FileChange with a generated ID.
func NewFileChange(filePath string, source Source, oldContent, newContent []byte, wasNew bool) *FileChange {
	return &FileChange{
		ID:         uuid.NewString(),
		FilePath:   filePath,
		Source:     source,
		Timestamp:  time.Now(),
		OldContent: oldContent,
		NewContent: newContent,
		WasNew:     wasNew,
	}
}

// Summary returns a human-readable summary of the change.
func (c *FileChange) Summary() string {
	verb := "modified"
	if c.WasNew {
		verb = "created"
	}
	return fmt.Sprintf("%s %s (%+d bytes)", verb, filepath.Base(c.FilePath), c.SizeChange())
}

// SizeChange returns the size difference in bytes.
func (c *FileChange) SizeChange() int {
	return len(c.NewContent) - len(c.OldContent)
}
