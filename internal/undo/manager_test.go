package undo

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/apperr"
	"scribe/internal/logging"
)

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestApplyUndoRedo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	m := NewManager(10, logging.Discard())

	change, err := m.Apply(path, []byte("brand new"), SourceAIEdit)
	require.NoError(t, err)
	assert.Len(t, change.ID, 36)
	assert.False(t, change.WasNew)
	assert.Equal(t, "brand new", readString(t, path))
	assert.Equal(t, 1, m.Count())
	assert.Zero(t, m.RedoCount())

	undone, err := m.Undo()
	require.NoError(t, err)
	assert.Equal(t, change.ID, undone.ID)
	assert.Equal(t, "old", readString(t, path))
	assert.Equal(t, 1, m.RedoCount())

	_, err = m.Redo()
	require.NoError(t, err)
	assert.Equal(t, "brand new", readString(t, path))
	assert.Equal(t, 1, m.Count())
}

func TestUndoOfCreatedFileRemovesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "fresh.txt")
	m := NewManager(0, logging.Discard())

	change, err := m.Apply(path, []byte("hi"), SourceAIEdit)
	require.NoError(t, err)
	assert.True(t, change.WasNew)
	assert.True(t, strings.HasPrefix(change.Summary(), "created fresh.txt"))

	_, err = m.Undo()
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEmptyStacks(t *testing.T) {
	m := NewManager(5, logging.Discard())

	_, err := m.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = m.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
}

func TestNilLoggerIsQuiet(t *testing.T) {
	m := NewManager(5, nil)
	require.NotNil(t, m.logger)
	assert.NotSame(t, slog.Default(), m.logger)
}

func TestRecordClearsRedo(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	m := NewManager(5, logging.Discard())

	_, err := m.Apply(a, []byte("1"), SourceAIEdit)
	require.NoError(t, err)
	_, err = m.Undo()
	require.NoError(t, err)
	require.Equal(t, 1, m.RedoCount())

	_, err = m.Apply(a, []byte("2"), SourceAIEdit)
	require.NoError(t, err)
	assert.Zero(t, m.RedoCount())
}

func TestTrackerEvictsOldest(t *testing.T) {
	tr := NewTracker(2)
	for _, id := range []string{"a", "b", "c"} {
		tr.Record(FileChange{ID: id})
	}

	assert.Equal(t, 2, tr.Count())
	recent := tr.ListRecent(5)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)
	assert.Nil(t, tr.ListRecent(0))
}

func TestSizeChange(t *testing.T) {
	c := NewFileChange("/x/y.txt", SourceAIEdit, []byte("abc"), []byte("a"), false)
	assert.Equal(t, -2, c.SizeChange())
	assert.Equal(t, "modified y.txt (-2 bytes)", c.Summary())
}
