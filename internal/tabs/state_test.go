package tabs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
)

func TestAddCanonicalizesAndStartsClean(t *testing.T) {
	dir := t.TempDir()
	s := NewState()

	id, err := s.Add(filepath.Join(dir, "sub", "..", "new.txt"))
	require.NoError(t, err)
	assert.Len(t, string(id), 32)

	path, err := s.FilePath(id)
	require.NoError(t, err)
	assert.Equal(t, fileutil.Canonical(filepath.Join(dir, "new.txt")), path)

	dirty, err := s.IsDirty(id)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestAddGeneratesUniqueIDsForSamePath(t *testing.T) {
	s := NewState()
	a, err := s.Add("/tmp/same.txt")
	require.NoError(t, err)
	b, err := s.Add("/tmp/same.txt")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, s.Len())
	assert.Len(t, s.FindAllByPath("/tmp/same.txt"), 2)
}

func TestMarkDirty(t *testing.T) {
	s := NewState()
	id, err := s.Add("/tmp/a.txt")
	require.NoError(t, err)

	require.NoError(t, s.MarkDirty(id, true))
	dirty, err := s.IsDirty(id)
	require.NoError(t, err)
	assert.True(t, dirty)

	require.NoError(t, s.MarkDirty(id, false))
	dirty, err = s.IsDirty(id)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestClosedTabLookupsFail(t *testing.T) {
	s := NewState()
	id, err := s.Add("/tmp/a.txt")
	require.NoError(t, err)
	require.NoError(t, s.Close(id))

	_, err = s.IsDirty(id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.FilePath(id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.MarkDirty(id, true), apperr.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePath(id, "/tmp/b.txt"), apperr.ErrNotFound)
	assert.ErrorIs(t, s.Close(id), apperr.ErrNotFound)
	assert.ErrorIs(t, s.Close(id), apperr.ErrEditor)
	assert.Equal(t, 0, s.Len())
}

func TestUpdatePathAndFind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0644))
	s := NewState()

	id, err := s.Add(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)

	found, ok := s.FindByPath(filepath.Join(dir, ".", "a.txt"))
	require.True(t, ok)
	assert.Equal(t, id, found)

	require.NoError(t, s.UpdatePath(id, filepath.Join(dir, "b.txt")))
	_, ok = s.FindByPath(filepath.Join(dir, "a.txt"))
	assert.False(t, ok)
	found, ok = s.FindByPath(filepath.Join(dir, "b.txt"))
	require.True(t, ok)
	assert.Equal(t, id, found)
}

func TestAddRejectsEmptyPath(t *testing.T) {
	_, err := NewState().Add("  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
