package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/apperr"
)

func TestMissingFileIsEmpty(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "settings.json"), nil)
	require.NoError(t, err)
	assert.Empty(t, m.APIKey())
}

func TestSetAPIKeyPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	m, err := Open(path, nil)
	require.NoError(t, err)

	require.NoError(t, m.SetAPIKey("sk-test"))

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", reopened.APIKey())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestUnknownKeysRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	original := `{"api_key": "old", "theme": {"name": "dark", "size": 12}, "recent": [1, 2, 3], "flag": true}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0600))

	m, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "old", m.APIKey())
	require.NoError(t, m.SetAPIKey("new"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "new", got["api_key"])
	assert.Equal(t, map[string]any{"name": "dark", "size": float64(12)}, got["theme"])
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, got["recent"])
	assert.Equal(t, true, got["flag"])
}

func TestCorruptFileStartsEmptyAndIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	m, err := Open(path, nil)
	require.NoError(t, err)
	assert.Empty(t, m.APIKey())
	assert.ErrorIs(t, m.LoadError(), ErrCorrupt)
	assert.ErrorIs(t, m.LoadError(), apperr.ErrFileOperation)

	require.NoError(t, m.SetAPIKey("sk-new"))
	assert.NoError(t, m.LoadError())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.NoError(t, reopened.LoadError())
	assert.Equal(t, "sk-new", reopened.APIKey())
}

func TestNonObjectFileIsCorrupt(t *testing.T) {
	for _, content := range []string{`["a"]`, `"text"`, `null`} {
		path := filepath.Join(t.TempDir(), "settings.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		m, err := Open(path, nil)
		require.NoError(t, err, content)
		require.NoError(t, m.SetAPIKey("k"), content)
		assert.Equal(t, "k", m.APIKey(), content)
	}
}

func TestUnreadableFileFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, nil)
	assert.ErrorIs(t, err, apperr.ErrFileOperation)
}

func TestNonStringAPIKeyReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": 42}`), 0600))

	m, err := Open(path, nil)
	require.NoError(t, err)
	assert.Empty(t, m.APIKey())
	_, ok := m.String(KeyAPIKey)
	assert.False(t, ok)
}
