// Package settings persists user settings as a flat JSON object.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
)

// KeyAPIKey is the settings key holding the AI provider API key.
const KeyAPIKey = "api_key"

// ErrCorrupt is returned when the settings file is not a JSON object.
var ErrCorrupt = errors.New("settings file is not a JSON object")

// Model is a JSON file backed key/value store. Keys it does not know about
// are kept as raw JSON and written back unchanged.
type Model struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	values  map[string]json.RawMessage
	loadErr error
}

// Open loads the settings file at path. A missing file yields empty settings.
// So does a corrupt one: the problem is logged, kept in LoadError and the
// file is replaced on the next save.
func Open(path string, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Model{
		path:   fileutil.Canonical(path),
		logger: logger,
		values: make(map[string]json.RawMessage),
	}
	if err := m.Reload(); err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		logger.Warn("settings file is unreadable, starting with empty settings", "path", m.path, "error", err)
		m.loadErr = err
	}
	return m, nil
}

// LoadError returns why the settings file was ignored when opened, or nil.
// It is cleared once the file has been saved again.
func (m *Model) LoadError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr
}

// Path returns the settings file location.
func (m *Model) Path() string {
	return m.path
}

// Reload re-reads the settings file.
func (m *Model) Reload() error {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		m.mu.Lock()
		m.values = make(map[string]json.RawMessage)
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		return apperr.FileOp("failed to read settings", m.path, err)
	}

	values := make(map[string]json.RawMessage)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return apperr.FileOp("failed to parse settings", m.path, fmt.Errorf("%w: %v", ErrCorrupt, err))
		}
	}

	if values == nil {
		values = make(map[string]json.RawMessage)
	}

	m.mu.Lock()
	m.values = values
	m.loadErr = nil
	m.mu.Unlock()
	m.logger.Debug("settings loaded", "path", m.path, "keys", len(values))
	return nil
}

// APIKey returns the stored API key, or "" if unset.
func (m *Model) APIKey() string {
	s, _ := m.String(KeyAPIKey)
	return s
}

// SetAPIKey stores the API key and saves the file.
func (m *Model) SetAPIKey(key string) error {
	return m.SetString(KeyAPIKey, key)
}

// String returns a string setting.
func (m *Model) String(key string) (string, bool) {
	m.mu.RLock()
	raw, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// SetString stores a string setting and saves the file.
func (m *Model) SetString(key, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return apperr.FileOp("failed to encode setting "+key, m.path, err)
	}

	m.mu.Lock()
	m.values[key] = raw
	m.mu.Unlock()
	return m.Save()
}

// Save writes all settings to disk atomically with owner-only permissions.
func (m *Model) Save() error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.values, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return apperr.FileOp("failed to encode settings", m.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0700); err != nil {
		return apperr.FileOp("failed to create settings directory", m.path, err)
	}
	if err := fileutil.AtomicWrite(m.path, append(data, '\n'), 0600); err != nil {
		return apperr.FileOp("failed to write settings", m.path, err)
	}

	m.mu.Lock()
	replaced := m.loadErr != nil
	m.loadErr = nil
	m.mu.Unlock()
	if replaced {
		m.logger.Info("unreadable settings file replaced", "path", m.path)
	}
	m.logger.Debug("settings saved", "path", m.path)
	return nil
}
