// Package files reads and writes editor documents.
package files

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
)

// Model loads and saves text files and remembers which paths were touched.
type Model struct {
	legacy string
	logger *slog.Logger

	mu   sync.Mutex
	open map[string]struct{}
}

// Option configures a Model.
type Option func(*Model)

// WithLegacyEncoding sets the codepage tried last when probing.
func WithLegacyEncoding(name string) Option {
	return func(m *Model) {
		if name != "" {
			m.legacy = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModel creates a file model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		legacy: fileutil.DefaultLegacyEncoding,
		logger: logging.Discard(),
		open:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads path and decodes it, trying encoding first (utf-8 when empty)
// and then the fallback probe order.
func (m *Model) Load(path, encoding string) (string, error) {
	text, _, err := m.LoadDetect(path, encoding)
	return text, err
}

// LoadDetect is Load that also reports which encoding succeeded.
func (m *Model) LoadDetect(path, encoding string) (string, string, error) {
	canonical := fileutil.Canonical(path)
	text, used, err := m.Read(canonical, encoding)
	if err != nil {
		return "", "", err
	}
	m.register(canonical)
	return text, used, nil
}

// Read decodes path with the same probe as Load without registering it as
// open. Chat attachments and AI edits read files this way.
func (m *Model) Read(path, encoding string) (string, string, error) {
	canonical := fileutil.Canonical(path)

	data, err := os.ReadFile(canonical)
	if err != nil {
		return "", "", apperr.FileOp("failed to read file", canonical, err)
	}

	text, used, err := fileutil.DecodeWithFallback(data, encoding, m.legacy)
	if err != nil {
		return "", "", apperr.FileOp("failed to decode file", canonical, err)
	}

	m.logger.Debug("file read", "path", canonical, "encoding", used, "bytes", len(data))
	return text, used, nil
}

// Save encodes text (utf-8 when encoding is empty) and writes it atomically,
// keeping the permissions of an existing file.
func (m *Model) Save(path, text, encoding string) error {
	canonical := fileutil.Canonical(path)
	if encoding == "" {
		encoding = fileutil.EncodingUTF8
	}

	data, err := fileutil.Encode(text, encoding)
	if err != nil {
		return apperr.FileOp("failed to encode file as "+encoding, canonical, err)
	}
	if err := fileutil.WritePreservingMode(canonical, data, 0644); err != nil {
		return apperr.FileOp("failed to write file", canonical, err)
	}

	m.register(canonical)
	m.logger.Debug("file saved", "path", canonical, "encoding", encoding, "bytes", len(data))
	return nil
}

// OpenFiles returns every path loaded or saved so far, sorted.
func (m *Model) OpenFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.open))
	for p := range m.open {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (m *Model) register(path string) {
	m.mu.Lock()
	m.open[path] = struct{}{}
	m.mu.Unlock()
}
