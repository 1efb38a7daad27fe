package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	messages []string
}

func (s *recordingSink) ShowStatus(msg string, _ time.Duration) {
	s.messages = append(s.messages, msg)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestChildTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Child(New(&buf, LevelDebug), "tab_state")
	l.Info("tab added")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "tab_state", rec["component"])
	assert.Equal(t, "tab added", rec["msg"])
}

func TestStatusHandlerForwardsInfoOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{}
	l := WithStatus(New(&buf, LevelDebug), sink)

	l.Debug("hidden")
	l.Info("file saved")
	l.Error("boom")

	assert.Equal(t, []string{"INFO: file saved", "ERROR: boom"}, sink.messages)
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))
}

func TestUserAction(t *testing.T) {
	var buf bytes.Buffer
	UserAction(New(&buf, LevelInfo), "open_file", map[string]any{"path": "/tmp/a.txt"})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "open_file", rec["action"])
	assert.Equal(t, "/tmp/a.txt", rec["path"])
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	l, closer, err := OpenFile(dir, LevelInfo)
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, closer.Close())
	assert.FileExists(t, dir+"/"+LogFileName)
}
