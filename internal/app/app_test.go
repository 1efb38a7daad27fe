package app

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/ai"
	"scribe/internal/apperr"
	"scribe/internal/config"
	"scribe/internal/controller"
	"scribe/internal/eventbus"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/settings"
	"scribe/internal/ui"
	"scribe/internal/watcher"
)

type fakeClient struct {
	mu       sync.Mutex
	response string
	chunks   []string
	err      error
	prompts  []string
}

func (c *fakeClient) Generate(_ context.Context, _, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *fakeClient) Stream(_ context.Context, _, prompt string) iter.Seq2[string, error] {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()
	return func(yield func(string, error) bool) {
		for _, chunk := range c.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
		if c.err != nil {
			yield("", c.err)
		}
	}
}

func (c *fakeClient) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

type recorder struct {
	mu     sync.Mutex
	events []recorded
}

type recorded struct {
	name    string
	payload eventbus.Payload
}

func record(bus *eventbus.Bus, names ...string) *recorder {
	r := &recorder{}
	h := eventbus.Func(func(event string, payload eventbus.Payload) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, recorded{event, payload})
		return nil
	})
	for _, name := range names {
		bus.Subscribe(name, h)
	}
	return r
}

func (r *recorder) last(name string) (eventbus.Payload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].name == name {
			return r.events[i].payload, true
		}
	}
	return nil, false
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Settings.Path = filepath.Join(t.TempDir(), "settings.json")
	cfg.Tree.Root = fileutil.Canonical(t.TempDir())
	cfg.Watcher.Enabled = false
	cfg.UI.MarkdownRendering = false
	return cfg
}

func newTestApp(t *testing.T, client ai.Client, opts ...Option) (*App, string) {
	t.Helper()
	return newTestAppWith(t, testConfig(t), client, opts...)
}

func newTestAppWith(t *testing.T, cfg *config.Config, client ai.Client, opts ...Option) (*App, string) {
	t.Helper()
	root := cfg.Tree.Root
	if client != nil {
		opts = append([]Option{WithAIClient(client)}, opts...)
	}
	a, err := New(cfg, logging.Discard(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, root
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// drain runs cmd like the program would and feeds results back to the app.
func drain(a *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(a, c)
		}
	default:
		drain(a, a.handleMessage(msg))
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLifecycleStates(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})

	assert.Equal(t, StateWired, a.State())
	assert.Equal(t, 1, a.Bus().Subscribers(eventbus.FileSaveRequest))

	require.NoError(t, a.Start())
	assert.Equal(t, StateRunning, a.State())
	assert.Equal(t, root, a.FolderController().Root())
	assert.Equal(t, "running", a.State().String())
}

func TestEditModeAppliesFencedBlockToAttachment(t *testing.T) {
	client := &fakeClient{response: "Here you go:\n```text\ncontent\n```\nDone."}
	a, root := newTestApp(t, client)
	events := record(a.Bus(), eventbus.AIEditApplied)
	path := writeFile(t, root, "target.txt", "old")

	a.Window().Chat().AddAttachment(path)
	drain(a, a.handleChatSubmit("  rewrite it  ", ui.ModeEdit))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	prompts := client.calls()
	require.Len(t, prompts, 1)
	assert.Equal(t,
		"rewrite it\n\n----- FILE BEGIN: "+path+" -----\nold\n----- FILE END: "+path+" -----",
		prompts[0])

	payload, ok := events.last(eventbus.AIEditApplied)
	require.True(t, ok)
	assert.Equal(t, path, payload["path"])
	assert.Equal(t, 1, a.Journal().Count())
	assert.False(t, a.Window().Chat().Busy())
}

func TestEditWithoutFenceUsesWholeResponse(t *testing.T) {
	client := &fakeClient{response: "\n  plain reply  \n"}
	a, root := newTestApp(t, client)
	path := writeFile(t, root, "notes.txt", "before")

	_, err := a.FileController().OpenFile(path)
	require.NoError(t, err)
	drain(a, a.handleChatSubmit("fix", ui.ModeEdit))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plain reply", string(data))
	assert.Equal(t, "plain reply", a.Window().Editor().Text(0), "clean tab is reloaded")
}

func TestUndoAIEditRestoresFile(t *testing.T) {
	client := &fakeClient{response: "```\nnew\n```"}
	a, root := newTestApp(t, client)
	path := writeFile(t, root, "a.txt", "old\n")

	a.Window().Chat().AddAttachment(path)
	drain(a, a.handleChatSubmit("change", ui.ModeEdit))
	data, _ := os.ReadFile(path)
	require.Equal(t, "new", string(data))

	a.handleUndoAIEdit()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))
	assert.Contains(t, a.Window().Chat().Transcript(), "reverted")
}

func TestEditRefusesDirtyTab(t *testing.T) {
	client := &fakeClient{response: "x"}
	a, root := newTestApp(t, client)
	path := writeFile(t, root, "a.txt", "old")

	_, err := a.FileController().OpenFile(path)
	require.NoError(t, err)
	id, ok := a.Window().Editor().TabID(0)
	require.True(t, ok)
	a.handleTextChanged(id)

	assert.Nil(t, a.handleChatSubmit("edit", ui.ModeEdit))
	assert.Empty(t, client.calls())
	assert.Contains(t, a.Window().Chat().Transcript(), "save a.txt before editing it")
}

func TestEditWithoutTargetFails(t *testing.T) {
	client := &fakeClient{}
	a, _ := newTestApp(t, client)

	assert.Nil(t, a.handleChatSubmit("edit", ui.ModeEdit))
	assert.Empty(t, client.calls())
	assert.Contains(t, a.Window().Chat().Transcript(), "attach a file or open a tab")
}

func TestEmptyMessageShowsErrorWithoutRequest(t *testing.T) {
	client := &fakeClient{response: "unused"}
	a, _ := newTestApp(t, client)

	assert.Nil(t, a.handleChatSubmit(" \n\t ", ui.ModeChat))
	assert.Empty(t, client.calls())
	assert.Contains(t, a.Window().Chat().Transcript(), emptyMessage)
}

func TestChatModeShowsStreamedReply(t *testing.T) {
	client := &fakeClient{chunks: []string{"Hel", "lo"}}
	a, _ := newTestApp(t, client)

	drain(a, a.handleChatSubmit("hi", ui.ModeChat))

	transcript := a.Window().Chat().Transcript()
	assert.Contains(t, transcript, "hi")
	assert.Contains(t, transcript, "Hello")
	assert.False(t, a.Window().Chat().Busy())
}

func TestChatSendsChunksThroughSender(t *testing.T) {
	var mu sync.Mutex
	var sent []tea.Msg
	client := &fakeClient{chunks: []string{"a", "b"}}
	a, _ := newTestApp(t, client, WithSender(func(msg tea.Msg) {
		mu.Lock()
		sent = append(sent, msg)
		mu.Unlock()
	}))

	drain(a, a.handleChatSubmit("hi", ui.ModeChat))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []tea.Msg{chatChunkMsg("a"), chatChunkMsg("b")}, sent)
}

func TestAIErrorShownInChat(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	a, _ := newTestApp(t, client)

	drain(a, a.handleChatSubmit("hi", ui.ModeChat))

	assert.Contains(t, a.Window().Chat().Transcript(), "quota exceeded")
	assert.False(t, a.Window().Chat().Busy())
}

func TestSaveRequestPublishesFileSaved(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	events := record(a.Bus(), eventbus.FileSaved)

	a.handleSave()
	payload, ok := events.last(eventbus.FileSaved)
	require.True(t, ok)
	assert.Nil(t, payload, "no tab means no path")

	path := writeFile(t, root, "a.txt", "text")
	_, err := a.FileController().OpenFile(path)
	require.NoError(t, err)
	a.Window().Editor().SetText(0, "changed")

	a.handleSave()
	payload, ok = events.last(eventbus.FileSaved)
	require.True(t, ok)
	assert.Equal(t, path, payload["path"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "changed", string(data))
}

func TestFolderSelectionPublishesAndOpensFiles(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	events := record(a.Bus(), eventbus.FolderSelected)
	path := writeFile(t, root, "a.txt", "text")

	a.handleFolderSelected(root, true)
	payload, ok := events.last(eventbus.FolderSelected)
	require.True(t, ok)
	assert.Equal(t, root, payload["path"])
	assert.Equal(t, 0, a.Window().Editor().Count())

	a.handleFolderSelected(path, false)
	payload, _ = events.last(eventbus.FolderSelected)
	assert.Equal(t, path, payload["path"])
	assert.Equal(t, 1, a.Window().Editor().Count())
}

func TestTabChangePublishesIndexAndCount(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	events := record(a.Bus(), eventbus.TabChanged)

	for _, name := range []string{"a.txt", "b.txt"} {
		_, err := a.FileController().OpenFile(writeFile(t, root, name, name))
		require.NoError(t, err)
	}

	payload, ok := events.last(eventbus.TabChanged)
	require.True(t, ok)
	assert.Equal(t, 1, payload["index"])
	assert.Equal(t, 2, payload["tab_count"])
}

func TestSettingsAcceptResetsClient(t *testing.T) {
	model, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"), nil)
	require.NoError(t, err)

	var keys []string
	client := &fakeClient{response: "ok"}
	aiCtl := controller.NewAIController(controller.AIConfig{
		Builder: func(_ context.Context, apiKey string) (ai.Client, error) {
			keys = append(keys, apiKey)
			return client, nil
		},
		APIKey: model.APIKey,
		Model:  "test-model",
	})
	a, _ := newTestApp(t, nil, WithSettingsModel(model), WithAIController(aiCtl))

	_, err = aiCtl.GenerateCode(context.Background(), "one")
	require.NoError(t, err)

	a.handleSettings()
	dialog := a.Window().SettingsDialog()
	require.True(t, dialog.Visible())
	dialog.SetAPIKey("new-key")
	dialog.Update(key("enter"))

	assert.Equal(t, "new-key", model.APIKey())
	_, err = aiCtl.GenerateCode(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "new-key"}, keys)
}

func TestSettingsCancelKeepsClient(t *testing.T) {
	builds := 0
	aiCtl := controller.NewAIController(controller.AIConfig{
		Builder: func(context.Context, string) (ai.Client, error) {
			builds++
			return &fakeClient{response: "ok"}, nil
		},
		Model: "test-model",
	})
	a, _ := newTestApp(t, nil, WithAIController(aiCtl))

	_, err := aiCtl.GenerateCode(context.Background(), "one")
	require.NoError(t, err)
	a.handleSettings()
	a.Window().SettingsDialog().Update(key("esc"))
	_, err = aiCtl.GenerateCode(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, 1, builds)
}

func TestCloseDirtyTabAsksFirst(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	path := writeFile(t, root, "a.txt", "text")
	_, err := a.FileController().OpenFile(path)
	require.NoError(t, err)
	id, _ := a.Window().Editor().TabID(0)
	a.handleTextChanged(id)

	assert.Nil(t, a.handleCloseTab())
	prompt := a.Window().Prompt()
	require.True(t, prompt.Visible())
	assert.Equal(t, 1, a.Window().Editor().Count())

	prompt.Update(key("y"))
	assert.Equal(t, 0, a.Window().Editor().Count())
}

func TestQuitWithoutChanges(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{})

	cmd := a.handleQuit()
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestQuitWithDirtyTabConfirms(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	_, err := a.FileController().OpenFile(writeFile(t, root, "a.txt", "text"))
	require.NoError(t, err)
	id, _ := a.Window().Editor().TabID(0)
	a.handleTextChanged(id)

	assert.Nil(t, a.handleQuit())
	require.True(t, a.Window().Prompt().Visible())
	cmd := a.Window().Prompt().Update(key("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenameRetitlesOpenTabs(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	require.NoError(t, a.Start())
	old := writeFile(t, root, "old.txt", "text")
	_, err := a.FileController().OpenFile(old)
	require.NoError(t, err)

	renamed := filepath.Join(root, "new.txt")
	a.handleTreeRename(old, renamed)

	path, ok := a.FileController().CurrentPath()
	require.True(t, ok)
	assert.Equal(t, renamed, path)
	assert.Equal(t, "new.txt", a.Window().Editor().TabTitle(0))
}

func TestAttachCurrentTab(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	a.handleAttachCurrent()
	assert.Empty(t, a.Window().Chat().Attachments())

	path := writeFile(t, root, "a.txt", "text")
	_, err := a.FileController().OpenFile(path)
	require.NoError(t, err)
	a.handleAttachCurrent()
	a.handleAttachCurrent()
	assert.Equal(t, []string{path}, a.Window().Chat().Attachments())
}

func TestOpenSaveKeepsFileBytes(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	files := []struct{ name, content string }{
		{"Makefile", "all:\n\tgo build ./...\n"},
		{"long.txt", strings.Repeat("\tline\n", 12000)},
		{"crlf.txt", "a\r\n\tb\r\n"},
		{"no-newline.txt", "x\ty"},
	}

	for _, f := range files {
		path := writeFile(t, root, f.name, f.content)
		_, err := a.FileController().OpenFile(path)
		require.NoError(t, err)
		_, ok, err := a.FileController().SaveCurrentFile()
		require.NoError(t, err)
		require.True(t, ok)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, f.content, string(data), f.name)
	}
}

func TestEditingLongFileKeepsEveryLine(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	var sb strings.Builder
	for i := range 12000 {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	content := sb.String()
	path := writeFile(t, root, "big.txt", content)

	_, err := a.FileController().OpenFile(path)
	require.NoError(t, err)
	editor := a.Window().Editor()
	editor.Focus()
	editor.Update(tea.KeyMsg{Type: tea.KeyCtrlEnd})
	editor.Update(tea.KeyMsg{Type: tea.KeyTab})
	editor.Update(key("end"))
	a.handleSave()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content+"\tend", string(data))
	assert.Len(t, strings.Split(string(data), "\n"), 12001)
}

func TestOwnSaveDoesNotResetCursor(t *testing.T) {
	a, root := newTestApp(t, &fakeClient{})
	path := writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")
	_, err := a.FileController().OpenFile(path)
	require.NoError(t, err)

	editor := a.Window().Editor()
	editor.Focus()
	editor.Update(tea.KeyMsg{Type: tea.KeyDown})
	editor.Update(tea.KeyMsg{Type: tea.KeyDown})
	editor.Update(tea.KeyMsg{Type: tea.KeyEnd})
	editor.Update(key("x"))
	a.handleSave()

	a.handleFileChange(watcher.FileChangeMsg{Path: path, Operation: watcher.OpModify})
	line, col, ok := editor.Cursor(0)
	require.True(t, ok)
	assert.Equal(t, 3, line)
	assert.Equal(t, 13, col)
	assert.Equal(t, "package a\n\nfunc A() {}x\n", editor.Text(0))

	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0644))
	a.handleFileChange(watcher.FileChangeMsg{Path: path, Operation: watcher.OpModify})
	assert.Equal(t, "package a\n", editor.Text(0), "outside changes still reload")
	line, _, _ = editor.Cursor(0)
	assert.Equal(t, 2, line, "cursor is clamped to the new content")
}

func TestCorruptSettingsDoNotBlockStartup(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Settings.Path, []byte("{broken"), 0600))

	a, _ := newTestAppWith(t, cfg, &fakeClient{})
	require.NoError(t, a.Start())
	assert.Contains(t, a.Window().Status().Message(), "WARNING: settings ignored")

	a.handleSettings()
	dialog := a.Window().SettingsDialog()
	require.True(t, dialog.Visible())
	dialog.SetAPIKey("sk-fresh")
	dialog.Update(key("enter"))

	reopened, err := settings.Open(cfg.Settings.Path, nil)
	require.NoError(t, err)
	assert.NoError(t, reopened.LoadError())
	assert.Equal(t, "sk-fresh", reopened.APIKey())
}

func TestSaveWarnsWhenEncodingFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Editor.Encoding = "cp932"
	a, root := newTestAppWith(t, cfg, &fakeClient{})
	legacy, err := fileutil.Encode("テスト\n", "cp932")
	require.NoError(t, err)
	path := writeFile(t, root, "sjis.txt", string(legacy))

	_, err = a.FileController().OpenFile(path)
	require.NoError(t, err)
	a.Window().Editor().SetText(0, "テスト 😀\n")
	a.handleSave()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "テスト 😀\n", string(data))
	assert.Contains(t, a.Window().Status().Message(), "WARNING: sjis.txt saved as utf-8")
}

func TestRedoAIEditReappliesChange(t *testing.T) {
	client := &fakeClient{response: "```\nnew\n```"}
	a, root := newTestApp(t, client)
	path := writeFile(t, root, "a.txt", "old\n")
	_, err := a.FileController().OpenFile(path)
	require.NoError(t, err)

	a.handleRedoAIEdit()
	assert.Contains(t, a.Window().Status().Message(), "no AI edit to redo")

	drain(a, a.handleChatSubmit("change", ui.ModeEdit))
	a.handleUndoAIEdit()
	require.Equal(t, "old\n", a.Window().Editor().Text(0))

	a.handleRedoAIEdit()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.Equal(t, "new", a.Window().Editor().Text(0), "clean tab follows the redo")
	assert.Contains(t, a.Window().Chat().Transcript(), "reapplied: modified a.txt")
	assert.Equal(t, 1, a.Journal().Count())
	assert.Zero(t, a.Journal().RedoCount())
}

func TestAIEditHistoryListsJournal(t *testing.T) {
	client := &fakeClient{response: "```\nv2\n```"}
	a, root := newTestApp(t, client)

	a.handleAIEditHistory()
	assert.Contains(t, a.Window().Chat().Transcript(), "no AI edits to undo (0 to redo)")

	first := writeFile(t, root, "first.txt", "v1")
	second := writeFile(t, root, "second.txt", "v1")
	for _, path := range []string{first, second} {
		a.Window().Chat().ClearAttachments()
		a.Window().Chat().AddAttachment(path)
		drain(a, a.handleChatSubmit("bump", ui.ModeEdit))
	}
	a.handleUndoAIEdit()

	a.handleAIEditHistory()
	transcript := a.Window().Chat().Transcript()
	assert.Contains(t, transcript, "AI edits: 1 to undo, 1 to redo")
	assert.Contains(t, transcript, "1. ")
	assert.Contains(t, transcript, "modified first.txt")
}

func TestValidationFailuresShowAsWarnings(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{})

	a.fail("edit", apperr.Validation("attach a file"))
	assert.Equal(t, "WARNING: edit: attach a file", a.Window().Status().Message())

	a.fail("save", apperr.FileOp("failed to write file", "/x", errors.New("disk full")))
	assert.True(t, strings.HasPrefix(a.Window().Status().Message(), "ERROR: save:"))
}
