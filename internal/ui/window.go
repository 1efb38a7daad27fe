// Package ui implements the terminal views: the main window with its folder
// tree, editor tabs and chat panel, plus the settings dialog, prompts and
// status bar.
package ui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scribe/internal/tabs"
)

// Pane identifies a focusable area of the window.
type Pane int

const (
	PaneTree Pane = iota
	PaneEditor
	PaneChat
)

const statusTickInterval = time.Second

type statusTickMsg time.Time

func statusTick() tea.Cmd {
	return tea.Tick(statusTickInterval, func(t time.Time) tea.Msg { return statusTickMsg(t) })
}

// Actions are the window's outgoing signals. Nil entries are ignored.
type Actions struct {
	OpenFile       func(path string)
	NewFile        func(path string)
	OpenFolder     func(path string)
	Save           func()
	SaveAs         func(path string)
	CloseTab       func() tea.Cmd
	Settings       func()
	ChatSubmit     func(text string, mode ChatMode) tea.Cmd
	AttachPath     func(path string)
	AttachCurrent  func()
	TreeCreate     func(path string, isDir bool)
	TreeDelete     func(path string)
	TreeRename     func(oldPath, newPath string)
	TreeRefresh    func()
	FolderSelected func(path string, isDir bool)
	TextChanged    func(id tabs.ID)
	TabChanged     func(index, count int)
	UndoAIEdit     func()
	RedoAIEdit     func()
	AIEditHistory  func()
	Quit           func() tea.Cmd
	// Message receives messages the window does not handle itself.
	Message func(msg tea.Msg) tea.Cmd
}

// WindowOptions configures the main window.
type WindowOptions struct {
	Styles       *Styles
	TreeWidth    int
	ChatPercent  int
	Chat         ChatOptions
	SettingsPath string
}

// Window is the root bubbletea model.
type Window struct {
	styles   *Styles
	keys     KeyMap
	treeKeys TreeKeyMap

	editor   *EditorPane
	tree     *TreePane
	chat     *ChatPanel
	settings *SettingsDialog
	prompt   *Prompt
	status   *StatusBar

	actions     Actions
	search      *Query
	replacement string
	focus       Pane
	width       int
	height      int
	treeWidth   int
	chatPercent int
}

// NewWindow builds the window and its child views.
func NewWindow(opts WindowOptions) *Window {
	styles := opts.Styles
	if styles == nil {
		styles = DefaultStyles()
	}
	if opts.TreeWidth <= 0 {
		opts.TreeWidth = 28
	}
	if opts.ChatPercent <= 0 {
		opts.ChatPercent = 35
	}

	w := &Window{
		styles:      styles,
		keys:        DefaultKeyMap(),
		treeKeys:    DefaultTreeKeyMap(),
		editor:      NewEditorPane(styles),
		tree:        NewTreePane(styles),
		chat:        NewChatPanel(styles, opts.Chat),
		settings:    NewSettingsDialog(styles, opts.SettingsPath),
		prompt:      NewPrompt(styles),
		status:      NewStatusBar(styles),
		treeWidth:   opts.TreeWidth,
		chatPercent: opts.ChatPercent,
		focus:       PaneTree,
	}
	w.tree.Focus()
	w.editor.SetCallbacks(
		func(id tabs.ID) {
			if w.actions.TextChanged != nil {
				w.actions.TextChanged(id)
			}
		},
		func(index, count int) {
			if w.actions.TabChanged != nil {
				w.actions.TabChanged(index, count)
			}
		},
	)
	w.tree.SetOnSelect(func(path string, isDir bool) {
		if w.actions.FolderSelected != nil {
			w.actions.FolderSelected(path, isDir)
		}
	})
	w.chat.SetCallbacks(
		func(text string, mode ChatMode) tea.Cmd {
			if w.actions.ChatSubmit != nil {
				return w.actions.ChatSubmit(text, mode)
			}
			return nil
		},
		func() {
			if w.actions.AttachCurrent != nil {
				w.actions.AttachCurrent()
			}
		},
		func(msg string) { w.status.ShowStatus(msg, 3*time.Second) },
	)
	return w
}

// SetActions replaces the outgoing signals.
func (w *Window) SetActions(a Actions) { w.actions = a }

func (w *Window) Editor() *EditorPane             { return w.editor }
func (w *Window) Tree() *TreePane                 { return w.tree }
func (w *Window) Chat() *ChatPanel                { return w.chat }
func (w *Window) SettingsDialog() *SettingsDialog { return w.settings }
func (w *Window) Prompt() *Prompt                 { return w.prompt }
func (w *Window) Status() *StatusBar              { return w.status }
func (w *Window) FocusedPane() Pane               { return w.focus }

// Focus moves keyboard focus to pane.
func (w *Window) Focus(pane Pane) tea.Cmd {
	w.focus = pane
	w.tree.Blur()
	w.editor.Blur()
	w.chat.Blur()
	switch pane {
	case PaneTree:
		w.tree.Focus()
	case PaneEditor:
		w.editor.Focus()
	case PaneChat:
		return w.chat.Focus()
	}
	return nil
}

// Init starts the status refresh tick.
func (w *Window) Init() tea.Cmd {
	return statusTick()
}

// Update routes messages to modals, global keys and the focused pane.
func (w *Window) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width, w.height = msg.Width, msg.Height
		w.layout()
		return w, nil
	case statusTickMsg:
		return w, statusTick()
	case spinner.TickMsg:
		return w, w.chat.Update(msg)
	case tea.MouseMsg:
		return w, w.chat.Update(msg)
	case tea.KeyMsg:
		return w, w.handleKey(msg)
	}
	if w.actions.Message != nil {
		return w, w.actions.Message(msg)
	}
	return w, nil
}

func (w *Window) handleKey(msg tea.KeyMsg) tea.Cmd {
	if w.settings.Visible() {
		return w.settings.Update(msg)
	}
	if w.prompt.Visible() {
		return w.prompt.Update(msg)
	}

	switch {
	case key.Matches(msg, w.keys.Quit):
		if w.actions.Quit != nil {
			return w.actions.Quit()
		}
		return tea.Quit
	case key.Matches(msg, w.keys.Save):
		call(w.actions.Save)
		return nil
	case key.Matches(msg, w.keys.SaveAs):
		current, _ := w.currentFile()
		return w.prompt.Ask("Save as", current, func(v string) tea.Cmd {
			callPath(w.actions.SaveAs, w.resolve(v))
			return nil
		})
	case key.Matches(msg, w.keys.OpenFile):
		return w.prompt.Ask("Open file", w.baseDir(), func(v string) tea.Cmd {
			callPath(w.actions.OpenFile, w.resolve(v))
			return w.Focus(PaneEditor)
		})
	case key.Matches(msg, w.keys.NewFile):
		return w.prompt.Ask("New file", w.baseDir(), func(v string) tea.Cmd {
			callPath(w.actions.NewFile, w.resolve(v))
			return w.Focus(PaneEditor)
		})
	case key.Matches(msg, w.keys.OpenFolder):
		return w.prompt.Ask("Open folder", w.rootDir(), func(v string) tea.Cmd {
			callPath(w.actions.OpenFolder, w.resolve(v))
			return w.Focus(PaneTree)
		})
	case key.Matches(msg, w.keys.CloseTab):
		if w.actions.CloseTab != nil {
			return w.actions.CloseTab()
		}
		return nil
	case key.Matches(msg, w.keys.NextTab):
		if n := w.editor.Count(); n > 0 {
			w.editor.SetCurrentIndex((w.editor.CurrentIndex() + 1) % n)
		}
		return nil
	case key.Matches(msg, w.keys.PrevTab):
		if n := w.editor.Count(); n > 0 {
			w.editor.SetCurrentIndex((w.editor.CurrentIndex() - 1 + n) % n)
		}
		return nil
	case key.Matches(msg, w.keys.FocusNext):
		return w.Focus((w.focus + 1) % 3)
	case key.Matches(msg, w.keys.FocusTree):
		return w.Focus(PaneTree)
	case key.Matches(msg, w.keys.FocusEditor):
		return w.Focus(PaneEditor)
	case key.Matches(msg, w.keys.FocusChat):
		return w.Focus(PaneChat)
	case key.Matches(msg, w.keys.Settings):
		call(w.actions.Settings)
		return nil
	case key.Matches(msg, w.keys.UndoAIEdit):
		call(w.actions.UndoAIEdit)
		return nil
	case key.Matches(msg, w.keys.RedoAIEdit):
		call(w.actions.RedoAIEdit)
		return nil
	case key.Matches(msg, w.keys.EditHistory):
		call(w.actions.AIEditHistory)
		return nil
	case key.Matches(msg, w.keys.Find):
		return w.askFind()
	case key.Matches(msg, w.keys.FindNext):
		if w.search == nil {
			return w.askFind()
		}
		w.findNext()
		return nil
	case key.Matches(msg, w.keys.Replace), key.Matches(msg, w.keys.ReplaceAll):
		return w.askReplace(key.Matches(msg, w.keys.ReplaceAll))
	}

	switch w.focus {
	case PaneTree:
		return w.handleTreeKey(msg)
	case PaneEditor:
		return w.editor.Update(msg)
	case PaneChat:
		return w.chat.Update(msg)
	}
	return nil
}

func (w *Window) askFind() tea.Cmd {
	initial := ""
	if w.search != nil {
		initial = w.search.Input
	}
	return w.prompt.AskRaw("Find ("+RegexPrefix+" for regex)", initial, func(v string) tea.Cmd {
		q, err := ParseQuery(v)
		if err != nil {
			w.status.ShowStatus("WARNING: "+err.Error(), 3*time.Second)
			return nil
		}
		w.search = &q
		w.findNext()
		return w.Focus(PaneEditor)
	})
}

func (w *Window) findNext() {
	if !w.editor.Find(*w.search) {
		w.status.ShowStatus("INFO: no match for "+w.search.Input, 3*time.Second)
	}
}

func (w *Window) askReplace(all bool) tea.Cmd {
	if w.search == nil {
		w.status.ShowStatus("INFO: find something first (ctrl+f)", 3*time.Second)
		return nil
	}
	title := "Replace " + w.search.Input + " with"
	if all {
		title = "Replace all " + w.search.Input + " with"
	}
	return w.prompt.AskRaw(title, w.replacement, func(v string) tea.Cmd {
		w.replacement = v
		q := *w.search
		if all {
			n := w.editor.ReplaceAll(q, v)
			w.status.ShowStatus(fmt.Sprintf("INFO: replaced %d occurrence(s)", n), 3*time.Second)
		} else if !w.editor.Replace(q, v) {
			w.findNext()
		}
		return w.Focus(PaneEditor)
	})
}

func (w *Window) handleTreeKey(msg tea.KeyMsg) tea.Cmd {
	if w.tree.Filtering() {
		return w.tree.Update(msg)
	}
	path, ok := w.tree.CurrentPath()
	dir := path
	if ok && !w.tree.CurrentIsDir() {
		dir = filepath.Dir(path)
	}

	switch {
	case key.Matches(msg, w.treeKeys.NewFile), key.Matches(msg, w.treeKeys.NewFolder):
		if !ok {
			return nil
		}
		isDir := key.Matches(msg, w.treeKeys.NewFolder)
		title := "New file in " + filepath.Base(dir)
		if isDir {
			title = "New folder in " + filepath.Base(dir)
		}
		return w.prompt.Ask(title, "", func(name string) tea.Cmd {
			if w.actions.TreeCreate != nil {
				w.actions.TreeCreate(filepath.Join(dir, name), isDir)
			}
			return nil
		})
	case key.Matches(msg, w.treeKeys.Delete):
		if !ok || w.tree.Root() == nil || path == w.tree.Root().Path {
			return nil
		}
		w.prompt.Confirm("Delete "+filepath.Base(path)+"?", func() tea.Cmd {
			callPath(w.actions.TreeDelete, path)
			return nil
		})
		return nil
	case key.Matches(msg, w.treeKeys.Rename):
		if !ok || w.tree.Root() == nil || path == w.tree.Root().Path {
			return nil
		}
		return w.prompt.Ask("Rename "+filepath.Base(path), filepath.Base(path), func(name string) tea.Cmd {
			if w.actions.TreeRename != nil {
				w.actions.TreeRename(path, filepath.Join(filepath.Dir(path), name))
			}
			return nil
		})
	case key.Matches(msg, w.treeKeys.Refresh):
		call(w.actions.TreeRefresh)
		return nil
	case key.Matches(msg, w.treeKeys.Attach):
		if ok && !w.tree.CurrentIsDir() {
			callPath(w.actions.AttachPath, path)
		}
		return nil
	}
	return w.tree.Update(msg)
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func callPath(fn func(string), path string) {
	if fn != nil && path != "" {
		fn(path)
	}
}

// currentFile returns the path of the tree selection when it is a file.
func (w *Window) currentFile() (string, bool) {
	path, ok := w.tree.CurrentPath()
	if !ok || w.tree.CurrentIsDir() {
		return "", false
	}
	return path, true
}

func (w *Window) rootDir() string {
	if r := w.tree.Root(); r != nil {
		return r.Path + string(filepath.Separator)
	}
	return ""
}

func (w *Window) baseDir() string {
	if path, ok := w.tree.CurrentPath(); ok {
		if !w.tree.CurrentIsDir() {
			path = filepath.Dir(path)
		}
		return path + string(filepath.Separator)
	}
	return w.rootDir()
}

// resolve makes relative prompt input relative to the open folder.
func (w *Window) resolve(v string) string {
	if v == "" || filepath.IsAbs(v) || v[0] == '~' {
		return v
	}
	if r := w.tree.Root(); r != nil {
		return filepath.Join(r.Path, v)
	}
	return v
}

func (w *Window) layout() {
	w.status.SetRight("")
	if line, col, ok := w.editor.Cursor(w.editor.CurrentIndex()); ok {
		w.status.SetRight(fmt.Sprintf("Ln %d, Col %d", line, col))
	}

	bodyHeight := max(w.height-1, 3)
	inner := max(bodyHeight-2, 1)

	treeOuter := min(w.treeWidth, w.width/3)
	chatOuter := w.width * w.chatPercent / 100
	editorOuter := max(w.width-treeOuter-chatOuter, 12)

	w.tree.SetSize(max(treeOuter-2, 1), inner)
	w.editor.SetSize(max(editorOuter-2, 1), inner)
	w.chat.SetSize(max(chatOuter-2, 1), inner)
}

func (w *Window) paneStyle(p Pane, outerWidth, outerHeight int) lipgloss.Style {
	style := w.styles.Pane
	if w.focus == p {
		style = w.styles.PaneFocused
	}
	return style.Width(max(outerWidth-2, 1)).Height(max(outerHeight-2, 1))
}

// View renders the three panes and the status bar, or the open modal.
func (w *Window) View() string {
	if w.width == 0 {
		return "loading..."
	}

	if w.settings.Visible() || w.prompt.Visible() {
		modal := w.prompt.View()
		if w.settings.Visible() {
			modal = w.settings.View()
		}
		return lipgloss.Place(w.width, w.height, lipgloss.Center, lipgloss.Center, modal)
	}

	bodyHeight := max(w.height-1, 3)
	treeOuter := min(w.treeWidth, w.width/3)
	chatOuter := w.width * w.chatPercent / 100
	editorOuter := max(w.width-treeOuter-chatOuter, 12)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		w.paneStyle(PaneTree, treeOuter, bodyHeight).Render(w.tree.View()),
		w.paneStyle(PaneEditor, editorOuter, bodyHeight).Render(w.editor.View()),
		w.paneStyle(PaneChat, chatOuter, bodyHeight).Render(w.chat.View()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, body, w.status.View(w.width))
}
