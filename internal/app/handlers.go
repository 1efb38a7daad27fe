package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"scribe/internal/apperr"
	"scribe/internal/controller"
	"scribe/internal/eventbus"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/tabs"
	"scribe/internal/undo"
	"scribe/internal/watcher"
)

// HandleEvent reacts to bus events the app subscribed to.
func (a *App) HandleEvent(event string, _ eventbus.Payload) error {
	switch event {
	case eventbus.FileSaveRequest:
		return a.saveCurrent()
	}
	return nil
}

func (a *App) handleOpenFile(path string) {
	logging.UserAction(a.base, "open_file", map[string]any{"path": path})
	if _, err := a.fileCtl.OpenFile(path); err != nil {
		a.fail("open file", err)
	}
}

func (a *App) handleNewFile(path string) {
	logging.UserAction(a.base, "new_file", map[string]any{"path": path})
	if _, err := a.fileCtl.CreateNewFile(path); err != nil {
		a.fail("new file", err)
		return
	}
	a.refreshTreeFor(path)
}

func (a *App) handleOpenFolder(path string) {
	logging.UserAction(a.base, "open_folder", map[string]any{"path": path})
	if err := a.folderCtl.LoadInitialTree(path); err != nil {
		a.fail("open folder", err)
		return
	}
	if a.State() == StateRunning {
		a.restartWatcher(a.folderCtl.Root())
	}
}

// handleSave only requests the save; the bus subscription performs it.
func (a *App) handleSave() {
	logging.UserAction(a.base, "save", nil)
	a.bus.Publish(eventbus.FileSaveRequest, nil)
}

func (a *App) saveCurrent() error {
	path, ok, err := a.fileCtl.SaveCurrentFile()
	if err != nil {
		a.fail("save", err)
		return err
	}
	a.publishSaved(path, ok)
	return nil
}

func (a *App) handleSaveAs(path string) {
	logging.UserAction(a.base, "save_as", map[string]any{"path": path})
	saved, ok, err := a.fileCtl.SaveFileAs(path)
	if err != nil {
		a.fail("save as", err)
		return
	}
	a.publishSaved(saved, ok)
	if ok {
		a.refreshTreeFor(saved)
	}
}

func (a *App) publishSaved(path string, ok bool) {
	if !ok {
		a.bus.Publish(eventbus.FileSaved, nil)
		return
	}
	a.bus.Publish(eventbus.FileSaved, eventbus.Payload{"path": path})
}

// handleCloseTab asks before dropping unsaved changes.
func (a *App) handleCloseTab() tea.Cmd {
	_, err := a.fileCtl.CloseCurrentTab(false)
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if !apperr.IsKind(err, apperr.KindValidation) || !errors.As(err, &appErr) {
		a.fail("close tab", err)
		return nil
	}

	a.window.Prompt().Confirm(fmt.Sprintf("Discard changes to %s?", filepath.Base(appErr.Path)), func() tea.Cmd {
		if _, err := a.fileCtl.CloseCurrentTab(true); err != nil {
			a.fail("close tab", err)
		}
		return nil
	})
	return nil
}

// handleSettings drops the AI client after an accepted dialog so the new key
// is used on the next request.
func (a *App) handleSettings() {
	logging.UserAction(a.base, "open_settings", nil)
	a.settingsCtl.OpenDialog(func(accepted bool) {
		if !accepted {
			return
		}
		a.aiCtl.ResetClient()
		a.info("settings saved")
	})
}

func (a *App) handleAttachPath(path string) {
	if a.window.Chat().AddAttachment(path) {
		a.info("attached " + filepath.Base(path))
	}
}

func (a *App) handleAttachCurrent() {
	path, ok := a.fileCtl.CurrentPath()
	if !ok {
		a.info("no open tab to attach")
		return
	}
	a.handleAttachPath(path)
}

func (a *App) handleTreeCreate(path string, isDir bool) {
	logging.UserAction(a.base, "create_item", map[string]any{"path": path, "is_dir": isDir})
	if err := a.folderCtl.HandleCreate(path, isDir); err != nil {
		a.fail("create", err)
	}
}

func (a *App) handleTreeDelete(path string) {
	logging.UserAction(a.base, "delete_item", map[string]any{"path": path})
	if err := a.folderCtl.HandleDelete(path); err != nil {
		a.fail("delete", err)
	}
}

// handleTreeRename renames on disk and retitles tabs showing the old path.
func (a *App) handleTreeRename(oldPath, newPath string) {
	logging.UserAction(a.base, "rename_item", map[string]any{"old": oldPath, "new": newPath})
	if err := a.folderCtl.HandleRename(oldPath, newPath); err != nil {
		a.fail("rename", err)
		return
	}
	editor := a.window.Editor()
	for _, id := range a.tabState.FindAllByPath(oldPath) {
		if err := a.tabState.UpdatePath(id, newPath); err != nil {
			continue
		}
		if index := editor.IndexOf(id); index >= 0 {
			dirty, _ := a.tabState.IsDirty(id)
			editor.SetTabTitle(index, controller.TabTitle(newPath, dirty))
		}
	}
}

func (a *App) handleTreeRefresh() {
	if err := a.folderCtl.Refresh(); err != nil {
		a.fail("refresh", err)
	}
}

// handleFolderSelected publishes the selection and opens files.
func (a *App) handleFolderSelected(path string, isDir bool) {
	a.bus.Publish(eventbus.FolderSelected, eventbus.Payload{"path": path})
	if !isDir {
		a.handleOpenFile(path)
	}
}

func (a *App) handleTextChanged(id tabs.ID) {
	a.fileCtl.OnEditorTextChanged(id)
}

func (a *App) handleTabChanged(index, count int) {
	a.bus.Publish(eventbus.TabChanged, eventbus.Payload{"index": index, "tab_count": count})
}

// handleUndoAIEdit reverts the latest AI edit and reloads clean tabs.
func (a *App) handleUndoAIEdit() {
	change, err := a.journal.Undo()
	if err != nil {
		if errors.Is(err, undo.ErrNothingToUndo) {
			a.info("no AI edit to undo")
			return
		}
		a.fail("undo AI edit", err)
		return
	}
	if !change.WasNew {
		if _, err := a.fileCtl.ReloadPath(change.FilePath); err != nil {
			a.fail("reload", err)
		}
	}
	a.refreshTreeFor(change.FilePath)
	a.window.Chat().AppendInfo("reverted: " + change.Summary())
}

// handleRedoAIEdit re-applies the latest undone AI edit.
func (a *App) handleRedoAIEdit() {
	change, err := a.journal.Redo()
	if err != nil {
		if errors.Is(err, undo.ErrNothingToRedo) {
			a.info("no AI edit to redo")
			return
		}
		a.fail("redo AI edit", err)
		return
	}
	if _, err := a.fileCtl.ReloadPath(change.FilePath); err != nil {
		a.fail("reload", err)
	}
	a.refreshTreeFor(change.FilePath)
	a.window.Chat().AppendInfo("reapplied: " + change.Summary())
}

// aiEditHistoryLimit caps the journal listing shown in chat.
const aiEditHistoryLimit = 10

// handleAIEditHistory lists the undoable AI edits in the chat transcript.
func (a *App) handleAIEditHistory() {
	recent := a.journal.ListRecent(aiEditHistoryLimit)
	if len(recent) == 0 {
		a.window.Chat().AppendInfo(fmt.Sprintf("no AI edits to undo (%d to redo)", a.journal.RedoCount()))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "AI edits: %d to undo, %d to redo", a.journal.Count(), a.journal.RedoCount())
	for i, change := range recent {
		fmt.Fprintf(&sb, "\n%d. %s %s", i+1, change.Timestamp.Format(time.TimeOnly), change.Summary())
	}
	a.window.Chat().AppendInfo(sb.String())
}

// handleQuit confirms when tabs have unsaved changes.
func (a *App) handleQuit() tea.Cmd {
	if !a.hasDirtyTabs() {
		return a.quit()
	}
	a.window.Prompt().Confirm("Quit and discard unsaved changes?", a.quit)
	return nil
}

func (a *App) quit() tea.Cmd {
	logging.UserAction(a.base, "quit", nil)
	a.cancel()
	a.stopWatcher()
	return tea.Quit
}

func (a *App) hasDirtyTabs() bool {
	editor := a.window.Editor()
	for i := 0; i < editor.Count(); i++ {
		id, ok := editor.TabID(i)
		if !ok {
			continue
		}
		if dirty, _ := a.tabState.IsDirty(id); dirty {
			return true
		}
	}
	return false
}

// handleMessage receives results from background work.
func (a *App) handleMessage(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case chatChunkMsg:
		a.window.Chat().AppendChunk(string(msg))
	case chatReplyMsg:
		return a.finishChat(msg)
	case editReplyMsg:
		return a.finishEdit(msg)
	case watcher.FileChangeMsg:
		a.handleFileChange(msg)
	}
	return nil
}

// refreshTreeFor rebuilds the tree when path lies under the open folder.
func (a *App) refreshTreeFor(path string) {
	root := a.folderCtl.Root()
	if root == "" || !fileutil.IsWithin(root, path) {
		return
	}
	if err := a.folderCtl.Refresh(); err != nil {
		a.fail("refresh", err)
	}
}

func (a *App) restartWatcher(root string) {
	a.stopWatcher()
	if root == "" {
		return
	}
	ignore := func(path string) bool { return a.builder.Excluded(root, path) }
	w, err := watcher.NewWatcher(root, ignore, watcher.FromConfig(a.cfg.Watcher), logging.Child(a.base, "watcher"))
	if err != nil {
		a.fail("watch folder", err)
		return
	}
	w.SetOnFileChange(func(path string, op watcher.Operation) {
		if send := a.sender(); send != nil {
			send(watcher.NewFileChangeMsg(path, op))
		}
	})
	if err := w.Start(); err != nil {
		a.fail("watch folder", err)
		return
	}
	a.watcher = w
}

func (a *App) stopWatcher() {
	if a.watcher == nil {
		return
	}
	if err := a.watcher.Stop(); err != nil {
		a.base.Debug("error stopping file watcher", "error", err)
	}
	a.watcher = nil
}

// handleFileChange refreshes the tree and reloads clean tabs showing path.
func (a *App) handleFileChange(msg watcher.FileChangeMsg) {
	a.bus.Publish(eventbus.FolderChanged, eventbus.Payload{"path": msg.Path, "op": msg.Operation.String()})
	if err := a.folderCtl.Refresh(); err != nil {
		a.base.Warn("tree refresh after change failed", "path", msg.Path, "error", err)
	}
	if msg.Operation == watcher.OpDelete || msg.Operation == watcher.OpRename {
		return
	}
	if _, err := os.Stat(msg.Path); err != nil {
		return
	}
	if _, err := a.fileCtl.ReloadPath(msg.Path); err != nil {
		a.base.Warn("reload after change failed", "path", msg.Path, "error", err)
	}
}
