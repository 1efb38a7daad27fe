package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"scribe/internal/ai"
	"scribe/internal/apperr"
	"scribe/internal/eventbus"
	"scribe/internal/files"
	"scribe/internal/fileutil"
	"scribe/internal/highlight"
	"scribe/internal/logging"
	"scribe/internal/ui"
	"scribe/internal/undo"
)

// diffContext is the number of unchanged lines kept around each edit hunk.
const diffContext = 3

// emptyMessage is shown when the user submits a blank message.
const emptyMessage = "Please enter a message."

type (
	chatChunkMsg string

	chatReplyMsg struct {
		text string
		err  error
	}

	editReplyMsg struct {
		target   string
		response string
		err      error
	}
)

// handleChatSubmit sends the message with its attachments. Edit mode writes
// the reply into the target file once it arrives.
func (a *App) handleChatSubmit(text string, mode ui.ChatMode) tea.Cmd {
	chat := a.window.Chat()
	message := strings.TrimSpace(text)
	if message == "" {
		chat.AppendError(emptyMessage)
		return nil
	}

	paths := chat.Attachments()
	var target string
	if mode == ui.ModeEdit {
		t, err := a.editTarget(paths)
		if err != nil {
			chat.AppendError(err.Error())
			return nil
		}
		target = t
		if !slices.Contains(paths, target) {
			paths = append(paths, target)
		}
	}

	prompt, err := a.composePrompt(message, paths)
	if err != nil {
		chat.AppendError(err.Error())
		return nil
	}

	logging.UserAction(a.base, "chat_submit", map[string]any{
		"mode":        mode.String(),
		"attachments": len(paths),
	})
	chat.AppendUser(message)
	spin := chat.SetBusy(true)

	if mode == ui.ModeEdit {
		return tea.Batch(spin, a.requestEdit(prompt, target))
	}
	return tea.Batch(spin, a.requestChat(prompt))
}

// editTarget picks the file an edit applies to: the sole attachment, or the
// focused tab. A tab with unsaved changes is refused.
func (a *App) editTarget(attachments []string) (string, error) {
	if len(attachments) == 1 {
		return a.checkClean(attachments[0])
	}
	path, ok := a.fileCtl.CurrentPath()
	if !ok {
		return "", apperr.Validation("attach a file or open a tab to edit")
	}
	return a.checkClean(path)
}

func (a *App) checkClean(path string) (string, error) {
	for _, id := range a.tabState.FindAllByPath(path) {
		if dirty, _ := a.tabState.IsDirty(id); dirty {
			return "", apperr.Validation(fmt.Sprintf("save %s before editing it", filepath.Base(path)))
		}
	}
	return path, nil
}

// composePrompt appends each attachment wrapped in begin/end markers.
func (a *App) composePrompt(message string, paths []string) (string, error) {
	return ComposePrompt(a.fileModel, a.cfg.Editor.Encoding, message, paths)
}

// ComposePrompt appends the text of each file in paths to message, wrapped
// in "----- FILE BEGIN: <path> -----" and "----- FILE END: <path> -----"
// lines. Files are decoded with the model's encoding probe but not registered
// as open.
func ComposePrompt(fm *files.Model, encoding, message string, paths []string) (string, error) {
	if len(paths) == 0 {
		return message, nil
	}

	var b strings.Builder
	b.WriteString(message)
	for _, path := range paths {
		content, _, err := fm.Read(path, encoding)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n\n----- FILE BEGIN: %s -----\n", path)
		b.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "----- FILE END: %s -----", path)
	}
	return b.String(), nil
}

// requestChat streams the reply. Chunks reach the panel through the sender
// when one is set; the final message carries the whole text.
func (a *App) requestChat(prompt string) tea.Cmd {
	ctx := a.ctx
	send := a.sender()
	return a.track(func() tea.Msg {
		stream, err := a.aiCtl.StreamChat(ctx, prompt)
		if err != nil {
			return chatReplyMsg{err: err}
		}
		var reply strings.Builder
		for chunk, err := range stream {
			if err != nil {
				return chatReplyMsg{text: reply.String(), err: err}
			}
			reply.WriteString(chunk)
			if send != nil {
				send(chatChunkMsg(chunk))
			}
		}
		return chatReplyMsg{text: reply.String()}
	})
}

func (a *App) requestEdit(prompt, target string) tea.Cmd {
	ctx := a.ctx
	return a.track(func() tea.Msg {
		response, err := a.aiCtl.GenerateCode(ctx, prompt)
		return editReplyMsg{target: target, response: response, err: err}
	})
}

func (a *App) finishChat(msg chatReplyMsg) tea.Cmd {
	chat := a.window.Chat()
	chat.SetBusy(false)
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return nil
		}
		chat.AppendError(msg.err.Error())
		return nil
	}
	chat.AppendAssistant(msg.text)
	return nil
}

func (a *App) finishEdit(msg editReplyMsg) tea.Cmd {
	chat := a.window.Chat()
	chat.SetBusy(false)
	if msg.err != nil {
		if !errors.Is(msg.err, context.Canceled) {
			chat.AppendError(msg.err.Error())
		}
		return nil
	}
	chat.AppendAssistant(msg.response)

	diff, err := a.applyEdit(msg.target, msg.response)
	if err != nil {
		a.fail("apply AI edit", err)
		chat.AppendError(err.Error())
		return nil
	}
	chat.AppendDiff(diff)

	if _, err := a.fileCtl.ReloadPath(diff.Path); err != nil {
		a.fail("reload", err)
	}
	a.refreshTreeFor(diff.Path)
	a.bus.Publish(eventbus.AIEditApplied, eventbus.Payload{"path": diff.Path})
	return nil
}

// applyEdit writes the edit content of response to path through the journal,
// keeping the file's detected encoding.
func (a *App) applyEdit(path, response string) (highlight.LineDiff, error) {
	path = fileutil.Canonical(path)
	content := ai.EditContent(response)

	oldText, enc, err := a.fileModel.Read(path, a.cfg.Editor.Encoding)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return highlight.LineDiff{}, err
		}
		oldText, enc = "", a.cfg.Editor.Encoding
	}
	if enc == "" {
		enc = fileutil.EncodingUTF8
	}

	data, err := fileutil.Encode(content, enc)
	if err != nil {
		return highlight.LineDiff{}, apperr.FileOp("failed to encode edit", path, err)
	}
	if _, err := a.journal.Apply(path, data, undo.SourceAIEdit); err != nil {
		return highlight.LineDiff{}, err
	}
	return highlight.Compare(path, oldText, content, diffContext), nil
}
