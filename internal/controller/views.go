// Package controller mediates between the models and the views. Controllers
// are synchronous and are called from the UI update loop.
package controller

import (
	"log/slog"
	"path/filepath"

	"scribe/internal/folders"
	"scribe/internal/settings"
	"scribe/internal/tabs"
)

// EditorView is the tab strip with one editor pane per tab. Each pane holds
// the tab id it was created with.
type EditorView interface {
	AddTab(id tabs.ID, title, content string) int
	RemoveTab(index int)
	Count() int
	// CurrentIndex returns -1 when there are no tabs.
	CurrentIndex() int
	SetCurrentIndex(index int)
	TabID(index int) (tabs.ID, bool)
	// IndexOf returns -1 for unknown ids.
	IndexOf(id tabs.ID) int
	SetTabTitle(index int, title string)
	Text(index int) string
	// SetText replaces the buffer without reporting a user edit.
	SetText(index int, text string)
}

// FolderView displays the folder tree.
type FolderView interface {
	Populate(root *folders.Node)
	// SelectPath selects the row for path and reports whether it exists.
	SelectPath(path string) bool
	CurrentPath() (string, bool)
}

// SettingsDialog is a modal form for the settings.
type SettingsDialog interface {
	APIKey() string
	SetAPIKey(key string)
	// Show displays the dialog and calls done once it is closed.
	Show(done func(accepted bool))
}

// DialogFactory builds a settings dialog.
type DialogFactory func(model *settings.Model, logger *slog.Logger) SettingsDialog

// TabTitle is the label of a tab. A trailing "*" marks unsaved changes.
func TabTitle(path string, dirty bool) string {
	title := filepath.Base(path)
	if dirty {
		title += "*"
	}
	return title
}
