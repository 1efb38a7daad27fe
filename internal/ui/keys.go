package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the global key bindings of the main window.
type KeyMap struct {
	Save        key.Binding
	SaveAs      key.Binding
	OpenFile    key.Binding
	NewFile     key.Binding
	OpenFolder  key.Binding
	CloseTab    key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	FocusNext   key.Binding
	FocusTree   key.Binding
	FocusEditor key.Binding
	FocusChat   key.Binding
	Settings    key.Binding
	UndoAIEdit  key.Binding
	RedoAIEdit  key.Binding
	EditHistory key.Binding
	Find        key.Binding
	FindNext    key.Binding
	Replace     key.Binding
	ReplaceAll  key.Binding
	Quit        key.Binding
}

// TreeKeyMap holds the bindings active while the folder tree has focus.
type TreeKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Select    key.Binding
	NewFile   key.Binding
	NewFolder key.Binding
	Delete    key.Binding
	Rename    key.Binding
	Refresh   key.Binding
	Filter    key.Binding
	Attach    key.Binding
}

// ChatKeyMap holds the bindings active while the chat panel has focus.
type ChatKeyMap struct {
	Send          key.Binding
	ToggleMode    key.Binding
	AttachCurrent key.Binding
	ClearAttached key.Binding
	CopyCode      key.Binding
	PrevCode      key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
}

// DefaultKeyMap returns the default global bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		SaveAs:      key.NewBinding(key.WithKeys("alt+s"), key.WithHelp("alt+s", "save as")),
		OpenFile:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open file")),
		NewFile:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new file")),
		OpenFolder:  key.NewBinding(key.WithKeys("alt+o"), key.WithHelp("alt+o", "open folder")),
		CloseTab:    key.NewBinding(key.WithKeys("ctrl+w"), key.WithHelp("ctrl+w", "close tab")),
		NextTab:     key.NewBinding(key.WithKeys("ctrl+pgdown", "alt+l"), key.WithHelp("alt+l", "next tab")),
		PrevTab:     key.NewBinding(key.WithKeys("ctrl+pgup", "alt+h"), key.WithHelp("alt+h", "prev tab")),
		FocusNext:   key.NewBinding(key.WithKeys("f6"), key.WithHelp("f6", "next pane")),
		FocusTree:   key.NewBinding(key.WithKeys("alt+1"), key.WithHelp("alt+1", "tree")),
		FocusEditor: key.NewBinding(key.WithKeys("alt+2"), key.WithHelp("alt+2", "editor")),
		FocusChat:   key.NewBinding(key.WithKeys("alt+3"), key.WithHelp("alt+3", "chat")),
		Settings:    key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "settings")),
		UndoAIEdit:  key.NewBinding(key.WithKeys("alt+z"), key.WithHelp("alt+z", "undo ai edit")),
		RedoAIEdit:  key.NewBinding(key.WithKeys("alt+y"), key.WithHelp("alt+y", "redo ai edit")),
		EditHistory: key.NewBinding(key.WithKeys("alt+e"), key.WithHelp("alt+e", "ai edit history")),
		Find:        key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "find")),
		FindNext:    key.NewBinding(key.WithKeys("f3"), key.WithHelp("f3", "find next")),
		Replace:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "replace")),
		ReplaceAll:  key.NewBinding(key.WithKeys("alt+r"), key.WithHelp("alt+r", "replace all")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("ctrl+q", "quit")),
	}
}

// DefaultTreeKeyMap returns the default tree bindings.
func DefaultTreeKeyMap() TreeKeyMap {
	return TreeKeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k")),
		Down:      key.NewBinding(key.WithKeys("down", "j")),
		Toggle:    key.NewBinding(key.WithKeys("space", " ", "right", "left")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		NewFile:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new file")),
		NewFolder: key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new folder")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Refresh:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
		Filter:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Attach:    key.NewBinding(key.WithKeys("+", "a"), key.WithHelp("a", "attach to chat")),
	}
}

// DefaultChatKeyMap returns the default chat bindings.
func DefaultChatKeyMap() ChatKeyMap {
	return ChatKeyMap{
		Send:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		ToggleMode:    key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "chat/edit")),
		AttachCurrent: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "attach tab")),
		ClearAttached: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear attachments")),
		CopyCode:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy code")),
		PrevCode:      key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "previous code block")),
		ScrollUp:      key.NewBinding(key.WithKeys("pgup")),
		ScrollDown:    key.NewBinding(key.WithKeys("pgdown")),
	}
}
