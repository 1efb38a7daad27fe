package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scribe/internal/tabs"
)

type editorTab struct {
	id    tabs.ID
	title string
	area  *Buffer
}

// EditorPane is the tab strip with one Buffer per open file. It
// implements controller.EditorView.
type EditorPane struct {
	styles  *Styles
	tabs    []*editorTab
	current int
	width   int
	height  int
	focused bool

	onTextChanged func(id tabs.ID)
	onTabChanged  func(index, count int)
}

// NewEditorPane creates an empty editor pane.
func NewEditorPane(styles *Styles) *EditorPane {
	return &EditorPane{styles: styles, current: -1}
}

// SetCallbacks sets the text-changed and current-tab-changed callbacks.
func (p *EditorPane) SetCallbacks(onTextChanged func(tabs.ID), onTabChanged func(index, count int)) {
	p.onTextChanged = onTextChanged
	p.onTabChanged = onTabChanged
}

func (p *EditorPane) newArea(content string) *Buffer {
	b := NewBuffer(p.styles, content)
	b.SetSize(max(p.width, 10), max(p.height-1, 1))
	return b
}

// AddTab appends a tab and returns its index. The first tab becomes current.
func (p *EditorPane) AddTab(id tabs.ID, title, content string) int {
	p.tabs = append(p.tabs, &editorTab{id: id, title: title, area: p.newArea(content)})
	index := len(p.tabs) - 1
	if p.current < 0 {
		p.SetCurrentIndex(index)
	}
	return index
}

// RemoveTab removes the tab at index. The neighbouring tab becomes current.
func (p *EditorPane) RemoveTab(index int) {
	if index < 0 || index >= len(p.tabs) {
		return
	}
	p.tabs = append(p.tabs[:index], p.tabs[index+1:]...)

	next := p.current
	switch {
	case len(p.tabs) == 0:
		next = -1
	case p.current > index || p.current >= len(p.tabs):
		next = p.current - 1
	}
	p.current = -2
	p.SetCurrentIndex(next)
}

// Count returns the number of tabs.
func (p *EditorPane) Count() int { return len(p.tabs) }

// CurrentIndex returns the focused tab, or -1.
func (p *EditorPane) CurrentIndex() int { return p.current }

// SetCurrentIndex focuses the tab at index and reports the change.
func (p *EditorPane) SetCurrentIndex(index int) {
	if index < -1 || index >= len(p.tabs) || index == p.current {
		return
	}
	if t := p.tab(p.current); t != nil {
		t.area.Blur()
	}
	p.current = index
	if t := p.tab(index); t != nil && p.focused {
		t.area.Focus()
	}
	if p.onTabChanged != nil {
		p.onTabChanged(index, len(p.tabs))
	}
}

// TabID returns the id of the tab at index.
func (p *EditorPane) TabID(index int) (tabs.ID, bool) {
	t := p.tab(index)
	if t == nil {
		return "", false
	}
	return t.id, true
}

// IndexOf returns the index of the tab with id, or -1.
func (p *EditorPane) IndexOf(id tabs.ID) int {
	for i, t := range p.tabs {
		if t.id == id {
			return i
		}
	}
	return -1
}

// SetTabTitle changes the label of the tab at index.
func (p *EditorPane) SetTabTitle(index int, title string) {
	if t := p.tab(index); t != nil {
		t.title = title
	}
}

// TabTitle returns the label of the tab at index.
func (p *EditorPane) TabTitle(index int) string {
	if t := p.tab(index); t != nil {
		return t.title
	}
	return ""
}

// Text returns the buffer of the tab at index.
func (p *EditorPane) Text(index int) string {
	if t := p.tab(index); t != nil {
		return t.area.Value()
	}
	return ""
}

// Cursor returns the 1-based line and column of the cursor in the tab at index.
func (p *EditorPane) Cursor(index int) (line, col int, ok bool) {
	t := p.tab(index)
	if t == nil {
		return 0, 0, false
	}
	return t.area.Line() + 1, t.area.Column() + 1, true
}

// SetText replaces the buffer of the tab at index, keeping the cursor
// where possible. Identical text leaves the buffer untouched. It does not
// report a change.
func (p *EditorPane) SetText(index int, text string) {
	t := p.tab(index)
	if t == nil || t.area.Value() == text {
		return
	}
	row, col := t.area.Line(), t.area.Column()
	t.area.SetValue(text)
	t.area.SetCursor(row, col)
}

// Focus gives keyboard focus to the current tab.
func (p *EditorPane) Focus() {
	p.focused = true
	if t := p.tab(p.current); t != nil {
		t.area.Focus()
	}
}

// Blur removes keyboard focus.
func (p *EditorPane) Blur() {
	p.focused = false
	if t := p.tab(p.current); t != nil {
		t.area.Blur()
	}
}

// SetSize sets the inner size of the pane including the tab strip.
func (p *EditorPane) SetSize(width, height int) {
	p.width, p.height = width, height
	for _, t := range p.tabs {
		t.area.SetSize(max(width, 10), max(height-1, 1))
	}
}

// Update forwards input to the current buffer and reports edits.
func (p *EditorPane) Update(msg tea.Msg) tea.Cmd {
	t := p.tab(p.current)
	if t == nil {
		return nil
	}
	if t.area.Update(msg) {
		p.changed(t)
	}
	return nil
}

func (p *EditorPane) changed(t *editorTab) {
	if p.onTextChanged != nil {
		p.onTextChanged(t.id)
	}
}

// Find selects the next match of q in the current tab after the cursor or
// the current match, wrapping at the end.
func (p *EditorPane) Find(q Query) bool {
	t := p.tab(p.current)
	if t == nil {
		return false
	}
	from := t.area.Offset()
	if _, end, ok := t.area.Selection(); ok {
		from = end
	}
	start, end, ok := q.FindFrom(t.area.Value(), from)
	if !ok {
		return false
	}
	t.area.Select(start, end)
	return true
}

// Replace swaps the selected match of q for repl and moves on to the next
// match. It reports false, changing nothing, when no match is selected.
func (p *EditorPane) Replace(q Query, repl string) bool {
	t := p.tab(p.current)
	if t == nil {
		return false
	}
	start, end, ok := t.area.Selection()
	if !ok {
		return false
	}
	text, ok := q.ReplaceAt(t.area.Value(), start, end, repl)
	if !ok {
		return false
	}
	t.area.Replace(start, end, text)
	p.changed(t)
	p.Find(q)
	return true
}

// ReplaceAll replaces every match of q in the current tab and returns how
// many there were.
func (p *EditorPane) ReplaceAll(q Query, repl string) int {
	t := p.tab(p.current)
	if t == nil {
		return 0
	}
	text, n := q.ReplaceAll(t.area.Value(), repl)
	if n == 0 {
		return 0
	}
	row, col := t.area.Line(), t.area.Column()
	t.area.SetValue(text)
	t.area.SetCursor(row, col)
	p.changed(t)
	return n
}

// View renders the tab strip and the current buffer.
func (p *EditorPane) View() string {
	if len(p.tabs) == 0 {
		hint := p.styles.Dim.Render("No open files. ctrl+o opens a file, ctrl+n creates one.")
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, hint)
	}

	labels := make([]string, 0, len(p.tabs))
	for i, t := range p.tabs {
		style := p.styles.TabInactive
		if i == p.current {
			style = p.styles.TabActive
		}
		labels = append(labels, style.Render(t.title))
	}
	strip := lipgloss.NewStyle().MaxWidth(p.width).Render(strings.Join(labels, ""))

	body := ""
	if t := p.tab(p.current); t != nil {
		body = t.area.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, strip, body)
}

func (p *EditorPane) tab(index int) *editorTab {
	if index < 0 || index >= len(p.tabs) {
		return nil
	}
	return p.tabs[index]
}
