package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/tabs"
)

type tabChange struct{ index, count int }

func TestEditorTabsReportChanges(t *testing.T) {
	p := NewEditorPane(DefaultStyles())
	var changes []tabChange
	p.SetCallbacks(nil, func(index, count int) { changes = append(changes, tabChange{index, count}) })

	assert.Equal(t, -1, p.CurrentIndex())
	assert.Equal(t, 0, p.AddTab("a", "a.txt", "one"))
	assert.Equal(t, 1, p.AddTab("b", "b.txt", "two"))
	assert.Equal(t, 0, p.CurrentIndex(), "only the first tab becomes current")

	p.SetCurrentIndex(1)
	p.SetCurrentIndex(1)
	assert.Equal(t, []tabChange{{0, 1}, {1, 2}}, changes)

	p.RemoveTab(1)
	assert.Equal(t, 0, p.CurrentIndex())
	assert.Equal(t, tabChange{0, 1}, changes[len(changes)-1])

	p.RemoveTab(0)
	assert.Equal(t, -1, p.CurrentIndex())
	assert.Contains(t, p.View(), "No open files")
}

func TestEditorLookups(t *testing.T) {
	p := NewEditorPane(DefaultStyles())
	p.AddTab("a", "a.txt", "one")
	p.AddTab("b", "b.txt", "two\nlines")

	assert.Equal(t, 1, p.IndexOf("b"))
	assert.Equal(t, -1, p.IndexOf("zzz"))
	id, ok := p.TabID(0)
	assert.True(t, ok)
	assert.Equal(t, tabs.ID("a"), id)
	_, ok = p.TabID(5)
	assert.False(t, ok)

	assert.Equal(t, "two\nlines", p.Text(1))
	p.SetTabTitle(1, "b.txt*")
	assert.Equal(t, "b.txt*", p.TabTitle(1))
}

func TestEditorReportsTypedText(t *testing.T) {
	p := NewEditorPane(DefaultStyles())
	var changed []tabs.ID
	p.SetCallbacks(func(id tabs.ID) { changed = append(changed, id) }, nil)
	p.SetSize(40, 10)
	p.AddTab("a", "a.txt", "one")
	p.Focus()

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, []tabs.ID{"a"}, changed)
	assert.Equal(t, "xone", p.Text(0))

	p.SetText(0, "replaced")
	assert.Equal(t, "replaced", p.Text(0))
	assert.Len(t, changed, 1, "SetText is not an edit")
}

func TestEditorFindCyclesThroughMatches(t *testing.T) {
	p := NewEditorPane(DefaultStyles())
	p.AddTab("a", "a.txt", "one two one\nthree one")
	q, err := ParseQuery("one")
	require.NoError(t, err)

	var starts []int
	for range 4 {
		require.True(t, p.Find(q))
		start, _, ok := p.tab(0).area.Selection()
		require.True(t, ok)
		starts = append(starts, start)
	}
	assert.Equal(t, []int{0, 8, 18, 0}, starts)

	missing, err := ParseQuery("four")
	require.NoError(t, err)
	assert.False(t, p.Find(missing))
}

func TestEditorReplaceNeedsSelectedMatch(t *testing.T) {
	p := NewEditorPane(DefaultStyles())
	var changed int
	p.SetCallbacks(func(tabs.ID) { changed++ }, nil)
	p.AddTab("a", "a.txt", "one two one")
	q, err := ParseQuery("one")
	require.NoError(t, err)

	assert.False(t, p.Replace(q, "1"), "nothing selected yet")
	assert.Equal(t, "one two one", p.Text(0))

	require.True(t, p.Find(q))
	assert.True(t, p.Replace(q, "1"))
	assert.Equal(t, "1 two one", p.Text(0))
	assert.Equal(t, 1, changed)

	start, end, ok := p.tab(0).area.Selection()
	require.True(t, ok, "the next match is selected")
	assert.Equal(t, [2]int{6, 9}, [2]int{start, end})
}

func TestEditorReplaceAllKeepsCursor(t *testing.T) {
	p := NewEditorPane(DefaultStyles())
	var changed int
	p.SetCallbacks(func(tabs.ID) { changed++ }, nil)
	p.AddTab("a", "a.txt", "width: 10px;\n\theight: 20px;\n")
	p.tab(0).area.SetCursor(1, 3)

	q, err := ParseQuery(`re:(\d+)px`)
	require.NoError(t, err)
	assert.Equal(t, 2, p.ReplaceAll(q, "${1}em"))
	assert.Equal(t, "width: 10em;\n\theight: 20em;\n", p.Text(0))
	assert.Equal(t, 1, changed)

	line, col, ok := p.Cursor(0)
	require.True(t, ok)
	assert.Equal(t, [2]int{2, 4}, [2]int{line, col})

	assert.Zero(t, p.ReplaceAll(q, "x"))
	assert.Equal(t, 1, changed)
}

func TestEditorSetTextKeepsCursor(t *testing.T) {
	p := NewEditorPane(DefaultStyles())
	p.AddTab("a", "a.txt", "abc\ndef")
	p.tab(0).area.SetCursor(1, 2)

	p.SetText(0, "abc\ndef")
	line, col, _ := p.Cursor(0)
	assert.Equal(t, [2]int{2, 3}, [2]int{line, col})

	p.SetText(0, "abc\nd")
	line, col, _ = p.Cursor(0)
	assert.Equal(t, [2]int{2, 2}, [2]int{line, col})

	_, _, ok := p.Cursor(3)
	assert.False(t, ok)
}
