package ui

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"scribe/internal/folders"
)

type treeRow struct {
	node  *folders.Node
	depth int
}

// TreePane shows the folder tree. It implements controller.FolderView.
type TreePane struct {
	styles *Styles
	keys   TreeKeyMap

	root     *folders.Node
	nodes    map[string]*folders.Node
	expanded map[string]bool
	rows     []treeRow
	rowIndex map[string]int
	selected int
	offset   int

	filter    textinput.Model
	filtering bool

	width   int
	height  int
	focused bool

	onSelect func(path string, isDir bool)
}

// NewTreePane creates an empty tree pane.
func NewTreePane(styles *Styles) *TreePane {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	return &TreePane{
		styles:   styles,
		keys:     DefaultTreeKeyMap(),
		nodes:    make(map[string]*folders.Node),
		expanded: make(map[string]bool),
		rowIndex: make(map[string]int),
		filter:   ti,
	}
}

// SetOnSelect sets the callback fired when a row is activated.
func (p *TreePane) SetOnSelect(fn func(path string, isDir bool)) {
	p.onSelect = fn
}

// Populate replaces the tree, keeping expanded folders and the selection
// where the paths still exist.
func (p *TreePane) Populate(root *folders.Node) {
	prev, hadPrev := p.CurrentPath()

	p.root = root
	p.nodes = make(map[string]*folders.Node)
	if root != nil {
		root.Walk(func(n *folders.Node, _ int) bool {
			p.nodes[n.Path] = n
			return true
		})
		p.expanded[root.Path] = true
	}
	for path := range p.expanded {
		if _, ok := p.nodes[path]; !ok {
			delete(p.expanded, path)
		}
	}

	p.rebuild()
	p.selected = 0
	if hadPrev {
		if i, ok := p.rowIndex[prev]; ok {
			p.selected = i
		}
	}
	p.clamp()
}

// SelectPath expands the ancestors of path and selects its row.
func (p *TreePane) SelectPath(path string) bool {
	node, ok := p.nodes[path]
	if !ok {
		return false
	}
	if p.filter.Value() != "" {
		if _, visible := p.rowIndex[path]; !visible {
			p.filter.SetValue("")
		}
	}
	for dir := filepath.Dir(node.Path); p.root != nil && dir != node.Path; dir = filepath.Dir(dir) {
		if _, known := p.nodes[dir]; !known {
			break
		}
		p.expanded[dir] = true
		if dir == p.root.Path {
			break
		}
	}
	p.rebuild()
	i, ok := p.rowIndex[path]
	if !ok {
		return false
	}
	p.selected = i
	p.clamp()
	return true
}

// CurrentPath returns the path of the selected row.
func (p *TreePane) CurrentPath() (string, bool) {
	if p.selected < 0 || p.selected >= len(p.rows) {
		return "", false
	}
	return p.rows[p.selected].node.Path, true
}

// CurrentIsDir reports whether the selected row is a directory.
func (p *TreePane) CurrentIsDir() bool {
	if p.selected < 0 || p.selected >= len(p.rows) {
		return false
	}
	return p.rows[p.selected].node.IsDir
}

// Root returns the displayed tree.
func (p *TreePane) Root() *folders.Node { return p.root }

// Filtering reports whether the filter input has focus.
func (p *TreePane) Filtering() bool { return p.filtering }

// Query returns the active filter text.
func (p *TreePane) Query() string { return strings.TrimSpace(p.filter.Value()) }

// SetQuery applies a filter without entering filter mode.
func (p *TreePane) SetQuery(q string) {
	p.filter.SetValue(q)
	p.rebuild()
	p.selected = 0
	p.clamp()
}

// Rows returns the paths of the visible rows in display order.
func (p *TreePane) Rows() []string {
	out := make([]string, len(p.rows))
	for i, r := range p.rows {
		out[i] = r.node.Path
	}
	return out
}

func (p *TreePane) Focus() { p.focused = true }
func (p *TreePane) Blur()  { p.focused = false }

// SetSize sets the inner size of the pane.
func (p *TreePane) SetSize(width, height int) {
	p.width, p.height = width, height
	p.filter.Width = max(width-2, 1)
	p.clamp()
}

// rebuild recomputes the visible rows. With a filter every node is ranked
// by its root-relative path; otherwise the expanded folders are flattened.
func (p *TreePane) rebuild() {
	p.rows = p.rows[:0]
	p.rowIndex = make(map[string]int)
	if p.root == nil {
		return
	}

	if q := p.Query(); q != "" {
		var all []*folders.Node
		var labels []string
		p.root.Walk(func(n *folders.Node, _ int) bool {
			if n != p.root {
				all = append(all, n)
				labels = append(labels, p.relative(n.Path))
			}
			return true
		})
		ranks := fuzzy.RankFindNormalizedFold(q, labels)
		sort.Stable(ranks)
		for _, rank := range ranks {
			p.addRow(all[rank.OriginalIndex], 0)
		}
		return
	}

	p.root.Walk(func(n *folders.Node, depth int) bool {
		p.addRow(n, depth)
		return !n.IsDir || p.expanded[n.Path]
	})
}

func (p *TreePane) addRow(n *folders.Node, depth int) {
	p.rowIndex[n.Path] = len(p.rows)
	p.rows = append(p.rows, treeRow{node: n, depth: depth})
}

func (p *TreePane) relative(path string) string {
	rel, err := filepath.Rel(p.root.Path, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (p *TreePane) listHeight() int {
	if p.filtering || p.Query() != "" {
		return max(p.height-1, 1)
	}
	return max(p.height, 1)
}

func (p *TreePane) clamp() {
	if p.selected >= len(p.rows) {
		p.selected = len(p.rows) - 1
	}
	if p.selected < 0 {
		p.selected = 0
	}
	h := p.listHeight()
	if p.selected < p.offset {
		p.offset = p.selected
	}
	if p.selected >= p.offset+h {
		p.offset = p.selected - h + 1
	}
	if p.offset < 0 {
		p.offset = 0
	}
}

// Update handles navigation and the filter input. Keys for file operations
// are handled by the window.
func (p *TreePane) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if p.filtering {
		switch km.String() {
		case "esc":
			p.filtering = false
			p.filter.Blur()
			p.SetQuery("")
			return nil
		case "enter":
			p.filtering = false
			p.filter.Blur()
			return nil
		}
		var cmd tea.Cmd
		p.filter, cmd = p.filter.Update(msg)
		p.rebuild()
		p.selected = 0
		p.clamp()
		return cmd
	}

	switch {
	case key.Matches(km, p.keys.Up):
		p.selected--
		p.clamp()
	case key.Matches(km, p.keys.Down):
		p.selected++
		p.clamp()
	case key.Matches(km, p.keys.Toggle):
		p.toggle(km.String())
	case key.Matches(km, p.keys.Select):
		path, ok := p.CurrentPath()
		if !ok {
			return nil
		}
		isDir := p.CurrentIsDir()
		if isDir && p.Query() == "" {
			p.toggle("")
		}
		if p.onSelect != nil {
			p.onSelect(path, isDir)
		}
	case key.Matches(km, p.keys.Filter):
		p.filtering = true
		return p.filter.Focus()
	case km.String() == "esc" && p.Query() != "":
		p.SetQuery("")
	}
	return nil
}

func (p *TreePane) toggle(dir string) {
	path, ok := p.CurrentPath()
	if !ok || !p.CurrentIsDir() || path == p.root.Path {
		return
	}
	switch dir {
	case "right":
		p.expanded[path] = true
	case "left":
		p.expanded[path] = false
	default:
		p.expanded[path] = !p.expanded[path]
	}
	p.rebuild()
	p.selected = p.rowIndex[path]
	p.clamp()
}

// View renders the visible slice of rows.
func (p *TreePane) View() string {
	if p.root == nil {
		return p.styles.Dim.Render("no folder open (alt+o)")
	}

	lines := make([]string, 0, p.listHeight()+1)
	switch {
	case p.filtering:
		lines = append(lines, p.filter.View())
	case p.Query() != "":
		lines = append(lines, p.styles.Accent.Render("/"+p.Query()))
	}
	end := min(p.offset+p.listHeight(), len(p.rows))
	for i := p.offset; i < end; i++ {
		lines = append(lines, p.renderRow(p.rows[i], i == p.selected))
	}
	return strings.Join(lines, "\n")
}

func (p *TreePane) renderRow(r treeRow, selected bool) string {
	indent := strings.Repeat("  ", r.depth)
	label := r.node.Name
	style := p.styles.TreeFile
	if r.node.IsDir {
		style = p.styles.TreeDir
		marker := "▸ "
		if p.expanded[r.node.Path] {
			marker = "▾ "
		}
		label = marker + label
	} else {
		label = "  " + label
	}
	if p.Query() != "" {
		label = p.relative(r.node.Path)
	}
	line := indent + label
	if p.width > 0 && len([]rune(line)) > p.width {
		line = string([]rune(line)[:max(p.width-1, 0)]) + "…"
	}
	if selected {
		if p.focused {
			return p.styles.TreeSelected.Render(line)
		}
		return p.styles.Accent.Render(line)
	}
	return style.Render(line)
}
