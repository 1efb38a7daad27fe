package ui

import (
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

const defaultTabWidth = 4

// position is a line index and a rune index within that line.
type position struct{ row, col int }

func (a position) before(b position) bool {
	return a.row < b.row || (a.row == b.row && a.col < b.col)
}

// Buffer is the editing area of one tab. Unlike textarea it holds the text
// exactly as given: tabs stay tabs, carriage returns are kept and there is
// no line limit, so an unedited buffer always saves back byte for byte.
type Buffer struct {
	styles   *Styles
	lines    [][]rune
	cursor   position
	goal     int // column kept while moving vertically
	top      int // first visible line
	left     int // first visible display column
	width    int
	height   int
	tabWidth int
	focused  bool

	match      bool
	matchStart position
	matchEnd   position
}

// NewBuffer creates a buffer holding text with the cursor at the top.
func NewBuffer(styles *Styles, text string) *Buffer {
	b := &Buffer{styles: styles, tabWidth: defaultTabWidth, width: 10, height: 1}
	b.SetValue(text)
	return b
}

// SetValue replaces the content and moves the cursor to the top.
func (b *Buffer) SetValue(text string) {
	parts := strings.Split(text, "\n")
	b.lines = make([][]rune, len(parts))
	for i, p := range parts {
		b.lines[i] = []rune(p)
	}
	b.cursor = position{}
	b.goal = 0
	b.top, b.left = 0, 0
	b.match = false
}

// Value returns the content.
func (b *Buffer) Value() string {
	var sb strings.Builder
	for i, line := range b.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(line))
	}
	return sb.String()
}

// Line returns the cursor line.
func (b *Buffer) Line() int { return b.cursor.row }

// Column returns the cursor column in runes.
func (b *Buffer) Column() int { return b.cursor.col }

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int { return len(b.lines) }

// SetCursor moves the cursor, clamped to the content.
func (b *Buffer) SetCursor(row, col int) {
	row = min(max(row, 0), len(b.lines)-1)
	col = min(max(col, 0), len(b.lines[row]))
	b.cursor = position{row, col}
	b.goal = col
	b.scrollToCursor()
}

func (b *Buffer) Focus()        { b.focused = true }
func (b *Buffer) Blur()         { b.focused = false }
func (b *Buffer) Focused() bool { return b.focused }

// SetSize sets the visible area including the line number gutter.
func (b *Buffer) SetSize(width, height int) {
	b.width, b.height = max(width, 1), max(height, 1)
	b.scrollToCursor()
}

// Update applies a key press and reports whether the content changed.
func (b *Buffer) Update(msg tea.Msg) bool {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !b.focused {
		return false
	}

	changed := true
	switch km.Type {
	case tea.KeyRunes:
		runes := km.Runes
		if km.Paste {
			runes = []rune(strings.ReplaceAll(string(runes), "\r\n", "\n"))
		}
		b.insert(runes)
	case tea.KeySpace:
		b.insert([]rune{' '})
	case tea.KeyTab:
		b.insert([]rune{'\t'})
	case tea.KeyEnter:
		b.newline()
	case tea.KeyBackspace, tea.KeyCtrlH:
		changed = b.backspace()
	case tea.KeyDelete:
		changed = b.deleteForward()
	default:
		changed = false
		b.move(km.Type)
	}
	if changed {
		b.match = false
		b.goal = b.cursor.col
	}
	b.scrollToCursor()
	return changed
}

func (b *Buffer) insert(runes []rune) {
	for _, r := range runes {
		if r == '\n' {
			b.split(nil)
			continue
		}
		row := b.cursor.row
		b.lines[row] = slices.Insert(b.lines[row], b.cursor.col, r)
		b.cursor.col++
	}
}

// newline splits the line at the cursor, carrying its leading whitespace.
func (b *Buffer) newline() {
	line := b.lines[b.cursor.row][:b.cursor.col]
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	b.split(slices.Clone(line[:n]))
}

func (b *Buffer) split(indent []rune) {
	row, col := b.cursor.row, b.cursor.col
	line := b.lines[row]
	tail := slices.Concat(indent, line[col:])
	b.lines[row] = line[:col:col]
	b.lines = slices.Insert(b.lines, row+1, tail)
	b.cursor = position{row + 1, len(indent)}
}

func (b *Buffer) backspace() bool {
	row, col := b.cursor.row, b.cursor.col
	switch {
	case col > 0:
		b.lines[row] = slices.Delete(b.lines[row], col-1, col)
		b.cursor.col--
	case row > 0:
		prev := len(b.lines[row-1])
		b.lines[row-1] = slices.Concat(b.lines[row-1], b.lines[row])
		b.lines = slices.Delete(b.lines, row, row+1)
		b.cursor = position{row - 1, prev}
	default:
		return false
	}
	return true
}

func (b *Buffer) deleteForward() bool {
	row, col := b.cursor.row, b.cursor.col
	switch {
	case col < len(b.lines[row]):
		b.lines[row] = slices.Delete(b.lines[row], col, col+1)
	case row < len(b.lines)-1:
		b.lines[row] = slices.Concat(b.lines[row], b.lines[row+1])
		b.lines = slices.Delete(b.lines, row+1, row+2)
	default:
		return false
	}
	return true
}

func (b *Buffer) move(k tea.KeyType) {
	row, col := b.cursor.row, b.cursor.col
	vertical := false
	switch k {
	case tea.KeyLeft:
		if col > 0 {
			col--
		} else if row > 0 {
			row--
			col = len(b.lines[row])
		}
	case tea.KeyRight:
		if col < len(b.lines[row]) {
			col++
		} else if row < len(b.lines)-1 {
			row, col = row+1, 0
		}
	case tea.KeyUp:
		row, vertical = row-1, true
	case tea.KeyDown:
		row, vertical = row+1, true
	case tea.KeyPgUp:
		row, vertical = row-b.height, true
	case tea.KeyPgDown:
		row, vertical = row+b.height, true
	case tea.KeyHome:
		col = 0
	case tea.KeyEnd:
		col = len(b.lines[row])
	case tea.KeyCtrlHome:
		row, col = 0, 0
	case tea.KeyCtrlEnd:
		row = len(b.lines) - 1
		col = len(b.lines[row])
	default:
		return
	}

	row = min(max(row, 0), len(b.lines)-1)
	if vertical {
		col = min(b.goal, len(b.lines[row]))
		b.cursor = position{row, col}
		return
	}
	b.cursor = position{row, col}
	b.goal = col
}

// Offset returns the byte offset of the cursor within Value.
func (b *Buffer) Offset() int {
	return b.offsetOf(b.cursor)
}

func (b *Buffer) offsetOf(p position) int {
	off := 0
	for i := 0; i < p.row; i++ {
		off += byteLen(b.lines[i]) + 1
	}
	return off + byteLen(b.lines[p.row][:p.col])
}

func (b *Buffer) positionOf(off int) position {
	for row, line := range b.lines {
		n := byteLen(line)
		if off <= n {
			col := 0
			for col < len(line) && off > 0 {
				off -= utf8.RuneLen(line[col])
				col++
			}
			return position{row, col}
		}
		off -= n + 1
	}
	last := len(b.lines) - 1
	return position{last, len(b.lines[last])}
}

func byteLen(rs []rune) int {
	n := 0
	for _, r := range rs {
		n += utf8.RuneLen(r)
	}
	return n
}

// Select highlights the byte range [start, end) of Value and puts the cursor
// at its start.
func (b *Buffer) Select(start, end int) {
	b.matchStart, b.matchEnd = b.positionOf(start), b.positionOf(end)
	b.match = true
	b.cursor = b.matchStart
	b.goal = b.cursor.col
	b.scrollToCursor()
}

// Selection returns the highlighted byte range, if any.
func (b *Buffer) Selection() (start, end int, ok bool) {
	if !b.match {
		return 0, 0, false
	}
	return b.offsetOf(b.matchStart), b.offsetOf(b.matchEnd), true
}

// Replace swaps the byte range [start, end) of Value for text and leaves the
// cursor after the inserted text.
func (b *Buffer) Replace(start, end int, text string) {
	value := b.Value()
	top := b.top
	b.SetValue(value[:start] + text + value[end:])
	b.top = top
	b.cursor = b.positionOf(start + len(text))
	b.goal = b.cursor.col
	b.scrollToCursor()
}

func (b *Buffer) gutterWidth() int {
	return len(strconv.Itoa(len(b.lines))) + 1
}

func (b *Buffer) textWidth() int {
	return max(b.width-b.gutterWidth(), 1)
}

// displayCol returns the screen column of rune index col in line.
func (b *Buffer) displayCol(line []rune, col int) int {
	x := 0
	for _, r := range line[:col] {
		x += b.cellWidth(r, x)
	}
	return x
}

func (b *Buffer) cellWidth(r rune, x int) int {
	if r == '\t' {
		return b.tabWidth - x%b.tabWidth
	}
	return max(runewidth.RuneWidth(r), 0)
}

func (b *Buffer) scrollToCursor() {
	if b.cursor.row < b.top {
		b.top = b.cursor.row
	}
	if b.cursor.row >= b.top+b.height {
		b.top = b.cursor.row - b.height + 1
	}

	x := b.displayCol(b.lines[b.cursor.row], b.cursor.col)
	if x < b.left {
		b.left = x
	}
	if w := b.textWidth(); x >= b.left+w {
		b.left = x - w + 1
	}
}

type cellKind int

const (
	cellPlain cellKind = iota
	cellMatch
	cellCursor
)

// View renders the visible lines with a line number gutter.
func (b *Buffer) View() string {
	gutter := b.gutterWidth()
	rows := make([]string, 0, b.height)
	for i := b.top; i < b.top+b.height; i++ {
		if i >= len(b.lines) {
			rows = append(rows, strings.Repeat(" ", gutter))
			continue
		}
		num := b.styles.LineNumber.Render(padLeft(strconv.Itoa(i+1), gutter-1)) + " "
		rows = append(rows, num+b.renderLine(i))
	}
	return strings.Join(rows, "\n")
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func (b *Buffer) renderLine(row int) string {
	line := b.lines[row]
	right := b.left + b.textWidth()

	var out, run strings.Builder
	kind := cellPlain
	flush := func() {
		if run.Len() == 0 {
			return
		}
		switch kind {
		case cellMatch:
			out.WriteString(b.styles.SearchMatch.Render(run.String()))
		case cellCursor:
			out.WriteString(b.styles.Cursor.Render(run.String()))
		default:
			out.WriteString(run.String())
		}
		run.Reset()
	}
	put := func(k cellKind, s string) {
		if k != kind {
			flush()
			kind = k
		}
		run.WriteString(s)
	}

	x := 0
	for col := 0; col <= len(line); col++ {
		p := position{row, col}
		k := cellPlain
		if b.match && !p.before(b.matchStart) && p.before(b.matchEnd) {
			k = cellMatch
		}
		if b.focused && p == b.cursor {
			k = cellCursor
		}
		if col == len(line) {
			if k == cellCursor && x >= b.left && x < right {
				put(k, " ")
			}
			break
		}

		r := line[col]
		w := b.cellWidth(r, x)
		if x >= b.left && x+w <= right {
			switch {
			case r == '\t':
				put(k, strings.Repeat(" ", w))
			case w == 0:
				// control characters such as \r take no space
			default:
				put(k, string(r))
			}
		}
		x += w
		if x >= right {
			break
		}
	}
	flush()
	return out.String()
}
