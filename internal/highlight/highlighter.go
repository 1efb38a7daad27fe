package highlight

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter renders code and diffs with terminal colors.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

// New creates a Highlighter using the named chroma style, falling back to
// chroma's default when the name is unknown.
func New(style string) *Highlighter {
	if style == "" {
		style = "monokai"
	}
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	return &Highlighter{
		style:     s,
		formatter: formatters.Get("terminal256"),
	}
}

// Code highlights code written in lang. An empty or unknown language is
// rendered with the plain-text lexer.
func (h *Highlighter) Code(code, lang string) string {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	return h.format(code, lexer)
}

// File highlights content using the lexer matched by the file name.
func (h *Highlighter) File(path, content string) string {
	return h.format(content, lexers.Match(filepath.Base(path)))
}

func (h *Highlighter) format(code string, lexer chroma.Lexer) string {
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// WithLineNumbers prefixes every line of highlighted text with a gutter.
func (h *Highlighter) WithLineNumbers(highlighted string, startLine int) string {
	lines := strings.Split(highlighted, "\n")
	gutter := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(gutter.Render(fmt.Sprintf("%4d", startLine+i)))
		result.WriteString(" │ ")
		result.WriteString(line)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// Diff colors unified diff text line by line.
func (h *Highlighter) Diff(diff string) string {
	addedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	removedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	hunkStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	contextStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	lines := strings.Split(diff, "\n")
	var result strings.Builder

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			result.WriteString(headerStyle.Render(line))
		case strings.HasPrefix(line, "@@"):
			result.WriteString(hunkStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			result.WriteString(addedStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			result.WriteString(removedStyle.Render(line))
		default:
			result.WriteString(contextStyle.Render(line))
		}
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// Language returns the chroma language name for a file, or "text".
func Language(path string) string {
	if lexer := lexers.Match(filepath.Base(path)); lexer != nil {
		return strings.ToLower(lexer.Config().Name)
	}
	return "text"
}
