package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"scribe/internal/ai"
	"scribe/internal/highlight"
)

// ChatMode selects how a chat submission is used.
type ChatMode int

const (
	// ModeChat shows the reply in the transcript.
	ModeChat ChatMode = iota
	// ModeEdit applies the reply to a file.
	ModeEdit
)

func (m ChatMode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "chat"
}

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryError
	entryInfo
	entryDiff
)

type chatEntry struct {
	kind entryKind
	text string
}

const chatInputHeight = 3

// ChatPanel is the AI assistant panel: transcript, attachments and input.
type ChatPanel struct {
	styles      *Styles
	keys        ChatKeyMap
	viewport    viewport.Model
	input       textarea.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	highlighter *highlight.Highlighter
	markdown    bool
	glamourName string

	entries     []chatEntry
	pending     strings.Builder
	streaming   bool
	busy        bool
	mode        ChatMode
	attachments []string
	codeBlocks  *CodeBlockRegistry

	width   int
	height  int
	focused bool

	onSubmit        func(text string, mode ChatMode) tea.Cmd
	onAttachCurrent func()
	notify          func(msg string)
}

// ChatOptions configures rendering of the transcript.
type ChatOptions struct {
	Markdown  bool
	Style     string // glamour standard style
	CodeTheme string // chroma style
}

// NewChatPanel creates the chat panel.
func NewChatPanel(styles *Styles, opts ChatOptions) *ChatPanel {
	ta := textarea.New()
	ta.Placeholder = "Ask the assistant... (enter to send, alt+enter for newline)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = "› "
	ta.SetHeight(chatInputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	vp := viewport.New(40, 10)
	vp.MouseWheelEnabled = true

	glamourName := opts.Style
	if glamourName == "" {
		glamourName = "dark"
	}

	return &ChatPanel{
		styles:      styles,
		keys:        DefaultChatKeyMap(),
		viewport:    vp,
		input:       ta,
		spinner:     s,
		highlighter: highlight.New(opts.CodeTheme),
		markdown:    opts.Markdown,
		glamourName: glamourName,
		codeBlocks:  NewCodeBlockRegistry(),
	}
}

// SetCallbacks wires the submit, attach-current-tab and notification callbacks.
func (c *ChatPanel) SetCallbacks(onSubmit func(string, ChatMode) tea.Cmd, onAttachCurrent func(), notify func(string)) {
	c.onSubmit = onSubmit
	c.onAttachCurrent = onAttachCurrent
	c.notify = notify
}

// Mode returns the current submission mode.
func (c *ChatPanel) Mode() ChatMode { return c.mode }

// SetMode switches between chat and edit mode.
func (c *ChatPanel) SetMode(m ChatMode) { c.mode = m }

// Busy reports whether a request is in flight.
func (c *ChatPanel) Busy() bool { return c.busy }

// SetBusy toggles the in-flight indicator. Starting returns the spinner tick.
func (c *ChatPanel) SetBusy(busy bool) tea.Cmd {
	c.busy = busy
	if busy {
		return c.spinner.Tick
	}
	return nil
}

// Attachments returns the attached file paths in attach order.
func (c *ChatPanel) Attachments() []string {
	return append([]string(nil), c.attachments...)
}

// AddAttachment attaches path once. It reports whether the path was new.
func (c *ChatPanel) AddAttachment(path string) bool {
	for _, p := range c.attachments {
		if p == path {
			return false
		}
	}
	c.attachments = append(c.attachments, path)
	return true
}

// ClearAttachments drops all attachments.
func (c *ChatPanel) ClearAttachments() {
	c.attachments = nil
}

// AppendUser adds the user's message to the transcript.
func (c *ChatPanel) AppendUser(text string) {
	c.append(chatEntry{kind: entryUser, text: text})
}

// AppendAssistant adds a complete reply and registers its code blocks.
func (c *ChatPanel) AppendAssistant(text string) {
	c.streaming = false
	c.pending.Reset()
	c.codeBlocks.Add(ai.CodeBlocks(text)...)
	c.append(chatEntry{kind: entryAssistant, text: text})
}

// AppendError shows an error in the transcript.
func (c *ChatPanel) AppendError(text string) {
	c.streaming = false
	c.pending.Reset()
	c.append(chatEntry{kind: entryError, text: text})
}

// AppendInfo shows a neutral note in the transcript.
func (c *ChatPanel) AppendInfo(text string) {
	c.append(chatEntry{kind: entryInfo, text: text})
}

// AppendDiff shows a diff summary of an applied edit.
func (c *ChatPanel) AppendDiff(d highlight.LineDiff) {
	header := fmt.Sprintf("applied to %s (%s)", filepath.Base(d.Path), d.Stat())
	c.append(chatEntry{kind: entryInfo, text: header})
	if d.Changed() {
		c.append(chatEntry{kind: entryDiff, text: strings.TrimRight(d.Text, "\n")})
	}
}

// AppendChunk appends streamed reply text.
func (c *ChatPanel) AppendChunk(chunk string) {
	c.streaming = true
	c.pending.WriteString(chunk)
	c.refresh()
}

// Transcript returns the raw transcript text, one entry per paragraph.
func (c *ChatPanel) Transcript() string {
	parts := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		parts = append(parts, e.text)
	}
	return strings.Join(parts, "\n\n")
}

// CodeBlocks returns the registry of reply code blocks.
func (c *ChatPanel) CodeBlocks() *CodeBlockRegistry { return c.codeBlocks }

// Input returns the current input text.
func (c *ChatPanel) Input() string { return c.input.Value() }

// SetInput replaces the input text.
func (c *ChatPanel) SetInput(text string) { c.input.SetValue(text) }

func (c *ChatPanel) Focus() tea.Cmd {
	c.focused = true
	return c.input.Focus()
}

func (c *ChatPanel) Blur() {
	c.focused = false
	c.input.Blur()
}

// SetSize sets the inner size of the panel.
func (c *ChatPanel) SetSize(width, height int) {
	if width != c.width {
		c.renderer = nil
	}
	c.width, c.height = width, height
	c.input.SetWidth(max(width, 10))
	c.viewport.Width = max(width, 10)
	c.viewport.Height = max(height-chatInputHeight-1, 1)
	c.refresh()
}

func (c *ChatPanel) append(e chatEntry) {
	c.entries = append(c.entries, e)
	c.refresh()
}

func (c *ChatPanel) wrapWidth() int {
	return max(c.width-2, 20)
}

func (c *ChatPanel) markdownRenderer() *glamour.TermRenderer {
	if c.renderer == nil && c.markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(c.glamourName),
			glamour.WithWordWrap(c.wrapWidth()),
		)
		if err == nil {
			c.renderer = r
		}
	}
	return c.renderer
}

func (c *ChatPanel) render(e chatEntry) string {
	w := c.wrapWidth()
	switch e.kind {
	case entryUser:
		return c.styles.UserPrompt.Render("you ›") + "\n" + wordwrap.String(e.text, w)
	case entryError:
		return c.styles.Error.Render(wordwrap.String("✗ "+e.text, w))
	case entryInfo:
		return c.styles.Dim.Render(wordwrap.String(e.text, w))
	case entryDiff:
		return c.highlighter.Diff(e.text)
	}

	label := c.styles.Accent.Render("assistant ›") + "\n"
	if r := c.markdownRenderer(); r != nil {
		if out, err := r.Render(e.text); err == nil {
			return label + strings.TrimRight(out, "\n")
		}
	}
	return label + c.renderPlain(e.text, w)
}

// renderPlain wraps prose and highlights fenced code without markdown rendering.
func (c *ChatPanel) renderPlain(text string, width int) string {
	var out, prose, code strings.Builder
	inCode := false
	lang := ""
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inCode && strings.HasPrefix(trimmed, "```"):
			out.WriteString(wordwrap.String(prose.String(), width))
			prose.Reset()
			inCode = true
			lang, _, _ = strings.Cut(strings.TrimPrefix(trimmed, "```"), ":")
		case inCode && trimmed == "```":
			out.WriteString(c.styles.CodeBlockHeader.Render("── "+lang) + "\n")
			out.WriteString(c.highlighter.Code(strings.TrimSuffix(code.String(), "\n"), lang) + "\n")
			code.Reset()
			inCode = false
		case inCode:
			code.WriteString(line + "\n")
		default:
			prose.WriteString(line + "\n")
		}
	}
	if inCode {
		prose.WriteString(code.String())
	}
	out.WriteString(wordwrap.String(prose.String(), width))
	return strings.TrimRight(out.String(), "\n")
}

func (c *ChatPanel) refresh() {
	blocks := make([]string, 0, len(c.entries)+1)
	for _, e := range c.entries {
		blocks = append(blocks, c.render(e))
	}
	if c.streaming && c.pending.Len() > 0 {
		blocks = append(blocks, c.styles.Accent.Render("assistant ›")+"\n"+wordwrap.String(c.pending.String(), c.wrapWidth()))
	}
	c.viewport.SetContent(strings.Join(blocks, "\n\n"))
	c.viewport.GotoBottom()
}

// Update handles chat keys, scrolling and the spinner.
func (c *ChatPanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !c.busy {
			return nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return cmd
	case tea.MouseMsg:
		var cmd tea.Cmd
		c.viewport, cmd = c.viewport.Update(msg)
		return cmd
	case tea.KeyMsg:
		return c.handleKey(msg)
	}
	return nil
}

func (c *ChatPanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, c.keys.Send):
		if c.busy {
			c.say("a request is already running")
			return nil
		}
		text := c.input.Value()
		c.input.Reset()
		if c.onSubmit != nil {
			return c.onSubmit(text, c.mode)
		}
		return nil
	case key.Matches(msg, c.keys.ToggleMode):
		if c.mode == ModeChat {
			c.mode = ModeEdit
		} else {
			c.mode = ModeChat
		}
		c.say("mode: " + c.mode.String())
		return nil
	case key.Matches(msg, c.keys.AttachCurrent):
		if c.onAttachCurrent != nil {
			c.onAttachCurrent()
		}
		return nil
	case key.Matches(msg, c.keys.ClearAttached):
		c.ClearAttachments()
		c.say("attachments cleared")
		return nil
	case key.Matches(msg, c.keys.CopyCode):
		block, err := c.codeBlocks.CopySelected()
		if err != nil {
			c.say(err.Error())
			return nil
		}
		c.say(fmt.Sprintf("copied %d lines of %s", strings.Count(block.Content, "\n")+1, orDefault(block.Language, "code")))
		return nil
	case key.Matches(msg, c.keys.PrevCode):
		if !c.codeBlocks.SelectPrev() {
			c.codeBlocks.SelectLast()
		}
		if b, ok := c.codeBlocks.Selected(); ok {
			c.say(fmt.Sprintf("code block selected: %s", orDefault(b.Language, "code")))
		}
		return nil
	case key.Matches(msg, c.keys.ScrollUp), key.Matches(msg, c.keys.ScrollDown):
		var cmd tea.Cmd
		c.viewport, cmd = c.viewport.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *ChatPanel) say(msg string) {
	if c.notify != nil {
		c.notify(msg)
	}
}

// View renders the header, transcript and input.
func (c *ChatPanel) View() string {
	header := c.styles.Badge.Render(strings.ToUpper(c.mode.String()))
	if len(c.attachments) > 0 {
		names := make([]string, 0, len(c.attachments))
		for _, p := range c.attachments {
			names = append(names, filepath.Base(p))
		}
		header += " " + c.styles.Dim.Render("📎 "+strings.Join(names, ", "))
	}
	if c.busy {
		header += " " + c.spinner.View()
	}
	header = lipgloss.NewStyle().MaxWidth(max(c.width, 1)).Render(header)
	return lipgloss.JoinVertical(lipgloss.Left, header, c.viewport.View(), c.input.View())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
