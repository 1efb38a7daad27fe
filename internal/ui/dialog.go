package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SettingsDialog is the modal settings form. It implements
// controller.SettingsDialog.
type SettingsDialog struct {
	styles  *Styles
	input   textinput.Model
	path    string
	visible bool
	done    func(accepted bool)
}

// NewSettingsDialog creates a hidden settings dialog. path is shown as the
// location the settings are stored at.
func NewSettingsDialog(styles *Styles, path string) *SettingsDialog {
	ti := textinput.New()
	ti.Prompt = "API key: "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Width = 48
	return &SettingsDialog{styles: styles, input: ti, path: path}
}

func (d *SettingsDialog) APIKey() string       { return d.input.Value() }
func (d *SettingsDialog) SetAPIKey(key string) { d.input.SetValue(key) }

// Show opens the dialog; done runs once when it closes.
func (d *SettingsDialog) Show(done func(accepted bool)) {
	d.visible = true
	d.done = done
	d.input.Focus()
	d.input.CursorEnd()
}

// Visible reports whether the dialog is open.
func (d *SettingsDialog) Visible() bool { return d.visible }

// Update handles input while the dialog is open.
func (d *SettingsDialog) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch km.String() {
	case "enter":
		d.close(true)
		return nil
	case "esc":
		d.close(false)
		return nil
	case "ctrl+r":
		if d.input.EchoMode == textinput.EchoPassword {
			d.input.EchoMode = textinput.EchoNormal
		} else {
			d.input.EchoMode = textinput.EchoPassword
		}
		return nil
	}
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return cmd
}

func (d *SettingsDialog) close(accepted bool) {
	d.visible = false
	d.input.Blur()
	done := d.done
	d.done = nil
	if done != nil {
		done(accepted)
	}
}

// View renders the dialog box.
func (d *SettingsDialog) View() string {
	lines := []string{
		d.styles.ModalTitle.Render("Settings"),
		"",
		d.input.View(),
		"",
		d.styles.ModalHint.Render("stored in " + d.path),
		d.styles.ModalHint.Render("enter save · esc cancel · ctrl+r show/hide"),
	}
	return d.styles.ModalBox.Render(strings.Join(lines, "\n"))
}

// Prompt is a one-line modal used for file names and confirmations.
type Prompt struct {
	styles  *Styles
	input   textinput.Model
	title   string
	confirm bool
	raw     bool
	visible bool
	done    func(value string) tea.Cmd
}

// NewPrompt creates a hidden prompt.
func NewPrompt(styles *Styles) *Prompt {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Width = 60
	return &Prompt{styles: styles, input: ti}
}

// Ask shows a text prompt prefilled with initial.
func (p *Prompt) Ask(title, initial string, done func(value string) tea.Cmd) tea.Cmd {
	p.title = title
	p.confirm = false
	p.raw = false
	p.done = done
	p.visible = true
	p.input.SetValue(initial)
	p.input.CursorEnd()
	return p.input.Focus()
}

// AskRaw is Ask without trimming, and an empty answer is passed to done.
func (p *Prompt) AskRaw(title, initial string, done func(value string) tea.Cmd) tea.Cmd {
	cmd := p.Ask(title, initial, done)
	p.raw = true
	return cmd
}

// Confirm shows a yes/no question; done runs only on yes.
func (p *Prompt) Confirm(title string, done func() tea.Cmd) {
	p.title = title
	p.confirm = true
	p.visible = true
	p.done = func(string) tea.Cmd { return done() }
}

// Visible reports whether the prompt is open.
func (p *Prompt) Visible() bool { return p.visible }

// Title returns the question being asked.
func (p *Prompt) Title() string { return p.title }

// Update handles input while the prompt is open.
func (p *Prompt) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if p.confirm {
		switch strings.ToLower(km.String()) {
		case "y", "enter":
			return p.finish(true, "")
		case "n", "esc":
			return p.finish(false, "")
		}
		return nil
	}

	switch km.String() {
	case "enter":
		value := p.input.Value()
		if !p.raw {
			value = strings.TrimSpace(value)
		}
		return p.finish(true, value)
	case "esc":
		return p.finish(false, "")
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *Prompt) finish(ok bool, value string) tea.Cmd {
	p.visible = false
	p.input.Blur()
	done := p.done
	p.done = nil
	if !ok || done == nil || (!p.confirm && !p.raw && value == "") {
		return nil
	}
	return done(value)
}

// View renders the prompt box.
func (p *Prompt) View() string {
	body := p.input.View()
	hint := "enter ok · esc cancel"
	if p.confirm {
		body = ""
		hint = "y yes · n no"
	}
	return p.styles.ModalBox.Render(lipgloss.JoinVertical(lipgloss.Left,
		p.styles.ModalTitle.Render(p.title),
		body,
		p.styles.ModalHint.Render(hint),
	))
}
