package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors for the UI theme.
var (
	ColorPrimary   = lipgloss.Color("#A78BFA")
	ColorSecondary = lipgloss.Color("#22D3EE")
	ColorSuccess   = lipgloss.Color("#059669")
	ColorWarning   = lipgloss.Color("#D97706")
	ColorError     = lipgloss.Color("#DC2626")
	ColorMuted     = lipgloss.Color("#9CA3AF")
	ColorText      = lipgloss.Color("#F1F5F9")
	ColorBg        = lipgloss.Color("#0F172A")
	ColorBorder    = lipgloss.Color("#334155")
	ColorDim       = lipgloss.Color("#6B7280")
	ColorAccent    = lipgloss.Color("#F472B6")
	ColorInfo      = lipgloss.Color("#2DD4BF")
)

// Styles contains all UI styles.
type Styles struct {
	Pane        lipgloss.Style
	PaneFocused lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabDirty    lipgloss.Style

	LineNumber  lipgloss.Style
	Cursor      lipgloss.Style
	SearchMatch lipgloss.Style

	TreeDir      lipgloss.Style
	TreeFile     lipgloss.Style
	TreeSelected lipgloss.Style
	TreeMatch    lipgloss.Style

	UserPrompt    lipgloss.Style
	AssistantText lipgloss.Style
	Error         lipgloss.Style
	Dim           lipgloss.Style
	Accent        lipgloss.Style
	Badge         lipgloss.Style
	Spinner       lipgloss.Style

	CodeBlockHeader lipgloss.Style

	StatusBar     lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style

	ModalBox   lipgloss.Style
	ModalTitle lipgloss.Style
	ModalHint  lipgloss.Style
}

// DefaultStyles returns the dark theme.
func DefaultStyles() *Styles {
	return &Styles{
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder),
		PaneFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary),

		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1),
		TabInactive: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1),
		TabDirty: lipgloss.NewStyle().
			Foreground(ColorWarning),

		LineNumber: lipgloss.NewStyle().
			Foreground(ColorDim),
		Cursor: lipgloss.NewStyle().
			Reverse(true),
		SearchMatch: lipgloss.NewStyle().
			Foreground(ColorBg).
			Background(ColorWarning),

		TreeDir: lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true),
		TreeFile: lipgloss.NewStyle().
			Foreground(ColorText),
		TreeSelected: lipgloss.NewStyle().
			Reverse(true),
		TreeMatch: lipgloss.NewStyle().
			Foreground(ColorAccent).
			Underline(true),

		UserPrompt: lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true),
		AssistantText: lipgloss.NewStyle().
			Foreground(ColorText),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Dim: lipgloss.NewStyle().
			Foreground(ColorDim),
		Accent: lipgloss.NewStyle().
			Foreground(ColorAccent),
		Badge: lipgloss.NewStyle().
			Foreground(ColorBg).
			Background(ColorInfo).
			Padding(0, 1),
		Spinner: lipgloss.NewStyle().
			Foreground(ColorPrimary),

		CodeBlockHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorInfo),

		StatusBar: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Background(ColorBg).
			Padding(0, 1),
		StatusInfo: lipgloss.NewStyle().
			Foreground(ColorInfo),
		StatusWarning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		StatusError: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		ModalBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(1, 2),
		ModalTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary),
		ModalHint: lipgloss.NewStyle().
			Foreground(ColorDim).
			Italic(true),
	}
}

// LightStyles returns a theme for light terminals.
func LightStyles() *Styles {
	s := DefaultStyles()
	s.TabActive = s.TabActive.Foreground(lipgloss.Color("#FFFFFF"))
	s.TreeFile = s.TreeFile.Foreground(lipgloss.Color("#1F2937"))
	s.AssistantText = s.AssistantText.Foreground(lipgloss.Color("#1F2937"))
	s.StatusBar = s.StatusBar.Background(lipgloss.Color("#E5E7EB")).Foreground(lipgloss.Color("#374151"))
	s.TreeDir = s.TreeDir.Foreground(lipgloss.Color("#0E7490"))
	return s
}

// StylesFor picks the theme named by the ui.chat_style setting.
func StylesFor(name string) *Styles {
	if name == "light" {
		return LightStyles()
	}
	return DefaultStyles()
}
