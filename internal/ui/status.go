package ui

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusBar shows transient messages on the left and context on the right.
// It implements logging.StatusSink and is safe for concurrent use.
type StatusBar struct {
	mu      sync.Mutex
	styles  *Styles
	message string
	expires time.Time
	right   string
	now     func() time.Time
}

// NewStatusBar creates an empty status bar.
func NewStatusBar(styles *Styles) *StatusBar {
	return &StatusBar{styles: styles, now: time.Now}
}

// ShowStatus displays msg for timeout. A zero timeout keeps it until replaced.
func (s *StatusBar) ShowStatus(msg string, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
	if timeout > 0 {
		s.expires = s.now().Add(timeout)
	} else {
		s.expires = time.Time{}
	}
}

// Message returns the current message, or "" once it has expired.
func (s *StatusBar) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expires.IsZero() && s.now().After(s.expires) {
		s.message = ""
	}
	return s.message
}

// SetRight sets the context shown on the right side.
func (s *StatusBar) SetRight(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.right = text
}

// View renders the bar at width.
func (s *StatusBar) View(width int) string {
	msg := s.Message()
	s.mu.Lock()
	right := s.right
	s.mu.Unlock()

	style := s.styles.StatusInfo
	switch {
	case strings.HasPrefix(msg, "ERROR"):
		style = s.styles.StatusError
	case strings.HasPrefix(msg, "WARN"):
		style = s.styles.StatusWarning
	}

	left := style.Render(msg)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return s.styles.StatusBar.Width(width).MaxWidth(width).Render(left + strings.Repeat(" ", gap) + right)
}
