package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/courtside/client/internal/bridge"
	"github.com/courtside/client/internal/theme"
)

// Link is what the bar shows for one bridge.
type Link struct {
	Name     string
	State    bridge.ConnectionState
	Attempts int
	// Stopped is set once the bridge gave up reconnecting.
	Stopped bool
}

// Model holds the status bar state.
type Model struct {
	Links       []Link
	MaxAttempts int
	Unread      int
	Width       int
}

// New creates a status bar listing bridges in the given order, all
// disconnected.
func New(maxAttempts int, names ...string) Model {
	m := Model{MaxAttempts: maxAttempts}
	for _, n := range names {
		m.Links = append(m.Links, Link{Name: n})
	}
	return m
}

// SetState records a bridge's state. Unknown names are ignored.
func (m *Model) SetState(name string, state bridge.ConnectionState, attempts int) {
	for i := range m.Links {
		if m.Links[i].Name == name {
			m.Links[i].State = state
			m.Links[i].Attempts = attempts
			if state != bridge.Disconnected {
				m.Links[i].Stopped = false
			}
			return
		}
	}
}

// SetStopped marks a disconnected bridge as no longer retrying.
func (m *Model) SetStopped(name string) {
	for i := range m.Links {
		if m.Links[i].Name == name && m.Links[i].State == bridge.Disconnected {
			m.Links[i].Stopped = true
		}
	}
}

// Stopped returns the names of bridges that gave up.
func (m Model) Stopped() []string {
	var out []string
	for _, l := range m.Links {
		if l.Stopped {
			out = append(out, l.Name)
		}
	}
	return out
}

// AllConnected reports whether every bridge is up.
func (m Model) AllConnected() bool {
	for _, l := range m.Links {
		if l.State != bridge.Connected {
			return false
		}
	}
	return len(m.Links) > 0
}

// View renders the status bar.
func (m Model) View() string {
	width := max(m.Width, 40)

	parts := make([]string, 0, len(m.Links)+1)
	for _, l := range m.Links {
		parts = append(parts, m.renderLink(l))
	}
	unread := fmt.Sprintf("%d unread", m.Unread)
	if m.Unread > 0 {
		unread = lipgloss.NewStyle().Foreground(theme.ColorAccent).Bold(true).Render(unread)
	}
	parts = append(parts, unread)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.Join(parts, sep))
}

func (m Model) renderLink(l Link) string {
	state := l.State.String()
	text := fmt.Sprintf("%s %s %s", theme.StateGlyph(state), l.Name, state)
	switch {
	case l.Stopped:
		text += " (stopped)"
	case l.State != bridge.Connected && l.Attempts > 0:
		text += fmt.Sprintf(" (retry %d/%d)", l.Attempts, m.MaxAttempts)
	}
	return lipgloss.NewStyle().Foreground(theme.StateColor(state)).Render(text)
}
