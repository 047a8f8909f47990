// Package inbox renders in-app notifications.
package inbox

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/theme"
)

const maxItems = 100

// Model is the notification list.
type Model struct {
	Items    []client.Notification
	Selected int
}

// New creates an empty inbox.
func New() Model {
	return Model{}
}

// Set replaces the list with a REST load, keeping pushed items on top.
func (m *Model) Set(items []client.Notification) {
	pushed := m.Items
	m.Items = append([]client.Notification{}, pushed...)
	for _, n := range items {
		if m.indexOf(n.ID) < 0 {
			m.Items = append(m.Items, n)
		}
	}
	m.trim()
}

// Add puts a pushed notification on top.
func (m *Model) Add(n client.Notification) {
	if m.indexOf(n.ID) >= 0 {
		return
	}
	m.Items = append([]client.Notification{n}, m.Items...)
	m.trim()
}

// MarkRead flags id as read locally.
func (m *Model) MarkRead(id string) {
	if i := m.indexOf(id); i >= 0 {
		m.Items[i].IsRead = true
	}
}

// Current returns the selected notification.
func (m Model) Current() (client.Notification, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return client.Notification{}, false
	}
	return m.Items[m.Selected], true
}

// Next selects the next notification.
func (m *Model) Next() {
	if len(m.Items) > 0 {
		m.Selected = (m.Selected + 1) % len(m.Items)
	}
}

// Prev selects the previous notification.
func (m *Model) Prev() {
	if len(m.Items) > 0 {
		m.Selected = (m.Selected - 1 + len(m.Items)) % len(m.Items)
	}
}

func (m *Model) indexOf(id string) int {
	for i, n := range m.Items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) trim() {
	if len(m.Items) > maxItems {
		m.Items = m.Items[:maxItems]
	}
	if m.Selected >= len(m.Items) {
		m.Selected = max(len(m.Items)-1, 0)
	}
}

// View renders up to height rows.
func (m Model) View(height int) string {
	header := theme.StyleHeader.Render("NOTIFICATIONS")
	if len(m.Items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, theme.StyleDimmed.Render("  Nothing new"))
	}
	rows := max(height-1, 1)
	start := 0
	if m.Selected >= rows {
		start = m.Selected - rows + 1
	}
	end := min(start+rows, len(m.Items))

	lines := []string{header}
	for i := start; i < end; i++ {
		n := m.Items[i]
		prefix := "  "
		if i == m.Selected {
			prefix = "> "
		}
		dot := " "
		title := theme.StyleDimmed.Render(n.Title)
		if !n.IsRead {
			dot = lipgloss.NewStyle().Foreground(theme.ColorAccent).Render("•")
			title = theme.StyleSelected.Render(n.Title)
		}
		line := prefix + dot + " " + title
		if n.Content != "" {
			line += "  " + theme.StyleDimmed.Render(n.Content)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
