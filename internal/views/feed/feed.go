// Package feed renders the live list of playmate postings.
package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/theme"
)

const maxItems = 100

// Model holds playmates newest first.
type Model struct {
	Items    []client.Playmate
	Selected int
	Width    int
}

// New creates an empty feed.
func New() Model {
	return Model{}
}

// Set replaces the list, typically with the initial REST load. Entries
// already received over the socket win over the loaded copy.
func (m *Model) Set(items []client.Playmate) {
	live := m.Items
	m.Items = make([]client.Playmate, 0, len(items)+len(live))
	m.Items = append(m.Items, live...)
	for _, p := range items {
		if m.indexOf(p.ID) < 0 {
			m.Items = append(m.Items, p)
		}
	}
	m.trim()
}

// Created inserts a new posting at the top. A repeated id updates in place.
func (m *Model) Created(p client.Playmate) {
	if i := m.indexOf(p.ID); i >= 0 {
		m.Items[i] = p
		return
	}
	m.Items = append([]client.Playmate{p}, m.Items...)
	if m.Selected > 0 {
		m.Selected++
	}
	m.trim()
}

// Updated replaces a posting in place; unknown ids are treated as new.
func (m *Model) Updated(p client.Playmate) {
	if i := m.indexOf(p.ID); i >= 0 {
		m.Items[i] = p
		return
	}
	m.Created(p)
}

// Next selects the next playmate.
func (m *Model) Next() {
	if len(m.Items) > 0 {
		m.Selected = (m.Selected + 1) % len(m.Items)
	}
}

// Prev selects the previous playmate.
func (m *Model) Prev() {
	if len(m.Items) > 0 {
		m.Selected = (m.Selected - 1 + len(m.Items)) % len(m.Items)
	}
}

func (m *Model) indexOf(id string) int {
	for i, p := range m.Items {
		if p.ID == id {
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
	header := theme.StyleHeader.Render("PLAYMATES")
	if len(m.Items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, theme.StyleDimmed.Render("  No open postings"))
	}

	rows := max(height-1, 1)
	start := 0
	if m.Selected >= rows {
		start = m.Selected - rows + 1
	}
	end := min(start+rows, len(m.Items))

	lines := []string{header}
	for i := start; i < end; i++ {
		prefix := "  "
		if i == m.Selected {
			prefix = "> "
		}
		lines = append(lines, prefix+renderRow(m.Items[i]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRow(p client.Playmate) string {
	status := lipgloss.NewStyle().Foreground(theme.PlaymateColor(string(p.Status))).Width(10).Render(string(p.Status))
	title := p.Title
	if title == "" {
		title = p.SportName
	}
	if len(title) > 32 {
		title = title[:31] + "…"
	}
	parts := []string{status, title}
	if p.MaxParticipants > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", p.Participants, p.MaxParticipants))
	}
	if !p.StartTime.IsZero() {
		parts = append(parts, theme.StyleDimmed.Render(p.StartTime.Local().Format("Mon 02 Jan 15:04")))
	}
	if p.FacilityName != "" {
		parts = append(parts, theme.StyleDimmed.Render("@ "+p.FacilityName))
	}
	return strings.Join(parts, "  ")
}
