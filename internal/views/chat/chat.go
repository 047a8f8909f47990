// Package chat renders a conversation. Message bodies are markdown and go
// through glamour; rendered output is cached per message.
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/theme"
)

const maxMessages = 200

// Model holds the messages of every conversation seen so far and shows
// the active one.
type Model struct {
	Active   string
	Messages []client.Message
	Width    int

	md *markdown
}

// markdown is shared by copies of Model so the cache survives the value
// receivers bubbletea uses.
type markdown struct {
	style    string
	wrap     int
	renderer *glamour.TermRenderer
	rendered map[string]string
}

// New creates an empty chat view rendering markdown with the named
// glamour style ("dark", "light", "notty", ...).
func New(style string) Model {
	if style == "" {
		style = "dark"
	}
	return Model{md: &markdown{style: style, rendered: make(map[string]string)}}
}

// Add inserts msg. A server echo replaces the pending copy that carries the
// same client id, and a pending copy arriving after its echo is dropped. A
// repeated message id is ignored.
func (m *Model) Add(msg client.Message) {
	for i, existing := range m.Messages {
		if msg.ID != "" && existing.ID == msg.ID {
			return
		}
		if msg.ClientID != "" && existing.ClientID == msg.ClientID {
			if existing.ID == "" {
				m.Messages[i] = msg
			}
			return
		}
	}
	m.Messages = append(m.Messages, msg)
	if len(m.Messages) > maxMessages {
		m.Messages = m.Messages[len(m.Messages)-maxMessages:]
	}
	if m.Active == "" {
		m.Active = msg.ConversationID
	}
}

// Pending adds a locally sent message that has no server id yet.
func (m *Model) Pending(conversationID, clientID, content string) {
	m.Add(client.Message{
		ConversationID: conversationID,
		ClientID:       clientID,
		Content:        content,
		CreatedAt:      time.Now(),
	})
}

// Seen marks messages of the receipt's conversation, up to and including
// MessageID, as seen. Receipts for unknown messages are ignored.
func (m *Model) Seen(r client.SeenReceipt) {
	last := -1
	for i, msg := range m.Messages {
		if msg.ConversationID == r.ConversationID && msg.ID == r.MessageID {
			last = i
		}
	}
	at := r.SeenAt
	for i := 0; i <= last; i++ {
		msg := &m.Messages[i]
		if msg.ConversationID == r.ConversationID && msg.SeenAt == nil {
			msg.SeenAt = &at
		}
	}
}

// Conversation returns the messages of id in arrival order.
func (m Model) Conversation(id string) []client.Message {
	var out []client.Message
	for _, msg := range m.Messages {
		if msg.ConversationID == id {
			out = append(out, msg)
		}
	}
	return out
}

// Latest returns the newest message id of the active conversation.
func (m Model) Latest() (string, bool) {
	for i := len(m.Messages) - 1; i >= 0; i-- {
		msg := m.Messages[i]
		if msg.ConversationID == m.Active && msg.ID != "" {
			return msg.ID, true
		}
	}
	return "", false
}

// View renders the last messages of the active conversation that fit in
// height lines.
func (m *Model) View(height int) string {
	title := "CHAT"
	if m.Active != "" {
		title += " · " + m.Active
	}
	header := theme.StyleHeader.Render(title)
	msgs := m.Conversation(m.Active)
	if len(msgs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, theme.StyleDimmed.Render("  No messages yet"))
	}

	var blocks []string
	used := 1
	for i := len(msgs) - 1; i >= 0 && used < height; i-- {
		block := m.renderMessage(msgs[i])
		used += strings.Count(block, "\n") + 1
		blocks = append([]string{block}, blocks...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, blocks...)...)
}

func (m *Model) renderMessage(msg client.Message) string {
	who := msg.SenderName
	if who == "" {
		who = msg.SenderID
	}
	if who == "" {
		who = "you"
	}
	meta := theme.StyleDimmed.Render(msg.CreatedAt.Local().Format("15:04"))
	switch {
	case msg.ID == "":
		meta += theme.StyleDimmed.Render("  sending…")
	case msg.SeenAt != nil:
		meta += theme.StyleDimmed.Render("  seen")
	}
	head := lipgloss.NewStyle().Foreground(theme.ColorAccent).Bold(true).Render(who) + "  " + meta
	return head + "\n" + m.body(msg)
}

func (m *Model) body(msg client.Message) string {
	md := m.md
	wrap := max(m.Width-4, 20)
	if md.renderer == nil || wrap != md.wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(md.style),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return msg.Content
		}
		md.renderer = r
		md.wrap = wrap
		md.rendered = make(map[string]string)
	}

	if msg.ID != "" {
		if out, ok := md.rendered[msg.ID]; ok {
			return out
		}
	}
	out, err := md.renderer.Render(msg.Content)
	if err != nil {
		return msg.Content
	}
	out = strings.Trim(out, "\n")
	if msg.ID != "" {
		md.rendered[msg.ID] = out
	}
	return out
}
