package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/courtside/client/internal/client"
)

func msg(id, conv, content string) client.Message {
	return client.Message{ID: id, ConversationID: conv, SenderName: "Linh", Content: content, CreatedAt: time.Now()}
}

func TestAddDeduplicatesAndSetsActive(t *testing.T) {
	m := New("notty")
	m.Add(msg("1", "c1", "hi"))
	m.Add(msg("1", "c1", "hi"))
	m.Add(msg("2", "c2", "other"))

	if len(m.Messages) != 2 {
		t.Fatalf("len = %d, want 2", len(m.Messages))
	}
	if m.Active != "c1" {
		t.Errorf("active = %q, first conversation should become active", m.Active)
	}
	if got := len(m.Conversation("c2")); got != 1 {
		t.Errorf("c2 has %d messages", got)
	}
}

func TestEchoReplacesPending(t *testing.T) {
	m := New("notty")
	m.Pending("c1", "client-1", "on my way")
	if len(m.Messages) != 1 || m.Messages[0].ID != "" {
		t.Fatal("pending message should have no server id")
	}

	echo := msg("srv-9", "c1", "on my way")
	echo.ClientID = "client-1"
	m.Add(echo)
	if len(m.Messages) != 1 {
		t.Fatalf("echo should replace the pending copy, have %d", len(m.Messages))
	}
	if m.Messages[0].ID != "srv-9" {
		t.Errorf("id = %q", m.Messages[0].ID)
	}
	if id, ok := m.Latest(); !ok || id != "srv-9" {
		t.Errorf("Latest = %q, %v", id, ok)
	}
}

func TestPendingAfterEchoIsDropped(t *testing.T) {
	m := New("notty")
	echo := msg("srv-9", "c1", "on my way")
	echo.ClientID = "client-1"
	m.Add(echo)
	m.Pending("c1", "client-1", "on my way")

	if len(m.Messages) != 1 {
		t.Fatalf("len = %d, want 1", len(m.Messages))
	}
	if m.Messages[0].ID != "srv-9" {
		t.Errorf("id = %q, the server copy should stay", m.Messages[0].ID)
	}
}

func TestSeenCoversUpToReceipt(t *testing.T) {
	m := New("notty")
	m.Add(msg("1", "c1", "a"))
	m.Add(msg("2", "c2", "b"))
	m.Add(msg("3", "c1", "c"))
	m.Add(msg("4", "c1", "d"))

	m.Seen(client.SeenReceipt{ConversationID: "c1", MessageID: "3", SeenAt: time.Now()})
	want := map[string]bool{"1": true, "2": false, "3": true, "4": false}
	for _, x := range m.Messages {
		if (x.SeenAt != nil) != want[x.ID] {
			t.Errorf("message %s seen = %v, want %v", x.ID, x.SeenAt != nil, want[x.ID])
		}
	}

	m.Seen(client.SeenReceipt{ConversationID: "c1", MessageID: "missing", SeenAt: time.Now()})
	if m.Messages[3].SeenAt != nil {
		t.Error("receipt for an unknown message should change nothing")
	}
}

func TestViewRendersMarkdown(t *testing.T) {
	m := New("notty")
	m.Width = 60
	if !strings.Contains(m.View(20), "No messages yet") {
		t.Error("empty view should say so")
	}

	m.Add(msg("1", "c1", "Court 3 is **booked**"))
	m.Pending("c1", "x", "great")
	v := m.View(20)
	for _, want := range []string{"CHAT · c1", "Linh", "Court", "booked", "sending"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}

func TestMessagesCapped(t *testing.T) {
	m := New("notty")
	for i := 0; i < maxMessages+5; i++ {
		m.Add(client.Message{ID: strings.Repeat("m", i+1), ConversationID: "c"})
	}
	if len(m.Messages) != maxMessages {
		t.Errorf("len = %d, want %d", len(m.Messages), maxMessages)
	}
}
