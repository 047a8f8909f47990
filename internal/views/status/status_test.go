package status

import (
	"strings"
	"testing"

	"github.com/courtside/client/internal/bridge"
)

func TestSetState(t *testing.T) {
	m := New(5, "chat", "playmate")
	m.Width = 120
	if m.AllConnected() {
		t.Fatal("new bar should start disconnected")
	}

	m.SetState("chat", bridge.Connected, 0)
	m.SetState("playmate", bridge.Connecting, 2)
	m.SetState("unknown", bridge.Connected, 0)
	if m.AllConnected() {
		t.Error("playmate is still connecting")
	}

	v := m.View()
	for _, want := range []string{"chat connected", "playmate connecting", "(retry 2/5)", "0 unread"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}

	m.SetState("playmate", bridge.Connected, 0)
	if !m.AllConnected() {
		t.Error("both bridges are connected")
	}
	if strings.Contains(m.View(), "retry") {
		t.Error("retry counter should hide once connected")
	}
}

func TestStopped(t *testing.T) {
	m := New(5, "chat", "playmate")
	m.Width = 120
	m.SetState("chat", bridge.Connected, 0)
	m.SetStopped("chat")
	if len(m.Stopped()) != 0 {
		t.Fatal("a connected bridge cannot be stopped")
	}

	m.SetState("chat", bridge.Disconnected, 5)
	m.SetStopped("chat")
	if got := m.Stopped(); len(got) != 1 || got[0] != "chat" {
		t.Fatalf("Stopped = %v", got)
	}
	if !strings.Contains(m.View(), "chat disconnected (stopped)") {
		t.Errorf("view should flag the stopped bridge:\n%s", m.View())
	}

	m.SetState("chat", bridge.Connecting, 0)
	if len(m.Stopped()) != 0 {
		t.Error("a new attempt clears the stopped flag")
	}
}

func TestUnreadCount(t *testing.T) {
	m := New(5, "chat")
	m.Unread = 7
	m.Width = 80
	if !strings.Contains(m.View(), "7 unread") {
		t.Error("view should show the unread count")
	}
}
