package feed

import (
	"strings"
	"testing"

	"github.com/courtside/client/internal/client"
)

func ids(m Model) string {
	var out []string
	for _, p := range m.Items {
		out = append(out, p.ID)
	}
	return strings.Join(out, ",")
}

func TestCreatedAndUpdated(t *testing.T) {
	m := New()
	m.Set([]client.Playmate{{ID: "a", Status: client.PlaymateOpen}, {ID: "b", Status: client.PlaymateOpen}})
	m.Created(client.Playmate{ID: "c", Status: client.PlaymateOpen})
	if got := ids(m); got != "c,a,b" {
		t.Fatalf("order = %s, want c,a,b", got)
	}

	m.Updated(client.Playmate{ID: "a", Status: client.PlaymateFull})
	if got := ids(m); got != "c,a,b" {
		t.Errorf("update moved items: %s", got)
	}
	if m.Items[1].Status != client.PlaymateFull {
		t.Errorf("status = %s, want full", m.Items[1].Status)
	}

	m.Updated(client.Playmate{ID: "d"})
	if got := ids(m); got != "d,c,a,b" {
		t.Errorf("unknown update should insert: %s", got)
	}
}

func TestSetKeepsLiveEntries(t *testing.T) {
	m := New()
	m.Created(client.Playmate{ID: "a", Status: client.PlaymateFull})
	m.Set([]client.Playmate{{ID: "a", Status: client.PlaymateOpen}, {ID: "b"}})
	if got := ids(m); got != "a,b" {
		t.Fatalf("order = %s", got)
	}
	if m.Items[0].Status != client.PlaymateFull {
		t.Error("socket copy should win over the REST copy")
	}
}

func TestSelectionFollowsInsert(t *testing.T) {
	m := New()
	m.Set([]client.Playmate{{ID: "a"}, {ID: "b"}})
	m.Next()
	m.Created(client.Playmate{ID: "c"})
	if m.Items[m.Selected].ID != "b" {
		t.Errorf("selection moved to %s", m.Items[m.Selected].ID)
	}
	m.Next()
	if m.Selected != 0 {
		t.Errorf("Next should wrap, got %d", m.Selected)
	}
	m.Prev()
	if m.Selected != 2 {
		t.Errorf("Prev should wrap, got %d", m.Selected)
	}
}

func TestCapsItems(t *testing.T) {
	m := New()
	for i := 0; i < maxItems+10; i++ {
		m.Created(client.Playmate{ID: strings.Repeat("x", i+1)})
	}
	if len(m.Items) != maxItems {
		t.Errorf("len = %d, want %d", len(m.Items), maxItems)
	}
}

func TestView(t *testing.T) {
	m := New()
	if !strings.Contains(m.View(10), "No open postings") {
		t.Error("empty feed should say so")
	}
	m.Created(client.Playmate{ID: "a", Title: "Sunday futsal", Status: client.PlaymateOpen, Participants: 3, MaxParticipants: 10, FacilityName: "Arena 5"})
	v := m.View(10)
	for _, want := range []string{"Sunday futsal", "3/10", "@ Arena 5", "> "} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}
