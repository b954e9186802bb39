package notiflist

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notifyadmin/internal/keys"
	"github.com/nhle/notifyadmin/internal/model"
)

func sample() []model.Notification {
	return []model.Notification{
		{ID: 3, Title: "Outage", Message: "API down", Type: model.TypeError},
		{ID: 2, Title: "Welcome", Message: "Thanks for joining", Type: model.TypeSuccess},
		{ID: 1, Title: "Heads up", Message: "Maintenance window", Type: model.TypeWarning},
	}
}

func visibleIDs(m Model) []int64 {
	var out []int64
	for _, it := range m.list.Items() {
		out = append(out, it.(Item).Notification.ID)
	}
	return out
}

func TestSetNotificationsKeepsOrder(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetNotifications(sample())

	got := visibleIDs(m)
	if len(got) != 3 || got[0] != 3 || got[2] != 1 {
		t.Fatalf("ids = %v", got)
	}
	if n, ok := m.Selected(); !ok || n.ID != 3 {
		t.Fatalf("selected = %+v", n)
	}
}

func TestCursorFollowsSelectionAcrossUpdates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetNotifications(sample())
	m.list.Select(1) // id 2

	updated := append([]model.Notification{{ID: 4, Title: "New"}}, sample()...)
	m.SetNotifications(updated)

	if n, _ := m.Selected(); n.ID != 2 {
		t.Fatalf("selected id = %d, want 2", n.ID)
	}
}

func TestTypeFilterAndSearch(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetNotifications(sample())

	m.SetTypeFilter(model.TypeWarning)
	if got := visibleIDs(m); len(got) != 1 || got[0] != 1 {
		t.Fatalf("warning filter ids = %v", got)
	}
	if m.FilterSummary() != "type: warning" {
		t.Fatalf("summary = %q", m.FilterSummary())
	}

	m.ClearFilters()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	if !m.Searching() {
		t.Fatal("expected search mode")
	}
	for _, r := range "joining" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got := visibleIDs(m); len(got) != 1 || got[0] != 2 {
		t.Fatalf("search ids = %v", got)
	}
}

func TestSelectEmitsMessage(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetNotifications(sample())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected command")
	}
	msg, ok := cmd().(SelectedMsg)
	if !ok || msg.Notification.ID != 3 {
		t.Fatalf("msg = %#v", msg)
	}
}

func TestEmptyStates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	if v := m.View(); !strings.Contains(v, "Loading notifications") {
		t.Fatalf("view before load = %q", v)
	}
	m.SetNotifications(nil)
	if v := m.View(); !strings.Contains(v, "No notifications sent yet") {
		t.Fatalf("empty view = %q", v)
	}
}

func TestEmptyStateAfterFailedLoad(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	if !strings.Contains(m.View(), "Loading notifications") {
		t.Fatal("expected loading state before any fetch")
	}

	m.SetLoadFailed()
	if view := m.View(); !strings.Contains(view, "Could not load notifications") {
		t.Fatalf("view = %q", view)
	}

	m.SetNotifications(nil)
	if view := m.View(); !strings.Contains(view, "No notifications sent yet") {
		t.Fatalf("view = %q", view)
	}
}
