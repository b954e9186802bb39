package activity

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notifyadmin/internal/keys"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/testutil"
)

func TestLoadsAndRendersEntries(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := st.RecordActivity(ctx, model.Activity{Action: model.ActionSent, NotificationID: 4, Detail: "Welcome", CreatedAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("RecordActivity() error: %v", err)
	}
	if err := st.RecordActivity(ctx, model.Activity{Action: model.ActionDeleteFailed, NotificationID: 9, Detail: "not found", CreatedAt: now}); err != nil {
		t.Fatalf("RecordActivity() error: %v", err)
	}

	m := New(st, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.Update(m.Init()())

	if len(m.entries) != 2 || m.entries[0].Action != model.ActionDeleteFailed {
		t.Fatalf("entries = %+v", m.entries)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.selectedIdx != 1 {
		t.Fatalf("selectedIdx = %d, want 1", m.selectedIdx)
	}

	view := m.View()
	if !strings.Contains(view, "#4") || !strings.Contains(view, "delete_failed") {
		t.Fatalf("view missing entries:\n%s", view)
	}
}

func TestEscCloses(t *testing.T) {
	m := New(nil, keys.DefaultKeyMap(), 80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected close command")
	}
	if _, ok := cmd().(CloseMsg); !ok {
		t.Fatal("expected CloseMsg")
	}
}
