package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/store"
	"github.com/nhle/notifyadmin/internal/testutil"
)

func TestReplaceNotificationsKeepsOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	items := testutil.Notifications(3)
	items[1].Target = model.TargetSpecificUsers
	items[1].TargetUsers = "a@x.io,b@x.io"

	if err := s.ReplaceNotifications(ctx, items); err != nil {
		t.Fatalf("ReplaceNotifications() error: %v", err)
	}

	got, err := s.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range items {
		if got[i].ID != items[i].ID {
			t.Errorf("position %d: id = %d, want %d", i, got[i].ID, items[i].ID)
		}
	}
	if got[1].TargetUsers != "a@x.io,b@x.io" || got[1].Target != model.TargetSpecificUsers {
		t.Errorf("target fields = %q %q", got[1].Target, got[1].TargetUsers)
	}
	if !got[0].CreatedAt.Equal(items[0].CreatedAt) {
		t.Errorf("created_at = %v, want %v", got[0].CreatedAt, items[0].CreatedAt)
	}
}

func TestReplaceNotificationsOverwrites(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceNotifications(ctx, testutil.Notifications(5)); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := s.ReplaceNotifications(ctx, testutil.Notifications(2)); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	got, err := s.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	if err := s.ReplaceNotifications(ctx, nil); err != nil {
		t.Fatalf("clearing replace: %v", err)
	}
	got, err = s.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications() error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got = %#v, want empty slice", got)
	}
}

func TestActivityNewestFirstWithLimit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	entries := []model.Activity{
		{Action: model.ActionSent, NotificationID: 1, Detail: "first", CreatedAt: base},
		{Action: model.ActionDeleted, NotificationID: 1, Detail: "second", CreatedAt: base.Add(time.Minute)},
		{Action: model.ActionListFailed, Detail: "third", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, a := range entries {
		if err := s.RecordActivity(ctx, a); err != nil {
			t.Fatalf("RecordActivity() error: %v", err)
		}
	}

	got, err := s.GetActivity(ctx, 2)
	if err != nil {
		t.Fatalf("GetActivity() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Detail != "third" || got[1].Detail != "second" {
		t.Fatalf("order = %q, %q", got[0].Detail, got[1].Detail)
	}
	if got[0].ID == "" {
		t.Error("expected generated id")
	}
	if !got[0].Action.Failed() || got[1].Action.Failed() {
		t.Error("Failed() mismatch")
	}

	all, err := s.GetActivity(ctx, 0)
	if err != nil {
		t.Fatalf("GetActivity(0) error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
}

func TestRecordActivityRequiresAction(t *testing.T) {
	s := testutil.NewTestStore(t)
	if err := s.RecordActivity(context.Background(), model.Activity{Detail: "x"}); err == nil {
		t.Fatal("expected error for empty action")
	}
}

func TestFileStoreReopensWithoutRemigrating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notifyadmin.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	if err := s.ReplaceNotifications(ctx, testutil.Notifications(1)); err != nil {
		t.Fatalf("ReplaceNotifications() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s, err = store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	got, err := s.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}
