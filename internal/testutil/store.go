package testutil

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/notifyadmin/internal/mockapi"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewMockBackend starts the fake admin API behind an httptest server and
// returns it together with the API root to hand to admin.NewClient.
func NewMockBackend(t *testing.T, token string, opts ...mockapi.Option) (*mockapi.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock := mockapi.New(token, opts...)
	server := httptest.NewServer(mock.Handler())
	t.Cleanup(server.Close)

	return mock, server.URL + "/api"
}

// Notifications builds n sent notifications with ids n..1, newest first.
func Notifications(n int) []model.Notification {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := make([]model.Notification, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, model.Notification{
			ID:        int64(i),
			Title:     fmt.Sprintf("Notice %d", i),
			Message:   fmt.Sprintf("Body of notice %d", i),
			Type:      model.TypeInfo,
			Priority:  model.PriorityNormal,
			Target:    model.TargetAll,
			SentCount: 10 * i,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Status:    model.StatusSent,
		})
	}
	return out
}
