package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/notifyadmin/internal/model"
)

// RecordActivity appends an entry to the activity log. Generates a UUID
// and timestamp when they are missing.
func (s *SQLiteStore) RecordActivity(ctx context.Context, a model.Activity) error {
	if a.Action == "" {
		return fmt.Errorf("activity action must not be empty")
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity (id, action, notification_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, string(a.Action), a.NotificationID, a.Detail, a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// GetActivity returns the most recent entries first. A limit of zero or
// less returns everything.
func (s *SQLiteStore) GetActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	query := `
		SELECT id, action, notification_id, detail, created_at
		FROM activity
		ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	entries := []model.Activity{}
	if err := s.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	return entries, nil
}
