package store

import (
	"context"
	"fmt"

	"github.com/nhle/notifyadmin/internal/model"
)

const notificationColumns = `
	id, title, message, type, priority, target,
	target_users, sent_count, status, created_at`

// ReplaceNotifications swaps the stored snapshot for items, keeping their
// order. An empty slice clears the snapshot.
func (s *SQLiteStore) ReplaceNotifications(ctx context.Context, items []model.Notification) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notification snapshot: %w", err)
	}

	if len(items) > 0 {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT OR REPLACE INTO notifications (
				id, position, title, message, type, priority, target,
				target_users, sent_count, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing snapshot insert: %w", err)
		}
		defer stmt.Close()

		for i, n := range items {
			_, err = stmt.ExecContext(ctx,
				n.ID, i, n.Title, n.Message,
				string(n.Type), string(n.Priority), string(n.Target),
				n.TargetUsers, n.SentCount, string(n.Status), n.CreatedAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("storing notification %d: %w", n.ID, err)
			}
		}
	}

	return tx.Commit()
}

// GetNotifications returns the stored snapshot in its original order.
func (s *SQLiteStore) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	items := []model.Notification{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT"+notificationColumns+" FROM notifications ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying notification snapshot: %w", err)
	}
	return items, nil
}
