package store

import (
	"context"

	"github.com/nhle/notifyadmin/internal/model"
)

// Store defines the local persistence interface: the snapshot of the last
// known notification list and the operator's activity log.
type Store interface {
	// === Notification snapshot ===

	ReplaceNotifications(ctx context.Context, items []model.Notification) error
	GetNotifications(ctx context.Context) ([]model.Notification, error)

	// === Activity log ===

	RecordActivity(ctx context.Context, a model.Activity) error
	GetActivity(ctx context.Context, limit int) ([]model.Activity, error)

	Close() error
}
