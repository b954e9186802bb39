// Package notifier holds the operator-side state of the admin notification
// page: the ordered list of notifications last fetched from the server,
// the loading flag, and the list/create/delete operations that keep them
// in step with the backend.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/nhle/notifyadmin/internal/model"
)

// Operator-facing messages.
const (
	MsgLoadFailed   = "Failed to load notifications"
	MsgRequired     = "Title and message are required"
	MsgSendFailed   = "Failed to send notification"
	MsgDeleted      = "Notification deleted"
	MsgDeleteFailed = "Failed to delete notification"

	// DeletePrompt is the question put to the Confirmer before a delete.
	DeletePrompt = "Are you sure you want to delete this notification?"
)

var (
	// ErrDraftInvalid is returned by Create when the title or message is
	// blank. No request is sent.
	ErrDraftInvalid = errors.New("invalid notification draft")

	// ErrDeleteDeclined is returned by Delete when the operator does not
	// confirm. No request is sent.
	ErrDeleteDeclined = errors.New("delete not confirmed")
)

// SentMessage is the success toast for a create.
func SentMessage(sentCount int) string {
	return fmt.Sprintf("Notification sent to %d users!", sentCount)
}

// API is the remote side of the manager. *admin.Client satisfies it.
type API interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	SendNotification(ctx context.Context, req model.SendRequest) (*model.Notification, error)
	DeleteNotification(ctx context.Context, id int64) (string, error)
}

// Toaster shows transient, non-blocking messages to the operator.
type Toaster interface {
	Success(msg string)
	Error(msg string)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) (bool, error)

// Confirm calls f(prompt).
func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// Confirmed is a Confirmer that always agrees. Used once the operator has
// already answered elsewhere (a TUI dialog or a --yes flag).
var Confirmed Confirmer = ConfirmFunc(func(string) (bool, error) { return true, nil })

// Snapshot persists the collection and the activity log. *store.SQLiteStore
// satisfies it.
type Snapshot interface {
	ReplaceNotifications(ctx context.Context, items []model.Notification) error
	GetNotifications(ctx context.Context) ([]model.Notification, error)
	RecordActivity(ctx context.Context, a model.Activity) error
}

// Manager is the admin notification client state machine. It is safe for
// concurrent use; network calls themselves are not serialized.
type Manager struct {
	api      API
	toaster  Toaster
	snapshot Snapshot

	mu      sync.Mutex
	items   []model.Notification
	loading bool
}

// Option customizes a Manager.
type Option func(*Manager)

// WithSnapshot persists every change of the collection to s.
func WithSnapshot(s Snapshot) Option {
	return func(m *Manager) { m.snapshot = s }
}

// NewManager creates a manager with an empty collection.
func NewManager(api API, toaster Toaster, opts ...Option) *Manager {
	m := &Manager{
		api:     api,
		toaster: toaster,
		items:   []model.Notification{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.toaster == nil {
		m.toaster = nopToaster{}
	}
	return m
}

// Notifications returns a copy of the current collection.
func (m *Manager) Notifications() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Notification, len(m.items))
	copy(out, m.items)
	return out
}

// Loading reports whether a list or create request is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

// Restore loads the persisted snapshot into the collection. It is a no-op
// without a snapshot.
func (m *Manager) Restore(ctx context.Context) error {
	if m.snapshot == nil {
		return nil
	}
	items, err := m.snapshot.GetNotifications(ctx)
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
	return nil
}

// List fetches the full collection and replaces the local one. On failure
// the local collection is left as it was.
func (m *Manager) List(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	items, err := m.api.ListNotifications(ctx)
	if err != nil {
		log.Printf("Error loading notifications: %v", err)
		m.toaster.Error(MsgLoadFailed)
		m.record(ctx, model.Activity{Action: model.ActionListFailed, Detail: err.Error()})
		return err
	}

	m.mu.Lock()
	m.items = items
	snapshot := m.copyLocked()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	return nil
}

// Create validates the draft, sends it and prepends the record the server
// returns.
func (m *Manager) Create(ctx context.Context, d model.Draft) (*model.Notification, error) {
	if err := d.Validate(); err != nil {
		m.toaster.Error(MsgRequired)
		return nil, fmt.Errorf("%w: %w", ErrDraftInvalid, err)
	}

	m.setLoading(true)
	defer m.setLoading(false)

	n, err := m.api.SendNotification(ctx, d.Request())
	if err != nil {
		log.Printf("Error sending notification: %v", err)
		m.toaster.Error(MsgSendFailed)
		m.record(ctx, model.Activity{Action: model.ActionSendFailed, Detail: err.Error()})
		return nil, err
	}

	m.mu.Lock()
	m.items = append([]model.Notification{*n}, m.items...)
	snapshot := m.copyLocked()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.record(ctx, model.Activity{
		Action:         model.ActionSent,
		NotificationID: n.ID,
		Detail:         fmt.Sprintf("%s (%d recipients)", n.Title, n.SentCount),
	})
	m.toaster.Success(SentMessage(n.SentCount))
	return n, nil
}

// Delete asks for confirmation, deletes the notification on the server
// and removes every local record with that id. The loading flag is not
// touched.
func (m *Manager) Delete(ctx context.Context, id int64, c Confirmer) error {
	if c == nil {
		return ErrDeleteDeclined
	}
	ok, err := c.Confirm(DeletePrompt)
	if err != nil {
		log.Printf("Delete confirmation for %d aborted: %v", id, err)
		return fmt.Errorf("%w: %w", ErrDeleteDeclined, err)
	}
	if !ok {
		return ErrDeleteDeclined
	}

	if _, err := m.api.DeleteNotification(ctx, id); err != nil {
		log.Printf("Error deleting notification: %v", err)
		m.toaster.Error(MsgDeleteFailed)
		m.record(ctx, model.Activity{
			Action:         model.ActionDeleteFailed,
			NotificationID: id,
			Detail:         err.Error(),
		})
		return err
	}

	m.mu.Lock()
	kept := make([]model.Notification, 0, len(m.items))
	for _, n := range m.items {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	m.items = kept
	snapshot := m.copyLocked()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.record(ctx, model.Activity{Action: model.ActionDeleted, NotificationID: id})
	m.toaster.Success(MsgDeleted)
	return nil
}

// copyLocked must be called with m.mu held.
func (m *Manager) copyLocked() []model.Notification {
	out := make([]model.Notification, len(m.items))
	copy(out, m.items)
	return out
}

// persist and record are best effort; the remote call already succeeded.
func (m *Manager) persist(ctx context.Context, items []model.Notification) {
	if m.snapshot == nil {
		return
	}
	if err := m.snapshot.ReplaceNotifications(ctx, items); err != nil {
		log.Printf("Error saving notification snapshot: %v", err)
	}
}

func (m *Manager) record(ctx context.Context, a model.Activity) {
	if m.snapshot == nil {
		return
	}
	if err := m.snapshot.RecordActivity(ctx, a); err != nil {
		log.Printf("Error recording activity: %v", err)
	}
}

type nopToaster struct{}

func (nopToaster) Success(string) {}
func (nopToaster) Error(string)   {}
