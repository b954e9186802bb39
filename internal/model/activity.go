package model

import "time"

// ActivityAction names something the operator did (or tried to do) from
// this machine.
type ActivityAction string

const (
	ActionSent         ActivityAction = "sent"
	ActionDeleted      ActivityAction = "deleted"
	ActionListFailed   ActivityAction = "list_failed"
	ActionSendFailed   ActivityAction = "send_failed"
	ActionDeleteFailed ActivityAction = "delete_failed"
)

// Failed reports whether the action records a failed operation.
func (a ActivityAction) Failed() bool {
	switch a {
	case ActionListFailed, ActionSendFailed, ActionDeleteFailed:
		return true
	}
	return false
}

// Activity is a local audit entry. It is never sent to the server.
type Activity struct {
	ID             string         `json:"id" db:"id"`
	Action         ActivityAction `json:"action" db:"action"`
	NotificationID int64          `json:"notification_id,omitempty" db:"notification_id"`
	Detail         string         `json:"detail" db:"detail"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}
