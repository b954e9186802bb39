package model

import (
	"errors"
	"strings"
	"time"
)

// NotificationType is the display category of an admin notification.
type NotificationType string

const (
	TypeInfo    NotificationType = "info"
	TypeSuccess NotificationType = "success"
	TypeWarning NotificationType = "warning"
	TypeError   NotificationType = "error"
)

// Priority is the urgency of an admin notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Target selects the audience of an admin notification.
type Target string

const (
	TargetAll           Target = "all"
	TargetVerifiedUsers Target = "verified_users"
	TargetSpecificUsers Target = "specific_users"
)

// Status is the delivery status reported by the server.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// NotificationTypes lists every category in display order.
var NotificationTypes = []NotificationType{TypeInfo, TypeSuccess, TypeWarning, TypeError}

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh}

// Targets lists every audience in display order.
var Targets = []Target{TargetAll, TargetVerifiedUsers, TargetSpecificUsers}

// Notification is an admin-authored message broadcast to a target audience.
// Records are created server side; the client only reads and deletes them.
type Notification struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id" db:"id"`

	Title    string           `json:"title" db:"title"`
	Message  string           `json:"message" db:"message"`
	Type     NotificationType `json:"type" db:"type"`
	Priority Priority         `json:"priority" db:"priority"`
	Target   Target           `json:"target" db:"target"`

	// TargetUsers is a comma-separated list of emails. Only present when
	// Target is TargetSpecificUsers.
	TargetUsers string `json:"target_users,omitempty" db:"target_users"`

	// SentCount is the number of recipients the message was delivered to.
	SentCount int `json:"sent_count" db:"sent_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Status    Status    `json:"status" db:"status"`
}

// TargetUserList splits TargetUsers into trimmed, non-empty entries.
func (n Notification) TargetUserList() []string {
	return splitUsers(n.TargetUsers)
}

// ErrTitleMessageRequired is returned by Draft.Validate when the title or
// message is blank.
var ErrTitleMessageRequired = errors.New("title and message are required")

// Draft holds the mutable fields an operator fills in before sending.
type Draft struct {
	Title       string
	Message     string
	Type        NotificationType
	Priority    Priority
	Target      Target
	TargetUsers string
}

// NewDraft returns a draft with the default category, priority and audience.
func NewDraft() Draft {
	return Draft{
		Type:     TypeInfo,
		Priority: PriorityNormal,
		Target:   TargetAll,
	}
}

// Validate checks the client-side precondition for sending.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Message) == "" {
		return ErrTitleMessageRequired
	}
	return nil
}

// SendRequest is the JSON body of POST /notifications/admin/send/.
type SendRequest struct {
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	Priority    Priority         `json:"priority"`
	Target      Target           `json:"target"`
	TargetUsers string           `json:"target_users"`
}

// Request converts the draft into a wire request. Empty enum fields fall
// back to their defaults. target_users is sent as typed for a specific user
// list and cleared otherwise.
func (d Draft) Request() SendRequest {
	req := SendRequest{
		Title:    d.Title,
		Message:  d.Message,
		Type:     d.Type,
		Priority: d.Priority,
		Target:   d.Target,
	}
	if req.Type == "" {
		req.Type = TypeInfo
	}
	if req.Priority == "" {
		req.Priority = PriorityNormal
	}
	if req.Target == "" {
		req.Target = TargetAll
	}
	if req.Target == TargetSpecificUsers {
		req.TargetUsers = d.TargetUsers
	}
	return req
}

// ParseNotificationType validates a category name.
func ParseNotificationType(s string) (NotificationType, bool) {
	for _, t := range NotificationTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ParsePriority validates a priority name.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// ParseTarget validates an audience name.
func ParseTarget(s string) (Target, bool) {
	for _, t := range Targets {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Label returns the human-readable audience name.
func (t Target) Label() string {
	switch t {
	case TargetAll:
		return "All Users"
	case TargetVerifiedUsers:
		return "Verified Users"
	case TargetSpecificUsers:
		return "Specific Users"
	default:
		return string(t)
	}
}

func splitUsers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
