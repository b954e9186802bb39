package notiflist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string {
	return i.Notification.Title + " " + i.Notification.Message
}

// Title returns the notification title for the list.
func (i Item) Title() string { return i.Notification.Title }

// Description returns a short summary line for the list.
func (i Item) Description() string {
	n := i.Notification
	parts := []string{
		string(n.Type),
		n.Target.Label(),
		fmt.Sprintf("%d sent", n.SentCount),
		relativeTime(n.CreatedAt),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering notifications
// on a single line.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	typeBadge := theme.TypeStyle(n.Type).Render(typeLabel(n.Type))
	priBadge := theme.PriorityStyle(n.Priority).Render(priorityLabel(n.Priority))
	target := theme.TargetStyle(n.Target).Render(n.Target.Label())

	status := ""
	if n.Status == model.StatusFailed {
		status = theme.StatusStyle(n.Status).Render(" FAILED")
	}

	meta := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("%d sent  %s", n.SentCount, relativeTime(n.CreatedAt)))

	line := fmt.Sprintf(
		"%s %s %s%s %s  %s",
		typeBadge, priBadge, n.Title, status, target, meta,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Local().Format("Jan 02")
	}
}

// typeLabel returns a fixed-width label for the category.
func typeLabel(t model.NotificationType) string {
	switch t {
	case model.TypeInfo:
		return "INFO"
	case model.TypeSuccess:
		return "OK  "
	case model.TypeWarning:
		return "WARN"
	case model.TypeError:
		return "ERR "
	default:
		return "??? "
	}
}

// priorityLabel returns a one-character marker for the priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!"
	case model.PriorityLow:
		return "↓"
	default:
		return "·"
	}
}
