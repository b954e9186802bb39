package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notifyadmin/internal/keys"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DeleteRequestMsg asks the parent to start the delete confirmation for
// the shown notification.
type DeleteRequestMsg struct {
	Notification model.Notification
}

// Model is the notification detail view component.
type Model struct {
	n        *model.Notification
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Delete):
			if m.n != nil {
				n := *m.n
				return m, func() tea.Msg {
					return DeleteRequestMsg{Notification: n}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.n == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notification selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.n == nil {
		return ""
	}
	n := m.n

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(n.Title))

	badgeLine := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.TypeStyle(n.Type).Render(strings.ToUpper(string(n.Type))), "  ",
		theme.PriorityStyle(n.Priority).Render(string(n.Priority)+" priority"), "  ",
		theme.StatusStyle(n.Status).Render(string(n.Status)),
	)
	sections = append(sections, badgeLine, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return metaStyle.Render(label) + valStyle.Render(value)
	}

	sections = append(sections,
		row("ID:", fmt.Sprintf("%d", n.ID)),
		row("Audience:", n.Target.Label()),
		row("Delivered:", fmt.Sprintf("%d users", n.SentCount)),
	)
	if !n.CreatedAt.IsZero() {
		sections = append(sections, row("Sent:", n.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if users := n.TargetUserList(); len(users) > 0 {
		sections = append(sections, row("Recipients:", strings.Join(users, ", ")))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	body := n.Message
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No message")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(body))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetNotification updates the notification being displayed.
func (m *Model) SetNotification(n model.Notification) {
	m.n = &n
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Current returns the shown notification.
func (m Model) Current() (model.Notification, bool) {
	if m.n == nil {
		return model.Notification{}, false
	}
	return *m.n, true
}

// Clear drops the shown notification, e.g. after it was deleted.
func (m *Model) Clear() {
	m.n = nil
	m.viewport.SetContent("")
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.n != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
