package notiflist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notifyadmin/internal/keys"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/theme"
)

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	Notification model.Notification
}

// Model is the notification list view. It renders whatever collection the
// parent hands it through SetNotifications; it never fetches.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	all         []model.Notification
	query       string
	typeFilter  int // index into model.NotificationTypes, -1 for all
	searchMode  bool
	searchInput textinput.Model
	loaded      bool
	failed      bool
	width       int
	height      int
}

// New creates a new notification list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Notification History"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("notification", "notifications")
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search title or message..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		typeFilter:  -1,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetNotifications replaces the rendered collection, keeping the cursor
// on the same notification when it is still present.
func (m *Model) SetNotifications(items []model.Notification) tea.Cmd {
	m.all = items
	m.loaded = true
	m.failed = false
	return m.apply()
}

// SetLoadFailed records a failed fetch. The shown items stay as they are.
func (m *Model) SetLoadFailed() {
	m.loaded = true
	m.failed = true
}

// Loaded reports whether a fetch has finished, successfully or not.
func (m Model) Loaded() bool {
	return m.loaded
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// SetTypeFilter restricts the list to one category; "" shows all.
func (m *Model) SetTypeFilter(t model.NotificationType) tea.Cmd {
	m.typeFilter = -1
	for i, nt := range model.NotificationTypes {
		if nt == t {
			m.typeFilter = i
		}
	}
	return m.apply()
}

// ClearFilters removes the type filter and search query.
func (m *Model) ClearFilters() tea.Cmd {
	m.typeFilter = -1
	m.query = ""
	m.searchInput.Reset()
	return m.apply()
}

// FilterSummary describes active filters, or "" when none are set.
func (m Model) FilterSummary() string {
	var parts []string
	if m.typeFilter >= 0 {
		parts = append(parts, "type: "+string(model.NotificationTypes[m.typeFilter]))
	}
	if m.query != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.query))
	}
	return strings.Join(parts, " | ")
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		return m, m.apply()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.apply()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		n, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMsg{Notification: n}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleType):
		m.typeFilter++
		if m.typeFilter >= len(model.NotificationTypes) {
			m.typeFilter = -1
		}
		return m, m.apply()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// apply rebuilds the visible items from the full collection and filters.
func (m *Model) apply() tea.Cmd {
	selected, hadSelection := m.Selected()

	q := strings.ToLower(m.query)
	items := make([]list.Item, 0, len(m.all))
	cursor := 0
	for _, n := range m.all {
		if m.typeFilter >= 0 && n.Type != model.NotificationTypes[m.typeFilter] {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(n.Title), q) &&
			!strings.Contains(strings.ToLower(n.Message), q) {
			continue
		}
		if hadSelection && n.ID == selected.ID {
			cursor = len(items)
		}
		items = append(items, Item{Notification: n})
	}

	cmd := m.list.SetItems(items)
	if cursor < len(items) {
		m.list.Select(cursor)
	}
	return cmd
}

// View renders the list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when nothing is listed.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case !m.loaded:
		return style.Render("Loading notifications...")
	case m.failed && len(m.all) == 0:
		return style.Render("Could not load notifications.\n\nPress r to retry.")
	case m.FilterSummary() != "":
		return style.Render("No matching notifications.\nPress : then 'clear' to reset filters.")
	default:
		return style.Render("No notifications sent yet.\n\nPress n to send one.")
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
