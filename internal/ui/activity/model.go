package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notifyadmin/internal/keys"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/theme"
)

// pageSize is how many entries the view loads.
const pageSize = 200

// CloseMsg signals the parent to close the activity view.
type CloseMsg struct{}

type loadedMsg struct {
	entries []model.Activity
	err     error
}

// Source reads the activity log. *store.SQLiteStore satisfies it.
type Source interface {
	GetActivity(ctx context.Context, limit int) ([]model.Activity, error)
}

// Model lists local activity entries, newest first.
type Model struct {
	src         Source
	keys        *keys.KeyMap
	entries     []model.Activity
	selectedIdx int
	offset      int
	statusMsg   string
	width       int
	height      int
}

// New creates a new activity view model.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	return Model{
		src:   src,
		keys:  k,
		width: width, height: height,
	}
}

// Init loads the log.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = ""
		m.entries = msg.entries
		m.selectedIdx = 0
		m.offset = 0
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Activity):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.Down):
			if m.selectedIdx < len(m.entries)-1 {
				m.selectedIdx++
			}
		case key.Matches(msg, m.keys.Up):
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()
		}
		m.scroll()
	}
	return m, nil
}

// scroll keeps the selection inside the visible window.
func (m *Model) scroll() {
	rows := m.visibleRows()
	if m.selectedIdx < m.offset {
		m.offset = m.selectedIdx
	}
	if m.selectedIdx >= m.offset+rows {
		m.offset = m.selectedIdx - rows + 1
	}
}

func (m Model) visibleRows() int {
	rows := m.height - 8
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the activity log.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Activity"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Nothing recorded yet. Sends and deletes show up here."))
	} else {
		end := min(m.offset+m.visibleRows(), len(m.entries))
		for i := m.offset; i < end; i++ {
			line := formatEntry(m.entries[i])
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func formatEntry(a model.Activity) string {
	style := lipgloss.NewStyle().Foreground(theme.ColorGreen).Width(14)
	if a.Action.Failed() {
		style = style.Foreground(theme.ColorRed)
	}

	ref := ""
	if a.NotificationID != 0 {
		ref = fmt.Sprintf("#%d ", a.NotificationID)
	}

	return fmt.Sprintf("%s %s %s%s",
		theme.DimmedStyle.Render(a.CreatedAt.Local().Format("Jan 02 15:04")),
		style.Render(string(a.Action)),
		ref,
		a.Detail,
	)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) load() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		if src == nil {
			return loadedMsg{}
		}
		entries, err := src.GetActivity(context.Background(), pageSize)
		return loadedMsg{entries: entries, err: err}
	}
}
