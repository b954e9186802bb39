package confirm

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/notifier"
)

// AnsweredMsg carries the operator's answer for a pending delete.
// Escaping the dialog counts as "no".
type AnsweredMsg struct {
	ID  int64
	Yes bool
}

type formBindings struct {
	confirm bool
}

// Model is the delete confirmation dialog.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	target model.Notification
	width  int
	height int
}

// New creates a new confirmation dialog model.
func New(width, height int) Model {
	return Model{
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Start opens the dialog for n. The default answer is "no".
func (m *Model) Start(n model.Notification) tea.Cmd {
	m.target = n
	m.fb.confirm = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Active reports whether a question is pending.
func (m Model) Active() bool {
	return m.form != nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(notifier.DeletePrompt).
				Description(fmt.Sprintf("%q will be removed for every recipient.", m.target.Title)).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.answer(m.fb.confirm)
	case huh.StateAborted:
		return m.answer(false)
	}
	return m, cmd
}

// Cancel answers "no" without waiting for the form.
func (m Model) Cancel() (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	return m.answer(false)
}

func (m Model) answer(yes bool) (Model, tea.Cmd) {
	m.form = nil
	id := m.target.ID
	return m, func() tea.Msg { return AnsweredMsg{ID: id, Yes: yes} }
}

// View renders the dialog.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 6 {
		h = 6
	}
	return h
}
