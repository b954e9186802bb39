package sendform

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"

	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/theme"
)

// TitleLimit matches the server-side column size.
const TitleLimit = 200

// SubmitMsg is dispatched when the operator submits the form.
type SubmitMsg struct {
	Draft model.Draft
}

// CancelMsg is dispatched when the operator aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	message     string
	typ         model.NotificationType
	priority    model.Priority
	target      model.Target
	targetUsers string
}

// Model is the Bubble Tea model for the send-notification form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new send form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the bindings to a fresh draft and builds the form.
func (m *Model) Start() tea.Cmd {
	return m.StartWith(model.NewDraft())
}

// StartWith builds the form pre-filled with d, e.g. to retry a send
// after a failure.
func (m *Model) StartWith(d model.Draft) tea.Cmd {
	m.fb.title = d.Title
	m.fb.message = d.Message
	m.fb.typ = d.Type
	m.fb.priority = d.Priority
	m.fb.target = d.Target
	m.fb.targetUsers = d.TargetUsers
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.form = nil
		d := m.draft()
		return m, func() tea.Msg { return SubmitMsg{Draft: d} }
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Send Notification") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) draft() model.Draft {
	return model.Draft{
		Title:       m.fb.title,
		Message:     m.fb.message,
		Type:        m.fb.typ,
		Priority:    m.fb.priority,
		Target:      m.fb.target,
		TargetUsers: m.fb.targetUsers,
	}
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb

	typeOpts := make([]huh.Option[model.NotificationType], len(model.NotificationTypes))
	for i, t := range model.NotificationTypes {
		typeOpts[i] = huh.NewOption(capitalize(string(t)), t)
	}
	prioOpts := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		prioOpts[i] = huh.NewOption(capitalize(string(p)), p)
	}
	targetOpts := make([]huh.Option[model.Target], len(model.Targets))
	for i, t := range model.Targets {
		targetOpts[i] = huh.NewOption(t.Label(), t)
	}

	// Blank title or message is left to the manager, which reports it
	// with a toast and sends nothing.
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("e.g., Welcome to GrowFund").
				CharLimit(TitleLimit).
				Value(&fb.title),
			huh.NewText().
				Title("Message").
				Placeholder("Enter your notification message...").
				Value(&fb.message),
			huh.NewSelect[model.NotificationType]().
				Title("Type").
				Options(typeOpts...).
				Value(&fb.typ),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(prioOpts...).
				Value(&fb.priority),
			huh.NewSelect[model.Target]().
				Title("Target Audience").
				Options(targetOpts...).
				Value(&fb.target),
		),
		huh.NewGroup(
			huh.NewText().
				Title("User Emails").
				Description("Comma-separated list of user emails").
				Placeholder("user1@example.com, user2@example.com").
				Value(&fb.targetUsers).
				Validate(validateEmails),
		).WithHideFunc(func() bool {
			return fb.target != model.TargetSpecificUsers
		}),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
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
	if h < 10 {
		h = 10
	}
	return h
}

var validate = validator.New()

// validateEmails accepts an empty list; every listed entry must be an email.
func validateEmails(s string) error {
	n := model.Notification{TargetUsers: s}
	for _, addr := range n.TargetUserList() {
		if err := validate.Var(addr, "email"); err != nil {
			return fmt.Errorf("%q is not a valid email", addr)
		}
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
