package settings

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notifyadmin/internal/admin"
	"github.com/nhle/notifyadmin/internal/credential"
	"github.com/nhle/notifyadmin/internal/keys"
	"github.com/nhle/notifyadmin/internal/theme"
)

// testTimeout bounds the connection test.
const testTimeout = 15 * time.Second

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeSummary        Mode = iota // Show current settings
	ModeForm                       // Edit settings
	ModeValidating                 // Testing connection
	ModeValidateResult             // Show test result
)

// Values is what the operator can change from the TUI.
type Values struct {
	BaseURL            string
	Token              string // empty keeps the stored token
	RefreshIntervalSec int
}

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SavedMsg carries settings that passed the connection test. The parent
// persists them.
type SavedMsg struct {
	Values Values
}

// ValidateResultMsg carries the result of a connection test.
type ValidateResultMsg struct {
	Count int
	Err   error
}

type formBindings struct {
	baseURL string
	token   string
	refresh string
}

// Model is the Bubble Tea model for the settings screen.
type Model struct {
	mode    Mode
	current Values
	tokens  credential.TokenSource
	pending *Values

	form *huh.Form
	fb   *formBindings

	validCount int
	validError error
	spinner    spinner.Model

	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view. tokens supplies the stored token when the
// operator leaves the token field blank.
func New(current Values, tokens credential.TokenSource, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeSummary,
		current: current,
		tokens:  tokens,
		fb:      &formBindings{},
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Init resets the view to the summary screen.
func (m *Model) Init() tea.Cmd {
	m.mode = ModeSummary
	m.statusMsg = ""
	return nil
}

// SetCurrent updates the values shown on the summary screen.
func (m *Model) SetCurrent(v Values) {
	m.current = v
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ValidateResultMsg:
		m.validCount = msg.Count
		m.validError = msg.Err
		m.mode = ModeValidateResult
		if msg.Err == nil && m.pending != nil {
			v := *m.pending
			m.pending = nil
			m.statusMsg = "Settings saved"
			return m, func() tea.Msg { return SavedMsg{Values: v} }
		}
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeSummary:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return DoneMsg{} }
		case msg.String() == "e":
			m.fb.baseURL = m.current.BaseURL
			m.fb.token = ""
			m.fb.refresh = strconv.Itoa(m.current.RefreshIntervalSec)
			m.form = m.buildForm()
			m.mode = ModeForm
			return m, m.form.Init()
		case msg.String() == "t":
			m.pending = nil
			return m.startValidation(m.current)
		}
		return m, nil

	case ModeForm:
		if msg.String() == "esc" {
			m.form = nil
			m.mode = ModeSummary
			return m, nil
		}
		return m.updateForm(msg)

	case ModeValidating:
		if msg.String() == "esc" {
			m.pending = nil
			m.mode = ModeSummary
		}
		return m, nil

	case ModeValidateResult:
		switch msg.String() {
		case "enter", "esc":
			m.mode = ModeSummary
			m.validError = nil
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Base URL").
				Description("Root of the admin API (e.g., https://growfun-backend.onrender.com/api)").
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Admin Token").
				Description("Bearer token; leave blank to keep the stored one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.token),
			huh.NewInput().
				Title("Auto-refresh (seconds)").
				Description("0 disables background refresh").
				Value(&m.fb.refresh).
				Validate(validateInterval),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		refresh, _ := strconv.Atoi(strings.TrimSpace(m.fb.refresh))
		v := Values{
			BaseURL:            strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/"),
			Token:              strings.TrimSpace(m.fb.token),
			RefreshIntervalSec: refresh,
		}
		m.pending = &v
		return m.startValidation(v)
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeSummary
		return m, nil
	}

	return m, cmd
}

func (m Model) startValidation(v Values) (Model, tea.Cmd) {
	m.mode = ModeValidating
	return m, tea.Batch(m.spinner.Tick, m.validate(v))
}

// validate lists notifications with the candidate settings.
func (m Model) validate(v Values) tea.Cmd {
	var tokens credential.TokenSource = credential.StaticToken(v.Token)
	if v.Token == "" {
		tokens = m.tokens
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		items, err := admin.NewClient(v.BaseURL, tokens).ListNotifications(ctx)
		return ValidateResultMsg{Count: len(items), Err: err}
	}
}

// --- View ---

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		return m.viewForm()
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	default:
		return m.viewSummary()
	}
}

func (m Model) viewSummary() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(14)

	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	refresh := "off"
	if m.current.RefreshIntervalSec > 0 {
		refresh = fmt.Sprintf("every %ds", m.current.RefreshIntervalSec)
	}

	b.WriteString(labelStyle.Render("API base URL") + m.current.BaseURL + "\n")
	b.WriteString(labelStyle.Render("Token") + m.tokenSummary() + "\n")
	b.WriteString(labelStyle.Render("Auto-refresh") + refresh + "\n")

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true).
			Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"e edit | t test connection | esc back",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) tokenSummary() string {
	if m.tokens == nil {
		return "not set"
	}
	tok, err := m.tokens.Token()
	if err != nil || tok == "" {
		return "not set"
	}
	return credential.Inspect(tok).String()
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(m.form.View())
}

func (m Model) viewValidating() string {
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(fmt.Sprintf(
			"%s Testing connection...\n\nPress esc to cancel.",
			m.spinner.View(),
		))
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray).Render("enter/esc back")

	if m.validError != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		msg := m.validError.Error()
		if admin.IsAuthError(m.validError) {
			msg = "The server rejected the token. " + msg
		}
		return style.Render(errStyle.Render("Connection failed") + "\n\n" + msg + "\n\n" + hint)
	}

	okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	return style.Render(okStyle.Render("Connection successful") + "\n\n" +
		fmt.Sprintf("%d notifications visible.", m.validCount) + "\n\n" + hint)
}

// --- Helpers ---

// SetSize updates the view dimensions.
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

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com/api)")
	}
	return nil
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number of seconds")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
