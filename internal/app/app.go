package app

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notifyadmin/internal/admin"
	"github.com/nhle/notifyadmin/internal/credential"
	"github.com/nhle/notifyadmin/internal/keys"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/notifier"
	"github.com/nhle/notifyadmin/internal/store"
	appsync "github.com/nhle/notifyadmin/internal/sync"
	"github.com/nhle/notifyadmin/internal/theme"
	"github.com/nhle/notifyadmin/internal/ui"
	activityview "github.com/nhle/notifyadmin/internal/ui/activity"
	"github.com/nhle/notifyadmin/internal/ui/command"
	"github.com/nhle/notifyadmin/internal/ui/confirm"
	"github.com/nhle/notifyadmin/internal/ui/detail"
	helpview "github.com/nhle/notifyadmin/internal/ui/help"
	"github.com/nhle/notifyadmin/internal/ui/notiflist"
	"github.com/nhle/notifyadmin/internal/ui/sendform"
	"github.com/nhle/notifyadmin/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewSend
	ViewConfirm
	ViewActivity
	ViewHelp
	ViewCommand
	ViewSettings
)

// Options configures the root model.
type Options struct {
	Config *model.AppConfig

	// ConfigPath is where settings changes are written; empty disables
	// saving.
	ConfigPath string

	// Store persists the snapshot and activity log. Optional.
	Store *store.SQLiteStore

	// Tokens yields the bearer token on every request. Defaults to the
	// environment and keyring.
	Tokens credential.TokenSource

	// SaveToken stores a token entered in settings. Defaults to the
	// admin-token keyring entry.
	SaveToken func(token string) error
}

// Model is the root Bubble Tea model that manages view routing, layout and
// the notification manager.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	cfg        *model.AppConfig
	configPath string
	store      *store.SQLiteStore
	tokens     credential.TokenSource
	saveToken  func(string) error

	client    *admin.Client
	manager   *notifier.Manager
	refresher *appsync.Refresher
	toaster   *chanToaster

	list         notiflist.Model
	detail       detail.Model
	sendForm     sendform.Model
	confirm      confirm.Model
	activityView activityview.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView settings.Model

	ready     bool
	toast     *ui.Toast
	toastSeq  int
	tokenText string
	authError bool
}

// New creates a new root application model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = &model.AppConfig{API: model.APIConfig{BaseURL: model.DefaultBaseURL, TimeoutSec: 30}}
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = credential.NewStoredToken()
	}
	saveToken := opts.SaveToken
	if saveToken == nil {
		saveToken = saveAdminToken
	}
	theme.Apply(cfg.Display.Theme)

	var activitySrc activityview.Source
	if opts.Store != nil {
		activitySrc = opts.Store
	}

	k := keys.DefaultKeyMap()
	m := Model{
		currentView: ViewList,
		keys:        k,
		cfg:         cfg,
		configPath:  opts.ConfigPath,
		store:       opts.Store,
		tokens:      tokens,
		saveToken:   saveToken,
		toaster:     newChanToaster(),
		list:        notiflist.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		sendForm:    sendform.New(80, 24),
		confirm:     confirm.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
	m.activityView = activityview.New(activitySrc, k, 80, 24)
	m.connect()
	m.settingsView = settings.New(m.currentSettings(), tokens, k, 80, 24)
	return m
}

// Init restores the snapshot, then starts refreshing once it is shown.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.toaster.waitForToast(),
		m.restoreSnapshot(),
		m.inspectToken(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.list.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.sendForm.SetSize(w, h)
		m.confirm.SetSize(w, h)
		m.activityView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case restoredMsg:
		if msg.err != nil {
			log.Printf("Error restoring snapshot: %v", msg.err)
		} else if items := m.manager.Notifications(); len(items) > 0 {
			m.list.SetNotifications(items)
		}
		return m, m.refresher.Start()

	case appsync.RefreshedMsg:
		m.authError = msg.AuthError
		var cmd tea.Cmd
		if msg.Error == nil {
			cmd = m.list.SetNotifications(m.manager.Notifications())
		} else {
			m.list.SetLoadFailed()
		}
		return m, tea.Batch(cmd, m.refresher.WaitForNextResult())

	case toastMsg:
		t := ui.Toast(msg)
		m.toast = &t
		m.toastSeq++
		return m, tea.Batch(m.toaster.waitForToast(), clearToastAfter(m.toastSeq))

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case tokenInfoMsg:
		m.tokenText = msg.text
		return m, nil

	case notiflist.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetNotification(msg.Notification)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.DeleteRequestMsg:
		return m, m.startDelete(msg.Notification)

	case confirm.AnsweredMsg:
		m.currentView = m.previousView
		return m, m.deleteNotification(msg.ID, msg.Yes)

	case deletedMsg:
		if msg.err == nil {
			m.list.SetNotifications(m.manager.Notifications())
			if n, ok := m.detail.Current(); ok && n.ID == msg.id {
				m.detail.Clear()
				if m.currentView == ViewDetail {
					m.currentView = ViewList
				}
			}
		} else if !declined(msg.err) {
			m.authError = admin.IsAuthError(msg.err)
		}
		return m, nil

	case sendform.SubmitMsg:
		m.currentView = ViewList
		return m, m.createNotification(msg.Draft)

	case sendform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case createdMsg:
		switch {
		case msg.err == nil:
			m.authError = false
			return m, m.list.SetNotifications(m.manager.Notifications())
		case errors.Is(msg.err, notifier.ErrDraftInvalid):
			// Reopen the form so the operator can fill in what is missing.
			m.previousView = ViewList
			m.currentView = ViewSend
			return m, m.sendForm.StartWith(msg.draft)
		default:
			m.authError = admin.IsAuthError(msg.err)
			return m, nil
		}

	case activityview.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case settings.DoneMsg:
		m.currentView = ViewList
		return m, nil

	case settings.SavedMsg:
		return m, m.applySettings(msg.Values)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that are not owned by the active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.refresher.Stop()
		return m, tea.Quit, true
	}

	switch m.currentView {
	case ViewConfirm:
		if key.Matches(msg, m.keys.Back) {
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Cancel()
			return m, cmd, true
		}
		return m, nil, false

	case ViewSend:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = ViewList
			return m, nil, true
		}
		return m, nil, false

	case ViewSettings, ViewActivity:
		return m, nil, false

	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false

	case ViewCommand:
		if key.Matches(msg, m.keys.Command) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	}

	if m.currentView == ViewList && m.list.Searching() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true
	}

	if m.currentView != ViewList {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.refresher.Stop()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.New):
		return m, m.openSendForm(), true

	case key.Matches(msg, m.keys.Delete):
		if n, ok := m.list.Selected(); ok {
			return m, m.startDelete(n), true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Refresh):
		m.refresher.Refresh()
		return m, nil, true

	case key.Matches(msg, m.keys.Activity):
		return m, m.openActivity(), true

	case key.Matches(msg, m.keys.Settings):
		return m, m.openSettings(), true
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewSend:
		m.sendForm, cmd = m.sendForm.Update(msg)
	case ViewConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
	case ViewActivity:
		m.activityView, cmd = m.activityView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

func (m *Model) openSendForm() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewSend
	return m.sendForm.Start()
}

func (m *Model) startDelete(n model.Notification) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewConfirm
	return m.confirm.Start(n)
}

func (m *Model) openActivity() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewActivity
	return m.activityView.Init()
}

func (m *Model) openSettings() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewSettings
	return m.settingsView.Init()
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	if t, ok := strings.CutPrefix(cmd, "filter "); ok {
		nt, valid := model.ParseNotificationType(strings.TrimSpace(t))
		if !valid {
			m.toaster.Error(fmt.Sprintf("Unknown type %q", t))
			return nil
		}
		m.currentView = ViewList
		return m.list.SetTypeFilter(nt)
	}

	switch cmd {
	case "refresh", "r":
		m.refresher.Refresh()
		return nil
	case "send", "new":
		return m.openSendForm()
	case "activity", "log":
		return m.openActivity()
	case "settings", "config":
		return m.openSettings()
	case "help":
		m.previousView = ViewList
		m.currentView = ViewHelp
		return nil
	case "clear", "clear filters":
		m.currentView = ViewList
		return m.list.ClearFilters()
	case "quit", "q":
		m.refresher.Stop()
		return tea.Quit
	default:
		m.toaster.Error(fmt.Sprintf("Unknown command %q", cmd))
		return nil
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Notifications Admin · "+m.apiHost(), m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.toast)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.list.View()
	case ViewDetail:
		return m.detail.View()
	case ViewSend:
		return m.sendForm.View()
	case ViewConfirm:
		return m.confirm.View()
	case ViewActivity:
		return m.activityView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

func (m Model) apiHost() string {
	u, err := url.Parse(m.client.BaseURL())
	if err != nil || u.Host == "" {
		return m.client.BaseURL()
	}
	return u.Host
}

// headerStatus describes the loading state and the token in use.
func (m Model) headerStatus() string {
	var parts []string
	switch {
	case m.manager.Loading():
		parts = append(parts, "loading...")
	case m.authError:
		parts = append(parts, "⚠ unauthorized")
	default:
		if st := m.refresher.Status(); !st.LastOK.IsZero() {
			parts = append(parts, "updated "+st.LastOK.Local().Format("15:04:05"))
		}
	}
	if m.tokenText != "" {
		parts = append(parts, m.tokenText)
	}
	return strings.Join(parts, " | ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return "esc back | d delete | j/k scroll"
	case ViewSend:
		return "enter next | shift+tab previous | esc cancel"
	case ViewConfirm:
		return "y/n answer | esc cancel"
	case ViewActivity:
		return "j/k move | r reload | esc back"
	case ViewSettings:
		return "e edit | t test | esc back"
	default:
		if f := m.list.FilterSummary(); f != "" {
			return f + " | :clear reset"
		}
		return "q quit | ? help | n send | d delete | r refresh | / search | tab type"
	}
}
