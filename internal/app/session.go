package app

import (
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notifyadmin/internal/admin"
	"github.com/nhle/notifyadmin/internal/credential"
	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/notifier"
	appsync "github.com/nhle/notifyadmin/internal/sync"
	"github.com/nhle/notifyadmin/internal/ui/settings"
)

// connect builds the client, manager and refresher from the current
// configuration. Any previous refresher must be stopped first.
func (m *Model) connect() {
	cfg := m.cfg

	m.client = admin.NewClient(
		cfg.API.BaseURL,
		m.tokens,
		admin.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second),
	)

	var opts []notifier.Option
	if m.store != nil {
		opts = append(opts, notifier.WithSnapshot(m.store))
	}
	m.manager = notifier.NewManager(m.client, m.toaster, opts...)

	interval := time.Duration(cfg.Display.RefreshIntervalSec) * time.Second
	m.refresher = appsync.New(m.manager, interval)
}

// currentSettings returns the values the settings view edits.
func (m *Model) currentSettings() settings.Values {
	return settings.Values{
		BaseURL:            m.cfg.API.BaseURL,
		RefreshIntervalSec: m.cfg.Display.RefreshIntervalSec,
	}
}

// applySettings persists settings that passed the connection test and
// reconnects with them.
func (m *Model) applySettings(v settings.Values) tea.Cmd {
	m.cfg.API.BaseURL = v.BaseURL
	m.cfg.Display.RefreshIntervalSec = v.RefreshIntervalSec

	if m.configPath != "" {
		if err := model.SaveConfig(m.configPath, m.cfg); err != nil {
			log.Printf("Error saving config: %v", err)
			m.toaster.Error("Failed to save settings")
		}
	}

	if v.Token != "" {
		if err := m.saveToken(v.Token); err != nil {
			log.Printf("Error saving token: %v", err)
			m.toaster.Error("Failed to save token")
			// Keep using it for this session.
			m.tokens = credential.StaticToken(v.Token)
		}
	}

	m.refresher.Stop()
	m.connect()
	m.settingsView.SetCurrent(m.currentSettings())

	return tea.Batch(m.restoreSnapshot(), m.inspectToken())
}

func saveAdminToken(token string) error {
	return credential.Set(credential.AdminTokenKey, token)
}

func inspectText(token string) string {
	info := credential.Inspect(token)
	if info.Expired(time.Now()) {
		return info.String() + " (expired)"
	}
	return info.String()
}
