package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/notifier"
	appsync "github.com/nhle/notifyadmin/internal/sync"
)

// restoredMsg is sent once the persisted snapshot has been loaded.
type restoredMsg struct{ err error }

// createdMsg is sent after a send completes.
type createdMsg struct {
	draft model.Draft
	n     *model.Notification
	err   error
}

// deletedMsg is sent after a delete completes or is declined.
type deletedMsg struct {
	id  int64
	err error
}

// tokenInfoMsg carries the header description of the current token.
type tokenInfoMsg struct{ text string }

// restoreSnapshot fills the manager from the local store so the list can
// render before the first fetch returns.
func (m *Model) restoreSnapshot() tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		return restoredMsg{err: mgr.Restore(context.Background())}
	}
}

// createNotification validates and sends d. Toasts are raised by the
// manager.
func (m *Model) createNotification(d model.Draft) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), appsync.DefaultTimeout)
		defer cancel()

		n, err := mgr.Create(ctx, d)
		return createdMsg{draft: d, n: n, err: err}
	}
}

// deleteNotification hands the operator's dialog answer to the manager, so
// a declined dialog goes through the same no-request path as any other
// refusal.
func (m *Model) deleteNotification(id int64, yes bool) tea.Cmd {
	mgr := m.manager
	answer := notifier.ConfirmFunc(func(string) (bool, error) { return yes, nil })
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), appsync.DefaultTimeout)
		defer cancel()

		return deletedMsg{id: id, err: mgr.Delete(ctx, id, answer)}
	}
}

// inspectToken reads the token once for the header.
func (m *Model) inspectToken() tea.Cmd {
	tokens := m.tokens
	return func() tea.Msg {
		if tokens == nil {
			return tokenInfoMsg{text: "no token"}
		}
		tok, err := tokens.Token()
		if err != nil || tok == "" {
			return tokenInfoMsg{text: "no token"}
		}
		return tokenInfoMsg{text: inspectText(tok)}
	}
}

// declined reports whether err is the operator saying no.
func declined(err error) bool {
	return errors.Is(err, notifier.ErrDeleteDeclined)
}
