package app

import (
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notifyadmin/internal/ui"
)

// toastTTL is how long a toast stays in the status bar.
const toastTTL = 4 * time.Second

// toastMsg delivers a toast raised by the manager.
type toastMsg ui.Toast

// clearToastMsg hides the toast with the given sequence number, unless a
// newer one replaced it.
type clearToastMsg struct{ seq int }

// chanToaster forwards toasts from manager goroutines to the Bubble Tea
// loop.
type chanToaster struct {
	ch chan ui.Toast
}

func newChanToaster() *chanToaster {
	return &chanToaster{ch: make(chan ui.Toast, 16)}
}

func (t *chanToaster) Success(msg string) { t.push(ui.Toast{Text: msg, OK: true}) }
func (t *chanToaster) Error(msg string)   { t.push(ui.Toast{Text: msg}) }

// push never blocks the caller.
func (t *chanToaster) push(toast ui.Toast) {
	select {
	case t.ch <- toast:
	default:
		log.Printf("Toast dropped: %s", toast.Text)
	}
}

// waitForToast returns a tea.Cmd that blocks until the next toast.
// Call it again after handling a toastMsg to keep listening.
func (t *chanToaster) waitForToast() tea.Cmd {
	return func() tea.Msg {
		return toastMsg(<-t.ch)
	}
}

func clearToastAfter(seq int) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}
