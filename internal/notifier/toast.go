package notifier

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	toastOK  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	toastErr = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// WriterToaster prints toasts as single styled lines, for the one-shot
// commands.
type WriterToaster struct {
	W io.Writer
}

func (t WriterToaster) Success(msg string) {
	fmt.Fprintln(t.W, toastOK.Render("✓ "+msg))
}

func (t WriterToaster) Error(msg string) {
	fmt.Fprintln(t.W, toastErr.Render("✗ "+msg))
}
