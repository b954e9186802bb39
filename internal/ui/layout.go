package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notifyadmin/internal/theme"
)

// Toast is a transient message shown at the right of the status bar.
type Toast struct {
	Text string
	OK   bool
}

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar: title on the left, connection and
// loading state on the right.
func (l Layout) RenderHeader(title string, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Align(lipgloss.Right).Render(status)
	return l.spread(theme.HeaderStyle, left, right)
}

// RenderStatusBar renders key hints on the left and the current toast, if
// any, on the right.
func (l Layout) RenderStatusBar(hints string, toast *Toast) string {
	left := theme.StatusBarStyle.Render(hints)
	right := ""
	if toast != nil && toast.Text != "" {
		right = theme.ToastStyle(toast.OK).Render(toast.Text)
	}
	return l.spread(theme.StatusBarStyle, left, right)
}

// spread fills the gap between left and right with the bar background.
func (l Layout) spread(bar lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(bar.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
