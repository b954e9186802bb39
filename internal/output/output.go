// Package output renders command results as a terminal table or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/nhle/notifyadmin/internal/model"
	"github.com/nhle/notifyadmin/internal/theme"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// DefaultFormat is "table" when w is a terminal and "json" otherwise.
func DefaultFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// Resolve normalizes a configured format, falling back to detection.
func Resolve(format string, w io.Writer) (string, error) {
	format = strings.TrimSpace(strings.ToLower(format))
	switch format {
	case "":
		return DefaultFormat(w), nil
	case FormatTable, FormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("invalid --format value %q (want table or json)", format)
	}
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// Notifications prints the list in the given format.
func Notifications(w io.Writer, format string, items []model.Notification) error {
	if format == FormatJSON {
		if items == nil {
			items = []model.Notification{}
		}
		return JSON(w, items)
	}

	rows := make([][]string, 0, len(items))
	for _, n := range items {
		rows = append(rows, []string{
			strconv.FormatInt(n.ID, 10),
			string(n.Type),
			string(n.Priority),
			n.Target.Label(),
			strconv.Itoa(n.SentCount),
			createdAt(n),
			truncate(n.Title, 40),
		})
	}
	return render(w, []string{"ID", "TYPE", "PRIORITY", "AUDIENCE", "SENT", "CREATED", "TITLE"}, rows)
}

// Activity prints activity entries in the given format.
func Activity(w io.Writer, format string, entries []model.Activity) error {
	if format == FormatJSON {
		if entries == nil {
			entries = []model.Activity{}
		}
		return JSON(w, entries)
	}

	rows := make([][]string, 0, len(entries))
	for _, a := range entries {
		ref := ""
		if a.NotificationID != 0 {
			ref = strconv.FormatInt(a.NotificationID, 10)
		}
		rows = append(rows, []string{
			a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			string(a.Action),
			ref,
			truncate(a.Detail, 60),
		})
	}
	return render(w, []string{"WHEN", "ACTION", "NOTIFICATION", "DETAIL"}, rows)
}

// Fields prints a single record as key/value pairs. keys fixes the order.
func Fields(w io.Writer, format string, keys []string, values map[string]string) error {
	if format == FormatJSON {
		return JSON(w, values)
	}
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, values[k]})
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return lipgloss.NewStyle().Foreground(theme.ColorGray).PaddingRight(2)
			}
			return lipgloss.NewStyle()
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func render(w io.Writer, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, theme.DimmedStyle.Render("(none)"))
		return err
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorSubtle)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func createdAt(n model.Notification) string {
	if n.CreatedAt.IsZero() {
		return ""
	}
	return n.CreatedAt.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
