package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
)

var (
	primaryColor = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7C3AED"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#94A3B8"}

	headingStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

func heading(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf(format, args...)))
}

func note(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, noteStyle.Render(fmt.Sprintf(format, args...)))
}

// newTable returns a table writer that renders to w with headers as given.
func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.Style().Format.Header = text.FormatDefault
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}
