package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ganot/livetodo/internal/domain/todo"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	presenceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Italic(true)

	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

var priorityStyles = map[todo.Priority]lipgloss.Style{
	todo.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	todo.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	todo.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
}

// FormatItem renders one item as a single line.
func FormatItem(it todo.Item) string {
	box := mutedStyle.Render(boxUnchecked)
	text := it.Text
	if it.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}
	return fmt.Sprintf("%s %s %s", box, priorityMark(it.Priority), text)
}

func priorityMark(p todo.Priority) string {
	label := "?"
	switch p {
	case todo.PriorityHigh:
		label = "!"
	case todo.PriorityMedium:
		label = "-"
	case todo.PriorityLow:
		label = "."
	}
	if style, ok := priorityStyles[p]; ok {
		return style.Render(label)
	}
	return label
}

// FormatStats renders the stats summary line.
func FormatStats(s todo.Stats) string {
	return fmt.Sprintf("%s %d  %s %d  %s %d",
		successStyle.Render("✔"), s.Completed,
		pendingStyle.Render("•"), s.Active,
		accentStyle.Render("Total"), s.Total,
	)
}

// PrintList writes items, one per line, followed by an id column.
func PrintList(w io.Writer, items []todo.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("nothing to do"))
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "%s  %s\n", FormatItem(it), mutedStyle.Render(it.ID))
	}
}

// PrintPanel writes lines inside a bordered panel.
func PrintPanel(w io.Writer, lines []string) {
	fmt.Fprintln(w, panelStyle.Render(strings.Join(lines, "\n")))
}

func OK(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

func Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("✖ "+msg))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
