package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ganot/livetodo/internal/client"
	"github.com/ganot/livetodo/internal/domain/todo"
)

// Engine is the sync engine surface the view drives.
type Engine interface {
	View() []todo.Item
	Stats() todo.Stats
	Filter() todo.Filter
	Loading() bool
	Err() error
	Connected() bool
	Load(ctx context.Context) error
	SetFilter(ctx context.Context, filter todo.Filter) error
	Add(ctx context.Context, text string, priority todo.Priority) error
	Toggle(ctx context.Context, id string) error
	Edit(ctx context.Context, id string, text *string, priority *todo.Priority) error
	Remove(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) error
	ToggleAll(ctx context.Context) error
}

// Presence is the presence surface the view reads and reports to.
type Presence interface {
	Entry(todoID string) (client.PresenceEntry, bool)
	StartEdit(todoID string) error
	EndEdit(todoID string) error
	EditChange(todoID, text string) error
}

// refreshMsg asks the model to redraw from the engine's current state.
type refreshMsg struct{}

// actionDoneMsg reports the result of a background engine call.
type actionDoneMsg struct{ err error }

type mode int

const (
	modeBrowse mode = iota
	modeAdding
	modeEditing
)

var (
	filterCycle   = []todo.Filter{todo.FilterAll, todo.FilterActive, todo.FilterCompleted}
	priorityCycle = []todo.Priority{todo.PriorityHigh, todo.PriorityMedium, todo.PriorityLow}
)

// Model renders the engine's filtered view with stats and peers' edits.
type Model struct {
	ctx      context.Context
	engine   Engine
	presence Presence

	keys   keyMap
	help   help.Model
	input  textinput.Model
	mode   mode
	editID string
	cursor int
	width  int
	status string

	// priority applies to the item being added.
	priority todo.Priority
}

// NewModel creates the view. presence may be nil.
func NewModel(ctx context.Context, engine Engine, presence Presence) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = todo.MaxTextLength

	return Model{
		ctx:      ctx,
		engine:   engine,
		presence: presence,
		keys:     defaultKeys(),
		help:     help.New(),
		input:    ti,
	}
}

func (m Model) Init() tea.Cmd {
	return m.run(func(ctx context.Context) error { return m.engine.Load(ctx) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case refreshMsg:
		m.clampCursor()
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeAdding:
			return m.updateAdding(msg)
		case modeEditing:
			return m.updateEditing(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	items := m.engine.View()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.selected(items); ok {
			return m, m.run(func(ctx context.Context) error { return m.engine.Toggle(ctx, it.ID) })
		}
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(items); ok {
			return m, m.run(func(ctx context.Context) error { return m.engine.Remove(ctx, it.ID) })
		}
	case key.Matches(msg, m.keys.ClearCompleted):
		return m, m.run(m.engine.ClearCompleted)
	case key.Matches(msg, m.keys.ToggleAll):
		return m, m.run(m.engine.ToggleAll)
	case key.Matches(msg, m.keys.Priority):
		if it, ok := m.selected(items); ok {
			next := nextPriority(it.Priority)
			return m, m.run(func(ctx context.Context) error { return m.engine.Edit(ctx, it.ID, nil, &next) })
		}
	case key.Matches(msg, m.keys.Filter):
		next := nextFilter(m.engine.Filter())
		m.cursor = 0
		return m, m.run(func(ctx context.Context) error { return m.engine.SetFilter(ctx, next) })
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdding
		m.priority = todo.PriorityMedium
		m.input.SetValue("")
		m.input.Placeholder = "New todo..."
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Edit):
		it, ok := m.selected(items)
		if !ok {
			return m, nil
		}
		m.mode = modeEditing
		m.editID = it.ID
		m.input.SetValue(it.Text)
		m.input.CursorEnd()
		m.input.Placeholder = "Edit todo..."
		m.sendPresence(func(p Presence) error { return p.StartEdit(it.ID) })
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.status = "text cannot be empty"
			return m, nil
		}
		priority := m.priority
		m.closeInput()
		return m, m.run(func(ctx context.Context) error { return m.engine.Add(ctx, text, priority) })
	case "tab":
		m.priority = nextPriority(m.priority)
		return m, nil
	case "esc":
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.editID
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.status = "text cannot be empty"
			return m, nil
		}
		m.sendPresence(func(p Presence) error { return p.EndEdit(id) })
		m.closeInput()
		return m, m.run(func(ctx context.Context) error { return m.engine.Edit(ctx, id, &text, nil) })
	case "esc":
		m.sendPresence(func(p Presence) error { return p.EndEdit(id) })
		m.closeInput()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.sendPresence(func(p Presence) error { return p.EditChange(id, after) })
	}
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.editID = ""
	m.input.SetValue("")
	m.input.Blur()
}

// sendPresence is best-effort; a failure only shows in the status line.
func (m *Model) sendPresence(send func(Presence) error) {
	if m.presence == nil {
		return
	}
	if err := send(m.presence); err != nil {
		m.status = "presence: " + err.Error()
	}
}

func (m Model) run(call func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: call(ctx)}
	}
}

func (m Model) selected(items []todo.Item) (todo.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(items) {
		return todo.Item{}, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.engine.View())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func nextPriority(p todo.Priority) todo.Priority {
	for i, candidate := range priorityCycle {
		if candidate == p {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return todo.PriorityMedium
}

func nextFilter(f todo.Filter) todo.Filter {
	for i, candidate := range filterCycle {
		if candidate == f {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return todo.FilterAll
}

func (m Model) View() string {
	var b strings.Builder

	conn := successStyle.Render("● live")
	if !m.engine.Connected() {
		conn = errorStyle.Render("○ offline")
	}
	header := fmt.Sprintf("%s   %s   %s %s   %s",
		titleStyle.Render("Todos"),
		FormatStats(m.engine.Stats()),
		mutedStyle.Render("filter:"), accentStyle.Render(string(m.engine.Filter())),
		conn,
	)
	if m.engine.Loading() {
		header += "  " + mutedStyle.Render("…")
	}
	b.WriteString(header + "\n\n")

	items := m.engine.View()
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("  nothing to do") + "\n")
	}
	for i, it := range items {
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}
		line := prefix + FormatItem(it)
		if marker := m.presenceMarker(it.ID); marker != "" {
			line += "  " + marker
		}
		b.WriteString(line + "\n")
	}

	if m.mode != modeBrowse {
		title := fmt.Sprintf("Add todo  %s %s  %s", priorityMark(m.priority), m.priority, mutedStyle.Render("(tab: priority)"))
		if m.mode == modeEditing {
			title = "Edit todo"
		}
		b.WriteString("\n" + panelStyle.Render(title+"\n"+m.input.View()) + "\n")
	}

	if err := m.engine.Err(); err != nil {
		b.WriteString("\n" + errorStyle.Render("✖ "+err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + errorStyle.Render("✖ "+m.status) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(m.help.View(m.keys)))

	out := b.String()
	if m.width > 0 {
		out = lipgloss.NewStyle().MaxWidth(m.width).Render(out)
	}
	return out
}

func (m Model) presenceMarker(id string) string {
	if m.presence == nil {
		return ""
	}
	entry, ok := m.presence.Entry(id)
	if !ok {
		return ""
	}
	marker := "✎ being edited by " + shortID(entry.EditorID)
	if entry.HasText {
		marker += ": " + entry.Text
	}
	return presenceStyle.Render(marker)
}

// Run shows the live view until the user quits. Engine and presence changes
// made on other goroutines trigger a redraw.
func Run(ctx context.Context, engine *client.Engine, presence *client.Presence) error {
	p := tea.NewProgram(NewModel(ctx, engine, presence), tea.WithAltScreen(), tea.WithContext(ctx))

	subs := client.SubscriptionGroup{
		engine.OnChange(func() { p.Send(refreshMsg{}) }),
		presence.OnChange(func() { p.Send(refreshMsg{}) }),
	}
	defer subs.Unsubscribe()

	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("run terminal view: %w", err)
	}
	return nil
}
