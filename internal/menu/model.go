package menu

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ClosedMsg is emitted when the menu is dismissed without running an item.
type ClosedMsg struct{}

// ActivatedMsg reports the event of the item that ran.
type ActivatedMsg struct {
	Label string
	Event *Event
}

// Model drives keyboard navigation of an open menu.
type Model struct {
	Menu   *Menu
	Cursor int
	Width  int
	Ctx    context.Context
}

func NewModel(ctx context.Context, m *Menu) Model {
	mm := Model{Menu: m, Width: 32, Ctx: ctx, Cursor: -1}
	mm.move(1)
	return mm
}

func (m Model) Init() tea.Cmd { return nil }

func (m *Model) move(delta int) {
	n := len(m.Menu.Items)
	if n == 0 {
		return
	}
	i := m.Cursor
	for step := 0; step < n; step++ {
		i = (i + delta + n) % n
		if m.Menu.Items[i].selectable() {
			m.Cursor = i
			return
		}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || m.Menu == nil {
		return m, nil
	}
	switch km.String() {
	case "down", "j", "ctrl+n", "tab":
		m.move(1)
	case "up", "k", "ctrl+p", "shift+tab":
		m.move(-1)
	case "esc", "q", "ctrl+g":
		m.Menu.Close()
		return m, func() tea.Msg { return ClosedMsg{} }
	case "enter", " ":
		label := ""
		if m.Cursor >= 0 && m.Cursor < len(m.Menu.Items) {
			label = m.Menu.Items[m.Cursor].Label
		}
		ev := m.Menu.Activate(m.Ctx, m.Cursor)
		if ev == nil {
			return m, nil
		}
		return m, func() tea.Msg { return ActivatedMsg{Label: label, Event: ev} }
	}
	return m, nil
}

func (m Model) View() string {
	if m.Menu == nil {
		return ""
	}
	return m.Menu.Render(m.Cursor, m.Width)
}
