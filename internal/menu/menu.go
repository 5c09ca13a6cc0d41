// Package menu is the shell shared by every action menu: a fixed variant, an
// ordered item list and event dispatch through nested surfaces.
package menu

import (
	"context"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Variant int

const (
	// Inline menus own their trigger button.
	Inline Variant = iota
	// ContextInvoked menus open on a right click of a wrapped surface.
	ContextInvoked
)

func (v Variant) String() string {
	if v == ContextInvoked {
		return "context"
	}
	return "inline"
}

type Tone int

const (
	ToneNormal Tone = iota
	ToneWarning
	ToneDanger
)

type Item struct {
	Label     string
	Hint      string
	Tone      Tone
	Disabled  bool
	Separator bool
	Run       Handler
}

func Separator() Item { return Item{Separator: true} }

func (it Item) selectable() bool {
	return !it.Separator && !it.Disabled && it.Run != nil
}

type Menu struct {
	Title   string
	Variant Variant
	Items   []Item

	// Trigger is the wrapped surface of a ContextInvoked menu.
	Trigger *Surface
	// Anchor is where item events start bubbling from. It defaults to Trigger.
	Anchor *Surface

	open bool
}

// New fixes the variant from whether a trigger surface is supplied. A
// ContextInvoked menu installs a context-menu handler on the trigger that
// opens it and stops the event.
func New(title string, items []Item, trigger *Surface) *Menu {
	m := &Menu{Title: title, Items: items}
	if trigger == nil {
		m.Variant = Inline
		return m
	}
	m.Variant = ContextInvoked
	m.Trigger = trigger
	m.Anchor = trigger
	prev := trigger.OnContextMenu
	trigger.OnContextMenu = func(ev *Event) {
		if !m.HasEnabled() {
			if prev != nil {
				prev(ev)
			}
			return
		}
		ev.StopPropagation()
		m.open = true
	}
	return m
}

func (m *Menu) IsOpen() bool { return m != nil && m.open }
func (m *Menu) Open()        { m.open = m.HasEnabled() }
func (m *Menu) Close()       { m.open = false }

// HasEnabled reports whether at least one item can run.
func (m *Menu) HasEnabled() bool {
	if m == nil {
		return false
	}
	for _, it := range m.Items {
		if it.selectable() {
			return true
		}
	}
	return false
}

// Activate runs item i as a click that starts at the item and bubbles
// through Anchor and its ancestors. Disabled items and separators do nothing.
func (m *Menu) Activate(ctx context.Context, i int) *Event {
	if m == nil || i < 0 || i >= len(m.Items) || !m.Items[i].selectable() {
		return nil
	}
	it := m.Items[i]
	s := &Surface{Name: it.Label, Parent: m.Anchor, OnClick: it.Run}
	m.open = false
	return s.Dispatch(ctx, Click)
}

var (
	menuBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	menuTitleStyle = lipgloss.NewStyle().Bold(true)
	itemStyle      = lipgloss.NewStyle()
	selectedStyle  = lipgloss.NewStyle().Reverse(true)
	disabledStyle  = lipgloss.NewStyle().Faint(true)
	dangerStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"})
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "166", Dark: "214"})
	hintStyle      = lipgloss.NewStyle().Faint(true)
)

// Render draws the menu with cursor on the selected item. It returns "" when
// no item is enabled.
func (m *Menu) Render(cursor int, width int) string {
	if !m.HasEnabled() {
		return ""
	}
	if width < 12 {
		width = 12
	}
	inner := width - 4
	lines := make([]string, 0, len(m.Items)+1)
	if strings.TrimSpace(m.Title) != "" {
		lines = append(lines, menuTitleStyle.Render(m.Title))
	}
	for i, it := range m.Items {
		if it.Separator {
			lines = append(lines, hintStyle.Render(strings.Repeat("─", inner)))
			continue
		}
		st := itemStyle
		switch it.Tone {
		case ToneDanger:
			st = dangerStyle
		case ToneWarning:
			st = warningStyle
		}
		if it.Disabled {
			st = disabledStyle
		}
		label := it.Label
		if it.Hint != "" {
			label += "  " + hintStyle.Render(it.Hint)
		}
		if i == cursor && it.selectable() {
			st = st.Inherit(selectedStyle)
		}
		lines = append(lines, st.Width(inner).Render(label))
	}
	return menuBoxStyle.Width(width - 2).Render(strings.Join(lines, "\n"))
}
