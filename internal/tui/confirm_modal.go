package tui

import (
	"strings"

	"folio-cli/internal/actions"

	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

func modalBodyWidth(width int) int {
	w := width - 10
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderModalBox(width int, title, content string) string {
	bodyW := modalBodyWidth(width)
	head := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Width(bodyW + 4).
		Render(head + "\n\n" + content)
}

func renderConfirmModal(width int, p actions.Prompt, focus confirmModalFocus, busy bool) string {
	// No nested borders: some terminals leave background artifacts.
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirmLabel := p.Confirm
	if busy {
		confirmLabel += "…"
	}
	confirm := btnBase.Render(confirmLabel)
	cancel := btnBase.Render(p.Cancel)
	if focus == confirmFocusConfirm {
		confirm = btnActive.Foreground(colorError).Render(confirmLabel)
	} else {
		cancel = btnActive.Render(p.Cancel)
	}
	sep := lipgloss.NewStyle().Background(colorControlBg).Render(" ")
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, sep, cancel)

	bodyW := modalBodyWidth(width)
	body := lipgloss.NewStyle().Width(bodyW).Render(p.Body)
	help := styleMuted().Width(bodyW).Render("tab: focus   enter: select   esc: cancel")
	return renderModalBox(width, p.Title, strings.Join([]string{body, "", controls, "", help}, "\n"))
}
