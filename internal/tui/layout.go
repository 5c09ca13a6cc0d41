package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to exactly width columns (ANSI-aware) and height
// lines so lipgloss.JoinHorizontal stays stable.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		ln = truncate(ln, width)
		if w := xansi.StringWidth(ln); w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// truncate cuts s to width columns, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if xansi.StringWidth(s) <= width {
		return s
	}
	switch {
	case width <= 0:
		return ""
	case width == 1:
		return xansi.Cut(s, 0, 1)
	default:
		return xansi.Cut(s, 0, width-1) + "…"
	}
}
