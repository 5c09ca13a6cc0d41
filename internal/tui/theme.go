package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The TUI must stay readable on light and dark terminals, so colors are
// adaptive and faint styling is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted         = ac("240", "243")
	colorChromeMutedFg = ac("240", "245")
	colorSelectedBg    = ac("#e9e9e9", "#262626")
	colorSelectedFg    = ac("235", "255")
	colorSurfaceFg     = ac("235", "252")
	colorControlBg     = ac("252", "235")
	colorAccent        = ac("27", "62")
	colorSuccess       = ac("#15803d", "#50fa7b")
	colorError         = ac("196", "160")
	colorHighlightBg   = ac("#fff3bf", "#3b3000")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleHeader() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorChromeMutedFg).Bold(true)
}

func styleSelected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
}

// applyColorProfilePreference honors NO_COLOR and otherwise trusts TERM and
// COLORTERM over termenv's detection when they claim more colors.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") && (profile == termenv.Ascii || profile == termenv.ANSI) {
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference fixes background detection from FOLIO_TUI_THEME
// (light|dark|auto), then the COLORFGBG heuristic.
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("FOLIO_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorError).Bold(true)
}

func styleSuccess() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
}
