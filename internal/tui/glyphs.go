package tui

import (
	"os"
	"strings"
	"sync"
)

// Terminal apps can't change the font, so affordances come in a Unicode and
// an ASCII set.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference picks the set from FOLIO_TUI_GLYPHS, falling back to
// the configured value.
func applyGlyphPreference(configured string) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("FOLIO_TUI_GLYPHS")))
	if v == "" {
		v = strings.ToLower(strings.TrimSpace(configured))
	}
	switch v {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	defer glyphsMu.RUnlock()
	return currentGlyphs
}

func glyphTwistyCollapsed() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "▸"
}

func glyphTwistyExpanded() string {
	if glyphs() == glyphSetASCII {
		return "v"
	}
	return "▾"
}

func glyphDocument() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "•"
}

func glyphSeparator() string {
	if glyphs() == glyphSetASCII {
		return "|"
	}
	return "│"
}
