package tui

import "testing"

func TestGlyphs_FromEnv(t *testing.T) {
	t.Setenv("FOLIO_TUI_GLYPHS", "")
	setGlyphs(glyphSetUnicode)
	applyGlyphPreference("")
	if got := glyphs(); got != glyphSetUnicode {
		t.Fatalf("expected unicode glyphs by default; got %v", got)
	}

	t.Setenv("FOLIO_TUI_GLYPHS", "ascii")
	applyGlyphPreference("")
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected ascii glyphs; got %v", got)
	}

	t.Setenv("FOLIO_TUI_GLYPHS", "unicode")
	applyGlyphPreference("ascii")
	if got := glyphs(); got != glyphSetUnicode {
		t.Fatalf("env should win over config; got %v", got)
	}

	// Unknown values should be ignored (keep current).
	setGlyphs(glyphSetASCII)
	t.Setenv("FOLIO_TUI_GLYPHS", "bogus")
	applyGlyphPreference("")
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected unknown to be ignored; got %v", got)
	}
}

func TestGlyphs_FromConfig(t *testing.T) {
	t.Setenv("FOLIO_TUI_GLYPHS", "")
	setGlyphs(glyphSetUnicode)
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	applyGlyphPreference("ascii")
	if got := glyphDocument(); got != "-" {
		t.Fatalf("expected ascii document glyph; got %q", got)
	}
}
