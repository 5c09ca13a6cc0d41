package tui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdRendererMu sync.Mutex
	// Renderers are cached by style and wrap width; WithAutoStyle can block
	// on terminal queries, so a fixed style is always used.
	mdRenderers = map[string]*glamour.TermRenderer{}

	configuredMarkdownStyle string
)

// renderMarkdown renders a folder description without document margins.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		cfg := markdownStyleConfig(style)
		zero := uint(0)
		cfg.Document.Margin = &zero
		rr, err := glamour.NewTermRenderer(glamour.WithStyles(cfg), glamour.WithWordWrap(width))
		if err != nil {
			mdRendererMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyleConfig(style string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if style == "light" {
		cfg = styles.LightStyleConfig
	}
	text := colorSurfaceFg.Dark
	link := colorAccent.Dark
	if style == "light" {
		text, link = colorSurfaceFg.Light, colorAccent.Light
	}
	cfg.Text.Color = &text
	cfg.Link.Color = &link
	cfg.LinkText.Color = &link
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	return cfg
}

// markdownStyle resolves FOLIO_TUI_MD_STYLE, then the configured style, then
// the detected background.
func markdownStyle() string {
	for _, v := range []string{os.Getenv("FOLIO_TUI_MD_STYLE"), configuredMarkdownStyle} {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "light":
			return "light"
		case "dark":
			return "dark"
		}
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
