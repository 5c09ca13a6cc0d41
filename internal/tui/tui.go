package tui

import (
	"context"

	"folio-cli/internal/actions"
	"folio-cli/internal/notify"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Glyphs        string
	MarkdownStyle string
	// Notes receives mutation notifications; the app drains it into its flash line.
	Notes *notify.Recorder
}

func Run(ctx context.Context, a *actions.Actions, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference(opts.Glyphs)
	if opts.MarkdownStyle != "" {
		configuredMarkdownStyle = opts.MarkdownStyle
	}
	if opts.Notes == nil {
		opts.Notes = &notify.Recorder{}
	}
	if a.D.Notify == nil {
		a.D.Notify = opts.Notes
	}

	m := newAppModel(ctx, a, opts.Notes)
	if a.Session.WorkspaceID != "" && len(m.rows) == 0 {
		if err := a.Sync(ctx); err == nil {
			m.refresh()
		}
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	a.D.Wait()
	return err
}
