package cli

import (
	"context"
	"fmt"

	"folio-cli/internal/actions"
	"folio-cli/internal/cache"
	"folio-cli/internal/format"
	"folio-cli/internal/notify"

	"github.com/spf13/cobra"
)

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// runMutation loads the cache, runs the mutation build returns, saves the
// committed cache and prints the outcome. When created is set, ids of records
// of that typename that appeared during the run are reported.
func runMutation(cmd *cobra.Command, app *App, created string, build func(a *actions.Actions) actions.Mutation) error {
	ctx := cmdContext(cmd)
	a, cf, err := app.workspace(ctx, notify.NewTerminal(cmd.ErrOrStderr()))
	if err != nil {
		return writeErr(cmd, err)
	}

	before := map[cache.Key]bool{}
	if created != "" {
		for _, k := range a.D.Cache.Keys(created) {
			before[k] = true
		}
	}

	res := a.D.Run(ctx, build(a))

	if res.Outcome == actions.OutcomeOK {
		if err := cf.Save(ctx, a.D.Cache.Extract(false)); err != nil {
			return writeErr(cmd, fmt.Errorf("save cache: %w", err))
		}
	}

	data := map[string]any{
		"action":  res.Action,
		"outcome": res.Outcome,
		"tookMs":  res.Took.Milliseconds(),
	}
	if res.Error != "" {
		data["error"] = res.Error
	}
	if created != "" {
		ids := []string{}
		for _, k := range a.D.Cache.Keys(created) {
			if !before[k] {
				ids = append(ids, k.ID())
			}
		}
		data["created"] = ids
	}

	env := format.Envelope{
		Data: data,
		Meta: map[string]any{"fingerprint": a.D.Cache.Fingerprint()},
	}
	if res.Outcome == actions.OutcomeSkipped {
		env.Hints = app.skipHints()
	}
	if err := writeOut(cmd, app, env); err != nil {
		return err
	}
	if res.Outcome == actions.OutcomeFailed {
		return res.Err
	}
	return nil
}

func (app *App) skipHints() []string {
	hints := []string{}
	if app.UserID == "" {
		hints = append(hints, "folio config set userId <user-id>  (or pass --user)")
	}
	if app.WorkspaceID == "" {
		hints = append(hints, "folio config set workspaceId <workspace-id>  (or pass --workspace)")
	}
	return hints
}
