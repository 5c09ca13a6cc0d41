package cli

import (
	"errors"
	"fmt"
	"time"

	"folio-cli/internal/actions"
	"folio-cli/internal/format"
	"folio-cli/internal/model"
	"folio-cli/internal/notify"

	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the workspace's folders and documents into the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			a, cf, err := app.workspace(ctx, notify.NewTerminal(cmd.ErrOrStderr()))
			if err != nil {
				return writeErr(cmd, err)
			}

			start := time.Now()
			if err := a.Sync(ctx); err != nil {
				if errors.Is(err, actions.ErrSkipped) {
					return writeOut(cmd, app, format.Envelope{
						Data:  map[string]any{"outcome": actions.OutcomeSkipped},
						Hints: app.skipHints(),
					})
				}
				return writeErr(cmd, fmt.Errorf("sync: %w", err))
			}
			if err := cf.Save(ctx, a.D.Cache.Extract(false)); err != nil {
				return writeErr(cmd, fmt.Errorf("save cache: %w", err))
			}

			return writeOut(cmd, app, format.Envelope{
				Data: map[string]any{
					"outcome":     actions.OutcomeOK,
					"workspaceId": app.WorkspaceID,
					"folders":     len(a.D.Cache.Keys(model.TypeFolders)),
					"documents":   len(a.D.Cache.Keys(model.TypeBlocks)),
					"tookMs":      time.Since(start).Milliseconds(),
				},
				Meta: map[string]any{"fingerprint": a.D.Cache.Fingerprint()},
			})
		},
	}
}
