package cli

import (
	"strings"

	"folio-cli/internal/format"
	"folio-cli/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit ~/.folio/config.json",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored config and the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{
				Data: app.cfg,
				Meta: map[string]any{
					"path": path,
					"effective": map[string]any{
						"endpoint":    app.Endpoint,
						"userId":      app.UserID,
						"workspaceId": app.WorkspaceID,
						"logLevel":    app.LogLevel,
					},
					"keys": store.ConfigKeys(),
				},
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value (empty value clears it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			key := strings.TrimSpace(args[0])
			if err := cfg.Set(key, args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: cfg})
		},
	})

	return cmd
}
