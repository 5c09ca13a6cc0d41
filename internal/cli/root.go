package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"folio-cli/internal/actions"
	"folio-cli/internal/cache"
	"folio-cli/internal/format"
	"folio-cli/internal/gql"
	"folio-cli/internal/logging"
	"folio-cli/internal/notify"
	"folio-cli/internal/store"
	"folio-cli/internal/tui"

	"github.com/spf13/cobra"
)

const defaultEndpoint = "http://127.0.0.1:4455/graphql"

type App struct {
	Endpoint    string
	UserID      string
	WorkspaceID string
	PrettyJSON  bool
	Format      string
	LogLevel    string
	LogFile     string

	cfg *store.Config
	log *logging.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "folio",
		Short:        "Folio documents and folders (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  folio

  # Run a local backend and fill the cache
  folio serve &
  folio --user alice --workspace ws-1 sync

  # Scriptable mutations
  folio folders create --name Reading
  folio docs delete doc-3f2a9c1b

  # Direct cache lookup (shortcut for: folio cache show <id>)
  folio fld-8d1e0a42
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.resolve(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.log.Close()
	}

	cmd.PersistentFlags().StringVar(&app.Endpoint, "endpoint", envOr("FOLIO_ENDPOINT", ""), "GraphQL endpoint (default: config endpoint, then "+defaultEndpoint+")")
	cmd.PersistentFlags().StringVar(&app.UserID, "user", envOr("FOLIO_USER", ""), "Current user id (overrides userId in config.json)")
	cmd.PersistentFlags().StringVar(&app.WorkspaceID, "workspace", envOr("FOLIO_WORKSPACE", ""), "Workspace id (overrides workspaceId in config.json)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FOLIO_FORMAT", "json"), "Output format (json|edn)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("FOLIO_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("FOLIO_LOG_FILE", ""), "Append logs to this file instead of stderr")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newFoldersCmd(app))
	cmd.AddCommand(newBlocksCmd(app))
	cmd.AddCommand(newCacheCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newGuideCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// resolve fills unset settings from config.json and opens the logger.
// Flags (and their env defaults) beat config; config beats built-in defaults.
func (app *App) resolve(cmd *cobra.Command) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, fmt.Errorf("load config: %w", err))
	}
	app.cfg = cfg
	app.Endpoint = firstNonEmpty(app.Endpoint, cfg.Endpoint, defaultEndpoint)
	app.UserID = firstNonEmpty(app.UserID, cfg.UserID)
	app.WorkspaceID = firstNonEmpty(app.WorkspaceID, cfg.WorkspaceID)
	app.LogLevel = firstNonEmpty(app.LogLevel, cfg.LogLevel, "warn")

	b := logging.New().Level(app.LogLevel).FromWriter(cmd.ErrOrStderr())
	if app.LogFile != "" {
		b = b.FromPath(app.LogFile)
	}
	app.log, err = b.Make()
	if err != nil {
		return writeErr(cmd, fmt.Errorf("open log file: %w", err))
	}
	return nil
}

func (app *App) session() actions.Session {
	return actions.Session{UserID: app.UserID, WorkspaceID: app.WorkspaceID}
}

// workspace loads the persisted cache and wires the dispatcher to the
// configured endpoint. Notifications go to n.
func (app *App) workspace(ctx context.Context, n notify.Notifier) (*actions.Actions, store.CacheFile, error) {
	cf, err := store.DefaultCacheFile()
	if err != nil {
		return nil, cf, err
	}
	snap, err := cf.Load(ctx)
	if err != nil {
		return nil, cf, fmt.Errorf("load cache: %w", err)
	}
	c := cache.New()
	c.Restore(snap)

	d := actions.NewDispatcher(c, n, app.log.Logger)
	return actions.New(gql.New(app.Endpoint), d, app.session()), cf, nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	notes := &notify.Recorder{}
	a, cf, err := app.workspace(ctx, notes)
	if err != nil {
		return writeErr(cmd, err)
	}
	opts := tui.Options{Notes: notes}
	if app.cfg != nil && app.cfg.TUI != nil {
		opts.Glyphs = app.cfg.TUI.Glyphs
		opts.MarkdownStyle = app.cfg.TUI.MarkdownStyle
	}
	runErr := tui.Run(ctx, a, opts)
	if err := cf.Save(ctx, a.D.Cache.Extract(false)); err != nil && runErr == nil {
		runErr = fmt.Errorf("save cache: %w", err)
	}
	return runErr
}

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the workspace interactively (default when no command is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
