package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"folio-cli/internal/format"
	"folio-cli/internal/gqlserver"
	"folio-cli/internal/store"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local GraphQL backend (sqlite)",
		Long: strings.TrimSpace(`
Run a GraphQL backend on a local sqlite database so the CLI and TUI have
something to talk to. The endpoint is served at /graphql.
`),
		Example: strings.TrimSpace(`
# Serve on the default endpoint
folio serve

# Use another port and database
folio serve --addr 127.0.0.1:5000 --db ./folio.sqlite
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			path := strings.TrimSpace(dbPath)
			if path == "" {
				p, err := store.DefaultBackendPath()
				if err != nil {
					return writeErr(cmd, err)
				}
				path = p
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend, err := store.OpenBackend(ctx, path)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer backend.Close()

			h, err := gqlserver.NewHandler(backend, app.log.Logger)
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			endpoint := "http://" + actualAddr + "/graphql"

			_ = writeOut(cmd, app, format.Envelope{
				Data: map[string]any{
					"addr":      actualAddr,
					"endpoint":  endpoint,
					"db":        path,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				Hints: []string{"folio config set endpoint " + endpoint},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "Folio backend running at %s\n", endpoint)

			srv := &http.Server{Handler: gqlserver.Mux(h), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:4455", "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Backend sqlite path (default: <config dir>/backend.sqlite)")
	return cmd
}
