package cli

import (
	"errors"
	"strings"

	"folio-cli/internal/actions"
	"folio-cli/internal/download"
	"folio-cli/internal/format"
	"folio-cli/internal/notify"

	"github.com/spf13/cobra"
)

func newBlocksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Block actions",
	}

	cmd.AddCommand(newBlocksDownloadCmd(app))
	return cmd
}

func newBlocksDownloadCmd(app *App) *cobra.Command {
	var name string
	var dir string
	var noOpen bool

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Save a block's file to the download directory",
		Long: strings.TrimSpace(`
Save a block's file to the download directory (config downloadDir, default ~/Downloads).

The file name is --name, else the last path segment of the URL without its
query string, else "download". Existing files are never overwritten. When the
fetch fails the URL is opened in the system browser instead.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if url == "" {
				return writeErr(cmd, errors.New("missing url"))
			}

			target := firstNonEmpty(dir, app.cfg.DownloadDir)
			if target == "" {
				d, err := download.DefaultDir()
				if err != nil {
					return writeErr(cmd, err)
				}
				target = d
			}
			dl := download.New(target)
			if noOpen {
				dl.Open = func(string) error { return errors.New("browser fallback disabled") }
			}

			term := notify.NewTerminal(cmd.ErrOrStderr())
			var res download.Result
			var dlErr error
			menus := &actions.BlockMenus{
				Downloader: dl,
				OnDownload: func(r download.Result, err error) {
					res, dlErr = r, err
					switch {
					case err != nil:
						term.Error("Download failed: " + err.Error())
					case r.FellBack:
						term.Success("Opened " + r.URL + " in the browser")
					default:
						term.Success("Saved " + r.Name + " (" + r.Size + ")")
					}
				},
			}
			m := menus.Menu(actions.Block{DownloadURL: url, DownloadFileName: name})
			for i, it := range m.Items {
				if it.Label == "Download" {
					m.Activate(cmdContext(cmd), i)
				}
			}
			if dlErr != nil {
				return writeErr(cmd, dlErr)
			}
			return writeOut(cmd, app, format.Envelope{Data: res})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "File name to save as")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to save into (overrides config downloadDir)")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Do not fall back to the system browser")
	return cmd
}
