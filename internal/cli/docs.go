package cli

import (
	"strings"

	"folio-cli/internal/actions"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents"},
		Short:   "Document actions (delete, remove shared access, create)",
	}

	cmd.AddCommand(newDocsDeleteCmd(app))
	cmd.AddCommand(newDocsRemoveAccessCmd(app))
	cmd.AddCommand(newDocsCreateCmd(app))
	return cmd
}

func newDocsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <doc-id>",
		Short: "Soft-delete a document you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return runMutation(cmd, app, "", func(a *actions.Actions) actions.Mutation {
				return a.DeleteDocument(id)
			})
		},
	}
}

func newDocsRemoveAccessCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-access <doc-id>",
		Short: "Remove a shared document from your list (requires --user)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return runMutation(cmd, app, "", func(a *actions.Actions) actions.Mutation {
				return a.RemoveDocumentAccess(id)
			})
		},
	}
}

func newDocsCreateCmd(app *App) *cobra.Command {
	var title string
	var folder string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a document (requires --workspace)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var folderID *string
			if f := strings.TrimSpace(folder); f != "" {
				folderID = &f
			}
			return runMutation(cmd, app, "blocks", func(a *actions.Actions) actions.Mutation {
				return a.CreateDocument(title, folderID)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Document title (default: untitled)")
	cmd.Flags().StringVar(&folder, "folder", "", "Folder id to create the document in")
	return cmd
}
