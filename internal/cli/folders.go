package cli

import (
	"errors"
	"fmt"
	"strings"

	"folio-cli/internal/actions"
	"folio-cli/internal/model"

	"github.com/spf13/cobra"
)

func newFoldersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "Folder actions (create, update, delete)",
	}

	cmd.AddCommand(newFoldersCreateCmd(app))
	cmd.AddCommand(newFoldersUpdateCmd(app))
	cmd.AddCommand(newFoldersDeleteCmd(app))
	return cmd
}

type folderFlags struct {
	name        string
	description string
	icon        string
}

func (f *folderFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Folder name")
	cmd.Flags().StringVar(&f.description, "description", "", "Folder description (markdown)")
	cmd.Flags().StringVar(&f.icon, "icon", "", "Folder icon (usually an emoji)")
}

func (f *folderFlags) input(cmd *cobra.Command) model.FolderInput {
	in := model.FolderInput{Name: strings.TrimSpace(f.name), Icon: strings.TrimSpace(f.icon)}
	if cmd.Flags().Changed("description") {
		d := f.description
		in.Description = &d
	}
	return in
}

func newFoldersCreateCmd(app *App) *cobra.Command {
	var flags folderFlags
	var parent string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a folder (requires --workspace)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := flags.input(cmd)
			if in.Name == "" {
				return writeErr(cmd, errors.New("missing --name"))
			}
			var parentID *string
			if p := strings.TrimSpace(parent); p != "" {
				parentID = &p
				in.UserID = app.UserID
			}
			return runMutation(cmd, app, model.TypeFolders, func(a *actions.Actions) actions.Mutation {
				return a.CreateFolder(in, parentID)
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&parent, "parent", "", "Parent folder id (default: top level)")
	return cmd
}

func newFoldersUpdateCmd(app *App) *cobra.Command {
	var flags folderFlags

	cmd := &cobra.Command{
		Use:   "update <fld-id>",
		Short: "Edit a folder's name, description or icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			in := flags.input(cmd)
			// Unchanged flags keep the cached values, like the edit dialog.
			if rec, err := lookupFolder(cmd, id); err == nil {
				if !cmd.Flags().Changed("name") {
					in.Name = rec.Name
				}
				if !cmd.Flags().Changed("description") {
					in.Description = rec.Description
				}
				if !cmd.Flags().Changed("icon") {
					in.Icon = rec.Icon
				}
			}
			if in.Name == "" {
				return writeErr(cmd, errors.New("missing --name"))
			}
			return runMutation(cmd, app, "", func(a *actions.Actions) actions.Mutation {
				return a.UpdateFolder(id, in)
			})
		},
	}

	flags.bind(cmd)
	return cmd
}

func newFoldersDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <fld-id>",
		Short: "Delete a folder (asks for --yes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			name := id
			if rec, err := lookupFolder(cmd, id); err == nil && rec.Name != "" {
				name = rec.Name
			}
			if !yes {
				p := actions.DeleteFolderPrompt(name)
				return writeErr(cmd, fmt.Errorf("%s: %s (pass --yes to confirm)", p.Title, p.Body))
			}
			return runMutation(cmd, app, "", func(a *actions.Actions) actions.Mutation {
				return a.DeleteFolder(id)
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}
