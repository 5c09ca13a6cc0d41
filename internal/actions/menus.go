package actions

import (
	"context"

	"folio-cli/internal/menu"
	"folio-cli/internal/model"
	"folio-cli/internal/perm"
)

type FolderMode int

const (
	FolderCreate FolderMode = iota
	FolderUpdate
)

// Prompter opens the dialogs some menu items need before they can dispatch.
type Prompter interface {
	FolderDialog(mode FolderMode, initial model.FolderInput, submit func(ctx context.Context, in model.FolderInput))
	Confirm(g *Gate)
}

// DocumentMenu offers Delete to the owner and Remove to everyone else.
func (a *Actions) DocumentMenu(doc model.Document, trigger *menu.Surface) *menu.Menu {
	var item menu.Item
	if perm.IsDocumentOwner(doc, a.Session.UserID) {
		item = menu.Item{
			Label: "Delete",
			Tone:  menu.ToneDanger,
			Run:   func(ev *menu.Event) { _ = a.D.Dispatch(ev, a.DeleteDocument(doc.ID)) },
		}
	} else {
		item = menu.Item{
			Label: "Remove",
			Tone:  menu.ToneWarning,
			Run:   func(ev *menu.Event) { _ = a.D.Dispatch(ev, a.RemoveDocumentAccess(doc.ID)) },
		}
	}
	return menu.New(doc.Title, []menu.Item{item}, trigger)
}

func (a *Actions) FolderMenu(f model.Folder, trigger *menu.Surface, p Prompter) *menu.Menu {
	id := f.ID
	items := []menu.Item{
		{
			Label: "Edit...",
			Run: func(ev *menu.Event) {
				ev.StopPropagation()
				initial := model.FolderInput{Name: f.Name, Description: f.Description, Icon: f.Icon}
				p.FolderDialog(FolderUpdate, initial, func(ctx context.Context, in model.FolderInput) {
					_ = a.D.Dispatch(menu.NewEvent(ctx, menu.Click), a.UpdateFolder(id, in))
				})
			},
		},
		menu.Separator(),
		{
			Label:    "New Doc",
			Disabled: !a.CanCreateDocument(),
			Run:      func(ev *menu.Event) { _ = a.D.Dispatch(ev, a.CreateDocument("", &id)) },
		},
		{
			Label: "New Folder",
			Run: func(ev *menu.Event) {
				ev.StopPropagation()
				p.FolderDialog(FolderCreate, model.FolderInput{}, func(ctx context.Context, in model.FolderInput) {
					in.UserID = a.Session.UserID
					_ = a.D.Dispatch(menu.NewEvent(ctx, menu.Click), a.CreateFolder(in, &id))
				})
			},
		},
		menu.Separator(),
		{
			Label: "Delete",
			Tone:  menu.ToneDanger,
			Run: func(ev *menu.Event) {
				ev.StopPropagation()
				a.Deletes.Ask(DeleteFolderPrompt(f.Name), a.DeleteFolder(id))
				p.Confirm(&a.Deletes)
			},
		},
	}
	return menu.New(f.Name, items, trigger)
}

// NewItemMenu is the "+" menu of the sidebar or of a folder page.
func (a *Actions) NewItemMenu(folderID *string, p Prompter) *menu.Menu {
	items := []menu.Item{
		{
			Label:    "New Doc",
			Hint:     "Start something new",
			Disabled: !a.CanCreateDocument(),
			Run:      func(ev *menu.Event) { _ = a.D.Dispatch(ev, a.CreateDocument("", folderID)) },
		},
		{
			Label: "New Folder",
			Hint:  "Keep things tidy",
			Run: func(ev *menu.Event) {
				ev.StopPropagation()
				p.FolderDialog(FolderCreate, model.FolderInput{}, func(ctx context.Context, in model.FolderInput) {
					_ = a.D.Dispatch(menu.NewEvent(ctx, menu.Click), a.CreateFolder(in, folderID))
				})
			},
		},
	}
	return menu.New("New", items, nil)
}
