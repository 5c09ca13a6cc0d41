package actions

import (
	"context"
	"strings"

	"folio-cli/internal/cache"
	"folio-cli/internal/gql"
	"folio-cli/internal/model"
	"folio-cli/internal/reconcile"
)

// Session carries the identity inputs every mutation may depend on.
type Session struct {
	UserID      string
	WorkspaceID string
}

// Actions builds mutations for one session.
type Actions struct {
	API     gql.API
	D       *Dispatcher
	Session Session

	// Deletes waits for folder delete confirmations.
	Deletes Gate
	// Creates guards document creation.
	Creates Gate
}

func New(api gql.API, d *Dispatcher, s Session) *Actions {
	return &Actions{API: api, D: d, Session: s}
}

func (a *Actions) DeleteDocument(id string) Mutation {
	return Mutation{
		Name:       "softDeleteDocument",
		Optimistic: func(tx *cache.Tx) { reconcile.DocumentDeleted(tx, id) },
		Call: func(ctx context.Context) (Patch, error) {
			if _, err := a.API.SoftDeleteDocument(ctx, id); err != nil {
				return nil, err
			}
			return func(tx *cache.Tx) { reconcile.DocumentDeleted(tx, id) }, nil
		},
		SuccessMessage: "Successfully deleted document",
		ErrorMessage:   "Failed to delete document. Please try again.",
	}
}

func (a *Actions) RemoveDocumentAccess(id string) Mutation {
	userID := a.Session.UserID
	return Mutation{
		Name:     "removeDocumentAccess",
		Requires: map[string]string{"userId": userID},
		Call: func(ctx context.Context) (Patch, error) {
			if _, err := a.API.RemoveDocumentAccess(ctx, id, userID); err != nil {
				return nil, err
			}
			return func(tx *cache.Tx) { reconcile.DocumentAccessRemoved(tx, id) }, nil
		},
		SuccessMessage: "Successfully removed from shared documents",
		ErrorMessage:   "Failed to remove access. Please try again.",
	}
}

// CreateDocument inserts an untitled document, optionally inside folderID.
func (a *Actions) CreateDocument(title string, folderID *string) Mutation {
	in := model.DocumentInput{
		Title:       strings.TrimSpace(title),
		FolderID:    folderID,
		WorkspaceID: a.Session.WorkspaceID,
		UserID:      a.Session.UserID,
	}
	return a.Creates.Guard(Mutation{
		Name:     "insertDocument",
		Requires: map[string]string{"workspaceId": in.WorkspaceID},
		Call: func(ctx context.Context) (Patch, error) {
			doc, err := a.API.InsertDocument(ctx, in)
			if err != nil {
				return nil, err
			}
			return func(tx *cache.Tx) { reconcile.DocumentInserted(tx, doc) }, nil
		},
		SuccessMessage: "Document created successfully",
		ErrorMessage:   "Failed to create document",
	})
}

// CanCreateDocument reports whether New Doc is available right now.
func (a *Actions) CanCreateDocument() bool {
	return a.Session.WorkspaceID != "" && !a.Creates.InFlight()
}

func (a *Actions) UpdateFolder(id string, in model.FolderInput) Mutation {
	set := model.FolderInput{Name: in.Name, Description: in.Description, Icon: in.Icon}
	return Mutation{
		Name: "updateFolder",
		Call: func(ctx context.Context) (Patch, error) {
			f, err := a.API.UpdateFolder(ctx, id, set)
			if err != nil {
				return nil, err
			}
			return func(tx *cache.Tx) { reconcile.FolderUpdated(tx, f) }, nil
		},
		SuccessMessage: "Folder updated successfully",
		ErrorMessage:   "Failed to update folder",
	}
}

// CreateFolder inserts a folder under parentID (nil for a top-level folder)
// in the session's workspace.
func (a *Actions) CreateFolder(in model.FolderInput, parentID *string) Mutation {
	in.WorkspaceID = a.Session.WorkspaceID
	in.ParentID = parentID
	return Mutation{
		Name:     "insertFolder",
		Requires: map[string]string{"workspaceId": in.WorkspaceID},
		Call: func(ctx context.Context) (Patch, error) {
			f, err := a.API.InsertFolder(ctx, in)
			if err != nil {
				return nil, err
			}
			return func(tx *cache.Tx) { reconcile.FolderInserted(tx, f) }, nil
		},
		SuccessMessage: "Folder created successfully",
		ErrorMessage:   "Failed to create folder",
	}
}

func (a *Actions) DeleteFolder(id string) Mutation {
	return Mutation{
		Name: "deleteFolder",
		Call: func(ctx context.Context) (Patch, error) {
			deleted, err := a.API.DeleteFolder(ctx, id)
			if err != nil {
				return nil, err
			}
			return func(tx *cache.Tx) { reconcile.FolderDeleted(tx, deleted) }, nil
		},
		SuccessMessage: "Folder deleted successfully",
		ErrorMessage:   "Failed to delete folder",
	}
}

// DeleteFolderPrompt is the confirmation shown before deleting a folder.
func DeleteFolderPrompt(name string) Prompt {
	return Prompt{
		Title:   "Delete Folder",
		Body:    `Are you sure you want to delete "` + name + `"? This action cannot be undone.`,
		Confirm: "Delete",
		Cancel:  "Cancel",
	}
}

// Sync replaces the cached workspace listing with a fresh fetch.
func (a *Actions) Sync(ctx context.Context) error {
	if a.Session.WorkspaceID == "" {
		return ErrSkipped
	}
	ws, err := a.API.FetchWorkspace(ctx, a.Session.WorkspaceID, a.Session.UserID)
	if err != nil {
		return err
	}
	return a.D.Cache.Batch(func(tx *cache.Tx) error {
		reconcile.SyncWorkspace(tx, ws)
		return nil
	})
}
