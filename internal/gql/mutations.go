package gql

import (
	"context"
	"fmt"
	"time"

	"folio-cli/internal/model"
	"folio-cli/internal/reconcile"
)

// API is the set of remote operations the dispatcher and sync depend on.
type API interface {
	SoftDeleteDocument(ctx context.Context, id string) (string, error)
	RemoveDocumentAccess(ctx context.Context, documentID, userID string) (int, error)
	InsertDocument(ctx context.Context, in model.DocumentInput) (model.Document, error)
	UpdateFolder(ctx context.Context, id string, in model.FolderInput) (model.Folder, error)
	InsertFolder(ctx context.Context, in model.FolderInput) (model.Folder, error)
	DeleteFolder(ctx context.Context, id string) (string, error)
	FetchWorkspace(ctx context.Context, workspaceID, userID string) (reconcile.Workspace, error)
}

var _ API = (*Client)(nil)

const folderFields = `id name description icon color user_id workspace_id parent_id`
const blockFields = `id title user_id workspace_id folder_id`

const (
	softDeleteDocumentQuery = `mutation SoftDeleteDocument($id: String!) {
  update_blocks_by_pk(id: $id, _set: {deleted: true}) { id }
}`
	removeDocumentAccessQuery = `mutation RemoveDocumentAccess($document_id: String!, $user_id: String!) {
  delete_document_access(document_id: $document_id, user_id: $user_id) { affected_rows }
}`
	insertDocumentQuery = `mutation InsertDocument($object: blocks_insert_input!) {
  insert_blocks_one(object: $object) { ` + blockFields + ` }
}`
	updateFolderQuery = `mutation UpdateFolder($id: String!, $set: folders_set_input!) {
  update_folders_by_pk(id: $id, _set: $set) { ` + folderFields + ` }
}`
	insertFolderQuery = `mutation InsertFolder($object: folders_insert_input!) {
  insert_folders_one(object: $object) { ` + folderFields + ` }
}`
	deleteFolderQuery = `mutation DeleteFolder($id: String!) {
  delete_folders_by_pk(id: $id) { id }
}`
	workspaceQuery = `query Workspace($workspace_id: String!, $user_id: String) {
  folders(workspace_id: $workspace_id) { ` + folderFields + ` children { ` + folderFields + ` } }
  blocks(workspace_id: $workspace_id, user_id: $user_id) { ` + blockFields + ` }
  blocks_aggregate(workspace_id: $workspace_id, user_id: $user_id) { aggregate { count } }
}`
)

type idOnly struct {
	ID string `json:"id"`
}

func (c *Client) SoftDeleteDocument(ctx context.Context, id string) (string, error) {
	var out struct {
		Doc *idOnly `json:"update_blocks_by_pk"`
	}
	if err := c.Do(ctx, "SoftDeleteDocument", softDeleteDocumentQuery, map[string]any{"id": id}, &out); err != nil {
		return "", err
	}
	if out.Doc == nil {
		return "", ServerError{Op: "SoftDeleteDocument", Messages: []string{fmt.Sprintf("document not found: %s", id)}}
	}
	return out.Doc.ID, nil
}

func (c *Client) RemoveDocumentAccess(ctx context.Context, documentID, userID string) (int, error) {
	var out struct {
		Res *struct {
			AffectedRows int `json:"affected_rows"`
		} `json:"delete_document_access"`
	}
	vars := map[string]any{"document_id": documentID, "user_id": userID}
	if err := c.Do(ctx, "RemoveDocumentAccess", removeDocumentAccessQuery, vars, &out); err != nil {
		return 0, err
	}
	if out.Res == nil {
		return 0, nil
	}
	return out.Res.AffectedRows, nil
}

func (c *Client) InsertDocument(ctx context.Context, in model.DocumentInput) (model.Document, error) {
	var out struct {
		Doc *model.Document `json:"insert_blocks_one"`
	}
	if err := c.Do(ctx, "InsertDocument", insertDocumentQuery, map[string]any{"object": in}, &out); err != nil {
		return model.Document{}, err
	}
	if out.Doc == nil {
		return model.Document{}, ServerError{Op: "InsertDocument", Messages: []string{"no document returned"}}
	}
	return *out.Doc, nil
}

func (c *Client) UpdateFolder(ctx context.Context, id string, in model.FolderInput) (model.Folder, error) {
	set := map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"icon":        in.Icon,
	}
	var out struct {
		Folder *model.Folder `json:"update_folders_by_pk"`
	}
	if err := c.Do(ctx, "UpdateFolder", updateFolderQuery, map[string]any{"id": id, "set": set}, &out); err != nil {
		return model.Folder{}, err
	}
	if out.Folder == nil {
		return model.Folder{}, ServerError{Op: "UpdateFolder", Messages: []string{fmt.Sprintf("folder not found: %s", id)}}
	}
	return *out.Folder, nil
}

func (c *Client) InsertFolder(ctx context.Context, in model.FolderInput) (model.Folder, error) {
	var out struct {
		Folder *model.Folder `json:"insert_folders_one"`
	}
	if err := c.Do(ctx, "InsertFolder", insertFolderQuery, map[string]any{"object": in}, &out); err != nil {
		return model.Folder{}, err
	}
	if out.Folder == nil {
		return model.Folder{}, ServerError{Op: "InsertFolder", Messages: []string{"no folder returned"}}
	}
	return *out.Folder, nil
}

func (c *Client) DeleteFolder(ctx context.Context, id string) (string, error) {
	var out struct {
		Folder *idOnly `json:"delete_folders_by_pk"`
	}
	if err := c.Do(ctx, "DeleteFolder", deleteFolderQuery, map[string]any{"id": id}, &out); err != nil {
		return "", err
	}
	if out.Folder == nil {
		return "", ServerError{Op: "DeleteFolder", Messages: []string{fmt.Sprintf("folder not found: %s", id)}}
	}
	return out.Folder.ID, nil
}

type folderWithChildren struct {
	model.Folder
	Children []model.Folder `json:"children"`
}

// FetchWorkspace runs the sync queries for one workspace. userID may be empty.
func (c *Client) FetchWorkspace(ctx context.Context, workspaceID, userID string) (reconcile.Workspace, error) {
	vars := map[string]any{"workspace_id": workspaceID}
	if userID != "" {
		vars["user_id"] = userID
	}
	var out struct {
		Folders   []folderWithChildren `json:"folders"`
		Blocks    []model.Document     `json:"blocks"`
		Aggregate model.Aggregate      `json:"blocks_aggregate"`
	}
	if err := c.Do(ctx, "Workspace", workspaceQuery, vars, &out); err != nil {
		return reconcile.Workspace{}, err
	}

	ws := reconcile.Workspace{
		ID:        workspaceID,
		Children:  map[string][]model.Folder{},
		Documents: out.Blocks,
		SyncedAt:  time.Now().UTC(),
	}
	for _, f := range out.Folders {
		ws.Folders = append(ws.Folders, f.Folder)
		ws.Children[f.ID] = f.Children
	}
	if out.Aggregate.Aggregate != nil {
		ws.Count = out.Aggregate.Aggregate.Count
	}
	return ws, nil
}
