package reconcile

import (
	"time"

	"folio-cli/internal/cache"
	"folio-cli/internal/model"
)

func FolderRecord(f model.Folder) cache.Record {
	return cache.Record{
		"__typename":   model.TypeFolders,
		"id":           f.ID,
		"name":         f.Name,
		"description":  strOrNil(f.Description),
		"icon":         f.Icon,
		"color":        strOrNil(f.Color),
		"user_id":      f.UserID,
		"workspace_id": f.WorkspaceID,
		"parent_id":    strOrNil(f.ParentID),
	}
}

func DocumentRecord(d model.Document) cache.Record {
	return cache.Record{
		"__typename":   model.TypeBlocks,
		"id":           d.ID,
		"title":        d.Title,
		"user_id":      d.UserID,
		"workspace_id": d.WorkspaceID,
		"folder_id":    strOrNil(d.FolderID),
	}
}

// FolderFromRecord reads the folder fields back out of a cache record.
func FolderFromRecord(rec cache.Record) model.Folder {
	return model.Folder{
		ID:          str(rec["id"]),
		Name:        str(rec["name"]),
		Description: strPtr(rec["description"]),
		Icon:        str(rec["icon"]),
		Color:       strPtr(rec["color"]),
		UserID:      str(rec["user_id"]),
		WorkspaceID: str(rec["workspace_id"]),
		ParentID:    strPtr(rec["parent_id"]),
	}
}

func DocumentFromRecord(rec cache.Record) model.Document {
	return model.Document{
		ID:          str(rec["id"]),
		Title:       str(rec["title"]),
		UserID:      str(rec["user_id"]),
		WorkspaceID: str(rec["workspace_id"]),
		FolderID:    strPtr(rec["folder_id"]),
	}
}

// Workspace is the result of the sync queries for one workspace.
type Workspace struct {
	ID        string
	Folders   []model.Folder
	Children  map[string][]model.Folder
	Documents []model.Document
	Count     int
	SyncedAt  time.Time
}

// SyncWorkspace writes a full workspace listing into the cache, replacing the
// root collections and each folder's children, then collects records that
// fell out of the listing.
func SyncWorkspace(tx *cache.Tx, ws Workspace) {
	folders := make([]model.Ref, 0, len(ws.Folders))
	for _, f := range ws.Folders {
		tx.Write(cache.KeyOf(model.TypeFolders, f.ID), FolderRecord(f))
		folders = append(folders, model.FolderRef(f.ID))
	}
	for parentID, kids := range ws.Children {
		refs := make([]model.Ref, 0, len(kids))
		for _, f := range kids {
			tx.Write(cache.KeyOf(model.TypeFolders, f.ID), FolderRecord(f))
			refs = append(refs, model.FolderRef(f.ID))
		}
		k := cache.KeyOf(model.TypeFolders, parentID)
		if _, ok := tx.Read(k); ok {
			tx.Write(k, cache.Record{fieldChildren: refs})
		}
	}
	docs := make([]model.Ref, 0, len(ws.Documents))
	for _, d := range ws.Documents {
		tx.Write(cache.KeyOf(model.TypeBlocks, d.ID), DocumentRecord(d))
		docs = append(docs, model.DocumentRef(d.ID))
	}
	tx.Write(cache.RootQuery, cache.Record{
		fieldFolders:         folders,
		fieldBlocks:          docs,
		fieldBlocksAggregate: &model.Aggregate{Aggregate: &model.AggregateCount{Count: ws.Count}},
		"workspace_id":       ws.ID,
	})
	tx.GC()
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
