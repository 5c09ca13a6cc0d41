// Package reconcile translates confirmed mutation results into cache patches.
//
// Every function here runs inside one cache transaction and keeps all
// denormalized collections consistent with the mutated membership. Deletes
// always follow the same order: remove from collections, adjust aggregates,
// evict, collect garbage. Each function is idempotent.
package reconcile

import (
	"folio-cli/internal/cache"
	"folio-cli/internal/model"
)

const (
	fieldBlocks          = "blocks"
	fieldBlocksAggregate = "blocks_aggregate"
	fieldFolders         = "folders"
	fieldChildren        = "children"
)

// DocumentDeleted removes a soft-deleted document from every cached blocks
// collection, decrements blocks_aggregate and evicts the document.
func DocumentDeleted(tx *cache.Tx, docID string) {
	removed := removeDocument(tx, docID)
	if removed {
		tx.Modify(cache.RootQuery, fieldBlocksAggregate, func(v any) any {
			return cache.AdjustAggregate(cache.AsAggregate(v), -1)
		})
	}
	evictAndCollect(tx, cache.KeyOf(model.TypeBlocks, docID))
}

// DocumentAccessRemoved drops a shared document from the caller's view. The
// document itself still exists, so no aggregate is adjusted.
func DocumentAccessRemoved(tx *cache.Tx, docID string) {
	removeDocument(tx, docID)
	evictAndCollect(tx, cache.KeyOf(model.TypeBlocks, docID))
}

// DocumentInserted writes a created document and appends it to the root
// blocks collections, bumping the aggregate once.
func DocumentInserted(tx *cache.Tx, doc model.Document) {
	k := cache.KeyOf(model.TypeBlocks, doc.ID)
	_, existed := tx.Read(k)
	tx.Write(k, DocumentRecord(doc))
	ref := model.DocumentRef(doc.ID)
	tx.Modify(cache.RootQuery, fieldBlocks, func(v any) any {
		return cache.AppendToCollection(cache.AsRefs(v), ref)
	})
	if !existed {
		tx.Modify(cache.RootQuery, fieldBlocksAggregate, func(v any) any {
			return cache.AdjustAggregate(cache.AsAggregate(v), 1)
		})
	}
}

// FolderInserted writes a created folder, appends it to its parent's children
// (when the parent is cached) and to the root folders collection. The root
// collection is created when absent.
func FolderInserted(tx *cache.Tx, f model.Folder) {
	tx.Write(cache.KeyOf(model.TypeFolders, f.ID), FolderRecord(f))
	ref := model.FolderRef(f.ID)
	if parent := model.StrOrEmpty(f.ParentID); parent != "" {
		appendField(tx, cache.KeyOf(model.TypeFolders, parent), fieldChildren, ref)
	}
	appendField(tx, cache.RootQuery, fieldFolders, ref)
}

// FolderUpdated merges the edited fields into the cached folder record.
func FolderUpdated(tx *cache.Tx, f model.Folder) {
	k := cache.KeyOf(model.TypeFolders, f.ID)
	if _, ok := tx.Read(k); !ok {
		return
	}
	tx.Write(k, cache.Record{
		"name":        f.Name,
		"description": strOrNil(f.Description),
		"icon":        f.Icon,
	})
}

// FolderDeleted removes a folder and its cached subfolders from the root
// folders collection and from every cached folder's children, evicts them and
// detaches cached documents that sat in them. The backend deletes subfolders
// with their parent, so the whole subtree goes in one transaction.
func FolderDeleted(tx *cache.Tx, folderID string) {
	gone := folderSubtree(tx, folderID)
	pred := func(r model.Ref) bool { return gone[r.ID] }
	tx.Modify(cache.RootQuery, fieldFolders, func(v any) any {
		return cache.RemoveFromCollection(cache.AsRefs(v), pred)
	})
	for _, k := range tx.Keys(model.TypeFolders) {
		tx.Modify(k, fieldChildren, func(v any) any {
			return cache.RemoveFromCollection(cache.AsRefs(v), pred)
		})
	}
	for _, k := range tx.Keys(model.TypeBlocks) {
		if v, ok := tx.ReadField(k, "folder_id"); ok && gone[str(v)] {
			tx.Write(k, cache.Record{"folder_id": nil})
		}
	}
	for id := range gone {
		tx.Evict(cache.KeyOf(model.TypeFolders, id))
	}
	tx.GC()
}

// folderSubtree returns folderID plus every cached descendant, following
// children fields and parent_id on cached folder records.
func folderSubtree(tx *cache.Tx, folderID string) map[string]bool {
	byParent := map[string][]string{}
	for _, k := range tx.Keys(model.TypeFolders) {
		if v, ok := tx.ReadField(k, "parent_id"); ok {
			if p := str(v); p != "" {
				byParent[p] = append(byParent[p], k.ID())
			}
		}
	}

	gone := map[string]bool{}
	queue := []string{folderID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if gone[id] {
			continue
		}
		gone[id] = true
		queue = append(queue, byParent[id]...)
		v, _ := tx.ReadField(cache.KeyOf(model.TypeFolders, id), fieldChildren)
		for _, r := range cache.AsRefs(v) {
			queue = append(queue, r.ID)
		}
	}
	return gone
}

func removeDocument(tx *cache.Tx, docID string) bool {
	pred := cache.HasID(docID)
	removed := tx.Modify(cache.RootQuery, fieldBlocks, func(v any) any {
		return cache.RemoveFromCollection(cache.AsRefs(v), pred)
	})
	if _, ok := tx.Read(cache.KeyOf(model.TypeBlocks, docID)); ok {
		removed = true
	}
	return removed
}

func appendField(tx *cache.Tx, k cache.Key, field string, ref model.Ref) {
	if tx.HasField(k, field) {
		tx.Modify(k, field, func(v any) any {
			return cache.AppendToCollection(cache.AsRefs(v), ref)
		})
		return
	}
	if _, ok := tx.Read(k); !ok {
		return
	}
	tx.Write(k, cache.Record{field: []model.Ref{ref}})
}

func evictAndCollect(tx *cache.Tx, k cache.Key) {
	tx.Evict(k)
	tx.GC()
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
