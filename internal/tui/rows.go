package tui

import (
	"sort"
	"strings"

	"folio-cli/internal/cache"
	"folio-cli/internal/model"
	"folio-cli/internal/reconcile"
)

type rowKind int

const (
	rowFolder rowKind = iota
	rowDocument
)

type row struct {
	kind   rowKind
	depth  int
	folder model.Folder
	doc    model.Document
	open   bool
}

func (r row) id() string {
	if r.kind == rowFolder {
		return r.folder.ID
	}
	return r.doc.ID
}

func (r row) label() string {
	if r.kind == rowFolder {
		name := r.folder.Name
		if r.folder.Icon != "" {
			name = r.folder.Icon + " " + name
		}
		return name
	}
	if strings.TrimSpace(r.doc.Title) == "" {
		return "Untitled"
	}
	return r.doc.Title
}

// buildRows flattens the cached workspace into a folder tree with documents
// under their folder. Folders in collapsed are not expanded.
func buildRows(s *cache.Store, collapsed map[string]bool) []row {
	folders := map[string]model.Folder{}
	var order []string
	v, _ := s.ReadField(cache.RootQuery, "folders")
	for _, ref := range cache.AsRefs(v) {
		rec, err := s.Read(cache.KeyOfRef(ref))
		if err != nil {
			continue
		}
		f := reconcile.FolderFromRecord(rec)
		if _, dup := folders[f.ID]; !dup {
			order = append(order, f.ID)
		}
		folders[f.ID] = f
	}

	docsByFolder := map[string][]model.Document{}
	var looseDocs []model.Document
	v, _ = s.ReadField(cache.RootQuery, "blocks")
	for _, ref := range cache.AsRefs(v) {
		rec, err := s.Read(cache.KeyOfRef(ref))
		if err != nil {
			continue
		}
		d := reconcile.DocumentFromRecord(rec)
		if fid := model.StrOrEmpty(d.FolderID); fid != "" {
			if _, ok := folders[fid]; ok {
				docsByFolder[fid] = append(docsByFolder[fid], d)
				continue
			}
		}
		looseDocs = append(looseDocs, d)
	}

	childrenOf := func(id string) []string {
		var ids []string
		if cv, ok := s.ReadField(cache.KeyOf(model.TypeFolders, id), "children"); ok {
			for _, ref := range cache.AsRefs(cv) {
				if _, known := folders[ref.ID]; known {
					ids = append(ids, ref.ID)
				}
			}
			return ids
		}
		for _, fid := range order {
			if model.StrOrEmpty(folders[fid].ParentID) == id {
				ids = append(ids, fid)
			}
		}
		return ids
	}

	var rows []row
	seen := map[string]bool{}
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if seen[id] {
			return
		}
		seen[id] = true
		open := !collapsed[id]
		rows = append(rows, row{kind: rowFolder, depth: depth, folder: folders[id], open: open})
		if !open {
			return
		}
		for _, cid := range childrenOf(id) {
			walk(cid, depth+1)
		}
		for _, d := range docsByFolder[id] {
			rows = append(rows, row{kind: rowDocument, depth: depth + 1, doc: d})
		}
	}
	for _, id := range order {
		parent := model.StrOrEmpty(folders[id].ParentID)
		if _, cached := folders[parent]; parent == "" || !cached {
			walk(id, 0)
		}
	}
	sort.SliceStable(looseDocs, func(i, j int) bool { return looseDocs[i].Title < looseDocs[j].Title })
	for _, d := range looseDocs {
		rows = append(rows, row{kind: rowDocument, doc: d})
	}
	return rows
}
