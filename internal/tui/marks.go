package tui

import (
	"sync"

	"folio-cli/internal/cache"
	"folio-cli/internal/model"
)

// rowMarker highlights the row whose menu is open and pins its record in the
// cache so a concurrent settle cannot collect it while the menu is up.
type rowMarker struct {
	cache *cache.Store

	mu sync.Mutex
	id string
}

func (r *rowMarker) Highlight(id string) func() {
	k := cache.KeyOf(model.TypeBlocks, id)
	if _, err := r.cache.Lookup(model.TypeFolders, id); err == nil {
		k = cache.KeyOf(model.TypeFolders, id)
	}
	r.cache.Retain(k)

	r.mu.Lock()
	r.id = id
	r.mu.Unlock()

	return func() {
		r.cache.Release(k)
		r.mu.Lock()
		if r.id == id {
			r.id = ""
		}
		r.mu.Unlock()
	}
}

func (r *rowMarker) marked() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}
