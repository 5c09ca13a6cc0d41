package actions

import (
	"context"
	"sync"

	"folio-cli/internal/download"
	"folio-cli/internal/menu"
)

// Block describes the hooks a block row offers. Nil hooks and an empty
// DownloadURL leave the matching item out.
type Block struct {
	ID               string
	DownloadURL      string
	DownloadFileName string

	OnInsertAbove func()
	OnInsertBelow func()
	OnDelete      func()
}

// Highlighter marks a block while its menu is open. The returned func clears
// the mark.
type Highlighter interface {
	Highlight(blockID string) func()
}

type Downloader interface {
	Download(ctx context.Context, rawURL, name string) (download.Result, error)
}

// BlockMenus builds block action menus and owns the single active highlight.
type BlockMenus struct {
	Highlighter Highlighter
	Downloader  Downloader
	// OnDownload receives every download outcome.
	OnDownload func(download.Result, error)

	mu      sync.Mutex
	cleanup func()
}

// Trigger handles a click on a block's menu button: it stops the event,
// clears the previous highlight and highlights blk.
func (b *BlockMenus) Trigger(ev *menu.Event, blockID string) {
	ev.StopPropagation()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cleanup != nil {
		b.cleanup()
		b.cleanup = nil
	}
	if blockID != "" && b.Highlighter != nil {
		b.cleanup = b.Highlighter.Highlight(blockID)
	}
}

// ClearHighlight drops the active highlight, if any.
func (b *BlockMenus) ClearHighlight() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cleanup != nil {
		b.cleanup()
		b.cleanup = nil
	}
}

// Menu lists blk's actions. A block with neither insert hooks nor a download
// gets an empty menu, even when it can be deleted.
func (b *BlockMenus) Menu(blk Block) *menu.Menu {
	canDownload := blk.DownloadURL != "" && b.Downloader != nil
	if blk.OnInsertAbove == nil && blk.OnInsertBelow == nil && !canDownload {
		return menu.New("", nil, nil)
	}
	var items []menu.Item
	if blk.OnInsertAbove != nil {
		fn := blk.OnInsertAbove
		items = append(items, menu.Item{Label: "Insert Block Above", Run: func(*menu.Event) { fn() }})
	}
	if blk.OnInsertBelow != nil {
		fn := blk.OnInsertBelow
		items = append(items, menu.Item{Label: "Insert Block Below", Run: func(*menu.Event) { fn() }})
	}
	if blk.OnDelete != nil {
		fn := blk.OnDelete
		items = append(items, menu.Item{Label: "Delete", Tone: menu.ToneDanger, Run: func(*menu.Event) { fn() }})
	}
	if canDownload {
		url, name := blk.DownloadURL, blk.DownloadFileName
		items = append(items, menu.Item{Label: "Download", Run: func(ev *menu.Event) {
			res, err := b.Downloader.Download(ev.Context(), url, name)
			if b.OnDownload != nil {
				b.OnDownload(res, err)
			}
		}})
	}
	return menu.New("", items, nil)
}
