package actions

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"folio-cli/internal/cache"
	"folio-cli/internal/download"
	"folio-cli/internal/menu"
	"folio-cli/internal/model"
	"folio-cli/internal/notify"
	"folio-cli/internal/reconcile"

	"github.com/rs/zerolog"
)

type fakeAPI struct {
	mu    sync.Mutex
	calls int
	fail  error
	// during runs inside every call, before it returns.
	during func()

	nextFolder model.Folder
	nextDoc    model.Document
}

func (f *fakeAPI) call() error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.during != nil {
		f.during()
	}
	return f.fail
}

func (f *fakeAPI) SoftDeleteDocument(ctx context.Context, id string) (string, error) {
	return id, f.call()
}

func (f *fakeAPI) RemoveDocumentAccess(ctx context.Context, documentID, userID string) (int, error) {
	return 1, f.call()
}

func (f *fakeAPI) InsertDocument(ctx context.Context, in model.DocumentInput) (model.Document, error) {
	d := f.nextDoc
	d.FolderID = in.FolderID
	d.WorkspaceID = in.WorkspaceID
	return d, f.call()
}

func (f *fakeAPI) UpdateFolder(ctx context.Context, id string, in model.FolderInput) (model.Folder, error) {
	return model.Folder{ID: id, Name: in.Name, Description: in.Description, Icon: in.Icon}, f.call()
}

func (f *fakeAPI) InsertFolder(ctx context.Context, in model.FolderInput) (model.Folder, error) {
	out := f.nextFolder
	out.ParentID = in.ParentID
	out.WorkspaceID = in.WorkspaceID
	return out, f.call()
}

func (f *fakeAPI) DeleteFolder(ctx context.Context, id string) (string, error) {
	return id, f.call()
}

func (f *fakeAPI) FetchWorkspace(ctx context.Context, workspaceID, userID string) (reconcile.Workspace, error) {
	return reconcile.Workspace{ID: workspaceID}, f.call()
}

type fakePrompter struct {
	dialogs  []FolderMode
	input    model.FolderInput
	confirms int
}

func (p *fakePrompter) FolderDialog(mode FolderMode, initial model.FolderInput, submit func(context.Context, model.FolderInput)) {
	p.dialogs = append(p.dialogs, mode)
	submit(context.Background(), p.input)
}

func (p *fakePrompter) Confirm(*Gate) { p.confirms++ }

func setup(t *testing.T, s Session) (*Actions, *fakeAPI, *notify.Recorder) {
	t.Helper()
	c := cache.New()
	parent := "fld-p"
	err := c.Batch(func(tx *cache.Tx) error {
		reconcile.SyncWorkspace(tx, reconcile.Workspace{
			ID: "ws",
			Folders: []model.Folder{
				{ID: "fld-p", Name: "Parent", WorkspaceID: "ws"},
				{ID: "fld-f", Name: "F", WorkspaceID: "ws", ParentID: &parent},
			},
			Children: map[string][]model.Folder{
				"fld-p": {{ID: "fld-f", Name: "F", WorkspaceID: "ws", ParentID: &parent}},
			},
			Documents: []model.Document{
				{ID: "doc-mine", Title: "Mine", UserID: "alice", WorkspaceID: "ws"},
				{ID: "doc-shared", Title: "Shared", UserID: "bob", WorkspaceID: "ws"},
			},
			Count: 2,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec := &notify.Recorder{}
	api := &fakeAPI{}
	return New(api, NewDispatcher(c, rec, zerolog.Nop()), s), api, rec
}

func rootBlocks(a *Actions) []model.Ref {
	v, _ := a.D.Cache.ReadField(cache.RootQuery, "blocks")
	return cache.AsRefs(v)
}

func TestDeleteDocument_OptimisticThenConfirmed(t *testing.T) {
	a, api, rec := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})

	api.during = func() {
		if _, err := a.D.Cache.Lookup(model.TypeBlocks, "doc-mine"); !errors.Is(err, cache.ErrNotFound) {
			t.Fatalf("optimistic eviction not visible during the call")
		}
	}
	m := a.DocumentMenu(model.Document{ID: "doc-mine", UserID: "alice", Title: "Mine"}, nil)
	if m.Items[0].Label != "Delete" {
		t.Fatalf("owner should see Delete; got %q", m.Items[0].Label)
	}
	m.Activate(context.Background(), 0)

	if api.calls != 1 {
		t.Fatalf("expected one call; got %d", api.calls)
	}
	if got := rootBlocks(a); len(got) != 1 || got[0].ID != "doc-shared" {
		t.Fatalf("unexpected blocks after delete: %v", got)
	}
	agg, _ := a.D.Cache.ReadField(cache.RootQuery, "blocks_aggregate")
	if n := cache.AsAggregate(agg).Aggregate.Count; n != 1 {
		t.Fatalf("expected aggregate 1; got %d", n)
	}
	if all := rec.All(); len(all) != 1 || all[0].Message != "Successfully deleted document" {
		t.Fatalf("unexpected notifications: %+v", all)
	}
}

func TestDeleteDocument_RejectionLeavesCacheIdentical(t *testing.T) {
	a, api, rec := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	api.fail = errors.New("server said no")
	before := a.D.Cache.Fingerprint()

	res := a.D.Run(context.Background(), a.DeleteDocument("doc-mine"))
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failure; got %+v", res)
	}
	if a.D.Cache.Fingerprint() != before {
		t.Fatalf("cache changed after a rejected mutation")
	}
	if rec.Count(notify.KindError) != 1 || rec.Count(notify.KindSuccess) != 0 {
		t.Fatalf("expected exactly one error notification; got %+v", rec.All())
	}
	if all := rec.All(); all[0].Message != "Failed to delete document. Please try again." {
		t.Fatalf("unexpected message %q", all[0].Message)
	}
}

func TestRemoveAccess_NoUserIsSilentNoop(t *testing.T) {
	a, api, rec := setup(t, Session{WorkspaceID: "ws"})
	before := a.D.Cache.Fingerprint()

	m := a.DocumentMenu(model.Document{ID: "doc-shared", UserID: "bob"}, nil)
	if m.Items[0].Label != "Remove" {
		t.Fatalf("non-owner should see Remove; got %q", m.Items[0].Label)
	}
	ev := m.Activate(context.Background(), 0)
	if !ev.Stopped() {
		t.Fatalf("propagation must stop even when skipped")
	}
	if api.calls != 0 || len(rec.All()) != 0 || a.D.Cache.Fingerprint() != before {
		t.Fatalf("expected no calls, notifications or patches; calls=%d notes=%v", api.calls, rec.All())
	}
	if err := a.D.Dispatch(nil, a.RemoveDocumentAccess("doc-shared")); !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected ErrSkipped; got %v", err)
	}
}

func TestRemoveAccess_KeepsAggregate(t *testing.T) {
	a, _, rec := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	a.D.Run(context.Background(), a.RemoveDocumentAccess("doc-shared"))

	if got := rootBlocks(a); len(got) != 1 || got[0].ID != "doc-mine" {
		t.Fatalf("unexpected blocks: %v", got)
	}
	agg, _ := a.D.Cache.ReadField(cache.RootQuery, "blocks_aggregate")
	if n := cache.AsAggregate(agg).Aggregate.Count; n != 2 {
		t.Fatalf("aggregate must not change on access removal; got %d", n)
	}
	if all := rec.All(); len(all) != 1 || all[0].Message != "Successfully removed from shared documents" {
		t.Fatalf("unexpected notifications: %+v", all)
	}
}

func TestNestedTrigger_AncestorHandlerNeverFires(t *testing.T) {
	a, _, _ := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	opened := 0
	sidebar := &menu.Surface{Name: "sidebar", OnClick: func(*menu.Event) { opened++ }, OnContextMenu: func(*menu.Event) { opened++ }}
	row := &menu.Surface{Name: "row", Parent: sidebar, OnClick: func(*menu.Event) { opened++ }}

	m := a.DocumentMenu(model.Document{ID: "doc-mine", UserID: "alice"}, row)
	if m.Variant != menu.ContextInvoked {
		t.Fatalf("trigger should make a context menu")
	}
	row.Dispatch(context.Background(), menu.ContextMenu)
	if !m.IsOpen() {
		t.Fatalf("right click should open the menu")
	}
	m.Activate(context.Background(), 0)
	if opened != 0 {
		t.Fatalf("ancestor handlers fired %d times", opened)
	}
}

func TestFolderDelete_ConfirmAndPatch(t *testing.T) {
	a, api, rec := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	p := &fakePrompter{}

	inFlight := false
	api.during = func() { inFlight = a.Deletes.InFlight() }

	m := a.FolderMenu(model.Folder{ID: "fld-f", Name: "F"}, nil, p)
	m.Activate(context.Background(), len(m.Items)-1)
	if api.calls != 0 || p.confirms != 1 {
		t.Fatalf("delete must wait for confirmation; calls=%d confirms=%d", api.calls, p.confirms)
	}
	prompt, ok := a.Deletes.Pending()
	if !ok || prompt.Body != `Are you sure you want to delete "F"? This action cannot be undone.` {
		t.Fatalf("unexpected prompt: %+v %v", prompt, ok)
	}

	if err := a.D.Confirm(menu.NewEvent(context.Background(), menu.Click), &a.Deletes); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !inFlight || a.Deletes.InFlight() {
		t.Fatalf("in-flight flag must be set during the call and cleared after")
	}
	if _, err := a.D.Cache.Lookup(model.TypeFolders, "fld-f"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("folder F should be evicted; got %v", err)
	}
	kids, _ := a.D.Cache.ReadField(cache.KeyOf(model.TypeFolders, "fld-p"), "children")
	if len(cache.AsRefs(kids)) != 0 {
		t.Fatalf("parent children still reference F: %v", kids)
	}
	if rec.Count(notify.KindSuccess) != 1 {
		t.Fatalf("expected success notification; got %+v", rec.All())
	}
}

func TestFolderDelete_FailureClearsInFlight(t *testing.T) {
	a, api, rec := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	api.fail = errors.New("nope")
	a.Deletes.Ask(DeleteFolderPrompt("F"), a.DeleteFolder("fld-f"))

	_ = a.D.Confirm(nil, &a.Deletes)
	if a.Deletes.InFlight() {
		t.Fatalf("in-flight flag must clear on failure")
	}
	if _, ok := a.Deletes.Pending(); ok {
		t.Fatalf("confirmed mutation must leave the gate")
	}
	if all := rec.All(); len(all) != 1 || all[0].Message != "Failed to delete folder" {
		t.Fatalf("unexpected notifications: %+v", all)
	}
}

func TestFolderMenu_EditAndNewFolder(t *testing.T) {
	a, api, rec := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	desc := "plans"
	p := &fakePrompter{input: model.FolderInput{Name: "Renamed", Description: &desc, Icon: "*"}}

	m := a.FolderMenu(model.Folder{ID: "fld-f", Name: "F"}, nil, p)
	m.Activate(context.Background(), 0)
	rec0, _ := a.D.Cache.Lookup(model.TypeFolders, "fld-f")
	if rec0["name"] != "Renamed" || rec0["description"] != "plans" {
		t.Fatalf("folder not updated in cache: %v", rec0)
	}

	api.nextFolder = model.Folder{ID: "fld-new", Name: "Renamed"}
	m.Activate(context.Background(), 3)
	kids, _ := a.D.Cache.ReadField(cache.KeyOf(model.TypeFolders, "fld-f"), "children")
	if refs := cache.AsRefs(kids); len(refs) != 1 || refs[0].ID != "fld-new" {
		t.Fatalf("new folder not appended to parent children: %v", kids)
	}
	if len(p.dialogs) != 2 || p.dialogs[0] != FolderUpdate || p.dialogs[1] != FolderCreate {
		t.Fatalf("unexpected dialogs: %v", p.dialogs)
	}
	if rec.Count(notify.KindSuccess) != 2 {
		t.Fatalf("expected two successes; got %+v", rec.All())
	}
}

func TestNewItemMenu_NewDocAvailability(t *testing.T) {
	a, api, _ := setup(t, Session{UserID: "alice"})
	if m := a.NewItemMenu(nil, &fakePrompter{}); !m.Items[0].Disabled {
		t.Fatalf("New Doc must be disabled without a workspace")
	}
	m := a.NewItemMenu(nil, &fakePrompter{input: model.FolderInput{Name: "x"}})
	m.Activate(context.Background(), 1)
	if api.calls != 0 {
		t.Fatalf("create folder without workspace must not call the server")
	}

	a, api, _ = setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	var queued []func() Result
	a.D.Spawn = func(run func() Result) { queued = append(queued, run) }
	api.nextDoc = model.Document{ID: "doc-new", Title: "Untitled"}

	m = a.NewItemMenu(nil, &fakePrompter{})
	m.Activate(context.Background(), 0)
	if !a.Creates.InFlight() {
		t.Fatalf("create should be in flight until it settles")
	}
	if again := a.NewItemMenu(nil, &fakePrompter{}); !again.Items[0].Disabled {
		t.Fatalf("New Doc must be disabled while a create is in flight")
	}
	if len(queued) != 1 {
		t.Fatalf("expected one queued run; got %d", len(queued))
	}
	if res := queued[0](); res.Outcome != OutcomeOK {
		t.Fatalf("create failed: %+v", res)
	}
	if a.Creates.InFlight() {
		t.Fatalf("in-flight must clear once settled")
	}
	if got := rootBlocks(a); len(got) != 3 {
		t.Fatalf("expected new document appended; got %v", got)
	}
}

type fakeHighlighter struct {
	active  map[string]bool
	cleared []string
}

func (h *fakeHighlighter) Highlight(id string) func() {
	h.active[id] = true
	return func() {
		delete(h.active, id)
		h.cleared = append(h.cleared, id)
	}
}

type fakeDownloader struct{ url, name string }

func (d *fakeDownloader) Download(ctx context.Context, url, name string) (download.Result, error) {
	d.url, d.name = url, name
	return download.Result{URL: url, Name: name}, nil
}

func TestBlockMenus(t *testing.T) {
	h := &fakeHighlighter{active: map[string]bool{}}
	dl := &fakeDownloader{}
	var got download.Result
	b := &BlockMenus{Highlighter: h, Downloader: dl, OnDownload: func(r download.Result, err error) { got = r }}

	b.Trigger(menu.NewEvent(context.Background(), menu.Click), "blk-1")
	b.Trigger(menu.NewEvent(context.Background(), menu.Click), "blk-2")
	if h.active["blk-1"] || !h.active["blk-2"] || len(h.cleared) != 1 {
		t.Fatalf("previous highlight not cleaned up: %+v", h)
	}

	if m := b.Menu(Block{ID: "blk-3"}); m.HasEnabled() || m.Render(0, 30) != "" {
		t.Fatalf("a block with no hooks renders nothing")
	}
	if m := b.Menu(Block{ID: "blk-3", OnDelete: func() {}}); m.HasEnabled() || len(m.Items) != 0 {
		t.Fatalf("delete alone does not make a block menu")
	}
	withDelete := b.Menu(Block{ID: "blk-3", OnDelete: func() {}, OnInsertBelow: func() {}})
	if len(withDelete.Items) != 2 || withDelete.Items[1].Label != "Delete" {
		t.Fatalf("delete should follow the other actions: %+v", withDelete.Items)
	}

	inserted := ""
	m := b.Menu(Block{
		ID:            "blk-2",
		DownloadURL:   "https://files.example.com/a/report.pdf?sig=1",
		OnInsertAbove: func() { inserted = "above" },
		OnInsertBelow: func() { inserted = "below" },
	})
	labels := []string{}
	for _, it := range m.Items {
		labels = append(labels, it.Label)
	}
	if len(labels) != 3 || labels[0] != "Insert Block Above" || labels[2] != "Download" {
		t.Fatalf("unexpected items: %v", labels)
	}
	m.Activate(context.Background(), 1)
	if inserted != "below" {
		t.Fatalf("insert below not run")
	}
	m.Activate(context.Background(), 2)
	if dl.url != "https://files.example.com/a/report.pdf?sig=1" || got.URL != dl.url {
		t.Fatalf("download not dispatched: %+v", dl)
	}
}

func TestDispatch_ConcurrentDeletesConverge(t *testing.T) {
	a, api, rec := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	var docs []model.Document
	for i := 0; i < 8; i++ {
		docs = append(docs, model.Document{ID: fmt.Sprintf("doc-%d", i), Title: "D", UserID: "alice", WorkspaceID: "ws"})
	}
	_ = a.D.Cache.Batch(func(tx *cache.Tx) error {
		reconcile.SyncWorkspace(tx, reconcile.Workspace{ID: "ws", Documents: docs, Count: len(docs)})
		return nil
	})
	a.D.Spawn = func(run func() Result) { go run() }

	for i := 0; i < 6; i++ {
		m := a.DeleteDocument(docs[i].ID)
		if err := a.D.Dispatch(menu.NewEvent(context.Background(), menu.Click), m); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	a.D.Wait()

	want := []model.Ref{model.DocumentRef("doc-6"), model.DocumentRef("doc-7")}
	if got := rootBlocks(a); !reflect.DeepEqual(got, want) {
		t.Fatalf("blocks: got %v want %v", got, want)
	}
	agg, _ := a.D.Cache.ReadField(cache.RootQuery, "blocks_aggregate")
	if n := cache.AsAggregate(agg).Aggregate.Count; n != 2 {
		t.Fatalf("expected aggregate 2; got %d", n)
	}
	if api.calls != 6 || rec.Count(notify.KindSuccess) != 6 {
		t.Fatalf("expected six settled deletes; calls=%d notes=%v", api.calls, rec.All())
	}
}

func TestSettle_PanickingCallDropsOptimisticLayer(t *testing.T) {
	a, _, _ := setup(t, Session{UserID: "alice", WorkspaceID: "ws"})
	before := a.D.Cache.Fingerprint()

	m := a.DeleteDocument("doc-mine")
	m.Call = func(context.Context) (Patch, error) { panic("transport exploded") }
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected the panic to reach the caller")
			}
		}()
		a.D.Run(context.Background(), m)
	}()

	if _, err := a.D.Cache.Lookup(model.TypeBlocks, "doc-mine"); err != nil {
		t.Fatalf("optimistic delete should be rolled back: %v", err)
	}
	if a.D.Cache.Fingerprint() != before {
		t.Fatalf("cache changed after a panicking call")
	}
}
