package cache

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"folio-cli/internal/model"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := New()
	err := s.Batch(func(tx *Tx) error {
		tx.Write(KeyOf(model.TypeFolders, "P"), Record{
			"id":       "P",
			"name":     "Parent",
			"children": []model.Ref{model.FolderRef("F"), model.FolderRef("G")},
		})
		tx.Write(KeyOf(model.TypeFolders, "F"), Record{"id": "F", "name": "F"})
		tx.Write(KeyOf(model.TypeFolders, "G"), Record{"id": "G", "name": "G"})
		tx.Write(RootQuery, Record{
			"folders": []model.Ref{model.FolderRef("P"), model.FolderRef("F"), model.FolderRef("G")},
			FieldName("blocks_aggregate", map[string]any{"workspace_id": "ws"}): &model.Aggregate{
				Aggregate: &model.AggregateCount{Count: 3},
			},
		})
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestKey(t *testing.T) {
	k := KeyOf("folders", "fld-1")
	if k.Typename() != "folders" || k.ID() != "fld-1" {
		t.Fatalf("unexpected key parts: %q %q", k.Typename(), k.ID())
	}
	if RootQuery.Typename() != "" {
		t.Fatalf("root query has no typename")
	}
}

func TestFieldName(t *testing.T) {
	if got := FieldName("blocks", nil); got != "blocks" {
		t.Fatalf("got %q", got)
	}
	got := FieldName("blocks", map[string]any{"workspace_id": "ws", "folder_id": "f"})
	if want := `blocks({"folder_id":"f","workspace_id":"ws"})`; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if fieldBase(got) != "blocks" {
		t.Fatalf("fieldBase: %q", fieldBase(got))
	}
}

func TestModify_AppliesToEveryArgumentVariant(t *testing.T) {
	s := New()
	_ = s.Batch(func(tx *Tx) error {
		tx.Write(RootQuery, Record{
			"blocks": []model.Ref{model.DocumentRef("A"), model.DocumentRef("B")},
			FieldName("blocks", map[string]any{"folder_id": "f"}): []model.Ref{model.DocumentRef("B")},
			"blocks_other": []model.Ref{model.DocumentRef("B")},
		})
		return nil
	})

	_ = s.Batch(func(tx *Tx) error {
		tx.Modify(RootQuery, "blocks", func(v any) any {
			return RemoveFromCollection(AsRefs(v), HasID("B"))
		})
		return nil
	})

	v, _ := s.ReadField(RootQuery, "blocks")
	if got := AsRefs(v); !reflect.DeepEqual(got, []model.Ref{model.DocumentRef("A")}) {
		t.Fatalf("blocks: %v", got)
	}
	v, _ = s.ReadField(RootQuery, FieldName("blocks", map[string]any{"folder_id": "f"}))
	if got := AsRefs(v); len(got) != 0 {
		t.Fatalf("blocks(folder): %v", got)
	}
	v, _ = s.ReadField(RootQuery, "blocks_other")
	if got := AsRefs(v); len(got) != 1 {
		t.Fatalf("unrelated field touched: %v", got)
	}
}

func TestBatch_ErrorDiscardsChanges(t *testing.T) {
	s := seed(t)
	before := s.Fingerprint()
	err := s.Batch(func(tx *Tx) error {
		tx.Evict(KeyOf(model.TypeFolders, "F"))
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if s.Fingerprint() != before {
		t.Fatalf("expected cache unchanged after failed batch")
	}
}

func TestEvictThenGC(t *testing.T) {
	s := seed(t)
	_ = s.Batch(func(tx *Tx) error {
		tx.Modify(RootQuery, "folders", func(v any) any {
			return RemoveFromCollection(AsRefs(v), HasID("P"))
		})
		tx.Evict(KeyOf(model.TypeFolders, "P"))
		if removed := tx.GC(); len(removed) != 0 {
			t.Fatalf("F and G are still referenced from root; removed %v", removed)
		}
		return nil
	})
	if _, err := s.Lookup(model.TypeFolders, "P"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected P evicted; got %v", err)
	}

	_ = s.Batch(func(tx *Tx) error {
		tx.Write(KeyOf(model.TypeBlocks, "orphan"), Record{"id": "orphan"})
		removed := tx.GC()
		if len(removed) != 1 || removed[0] != KeyOf(model.TypeBlocks, "orphan") {
			t.Fatalf("expected orphan collected; got %v", removed)
		}
		return nil
	})
}

func TestRetainProtectsFromGC(t *testing.T) {
	s := New()
	k := KeyOf(model.TypeBlocks, "kept")
	s.Retain(k)
	_ = s.Batch(func(tx *Tx) error {
		tx.Write(k, Record{"id": "kept"})
		tx.GC()
		return nil
	})
	if _, err := s.Read(k); err != nil {
		t.Fatalf("retained record collected: %v", err)
	}
	s.Release(k)
	_ = s.Batch(func(tx *Tx) error {
		tx.GC()
		return nil
	})
	if _, err := s.Read(k); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected released record collected; got %v", err)
	}
}

func TestOptimisticLayer_RemoveRestoresCommittedState(t *testing.T) {
	s := seed(t)
	before := s.Fingerprint()

	s.AddOptimistic("tx-1", func(tx *Tx) {
		tx.Modify(RootQuery, "folders", func(v any) any {
			return RemoveFromCollection(AsRefs(v), HasID("F"))
		})
		tx.Evict(KeyOf(model.TypeFolders, "F"))
	})
	if _, err := s.Lookup(model.TypeFolders, "F"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected optimistic eviction to be visible")
	}
	if _, ok := s.Extract(false)[KeyOf(model.TypeFolders, "F")]; !ok {
		t.Fatalf("committed state must not see the optimistic layer")
	}

	s.RemoveOptimistic("tx-1")
	if s.Fingerprint() != before {
		t.Fatalf("expected identical cache after dropping the layer")
	}
}

func TestOptimisticLayer_ReplayedOverCommits(t *testing.T) {
	s := seed(t)
	s.AddOptimistic("tx-1", func(tx *Tx) {
		tx.Evict(KeyOf(model.TypeFolders, "G"))
	})
	_ = s.Batch(func(tx *Tx) error {
		tx.Write(KeyOf(model.TypeFolders, "F"), Record{"name": "renamed"})
		return nil
	})
	if _, err := s.Lookup(model.TypeFolders, "G"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("layer lost after commit")
	}
	rec, err := s.Lookup(model.TypeFolders, "F")
	if err != nil || rec["name"] != "renamed" {
		t.Fatalf("commit not visible under layer: %v %v", rec, err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := seed(t)
	b, err := json.Marshal(s.Extract(false))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	snap, err := UnmarshalSnapshot(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s2 := New()
	s2.Restore(snap)
	if s2.Fingerprint() != s.Fingerprint() {
		t.Fatalf("restored cache differs")
	}
	v, _ := s2.ReadField(KeyOf(model.TypeFolders, "P"), "children")
	if got := AsRefs(v); len(got) != 2 {
		t.Fatalf("children did not decode as refs: %#v", v)
	}
	v, _ = s2.ReadField(RootQuery, FieldName("blocks_aggregate", map[string]any{"workspace_id": "ws"}))
	if agg := AsAggregate(v); agg == nil || agg.Aggregate.Count != 3 {
		t.Fatalf("aggregate did not decode: %#v", v)
	}
}

func TestSettle_DropsLayerAndCommits(t *testing.T) {
	s := seed(t)
	s.AddOptimistic("tx-1", func(tx *Tx) {
		tx.Evict(KeyOf(model.TypeFolders, "G"))
	})
	err := s.Settle("tx-1", func(tx *Tx) error {
		tx.Write(KeyOf(model.TypeFolders, "G"), Record{"name": "kept"})
		return nil
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	rec, err := s.Lookup(model.TypeFolders, "G")
	if err != nil || rec["name"] != "kept" {
		t.Fatalf("expected committed write without the layer; got %v %v", rec, err)
	}

	before := s.Fingerprint()
	s.AddOptimistic("tx-2", func(tx *Tx) { tx.Evict(KeyOf(model.TypeFolders, "F")) })
	boom := errors.New("boom")
	if err := s.Settle("tx-2", func(*Tx) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected patch error; got %v", err)
	}
	if s.Fingerprint() != before {
		t.Fatalf("failed settle must leave the committed state untouched")
	}
}
