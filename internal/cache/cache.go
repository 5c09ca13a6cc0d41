package cache

import (
	"errors"
	"reflect"
	"sort"
	"sync"
)

// Record maps store field names to values. Values are scalars (string, int,
// float64, bool, nil), model.Ref, []model.Ref, *model.Aggregate or nested
// map[string]any. Records are copy-on-write: never mutate one obtained from
// the cache.
type Record map[string]any

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Modifier maps the existing value of a field (nil when absent) to its new value.
type Modifier func(existing any) any

var ErrNotFound = errors.New("cache: record not found")

type layer struct {
	id    string
	patch func(*Tx)
}

// Store is a normalized cache. Committed state lives in base; optimistic
// layers are replayed over base into view whenever either changes.
type Store struct {
	mu       sync.RWMutex
	base     map[Key]Record
	retained map[Key]int
	layers   []layer
	view     map[Key]Record
	version  uint64
}

func New() *Store {
	s := &Store{
		base:     map[Key]Record{RootQuery: {}},
		retained: map[Key]int{},
	}
	s.view = s.base
	return s
}

// Batch runs fn as one transaction against the committed state. If fn returns
// an error nothing is applied.
func (s *Store) Batch(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(s.base, s.retained)
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.changed {
		return nil
	}
	s.base = tx.recs
	s.refreshLocked()
	return nil
}

// AddOptimistic layers a tentative patch over the committed state. The patch
// is replayed on every commit until RemoveOptimistic(id) drops it.
func (s *Store) AddOptimistic(id string, patch func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, layer{id: id, patch: patch})
	s.refreshLocked()
}

func (s *Store) RemoveOptimistic(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.layers[:0]
	removed := false
	for _, l := range s.layers {
		if l.id == id {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	s.layers = kept
	if removed {
		s.refreshLocked()
	}
}

// Settle drops optimistic layer id and commits fn in the same critical
// section, so readers never observe the gap between the two. A failing fn
// still drops the layer.
func (s *Store) Settle(id string, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.layers[:0]
	for _, l := range s.layers {
		if l.id != id {
			kept = append(kept, l)
		}
	}
	s.layers = kept

	var err error
	if fn != nil {
		tx := newTx(s.base, s.retained)
		if err = fn(tx); err == nil && tx.changed {
			s.base = tx.recs
		}
	}
	s.refreshLocked()
	return err
}

func (s *Store) refreshLocked() {
	s.version++
	if len(s.layers) == 0 {
		s.view = s.base
		return
	}
	tx := newTx(s.base, s.retained)
	for _, l := range s.layers {
		l.patch(tx)
	}
	s.view = tx.recs
}

// Version increases on every committed or optimistic change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Lookup reads an entity record from the optimistic view.
func (s *Store) Lookup(typename, id string) (Record, error) {
	return s.Read(KeyOf(typename, id))
}

func (s *Store) Read(k Key) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.view[k]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

// ReadField reads one store field from the optimistic view.
func (s *Store) ReadField(k Key, field string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.view[k]
	if !ok {
		return nil, false
	}
	v, ok := rec[field]
	return v, ok
}

// Keys lists record keys of the given typename ("" for all), sorted.
func (s *Store) Keys(typename string) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.view, typename)
}

// Retain protects a record from GC even when nothing references it.
func (s *Store) Retain(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retained[k]++
}

func (s *Store) Release(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retained[k] <= 1 {
		delete(s.retained, k)
		return
	}
	s.retained[k]--
}

// Tx is a copy-on-write view of the record map used inside Batch and
// optimistic layers.
type Tx struct {
	recs     map[Key]Record
	retained map[Key]int
	owned    bool
	changed  bool
}

func newTx(recs map[Key]Record, retained map[Key]int) *Tx {
	return &Tx{recs: recs, retained: retained}
}

func (tx *Tx) own() {
	if tx.owned {
		return
	}
	next := make(map[Key]Record, len(tx.recs))
	for k, v := range tx.recs {
		next[k] = v
	}
	tx.recs = next
	tx.owned = true
}

func (tx *Tx) Read(k Key) (Record, bool) {
	rec, ok := tx.recs[k]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

func (tx *Tx) ReadField(k Key, field string) (any, bool) {
	rec, ok := tx.recs[k]
	if !ok {
		return nil, false
	}
	v, ok := rec[field]
	return v, ok
}

func (tx *Tx) Keys(typename string) []Key {
	return sortedKeys(tx.recs, typename)
}

// HasField reports whether the record at k holds any argument variant of field.
func (tx *Tx) HasField(k Key, field string) bool {
	for name := range tx.recs[k] {
		if fieldBase(name) == field {
			return true
		}
	}
	return false
}

// Write merges fields into the record at k, creating it if needed.
func (tx *Tx) Write(k Key, fields Record) {
	cur := tx.recs[k]
	next := cur.clone()
	dirty := cur == nil
	for f, v := range fields {
		if old, ok := cur[f]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		next[f] = v
		dirty = true
	}
	if !dirty {
		return
	}
	tx.own()
	tx.recs[k] = next
	tx.changed = true
}

// Modify applies fn to every store field of the record at k whose base name
// is field, i.e. to every argument variant of it. Missing records are left
// alone; a variant is only written when fn changes its value. It reports
// whether anything changed.
func (tx *Tx) Modify(k Key, field string, fn Modifier) bool {
	cur, ok := tx.recs[k]
	if !ok {
		return false
	}
	var next Record
	for name, v := range cur {
		if fieldBase(name) != field {
			continue
		}
		nv := fn(v)
		if reflect.DeepEqual(nv, v) {
			continue
		}
		if next == nil {
			next = cur.clone()
		}
		next[name] = nv
	}
	if next == nil {
		return false
	}
	tx.own()
	tx.recs[k] = next
	tx.changed = true
	return true
}

// Evict removes the record at k. Evicting RootQuery only clears its fields.
func (tx *Tx) Evict(k Key) bool {
	if _, ok := tx.recs[k]; !ok {
		return false
	}
	tx.own()
	if k == RootQuery {
		tx.recs[k] = Record{}
	} else {
		delete(tx.recs, k)
	}
	tx.changed = true
	return true
}

// GC removes every record not reachable from RootQuery or a retained key and
// returns the removed keys, sorted.
func (tx *Tx) GC() []Key {
	seen := map[Key]bool{}
	var queue []Key
	mark := func(k Key) {
		if seen[k] {
			return
		}
		seen[k] = true
		queue = append(queue, k)
	}
	mark(RootQuery)
	for k := range tx.retained {
		if _, ok := tx.recs[k]; ok {
			mark(k)
		}
	}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, v := range tx.recs[k] {
			walkRefs(v, func(ref Key) {
				if _, ok := tx.recs[ref]; ok {
					mark(ref)
				}
			})
		}
	}

	var removed []Key
	for k := range tx.recs {
		if !seen[k] {
			removed = append(removed, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	tx.own()
	for _, k := range removed {
		delete(tx.recs, k)
	}
	tx.changed = true
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed
}

func sortedKeys(recs map[Key]Record, typename string) []Key {
	out := make([]Key, 0, len(recs))
	for k := range recs {
		if typename != "" && k.Typename() != typename {
			continue
		}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
