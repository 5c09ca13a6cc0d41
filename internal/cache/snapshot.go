package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"folio-cli/internal/model"
)

// Snapshot is a serializable copy of the record map.
type Snapshot map[Key]Record

// Extract copies the cache state. With optimistic set, tentative layers are
// included; otherwise only committed state is returned.
func (s *Store) Extract(optimistic bool) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.base
	if optimistic {
		src = s.view
	}
	out := make(Snapshot, len(src))
	for k, v := range src {
		out[k] = v.clone()
	}
	return out
}

// Restore replaces the committed state with snap and drops optimistic layers.
func (s *Store) Restore(snap Snapshot) {
	recs := make(map[Key]Record, len(snap)+1)
	for k, rec := range snap {
		next := make(Record, len(rec))
		for f, v := range rec {
			next[f] = normalizeValue(v)
		}
		recs[k] = next
	}
	if _, ok := recs[RootQuery]; !ok {
		recs[RootQuery] = Record{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = recs
	s.layers = nil
	s.refreshLocked()
}

// Fingerprint hashes the canonical JSON encoding of the optimistic view. Two
// equal fingerprints mean the caches are identical field for field.
func (s *Store) Fingerprint() string {
	b, err := json.Marshal(s.Extract(true))
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// UnmarshalSnapshot decodes JSON produced by json.Marshal(Snapshot).
func UnmarshalSnapshot(b []byte) (Snapshot, error) {
	var raw map[Key]map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make(Snapshot, len(raw))
	for k, rec := range raw {
		next := make(Record, len(rec))
		for f, v := range rec {
			next[f] = normalizeValue(v)
		}
		out[k] = next
	}
	return out, nil
}

// normalizeValue turns decoded JSON back into the typed values the patch
// primitives expect.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if ref, ok := asRef(x); ok {
			return ref
		}
		if agg, ok := x["aggregate"]; ok && len(x) == 1 {
			m, _ := agg.(map[string]any)
			if m == nil {
				return &model.Aggregate{}
			}
			n, _ := m["count"].(float64)
			return &model.Aggregate{Aggregate: &model.AggregateCount{Count: int(n)}}
		}
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = normalizeValue(vv)
		}
		return out
	case []any:
		refs := make([]model.Ref, 0, len(x))
		for _, e := range x {
			m, ok := e.(map[string]any)
			if !ok {
				return x
			}
			ref, ok := asRef(m)
			if !ok {
				return x
			}
			refs = append(refs, ref)
		}
		return refs
	default:
		return v
	}
}

func asRef(m map[string]any) (model.Ref, bool) {
	if len(m) != 2 {
		return model.Ref{}, false
	}
	t, ok1 := m["__typename"].(string)
	id, ok2 := m["id"].(string)
	if !ok1 || !ok2 {
		return model.Ref{}, false
	}
	return model.Ref{Typename: t, ID: id}, true
}

func walkRefs(v any, fn func(Key)) {
	switch x := v.(type) {
	case model.Ref:
		fn(KeyOfRef(x))
	case []model.Ref:
		for _, r := range x {
			fn(KeyOfRef(r))
		}
	case map[string]any:
		for _, vv := range x {
			walkRefs(vv, fn)
		}
	case []any:
		for _, vv := range x {
			walkRefs(vv, fn)
		}
	}
}
