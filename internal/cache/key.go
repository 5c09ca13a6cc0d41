package cache

import (
	"encoding/json"
	"strings"

	"folio-cli/internal/model"
)

// RootQuery is the record holding root-level collections (folders, blocks, aggregates).
const RootQuery Key = "ROOT_QUERY"

// Key identifies one normalized record: "<typename>:<id>", or RootQuery.
type Key string

func KeyOf(typename, id string) Key {
	return Key(typename + ":" + id)
}

func KeyOfRef(r model.Ref) Key {
	return KeyOf(r.Typename, r.ID)
}

func (k Key) Typename() string {
	t, _, ok := strings.Cut(string(k), ":")
	if !ok {
		return ""
	}
	return t
}

func (k Key) ID() string {
	_, id, ok := strings.Cut(string(k), ":")
	if !ok {
		return ""
	}
	return id
}

// FieldName returns the store field name for a field read with arguments.
// Arguments are encoded as JSON with sorted keys so equal argument sets share a slot:
//
//	blocks({"workspace_id":"ws-1"})
func FieldName(name string, args map[string]any) string {
	if len(args) == 0 {
		return name
	}
	b, err := json.Marshal(args)
	if err != nil {
		return name
	}
	return name + "(" + string(b) + ")"
}

// fieldBase strips the argument suffix from a store field name.
func fieldBase(storeName string) string {
	if i := strings.IndexByte(storeName, '('); i >= 0 {
		return storeName[:i]
	}
	return storeName
}
