package cache

import "folio-cli/internal/model"

// Patch primitives. All of them are pure: inputs are never mutated, and a call
// whose target is already absent returns its input unchanged.

// RemoveFromCollection returns refs without the entries matching pred.
// Unmatched entries keep their relative order.
func RemoveFromCollection(refs []model.Ref, pred func(model.Ref) bool) []model.Ref {
	idx := -1
	for i, r := range refs {
		if pred(r) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return refs
	}
	out := make([]model.Ref, 0, len(refs)-1)
	out = append(out, refs[:idx]...)
	for _, r := range refs[idx+1:] {
		if !pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// AppendToCollection appends ref to the end of refs. A nil collection is
// treated as empty; a ref that is already present leaves refs unchanged.
func AppendToCollection(refs []model.Ref, ref model.Ref) []model.Ref {
	for _, r := range refs {
		if r == ref {
			return refs
		}
	}
	out := make([]model.Ref, 0, len(refs)+1)
	out = append(out, refs...)
	return append(out, ref)
}

// AdjustAggregate returns a copy of agg with count += delta.
// A missing aggregate has nothing to adjust and is returned as-is.
func AdjustAggregate(agg *model.Aggregate, delta int) *model.Aggregate {
	if agg == nil || agg.Aggregate == nil {
		return agg
	}
	return &model.Aggregate{
		Aggregate: &model.AggregateCount{Count: agg.Aggregate.Count + delta},
	}
}

// HasID is the usual RemoveFromCollection predicate.
func HasID(id string) func(model.Ref) bool {
	return func(r model.Ref) bool { return r.ID == id }
}

// AsRefs reads a collection field value. Absent or foreign values read as nil.
func AsRefs(v any) []model.Ref {
	refs, _ := v.([]model.Ref)
	return refs
}

func AsAggregate(v any) *model.Aggregate {
	agg, _ := v.(*model.Aggregate)
	return agg
}
