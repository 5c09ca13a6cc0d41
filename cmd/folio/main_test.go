package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"folio"},
			want: []string{"folio"},
		},
		{
			name: "document id first token",
			in:   []string{"folio", "doc-abc123"},
			want: []string{"folio", "cache", "show", "doc-abc123"},
		},
		{
			name: "folder id after value flag",
			in:   []string{"folio", "--workspace", "ws-1", "fld-abc123"},
			want: []string{"folio", "--workspace", "ws-1", "cache", "show", "fld-abc123"},
		},
		{
			name: "id after equals flag",
			in:   []string{"folio", "--user=alice", "doc-abc123"},
			want: []string{"folio", "--user=alice", "cache", "show", "doc-abc123"},
		},
		{
			name: "id after bool flag",
			in:   []string{"folio", "--pretty", "doc-abc123"},
			want: []string{"folio", "--pretty", "cache", "show", "doc-abc123"},
		},
		{
			name: "id after double dash",
			in:   []string{"folio", "--format", "edn", "--", "fld-abc123"},
			want: []string{"folio", "--format", "edn", "--", "cache", "show", "fld-abc123"},
		},
		{
			name: "workspace value that looks like an id is not rewritten",
			in:   []string{"folio", "--workspace", "doc-abc123", "sync"},
			want: []string{"folio", "--workspace", "doc-abc123", "sync"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"folio", "cache", "show", "doc-abc123"},
			want: []string{"folio", "cache", "show", "doc-abc123"},
		},
		{
			name: "bare prefix not rewritten",
			in:   []string{"folio", "doc-"},
			want: []string{"folio", "doc-"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
