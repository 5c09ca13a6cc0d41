package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Envelope is the shape of every CLI result: data, optional meta and
// follow-up command hints.
type Envelope struct {
	Data  any            `json:"data"`
	Meta  map[string]any `json:"meta,omitempty"`
	Hints []string       `json:"_hints,omitempty"`
}

// Write writes v as json (default) or edn.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("unknown format: %s (expected json|edn)", format)
	}
}

// WriteJSON writes strict JSON followed by a newline. HTML characters are
// left unescaped so markdown and URLs print as-is.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
