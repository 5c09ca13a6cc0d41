package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes v as EDN. Values go through JSON first so json tags decide
// field names; the result is a subset of EDN (maps, vectors, strings, numbers,
// booleans, nil).
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := ednEncoder{pretty: pretty, indent: 2}
	enc.writeAny(&buf, x, 0)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

type ednEncoder struct {
	pretty bool
	indent int
}

func (e ednEncoder) writeAny(buf *bytes.Buffer, v any, level int) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("nil")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		buf.WriteString(strconv.Quote(t))
	case json.Number:
		buf.WriteString(t.String())
	case []any:
		e.writeColl(buf, '[', ']', len(t), level, func(i int) { e.writeAny(buf, t[i], level+1) })
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.writeColl(buf, '{', '}', len(keys), level, func(i int) {
			buf.WriteString(ednKey(keys[i]))
			buf.WriteByte(' ')
			e.writeAny(buf, t[keys[i]], level+1)
		})
	default:
		buf.WriteString(strconv.Quote(fmt.Sprintf("%v", v)))
	}
}

func (e ednEncoder) writeColl(buf *bytes.Buffer, open, close byte, n, level int, item func(i int)) {
	buf.WriteByte(open)
	if n == 0 {
		buf.WriteByte(close)
		return
	}
	for i := 0; i < n; i++ {
		switch {
		case e.pretty:
			buf.WriteByte('\n')
			buf.WriteString(strings.Repeat(" ", (level+1)*e.indent))
		case i > 0:
			buf.WriteByte(' ')
		}
		item(i)
	}
	if e.pretty {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(" ", level*e.indent))
	}
	buf.WriteByte(close)
}

// ednKey renders a map key as a keyword when it is a valid one, else as a
// string. Cache field names with arguments (`blocks({"workspace_id":"ws"})`)
// take the string form.
func ednKey(k string) string {
	if isKeyword(k) {
		return ":" + k
	}
	return strconv.Quote(k)
}

func isKeyword(k string) bool {
	if k == "" || (k[0] >= '0' && k[0] <= '9') {
		return false
	}
	for _, r := range k {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("*+!-_?.<>=/", r):
		default:
			return false
		}
	}
	return true
}
