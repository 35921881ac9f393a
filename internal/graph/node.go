package graph

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/agentic-research/trellis/internal/document"
)

// Kind classifies the value a node projects.
type Kind uint8

const (
	KindObject Kind = iota
	KindArray
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	}
	return "unknown"
}

// KindOf returns the kind of a document value.
func KindOf(v any) Kind {
	switch v.(type) {
	case *document.Object:
		return KindObject
	case []any:
		return KindArray
	}
	return KindScalar
}

// Row is one display line of a node. HasKey distinguishes a missing key
// from the legal empty-string object key; array entries carry their
// decimal index as the key.
type Row struct {
	Key    string
	HasKey bool
	Kind   Kind
	Value  string
}

// ProjectRows renders the display rows for a value: one row per object
// member or array element with a child summary, or a single keyless row
// holding a scalar's text.
func ProjectRows(v any) []Row {
	switch t := v.(type) {
	case *document.Object:
		rows := make([]Row, 0, t.Len())
		for _, m := range t.Members() {
			rows = append(rows, Row{
				Key:    m.Key,
				HasKey: true,
				Kind:   KindOf(m.Value),
				Value:  Summarize(m.Value),
			})
		}
		return rows
	case []any:
		rows := make([]Row, 0, len(t))
		for i, el := range t {
			rows = append(rows, Row{
				Key:    strconv.Itoa(i),
				HasKey: true,
				Kind:   KindOf(el),
				Value:  Summarize(el),
			})
		}
		return rows
	default:
		return []Row{{Kind: KindScalar, Value: ScalarText(v)}}
	}
}

// Summarize renders the one-line preview of a value: "{N keys}" for
// objects, "[N items]" for arrays, the literal text for scalars.
func Summarize(v any) string {
	switch t := v.(type) {
	case *document.Object:
		return fmt.Sprintf("{%d keys}", t.Len())
	case []any:
		return fmt.Sprintf("[%d items]", len(t))
	default:
		return ScalarText(v)
	}
}

// ScalarText renders a scalar the way it reads in the document, except
// strings, which appear unquoted.
func ScalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// RowsEqual reports whether two row slices render identically.
func RowsEqual(a, b []Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Display sizing. Width follows the longest row, clamped so degenerate
// documents cannot produce unusably narrow or wide nodes.
const (
	minNodeWidth = 10
	maxNodeWidth = 60
)

func measure(rows []Row) (width, height int) {
	width = minNodeWidth
	for _, r := range rows {
		n := utf8.RuneCountInString(r.Value)
		if r.HasKey {
			n += utf8.RuneCountInString(r.Key) + 2
		}
		if n > width {
			width = n
		}
	}
	if width > maxNodeWidth {
		width = maxNodeWidth
	}
	return width, len(rows)
}
