package document

import (
	"strconv"

	"github.com/agentic-research/trellis/internal/docpath"
)

// ValueAt walks the document to the value addressed by p. The second
// return is false when any segment does not resolve. An index segment
// against an object is read as its decimal string key, matching the
// patcher's write-side coercion.
func ValueAt(doc any, p docpath.Path) (any, bool) {
	cur := doc
	for _, seg := range p {
		switch c := cur.(type) {
		case *Object:
			key := seg.Key
			if seg.Kind == docpath.IndexSegment {
				key = strconv.Itoa(seg.Index)
			}
			v, ok := c.Get(key)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if seg.Kind != docpath.IndexSegment || seg.Index < 0 || seg.Index >= len(c) {
				return nil, false
			}
			cur = c[seg.Index]
		default:
			return nil, false
		}
	}
	return cur, true
}
