// Package patch mutates document values in place: it applies an edited
// value at a path, synthesizing missing intermediate objects and shallow
// merging objects at the target.
package patch

import (
	"strconv"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
)

// Apply writes value into doc at path p and returns the document root,
// which may differ from doc when the root itself is replaced. Apply is a
// total function: it never fails, and structural mismatches degrade to
// deterministic no-ops.
//
//   - The empty path replaces the whole document with value, no merge.
//   - A missing or non-container value at a walked position is replaced by
//     a fresh empty object. Arrays are never synthesized or extended.
//   - At the target, two objects shallow merge: existing members keep
//     their order and are overwritten in place, new members append in the
//     edited value's order. Any other combination replaces.
//   - An index segment against an object is coerced to its decimal string
//     key. A key segment against an array, or an out-of-range index, drops
//     the write while the walk continues into a detached object.
func Apply(doc any, p docpath.Path, value any) any {
	if len(p) == 0 {
		return value
	}

	root := doc
	if !isContainer(root) {
		root = document.NewObject()
	}

	cur := root
	for _, seg := range p[:len(p)-1] {
		next := getChild(cur, seg)
		if !isContainer(next) {
			next = document.NewObject()
			setChild(cur, seg, next)
		}
		cur = next
	}

	last := p[len(p)-1]
	setChild(cur, last, merge(getChild(cur, last), value))
	return root
}

// merge implements the shallow-merge rule: only an object merged into an
// object merges, everything else replaces. The existing object is mutated
// and returned.
func merge(existing, value any) any {
	src, ok := value.(*document.Object)
	if !ok || src == nil {
		return value
	}
	dst, ok := existing.(*document.Object)
	if !ok || dst == nil {
		return value
	}
	for _, m := range src.Members() {
		dst.Set(m.Key, m.Value)
	}
	return dst
}

func isContainer(v any) bool {
	switch c := v.(type) {
	case *document.Object:
		return c != nil
	case []any:
		return true
	}
	return false
}

func getChild(container any, seg docpath.Segment) any {
	switch c := container.(type) {
	case *document.Object:
		v, _ := c.Get(objectKey(seg))
		return v
	case []any:
		if seg.Kind == docpath.IndexSegment && seg.Index >= 0 && seg.Index < len(c) {
			return c[seg.Index]
		}
	}
	return nil
}

func setChild(container any, seg docpath.Segment, v any) {
	switch c := container.(type) {
	case *document.Object:
		c.Set(objectKey(seg), v)
	case []any:
		if seg.Kind == docpath.IndexSegment && seg.Index >= 0 && seg.Index < len(c) {
			c[seg.Index] = v
		}
	}
}

func objectKey(seg docpath.Segment) string {
	if seg.Kind == docpath.IndexSegment {
		return strconv.Itoa(seg.Index)
	}
	return seg.Key
}
