package graph

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
)

// Build walks a document depth-first and constructs its graph: exactly one
// node per addressable location, children in document order. Building the
// same document twice yields identical node IDs, paths, and ordering.
func Build(doc any) *Graph {
	g := &Graph{
		doc:    doc,
		byID:   make(map[string]*Node),
		byPath: make(map[string]*Node),
		kinds:  make(map[Kind]*roaring.Bitmap),
	}
	b := &builder{g: g}
	b.walk(doc, docpath.Path{}, "/")
	return g
}

type builder struct {
	g *Graph
}

func (b *builder) walk(v any, p docpath.Path, id string) *Node {
	node := &Node{
		ID:   id,
		Path: p,
		Kind: KindOf(v),
		Rows: ProjectRows(v),
	}
	node.Width, node.Height = measure(node.Rows)
	if rendered, err := document.Serialize(v); err == nil {
		node.Size = int64(len(rendered))
	}

	ordinal := uint32(len(b.g.nodes))
	b.g.nodes = append(b.g.nodes, node)
	b.g.byID[id] = node
	b.g.byPath[p.String()] = node
	bm := b.g.kinds[node.Kind]
	if bm == nil {
		bm = roaring.New()
		b.g.kinds[node.Kind] = bm
	}
	bm.Add(ordinal)
	if len(p) > b.g.maxDepth {
		b.g.maxDepth = len(p)
	}

	switch t := v.(type) {
	case *document.Object:
		for _, m := range t.Members() {
			child := b.walk(m.Value, p.Child(docpath.Key(m.Key)), childID(id, EscapeSegment(m.Key)))
			node.Children = append(node.Children, child.ID)
		}
	case []any:
		for i, el := range t {
			child := b.walk(el, p.Child(docpath.Index(i)), childID(id, strconv.Itoa(i)))
			node.Children = append(node.Children, child.ID)
		}
	}
	return node
}

func childID(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// EscapeSegment makes an object key safe for use in node IDs and mount
// entry names. Besides percent-escaping, the empty key becomes "%", dot
// names are escaped, and a leading underscore is escaped so keys can never
// collide with the mount layer's "_"-prefixed virtual files.
func EscapeSegment(key string) string {
	esc := url.PathEscape(key)
	switch esc {
	case "":
		return "%"
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	if strings.HasPrefix(esc, "_") {
		return "%5F" + esc[1:]
	}
	return esc
}
