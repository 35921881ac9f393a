// Package graph projects a document into a node graph: one node per
// addressable location, each with display rows, a path, and child links.
// A Graph is immutable once built; edits build a new graph and swap it in.
package graph

import (
	"errors"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
)

var ErrNotFound = errors.New("node not found")

// Node is one addressable location of a document.
type Node struct {
	ID       string // slash path with escaped segments, "/" for the root
	Path     docpath.Path
	Kind     Kind
	Rows     []Row
	Children []string // child node IDs in document order
	Width    int
	Height   int
	Size     int64 // canonical serialized length of the subtree
}

// SameDisplay reports whether a re-render of n would look identical to
// other: same rows and same width. Views use this to skip repaints.
func (n *Node) SameDisplay(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.Width == other.Width && RowsEqual(n.Rows, other.Rows)
}

// Graph indexes the nodes built from one document.
type Graph struct {
	doc    any
	nodes  []*Node // depth-first document order, root first
	byID   map[string]*Node
	byPath map[string]*Node
	kinds  map[Kind]*roaring.Bitmap

	maxDepth int
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns all nodes in depth-first document order. Callers must not
// modify the slice.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Root returns the root node.
func (g *Graph) Root() *Node {
	if len(g.nodes) == 0 {
		return nil
	}
	return g.nodes[0]
}

// NodeByID looks a node up by its slash-path ID. A missing leading slash
// is tolerated.
func (g *Graph) NodeByID(id string) (*Node, error) {
	if id == "" {
		id = "/"
	}
	if id[0] != '/' {
		id = "/" + id
	}
	n, ok := g.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// FindByPath returns the unique node whose path equals p, or nil when the
// location does not exist in this graph.
func (g *Graph) FindByPath(p docpath.Path) *Node {
	return g.byPath[p.String()]
}

// ValueAt returns the document value a node projects.
func (g *Graph) ValueAt(p docpath.Path) (any, bool) {
	return document.ValueAt(g.doc, p)
}

// NodesOfKind returns all nodes of one kind in document order.
func (g *Graph) NodesOfKind(k Kind) []*Node {
	bm := g.kinds[k]
	if bm == nil {
		return nil
	}
	out := make([]*Node, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, g.nodes[it.Next()])
	}
	return out
}

// CountOfKind returns how many nodes project values of kind k.
func (g *Graph) CountOfKind(k Kind) int {
	bm := g.kinds[k]
	if bm == nil {
		return 0
	}
	return int(bm.GetCardinality())
}

// Stats summarizes a graph.
type Stats struct {
	Nodes    int
	Objects  int
	Arrays   int
	Scalars  int
	MaxDepth int
	Bytes    int64
}

// Stats computes summary counts from the kind bitmaps.
func (g *Graph) Stats() Stats {
	s := Stats{
		Nodes:    len(g.nodes),
		Objects:  g.CountOfKind(KindObject),
		Arrays:   g.CountOfKind(KindArray),
		Scalars:  g.CountOfKind(KindScalar),
		MaxDepth: g.maxDepth,
	}
	if root := g.Root(); root != nil {
		s.Bytes = root.Size
	}
	return s
}
