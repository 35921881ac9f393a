package api

import "github.com/agentic-research/trellis/internal/graph"

// FromRow converts one graph row into its view.
func FromRow(r graph.Row) RowView {
	return RowView{
		Key:    r.Key,
		HasKey: r.HasKey,
		Kind:   r.Kind.String(),
		Value:  r.Value,
	}
}

// FromNode converts a graph node into its view. A nil node converts to nil.
func FromNode(n *graph.Node) *NodeView {
	if n == nil {
		return nil
	}
	v := &NodeView{
		ID:       n.ID,
		Path:     n.Path.String(),
		Kind:     n.Kind.String(),
		Width:    n.Width,
		Height:   n.Height,
		Size:     n.Size,
		Children: n.Children,
	}
	if len(n.Rows) > 0 {
		v.Rows = make([]RowView, len(n.Rows))
		for i, r := range n.Rows {
			v.Rows[i] = FromRow(r)
		}
	}
	return v
}

// FromGraph converts a whole graph, nodes in depth-first document order.
func FromGraph(g *graph.Graph, generation uint64) *GraphView {
	view := &GraphView{Generation: generation}
	if g == nil {
		return view
	}
	view.Nodes = make([]NodeView, 0, g.Len())
	for _, n := range g.Nodes() {
		view.Nodes = append(view.Nodes, *FromNode(n))
	}
	return view
}

// FromStats converts graph stats into their view.
func FromStats(s graph.Stats, generation uint64) StatsView {
	return StatsView{
		Generation: generation,
		Nodes:      s.Nodes,
		Objects:    s.Objects,
		Arrays:     s.Arrays,
		Scalars:    s.Scalars,
		MaxDepth:   s.MaxDepth,
		Bytes:      s.Bytes,
	}
}
