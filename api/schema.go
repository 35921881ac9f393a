// Package api defines the wire types shared by the HTTP server, the MCP
// server, and their clients.
package api

import "encoding/json"

// RowView is one display row of a node.
type RowView struct {
	// Key is the member key, or the element index rendered in decimal.
	Key string `json:"key,omitempty"`
	// HasKey distinguishes a keyless scalar row from an empty string key.
	HasKey bool `json:"has_key"`
	// Kind of the row's value: object, array, or scalar.
	Kind string `json:"kind"`
	// Value is the row's display text, e.g. {2 keys}, [3 items], or the
	// scalar's literal.
	Value string `json:"value"`
}

// NodeView describes one addressable location of the document.
type NodeView struct {
	// ID is the node's stable slash-path identifier.
	ID string `json:"id"`
	// Path is the display form, e.g. $["customer"][2].
	Path string `json:"path"`
	// Kind of the node's value: object, array, or scalar.
	Kind string `json:"kind"`
	// Width and Height of the rendered node in cells.
	Width  int `json:"width"`
	Height int `json:"height"`
	// Size is the canonical serialized length of the subtree in bytes.
	Size int64 `json:"size"`
	// Rows of the rendered node, in document order.
	Rows []RowView `json:"rows,omitempty"`
	// Children holds the IDs of child nodes, in document order.
	Children []string `json:"children,omitempty"`
}

// GraphView is the whole node graph of one document generation.
type GraphView struct {
	Generation uint64     `json:"generation"`
	Nodes      []NodeView `json:"nodes,omitempty"`
}

// StatsView summarizes a graph.
type StatsView struct {
	Generation uint64 `json:"generation"`
	Nodes      int    `json:"nodes"`
	Objects    int    `json:"objects"`
	Arrays     int    `json:"arrays"`
	Scalars    int    `json:"scalars"`
	MaxDepth   int    `json:"max_depth"`
	// Bytes is the canonical serialized length of the document.
	Bytes int64 `json:"bytes"`
}

// DocumentView carries the canonical document text.
type DocumentView struct {
	Text       string `json:"text"`
	Bytes      int    `json:"bytes"`
	Generation uint64 `json:"generation"`
}

// EditRequest writes a value at one path.
type EditRequest struct {
	// Path in display form, e.g. $["customer"][2].
	Path string `json:"path"`
	// Value is the raw JSON to write at Path.
	Value json.RawMessage `json:"value"`
}

// EditResponse reports an accepted edit.
type EditResponse struct {
	EditID string `json:"edit_id"`
	// Changed reports whether the edited node renders differently now.
	Changed    bool   `json:"changed"`
	Generation uint64 `json:"generation"`
	// Node is the edited node re-located in the rebuilt graph. Omitted
	// when the location no longer exists.
	Node *NodeView `json:"node,omitempty"`
	// Text is the canonical document text after the edit.
	Text string `json:"text"`
	// Diff is a readable before/after diff when the server records diffs.
	Diff string `json:"diff,omitempty"`
}

// SelectionView reports or moves the selected node.
type SelectionView struct {
	// Path in display form. Empty in a request clears the selection.
	Path string `json:"path,omitempty"`
	// Selected is false when no node is selected.
	Selected bool `json:"selected"`
}

// ErrorView is the body of every non-2xx response.
type ErrorView struct {
	// Kind is a stable machine-readable label, e.g. parse_error.
	Kind    string `json:"error"`
	Message string `json:"message"`
	// Offset is the byte position for parse errors.
	Offset int64 `json:"offset,omitempty"`
}
