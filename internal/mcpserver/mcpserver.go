// Package mcpserver exposes the document and its graph as MCP tools over
// stdio, so LLM agents can read nodes, apply edits, and patch the
// document through the same pipeline the HTTP API and the mount use.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/trellis/api"
	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/store"
)

// Server wires the edit pipeline into an MCP tool server.
type Server struct {
	editor *editor.Editor
	docs   store.DocumentStore
	graphs store.GraphStore
	mcp    *server.MCPServer
}

func New(ed *editor.Editor, docs store.DocumentStore, graphs store.GraphStore, version string) *Server {
	s := &Server{editor: ed, docs: docs, graphs: graphs}
	s.mcp = server.NewMCPServer("trellis", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Serve runs the stdio transport until the client disconnects. Protocol
// traffic owns stdout; anything the process logs must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("document_get",
		mcp.WithDescription("Return the current document in its canonical text form."),
	), s.handleDocumentGet)

	s.mcp.AddTool(mcp.NewTool("document_replace",
		mcp.WithDescription("Replace the whole document with new JSON text."),
		mcp.WithString("text", mcp.Required(),
			mcp.Description("The new document as JSON text.")),
	), s.handleDocumentReplace)

	s.mcp.AddTool(mcp.NewTool("document_patch",
		mcp.WithDescription("Apply an RFC 6902 patch or an RFC 7386 merge patch to the document."),
		mcp.WithString("patch", mcp.Required(),
			mcp.Description("The patch document as JSON text.")),
		mcp.WithString("dialect",
			mcp.Description("\"ops\" for RFC 6902, \"merge\" for RFC 7386. Omitted: an array body means ops.")),
	), s.handleDocumentPatch)

	s.mcp.AddTool(mcp.NewTool("node_get",
		mcp.WithDescription("Return one node of the document graph: kind, display rows, children."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Node path, e.g. $[\"customer\"][2] or $.customer.name.")),
	), s.handleNodeGet)

	s.mcp.AddTool(mcp.NewTool("node_edit",
		mcp.WithDescription("Edit one node: the value is merged into the node's current value and the document is rewritten."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Node path, e.g. $[\"customer\"][2].")),
		mcp.WithString("value", mcp.Required(),
			mcp.Description("The new value as JSON text.")),
	), s.handleNodeEdit)

	s.mcp.AddTool(mcp.NewTool("graph_stats",
		mcp.WithDescription("Return summary counts for the document graph."),
	), s.handleGraphStats)
}

// --- tool handlers: argument plumbing around the core methods ---

func (s *Server) handleDocumentGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.documentGet(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleDocumentReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.documentReplace(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleDocumentPatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patch, err := req.RequireString("patch")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.documentPatch(ctx, patch, req.GetString("dialect", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleNodeGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.nodeGet(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(view)
}

func (s *Server) handleNodeEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.nodeEdit(ctx, path, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleGraphStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.graphStats()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// --- core operations ---

func (s *Server) documentGet(ctx context.Context) (string, error) {
	text, err := s.docs.CurrentText(ctx)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

func (s *Server) documentReplace(ctx context.Context, text string) (api.EditResponse, error) {
	ap, err := s.editor.Replace(ctx, []byte(text))
	if err != nil {
		return api.EditResponse{}, err
	}
	return toEditResponse(ap), nil
}

func (s *Server) documentPatch(ctx context.Context, patch, dialect string) (api.EditResponse, error) {
	if dialect == "" {
		dialect = "merge"
		if bytes.HasPrefix(bytes.TrimSpace([]byte(patch)), []byte("[")) {
			dialect = "ops"
		}
	}
	var ap *editor.Applied
	var err error
	switch dialect {
	case "ops":
		ap, err = s.editor.ApplyPatchOps(ctx, []byte(patch))
	case "merge":
		ap, err = s.editor.ApplyMergePatch(ctx, []byte(patch))
	default:
		return api.EditResponse{}, fmt.Errorf("unknown patch dialect %q", dialect)
	}
	if err != nil {
		return api.EditResponse{}, err
	}
	return toEditResponse(ap), nil
}

func (s *Server) nodeGet(path string) (*api.NodeView, error) {
	p, err := docpath.Parse(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	g := s.graphs.Current()
	if g == nil {
		return nil, store.ErrNoDocument
	}
	node := g.FindByPath(p)
	if node == nil {
		return nil, fmt.Errorf("no node at %s", p)
	}
	return api.FromNode(node), nil
}

func (s *Server) nodeEdit(ctx context.Context, path, value string) (api.EditResponse, error) {
	p, err := docpath.Parse(strings.TrimSpace(path))
	if err != nil {
		return api.EditResponse{}, fmt.Errorf("invalid path: %w", err)
	}
	ap, err := s.editor.ApplyEdit(ctx, p, []byte(value))
	if err != nil {
		return api.EditResponse{}, err
	}
	return toEditResponse(ap), nil
}

func (s *Server) graphStats() (api.StatsView, error) {
	g := s.graphs.Current()
	if g == nil {
		return api.StatsView{}, store.ErrNoDocument
	}
	return api.FromStats(g.Stats(), s.graphs.Generation()), nil
}

func toEditResponse(ap *editor.Applied) api.EditResponse {
	return api.EditResponse{
		EditID:     ap.EditID,
		Changed:    ap.Changed,
		Generation: ap.Generation,
		Node:       api.FromNode(ap.Node),
		Text:       string(ap.Text),
		Diff:       ap.Diff,
	}
}
