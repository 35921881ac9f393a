package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/store"
)

func newTestMCP(t *testing.T, text string) (*Server, *store.MemoryGraphStore) {
	t.Helper()
	docs := store.NewMemoryDocumentStore()
	graphs := store.NewMemoryGraphStore()
	ed := editor.New(docs, graphs, nil)
	if text != "" {
		_, err := ed.Replace(context.Background(), []byte(text))
		require.NoError(t, err)
	}
	return New(ed, docs, graphs, "test"), graphs
}

func TestDocumentGet(t *testing.T) {
	s, _ := newTestMCP(t, "")

	_, err := s.documentGet(context.Background())
	assert.ErrorIs(t, err, store.ErrNoDocument)

	s, _ = newTestMCP(t, `{"b": 2, "a": 1}`)
	text, err := s.documentGet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": 2,\n  \"a\": 1\n}\n", text)
}

func TestDocumentReplace(t *testing.T) {
	s, _ := newTestMCP(t, "")

	resp, err := s.documentReplace(context.Background(), `{"a": 1}`)
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	assert.EqualValues(t, 1, resp.Generation)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", resp.Text)

	_, err = s.documentReplace(context.Background(), `{broken`)
	assert.Error(t, err)
}

func TestDocumentPatch(t *testing.T) {
	s, _ := newTestMCP(t, `{"a": 1}`)

	resp, err := s.documentPatch(context.Background(),
		`[{"op": "add", "path": "/b", "value": 2}]`, "ops")
	require.NoError(t, err)
	assert.Contains(t, resp.Text, `"b": 2`)

	resp, err = s.documentPatch(context.Background(), `{"a": null}`, "merge")
	require.NoError(t, err)
	assert.NotContains(t, resp.Text, `"a"`)

	// Omitted dialect: an array body means ops.
	resp, err = s.documentPatch(context.Background(),
		`[{"op": "remove", "path": "/b"}]`, "")
	require.NoError(t, err)
	assert.NotContains(t, resp.Text, `"b"`)

	_, err = s.documentPatch(context.Background(), `{}`, "rfc9999")
	assert.Error(t, err)
}

func TestNodeGet(t *testing.T) {
	s, _ := newTestMCP(t, `{"customer": {"name": "Ada"}, "tags": ["x", "y"]}`)

	view, err := s.nodeGet(`$["customer"]`)
	require.NoError(t, err)
	assert.Equal(t, "object", view.Kind)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "name", view.Rows[0].Key)
	assert.Equal(t, "Ada", view.Rows[0].Value)

	view, err = s.nodeGet("$.tags[1]")
	require.NoError(t, err)
	assert.Equal(t, "scalar", view.Kind)
	assert.Equal(t, `$["tags"][1]`, view.Path)

	_, err = s.nodeGet(`$["missing"]`)
	assert.Error(t, err)
	_, err = s.nodeGet("not a path")
	assert.Error(t, err)
}

func TestNodeGetEmptyStore(t *testing.T) {
	s, _ := newTestMCP(t, "")
	_, err := s.nodeGet("$")
	assert.ErrorIs(t, err, store.ErrNoDocument)
}

func TestNodeEdit(t *testing.T) {
	s, graphs := newTestMCP(t, `{"customer": {"name": "Ada", "plan": "pro"}}`)

	resp, err := s.nodeEdit(context.Background(), `$["customer"]`, `{"plan": "max"}`)
	require.NoError(t, err)
	assert.True(t, resp.Changed)
	require.NotNil(t, resp.Node)
	assert.Equal(t, `$["customer"]`, resp.Node.Path)
	assert.Contains(t, resp.Text, `"name": "Ada"`)
	assert.Contains(t, resp.Text, `"plan": "max"`)

	// The edited node becomes the selection.
	sel, ok := graphs.Selected()
	require.True(t, ok)
	assert.Equal(t, `$["customer"]`, sel.String())

	_, err = s.nodeEdit(context.Background(), `$["customer"]`, `{broken`)
	assert.Error(t, err)
}

func TestGraphStats(t *testing.T) {
	s, _ := newTestMCP(t, "")
	_, err := s.graphStats()
	assert.ErrorIs(t, err, store.ErrNoDocument)

	s, _ = newTestMCP(t, `{"a": [1, 2], "b": true}`)
	stats, err := s.graphStats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Nodes)
	assert.Equal(t, 1, stats.Objects)
	assert.Equal(t, 1, stats.Arrays)
	assert.Equal(t, 3, stats.Scalars)
	assert.EqualValues(t, 1, stats.Generation)
}

func TestToolRegistration(t *testing.T) {
	s, _ := newTestMCP(t, "")
	assert.NotNil(t, s.MCP())
}
