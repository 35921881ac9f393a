package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
)

func TestRunSelect(t *testing.T) {
	doc, err := document.ParseString(`{"customers": [{"name": "Ada"}, {"name": "Grace"}]}`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, runSelect(&buf, doc, "$.customers[*].name"))
	assert.Equal(t, "\"Ada\"\n\"Grace\"\n", buf.String())
}

func TestRunSelectInvalidPath(t *testing.T) {
	doc, err := document.ParseString(`{}`)
	require.NoError(t, err)

	err = runSelect(&bytes.Buffer{}, doc, "$[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid jsonpath")
}

func TestRunWhere(t *testing.T) {
	g := buildGraph(t, `{"tags": ["a", "b"], "n": 1}`)

	var buf bytes.Buffer
	require.NoError(t, runWhere(&buf, g, `kind == "array"`))
	assert.Equal(t, "$[\"tags\"]  [2 items]\n", buf.String())
}

func TestRunWhereMatchesScalarsByDepth(t *testing.T) {
	g := buildGraph(t, `{"tags": ["a", "b"], "n": 1}`)

	var buf bytes.Buffer
	require.NoError(t, runWhere(&buf, g, `kind == "scalar" && depth == 2`))
	assert.Equal(t, "$[\"tags\"][0]  a\n$[\"tags\"][1]  b\n", buf.String())
}

func TestRunWhereInvalidPredicate(t *testing.T) {
	g := buildGraph(t, `{}`)

	err := runWhere(&bytes.Buffer{}, g, `kind ==`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid predicate")
}

func TestNodeEnv(t *testing.T) {
	g := buildGraph(t, `{"tags": ["a", "b"]}`)
	n := g.FindByPath(docpath.Path{docpath.Key("tags")})
	require.NotNil(t, n)

	env := nodeEnv(n)
	assert.Equal(t, `$["tags"]`, env["path"])
	assert.Equal(t, "array", env["kind"])
	assert.Equal(t, 1, env["depth"])
	assert.Equal(t, 2, env["rows"])
	assert.Equal(t, 2, env["children"])
}
