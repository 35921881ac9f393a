package cmd

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
	"github.com/agentic-research/trellis/internal/graph"
)

func plainColors(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func buildGraph(t *testing.T, text string) *graph.Graph {
	t.Helper()
	doc, err := document.ParseString(text)
	require.NoError(t, err)
	return graph.Build(doc)
}

func TestWriteOutline(t *testing.T) {
	plainColors(t)
	g := buildGraph(t, `{"name": "Ada", "tags": ["a", "b"]}`)

	var buf bytes.Buffer
	writeOutline(&buf, g, g.Root(), 0)

	assert.Equal(t, "$: {2 keys}\n"+
		"  name: Ada\n"+
		"  tags: [2 items]\n"+
		"    [0]: a\n"+
		"    [1]: b\n", buf.String())
}

func TestWriteOutlineDepthLimit(t *testing.T) {
	plainColors(t)
	g := buildGraph(t, `{"name": "Ada", "tags": ["a", "b"]}`)

	var buf bytes.Buffer
	writeOutline(&buf, g, g.Root(), 1)

	assert.Equal(t, "$: {2 keys}\n  name: Ada\n  tags: [2 items]\n", buf.String())
}

func TestWriteOutlineSubtree(t *testing.T) {
	plainColors(t)
	g := buildGraph(t, `{"name": "Ada", "tags": ["a", "b"]}`)

	start := g.FindByPath(docpath.Path{docpath.Key("tags")})
	require.NotNil(t, start)

	var buf bytes.Buffer
	writeOutline(&buf, g, start, 0)

	assert.Equal(t, "$[\"tags\"]: [2 items]\n  [0]: a\n  [1]: b\n", buf.String())
}

func TestColorSwatch(t *testing.T) {
	plainColors(t)
	g := buildGraph(t, `{"color": "#00ff00", "name": "x"}`)

	swatch := g.FindByPath(docpath.Path{docpath.Key("color")})
	require.NotNil(t, swatch)
	assert.Equal(t, "██", colorSwatch(swatch, swatch.Rows[0].Value))

	name := g.FindByPath(docpath.Path{docpath.Key("name")})
	require.NotNil(t, name)
	assert.Empty(t, colorSwatch(name, name.Rows[0].Value), "only keys named color get a swatch")
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b uint8
		ok      bool
	}{
		{"#ff8000", 0xff, 0x80, 0x00, true},
		{"#fff", 0xff, 0xff, 0xff, true},
		{"#2aB", 0x22, 0xaa, 0xbb, true},
		{"ff8000", 0, 0, 0, false},
		{"#ff80", 0, 0, 0, false},
		{"#gggggg", 0, 0, 0, false},
		{"", 0, 0, 0, false},
	}
	for _, tt := range tests {
		r, g, b, ok := parseHexColor(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, [3]uint8{tt.r, tt.g, tt.b}, [3]uint8{r, g, b}, tt.in)
		}
	}
}
