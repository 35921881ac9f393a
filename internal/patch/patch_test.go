package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/document"
)

func mustParse(t *testing.T, text string) any {
	t.Helper()
	v, err := document.ParseString(text)
	require.NoError(t, err)
	return v
}

func compact(t *testing.T, v any) string {
	t.Helper()
	out, err := document.Compact(v)
	require.NoError(t, err)
	return string(out)
}

func TestApplyRootReplace(t *testing.T) {
	doc := mustParse(t, `{"a": 1, "b": 2}`)
	got := Apply(doc, docpath.Path{}, mustParse(t, `{"c": 3}`))
	assert.Equal(t, `{"c":3}`, compact(t, got))

	// Root replacement never merges, and the new root may be any value.
	got = Apply(doc, docpath.Path{}, mustParse(t, `[1, 2]`))
	assert.Equal(t, `[1,2]`, compact(t, got))
	got = Apply(doc, docpath.Path{}, mustParse(t, `"scalar"`))
	assert.Equal(t, `"scalar"`, compact(t, got))
}

func TestApplyShallowMerge(t *testing.T) {
	t.Run("objects merge", func(t *testing.T) {
		doc := mustParse(t, `{"a": {"x": 1, "y": 2}}`)
		got := Apply(doc, docpath.Path{docpath.Key("a")}, mustParse(t, `{"y": 3, "z": 4}`))
		assert.Equal(t, `{"a":{"x":1,"y":3,"z":4}}`, compact(t, got))
	})

	t.Run("merge keeps existing order and appends new keys", func(t *testing.T) {
		doc := mustParse(t, `{"a": {"m": 1, "n": 2, "o": 3}}`)
		got := Apply(doc, docpath.Path{docpath.Key("a")}, mustParse(t, `{"zz": 9, "n": 5}`))
		assert.Equal(t, `{"a":{"m":1,"n":5,"o":3,"zz":9}}`, compact(t, got))
	})

	t.Run("merge is shallow", func(t *testing.T) {
		doc := mustParse(t, `{"a": {"nested": {"keep": 1}}}`)
		got := Apply(doc, docpath.Path{docpath.Key("a")}, mustParse(t, `{"nested": {"new": 2}}`))
		// The nested object is replaced wholesale, not merged.
		assert.Equal(t, `{"a":{"nested":{"new":2}}}`, compact(t, got))
	})

	t.Run("array value replaces", func(t *testing.T) {
		doc := mustParse(t, `{"a": {"x": 1}}`)
		got := Apply(doc, docpath.Path{docpath.Key("a")}, mustParse(t, `[1, 2, 3]`))
		assert.Equal(t, `{"a":[1,2,3]}`, compact(t, got))
	})

	t.Run("scalar value replaces", func(t *testing.T) {
		doc := mustParse(t, `{"a": {"x": 1}}`)
		got := Apply(doc, docpath.Path{docpath.Key("a")}, mustParse(t, `7`))
		assert.Equal(t, `{"a":7}`, compact(t, got))
	})

	t.Run("null existing replaces not merges", func(t *testing.T) {
		doc := mustParse(t, `{"a": null}`)
		got := Apply(doc, docpath.Path{docpath.Key("a")}, mustParse(t, `{"x": 1}`))
		assert.Equal(t, `{"a":{"x":1}}`, compact(t, got))
	})

	t.Run("null value replaces object", func(t *testing.T) {
		doc := mustParse(t, `{"a": {"x": 1}}`)
		got := Apply(doc, docpath.Path{docpath.Key("a")}, nil)
		assert.Equal(t, `{"a":null}`, compact(t, got))
	})
}

func TestApplySynthesizesObjects(t *testing.T) {
	t.Run("missing intermediates", func(t *testing.T) {
		doc := mustParse(t, `{}`)
		p := docpath.Path{docpath.Key("a"), docpath.Key("b")}
		got := Apply(doc, p, mustParse(t, `5`))
		assert.Equal(t, `{"a":{"b":5}}`, compact(t, got))
	})

	t.Run("scalar intermediate replaced by object", func(t *testing.T) {
		doc := mustParse(t, `{"a": 1}`)
		p := docpath.Path{docpath.Key("a"), docpath.Key("b")}
		got := Apply(doc, p, mustParse(t, `true`))
		assert.Equal(t, `{"a":{"b":true}}`, compact(t, got))
	})

	t.Run("nil document behaves as empty object", func(t *testing.T) {
		got := Apply(nil, docpath.Path{docpath.Key("a")}, mustParse(t, `1`))
		assert.Equal(t, `{"a":1}`, compact(t, got))
	})

	t.Run("scalar root replaced when path descends", func(t *testing.T) {
		got := Apply("scalar", docpath.Path{docpath.Key("a")}, mustParse(t, `1`))
		assert.Equal(t, `{"a":1}`, compact(t, got))
	})
}

func TestApplyArraySemantics(t *testing.T) {
	t.Run("in range index sets element", func(t *testing.T) {
		doc := mustParse(t, `{"items": [1, 2, 3]}`)
		p := docpath.Path{docpath.Key("items"), docpath.Index(1)}
		got := Apply(doc, p, mustParse(t, `"two"`))
		assert.Equal(t, `{"items":[1,"two",3]}`, compact(t, got))
	})

	t.Run("element objects merge", func(t *testing.T) {
		doc := mustParse(t, `{"items": [{"x": 1, "y": 2}]}`)
		p := docpath.Path{docpath.Key("items"), docpath.Index(0)}
		got := Apply(doc, p, mustParse(t, `{"y": 9}`))
		assert.Equal(t, `{"items":[{"x":1,"y":9}]}`, compact(t, got))
	})

	t.Run("out of range index is a no-op", func(t *testing.T) {
		doc := mustParse(t, `{"items": [1]}`)
		p := docpath.Path{docpath.Key("items"), docpath.Index(5)}
		got := Apply(doc, p, mustParse(t, `9`))
		assert.Equal(t, `{"items":[1]}`, compact(t, got))
	})

	t.Run("key against array is a no-op", func(t *testing.T) {
		doc := mustParse(t, `{"items": [1, 2]}`)
		p := docpath.Path{docpath.Key("items"), docpath.Key("name")}
		got := Apply(doc, p, mustParse(t, `9`))
		assert.Equal(t, `{"items":[1,2]}`, compact(t, got))
	})

	t.Run("deep write through missing index is dropped", func(t *testing.T) {
		doc := mustParse(t, `{"items": []}`)
		p := docpath.Path{docpath.Key("items"), docpath.Index(0), docpath.Key("x")}
		got := Apply(doc, p, mustParse(t, `1`))
		assert.Equal(t, `{"items":[]}`, compact(t, got))
	})
}

func TestApplyIndexIntoObjectCoerces(t *testing.T) {
	doc := mustParse(t, `{"a": {"2": "old"}}`)
	p := docpath.Path{docpath.Key("a"), docpath.Index(2)}
	got := Apply(doc, p, mustParse(t, `"new"`))
	assert.Equal(t, `{"a":{"2":"new"}}`, compact(t, got))

	// Synthesis through an index segment creates a string key too.
	doc = mustParse(t, `{}`)
	p = docpath.Path{docpath.Key("a"), docpath.Index(0), docpath.Key("x")}
	got = Apply(doc, p, mustParse(t, `1`))
	assert.Equal(t, `{"a":{"0":{"x":1}}}`, compact(t, got))
}

// Applying the same value at the same path twice yields identical text.
func TestApplyIdempotent(t *testing.T) {
	p := docpath.Path{docpath.Key("a")}
	value := `{"y": 3, "z": 4}`

	doc := mustParse(t, `{"a": {"x": 1, "y": 2}}`)
	once := Apply(doc, p, mustParse(t, value))
	onceText := compact(t, once)

	twice := Apply(mustParse(t, onceText), p, mustParse(t, value))
	assert.Equal(t, onceText, compact(t, twice))
}

func TestValueAt(t *testing.T) {
	doc := mustParse(t, `{"a": {"b": [10, {"c": "x"}]}}`)

	v, ok := document.ValueAt(doc, docpath.Path{docpath.Key("a"), docpath.Key("b"), docpath.Index(1), docpath.Key("c")})
	require.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = document.ValueAt(doc, docpath.Path{docpath.Key("missing")})
	assert.False(t, ok)

	_, ok = document.ValueAt(doc, docpath.Path{docpath.Key("a"), docpath.Index(9)})
	assert.False(t, ok)

	root, ok := document.ValueAt(doc, docpath.Path{})
	require.True(t, ok)
	assert.Equal(t, doc, root)
}
