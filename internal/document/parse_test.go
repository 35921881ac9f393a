package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("object keeps member order", func(t *testing.T) {
		v, err := ParseString(`{"zebra": 1, "apple": 2, "mango": 3}`)
		require.NoError(t, err)
		obj, ok := v.(*Object)
		require.True(t, ok)
		assert.Equal(t, []string{"zebra", "apple", "mango"}, obj.Keys())
	})

	t.Run("duplicate keys keep first position and last value", func(t *testing.T) {
		v, err := ParseString(`{"a": 1, "b": 2, "a": 3}`)
		require.NoError(t, err)
		obj := v.(*Object)
		assert.Equal(t, []string{"a", "b"}, obj.Keys())
		got, _ := obj.Get("a")
		assert.Equal(t, json.Number("3"), got)
	})

	t.Run("numbers keep their literal", func(t *testing.T) {
		v, err := ParseString(`{"a": 1.50, "b": 1e3, "c": 9007199254740993}`)
		require.NoError(t, err)
		obj := v.(*Object)
		a, _ := obj.Get("a")
		b, _ := obj.Get("b")
		c, _ := obj.Get("c")
		assert.Equal(t, json.Number("1.50"), a)
		assert.Equal(t, json.Number("1e3"), b)
		assert.Equal(t, json.Number("9007199254740993"), c)
	})

	t.Run("scalar roots", func(t *testing.T) {
		for in, want := range map[string]any{
			`"x"`:  "x",
			`42`:   json.Number("42"),
			`true`: true,
			`null`: nil,
		} {
			v, err := ParseString(in)
			require.NoError(t, err, "input %s", in)
			assert.Equal(t, want, v, "input %s", in)
		}
	})

	t.Run("nested containers", func(t *testing.T) {
		v, err := ParseString(`{"items": [{"id": 1}, {"id": 2}], "empty": {}}`)
		require.NoError(t, err)
		obj := v.(*Object)
		items, _ := obj.Get("items")
		arr, ok := items.([]any)
		require.True(t, ok)
		require.Len(t, arr, 2)
		first := arr[0].(*Object)
		id, _ := first.Get("id")
		assert.Equal(t, json.Number("1"), id)
	})
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"empty input":      "",
		"whitespace only":  "  \n ",
		"bare word":        "hello",
		"trailing garbage": `{"a": 1} extra`,
		"truncated object": `{"a":`,
		"single quotes":    `{'a': 1}`,
		"unquoted key":     `{a: 1}`,
		"trailing comma":   `{"a": 1,}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString(in)
			require.Error(t, err)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestObjectSetDelete(t *testing.T) {
	o := NewObject()
	o.Set("a", json.Number("1"))
	o.Set("b", json.Number("2"))
	o.Set("a", json.Number("9"))
	assert.Equal(t, []string{"a", "b"}, o.Keys())

	require.True(t, o.Delete("a"))
	assert.False(t, o.Delete("a"))
	assert.Equal(t, []string{"b"}, o.Keys())

	// Index stays consistent after deletion.
	o.Set("c", json.Number("3"))
	v, ok := o.Get("b")
	require.True(t, ok)
	assert.Equal(t, json.Number("2"), v)
	assert.Equal(t, []string{"b", "c"}, o.Keys())
}

func TestEqual(t *testing.T) {
	a, err := ParseString(`{"x": [1, {"y": null}], "z": "s"}`)
	require.NoError(t, err)
	b, err := ParseString(`{"x": [1, {"y": null}], "z": "s"}`)
	require.NoError(t, err)
	assert.True(t, Equal(a, b))

	// Key order matters for equality of the model.
	c, err := ParseString(`{"z": "s", "x": [1, {"y": null}]}`)
	require.NoError(t, err)
	assert.False(t, Equal(a, c))

	// Literal-level number comparison.
	d, _ := ParseString(`{"n": 1}`)
	e, _ := ParseString(`{"n": 1.0}`)
	assert.False(t, Equal(d, e))
}

func TestNative(t *testing.T) {
	v, err := ParseString(`{"n": 3, "f": 1.5, "s": "x", "a": [true, null]}`)
	require.NoError(t, err)
	got := Native(v)
	assert.Equal(t, map[string]any{
		"n": int64(3),
		"f": 1.5,
		"s": "x",
		"a": []any{true, nil},
	}, got)
}
