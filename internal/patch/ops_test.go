package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOps(t *testing.T) {
	t.Run("add and replace", func(t *testing.T) {
		out, err := ApplyOps(
			[]byte(`{"a": 1, "b": {"c": 2}}`),
			[]byte(`[{"op": "replace", "path": "/a", "value": 9}, {"op": "add", "path": "/b/d", "value": 3}]`),
		)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a": 9, "b": {"c": 2, "d": 3}}`, string(out))
	})

	t.Run("remove", func(t *testing.T) {
		out, err := ApplyOps(
			[]byte(`{"a": 1, "b": 2}`),
			[]byte(`[{"op": "remove", "path": "/a"}]`),
		)
		require.NoError(t, err)
		assert.JSONEq(t, `{"b": 2}`, string(out))
	})

	t.Run("test op failure surfaces", func(t *testing.T) {
		_, err := ApplyOps(
			[]byte(`{"a": 1}`),
			[]byte(`[{"op": "test", "path": "/a", "value": 2}]`),
		)
		assert.Error(t, err)
	})

	t.Run("malformed patch", func(t *testing.T) {
		_, err := ApplyOps([]byte(`{}`), []byte(`{"not": "an array"}`))
		assert.Error(t, err)
	})
}

func TestMergeText(t *testing.T) {
	out, err := MergeText(
		[]byte(`{"a": 1, "b": {"x": 1}, "c": 3}`),
		[]byte(`{"b": {"y": 2}, "c": null, "d": 4}`),
	)
	require.NoError(t, err)
	// RFC 7386: null removes, objects merge recursively.
	assert.JSONEq(t, `{"a": 1, "b": {"x": 1, "y": 2}, "d": 4}`, string(out))
}
