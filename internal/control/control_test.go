package control

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerPublish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "trellis.ctl")

	c, err := OpenOrCreate(path)
	require.NoError(t, err)
	assert.EqualValues(t, 0, c.Generation())
	assert.EqualValues(t, 0, c.DocBytes())

	c.Publish(5, 123)
	assert.EqualValues(t, 5, c.Generation())
	assert.EqualValues(t, 123, c.DocBytes())
	require.NoError(t, c.Close())

	// A fresh mapping of the same file sees the published values.
	c2, err := OpenOrCreate(path)
	require.NoError(t, err)
	defer c2.Close()
	assert.EqualValues(t, 5, c2.Generation())
	assert.EqualValues(t, 123, c2.DocBytes())
}

func TestControllerRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.ctl")
	junk := make([]byte, ControlSize)
	for i := range junk {
		junk[i] = 0xAB
	}
	require.NoError(t, os.WriteFile(path, junk, 0o644))

	_, err := OpenOrCreate(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic")
}
