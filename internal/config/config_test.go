package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trellis.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8787", cfg.Listen)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "trellis:document", cfg.Store.Key)
	require.NotNil(t, cfg.Mount.Writable)
	assert.True(t, *cfg.Mount.Writable)
	assert.Empty(t, cfg.Control)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen  = "127.0.0.1:9900"
control = "/run/trellis.ctl"

store {
  backend = "sqlite"
  path    = "/var/lib/trellis/trellis.db"
}

mount {
  dir      = "/mnt/trellis"
  writable = false
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9900", cfg.Listen)
	assert.Equal(t, "/run/trellis.ctl", cfg.Control)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "/var/lib/trellis/trellis.db", cfg.Store.Path)
	assert.Equal(t, "/mnt/trellis", cfg.Mount.Dir)
	require.NotNil(t, cfg.Mount.Writable)
	assert.False(t, *cfg.Mount.Writable)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
store {
  backend = "redis"
  address = "localhost:6379"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8787", cfg.Listen)
	assert.Equal(t, "trellis:document", cfg.Store.Key)
	require.NotNil(t, cfg.Mount.Writable)
	assert.True(t, *cfg.Mount.Writable)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := map[string]string{
		"unknown backend": `
store {
  backend = "dynamo"
}
`,
		"file without path": `
store {
  backend = "file"
}
`,
		"redis without address": `
store {
  backend = "redis"
}
`,
		"syntax error": `listen = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
