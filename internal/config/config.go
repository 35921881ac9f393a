// Package config loads the trellis configuration from an HCL file.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the top-level configuration. Zero values take defaults, so a
// partial file or no file at all still yields a runnable setup.
type Config struct {
	// Listen is the HTTP API address.
	Listen string `hcl:"listen,optional"`

	// Control names the memory-mapped control file that publishes each
	// accepted generation. Empty disables publication.
	Control string `hcl:"control,optional"`

	Store *StoreConfig `hcl:"store,block"`
	Mount *MountConfig `hcl:"mount,block"`
}

// StoreConfig selects the document backend.
type StoreConfig struct {
	// Backend is one of memory, file, sqlite, redis.
	Backend string `hcl:"backend"`

	// Path is the document file (file) or database file (sqlite).
	Path string `hcl:"path,optional"`

	// Address and Key locate the document for the redis backend.
	Address string `hcl:"address,optional"`
	Key     string `hcl:"key,optional"`
}

// MountConfig controls the NFS mount.
type MountConfig struct {
	// Dir is the default mountpoint for the mount command.
	Dir string `hcl:"dir,optional"`

	// Writable exposes _value.json files read-write so writes become edits.
	Writable *bool `hcl:"writable,optional"`
}

// Default returns the configuration used when no file is given: an
// in-memory document store and a writable mount.
func Default() *Config {
	cfg := &Config{}
	cfg.withDefaults()
	return cfg
}

// Load reads path and fills in defaults for everything it leaves unset.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) withDefaults() {
	if c.Listen == "" {
		c.Listen = ":8787"
	}
	if c.Store == nil {
		c.Store = &StoreConfig{Backend: "memory"}
	}
	if c.Store.Key == "" {
		c.Store.Key = "trellis:document"
	}
	if c.Mount == nil {
		c.Mount = &MountConfig{}
	}
	if c.Mount.Writable == nil {
		writable := true
		c.Mount.Writable = &writable
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory":
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store backend %q needs path", c.Store.Backend)
		}
	case "redis":
		if c.Store.Address == "" {
			return fmt.Errorf("store backend redis needs address")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
