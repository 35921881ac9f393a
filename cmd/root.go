// Package cmd implements the trellis command-line interface: one-shot
// document commands (render, edit, patch, find, stats, lint) that work
// directly on a JSON file, and long-running surfaces (serve, mount, mcp)
// that run against the configured document store.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/config"
	"github.com/agentic-research/trellis/internal/document"
	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/store"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "trellis",
	Short: "Trellis: interactive JSON document graphs",
	Long: `Trellis projects a JSON document into a graph of nodes, lets you edit
one node at a time, and propagates each edit back into the whole
document with merge semantics and canonical re-serialization.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to trellis.hcl")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "trellis:", err)
		os.Exit(1)
	}
}

// newLogger builds the command logger. Everything logs to stderr so
// stdout stays clean for document output and the MCP transport.
func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// loadConfig resolves the effective configuration: the --config file when
// given, ./trellis.hcl when present, built-in defaults otherwise.
func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	if _, err := os.Stat("trellis.hcl"); err == nil {
		return config.Load("trellis.hcl")
	}
	return config.Default(), nil
}

// openDocumentStore builds the configured backend. The returned closer
// releases backend resources and is safe to call once.
func openDocumentStore(cfg *config.Config) (store.DocumentStore, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemoryDocumentStore(), func() {}, nil
	case "file":
		abs, err := filepath.Abs(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		fs := osfs.New(filepath.Dir(abs))
		return store.NewFileDocumentStore(fs, filepath.Base(abs)), func() {}, nil
	case "sqlite":
		s, err := store.OpenSQLiteDocumentStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.Address})
		s := store.NewRedisDocumentStore(client, cfg.Store.Key)
		return s, func() { _ = s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// fileEditor builds an edit pipeline over one document file. Edits write
// canonical text back to the file.
func fileEditor(path string, logger *log.Logger) (*editor.Editor, store.DocumentStore, *store.MemoryGraphStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, nil, err
	}
	docs := store.NewFileDocumentStore(osfs.New(filepath.Dir(abs)), filepath.Base(abs))
	graphs := store.NewMemoryGraphStore()
	return editor.New(docs, graphs, logger), docs, graphs, nil
}

// readDocumentText loads a document file as JSON text. YAML files are
// converted through the ordered model so key order survives.
func readDocumentText(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err := document.FromYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return document.Serialize(doc)
	}
	return data, nil
}

// parseDocumentFile is the read-only entry for one-shot commands: load,
// convert if YAML, strict-parse.
func parseDocumentFile(path string) (any, []byte, error) {
	text, err := readDocumentText(path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := document.Parse(text)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, text, nil
}

// loadIntoEditor seeds the store from --load or rebuilds from whatever
// the store already holds. An empty store without --load is fine: the
// surfaces come up empty and a later replace fills them.
func loadIntoEditor(ctx context.Context, ed *editor.Editor, loadPath string, logger *log.Logger) error {
	if loadPath != "" {
		text, err := readDocumentText(loadPath)
		if err != nil {
			return err
		}
		ap, err := ed.Replace(ctx, text)
		if err != nil {
			return err
		}
		logger.Infof("loaded %s (%d bytes, generation %d)", loadPath, len(ap.Text), ap.Generation)
		return nil
	}
	ap, err := ed.Reload(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			logger.Info("store is empty, starting without a document")
			return nil
		}
		return err
	}
	logger.Infof("loaded document from store (%d bytes, generation %d)", len(ap.Text), ap.Generation)
	return nil
}
