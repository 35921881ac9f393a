package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/mcpserver"
	"github.com/agentic-research/trellis/internal/store"
)

var mcpLoad string

func init() {
	mcpCmd.Flags().StringVar(&mcpLoad, "load", "", "load this document file into the store on startup")
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the editor as an MCP server on stdio",
	Long: `Mcp speaks the Model Context Protocol over stdin/stdout so agent
runtimes can read, patch, and edit the document through tool calls.
All logging goes to stderr; stdout carries only protocol traffic.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		docs, closeDocs, err := openDocumentStore(cfg)
		if err != nil {
			return err
		}
		defer closeDocs()

		graphs := store.NewMemoryGraphStore()
		ed := editor.New(docs, graphs, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := loadIntoEditor(ctx, ed, mcpLoad, logger); err != nil {
			return err
		}

		logger.Debugf("mcp server on stdio (store backend %s)", cfg.Store.Backend)
		return mcpserver.New(ed, docs, graphs, version).Serve()
	},
}
