package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/control"
	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/server"
	"github.com/agentic-research/trellis/internal/store"
)

var (
	serveListen string
	serveLoad   string
)

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveLoad, "load", "", "load this document file into the store on startup")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API over the configured document store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Listen = serveListen
		}

		docs, closeDocs, err := openDocumentStore(cfg)
		if err != nil {
			return err
		}
		defer closeDocs()

		graphs := store.NewMemoryGraphStore()
		ed := editor.New(docs, graphs, logger)

		if cfg.Control != "" {
			ctrl, err := control.OpenOrCreate(cfg.Control)
			if err != nil {
				return err
			}
			defer func() { _ = ctrl.Close() }()
			ed.AttachControl(ctrl)
			logger.Debugf("publishing generations to %s", cfg.Control)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := loadIntoEditor(ctx, ed, serveLoad, logger); err != nil {
			return err
		}

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: server.New(ed, docs, graphs, logger).Router(),
		}

		errc := make(chan error, 1)
		go func() {
			logger.Infof("listening on %s (store backend %s)", cfg.Listen, cfg.Store.Backend)
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
