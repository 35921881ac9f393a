package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/editor"
	"github.com/agentic-research/trellis/internal/nfsmount"
	"github.com/agentic-research/trellis/internal/store"
)

var (
	mountWritable bool
	mountReadOnly bool
	mountLoad     string
)

func init() {
	mountCmd.Flags().BoolVarP(&mountWritable, "writable", "w", false, "allow edits through the mount (overrides config)")
	mountCmd.Flags().BoolVar(&mountReadOnly, "read-only", false, "refuse edits through the mount (overrides config)")
	mountCmd.Flags().StringVar(&mountLoad, "load", "", "load this document file into the store on startup")
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(unmountCmd)
}

var mountCmd = &cobra.Command{
	Use:   "mount [mountpoint]",
	Short: "Mount the document graph as a filesystem",
	Long: `Mount serves the node graph over NFS and mounts it: one directory per
node, with _value.json, _rows, and _path files inside, and the whole
document as _document.json at the root. On a writable mount, saving a
_value.json applies the content as an edit of that node.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mountpoint := cfg.Mount.Dir
		if len(args) == 1 {
			mountpoint = args[0]
		}
		if mountpoint == "" {
			return fmt.Errorf("no mountpoint: pass one or set mount dir in config")
		}
		if err := os.MkdirAll(mountpoint, 0o755); err != nil {
			return err
		}

		writable := *cfg.Mount.Writable
		if mountWritable {
			writable = true
		}
		if mountReadOnly {
			writable = false
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

		if err := loadIntoEditor(ctx, ed, mountLoad, logger); err != nil {
			return err
		}

		gfs := nfsmount.NewGraphFS(graphs)
		if writable {
			gfs.SetEditor(ed)
		}

		srv, err := nfsmount.NewServer(gfs)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Close() }()

		logger.Debugf("nfs server on port %d", srv.Port())
		if err := nfsmount.Mount(srv.Port(), mountpoint, writable); err != nil {
			return err
		}
		fmt.Printf("mounted at %s (writable: %v), ctrl-c to unmount\n", mountpoint, writable)

		<-ctx.Done()

		fmt.Println("unmounting...")
		if err := nfsmount.Unmount(mountpoint); err != nil {
			return err
		}
		return nil
	},
}

var unmountCmd = &cobra.Command{
	Use:   "unmount [mountpoint]",
	Short: "Unmount a trellis filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return nfsmount.Unmount(args[0])
	},
}
