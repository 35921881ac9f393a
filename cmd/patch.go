package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/editor"
)

var (
	patchOps   string
	patchMerge string
)

func init() {
	patchCmd.Flags().StringVar(&patchOps, "ops", "", "RFC 6902 patch document (JSON array of operations)")
	patchCmd.Flags().StringVar(&patchMerge, "merge", "", "RFC 7386 merge patch document")
	rootCmd.AddCommand(patchCmd)
}

var patchCmd = &cobra.Command{
	Use:   "patch [file]",
	Short: "Apply an RFC 6902 or RFC 7386 patch to a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (patchOps == "") == (patchMerge == "") {
			return fmt.Errorf("exactly one of --ops or --merge is required")
		}

		ed, _, _, err := fileEditor(args[0], newLogger())
		if err != nil {
			return err
		}

		var ap *editor.Applied
		if patchOps != "" {
			ap, err = ed.ApplyPatchOps(cmd.Context(), []byte(patchOps))
		} else {
			ap, err = ed.ApplyMergePatch(cmd.Context(), []byte(patchMerge))
		}
		if err != nil {
			return err
		}

		fmt.Printf("patched %s (%d bytes, generation %d)\n", args[0], len(ap.Text), ap.Generation)
		return nil
	},
}
