package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/docpath"
)

var editDiff bool

func init() {
	editCmd.Flags().BoolVar(&editDiff, "diff", false, "print a diff of the document change")
	rootCmd.AddCommand(editCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit [file] [path] [value]",
	Short: "Edit one node and rewrite the document",
	Long: `Edit applies a JSON value at a node path. When both the new value and
the existing value are objects they are shallow-merged: existing key
order is kept, colliding keys are overwritten in place, new keys append.
Everything else replaces. Pass "-" as value to read it from stdin.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, pathArg, valueArg := args[0], args[1], args[2]

		p, err := docpath.Parse(pathArg)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		value := []byte(valueArg)
		if valueArg == "-" {
			if value, err = io.ReadAll(os.Stdin); err != nil {
				return err
			}
		}

		ed, _, _, err := fileEditor(file, newLogger())
		if err != nil {
			return err
		}
		ed.RecordDiffs(editDiff)

		ap, err := ed.ApplyEdit(cmd.Context(), p, value)
		if err != nil {
			return err
		}

		if editDiff && ap.Diff != "" {
			fmt.Print(ap.Diff)
			if ap.Diff[len(ap.Diff)-1] != '\n' {
				fmt.Println()
			}
		}
		if ap.Changed {
			fmt.Printf("edited %s (generation %d)\n", p, ap.Generation)
		} else {
			fmt.Printf("no visible change at %s (generation %d)\n", p, ap.Generation)
		}
		return nil
	},
}
