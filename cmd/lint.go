package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/lint"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Report document problems beyond strict parsing",
	Long: `Lint reports duplicate object keys (the later value wins on parse, which
is usually a mistake), nesting beyond the depth limit, and oversized
arrays. The exit status is non-zero when anything is found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readDocumentText(args[0])
		if err != nil {
			return err
		}
		diags, err := lint.Check(text)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		for _, d := range diags {
			fmt.Println(d)
		}
		if len(diags) > 0 {
			return fmt.Errorf("%d problem(s) in %s", len(diags), args[0])
		}
		return nil
	},
}
