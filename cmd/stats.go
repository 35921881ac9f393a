package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/api"
	"github.com/agentic-research/trellis/internal/graph"
)

var statsJSON bool

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Summarize a document's node graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := parseDocumentFile(args[0])
		if err != nil {
			return err
		}
		s := graph.Build(doc).Stats()

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(api.FromStats(s, 0))
		}

		fmt.Printf("nodes:      %d\n", s.Nodes)
		fmt.Printf("objects:    %d\n", s.Objects)
		fmt.Printf("arrays:     %d\n", s.Arrays)
		fmt.Printf("scalars:    %d\n", s.Scalars)
		fmt.Printf("max depth:  %d\n", s.MaxDepth)
		fmt.Printf("bytes:      %d\n", s.Bytes)
		return nil
	},
}
