package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/document"
	"github.com/agentic-research/trellis/internal/graph"
)

var (
	findSelect string
	findWhere  string
)

func init() {
	findCmd.Flags().StringVar(&findSelect, "select", "", "JSONPath over document values, e.g. $.customers[*].name")
	findCmd.Flags().StringVar(&findWhere, "where", "", `node predicate, e.g. 'kind == "array" && size > 1024'`)
	rootCmd.AddCommand(findCmd)
}

var findCmd = &cobra.Command{
	Use:   "find [file]",
	Short: "Query a document by JSONPath or by node predicate",
	Long: `Find runs one of two query modes. --select evaluates a JSONPath over
the document's values and prints each match as JSON. --where evaluates a
predicate over every graph node; the fields are path, kind, depth, rows,
children, width, height, and size.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (findSelect == "") == (findWhere == "") {
			return fmt.Errorf("exactly one of --select or --where is required")
		}

		doc, _, err := parseDocumentFile(args[0])
		if err != nil {
			return err
		}

		if findSelect != "" {
			return runSelect(os.Stdout, doc, findSelect)
		}
		return runWhere(os.Stdout, graph.Build(doc), findWhere)
	},
}

// runSelect evaluates a JSONPath over the native projection of the
// document and prints one JSON result per line.
func runSelect(w io.Writer, doc any, selector string) error {
	x, err := jp.ParseString(selector)
	if err != nil {
		return fmt.Errorf("invalid jsonpath %q: %w", selector, err)
	}
	for _, result := range x.Get(document.Native(doc)) {
		fmt.Fprintln(w, oj.JSON(result))
	}
	return nil
}

// runWhere evaluates a compiled predicate against every node and prints
// the matching nodes as outline lines.
func runWhere(w io.Writer, g *graph.Graph, predicate string) error {
	program, err := expr.Compile(predicate, expr.Env(nodeEnv(nil)), expr.AsBool())
	if err != nil {
		return fmt.Errorf("invalid predicate %q: %w", predicate, err)
	}
	for _, n := range g.Nodes() {
		ok, err := runPredicate(program, n)
		if err != nil {
			return fmt.Errorf("predicate failed at %s: %w", n.Path, err)
		}
		if ok {
			fmt.Fprintf(w, "%s  %s\n", n.Path, nodeSummary(n))
		}
	}
	return nil
}

func runPredicate(program *vm.Program, n *graph.Node) (bool, error) {
	out, err := expr.Run(program, nodeEnv(n))
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// nodeEnv is the predicate environment for one node. Called with nil it
// yields the typed sample expr compiles against.
func nodeEnv(n *graph.Node) map[string]any {
	if n == nil {
		n = &graph.Node{}
	}
	return map[string]any{
		"path":     n.Path.String(),
		"kind":     n.Kind.String(),
		"depth":    len(n.Path),
		"rows":     len(n.Rows),
		"children": len(n.Children),
		"width":    n.Width,
		"height":   n.Height,
		"size":     n.Size,
	}
}

func nodeSummary(n *graph.Node) string {
	switch n.Kind {
	case graph.KindObject:
		return fmt.Sprintf("{%d keys}", len(n.Rows))
	case graph.KindArray:
		return fmt.Sprintf("[%d items]", len(n.Rows))
	}
	if len(n.Rows) > 0 {
		return n.Rows[0].Value
	}
	return ""
}
