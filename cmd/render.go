package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/agentic-research/trellis/internal/docpath"
	"github.com/agentic-research/trellis/internal/graph"
)

var (
	renderPath    string
	renderDepth   int
	renderNoColor bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderPath, "path", "p", "", "render only the subtree at this path")
	renderCmd.Flags().IntVarP(&renderDepth, "depth", "d", 0, "limit outline depth (0 = unlimited)")
	renderCmd.Flags().BoolVar(&renderNoColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a document as a colored node outline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, _, err := parseDocumentFile(args[0])
		if err != nil {
			return err
		}
		g := graph.Build(doc)

		start := g.Root()
		if renderPath != "" {
			p, err := docpath.Parse(renderPath)
			if err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}
			if start = g.FindByPath(p); start == nil {
				return fmt.Errorf("no node at %s", p)
			}
		}

		if renderNoColor {
			color.NoColor = true
		}
		writeOutline(os.Stdout, g, start, renderDepth)
		return nil
	},
}

// Outline paint functions. fatih/color honors NO_COLOR and non-TTY
// output on its own; these stay plain strings in that case.
var (
	paintKey  = color.New(color.FgCyan).SprintFunc()
	paintDim  = color.New(color.Faint).SprintFunc()
	paintStr  = color.New(color.FgGreen).SprintFunc()
	paintNum  = color.New(color.FgBlue).SprintFunc()
	paintBool = color.New(color.FgYellow).SprintFunc()
	paintNull = color.New(color.FgMagenta).SprintFunc()
)

// writeOutline prints one line per node, depth-first, indented two spaces
// per level below start. maxDepth 0 means unlimited.
func writeOutline(w io.Writer, g *graph.Graph, start *graph.Node, maxDepth int) {
	var walk func(n *graph.Node, depth int)
	walk = func(n *graph.Node, depth int) {
		indent := ""
		for i := 0; i < depth; i++ {
			indent += "  "
		}
		fmt.Fprintf(w, "%s%s\n", indent, nodeLine(g, n, n == start))
		if maxDepth > 0 && depth+1 > maxDepth {
			return
		}
		for _, childID := range n.Children {
			child, err := g.NodeByID(childID)
			if err != nil {
				continue
			}
			walk(child, depth+1)
		}
	}
	walk(start, 0)
}

// nodeLine renders one outline line: the node's label, then its summary.
// A scalar row keyed "color" holding a hex color gets a swatch block in
// that color before the value.
func nodeLine(g *graph.Graph, n *graph.Node, isStart bool) string {
	label := "$"
	if !isStart && len(n.Path) > 0 {
		seg := n.Path[len(n.Path)-1]
		if seg.Kind == docpath.KeySegment {
			label = seg.Key
		} else {
			label = "[" + strconv.Itoa(seg.Index) + "]"
		}
	} else if len(n.Path) > 0 {
		label = n.Path.String()
	}

	switch n.Kind {
	case graph.KindObject:
		return paintKey(label) + ": " + paintDim(fmt.Sprintf("{%d keys}", len(n.Rows)))
	case graph.KindArray:
		return paintKey(label) + ": " + paintDim(fmt.Sprintf("[%d items]", len(n.Rows)))
	}

	value := n.Rows[0].Value
	painted := paintScalar(g, n, value)
	if swatch := colorSwatch(n, value); swatch != "" {
		painted = swatch + " " + painted
	}
	return paintKey(label) + ": " + painted
}

func paintScalar(g *graph.Graph, n *graph.Node, value string) string {
	v, ok := g.ValueAt(n.Path)
	if !ok {
		return value
	}
	switch v.(type) {
	case string:
		return paintStr(value)
	case json.Number:
		return paintNum(value)
	case bool:
		return paintBool(value)
	case nil:
		return paintNull(value)
	}
	return value
}

// colorSwatch returns a colored block for scalar nodes whose key is
// literally "color" and whose value is a hex color string.
func colorSwatch(n *graph.Node, value string) string {
	if len(n.Path) == 0 {
		return ""
	}
	seg := n.Path[len(n.Path)-1]
	if seg.Kind != docpath.KeySegment || seg.Key != "color" {
		return ""
	}
	r, g, b, ok := parseHexColor(value)
	if !ok {
		return ""
	}
	return color.RGB(int(r), int(g), int(b)).Sprint("██")
}

// parseHexColor accepts #RGB and #RRGGBB.
func parseHexColor(s string) (r, g, b uint8, ok bool) {
	if len(s) == 0 || s[0] != '#' {
		return 0, 0, 0, false
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		expanded := make([]byte, 6)
		for i := 0; i < 3; i++ {
			expanded[2*i] = hex[i]
			expanded[2*i+1] = hex[i]
		}
		hex = string(expanded)
	case 6:
	default:
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
