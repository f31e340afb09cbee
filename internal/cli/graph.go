package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope/internal/callgraph"
	"github.com/codescope/codescope/internal/export"
)

var (
	graphCommit     string
	graphFormat     string
	graphOutput     string
	graphMaxNodes   int
	graphMaxEdges   int
	graphNoExternal bool
	graphQuiet      bool
)

// graphCmd builds a call graph for the current diff and writes it out.
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build a call graph for changed functions",
	Long: `Build a call graph around the functions touched by a diff.

By default the working tree diff against HEAD is analyzed. Pass --commit to
analyze a single commit instead.`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&graphCommit, "commit", "", "analyze a single commit instead of the working tree")
	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", "json", "output format: json or dot")
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "", "output file (default stdout)")
	graphCmd.Flags().IntVar(&graphMaxNodes, "max-nodes", 0, "override the node budget")
	graphCmd.Flags().IntVar(&graphMaxEdges, "max-edges", 0, "override the edge budget")
	graphCmd.Flags().BoolVar(&graphNoExternal, "no-external", false, "hide unresolved external callees")
	graphCmd.Flags().BoolVarP(&graphQuiet, "quiet", "q", false, "suppress progress output")

	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	if graphFormat != "json" && graphFormat != "dot" {
		return fmt.Errorf("unsupported format %q (expected json or dot)", graphFormat)
	}

	p, err := newPipeline(repoPath)
	if err != nil {
		return err
	}
	defer p.Close()

	applyGraphOverrides(p)

	g, err := p.BuildGraph(graphCommit, NewCLIProgressReporter(graphQuiet))
	if err != nil {
		return err
	}

	return writeGraph(g, graphFormat, graphOutput)
}

// applyGraphOverrides applies flag overrides on top of loaded configuration.
func applyGraphOverrides(p *pipeline) {
	if graphMaxNodes > 0 {
		p.cfg.Graph.MaxNodes = graphMaxNodes
	}
	if graphMaxEdges > 0 {
		p.cfg.Graph.MaxEdges = graphMaxEdges
	}
	if graphNoExternal {
		p.cfg.Graph.ShowExternal = false
	}
}

// writeGraph renders the graph to the output file, or stdout when empty.
func writeGraph(g *callgraph.CallGraph, format, output string) error {
	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "dot":
		return export.WriteDOT(w, g)
	default:
		return export.WriteJSON(w, g)
	}
}
