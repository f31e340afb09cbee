package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope/internal/watcher"
)

var (
	watchFormat string
	watchOutput string
)

// watchCmd rebuilds the working tree graph whenever source files change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the call graph on file changes",
	Long: `Watch the repository for source file changes and rebuild the working
tree call graph after each batch of edits. Each rebuild reprints the graph;
a newer batch simply replaces the previous result. Press Ctrl+C to stop.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "json", "output format: json or dot")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "output file rewritten on each rebuild (default stdout)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFormat != "json" && watchFormat != "dot" {
		return fmt.Errorf("unsupported format %q (expected json or dot)", watchFormat)
	}

	p, err := newPipeline(repoPath)
	if err != nil {
		return err
	}
	defer p.Close()

	// Initial build so the first output doesn't wait for an edit.
	if err := watchBuild(p); err != nil {
		return err
	}

	w, err := watcher.New(p.rootDir)
	if err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = w.Start(ctx, func(files []string) {
		fmt.Fprintf(os.Stderr, "%d file(s) changed, rebuilding...\n", len(files))
		if err := watchBuild(p); err != nil {
			fmt.Fprintf(os.Stderr, "Rebuild failed: %v\n", err)
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Watching %s for changes (Ctrl+C to stop)\n", p.rootDir)
	<-ctx.Done()
	return nil
}

// watchBuild runs one working tree build, reprints the graph, and writes a
// summary line to stderr.
func watchBuild(p *pipeline) error {
	g, err := p.BuildGraph("", NewCLIProgressReporter(true))
	if err != nil {
		return err
	}

	if err := writeGraph(g, watchFormat, watchOutput); err != nil {
		return err
	}

	capped := ""
	if g.WasCapped {
		capped = " (capped)"
	}
	fmt.Fprintf(os.Stderr, "✓ %d nodes, %d edges from %d changed file(s)%s\n",
		len(g.Nodes), len(g.Edges), g.ChangedFiles, capped)
	return nil
}
