package callgraph

import (
	"log"
	"path/filepath"
	"time"

	"github.com/codescope/codescope/internal/diff"
)

// ProgressReporter reports progress while the graph is being built.
type ProgressReporter interface {
	OnGraphBuildingStart(totalFiles int)
	OnGraphFileProcessed(processedFiles, totalFiles int, fileName string)
	OnGraphBuildingComplete(nodeCount, edgeCount int, duration time.Duration)
}

// Builder assembles a capped call graph from changed files.
//
// Build is a pure, synchronous computation: all I/O happens before invocation
// and the inputs are plain values, so concurrent or repeated calls are safe
// and results can be memoized by a key derived from the inputs.
type Builder interface {
	Build(files []SourceFile, changed []diff.FileChangedRanges) *CallGraph
}

type builder struct {
	opts     Options
	progress ProgressReporter
}

// BuilderOption configures a Builder.
type BuilderOption func(*builder)

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) BuilderOption {
	return func(b *builder) {
		b.progress = progress
	}
}

// NewBuilder creates a graph builder with the given limits.
func NewBuilder(opts Options, builderOpts ...BuilderOption) Builder {
	b := &builder{opts: opts}
	for _, opt := range builderOpts {
		opt(b)
	}
	return b
}

// Build runs the five assembly stages: symbol extraction across all files,
// name lookup construction, a forward pass from changed functions, a backward
// pass from unchanged functions, and capped node/edge materialization.
func (b *builder) Build(files []SourceFile, changed []diff.FileChangedRanges) *CallGraph {
	startTime := time.Now()

	changedByFile := make(map[string][]diff.LineRange, len(changed))
	for _, fc := range changed {
		changedByFile[fc.FilePath] = fc.Ranges
	}

	if b.progress != nil {
		b.progress.OnGraphBuildingStart(len(files))
	}

	// Stage 1: extract symbols from every parseable changed file. A file
	// that fails to parse contributes zero symbols and the build continues.
	extractor := NewSymbolExtractor(b.opts.MaxSnippetLines)
	sources := make(map[string][]byte, len(files))
	var symbols []FunctionSymbol
	parseable := 0

	for i, file := range files {
		if IsSupported(file.Path) {
			syms, err := extractor.ExtractSymbols(file.Path, file.Content, changedByFile[file.Path])
			if err != nil {
				log.Printf("Warning: failed to extract symbols from %s: %v", file.Path, err)
			} else {
				parseable++
				sources[file.Path] = file.Content
				symbols = append(symbols, syms...)
			}
		}
		if b.progress != nil {
			b.progress.OnGraphFileProcessed(i+1, len(files), filepath.Base(file.Path))
		}
	}

	// Stage 2: the name lookup is built once over the complete symbol set
	// and read-only from here on.
	lookup := BuildNameLookup(symbols)

	neighbors := make(map[string]bool)
	var edges []Edge
	seenEdges := make(map[string]bool)
	var externals []FunctionSymbol
	externalIndex := make(map[string]int)

	addEdge := func(fromID, toID string, line int, external bool) {
		id := EdgeID(fromID, toID, line)
		if seenEdges[id] {
			return
		}
		seenEdges[id] = true
		edges = append(edges, Edge{
			ID:         id,
			From:       fromID,
			To:         toID,
			Line:       line,
			IsExternal: external,
		})
	}

	ensureExternal := func(calleeName string) *FunctionSymbol {
		if idx, ok := externalIndex[calleeName]; ok {
			return &externals[idx]
		}
		externals = append(externals, FunctionSymbol{
			ID:       ExternalID(calleeName),
			Name:     calleeName,
			FilePath: ExternalFilePath,
			Kind:     KindExternal,
		})
		externalIndex[calleeName] = len(externals) - 1
		return &externals[len(externals)-1]
	}

	// Stage 3: forward pass. Every call out of a changed function becomes an
	// edge; unresolved callees become external placeholders when enabled,
	// and are dropped entirely otherwise.
	for i := range symbols {
		caller := &symbols[i]
		if !caller.IsChanged {
			continue
		}
		for _, cs := range b.callSitesOf(caller, sources) {
			if target := ResolveCallTarget(&cs, caller.FilePath, lookup); target != nil {
				addEdge(caller.ID, target.ID, cs.Line, false)
				neighbors[target.ID] = true
			} else if b.opts.ShowExternal {
				ext := ensureExternal(cs.Callee)
				addEdge(caller.ID, ext.ID, cs.Line, true)
				neighbors[ext.ID] = true
			}
		}
	}

	// Stage 4: backward pass. An unchanged function calling into a changed
	// one becomes a one-hop caller; no further expansion from there.
	for i := range symbols {
		caller := &symbols[i]
		if caller.IsChanged {
			continue
		}
		for _, cs := range b.callSitesOf(caller, sources) {
			target := ResolveCallTarget(&cs, caller.FilePath, lookup)
			if target == nil || !target.IsChanged {
				continue
			}
			neighbors[caller.ID] = true
			addEdge(caller.ID, target.ID, cs.Line, false)
		}
	}

	// Stage 5: inclusion set = changed functions plus all neighbors.
	included := make(map[string]bool)
	for i := range symbols {
		if symbols[i].IsChanged {
			included[symbols[i].ID] = true
		}
	}
	for id := range neighbors {
		included[id] = true
	}

	graph := &CallGraph{
		Nodes:          []Node{},
		Edges:          []Edge{},
		TotalFunctions: len(included),
		ChangedFiles:   len(changed),
		ParseableFiles: parseable,
	}

	// Materialize nodes in extraction order up to the node budget; external
	// placeholders fill whatever budget remains.
	includedInternal := 0
	for i := range symbols {
		if !included[symbols[i].ID] {
			continue
		}
		includedInternal++
		if len(graph.Nodes) < b.opts.MaxNodes {
			graph.Nodes = append(graph.Nodes, symbolToNode(&symbols[i]))
		}
	}
	if len(graph.Nodes) < includedInternal {
		graph.WasCapped = true
	}

	for i := range externals {
		if !included[externals[i].ID] {
			continue
		}
		if len(graph.Nodes) >= b.opts.MaxNodes {
			graph.WasCapped = true
			break
		}
		graph.Nodes = append(graph.Nodes, symbolToNode(&externals[i]))
	}

	// Edges referencing excluded ids are dropped; the remainder is truncated
	// to the edge budget.
	emitted := make(map[string]bool, len(graph.Nodes))
	for _, n := range graph.Nodes {
		emitted[n.ID] = true
	}
	for _, e := range edges {
		if !emitted[e.From] || !emitted[e.To] {
			continue
		}
		if len(graph.Edges) >= b.opts.MaxEdges {
			graph.WasCapped = true
			break
		}
		graph.Edges = append(graph.Edges, e)
	}

	if b.progress != nil {
		b.progress.OnGraphBuildingComplete(len(graph.Nodes), len(graph.Edges), time.Since(startTime))
	}

	return graph
}

// callSitesOf extracts the call sites inside one function's range.
func (b *builder) callSitesOf(sym *FunctionSymbol, sources map[string][]byte) []CallSite {
	source, ok := sources[sym.FilePath]
	if !ok {
		return nil
	}
	calls, err := ExtractCallSites(sym.FilePath, source, sym.Range)
	if err != nil {
		log.Printf("Warning: failed to extract call sites from %s: %v", sym.FilePath, err)
		return nil
	}
	return calls
}

// symbolToNode converts an extracted symbol into a graph node.
func symbolToNode(sym *FunctionSymbol) Node {
	return Node{
		ID:        sym.ID,
		Name:      sym.Name,
		Signature: sym.Signature,
		FilePath:  sym.FilePath,
		Range:     sym.Range,
		Kind:      sym.Kind,
		IsChanged: sym.IsChanged,
		Snippet:   sym.Snippet,
		ClassName: sym.ClassName,
	}
}
