package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/codescope/codescope/internal/callgraph"
)

// WriteDOT writes the graph in Graphviz DOT format. Changed functions are
// filled, external placeholders and their edges are rendered dashed.
func WriteDOT(w io.Writer, g *callgraph.CallGraph) error {
	dg := graph.New(func(n *callgraph.Node) string { return n.ID }, graph.Directed())

	for i := range g.Nodes {
		node := &g.Nodes[i]
		attrs := []func(*graph.VertexProperties){
			graph.VertexAttribute("label", nodeLabel(node)),
			graph.VertexAttribute("shape", "box"),
		}
		switch {
		case node.Kind == callgraph.KindExternal:
			attrs = append(attrs, graph.VertexAttribute("style", "dashed"))
		case node.IsChanged:
			attrs = append(attrs,
				graph.VertexAttribute("style", "filled"),
				graph.VertexAttribute("fillcolor", "lightyellow"))
		}
		if err := dg.AddVertex(node, attrs...); err != nil {
			return fmt.Errorf("failed to add vertex %s: %w", node.ID, err)
		}
	}

	for _, edge := range g.Edges {
		attrs := []func(*graph.EdgeProperties){
			graph.EdgeAttribute("label", fmt.Sprintf("L%d", edge.Line)),
		}
		if edge.IsExternal {
			attrs = append(attrs, graph.EdgeAttribute("style", "dashed"))
		}
		err := dg.AddEdge(edge.From, edge.To, attrs...)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return fmt.Errorf("failed to add edge %s: %w", edge.ID, err)
		}
	}

	if err := draw.DOT(dg, w); err != nil {
		return fmt.Errorf("failed to render DOT: %w", err)
	}
	return nil
}

// nodeLabel builds a two-line DOT label: name, then location.
func nodeLabel(n *callgraph.Node) string {
	if n.Kind == callgraph.KindExternal {
		return n.Name
	}
	return fmt.Sprintf("%s\n%s:%d", n.Name, n.FilePath, n.Range.Start)
}
