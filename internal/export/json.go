// Package export renders built call graphs for machine and human consumers.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/codescope/codescope/internal/callgraph"
)

// WriteJSON writes the graph as indented JSON.
func WriteJSON(w io.Writer, g *callgraph.CallGraph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}
