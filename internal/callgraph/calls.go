package callgraph

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codescope/codescope/internal/diff"
)

// ExtractCallSites finds call expressions whose start line falls within the
// given function range (inclusive both ends). Call sites are returned
// unresolved; resolution is a separate phase with no lookup dependency here.
func ExtractCallSites(filePath string, source []byte, fnRange diff.LineRange) ([]CallSite, error) {
	tree, err := parseSource(filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var calls []CallSite
	walkTree(tree.RootNode(), func(n *sitter.Node) bool {
		// Subtrees that end before the range or start after it cannot
		// contain call sites of interest.
		if nodeEndLine(n) < fnRange.Start || nodeStartLine(n) > fnRange.End {
			return false
		}

		if n.Kind() != "call_expression" {
			return true
		}

		line := nodeStartLine(n)
		if line < fnRange.Start || line > fnRange.End {
			return true
		}

		callee := calleeName(n.ChildByFieldName("function"), source)
		if callee == "" {
			return true
		}

		calls = append(calls, CallSite{
			Callee: callee,
			Line:   line,
			Column: int(n.StartPosition().Column) + 1,
		})
		return true
	})

	return calls, nil
}

// calleeName derives the lookup name for a call expression's callee:
// a bare identifier is used as-is; this.prop() strips the receiver;
// obj.prop() with an identifier receiver keeps the qualifier; any other
// receiver shape falls back to the bare property name.
func calleeName(fnNode *sitter.Node, source []byte) string {
	if fnNode == nil {
		return ""
	}

	switch fnNode.Kind() {
	case "identifier":
		return nodeText(fnNode, source)

	case "member_expression":
		property := fnNode.ChildByFieldName("property")
		if property == nil {
			return ""
		}
		propName := nodeText(property, source)

		object := fnNode.ChildByFieldName("object")
		if object == nil {
			return propName
		}
		switch object.Kind() {
		case "this":
			return propName
		case "identifier":
			return nodeText(object, source) + "." + propName
		default:
			return propName
		}
	}

	return ""
}
