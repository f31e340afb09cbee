package callgraph

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codescope/codescope/internal/diff"
)

// SymbolExtractor parses one file's source into function symbols, tagging
// each as changed or not based on the file's changed line ranges.
type SymbolExtractor interface {
	ExtractSymbols(filePath string, source []byte, changed []diff.LineRange) ([]FunctionSymbol, error)
}

type symbolExtractor struct {
	maxSnippetLines int
}

// NewSymbolExtractor creates a symbol extractor. Snippets longer than
// maxSnippetLines are middle-truncated.
func NewSymbolExtractor(maxSnippetLines int) SymbolExtractor {
	return &symbolExtractor{maxSnippetLines: maxSnippetLines}
}

// ExtractSymbols parses the file and emits a symbol for each named function
// declaration, class method, and arrow/function-expression variable.
// Classes themselves produce no symbol, only their methods do.
func (e *symbolExtractor) ExtractSymbols(filePath string, source []byte, changed []diff.LineRange) ([]FunctionSymbol, error) {
	tree, err := parseSource(filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	lines := strings.Split(string(source), "\n")

	var symbols []FunctionSymbol
	walkTree(tree.RootNode(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "function_declaration":
			if sym := e.extractFunction(n, filePath, source, lines, changed); sym != nil {
				symbols = append(symbols, *sym)
			}
			return true

		case "class_declaration":
			// Class members are processed explicitly; generic recursion into
			// the class node would emit its methods twice.
			e.extractClassMethods(n, filePath, source, lines, changed, &symbols)
			return false

		case "lexical_declaration", "variable_declaration":
			syms := e.extractFunctionVariables(n, filePath, source, lines, changed)
			symbols = append(symbols, syms...)
			return true
		}
		return true
	})

	return symbols, nil
}

// extractFunction emits a symbol for a named function declaration.
func (e *symbolExtractor) extractFunction(node *sitter.Node, filePath string, source []byte, lines []string, changed []diff.LineRange) *FunctionSymbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, source)
	sym := e.newSymbol(node, filePath, name, KindFunction, source, lines, changed)
	sym.Signature = buildSignature(name, node, source)
	return &sym
}

// extractClassMethods walks a class body and emits one symbol per method,
// qualified as ClassName.method.
func (e *symbolExtractor) extractClassMethods(classNode *sitter.Node, filePath string, source []byte, lines []string, changed []diff.LineRange, out *[]FunctionSymbol) {
	classNameNode := classNode.ChildByFieldName("name")
	if classNameNode == nil {
		return
	}
	className := nodeText(classNameNode, source)

	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}

	for i := uint(0); i < body.ChildCount(); i++ {
		member := body.Child(i)
		if member.Kind() != "method_definition" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		methodName := nodeText(nameNode, source)
		qualified := className + "." + methodName
		sym := e.newSymbol(member, filePath, qualified, KindMethod, source, lines, changed)
		sym.Signature = buildSignature(methodName, member, source)
		sym.ClassName = className
		*out = append(*out, sym)
	}
}

// extractFunctionVariables emits arrow symbols for variable declarators whose
// initializer is an arrow function or function expression.
func (e *symbolExtractor) extractFunctionVariables(node *sitter.Node, filePath string, source []byte, lines []string, changed []diff.LineRange) []FunctionSymbol {
	var symbols []FunctionSymbol
	for i := uint(0); i < node.ChildCount(); i++ {
		decl := node.Child(i)
		if decl.Kind() != "variable_declarator" {
			continue
		}

		nameNode := decl.ChildByFieldName("name")
		valueNode := decl.ChildByFieldName("value")
		if nameNode == nil || valueNode == nil {
			continue
		}

		switch valueNode.Kind() {
		case "arrow_function", "function_expression", "function":
		default:
			continue
		}

		name := nodeText(nameNode, source)
		sym := e.newSymbol(decl, filePath, name, KindArrow, source, lines, changed)
		sym.Signature = buildSignature(name, valueNode, source)
		symbols = append(symbols, sym)
	}
	return symbols
}

// newSymbol fills the fields shared by all symbol kinds.
func (e *symbolExtractor) newSymbol(node *sitter.Node, filePath, qualifiedName string, kind SymbolKind, source []byte, lines []string, changed []diff.LineRange) FunctionSymbol {
	r := diff.LineRange{Start: nodeStartLine(node), End: nodeEndLine(node)}
	return FunctionSymbol{
		ID:        SymbolID(filePath, qualifiedName, r.Start),
		Name:      qualifiedName,
		FilePath:  filePath,
		Range:     r,
		IsChanged: diff.Intersects(r, changed),
		Kind:      kind,
		Snippet:   buildSnippet(extractLines(lines, r.Start, r.End), e.maxSnippetLines),
	}
}

// buildSignature formats "name(params): returnType" from the function node's
// parameter and return-type source text.
func buildSignature(name string, fnNode *sitter.Node, source []byte) string {
	params := nodeText(fnNode.ChildByFieldName("parameters"), source)
	params = strings.TrimPrefix(params, "(")
	params = strings.TrimSuffix(params, ")")

	sig := fmt.Sprintf("%s(%s)", name, params)

	if ret := formatReturnType(nodeText(fnNode.ChildByFieldName("return_type"), source)); ret != "" {
		sig += ret
	}
	return sig
}

// formatReturnType normalizes a raw return-type annotation to ": T".
func formatReturnType(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimSpace(strings.TrimPrefix(value, ":"))
	if value == "" {
		return ""
	}
	return ": " + value
}

// buildSnippet joins the symbol's source lines, middle-truncating when the
// line count exceeds max: first half, a placeholder line, last half.
func buildSnippet(lines []string, max int) string {
	if max <= 0 || len(lines) <= max {
		return strings.Join(lines, "\n")
	}

	head := max / 2
	tail := max - head
	omitted := len(lines) - head - tail

	snippet := make([]string, 0, max+1)
	snippet = append(snippet, lines[:head]...)
	snippet = append(snippet, fmt.Sprintf("// ... %d lines omitted ...", omitted))
	snippet = append(snippet, lines[len(lines)-tail:]...)
	return strings.Join(snippet, "\n")
}
