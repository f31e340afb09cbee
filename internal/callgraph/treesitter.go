package callgraph

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

var (
	tsLanguage  = sitter.NewLanguage(typescript.LanguageTypescript())
	tsxLanguage = sitter.NewLanguage(typescript.LanguageTSX())
	jsLanguage  = sitter.NewLanguage(javascript.Language())
)

// SupportedExtensions lists the file extensions the extractor can parse.
var SupportedExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".mjs", ".cts", ".cjs"}

// IsSupported reports whether the file can be parsed into symbols.
// Unsupported changed files still count as changed, just not parseable.
func IsSupported(filePath string) bool {
	return languageForFile(filePath) != nil
}

// languageForFile picks the grammar for a file, or nil if unsupported.
func languageForFile(filePath string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return tsLanguage
	case ".tsx":
		return tsxLanguage
	case ".js", ".jsx", ".mjs", ".cjs":
		return jsLanguage
	default:
		return nil
	}
}

// parseSource parses source text into a tree. The caller owns the tree and
// must Close it.
func parseSource(filePath string, source []byte) (*sitter.Tree, error) {
	lang := languageForFile(filePath)
	if lang == nil {
		return nil, fmt.Errorf("unsupported file type: %s", filePath)
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("setting language for %s: %w", filePath, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", filePath)
	}
	return tree, nil
}

// walkTree recursively walks the tree, calling the visitor for each node.
// Returning false from the visitor stops recursion into that node's children.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkTree(node.Child(i), visitor)
	}
}

// nodeText extracts the source text of a node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// nodeStartLine returns the 1-indexed start line of a node.
func nodeStartLine(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// nodeEndLine returns the 1-indexed end line of a node.
func nodeEndLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// extractLines returns source lines startLine..endLine (1-indexed, inclusive).
func extractLines(lines []string, startLine, endLine int) []string {
	if startLine < 1 || endLine < 1 || startLine > len(lines) {
		return nil
	}
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}
	return lines[startLine-1 : end]
}
