package callgraph

import (
	"fmt"

	"github.com/codescope/codescope/internal/diff"
)

// SymbolKind classifies an extracted function-like symbol.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindMethod   SymbolKind = "method"
	KindArrow    SymbolKind = "arrow"
	KindClass    SymbolKind = "class"
	KindExternal SymbolKind = "external"
)

// ExternalFilePath is the placeholder file path for synthesized external nodes.
const ExternalFilePath = "(external)"

// FunctionSymbol is an extracted function, method, or arrow function.
// Symbols are created during extraction and immutable thereafter.
type FunctionSymbol struct {
	ID        string         `json:"id"` // filePath:qualifiedName:startLine
	Name      string         `json:"name"`
	Signature string         `json:"signature"`
	FilePath  string         `json:"filePath"`
	Range     diff.LineRange `json:"range"`
	IsChanged bool           `json:"isChanged"`
	Kind      SymbolKind     `json:"kind"`
	Snippet   string         `json:"snippet"`
	ClassName string         `json:"className,omitempty"`
}

// SymbolID builds the unique symbol identifier for a build.
func SymbolID(filePath, qualifiedName string, startLine int) string {
	return fmt.Sprintf("%s:%s:%d", filePath, qualifiedName, startLine)
}

// ExternalID builds the node identifier for an unresolved call target.
func ExternalID(calleeName string) string {
	return "external:" + calleeName
}

// CallSite is a call expression found inside a function body. It is created
// unresolved by call-site extraction and mutated in place during resolution.
type CallSite struct {
	Callee   string `json:"callee"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Resolved bool   `json:"resolved"`
	TargetID string `json:"targetId,omitempty"`
}

// Node is a materialized call graph node.
type Node struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Signature string         `json:"signature,omitempty"`
	FilePath  string         `json:"filePath"`
	Range     diff.LineRange `json:"range"`
	Kind      SymbolKind     `json:"kind"`
	IsChanged bool           `json:"isChanged"`
	Snippet   string         `json:"snippet,omitempty"`
	ClassName string         `json:"className,omitempty"`
}

// Edge is a directed caller→callee relationship. External edges point at a
// synthesized placeholder node and are rendered dashed.
type Edge struct {
	ID         string `json:"id"` // callerId->targetId:line
	From       string `json:"from"`
	To         string `json:"to"`
	Line       int    `json:"line"`
	IsExternal bool   `json:"isExternal"`
}

// EdgeID builds the unique edge identifier for a build.
func EdgeID(fromID, toID string, line int) string {
	return fmt.Sprintf("%s->%s:%d", fromID, toID, line)
}

// CallGraph is the sole output of a build. Edges reference only ids present
// in Nodes. TotalFunctions counts the inclusion set before capping.
type CallGraph struct {
	Nodes          []Node `json:"nodes"`
	Edges          []Edge `json:"edges"`
	TotalFunctions int    `json:"totalFunctions"`
	WasCapped      bool   `json:"wasCapped"`
	ChangedFiles   int    `json:"changedFiles"`
	ParseableFiles int    `json:"parseableFiles"`
}

// SourceFile is a changed file's post-image content, loaded by the caller.
type SourceFile struct {
	Path    string
	Content []byte
}

// Options bound the size and shape of the built graph.
type Options struct {
	MaxNodes        int
	MaxEdges        int
	ShowExternal    bool
	MaxSnippetLines int
}

// DefaultOptions returns the standard graph limits.
func DefaultOptions() Options {
	return Options{
		MaxNodes:        80,
		MaxEdges:        150,
		ShowExternal:    true,
		MaxSnippetLines: 20,
	}
}
