package callgraph

// Test Plan for Graph Building:
// - a changed function calling another yields both nodes and one edge
// - unresolved callees become dashed external nodes when enabled
// - unresolved callees are dropped entirely when externals are disabled
// - unchanged callers of changed functions are pulled in one hop (backward pass)
// - unchanged functions with no link to a change are excluded
// - node budget caps output at MaxNodes with WasCapped and a full TotalFunctions
// - edge budget caps output at MaxEdges with WasCapped
// - edges referencing capped-out nodes are dropped
// - repeated builds of the same input are identical (determinism)
// - unparseable files are skipped without failing the build
// - ChangedFiles and ParseableFiles counters are populated

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/diff"
)

func buildGraph(t *testing.T, opts Options, files []SourceFile, changed []diff.FileChangedRanges) *CallGraph {
	t.Helper()
	return NewBuilder(opts).Build(files, changed)
}

func wholeFile(path string, content string) (SourceFile, diff.FileChangedRanges) {
	lines := strings.Count(content, "\n") + 1
	return SourceFile{Path: path, Content: []byte(content)},
		diff.FileChangedRanges{FilePath: path, Ranges: []diff.LineRange{{Start: 1, End: lines}}}
}

func nodeByName(g *CallGraph, name string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i]
		}
	}
	return nil
}

func TestBuildSimpleCall(t *testing.T) {
	t.Parallel()

	source := `function a() {
  b();
}

function b() {
  return 1;
}
`
	file := SourceFile{Path: "src/app.ts", Content: []byte(source)}
	// Only a is changed; b is pulled in as a callee neighbor.
	changed := []diff.FileChangedRanges{
		{FilePath: "src/app.ts", Ranges: []diff.LineRange{{Start: 2, End: 2}}},
	}

	g := buildGraph(t, DefaultOptions(), []SourceFile{file}, changed)

	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 2, g.TotalFunctions)
	assert.False(t, g.WasCapped)
	assert.Equal(t, 1, g.ChangedFiles)
	assert.Equal(t, 1, g.ParseableFiles)

	a := nodeByName(g, "a")
	b := nodeByName(g, "b")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.True(t, a.IsChanged)
	assert.False(t, b.IsChanged)

	edge := g.Edges[0]
	assert.Equal(t, a.ID, edge.From)
	assert.Equal(t, b.ID, edge.To)
	assert.Equal(t, 2, edge.Line)
	assert.False(t, edge.IsExternal)
	assert.Equal(t, EdgeID(a.ID, b.ID, 2), edge.ID)
}

func TestBuildExternalCallee(t *testing.T) {
	t.Parallel()

	source := `function a() {
  doStuff();
}
`
	file, fc := wholeFile("src/app.ts", source)

	t.Run("externals shown", func(t *testing.T) {
		t.Parallel()
		g := buildGraph(t, DefaultOptions(), []SourceFile{file}, []diff.FileChangedRanges{fc})

		require.Len(t, g.Nodes, 2)
		require.Len(t, g.Edges, 1)
		assert.Equal(t, 2, g.TotalFunctions)

		ext := nodeByName(g, "doStuff")
		require.NotNil(t, ext)
		assert.Equal(t, KindExternal, ext.Kind)
		assert.Equal(t, ExternalID("doStuff"), ext.ID)
		assert.Equal(t, ExternalFilePath, ext.FilePath)

		assert.True(t, g.Edges[0].IsExternal)
	})

	t.Run("externals hidden", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.ShowExternal = false
		g := buildGraph(t, opts, []SourceFile{file}, []diff.FileChangedRanges{fc})

		require.Len(t, g.Nodes, 1)
		assert.Empty(t, g.Edges)
		assert.Equal(t, 1, g.TotalFunctions)
		assert.False(t, g.WasCapped)
	})
}

func TestBuildBackwardPass(t *testing.T) {
	t.Parallel()

	source := `function caller() {
  target();
}

function target() {
  return 1;
}

function bystander() {
  return 2;
}
`
	file := SourceFile{Path: "src/app.ts", Content: []byte(source)}
	// Only target (lines 5-7) is changed.
	changed := []diff.FileChangedRanges{
		{FilePath: "src/app.ts", Ranges: []diff.LineRange{{Start: 6, End: 6}}},
	}

	g := buildGraph(t, DefaultOptions(), []SourceFile{file}, changed)

	require.NotNil(t, nodeByName(g, "caller"), "unchanged caller must be pulled in")
	require.NotNil(t, nodeByName(g, "target"))
	assert.Nil(t, nodeByName(g, "bystander"), "unlinked functions stay out")
	assert.Equal(t, 2, g.TotalFunctions)

	require.Len(t, g.Edges, 1)
	assert.Equal(t, nodeByName(g, "caller").ID, g.Edges[0].From)
	assert.Equal(t, nodeByName(g, "target").ID, g.Edges[0].To)
}

func TestBuildNodeCap(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "function fn%d() {\n  return %d;\n}\n\n", i, i)
	}
	file, fc := wholeFile("src/big.ts", sb.String())

	g := buildGraph(t, DefaultOptions(), []SourceFile{file}, []diff.FileChangedRanges{fc})

	assert.Len(t, g.Nodes, 80)
	assert.True(t, g.WasCapped)
	assert.Equal(t, 200, g.TotalFunctions)

	// The cap keeps the first functions in extraction order, not an
	// arbitrary 80.
	assert.Equal(t, "fn0", g.Nodes[0].Name)
	assert.Equal(t, "fn79", g.Nodes[79].Name)
}

func TestBuildEdgeCap(t *testing.T) {
	t.Parallel()

	// One changed function with more distinct external callees than MaxEdges.
	var sb strings.Builder
	sb.WriteString("function hub() {\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&sb, "  ext%d();\n", i)
	}
	sb.WriteString("}\n")
	file, fc := wholeFile("src/hub.ts", sb.String())

	opts := DefaultOptions()
	opts.MaxEdges = 4
	g := buildGraph(t, opts, []SourceFile{file}, []diff.FileChangedRanges{fc})

	assert.Len(t, g.Edges, 4)
	assert.True(t, g.WasCapped)
}

func TestBuildDroppedEdgesForCappedNodes(t *testing.T) {
	t.Parallel()

	source := `function a() {
  b();
}

function b() {
  return 1;
}

function c() {
  return 2;
}
`
	file, fc := wholeFile("src/app.ts", source)

	opts := DefaultOptions()
	opts.MaxNodes = 1
	g := buildGraph(t, opts, []SourceFile{file}, []diff.FileChangedRanges{fc})

	require.Len(t, g.Nodes, 1)
	assert.True(t, g.WasCapped)
	// The a->b edge references an excluded node and must not appear.
	assert.Empty(t, g.Edges)
	assert.Equal(t, 3, g.TotalFunctions)
}

func TestBuildDeterminism(t *testing.T) {
	t.Parallel()

	source := `function a() {
  b();
  missing();
}

function b() {
  c();
}

function c() {
  return 1;
}
`
	file, fc := wholeFile("src/app.ts", source)
	files := []SourceFile{file}
	changed := []diff.FileChangedRanges{fc}

	first := buildGraph(t, DefaultOptions(), files, changed)
	second := buildGraph(t, DefaultOptions(), files, changed)

	assert.Equal(t, first, second)
}

func TestBuildSkipsBrokenFiles(t *testing.T) {
	t.Parallel()

	good := `function a() {
  return 1;
}
`
	files := []SourceFile{
		{Path: "src/good.ts", Content: []byte(good)},
		{Path: "README.md", Content: []byte("# readme")},
	}
	changed := []diff.FileChangedRanges{
		{FilePath: "src/good.ts", Ranges: []diff.LineRange{{Start: 1, End: 3}}},
		{FilePath: "README.md", Ranges: []diff.LineRange{{Start: 1, End: 1}}},
	}

	g := buildGraph(t, DefaultOptions(), files, changed)

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "a", g.Nodes[0].Name)
	assert.Equal(t, 2, g.ChangedFiles)
	assert.Equal(t, 1, g.ParseableFiles)
}

func TestBuildEmptyInput(t *testing.T) {
	t.Parallel()

	g := buildGraph(t, DefaultOptions(), nil, nil)

	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
	assert.Equal(t, 0, g.TotalFunctions)
	assert.False(t, g.WasCapped)
}
