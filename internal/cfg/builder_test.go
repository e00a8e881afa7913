package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lsi/internal/errors"
	"github.com/standardbeagle/lsi/internal/parser"
	"github.com/standardbeagle/lsi/internal/types"
)

func buildCFG(t *testing.T, src, function string) *FunctionCFG {
	t.Helper()
	p, err := parser.New(parser.PythonGrammar{})
	require.NoError(t, err)
	defer p.Close()

	content := []byte(src)
	tree, err := p.Parse("test.py", content)
	require.NoError(t, err)
	defer tree.Close()

	g, err := NewBuilder("test.py", content).BuildByName(tree.RootNode(), function)
	require.NoError(t, err)
	return g
}

func countEdges(g *FunctionCFG, kind EdgeKind) int {
	n := 0
	for _, e := range g.Edges {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestEveryBlockCarriesALine(t *testing.T) {
	// The loop-after block and the if/else merge receive no statements
	// here; they still report the line of the construct that created
	// them instead of line zero.
	g := buildCFG(t, `def f(items):
    while items:
        items.pop()
    if items:
        items.clear()
    else:
        items.reverse()
`, "f")

	for _, blk := range g.Blocks {
		assert.Positive(t, blk.StartLine, "block %d has no start line", blk.ID)
		assert.Positive(t, blk.EndLine, "block %d has no end line", blk.ID)
	}
}

func TestBuildSingleBranch(t *testing.T) {
	g := buildCFG(t, `def f(x):
    if x:
        return 1
    return 0
`, "f")

	assert.Len(t, g.Blocks, 4)
	assert.Len(t, g.Edges, 3)
	assert.Len(t, g.Exits, 2)

	assert.Equal(t, BlockEntry, g.Block(g.Entry).Kind)
	assert.Equal(t, 1, countEdges(g, EdgeSequential))
	assert.Equal(t, 1, countEdges(g, EdgeBranchTrue))
	assert.Equal(t, 1, countEdges(g, EdgeBranchFalse))

	for _, id := range g.Exits {
		assert.Empty(t, g.Successors(id), "exit blocks have no successors")
	}
}

func TestBuildIfElseMerge(t *testing.T) {
	g := buildCFG(t, `def f(x):
    if x:
        a = 1
    else:
        a = 2
    return a
`, "f")

	// entry, branch, true body, false body, merge
	assert.Len(t, g.Blocks, 5)
	assert.Len(t, g.Edges, 5)
	require.Len(t, g.Exits, 1)
	assert.Equal(t, BlockExit, g.Block(g.Exits[0]).Kind)
}

func TestBuildElifChain(t *testing.T) {
	g := buildCFG(t, `def f(x):
    if x == 1:
        a = 1
    elif x == 2:
        a = 2
    else:
        a = 3
    return a
`, "f")

	branches := 0
	for _, b := range g.Blocks {
		if b.Kind == BlockBranch {
			branches++
		}
	}
	assert.Equal(t, 2, branches, "if and elif each get a branch block")
	assert.Equal(t, 2, countEdges(g, EdgeBranchTrue))
	assert.Equal(t, 2, countEdges(g, EdgeBranchFalse))
	assert.Len(t, g.Exits, 1)
}

func TestBuildWhileLoop(t *testing.T) {
	g := buildCFG(t, `def f(x):
    while x:
        x = x - 1
`, "f")

	assert.Len(t, g.Blocks, 4)
	assert.Len(t, g.Edges, 4)
	assert.Equal(t, 1, countEdges(g, EdgeLoopBack))
	require.Len(t, g.Exits, 1)
}

func TestBuildForLoop(t *testing.T) {
	g := buildCFG(t, `def f(items):
    for item in items:
        print(item)
    return items
`, "f")

	assert.Equal(t, 1, countEdges(g, EdgeLoopBack))
	require.Len(t, g.Exits, 1)
	assert.Equal(t, BlockExit, g.Block(g.Exits[0]).Kind)
}

func TestBuildStraightLine(t *testing.T) {
	g := buildCFG(t, `def f():
    a = 1
    b = 2
    return a + b
`, "f")

	assert.Len(t, g.Blocks, 1)
	assert.Empty(t, g.Edges)
	assert.Equal(t, []types.BlockID{g.Entry}, g.Exits)
	assert.Equal(t, 3, g.Block(g.Entry).StmtCount)
}

func TestBuildEmptyBody(t *testing.T) {
	g := buildCFG(t, `def f():
    pass
`, "f")

	assert.Len(t, g.Blocks, 1)
	assert.Equal(t, []types.BlockID{g.Entry}, g.Exits)
}

func TestBuildUnreachableCode(t *testing.T) {
	g := buildCFG(t, `def f():
    return 1
    x = 2
`, "f")

	assert.Len(t, g.Blocks, 2, "unreachable code is still recorded")

	require.NotEmpty(t, g.Warnings)
	assert.Equal(t, types.WarnUnreachableBlock, g.Warnings[0].Kind)

	reachable := g.Reachable()
	assert.True(t, reachable[g.Entry])
	assert.Len(t, reachable, 1)
}

func TestBuildBothSidesReturn(t *testing.T) {
	g := buildCFG(t, `def f(x):
    if x:
        return 1
    else:
        return 2
`, "f")

	assert.Len(t, g.Exits, 2)
	for _, b := range g.Blocks {
		assert.NotEqual(t, BlockMerge, b.Kind, "no merge when both sides return")
	}
}

func TestBuildUnsupportedConstructWarns(t *testing.T) {
	g := buildCFG(t, `def f():
    try:
        risky()
    except ValueError:
        pass
    return 1
`, "f")

	require.NotEmpty(t, g.Warnings)
	assert.Equal(t, types.WarnUnsupportedNode, g.Warnings[0].Kind)
	// The construct degrades to a plain statement; the graph survives.
	assert.NotEmpty(t, g.Exits)
}

func TestBuildByNameUnknownFunction(t *testing.T) {
	p, err := parser.New(parser.PythonGrammar{})
	require.NoError(t, err)
	defer p.Close()

	content := []byte("def f():\n    pass\n")
	tree, err := p.Parse("test.py", content)
	require.NoError(t, err)
	defer tree.Close()

	_, err = NewBuilder("test.py", content).BuildByName(tree.RootNode(), "missing")
	var unknown *errors.UnknownFunctionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Function)
}

func TestFunctionsListsNestedAndMethods(t *testing.T) {
	p, err := parser.New(parser.PythonGrammar{})
	require.NoError(t, err)
	defer p.Close()

	content := []byte(`def outer():
    def inner():
        pass

class C:
    def method(self):
        pass
`)
	tree, err := p.Parse("test.py", content)
	require.NoError(t, err)
	defer tree.Close()

	b := NewBuilder("test.py", content)
	fns := b.Functions(tree.RootNode())

	names := make([]string, 0, len(fns))
	for _, fn := range fns {
		names = append(names, fn.Name)
	}
	assert.Equal(t, []string{"outer", "inner", "method"}, names)
}
