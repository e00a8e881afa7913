package cfg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeSource(t *testing.T, src, function string) *ComplexityReport {
	t.Helper()
	g := buildCFG(t, src, function)
	return NewAnalyzer(0, 0).Analyze(g)
}

func TestAnalyzeSingleBranch(t *testing.T) {
	report := analyzeSource(t, `def f(x):
    if x:
        return 1
    return 0
`, "f")

	assert.Equal(t, 4, report.Blocks)
	assert.Equal(t, 3, report.Edges)
	assert.Equal(t, 2, report.CyclomaticComplexity)
	assert.Equal(t, 2, report.PathCount)
	assert.False(t, report.PathCountIsLowerBound)
	assert.Len(t, report.SamplePaths, 2)
}

func TestAnalyzeStraightLine(t *testing.T) {
	report := analyzeSource(t, `def f():
    a = 1
    return a
`, "f")

	assert.Equal(t, 1, report.CyclomaticComplexity)
	assert.Equal(t, 1, report.PathCount)
}

func TestAnalyzeWhileLoopTerminates(t *testing.T) {
	report := analyzeSource(t, `def f(x):
    while x:
        x = x - 1
`, "f")

	assert.Equal(t, 2, report.CyclomaticComplexity)
	assert.Equal(t, 2, report.PathCount, "loop body taken or skipped")
	assert.False(t, report.PathCountIsLowerBound)
}

func TestAnalyzeMultipleReturnsShareVirtualExit(t *testing.T) {
	report := analyzeSource(t, `def f(x):
    if x:
        return 1
    else:
        return 2
`, "f")

	// Two exits converge on one virtual exit, so one decision point
	// still yields complexity 2.
	assert.Equal(t, 2, report.CyclomaticComplexity)
	assert.Equal(t, 2, report.PathCount)
}

func TestAnalyzeUnreachableExcluded(t *testing.T) {
	report := analyzeSource(t, `def f():
    return 1
    x = 2
`, "f")

	assert.Equal(t, 2, report.Blocks, "whole-graph count keeps unreachable blocks")
	assert.Len(t, report.UnreachableBlocks, 1)
	assert.Equal(t, 1, report.CyclomaticComplexity)
	assert.Equal(t, 1, report.PathCount)
}

func TestAnalyzeNestedBranches(t *testing.T) {
	report := analyzeSource(t, `def f(x, y):
    if x:
        if y:
            a = 1
        else:
            a = 2
    else:
        a = 3
    return a
`, "f")

	assert.Equal(t, 3, report.CyclomaticComplexity)
	assert.Equal(t, 3, report.PathCount)
}

func TestAnalyzePathCapTruncates(t *testing.T) {
	// Ten sequential branches give 2^10 paths, far over a cap of 8.
	var sb strings.Builder
	sb.WriteString("def f(x):\n")
	for i := 0; i < 10; i++ {
		sb.WriteString("    if x:\n        x = x + 1\n")
	}
	sb.WriteString("    return x\n")

	g := buildCFG(t, sb.String(), "f")
	report := NewAnalyzer(8, 4).Analyze(g)

	assert.Equal(t, 8, report.PathCount)
	assert.True(t, report.PathCountIsLowerBound)
	assert.Len(t, report.SamplePaths, 4)
}

func TestAnalyzeSamplePathsStartAtEntryEndAtExit(t *testing.T) {
	g := buildCFG(t, `def f(x):
    if x:
        return 1
    return 0
`, "f")
	report := NewAnalyzer(0, 0).Analyze(g)

	for _, path := range report.SamplePaths {
		require.NotEmpty(t, path)
		assert.Equal(t, g.Entry, path[0])
		assert.True(t, g.IsExit(path[len(path)-1]))
	}
}
