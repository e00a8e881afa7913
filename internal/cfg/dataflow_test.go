package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lsi/internal/parser"
)

func analyzeDataflowSource(t *testing.T, src, function string) *DataflowReport {
	t.Helper()
	p, err := parser.New(parser.PythonGrammar{})
	require.NoError(t, err)
	defer p.Close()

	content := []byte(src)
	tree, err := p.Parse("test.py", content)
	require.NoError(t, err)
	defer tree.Close()

	b := NewBuilder("test.py", content)
	for _, fn := range b.Functions(tree.RootNode()) {
		if fn.Name == function {
			return b.AnalyzeDataflow(fn)
		}
	}
	t.Fatalf("function %s not found", function)
	return nil
}

func TestDataflowUsedDefinitions(t *testing.T) {
	report := analyzeDataflowSource(t, `def f():
    a = 1
    b = a + 2
    return b
`, "f")

	assert.Len(t, report.Definitions, 2)
	assert.Empty(t, report.Unused)
}

func TestDataflowUnusedAssignment(t *testing.T) {
	report := analyzeDataflowSource(t, `def f():
    a = 1
    b = 2
    return a
`, "f")

	require.Len(t, report.Unused, 1)
	assert.Equal(t, "b", report.Unused[0].Name)
	assert.Equal(t, uint32(3), report.Unused[0].Line)
}

func TestDataflowRedefinitionKillsPrevious(t *testing.T) {
	report := analyzeDataflowSource(t, `def f():
    a = 1
    a = 2
    return a
`, "f")

	require.Len(t, report.Unused, 1)
	assert.Equal(t, uint32(2), report.Unused[0].Line, "first binding is dead")
}

func TestDataflowSelfReferenceReadsOldBinding(t *testing.T) {
	report := analyzeDataflowSource(t, `def f():
    x = 1
    x = x + 1
    return x
`, "f")

	assert.Empty(t, report.Unused, "x = x + 1 reads the previous x")
}

func TestDataflowTupleTargets(t *testing.T) {
	report := analyzeDataflowSource(t, `def f():
    a, b = 1, 2
    return a
`, "f")

	assert.Len(t, report.Definitions, 2)
	require.Len(t, report.Unused, 1)
	assert.Equal(t, "b", report.Unused[0].Name)
}

func TestDataflowSkipsNestedFunctions(t *testing.T) {
	report := analyzeDataflowSource(t, `def f():
    a = 1
    def inner():
        b = 2
    return a
`, "f")

	names := make([]string, 0, len(report.Definitions))
	for _, d := range report.Definitions {
		names = append(names, d.Name)
	}
	assert.NotContains(t, names, "b")
}
