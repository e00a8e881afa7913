package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lsi/internal/parser"
	"github.com/standardbeagle/lsi/internal/types"
)

func extractSource(t *testing.T, src string) *Result {
	t.Helper()
	p, err := parser.New(parser.PythonGrammar{})
	require.NoError(t, err)
	defer p.Close()

	content := []byte(src)
	tree, err := p.Parse("test.py", content)
	require.NoError(t, err)
	defer tree.Close()

	return New().Extract("test.py", 1, tree.RootNode(), content)
}

func findSymbols(res *Result, kind types.SymbolKind) []types.Symbol {
	var out []types.Symbol
	for _, s := range res.Symbols {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func TestExtractFunctionAndClass(t *testing.T) {
	res := extractSource(t, `class Greeter:
    def greet(self, name):
        return name
`)

	classes := findSymbols(res, types.SymbolKindClass)
	require.Len(t, classes, 1)
	assert.Equal(t, "Greeter", classes[0].Name)
	assert.Equal(t, uint32(1), classes[0].Line)
	assert.Equal(t, uint32(3), classes[0].EndLine)

	funcs := findSymbols(res, types.SymbolKindFunction)
	require.Len(t, funcs, 1)
	assert.Equal(t, "greet", funcs[0].Name)
	assert.Equal(t, uint32(2), funcs[0].Line)
}

func TestExtractImports(t *testing.T) {
	res := extractSource(t, `import os.path
import json as j
from collections import OrderedDict, defaultdict
`)

	imports := findSymbols(res, types.SymbolKindImport)
	names := make([]string, 0, len(imports))
	for _, s := range imports {
		names = append(names, s.Name)
	}

	assert.Contains(t, names, "os.path")
	assert.Contains(t, names, "json")
	assert.Contains(t, names, "j")
	assert.Contains(t, names, "collections")
	assert.Contains(t, names, "OrderedDict")
	assert.Contains(t, names, "defaultdict")
}

func TestExtractCallSites(t *testing.T) {
	res := extractSource(t, `result = compute(load())
obj.render_template()
(f or g)()
`)

	calls := findSymbols(res, types.SymbolKindCallSite)
	names := make([]string, 0, len(calls))
	for _, s := range calls {
		names = append(names, s.Name)
	}

	assert.ElementsMatch(t, []string{"compute", "load", "render_template"}, names)
}

func TestExtractAssignmentTargets(t *testing.T) {
	res := extractSource(t, `total = 0
a, b = 1, 2
self.x = 3
items[0] = 4
`)

	idents := findSymbols(res, types.SymbolKindIdentifier)
	names := make([]string, 0, len(idents))
	for _, s := range idents {
		names = append(names, s.Name)
	}

	assert.ElementsMatch(t, []string{"total", "a", "b"}, names)
}

func TestExtractMalformedWarnsAndContinues(t *testing.T) {
	res := extractSource(t, `def broken(:
    pass

def fine():
    pass
`)

	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, types.WarnMalformedConstruct, res.Warnings[0].Kind)

	funcs := findSymbols(res, types.SymbolKindFunction)
	names := make([]string, 0, len(funcs))
	for _, s := range funcs {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "fine", "good constructs after a bad one must still index")
}

func TestExtractSourceOrder(t *testing.T) {
	res := extractSource(t, `def first():
    pass

def second():
    pass
`)

	funcs := findSymbols(res, types.SymbolKindFunction)
	require.Len(t, funcs, 2)
	assert.Equal(t, "first", funcs[0].Name)
	assert.Equal(t, "second", funcs[1].Name)
	assert.Less(t, funcs[0].Line, funcs[1].Line)
}
