package extract

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lsi/internal/debug"
	"github.com/standardbeagle/lsi/internal/parser"
	"github.com/standardbeagle/lsi/internal/types"
)

// Result holds everything extracted from one file. Warnings are soft:
// a malformed construct is recorded and skipped without failing the file.
type Result struct {
	Symbols  []types.Symbol
	Warnings []types.Warning
}

// Extractor walks syntax trees and produces the symbol stream the
// index is built from. Stateless and safe for concurrent use.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract collects symbols from a parsed file in source order.
func (e *Extractor) Extract(path string, fileID types.FileID, root *tree_sitter.Node, content []byte) *Result {
	res := &Result{}

	parser.VisitNamed(root, func(n *tree_sitter.Node) bool {
		if n.IsError() || n.IsMissing() {
			res.Warnings = append(res.Warnings, types.Warning{
				Kind:    types.WarnMalformedConstruct,
				Path:    path,
				Line:    parser.NodeLine(n),
				Message: fmt.Sprintf("malformed construct near %q", truncate(parser.NodeText(n, content), 40)),
			})
			return false
		}

		switch n.Kind() {
		case "function_definition":
			e.addNamed(res, n, content, types.SymbolKindFunction, fileID)
		case "class_definition":
			e.addNamed(res, n, content, types.SymbolKindClass, fileID)
		case "import_statement":
			e.extractImports(res, n, content, fileID)
			return false
		case "import_from_statement":
			e.extractFromImports(res, n, content, fileID)
			return false
		case "call":
			e.extractCall(res, n, content, fileID)
		case "assignment":
			e.extractAssignment(res, n, content, fileID)
		}
		return true
	})

	debug.LogIndexing("extracted %d symbols, %d warnings from %s\n", len(res.Symbols), len(res.Warnings), path)
	return res
}

// addNamed records a definition node carrying a name field.
func (e *Extractor) addNamed(res *Result, n *tree_sitter.Node, content []byte, kind types.SymbolKind, fileID types.FileID) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	res.Symbols = append(res.Symbols, types.Symbol{
		Name:    parser.NodeText(name, content),
		Kind:    kind,
		FileID:  fileID,
		Line:    parser.NodeLine(n),
		EndLine: parser.NodeEndLine(n),
	})
}

// extractImports handles "import a.b, c as d". Both the module path
// and any alias become import symbols.
func (e *Extractor) extractImports(res *Result, n *tree_sitter.Node, content []byte, fileID types.FileID) {
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "dotted_name":
			e.addImport(res, child, content, fileID)
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				e.addImport(res, name, content, fileID)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				e.addImport(res, alias, content, fileID)
			}
		}
	}
}

// extractFromImports handles "from a.b import c, d as e".
func (e *Extractor) extractFromImports(res *Result, n *tree_sitter.Node, content []byte, fileID types.FileID) {
	if module := n.ChildByFieldName("module_name"); module != nil {
		e.addImport(res, module, content, fileID)
	}
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if module := n.ChildByFieldName("module_name"); module != nil && child.Id() == module.Id() {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			e.addImport(res, child, content, fileID)
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				e.addImport(res, name, content, fileID)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				e.addImport(res, alias, content, fileID)
			}
		case "wildcard_import":
			// "from x import *" binds nothing nameable
		}
	}
}

func (e *Extractor) addImport(res *Result, n *tree_sitter.Node, content []byte, fileID types.FileID) {
	text := parser.NodeText(n, content)
	if text == "" {
		return
	}
	res.Symbols = append(res.Symbols, types.Symbol{
		Name:    text,
		Kind:    types.SymbolKindImport,
		FileID:  fileID,
		Line:    parser.NodeLine(n),
		EndLine: parser.NodeLine(n),
	})
}

// extractCall records the called name. Attribute calls like
// obj.method() index the attribute, not the receiver chain.
func (e *Extractor) extractCall(res *Result, n *tree_sitter.Node, content []byte, fileID types.FileID) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var name string
	switch fn.Kind() {
	case "identifier":
		name = parser.NodeText(fn, content)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			name = parser.NodeText(attr, content)
		}
	default:
		// Calls on arbitrary expressions ((f or g)()) have no stable name
		return
	}
	if name == "" {
		return
	}

	res.Symbols = append(res.Symbols, types.Symbol{
		Name:    name,
		Kind:    types.SymbolKindCallSite,
		FileID:  fileID,
		Line:    parser.NodeLine(n),
		EndLine: parser.NodeLine(n),
	})
}

// extractAssignment records left-hand-side bindings, including tuple
// unpacking targets.
func (e *Extractor) extractAssignment(res *Result, n *tree_sitter.Node, content []byte, fileID types.FileID) {
	left := n.ChildByFieldName("left")
	if left == nil {
		return
	}
	e.collectTargets(res, left, content, fileID)
}

func (e *Extractor) collectTargets(res *Result, n *tree_sitter.Node, content []byte, fileID types.FileID) {
	switch n.Kind() {
	case "identifier":
		res.Symbols = append(res.Symbols, types.Symbol{
			Name:    parser.NodeText(n, content),
			Kind:    types.SymbolKindIdentifier,
			FileID:  fileID,
			Line:    parser.NodeLine(n),
			EndLine: parser.NodeLine(n),
		})
	case "pattern_list", "tuple_pattern", "list_pattern":
		count := n.NamedChildCount()
		for i := uint(0); i < count; i++ {
			e.collectTargets(res, n.NamedChild(i), content, fileID)
		}
	case "attribute", "subscript":
		// self.x = ... and a[i] = ... do not introduce a new name
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
