package parser

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/standardbeagle/lsi/internal/errors"
)

// Grammar is the syntax front end boundary. The rest of the system
// only sees trees and node kinds; swapping the language means swapping
// the Grammar.
type Grammar interface {
	// Name identifies the grammar ("python").
	Name() string
	// Extensions lists file extensions this grammar handles, with dot.
	Extensions() []string
	// Language returns the tree-sitter language object.
	Language() *tree_sitter.Language
}

// PythonGrammar front-ends the tree-sitter Python grammar.
type PythonGrammar struct{}

func (PythonGrammar) Name() string { return "python" }

func (PythonGrammar) Extensions() []string { return []string{".py"} }

func (PythonGrammar) Language() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_python.Language())
}

// Parser wraps a tree-sitter parser bound to one grammar. A parser
// instance is not reentrant, so Parse serializes behind a mutex; use
// one Parser per worker for parallel indexing.
type Parser struct {
	grammar Grammar
	parser  *tree_sitter.Parser
	mu      sync.Mutex
}

// New creates a parser bound to the given grammar.
func New(grammar Grammar) (*Parser, error) {
	p := tree_sitter.NewParser()
	if err := p.SetLanguage(grammar.Language()); err != nil {
		return nil, errors.NewParseError(grammar.Name(), err)
	}
	return &Parser{grammar: grammar, parser: p}, nil
}

// Grammar returns the grammar this parser is bound to.
func (p *Parser) Grammar() Grammar { return p.grammar }

// Parse parses source content into a syntax tree. The caller owns the
// returned tree and must Close it. Syntax errors inside the content do
// not fail the parse; they surface as ERROR nodes in the tree and are
// handled downstream as per-construct warnings.
func (p *Parser) Parse(path string, content []byte) (*tree_sitter.Tree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree := p.parser.Parse(content, nil)
	if tree == nil || tree.RootNode() == nil {
		return nil, errors.NewParseError(path, errors.ErrNoTree)
	}
	return tree, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parser.Close()
}

// NodeText extracts the source text a node spans.
func NodeText(n *tree_sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if start > end || end > uint(len(content)) {
		return ""
	}
	return string(content[start:end])
}

// NodeLine returns the 1-based line a node starts on.
func NodeLine(n *tree_sitter.Node) uint32 {
	return uint32(n.StartPosition().Row) + 1
}

// NodeEndLine returns the 1-based line a node ends on.
func NodeEndLine(n *tree_sitter.Node) uint32 {
	return uint32(n.EndPosition().Row) + 1
}

// VisitNamed walks named nodes depth-first in source order. The visit
// function returns false to skip a node's children.
func VisitNamed(n *tree_sitter.Node, visit func(*tree_sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		VisitNamed(n.NamedChild(i), visit)
	}
}
