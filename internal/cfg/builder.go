package cfg

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lsi/internal/debug"
	"github.com/standardbeagle/lsi/internal/errors"
	"github.com/standardbeagle/lsi/internal/parser"
	"github.com/standardbeagle/lsi/internal/types"
)

// Builder turns function syntax subtrees into control-flow graphs.
// One builder serves one file; Build can be called for each function.
type Builder struct {
	path    string
	content []byte
}

// NewBuilder creates a CFG builder for one parsed file.
func NewBuilder(path string, content []byte) *Builder {
	return &Builder{path: path, content: content}
}

// FunctionNode pairs a function name with its definition node.
type FunctionNode struct {
	Name string
	Node *tree_sitter.Node
}

// Functions lists every function definition in the tree, including
// nested ones and methods, in source order.
func (b *Builder) Functions(root *tree_sitter.Node) []FunctionNode {
	var out []FunctionNode
	parser.VisitNamed(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_definition" {
			if name := n.ChildByFieldName("name"); name != nil {
				out = append(out, FunctionNode{
					Name: parser.NodeText(name, b.content),
					Node: n,
				})
			}
		}
		return true
	})
	return out
}

// BuildByName builds the CFG for the first function with the given
// name. Returns UnknownFunctionError when no such function exists.
func (b *Builder) BuildByName(root *tree_sitter.Node, name string) (*FunctionCFG, error) {
	for _, fn := range b.Functions(root) {
		if fn.Name == name {
			return b.Build(fn), nil
		}
	}
	return nil, errors.NewUnknownFunctionError(name, b.path)
}

// BuildAll builds CFGs for every function in the tree.
func (b *Builder) BuildAll(root *tree_sitter.Node) []*FunctionCFG {
	fns := b.Functions(root)
	out := make([]*FunctionCFG, 0, len(fns))
	for _, fn := range fns {
		out = append(out, b.Build(fn))
	}
	return out
}

// Build constructs the CFG for one function definition.
func (b *Builder) Build(fn FunctionNode) *FunctionCFG {
	gb := &graphBuilder{
		builder: b,
		graph: &FunctionCFG{
			FunctionName: fn.Name,
			FilePath:     b.path,
			StartLine:    parser.NodeLine(fn.Node),
		},
		dead: make(map[types.BlockID]bool),
	}

	entry := gb.newBlock(BlockEntry, parser.NodeLine(fn.Node))
	gb.graph.Entry = entry
	gb.current = entry

	if body := fn.Node.ChildByFieldName("body"); body != nil {
		gb.processBody(body)
	}

	// A function without a trailing return exits through its last
	// live block.
	if gb.current != types.NoBlock && !gb.dead[gb.current] {
		gb.markExit(gb.current)
	}
	if len(gb.graph.Exits) == 0 {
		gb.markExit(entry)
	}

	debug.LogCFG("built %s: %d blocks, %d edges, %d exits\n",
		fn.Name, len(gb.graph.Blocks), len(gb.graph.Edges), len(gb.graph.Exits))
	return gb.graph
}

// graphBuilder holds the mutable state of one Build call.
type graphBuilder struct {
	builder *Builder
	graph   *FunctionCFG
	current types.BlockID
	dead    map[types.BlockID]bool // blocks created for unreachable code
}

func (gb *graphBuilder) newBlock(kind BlockKind, line uint32) types.BlockID {
	id := types.BlockID(len(gb.graph.Blocks))
	gb.graph.Blocks = append(gb.graph.Blocks, BasicBlock{
		ID:        id,
		Kind:      kind,
		StartLine: line,
		EndLine:   line,
	})
	return id
}

func (gb *graphBuilder) addEdge(from, to types.BlockID, kind EdgeKind) {
	gb.graph.Edges = append(gb.graph.Edges, Edge{From: from, To: to, Kind: kind})
}

func (gb *graphBuilder) markExit(id types.BlockID) {
	if !gb.graph.IsExit(id) {
		gb.graph.Exits = append(gb.graph.Exits, id)
	}
}

func (gb *graphBuilder) warn(kind types.WarningKind, line uint32, format string, args ...interface{}) {
	gb.graph.Warnings = append(gb.graph.Warnings, types.Warning{
		Kind:    kind,
		Path:    gb.builder.path,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// ensureCurrent guarantees a live block for the next statement. Code
// after a return gets a fresh block with no incoming edge, recorded as
// unreachable.
func (gb *graphBuilder) ensureCurrent(line uint32) {
	if gb.current != types.NoBlock {
		return
	}
	id := gb.newBlock(BlockPlain, line)
	gb.dead[id] = true
	gb.warn(types.WarnUnreachableBlock, line, "unreachable code")
	gb.current = id
}

// appendStmt accounts a plain statement into the current block.
func (gb *graphBuilder) appendStmt(n *tree_sitter.Node) {
	line := parser.NodeLine(n)
	gb.ensureCurrent(line)
	blk := gb.graph.Block(gb.current)
	if blk.StmtCount == 0 && blk.Kind != BlockEntry {
		blk.StartLine = line
	}
	if end := parser.NodeEndLine(n); end > blk.EndLine {
		blk.EndLine = end
	}
	blk.StmtCount++
}

// processBody walks the statements of a block node in order.
func (gb *graphBuilder) processBody(body *tree_sitter.Node) {
	count := body.NamedChildCount()
	for i := uint(0); i < count; i++ {
		gb.processStatement(body.NamedChild(i))
	}
}

func (gb *graphBuilder) processStatement(n *tree_sitter.Node) {
	if n.IsError() || n.IsMissing() {
		// Degrade to a plain statement so the rest of the function
		// still gets a graph.
		gb.warn(types.WarnMalformedConstruct, parser.NodeLine(n), "malformed control construct")
		gb.appendStmt(n)
		return
	}

	switch n.Kind() {
	case "if_statement":
		gb.handleIf(n)
	case "while_statement", "for_statement":
		gb.handleLoop(n)
	case "return_statement":
		gb.handleReturn(n)
	case "comment":
		// not control flow
	case "try_statement", "with_statement", "match_statement",
		"break_statement", "continue_statement", "raise_statement":
		gb.warn(types.WarnUnsupportedNode, parser.NodeLine(n), "unsupported control construct %s", n.Kind())
		gb.appendStmt(n)
	case "function_definition", "class_definition":
		// Nested definitions are separate graphs; here they are just
		// one statement.
		gb.appendStmt(n)
	default:
		gb.appendStmt(n)
	}
}

func (gb *graphBuilder) handleReturn(n *tree_sitter.Node) {
	gb.appendStmt(n)
	blk := gb.graph.Block(gb.current)
	if blk.Kind != BlockEntry {
		blk.Kind = BlockExit
	}
	if !gb.dead[gb.current] {
		gb.markExit(gb.current)
	}
	gb.current = types.NoBlock
}

// handleIf builds the branch diamond for if/elif/else chains. Sides
// that end in return do not reach the merge; if no side survives, no
// merge block is created.
func (gb *graphBuilder) handleIf(n *tree_sitter.Node) {
	line := parser.NodeLine(n)
	gb.ensureCurrent(line)

	branch := gb.newBlock(BlockBranch, line)
	gb.graph.Block(branch).StmtCount = 1
	gb.addEdge(gb.current, branch, EdgeSequential)
	if gb.dead[gb.current] {
		gb.dead[branch] = true
	}

	var liveEnds []types.BlockID

	if consequence := n.ChildByFieldName("consequence"); consequence != nil {
		if end := gb.buildBody(branch, EdgeBranchTrue, consequence); end != types.NoBlock {
			liveEnds = append(liveEnds, end)
		}
	}

	// Walk the elif/else chain. Each elif becomes its own branch block
	// hanging off the previous condition's false edge; a trailing else
	// consumes the last false edge entirely.
	pendingFalse := branch
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "elif_clause":
			elifBranch := gb.newBlock(BlockBranch, parser.NodeLine(child))
			gb.graph.Block(elifBranch).StmtCount = 1
			gb.addEdge(pendingFalse, elifBranch, EdgeBranchFalse)
			if gb.dead[pendingFalse] {
				gb.dead[elifBranch] = true
			}
			if consequence := child.ChildByFieldName("consequence"); consequence != nil {
				if end := gb.buildBody(elifBranch, EdgeBranchTrue, consequence); end != types.NoBlock {
					liveEnds = append(liveEnds, end)
				}
			}
			pendingFalse = elifBranch
		case "else_clause":
			if body := child.ChildByFieldName("body"); body != nil {
				if end := gb.buildBody(pendingFalse, EdgeBranchFalse, body); end != types.NoBlock {
					liveEnds = append(liveEnds, end)
				}
				pendingFalse = types.NoBlock
			}
		}
	}

	if len(liveEnds) == 0 && pendingFalse == types.NoBlock {
		gb.current = types.NoBlock
		return
	}

	// Seed the merge with the construct's line; the first statement that
	// lands in it moves the span to itself.
	merge := gb.newBlock(BlockMerge, line)
	if gb.dead[branch] {
		gb.dead[merge] = true
	}
	if pendingFalse != types.NoBlock {
		gb.addEdge(pendingFalse, merge, EdgeBranchFalse)
	}
	for _, end := range liveEnds {
		gb.addEdge(end, merge, EdgeSequential)
	}
	gb.current = merge
}

// handleLoop builds header/body/after with the loop-back edge. The
// false edge of the header is the only way past the loop.
func (gb *graphBuilder) handleLoop(n *tree_sitter.Node) {
	line := parser.NodeLine(n)
	gb.ensureCurrent(line)

	header := gb.newBlock(BlockBranch, line)
	gb.graph.Block(header).StmtCount = 1
	gb.addEdge(gb.current, header, EdgeSequential)
	if gb.dead[gb.current] {
		gb.dead[header] = true
	}

	if body := n.ChildByFieldName("body"); body != nil {
		if end := gb.buildBody(header, EdgeBranchTrue, body); end != types.NoBlock {
			gb.addEdge(end, header, EdgeLoopBack)
		}
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); child.Kind() == "else_clause" {
			gb.warn(types.WarnUnsupportedNode, parser.NodeLine(child), "loop else clause not modeled")
		}
	}

	after := gb.newBlock(BlockPlain, line)
	gb.addEdge(header, after, EdgeBranchFalse)
	if gb.dead[header] {
		gb.dead[after] = true
	}
	gb.current = after
}

// buildBody opens a block for a nested body, wires it to its origin
// and processes the statements. Returns the live end block, or NoBlock
// when the body terminates in a return.
func (gb *graphBuilder) buildBody(from types.BlockID, kind EdgeKind, body *tree_sitter.Node) types.BlockID {
	block := gb.newBlock(BlockPlain, parser.NodeLine(body))
	gb.addEdge(from, block, kind)
	if gb.dead[from] {
		gb.dead[block] = true
	}
	gb.current = block
	gb.processBody(body)
	return gb.current
}
