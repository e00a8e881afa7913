package cfg

import (
	"github.com/standardbeagle/lsi/internal/types"
)

// BlockKind classifies a basic block's role in the graph.
type BlockKind uint8

const (
	BlockEntry BlockKind = iota
	BlockExit
	BlockBranch
	BlockMerge
	BlockPlain
)

// String returns a human-readable block kind name
func (k BlockKind) String() string {
	switch k {
	case BlockEntry:
		return "entry"
	case BlockExit:
		return "exit"
	case BlockBranch:
		return "branch"
	case BlockMerge:
		return "merge"
	case BlockPlain:
		return "plain"
	default:
		return "unknown"
	}
}

// EdgeKind classifies control transfer between blocks.
type EdgeKind uint8

const (
	EdgeSequential EdgeKind = iota
	EdgeBranchTrue
	EdgeBranchFalse
	EdgeLoopBack
	EdgeReturn
)

// String returns a human-readable edge kind name
func (k EdgeKind) String() string {
	switch k {
	case EdgeSequential:
		return "seq"
	case EdgeBranchTrue:
		return "true"
	case EdgeBranchFalse:
		return "false"
	case EdgeLoopBack:
		return "loop"
	case EdgeReturn:
		return "return"
	default:
		return "unknown"
	}
}

// BasicBlock is one straight-line statement run. Blocks live in a
// dense array inside FunctionCFG and are addressed by BlockID, so
// loop-back edges never form pointer cycles.
type BasicBlock struct {
	ID        types.BlockID
	Kind      BlockKind
	StartLine uint32
	EndLine   uint32
	StmtCount int
}

// Edge is a typed control transfer between two blocks by id.
type Edge struct {
	From types.BlockID
	To   types.BlockID
	Kind EdgeKind
}

// FunctionCFG is the control-flow graph of a single function.
// Exactly one entry; at least one exit. Unreachable blocks stay in
// Blocks for visibility but are excluded from analysis.
type FunctionCFG struct {
	FunctionName string
	FilePath     string
	StartLine    uint32
	Blocks       []BasicBlock
	Edges        []Edge
	Entry        types.BlockID
	Exits        []types.BlockID
	Warnings     []types.Warning
}

// Block resolves a block id.
func (g *FunctionCFG) Block(id types.BlockID) *BasicBlock {
	if id < 0 || int(id) >= len(g.Blocks) {
		return nil
	}
	return &g.Blocks[id]
}

// Successors returns outgoing edges of a block in insertion order.
func (g *FunctionCFG) Successors(id types.BlockID) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// IsExit reports whether the block id is one of the exit blocks.
func (g *FunctionCFG) IsExit(id types.BlockID) bool {
	for _, e := range g.Exits {
		if e == id {
			return true
		}
	}
	return false
}

// Reachable computes the set of blocks reachable from Entry.
func (g *FunctionCFG) Reachable() map[types.BlockID]bool {
	reachable := make(map[types.BlockID]bool)
	stack := []types.BlockID{g.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		for _, e := range g.Edges {
			if e.From == id && !reachable[e.To] {
				stack = append(stack, e.To)
			}
		}
	}
	return reachable
}
