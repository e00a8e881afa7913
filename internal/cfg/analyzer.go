package cfg

import (
	"github.com/standardbeagle/lsi/internal/debug"
	"github.com/standardbeagle/lsi/internal/types"
)

// ComplexityReport is the derived analysis result for one function.
// Never persisted; recomputed on each request.
type ComplexityReport struct {
	FunctionName string
	FilePath     string
	StartLine    uint32

	// Whole-graph counts, unreachable blocks included for visibility.
	Blocks int
	Edges  int

	// Complexity and paths are computed over the reachable subgraph
	// with all exits converging on one virtual exit.
	CyclomaticComplexity int
	PathCount            int
	// PathCountIsLowerBound is set when enumeration hit the cap; the
	// true count is at least PathCount.
	PathCountIsLowerBound bool
	SamplePaths           [][]types.BlockID

	UnreachableBlocks []types.BlockID
	Warnings          []types.Warning
}

// Analyzer computes cyclomatic complexity and path counts over built
// graphs. Analysis is synchronous and touches no shared state, so one
// analyzer may serve concurrent callers.
type Analyzer struct {
	pathCap     int
	samplePaths int
}

// NewAnalyzer creates an analyzer with enumeration limits. Zero values
// fall back to the defaults.
func NewAnalyzer(pathCap, samplePaths int) *Analyzer {
	if pathCap <= 0 {
		pathCap = types.DefaultPathCap
	}
	if samplePaths <= 0 {
		samplePaths = types.DefaultSamplePaths
	}
	if samplePaths > pathCap {
		samplePaths = pathCap
	}
	return &Analyzer{pathCap: pathCap, samplePaths: samplePaths}
}

// Analyze produces the complexity report for one CFG.
//
// Cyclomatic complexity is the classical V(G) = E - N + 2 over the
// reachable subgraph, with every reachable exit wired to a single
// virtual exit node so multiple returns do not skew N against E.
func (a *Analyzer) Analyze(g *FunctionCFG) *ComplexityReport {
	report := &ComplexityReport{
		FunctionName: g.FunctionName,
		FilePath:     g.FilePath,
		StartLine:    g.StartLine,
		Blocks:       len(g.Blocks),
		Edges:        len(g.Edges),
		Warnings:     g.Warnings,
	}

	reachable := g.Reachable()
	for _, b := range g.Blocks {
		if !reachable[b.ID] {
			report.UnreachableBlocks = append(report.UnreachableBlocks, b.ID)
		}
	}

	reachableEdges := 0
	for _, e := range g.Edges {
		if reachable[e.From] && reachable[e.To] {
			reachableEdges++
		}
	}
	reachableExits := 0
	for _, id := range g.Exits {
		if reachable[id] {
			reachableExits++
		}
	}

	// Virtual exit: one extra node, one Return edge per reachable exit.
	nodes := len(reachable) + 1
	edges := reachableEdges + reachableExits
	report.CyclomaticComplexity = edges - nodes + 2

	a.enumeratePaths(g, reachable, report)

	debug.LogCFG("analyzed %s: V(G)=%d, paths=%d (truncated=%v)\n",
		g.FunctionName, report.CyclomaticComplexity, report.PathCount, report.PathCountIsLowerBound)
	return report
}

// enumeratePaths walks every entry-to-exit path shape. Loop-back edges
// are taken at most once per path so cyclic graphs terminate; the count
// is of syntactic path shapes, not runtime iterations.
func (a *Analyzer) enumeratePaths(g *FunctionCFG, reachable map[types.BlockID]bool, report *ComplexityReport) {
	if !reachable[g.Entry] {
		return
	}

	// Edges indexed by position so a path can mark the loop-backs it
	// has consumed.
	type walkState struct {
		block     types.BlockID
		path      []types.BlockID
		usedLoops map[int]bool
	}

	successors := make(map[types.BlockID][]int)
	for i, e := range g.Edges {
		if reachable[e.From] && reachable[e.To] {
			successors[e.From] = append(successors[e.From], i)
		}
	}

	var walk func(state walkState)
	walk = func(state walkState) {
		if report.PathCount >= a.pathCap {
			report.PathCountIsLowerBound = true
			return
		}

		if g.IsExit(state.block) {
			report.PathCount++
			if len(report.SamplePaths) < a.samplePaths {
				path := make([]types.BlockID, len(state.path))
				copy(path, state.path)
				report.SamplePaths = append(report.SamplePaths, path)
			}
			return
		}

		for _, ei := range successors[state.block] {
			e := g.Edges[ei]
			used := state.usedLoops
			if e.Kind == EdgeLoopBack {
				if used[ei] {
					continue
				}
				next := make(map[int]bool, len(used)+1)
				for k := range used {
					next[k] = true
				}
				next[ei] = true
				used = next
			}
			walk(walkState{
				block:     e.To,
				path:      append(state.path, e.To),
				usedLoops: used,
			})
		}
	}

	walk(walkState{
		block:     g.Entry,
		path:      []types.BlockID{g.Entry},
		usedLoops: map[int]bool{},
	})
}
