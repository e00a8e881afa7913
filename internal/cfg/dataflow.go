package cfg

import (
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lsi/internal/parser"
)

// Definition is one assignment to a local name.
type Definition struct {
	Name string
	Line uint32
}

// DataflowReport summarizes definition/use flow inside one function.
// The analysis is flow-insensitive across branches: a definition is
// live until the next textual definition of the same name, and counts
// as used if any read of the name falls in that span.
type DataflowReport struct {
	FunctionName string
	FilePath     string
	Definitions  []Definition
	Unused       []Definition
}

// AnalyzeDataflow finds assignments whose value can never be read.
// Parameters are not tracked; only explicit assignment targets are.
func (b *Builder) AnalyzeDataflow(fn FunctionNode) *DataflowReport {
	report := &DataflowReport{
		FunctionName: fn.Name,
		FilePath:     b.path,
	}

	type event struct {
		name  string
		line  uint32
		isDef bool
	}
	var events []event

	body := fn.Node.ChildByFieldName("body")
	if body == nil {
		return report
	}

	parser.VisitNamed(body, func(n *tree_sitter.Node) bool {
		// Nested functions have their own scope.
		if n.Kind() == "function_definition" || n.Kind() == "class_definition" {
			return false
		}

		if n.Kind() == "assignment" {
			left := n.ChildByFieldName("left")
			right := n.ChildByFieldName("right")
			// Right side reads happen before the target is rebound, so
			// x = x + 1 reads the previous definition.
			if right != nil {
				collectReads(right, b.content, func(name string, line uint32) {
					events = append(events, event{name: name, line: line})
				})
			}
			for _, target := range assignmentTargets(left, b.content) {
				events = append(events, event{name: target.Name, line: target.Line, isDef: true})
			}
			return false
		}

		if n.Kind() == "identifier" {
			events = append(events, event{name: parser.NodeText(n, b.content), line: parser.NodeLine(n)})
			return false
		}
		return true
	})

	// Pair each definition with the reads before the next definition
	// of the same name.
	used := make(map[int]bool)
	lastDef := make(map[string]int)
	for i, ev := range events {
		if ev.isDef {
			lastDef[ev.name] = i
			report.Definitions = append(report.Definitions, Definition{Name: ev.name, Line: ev.line})
			continue
		}
		if di, ok := lastDef[ev.name]; ok {
			used[di] = true
		}
	}

	for i, ev := range events {
		if ev.isDef && !used[i] {
			report.Unused = append(report.Unused, Definition{Name: ev.name, Line: ev.line})
		}
	}

	sort.SliceStable(report.Unused, func(i, j int) bool {
		if report.Unused[i].Line != report.Unused[j].Line {
			return report.Unused[i].Line < report.Unused[j].Line
		}
		return report.Unused[i].Name < report.Unused[j].Name
	})
	return report
}

// assignmentTargets flattens an assignment left side into plain names.
func assignmentTargets(n *tree_sitter.Node, content []byte) []Definition {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "identifier":
		return []Definition{{Name: parser.NodeText(n, content), Line: parser.NodeLine(n)}}
	case "pattern_list", "tuple_pattern", "list_pattern":
		var out []Definition
		for i := uint(0); i < n.NamedChildCount(); i++ {
			out = append(out, assignmentTargets(n.NamedChild(i), content)...)
		}
		return out
	default:
		return nil
	}
}

// collectReads reports every identifier read inside an expression.
func collectReads(n *tree_sitter.Node, content []byte, emit func(string, uint32)) {
	parser.VisitNamed(n, func(node *tree_sitter.Node) bool {
		if node.Kind() == "identifier" {
			emit(parser.NodeText(node, content), parser.NodeLine(node))
			return false
		}
		return true
	})
}
