package index

import (
	"fmt"
	"sort"

	"github.com/standardbeagle/lsi/internal/errors"
	"github.com/standardbeagle/lsi/internal/types"
)

// SymbolRef is an index into the global symbol table. Postings store
// refs instead of repeating location data per token.
type SymbolRef uint32

// InvertedIndex is the complete queryable index for one project.
// Symbols are globally sorted by (FileID, Line, Kind, Name), and every
// posting list is sorted ascending, so iteration order and the
// persisted byte stream are both deterministic for the same input.
type InvertedIndex struct {
	Meta     types.IndexMeta
	Files    []types.FileInfo
	Symbols  []types.Symbol
	Postings map[string][]SymbolRef
}

// NewInvertedIndex creates an empty index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		Postings: make(map[string][]SymbolRef),
	}
}

// FileByID resolves a file id to its info. File ids are 1-based and
// dense, assigned in scan order.
func (idx *InvertedIndex) FileByID(id types.FileID) (types.FileInfo, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(idx.Files) {
		return types.FileInfo{}, false
	}
	return idx.Files[i], true
}

// FileByPath finds a file entry by its relative path.
func (idx *InvertedIndex) FileByPath(path string) (types.FileInfo, bool) {
	for _, f := range idx.Files {
		if f.Path == path {
			return f, true
		}
	}
	return types.FileInfo{}, false
}

// Lookup returns the posting list for an exact token, or nil.
func (idx *InvertedIndex) Lookup(token string) []SymbolRef {
	return idx.Postings[token]
}

// Tokens returns all index tokens in sorted order.
func (idx *InvertedIndex) Tokens() []string {
	out := make([]string, 0, len(idx.Postings))
	for tok := range idx.Postings {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// SymbolCount returns the number of indexed symbols.
func (idx *InvertedIndex) SymbolCount() int {
	return len(idx.Symbols)
}

// CountByKind tallies symbols per kind for the build summary.
func (idx *InvertedIndex) CountByKind() map[types.SymbolKind]int {
	counts := make(map[types.SymbolKind]int)
	for _, s := range idx.Symbols {
		counts[s.Kind]++
	}
	return counts
}

// Validate checks structural invariants. A loaded index that fails
// validation is rejected wholesale.
func (idx *InvertedIndex) Validate() error {
	for i, f := range idx.Files {
		if int(f.ID) != i+1 {
			return errors.NewIndexCorruptError("index", fmt.Sprintf("file id %d at position %d, want dense 1-based ids", f.ID, i))
		}
		if f.Path == "" {
			return errors.NewIndexCorruptError("index", fmt.Sprintf("file %d has empty path", f.ID))
		}
	}

	for i, s := range idx.Symbols {
		if _, ok := idx.FileByID(s.FileID); !ok {
			return errors.NewIndexCorruptError("index", fmt.Sprintf("symbol %d references unknown file %d", i, s.FileID))
		}
		if i > 0 && symbolLess(s, idx.Symbols[i-1]) {
			return errors.NewIndexCorruptError("index", fmt.Sprintf("symbol table unsorted at position %d", i))
		}
	}

	for tok, refs := range idx.Postings {
		if tok == "" {
			return errors.NewIndexCorruptError("index", "empty token in postings")
		}
		for j, ref := range refs {
			if int(ref) >= len(idx.Symbols) {
				return errors.NewIndexCorruptError("index", fmt.Sprintf("token %q references symbol %d beyond table", tok, ref))
			}
			if j > 0 && ref <= refs[j-1] {
				return errors.NewIndexCorruptError("index", fmt.Sprintf("posting list for %q unsorted at %d", tok, j))
			}
		}
	}

	return nil
}

// symbolLess is the global symbol ordering: file, then line, then kind,
// then name for full determinism.
func symbolLess(a, b types.Symbol) bool {
	if a.FileID != b.FileID {
		return a.FileID < b.FileID
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Name < b.Name
}
