package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/standardbeagle/lsi/internal/tokenize"
	"github.com/standardbeagle/lsi/internal/types"
)

// Builder accumulates per-file extraction results and finalizes them
// into an immutable InvertedIndex. AddFile must be called in scan
// order; the builder is not safe for concurrent use (the indexing
// pipeline merges worker results sequentially).
type Builder struct {
	tokenizer *tokenize.Tokenizer
	files     []types.FileInfo
	symbols   []types.Symbol
	finalized bool
}

// NewBuilder creates an index builder.
func NewBuilder() *Builder {
	return &Builder{
		tokenizer: tokenize.NewTokenizer(),
	}
}

// AddFile registers a file and its extracted symbols. The returned id
// is dense and 1-based, assigned in call order.
func (b *Builder) AddFile(info types.FileInfo, symbols []types.Symbol) (types.FileID, error) {
	if b.finalized {
		return 0, fmt.Errorf("builder already finalized")
	}

	id := types.FileID(len(b.files) + 1)
	info.ID = id
	b.files = append(b.files, info)

	for _, s := range symbols {
		s.FileID = id
		b.symbols = append(b.symbols, s)
	}
	return id, nil
}

// Finalize sorts the symbol table, builds postings and produces the
// finished index. The builder cannot be reused afterwards.
func (b *Builder) Finalize() *InvertedIndex {
	b.finalized = true

	sort.SliceStable(b.symbols, func(i, j int) bool {
		return symbolLess(b.symbols[i], b.symbols[j])
	})

	idx := NewInvertedIndex()
	idx.Files = b.files
	idx.Symbols = b.symbols

	for i, s := range b.symbols {
		ref := SymbolRef(i)
		for _, tok := range b.tokenizer.Tokenize(s.Name) {
			refs := idx.Postings[tok]
			// Tokenize can repeat a token for one symbol; refs stay unique.
			if len(refs) > 0 && refs[len(refs)-1] == ref {
				continue
			}
			idx.Postings[tok] = append(refs, ref)
		}
	}

	idx.Meta = types.IndexMeta{
		BuiltAt:    time.Now(),
		FileCount:  uint32(len(idx.Files)),
		TokenCount: uint32(len(idx.Postings)),
	}
	return idx
}
