package indexing

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lsi/internal/config"
	"github.com/standardbeagle/lsi/internal/debug"
	"github.com/standardbeagle/lsi/internal/errors"
	"github.com/standardbeagle/lsi/internal/extract"
	"github.com/standardbeagle/lsi/internal/index"
	"github.com/standardbeagle/lsi/internal/parser"
	"github.com/standardbeagle/lsi/internal/types"
)

// fileResult is one worker's output for one file. Results are merged
// strictly in scan order so the built index is identical no matter how
// the workers interleave.
type fileResult struct {
	info     types.FileInfo
	symbols  []types.Symbol
	warnings []types.Warning
	err      error
}

// Build runs the full indexing pass: scan, parallel parse and extract,
// sequential merge. Per-file failures land in the summary; only a
// failed scan or a cancelled context aborts the build.
func Build(ctx context.Context, cfg *config.Config) (*index.InvertedIndex, *types.BuildSummary, error) {
	start := time.Now()

	scan, err := Scan(cfg)
	if err != nil {
		return nil, nil, err
	}

	results := make([]fileResult, len(scan.Paths))

	workers := cfg.Index.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range scan.Paths {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = processFile(cfg.Project.Root, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	summary := &types.BuildSummary{Skipped: scan.Skipped}
	builder := index.NewBuilder()

	for i, rel := range scan.Paths {
		res := results[i]
		if res.err != nil {
			summary.Skipped = append(summary.Skipped, types.SkippedFile{
				Path:   rel,
				Reason: errors.SkipReason(res.err),
			})
			continue
		}
		if _, err := builder.AddFile(res.info, res.symbols); err != nil {
			return nil, nil, err
		}
		summary.Indexed++
		summary.Warnings = append(summary.Warnings, res.warnings...)
	}

	idx := builder.Finalize()

	counts := idx.CountByKind()
	summary.Functions = counts[types.SymbolKindFunction]
	summary.Classes = counts[types.SymbolKindClass]
	summary.Imports = counts[types.SymbolKindImport]
	summary.CallSites = counts[types.SymbolKindCallSite]
	summary.Tokens = len(idx.Postings)
	summary.Elapsed = time.Since(start)

	debug.LogIndexing("build done: %d indexed, %d skipped in %s\n",
		summary.Indexed, len(summary.Skipped), summary.Elapsed)
	return idx, summary, nil
}

// processFile parses and extracts one file. Workers each construct
// their own parser because tree-sitter parsers are not reentrant; the
// grammar itself is shared and immutable.
func processFile(root, rel string) fileResult {
	content, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return fileResult{err: errors.NewFileError("read", rel, err)}
	}

	p, err := parser.New(parser.PythonGrammar{})
	if err != nil {
		return fileResult{err: err}
	}
	defer p.Close()

	tree, err := p.Parse(rel, content)
	if err != nil {
		return fileResult{err: err}
	}
	defer tree.Close()

	res := extract.New().Extract(rel, 0, tree.RootNode(), content)

	return fileResult{
		info: types.FileInfo{
			Path:        rel,
			ContentHash: xxhash.Sum64(content),
			LineCount:   types.ComputeLineCount(content),
		},
		symbols:  res.Symbols,
		warnings: res.Warnings,
	}
}
