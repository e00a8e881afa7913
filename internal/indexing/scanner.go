package indexing

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/lsi/internal/config"
	"github.com/standardbeagle/lsi/internal/debug"
	"github.com/standardbeagle/lsi/internal/errors"
	"github.com/standardbeagle/lsi/internal/types"
)

// ScanResult lists candidate files in deterministic order plus the
// files rejected before parsing.
type ScanResult struct {
	// Paths are relative to the project root, slash-separated, sorted.
	Paths   []string
	Skipped []types.SkippedFile
}

// Scan walks the project root and applies include/exclude patterns and
// the size limit. The returned path order is what makes file ids
// reproducible between runs.
func Scan(cfg *config.Config) (*ScanResult, error) {
	res := &ScanResult{}
	root := cfg.Project.Root

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			res.Skipped = append(res.Skipped, types.SkippedFile{
				Path:   relPath(root, path),
				Reason: err.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel := relPath(root, path)
		if d.IsDir() {
			if path != root && excluded(cfg.Exclude, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink != 0 && cfg.Index.FollowSymlinks {
				// fall through and treat like a file
			} else {
				return nil
			}
		}

		if !included(cfg.Include, rel) || excluded(cfg.Exclude, rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			res.Skipped = append(res.Skipped, types.SkippedFile{Path: rel, Reason: err.Error()})
			return nil
		}
		if info.Size() > cfg.Index.MaxFileSize {
			res.Skipped = append(res.Skipped, types.SkippedFile{
				Path:   rel,
				Reason: errors.SkipReason(errors.TooLarge(rel, info.Size(), cfg.Index.MaxFileSize)),
			})
			return nil
		}

		res.Paths = append(res.Paths, rel)
		return nil
	})
	if err != nil {
		return nil, errors.NewFileError("scan", root, err)
	}

	if len(res.Paths) > cfg.Index.MaxFileCount {
		return nil, fmt.Errorf("project has %d candidate files, limit is %d", len(res.Paths), cfg.Index.MaxFileCount)
	}

	sort.Strings(res.Paths)
	debug.LogIndexing("scan found %d files, %d skipped under %s\n", len(res.Paths), len(res.Skipped), root)
	return res, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func included(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func excluded(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
