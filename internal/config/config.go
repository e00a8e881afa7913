package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/standardbeagle/lsi/internal/types"
)

// Config holds all configuration for an index run.
// Values come from defaults, then .lsi.kdl, then CLI flags.
type Config struct {
	Version  int
	Project  Project
	Index    Index
	Search   Search
	Analysis Analysis

	// Include/Exclude are doublestar glob patterns matched against
	// paths relative to the project root.
	Include []string
	Exclude []string
}

// Project identifies what is being indexed.
type Project struct {
	Root string
	Name string
}

// Index controls the scanning and index build phase.
type Index struct {
	MaxFileSize    int64  // Skip files larger than this (bytes)
	MaxFileCount   int    // Abort scan beyond this many candidate files
	IndexPath      string // Where the persisted index lives
	FollowSymlinks bool
	Workers        int // Parallel parse workers, 0 means GOMAXPROCS
}

// Search controls query resolution.
type Search struct {
	MaxResults     int
	EnableFuzzy    bool // Suggest near-miss tokens for empty result sets
	EnableStemming bool // Expand query tokens with Porter2 stems
}

// Analysis controls control-flow analysis limits.
type Analysis struct {
	PathCap     int // Stop path enumeration at this many paths
	SamplePaths int // Paths reported in full
}

// DefaultIndexFileName is where the persisted index lives under the
// project root.
const DefaultIndexFileName = ".lsi.index"

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Index: Index{
			MaxFileSize:    types.DefaultMaxFileSize,
			MaxFileCount:   types.DefaultMaxFileCount,
			FollowSymlinks: false,
			Workers:        runtime.GOMAXPROCS(0),
		},
		Search: Search{
			MaxResults:     types.DefaultSearchLimit,
			EnableFuzzy:    true,
			EnableStemming: true,
		},
		Analysis: Analysis{
			PathCap:     types.DefaultPathCap,
			SamplePaths: types.DefaultSamplePaths,
		},
		Include: []string{"**/*.py"},
		Exclude: defaultExclusions(),
	}
}

// Load builds the effective configuration for a project root:
// defaults, overlaid with .lsi.kdl if present, enriched with project
// metadata from pyproject.toml if present.
func Load(projectRoot string) (*Config, error) {
	cfg, err := LoadKDL(projectRoot)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = DefaultConfig()
		absRoot, err := filepath.Abs(projectRoot)
		if err != nil {
			absRoot = projectRoot
		}
		cfg.Project.Root = absRoot
	}

	if cfg.Index.IndexPath == "" {
		cfg.Index.IndexPath = filepath.Join(cfg.Project.Root, DefaultIndexFileName)
	}

	// Project name falls back to pyproject.toml, then the directory name.
	if cfg.Project.Name == "" {
		if meta, err := ReadProjectMeta(cfg.Project.Root); err == nil && meta.Name != "" {
			cfg.Project.Name = meta.Name
		}
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Index.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.Index.MaxFileSize)
	}
	if c.Index.MaxFileCount <= 0 {
		return fmt.Errorf("max_file_count must be positive, got %d", c.Index.MaxFileCount)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Analysis.PathCap <= 0 {
		return fmt.Errorf("analysis path_cap must be positive, got %d", c.Analysis.PathCap)
	}
	if c.Analysis.SamplePaths > c.Analysis.PathCap {
		return fmt.Errorf("sample_paths %d exceeds path_cap %d", c.Analysis.SamplePaths, c.Analysis.PathCap)
	}
	if c.Project.Root != "" {
		if info, err := os.Stat(c.Project.Root); err != nil {
			return fmt.Errorf("project root %s: %w", c.Project.Root, err)
		} else if !info.IsDir() {
			return fmt.Errorf("project root %s is not a directory", c.Project.Root)
		}
	}
	return nil
}

// defaultExclusions covers directories that never contain indexable
// source even when they match an include pattern.
func defaultExclusions() []string {
	return []string{
		"**/.*/**",
		"**/__pycache__/**",
		"**/*.pyc",
		"**/*.egg-info/**",
		"**/venv/**",
		"**/.venv/**",
		"**/site-packages/**",
		"**/node_modules/**",
		"**/build/**",
		"**/dist/**",
	}
}
