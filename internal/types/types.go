package types

import (
	"time"
)

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB per file - standard limit for indexing
	// Rationale: Prevents memory exhaustion from large
	// generated files while covering 99.9% of source files.

	// Performance limits
	DefaultMaxFileCount = 10000 // Maximum files to index in a single pass
	// Rationale: Covers most application codebases while
	// preventing runaway indexing of virtualenvs or
	// vendor directories. Large projects can increase.

	// Search limits
	DefaultSearchLimit = 20 // Default number of search results returned

	// Path enumeration limits
	DefaultPathCap = 256 // Maximum distinct path shapes enumerated per function
	// Rationale: Branch-heavy functions have exponentially
	// many path shapes; beyond this the count is reported
	// as a lower bound instead of enumerating further.

	DefaultSamplePaths = 16 // Sample paths retained in a complexity report
)

// FileID identifies an indexed source file. Ids are dense, assigned in
// scan order during a build, and stable within one index version.
type FileID uint32

// BlockID identifies a basic block within one function CFG.
type BlockID int32

// NoBlock marks the absence of a block (e.g. a terminated control path).
const NoBlock BlockID = -1

// SymbolKind is a closed set of symbol categories. Scoring and display
// resolve per-kind behavior through lookup tables, not dynamic dispatch.
type SymbolKind uint8

const (
	SymbolKindFunction SymbolKind = iota
	SymbolKindClass
	SymbolKindImport
	SymbolKindCallSite
	SymbolKindIdentifier
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolKindFunction:
		return "function"
	case SymbolKindClass:
		return "class"
	case SymbolKindImport:
		return "import"
	case SymbolKindCallSite:
		return "call"
	case SymbolKindIdentifier:
		return "identifier"
	default:
		return "unknown"
	}
}

// kindWeights is the static rank contribution per symbol kind.
// Definitions outrank usages, usages outrank imports.
var kindWeights = [...]uint16{
	SymbolKindFunction:   10,
	SymbolKindClass:      9,
	SymbolKindImport:     2,
	SymbolKindCallSite:   4,
	SymbolKindIdentifier: 6,
}

// Weight returns the static rank contribution for the kind.
func (k SymbolKind) Weight() uint16 {
	if int(k) < len(kindWeights) {
		return kindWeights[k]
	}
	return 0
}

// Symbol is one declaration or reference of interest found in a file.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	FileID  FileID
	Line    uint32 // 1-based
	EndLine uint32 // equals Line when the symbol has no extent (imports, calls)
}

// FileInfo describes one indexed source file.
type FileInfo struct {
	ID          FileID
	Path        string
	ContentHash uint64 // xxhash of file content at index time
	LineCount   uint32
}

// IndexMeta is the build metadata carried by a persisted index.
type IndexMeta struct {
	BuiltAt    time.Time
	FileCount  uint32
	TokenCount uint32
}

// SkippedFile records one file excluded from a build and why.
type SkippedFile struct {
	Path   string
	Reason string
}

// BuildSummary aggregates the outcome of one indexing pass. Per-file
// failures never abort the batch; they land here instead.
type BuildSummary struct {
	Indexed   int
	Skipped   []SkippedFile
	Warnings  []Warning
	Functions int
	Classes   int
	Imports   int
	CallSites int
	Tokens    int // unique tokens interned
	Elapsed   time.Duration
}

// WarningKind classifies structured warnings surfaced to callers.
type WarningKind uint8

const (
	WarnUnsupportedNode WarningKind = iota
	WarnMalformedConstruct
	WarnUnreachableBlock
)

func (w WarningKind) String() string {
	switch w {
	case WarnUnsupportedNode:
		return "unsupported_node"
	case WarnMalformedConstruct:
		return "malformed_construct"
	case WarnUnreachableBlock:
		return "unreachable_block"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal finding surfaced in a structured summary so
// automated callers can assert on it instead of scraping logs.
type Warning struct {
	Kind    WarningKind
	Path    string
	Line    uint32
	Message string
}

// SearchResult is one ranked location returned by the search engine.
type SearchResult struct {
	FilePath string
	Line     uint32
	Kind     SymbolKind
	Name     string
	Score    uint32
}

// ComputeLineCount counts lines the way editors do: a trailing newline
// does not start an extra line, and empty content has zero lines.
func ComputeLineCount(content []byte) uint32 {
	if len(content) == 0 {
		return 0
	}
	n := uint32(1)
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	if content[len(content)-1] == '\n' {
		n--
	}
	return n
}
