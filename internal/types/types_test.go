package types

import "testing"

func TestSymbolKindString(t *testing.T) {
	cases := map[SymbolKind]string{
		SymbolKindFunction:   "function",
		SymbolKindClass:      "class",
		SymbolKindImport:     "import",
		SymbolKindCallSite:   "call",
		SymbolKindIdentifier: "identifier",
		SymbolKind(99):       "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("SymbolKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestKindWeightOrdering(t *testing.T) {
	// Definitions > usages > imports is the ranking contract.
	if SymbolKindFunction.Weight() <= SymbolKindCallSite.Weight() {
		t.Errorf("function weight %d should exceed call weight %d",
			SymbolKindFunction.Weight(), SymbolKindCallSite.Weight())
	}
	if SymbolKindCallSite.Weight() <= SymbolKindImport.Weight() {
		t.Errorf("call weight %d should exceed import weight %d",
			SymbolKindCallSite.Weight(), SymbolKindImport.Weight())
	}
	if SymbolKind(99).Weight() != 0 {
		t.Errorf("unknown kind weight should be 0, got %d", SymbolKind(99).Weight())
	}
}

func TestComputeLineCount(t *testing.T) {
	cases := []struct {
		content string
		want    uint32
	}{
		{"", 0},
		{"one line", 1},
		{"one line\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
		{"a\n\nb\n", 3},
	}
	for _, tc := range cases {
		if got := ComputeLineCount([]byte(tc.content)); got != tc.want {
			t.Errorf("ComputeLineCount(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}
