package tokenize

import (
	"strings"
	"sync"
	"unicode"
)

// Tokenizer decomposes code identifiers into searchable sub-tokens.
// Splitting handles snake_case, camelCase, PascalCase, acronym runs
// (getUserID -> get user id) and letter/digit boundaries. The same rule
// runs at index time and at query time, so a query matches either the
// decomposed parts or the whole identifier.
//
// Thread-safe: the cache uses sync.Map with simple LRU eviction.
type Tokenizer struct {
	cache sync.Map // identifier -> []string, split is hot during indexing

	cacheKeys []string   // Track insertion order for LRU
	maxSize   int        // Maximum cache size before eviction
	mu        sync.Mutex // Protect cacheKeys operations
}

// DefaultCacheSize bounds the split cache. Identifier vocabularies in
// real codebases are far smaller than this; the bound only guards
// against pathological generated files.
const DefaultCacheSize = 1000

// NewTokenizer creates a tokenizer with the default cache size.
func NewTokenizer() *Tokenizer {
	return NewTokenizerWithSize(DefaultCacheSize)
}

// NewTokenizerWithSize creates a tokenizer with a custom cache size.
func NewTokenizerWithSize(cacheSize int) *Tokenizer {
	return &Tokenizer{
		cacheKeys: make([]string, 0, cacheSize),
		maxSize:   cacheSize,
	}
}

// Split breaks an identifier into its lowercase constituent words,
// in order. Split("getUserID") = [get user id].
func (t *Tokenizer) Split(name string) []string {
	if name == "" {
		return []string{}
	}

	if cached, ok := t.cache.Load(name); ok {
		return cached.([]string)
	}

	runes := []rune(name)
	wordBuffer := make([]rune, 0, 64)
	words := make([]string, 0, 8)

	flush := func() {
		if len(wordBuffer) > 0 {
			words = append(words, strings.ToLower(string(wordBuffer)))
			wordBuffer = wordBuffer[:0]
		}
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		// Explicit separators end the current word and are dropped.
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			flush()
			continue
		}

		if i > 0 {
			prev := runes[i-1]

			// lowercase to uppercase transition (camelCase)
			if unicode.IsLower(prev) && unicode.IsUpper(ch) {
				flush()
			}

			// End of an acronym run: HTTPServer -> HTTP Server.
			// The previous uppercase letter belongs to the new word.
			if i > 1 && unicode.IsUpper(prev) && unicode.IsLower(ch) && unicode.IsUpper(runes[i-2]) {
				if len(wordBuffer) > 0 {
					lastChar := wordBuffer[len(wordBuffer)-1]
					wordBuffer = wordBuffer[:len(wordBuffer)-1]
					flush()
					wordBuffer = append(wordBuffer, lastChar)
				}
			}

			// Letter/digit boundaries start a new word (func2 -> func 2)
			if (unicode.IsLetter(prev) && unicode.IsDigit(ch)) ||
				(unicode.IsDigit(prev) && unicode.IsLetter(ch)) {
				flush()
			}
		}

		wordBuffer = append(wordBuffer, ch)
	}
	flush()

	t.cacheWithLRU(name, words)
	return words
}

// Tokenize returns the index terms for one identifier: the decomposed
// parts in order, then the whole identifier case-folded. The whole is
// omitted when it adds nothing (single-part identifiers).
//
//	Tokenize("getUserID")       = [get user id getuserid]
//	Tokenize("render_template") = [render template render_template]
//	Tokenize("main")            = [main]
func (t *Tokenizer) Tokenize(identifier string) []string {
	parts := t.Split(identifier)
	whole := strings.ToLower(identifier)
	if len(parts) == 1 && parts[0] == whole {
		return parts
	}
	if len(parts) == 0 {
		if whole == "" {
			return []string{}
		}
		return []string{whole}
	}
	out := make([]string, 0, len(parts)+1)
	out = append(out, parts...)
	out = append(out, whole)
	return out
}

// TokenizeQuery applies the identifier rule to free-form query text.
// Identifier-shaped runs are extracted first, then each run is
// tokenized; duplicates are removed preserving first occurrence.
// Empty input yields an empty, non-nil slice.
func (t *Tokenizer) TokenizeQuery(query string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, run := range identifierRuns(query) {
		for _, tok := range t.Tokenize(run) {
			if !seen[tok] {
				seen[tok] = true
				out = append(out, tok)
			}
		}
	}
	return out
}

// identifierRuns extracts maximal [A-Za-z0-9_] runs from text.
func identifierRuns(text string) []string {
	var runs []string
	start := -1
	for i, r := range text {
		if isIdentRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, text[start:])
	}
	return runs
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// cacheWithLRU stores a split result with simple oldest-first eviction
func (t *Tokenizer) cacheWithLRU(name string, words []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.cacheKeys) >= t.maxSize {
		if len(t.cacheKeys) > 0 {
			oldestKey := t.cacheKeys[0]
			t.cache.Delete(oldestKey)
			t.cacheKeys = t.cacheKeys[1:]
		}
	}

	t.cache.Store(name, words)
	t.cacheKeys = append(t.cacheKeys, name)
}
