package search

import (
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/lsi/internal/debug"
	"github.com/standardbeagle/lsi/internal/index"
	"github.com/standardbeagle/lsi/internal/tokenize"
	"github.com/standardbeagle/lsi/internal/types"
)

// Scoring: each matched query token is worth far more than any kind
// preference, so result count dominates and kind only orders results
// that matched the same tokens.
const tokenMatchScore = 10

// suggestionThreshold is the minimum similarity for a fuzzy token
// suggestion. Below this the suggestions are noise.
const suggestionThreshold = 0.80

// Options tunes one search call.
type Options struct {
	Limit          int
	EnableStemming bool
	EnableFuzzy    bool
}

// Response carries ranked results plus suggestions for query tokens
// that matched nothing.
type Response struct {
	Results     []types.SearchResult
	Suggestions []string
}

// Engine resolves queries against an immutable index.
type Engine struct {
	idx       *index.InvertedIndex
	tokenizer *tokenize.Tokenizer
	stemmer   *tokenize.Stemmer
}

// NewEngine creates a search engine over a finalized index.
func NewEngine(idx *index.InvertedIndex) *Engine {
	return &Engine{
		idx:       idx,
		tokenizer: tokenize.NewTokenizer(),
		stemmer:   tokenize.NewStemmer(true, 0),
	}
}

// location is the deduplication key for results: distinct symbols on
// one line reinforce that line instead of repeating it.
type location struct {
	file types.FileID
	line uint32
}

// Search ranks (file, line) locations by query token co-occurrence. A
// blank query returns an empty response rather than the whole index.
func (e *Engine) Search(query string, opts Options) *Response {
	resp := &Response{Results: []types.SearchResult{}}

	baseTokens := e.tokenizer.TokenizeQuery(query)
	if len(baseTokens) == 0 {
		return resp
	}
	if opts.Limit <= 0 {
		opts.Limit = types.DefaultSearchLimit
	}

	// Each base token and its stem variant form one match group; a
	// location matching either counts the group once, no matter how
	// many symbols on that line matched. The highest-weight symbol at
	// a location provides the static contribution and the display name.
	matched := make(map[location]int)
	best := make(map[location]index.SymbolRef)
	unmatchedTokens := []string{}
	for _, base := range baseTokens {
		variants := []string{base}
		if opts.EnableStemming {
			if stem := e.stemmer.Stem(base); stem != base {
				variants = append(variants, stem)
			}
		}

		seen := make(map[location]bool)
		for _, v := range variants {
			for _, ref := range e.idx.Lookup(v) {
				s := e.idx.Symbols[ref]
				loc := location{file: s.FileID, line: s.Line}
				if !seen[loc] {
					seen[loc] = true
					matched[loc]++
				}
				if cur, ok := best[loc]; !ok || s.Kind.Weight() > e.idx.Symbols[cur].Kind.Weight() {
					best[loc] = ref
				}
			}
		}
		if len(seen) == 0 {
			unmatchedTokens = append(unmatchedTokens, base)
		}
	}

	scored := make([]types.SearchResult, 0, len(matched))
	for loc, groups := range matched {
		s := e.idx.Symbols[best[loc]]
		file, ok := e.idx.FileByID(loc.file)
		if !ok {
			continue
		}
		scored = append(scored, types.SearchResult{
			FilePath: file.Path,
			Line:     loc.line,
			Kind:     s.Kind,
			Name:     s.Name,
			Score:    uint32(groups*tokenMatchScore) + uint32(s.Kind.Weight()),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Name < b.Name
	})

	if len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	resp.Results = scored

	if len(scored) == 0 && opts.EnableFuzzy {
		resp.Suggestions = e.suggest(unmatchedTokens)
	}

	debug.LogSearch("query %q: %d tokens, %d results\n", query, len(baseTokens), len(resp.Results))
	return resp
}

// suggest finds index tokens similar to the query tokens that matched
// nothing, using Jaro-Winkler similarity over the token table.
func (e *Engine) suggest(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	vocabulary := e.idx.Tokens()
	var out []string
	seen := make(map[string]bool)

	for _, tok := range tokens {
		best := ""
		bestScore := float32(suggestionThreshold)
		for _, candidate := range vocabulary {
			score, err := edlib.StringsSimilarity(tok, candidate, edlib.JaroWinkler)
			if err != nil {
				continue
			}
			if score > bestScore || (score == bestScore && best == "") {
				best = candidate
				bestScore = score
			}
		}
		if best != "" && !seen[best] {
			seen[best] = true
			out = append(out, best)
		}
	}
	return out
}
