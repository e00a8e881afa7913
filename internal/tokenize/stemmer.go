package tokenize

import "github.com/surgebase/porter2"

// StemMinLength guards short tokens from stemming. Stemming "id" or
// "db" produces garbage; real suffixes only appear on longer words.
const StemMinLength = 4

// Stemmer normalizes word forms for query expansion so that a query
// for "rendering" also matches "render". Index terms stay unstemmed;
// only the query side expands.
type Stemmer struct {
	enabled   bool
	minLength int
}

// NewStemmer creates a stemmer. A zero minLength uses StemMinLength.
func NewStemmer(enabled bool, minLength int) *Stemmer {
	if minLength <= 0 {
		minLength = StemMinLength
	}
	return &Stemmer{enabled: enabled, minLength: minLength}
}

// Stem returns the Porter2 stem of a word, or the word unchanged when
// stemming is disabled or the word is too short.
func (s *Stemmer) Stem(word string) string {
	if !s.enabled || len(word) < s.minLength {
		return word
	}
	return porter2.Stem(word)
}

// Expand returns the tokens plus any stems that differ from their
// source token, preserving order and dropping duplicates.
func (s *Stemmer) Expand(tokens []string) []string {
	if !s.enabled {
		return tokens
	}
	seen := make(map[string]bool, len(tokens)*2)
	out := make([]string, 0, len(tokens)*2)
	for _, tok := range tokens {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
		stem := s.Stem(tok)
		if stem != tok && !seen[stem] {
			seen[stem] = true
			out = append(out, stem)
		}
	}
	return out
}
