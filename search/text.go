package search

import (
	"strings"
	"unicode"
)

// Words ignored when checking for verbatim matches. The tail holds fillers
// that occur in nearly every judgment.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "under": true, "shall": true,
	"said": true, "court": true, "v": true, "vs": true,
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit, so "s.302" yields "s" and "302" and "Appellant's" yields
// "appellant" and "s". Stop words are dropped.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	filtered := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// containsAllQueryWords reports whether every significant query word occurs
// in the passage. A query of only stop words never matches.
func containsAllQueryWords(passage, query string) bool {
	queryWords := tokenize(query)
	if len(queryWords) == 0 {
		return false
	}

	present := make(map[string]struct{})
	for _, w := range tokenize(passage) {
		present[w] = struct{}{}
	}
	for _, w := range queryWords {
		if _, ok := present[w]; !ok {
			return false
		}
	}
	return true
}
