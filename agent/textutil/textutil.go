// Package textutil provides the tokenization used by the bundle recommender.
package textutil

import (
	"strings"
	"unicode"
)

const minTokenLen = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "your": {}, "all": {}, "any": {}, "can": {}, "had": {},
	"has": {}, "have": {}, "her": {}, "his": {}, "him": {}, "its": {},
	"our": {}, "out": {}, "she": {}, "they": {}, "them": {}, "their": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "would": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "how": {}, "why": {}, "about": {}, "into": {},
	"from": {}, "been": {}, "being": {}, "just": {}, "like": {}, "more": {},
	"some": {}, "than": {}, "then": {}, "too": {}, "very": {}, "want": {},
	"also": {}, "get": {}, "got": {}, "really": {}, "going": {}, "know": {},
	"yes": {}, "yeah": {}, "okay": {}, "thanks": {}, "thank": {},
}

// Tokenize splits on whitespace, strips non-alphanumeric runes, lower-cases,
// and drops tokens shorter than three characters or in the stop-word set.
// The order of first appearance is preserved; duplicates are kept.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := normalize(field)
		if len(token) < minTokenLen {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// TokenSet tokenizes every input and collects the union of tokens.
func TokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, token := range Tokenize(text) {
			set[token] = struct{}{}
		}
	}
	return set
}

// Overlap returns the size of the intersection of two token sets.
func Overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for token := range a {
		if _, ok := b[token]; ok {
			n++
		}
	}
	return n
}

func normalize(field string) string {
	var b strings.Builder
	for _, r := range field {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
