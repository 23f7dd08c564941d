// Package catalog decides whether a listing's category fields match a
// free-text search term.
//
// Matching is deliberately loose: every search token is checked for
// substring containment against every category token, so "elect" matches
// "electronics" and "light" matches "lighting". There is no stemming, no
// fuzzy distance and no word-boundary anchoring ("cat" also matches
// "category").
package catalog

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on runs of non-alphanumeric
// characters. Empty tokens are dropped; order is preserved.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Matches reports whether any token of term is a substring of any token of
// fields, or of a raw (lowercased) field.
//
// An empty term, or one made only of separators, matches everything.
func Matches(fields []string, term string) bool {
	terms := Tokenize(term)
	if len(terms) == 0 {
		return true
	}

	for _, field := range fields {
		raw := strings.ToLower(field)
		tokens := Tokenize(field)
		for _, t := range terms {
			if strings.Contains(raw, t) {
				return true
			}
			for _, tok := range tokens {
				if strings.Contains(tok, t) {
					return true
				}
			}
		}
	}
	return false
}

// MatchesAny reports whether fields match at least one of tags. It backs
// tag browsing, where several tags are OR'd together. No tags matches
// everything.
func MatchesAny(fields []string, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if Matches(fields, tag) {
			return true
		}
	}
	return false
}
