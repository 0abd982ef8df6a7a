package metrics

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// QueryFeatures describes the shape of a user query without keeping its text.
type QueryFeatures struct {
	Bytes int
	Runes int
	Words int
	Lines int
	// Terms counts distinct lower-cased letter/digit runs, the unit the
	// content search matches on.
	Terms int
	// Questions counts '?' runes.
	Questions int
}

func CountQueryFeatures(s string) QueryFeatures {
	return QueryFeatures{
		Bytes:     len(s),
		Runes:     utf8.RuneCountInString(s),
		Words:     len(strings.Fields(s)),
		Lines:     countLines(s),
		Terms:     countTerms(s),
		Questions: strings.Count(s, "?"),
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}

func countTerms(s string) int {
	seen := make(map[string]struct{})
	for _, t := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		seen[t] = struct{}{}
	}
	return len(seen)
}
