// Package match resolves free-text driver names, as written in documents, to
// canonical roster names.
package match

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the Ratcliff/Obershelp similarity of a and b: twice the number
// of characters in matching blocks divided by the total length, in [0, 1].
// Two empty strings are identical (1.0). Strings are compared rune by rune, so
// Ratio(a, b) equals Python's SequenceMatcher(None, a, b).ratio().
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
