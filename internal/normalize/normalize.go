// Package normalize canonicalizes document text so that markers and driver
// names compare without regard to case or accents.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold decomposes s (NFKD), drops combining marks and lowercases the result.
// "José" and "JOSE" fold to the same string. Fold is idempotent.
func Fold(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		// transform only fails on invalid state; fall back to plain lowercasing
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// Contains reports whether the folded text contains the folded marker.
func Contains(text, marker string) bool {
	return strings.Contains(Fold(text), Fold(marker))
}

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reTrailingWS = regexp.MustCompile(`[ \t]+$`)
)

// CleanLine normalizes line endings and tabs and trims trailing spaces.
// Inner runs of spaces are kept: layout-preserving extractors use them as column gaps.
func CleanLine(s string) string {
	s = reCRLF.ReplaceAllString(s, "")
	s = reTabs.ReplaceAllString(s, "  ")
	return reTrailingWS.ReplaceAllString(s, "")
}
