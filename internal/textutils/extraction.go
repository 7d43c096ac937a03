// Package textutils provides the text cleanup helpers shared by the parsers,
// the city resolver and the deduplicator.
package textutils

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims s and replaces every whitespace run, including
// non-breaking spaces, with a single space.
func CollapseWhitespace(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\u00a0' || r == '\u202f' {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// CleanCell decodes HTML entities and collapses whitespace.
func CleanCell(s string) string {
	return CollapseWhitespace(html.UnescapeString(s))
}

// Fold returns the comparison key used for case-insensitive matching.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TitleCase returns s with each word capitalized and the rest lower-cased,
// e.g. "KEBAB FACTORY" becomes "Kebab Factory".
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.ToLower(s))
}

// ContainsDigit reports whether s has at least one decimal digit.
func ContainsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
