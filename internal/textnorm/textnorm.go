// Package textnorm folds free text coming from upstream logs and filenames
// into a comparable form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold trims s, strips diacritics and upper-cases it, so "  sí " and "SI"
// compare equal.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// Transformers carry state; build a fresh chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Upper(language.Und).String(out)
}

// Contains reports whether the folded s contains any of the folded markers.
func Contains(s string, markers ...string) bool {
	f := Fold(s)
	for _, m := range markers {
		if m != "" && strings.Contains(f, Fold(m)) {
			return true
		}
	}
	return false
}

// Blank reports whether s is empty after trimming.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Coalesce returns the first non-blank value, trimmed.
func Coalesce(values ...string) string {
	for _, v := range values {
		if !Blank(v) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
