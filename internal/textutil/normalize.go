package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// NormalizeQuestion canonicalizes question text for exact-duplicate detection.
// The transformation applies Unicode NFKC normalization, case folding, and
// whitespace collapse, so two imports of the same question differing only in
// encoding, casing, or spacing map to the same key.
func NormalizeQuestion(text string) string {
	normalized := norm.NFKC.String(text)
	folded := foldCaser.String(normalized)
	return strings.Join(strings.Fields(folded), " ")
}

// CollapseWhitespace trims text and squeezes internal whitespace runs to a
// single space without changing case.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	return strings.TrimSpace(replacer.Replace(name))
}
