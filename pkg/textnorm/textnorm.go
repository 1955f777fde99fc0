// Package textnorm canonicalizes free text before it is matched against
// keyword tables: lowercase, accents stripped, whitespace collapsed.
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

// Normalize returns the canonical form of s. It is pure and idempotent;
// blank input yields "".
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	// Transformers and casers keep internal state, build them per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = cases.Lower(language.Und).String(out)

	return strings.Join(strings.Fields(out), " ")
}
