// Package geo holds the text normalization and the ordered lookup tables used
// to map free-form destination names to codes, regions and tiers.
package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, strips accents and collapses whitespace.
// "  São  Paulo " -> "sao paulo".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// Rule maps any of its keywords (already normalized) to Value.
type Rule[T any] struct {
	Keywords []string
	Value    T
}

// Table is an ordered list of rules with a documented default. The first rule
// with a keyword present in the normalized input wins. Keywords match whole
// words only: "lima" matches "Lima, Peru" but not "Limassol".
type Table[T any] struct {
	Rules   []Rule[T]
	Default T
}

// Match returns the value of the first matching rule, or Default with
// matched=false.
func (t Table[T]) Match(text string) (value T, matched bool) {
	n := " " + words(text) + " "
	for _, r := range t.Rules {
		for _, kw := range r.Keywords {
			if strings.Contains(n, " "+kw+" ") {
				return r.Value, true
			}
		}
	}
	return t.Default, false
}

// words normalizes s and turns punctuation into single spaces:
// "Tóquio, Japão" -> "toquio japao".
func words(s string) string {
	return strings.Join(strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
