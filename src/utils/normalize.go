package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameTransformer strips diacritics: decompose, drop combining marks,
// recompose.
var nameTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName prepares a name field for matching: uppercase, diacritics
// stripped, hyphens and spaces removed. Both the filing manifest and the
// registry must pass through this or substring matching is meaningless.
func NormalizeName(s string) string {
	out, _, err := transform.String(nameTransformer, s)
	if err != nil {
		out = s
	}
	out = strings.ToUpper(out)
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, out)
}

// NormalizeDistrict uppercases a state+district code and renumbers at-large
// districts from the disclosure convention ("00") to the registry
// convention ("01").
func NormalizeDistrict(d string) string {
	d = strings.ToUpper(strings.TrimSpace(d))
	if len(d) >= 4 && strings.HasSuffix(d, "00") {
		return d[:len(d)-2] + "01"
	}
	return d
}

// CycleForYear returns the two-year election cycle containing year
// (odd years round up).
func CycleForYear(year int) int {
	return year + year%2
}

// FilingIDLess orders opaque document identifiers. Doc numbers in the
// source scheme increase with filing date; length-then-lexicographic
// ordering matches numeric order without assuming the ids parse.
func FilingIDLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
