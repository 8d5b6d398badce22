// Package canon reduces free text to the form used for banned-word comparison.
//
// The pipeline runs in a fixed order, which matters for compound obfuscations:
//  1. lowercase
//  2. compatibility decomposition, combining marks dropped
//  3. Cyrillic letters transliterated to Latin
//  4. leetspeak digits and symbols replaced by their look-alike letters
//  5. everything outside [a-z0-9] dropped
//
// The result is a lowercase ASCII alphanumeric string. Canonicalize is pure and
// idempotent.
package canon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e", 'ж': "zh",
	'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o",
	'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "h", 'ц': "ts",
	'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu",
	'я': "ya",
}

var leet = map[rune]rune{
	'0': 'o', '1': 'i', '3': 'e', '4': 'a', '5': 's', '6': 'g', '7': 't', '8': 'b',
	'9': 'g', '@': 'a', '$': 's', '!': 'i',
}

// Canonicalize returns the comparison form of text. Empty input yields an empty string.
func Canonicalize(text string) string {
	if text == "" {
		return ""
	}

	s := strings.ToLower(text)
	s = stripMarks(s)
	s = transliterate(s)
	s = decodeLeet(s)

	return keepAlnum(s)
}

// stripMarks decomposes s and removes combining marks, so "é" becomes "e" and "ⓐ" becomes "a".
// A fresh chain is built per call since transform.Transformer values carry state.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if latin, ok := cyrillicToLatin[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func decodeLeet(s string) string {
	return strings.Map(func(r rune) rune {
		if l, ok := leet[r]; ok {
			return l
		}
		return r
	}, s)
}

func keepAlnum(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

// Tokenize splits a message into whitespace-delimited tokens. Punctuation and symbols inside a
// word stay in its token so that "b.a.d" or "b@d" reach Canonicalize as one unit, while
// separate words are never joined.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.Is(unicode.Z, r) || unicode.IsControl(r)
	})
}
