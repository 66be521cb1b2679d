// Package filex implements the normative filename sanitizer shared by every
// filename-accepting operation. Storage paths embed the sanitized name, so
// the rules here must stay stable for backward-compatible paths.
package filex

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxFilenameLen bounds sanitized filenames.
const maxFilenameLen = 255

// stripDiacritics decomposes to NFD, drops combining marks, and recomposes.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeFilename normalizes a user-supplied filename:
// diacritics are stripped, any character outside [A-Za-z0-9.-] becomes '_',
// runs of dots collapse to a single dot, and the result is truncated to 255
// characters.
func SanitizeFilename(name string) string {
	s, _, err := transform.String(stripDiacritics, name)
	if err != nil {
		// Transform failures fall back to the raw name; the character
		// filter below still guarantees a safe result.
		s = name
	}

	var b strings.Builder
	b.Grow(len(s))
	prevDot := false
	for _, r := range s {
		switch {
		case r == '.':
			if !prevDot {
				b.WriteByte('.')
			}
			prevDot = true
			continue
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		prevDot = false
	}

	out := b.String()
	if len(out) > maxFilenameLen {
		out = out[:maxFilenameLen]
	}
	return out
}
