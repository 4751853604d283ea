package queryir

import (
	"fmt"
	"strings"
)

// Marker is the generic substitution marker written for every placeholder.
// A literal percent sign in template text is written as "%%".
const Marker = "%s"

// EscapeText doubles every percent sign so s can be embedded in template text.
func EscapeText(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// CountMarkers returns the number of %s markers in text, skipping %% escapes.
func CountMarkers(text string) int {
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '%' || i+1 >= len(text) {
			continue
		}
		switch text[i+1] {
		case 's':
			n++
			i++
		case '%':
			i++
		}
	}
	return n
}

// Expand substitutes values for the markers of text in order and collapses
// %% escapes to a single percent sign.
//
// len(values) must equal CountMarkers(text).
func Expand(text string, values []string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	next := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '%' || i+1 >= len(text) {
			b.WriteByte(c)
			continue
		}
		switch text[i+1] {
		case 's':
			if next >= len(values) {
				return "", fmt.Errorf("template needs more than %d values", len(values))
			}
			b.WriteString(values[next])
			next++
			i++
		case '%':
			b.WriteByte('%')
			i++
		default:
			b.WriteByte(c)
		}
	}

	if next != len(values) {
		return "", fmt.Errorf("template has %d markers but %d values were given", next, len(values))
	}
	return b.String(), nil
}
