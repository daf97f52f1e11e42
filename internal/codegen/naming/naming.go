// Package naming converts identifiers between the three naming styles used
// across target ecosystems. Every emitter uses these same conversions so
// that a schema identifier maps to the same name everywhere.
package naming

import (
	"strings"
	"unicode"
)

// Pascal converts an identifier to PascalCase. Input already in PascalCase
// (leading uppercase, no underscores) is returned unchanged.
func Pascal(text string) string {
	if text == "" {
		return ""
	}
	if unicode.IsUpper(rune(text[0])) && !strings.Contains(text, "_") {
		return text
	}
	parts := strings.Split(text, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

// Camel converts an identifier to camelCase: the first segment lowercased,
// subsequent segments capitalized.
func Camel(text string) string {
	parts := strings.Split(text, "_")
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

// Snake converts a PascalCase or camelCase identifier to snake_case: an
// underscore is inserted before each internal uppercase letter, then the
// whole string is lowercased.
func Snake(text string) string {
	var b strings.Builder
	for i, r := range text {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
