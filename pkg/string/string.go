package string

import (
	"strings"
	"unicode"
)

// TrimStrings trims whitespace from each string in place.
// Handlers use this to sanitize request fields before validation.
func TrimStrings(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

// ToSnakeCase converts a Go identifier to snake_case.
// Used to render struct field names in validation messages.
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && boundaryBefore(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// boundaryBefore reports whether a word starts at runes[i]: the previous
// rune is lower case, or an acronym run ends here because the next rune
// is lower case. "UserID" splits before I; "HTTPServer" before S.
func boundaryBefore(runes []rune, i int) bool {
	if unicode.IsLower(runes[i-1]) {
		return true
	}
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
