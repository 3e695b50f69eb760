package apperr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxEchoLength caps strings echoed back in error bodies
	MaxEchoLength = 300
	// MaxLogLength caps strings written to logs
	MaxLogLength = 1000
)

// Sanitize strips control characters (newlines and tabs become spaces) and caps the
// result at limit runes, appending an ellipsis when it cuts.
func Sanitize(s string, limit int) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			continue
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case unicode.IsControl(r):
			continue
		case r == '\u2028' || r == '\u2029':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if limit > 0 && utf8.RuneCountInString(out) > limit {
		runes := []rune(out)
		out = string(runes[:limit]) + "…"
	}
	return out
}
