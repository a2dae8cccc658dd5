package source

import (
	"strings"
	"unicode"
)

// StripPunctuation removes everything but ASCII letters, digits and
// whitespace. Whitespace is Unicode-wide, so no-break, thin and hair spaces
// survive and words stay separated.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			return r
		case unicode.IsSpace(r), 0x1c <= r && r <= 0x1f:
			return r
		}
		return -1
	}, s)
}

// QuotePhrase wraps s in double quotes and percent-encodes the result.
func QuotePhrase(s string) string {
	return Escape(`"` + s + `"`)
}

// Escape percent-encodes every byte outside the unreserved set
// (letters, digits, "_.-~") and "/". Hex digits are upper case.
func Escape(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '_', c == '.', c == '-', c == '~', c == '/':
		return true
	}
	return false
}
