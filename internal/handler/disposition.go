package handler

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// contentDisposition builds a header value carrying an ASCII fallback name for
// old clients plus the exact UTF-8 name as filename*.
func contentDisposition(dispType, filename string) string {
	if filename == "" {
		return dispType
	}

	fallback := asciiFilename(filename)
	value := fmt.Sprintf(`%s; filename="%s"`, dispType, fallback)
	if fallback != filename {
		value += "; filename*=UTF-8''" + encodeExtValue(filename)
	}
	return value
}

// asciiFilename strips accents and replaces whatever is left outside printable ASCII.
func asciiFilename(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	for _, r := range stripped {
		switch {
		case r == '"' || r == '\\' || r == '/':
			b.WriteByte('_')
		case r < 0x20 || r > 0x7e:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// encodeExtValue percent-encodes s per the RFC 8187 attr-char set.
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
