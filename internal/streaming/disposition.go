// vidstore/internal/streaming/disposition.go
package streaming

import "strings"

const upperhex = "0123456789ABCDEF"

// ContentDisposition returns an attachment disposition carrying name in
// RFC 5987 form.
func ContentDisposition(name string) string {
	return "attachment; filename*=UTF-8''" + EncodeURIComponent(name)
}

// EncodeURIComponent percent-encodes every byte of s outside
// A-Z a-z 0-9 and - _ . ! ~ * ' ( ), which is the set browsers leave
// unescaped in URI components.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
