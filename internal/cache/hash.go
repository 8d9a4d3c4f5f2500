package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// CalcHash returns the hex SHA-256 of the sorted list encoded as a JSON array
// with ", " separators and ASCII-only escapes. That text is the one earlier
// deployments hashed, so ledgers written by them compare equal.
func CalcHash(list []string) string {
	sorted := slices.Clone(list)
	slices.Sort(sorted)
	sum := sha256.Sum256([]byte(asciiJSONList(sorted)))
	return hex.EncodeToString(sum[:])
}

func asciiJSONList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		writeASCIIString(&b, item)
	}
	b.WriteByte(']')
	return b.String()
}

func writeASCIIString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\b':
			b.WriteString(`\b`)
		case r == '\f':
			b.WriteString(`\f`)
		case r < 0x20 || (r >= 0x7f && r <= 0xffff):
			fmt.Fprintf(b, `\u%04x`, r)
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(b, `\u%04x\u%04x`, hi, lo)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
