package service

import (
	"strings"
	"unicode"
)

// NormalizeArtikul reduces a part code to its matching key: whitespace,
// dashes and dots stripped, case folded to upper. "PK-5396", "pk5396" and
// "PK 5396" all share the key "PK5396".
func NormalizeArtikul(artikul string) string {
	var b strings.Builder
	b.Grow(len(artikul))
	for _, r := range artikul {
		if unicode.IsSpace(r) || r == '-' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// NormalizeClient is the case-insensitive matching key for a client name.
func NormalizeClient(client string) string {
	return strings.ToUpper(strings.TrimSpace(client))
}
