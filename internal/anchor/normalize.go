package anchor

import (
	"strings"
	"unicode"
)

// NormalizeWhitespace collapses every run of whitespace to a single space and
// trims both ends. It is applied to both sides of every comparison and never
// to the stored projection itself.
func NormalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizedIndex is the whitespace-normalized form of a rune sequence with a
// map from every normalized rune back to the raw rune it came from. A collapsed
// run maps to its first whitespace rune.
type normalizedIndex struct {
	text  string
	toRaw []int
}

func buildNormalizedIndex(runes []rune) *normalizedIndex {
	idx := &normalizedIndex{toRaw: make([]int, 0, len(runes))}
	var b strings.Builder
	b.Grow(len(runes))
	wsStart := -1
	for i, r := range runes {
		if unicode.IsSpace(r) {
			if wsStart < 0 {
				wsStart = i
			}
			continue
		}
		if wsStart >= 0 && b.Len() > 0 {
			b.WriteByte(' ')
			idx.toRaw = append(idx.toRaw, wsStart)
		}
		wsStart = -1
		b.WriteRune(r)
		idx.toRaw = append(idx.toRaw, i)
	}
	idx.text = b.String()
	return idx
}
