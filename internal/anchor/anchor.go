// Package anchor recovers where a stored highlight lives in the current text of
// an article.
//
// A selector carries two strategies: a text position (rune offsets into the
// projection) and a text quote (the exact text plus a little context on each
// side). Locate trusts the position when it still points at the quote and
// otherwise searches for the quote, using the context to choose between
// repeated occurrences. Every result says which rule produced it.
package anchor

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/readwell/readwell-server/internal/domain"
)

// ContextWindow is how many runes on each side of a candidate are compared
// against the stored prefix and suffix.
const ContextWindow = 50

// ErrOrphaned is returned when the quote does not occur in the document.
var ErrOrphaned = errors.New("anchor: quote not found in document")

// Confidence names the rule that produced a match, from strongest to weakest.
type Confidence string

// Confidence tiers.
const (
	// ConfidencePosition: the stored offsets still hold the quote.
	ConfidencePosition Confidence = "position"
	// ConfidenceUnique: the quote occurs exactly once.
	ConfidenceUnique Confidence = "unique"
	// ConfidenceContext: the quote repeats and the stored context picked one occurrence.
	ConfidenceContext Confidence = "context"
	// ConfidenceNearest: the quote repeats, context did not decide, and the
	// occurrence closest to the stored start was taken. May be the wrong one.
	ConfidenceNearest Confidence = "nearest"
)

// IsLow reports whether the match may sit on the wrong occurrence.
func (c Confidence) IsLow() bool {
	return c == ConfidenceNearest
}

// Match is a located range in rune offsets of the projection.
type Match struct {
	Confidence Confidence
	Start      int
	End        int
	// Normalized is set when the quote was only found after whitespace normalization.
	Normalized bool
}

// Moved reports whether the match differs from the selector's stored offsets.
func (m Match) Moved(sel domain.Selector) bool {
	return m.Start != sel.Start || m.End != sel.End
}

// Document is a text projection prepared for repeated anchoring.
// The normalized index is built on first use.
type Document struct {
	text  string
	runes []rune
	norm  *normalizedIndex
}

// NewDocument prepares text for anchoring.
func NewDocument(text string) *Document {
	return &Document{text: text, runes: []rune(text)}
}

// Len returns the document length in runes.
func (d *Document) Len() int {
	return len(d.runes)
}

// Slice returns the text in the rune range [start, end), clamped to the document.
func (d *Document) Slice(start, end int) string {
	start = max(start, 0)
	end = min(end, len(d.runes))
	if start >= end {
		return ""
	}
	return string(d.runes[start:end])
}

func (d *Document) normalized() *normalizedIndex {
	if d.norm == nil {
		d.norm = buildNormalizedIndex(d.runes)
	}
	return d.norm
}

// Locate anchors sel in text. See Document.Locate.
func Locate(text string, sel domain.Selector) (Match, error) {
	return NewDocument(text).Locate(sel)
}

// Locate anchors sel in the document.
//
// The stored offsets win when the text they cover equals the quote after
// whitespace normalization. Otherwise every exact occurrence of the quote is a
// candidate, or every whitespace-normalized occurrence when there is no exact
// one. A single candidate is taken as is. Among several, the first whose
// surroundings end with the stored prefix and start with the stored suffix
// wins; failing that the candidate nearest the stored start offset is used.
func (d *Document) Locate(sel domain.Selector) (Match, error) {
	quote := NormalizeWhitespace(sel.Exact)
	if quote == "" {
		return Match{}, ErrOrphaned
	}

	if sel.Start >= 0 && sel.End <= len(d.runes) && sel.Start < sel.End &&
		NormalizeWhitespace(string(d.runes[sel.Start:sel.End])) == quote {
		return Match{Start: sel.Start, End: sel.End, Confidence: ConfidencePosition}, nil
	}

	candidates := d.exactOccurrences(sel.Exact)
	normalized := false
	if len(candidates) == 0 {
		candidates = d.normalizedOccurrences(quote)
		normalized = true
	}

	switch len(candidates) {
	case 0:
		return Match{}, ErrOrphaned
	case 1:
		c := candidates[0]
		return Match{Start: c.start, End: c.end, Confidence: ConfidenceUnique, Normalized: normalized}, nil
	}

	prefix := NormalizeWhitespace(sel.Prefix)
	suffix := NormalizeWhitespace(sel.Suffix)
	if prefix != "" || suffix != "" {
		for _, c := range candidates {
			if d.contextMatches(c, prefix, suffix) {
				return Match{Start: c.start, End: c.end, Confidence: ConfidenceContext, Normalized: normalized}, nil
			}
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if distance(c.start, sel.Start) < distance(best.start, sel.Start) {
			best = c
		}
	}
	return Match{Start: best.start, End: best.end, Confidence: ConfidenceNearest, Normalized: normalized}, nil
}

type span struct {
	start, end int
}

// exactOccurrences returns every, possibly overlapping, occurrence of quote.
func (d *Document) exactOccurrences(quote string) []span {
	if quote == "" {
		return nil
	}
	quoteLen := utf8.RuneCountInString(quote)
	var out []span
	byteOff, runeOff := 0, 0
	for {
		i := strings.Index(d.text[byteOff:], quote)
		if i < 0 {
			return out
		}
		runeOff += utf8.RuneCountInString(d.text[byteOff : byteOff+i])
		out = append(out, span{start: runeOff, end: runeOff + quoteLen})

		// Step one rune past the match start.
		_, size := utf8.DecodeRuneInString(d.text[byteOff+i:])
		byteOff += i + size
		runeOff++
	}
}

// normalizedOccurrences finds quote, already normalized, in the normalized
// document and maps each hit back to raw offsets.
func (d *Document) normalizedOccurrences(quote string) []span {
	idx := d.normalized()
	quoteLen := utf8.RuneCountInString(quote)
	var out []span
	byteOff, runeOff := 0, 0
	for {
		i := strings.Index(idx.text[byteOff:], quote)
		if i < 0 {
			return out
		}
		runeOff += utf8.RuneCountInString(idx.text[byteOff : byteOff+i])
		last := runeOff + quoteLen - 1
		out = append(out, span{start: idx.toRaw[runeOff], end: idx.toRaw[last] + 1})

		_, size := utf8.DecodeRuneInString(idx.text[byteOff+i:])
		byteOff += i + size
		runeOff++
	}
}

func (d *Document) contextMatches(c span, prefix, suffix string) bool {
	if prefix != "" {
		before := NormalizeWhitespace(d.Slice(c.start-ContextWindow, c.start))
		if !strings.HasSuffix(before, prefix) {
			return false
		}
	}
	if suffix != "" {
		after := NormalizeWhitespace(d.Slice(c.end, c.end+ContextWindow))
		if !strings.HasPrefix(after, suffix) {
			return false
		}
	}
	return true
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
