package content

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// hiddenTags hold text that is never part of the reading surface.
var hiddenTags = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
}

// TextNodes returns the visible text nodes under root in document order.
func (t *Tree) TextNodes(root NodeID) []NodeID {
	var out []NodeID
	t.Walk(root, func(id NodeID, n *Node) bool {
		switch n.Type {
		case TextNode:
			out = append(out, id)
		case ElementNode:
			return !hiddenTags[n.Tag]
		case CommentNode:
			return false
		}
		return true
	})
	return out
}

// PlainText returns the canonical text projection of root: the verbatim
// concatenation of its visible text nodes in document order.
func (t *Tree) PlainText(root NodeID) string {
	var b strings.Builder
	for _, id := range t.TextNodes(root) {
		b.WriteString(t.nodes[id].Data)
	}
	return b.String()
}

// TextSpan is the [Start, End) rune range a text node contributes to the projection.
type TextSpan struct {
	Node  NodeID
	Start int
	End   int
}

// Len returns the span length in runes.
func (s TextSpan) Len() int {
	return s.End - s.Start
}

// TextMap maps projection offsets to the text nodes that produced them.
// It describes the tree at the moment it was built and must be rebuilt after any mutation.
type TextMap struct {
	Text  string
	Spans []TextSpan
	runes int
}

// BuildTextNodeMap projects root and records each text node's span.
// Concatenating the spans' data in order reproduces Text exactly.
func (t *Tree) BuildTextNodeMap(root NodeID) *TextMap {
	m := &TextMap{}
	var b strings.Builder
	for _, id := range t.TextNodes(root) {
		data := t.nodes[id].Data
		n := utf8.RuneCountInString(data)
		m.Spans = append(m.Spans, TextSpan{Node: id, Start: m.runes, End: m.runes + n})
		m.runes += n
		b.WriteString(data)
	}
	m.Text = b.String()
	return m
}

// Len returns the projection length in runes.
func (m *TextMap) Len() int {
	return m.runes
}

// SpanOf returns the span recorded for a text node.
func (m *TextMap) SpanOf(node NodeID) (TextSpan, bool) {
	for _, s := range m.Spans {
		if s.Node == node {
			return s, true
		}
	}
	return TextSpan{}, false
}

// LocateStart resolves an offset used as the start of a range. On a boundary
// between two nodes it picks the later node, so the range begins inside the
// node that holds its first character. Empty nodes are never returned.
func (m *TextMap) LocateStart(offset int) (TextSpan, int, bool) {
	if offset < 0 || offset >= m.runes {
		return TextSpan{}, 0, false
	}
	i := sort.Search(len(m.Spans), func(i int) bool { return m.Spans[i].End > offset })
	for ; i < len(m.Spans); i++ {
		if m.Spans[i].Len() > 0 {
			return m.Spans[i], offset - m.Spans[i].Start, true
		}
	}
	return TextSpan{}, 0, false
}

// LocateEnd resolves an offset used as the exclusive end of a range. On a
// boundary it picks the earlier node, so the range ends inside the node that
// holds its last character. Empty nodes are never returned.
func (m *TextMap) LocateEnd(offset int) (TextSpan, int, bool) {
	if offset <= 0 || offset > m.runes {
		return TextSpan{}, 0, false
	}
	i := sort.Search(len(m.Spans), func(i int) bool { return m.Spans[i].End >= offset })
	for ; i < len(m.Spans); i++ {
		if m.Spans[i].Len() > 0 {
			return m.Spans[i], offset - m.Spans[i].Start, true
		}
	}
	return TextSpan{}, 0, false
}

// OffsetOf converts a position inside a text node to a projection offset.
func (m *TextMap) OffsetOf(node NodeID, local int) (int, bool) {
	s, ok := m.SpanOf(node)
	if !ok || local < 0 || local > s.Len() {
		return 0, false
	}
	return s.Start + local, true
}

// Slice returns the projection text in the rune range [start, end).
func (m *TextMap) Slice(start, end int) string {
	start = max(start, 0)
	end = min(end, m.runes)
	if start >= end {
		return ""
	}
	from := runeByteIndex(m.Text, start)
	to := from + runeByteIndex(m.Text[from:], end-start)
	return m.Text[from:to]
}
