package highlight

import (
	"errors"
	"strings"

	"github.com/readwell/readwell-server/internal/anchor"
	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
)

// Selection capture errors.
var (
	ErrCollapsedSelection = errors.New("highlight: selection is collapsed")
	ErrEmptySelection     = errors.New("highlight: selection contains no text")
	ErrOutsideContent     = errors.New("highlight: selection boundary is outside the article")
)

// Selection is a user text selection expressed as two boundary points, as a
// browser reports it. Anchor is where the drag started, Focus where it ended,
// so Focus may precede Anchor. A boundary in a text node counts runes; a
// boundary in an element counts children.
type Selection struct {
	AnchorNode   content.NodeID
	AnchorOffset int
	FocusNode    content.NodeID
	FocusOffset  int
}

// CaptureSelection converts a selection under root into a highlight draft with
// projection offsets and context. The draft has no article ID.
func CaptureSelection(t *content.Tree, root content.NodeID, sel Selection, color string, contextLength int) (domain.HighlightDraft, error) {
	m := t.BuildTextNodeMap(root)

	a, err := boundaryOffset(t, root, m, sel.AnchorNode, sel.AnchorOffset)
	if err != nil {
		return domain.HighlightDraft{}, err
	}
	f, err := boundaryOffset(t, root, m, sel.FocusNode, sel.FocusOffset)
	if err != nil {
		return domain.HighlightDraft{}, err
	}

	start, end := min(a, f), max(a, f)
	return captureRange(m, start, end, color, contextLength)
}

// CaptureRange builds a draft for the projection range [start, end) under root.
func CaptureRange(t *content.Tree, root content.NodeID, start, end int, color string, contextLength int) (domain.HighlightDraft, error) {
	m := t.BuildTextNodeMap(root)
	if start < 0 || end > m.Len() {
		return domain.HighlightDraft{}, ErrOutsideContent
	}
	return captureRange(m, start, end, color, contextLength)
}

func captureRange(m *content.TextMap, start, end int, color string, contextLength int) (domain.HighlightDraft, error) {
	if start >= end {
		return domain.HighlightDraft{}, ErrCollapsedSelection
	}
	text := m.Slice(start, end)
	if anchor.NormalizeWhitespace(text) == "" {
		return domain.HighlightDraft{}, ErrEmptySelection
	}
	prefix, suffix := contextAround(m, start, end, contextLength)
	return domain.HighlightDraft{
		Text:          text,
		StartOffset:   start,
		EndOffset:     end,
		ContextPrefix: prefix,
		ContextSuffix: suffix,
		Color:         domain.ResolveColor(color),
	}, nil
}

// ExtractContext returns up to contextLength runes of text before and after
// [start, end) under root, trimmed of surrounding whitespace. A contextLength
// of zero or less uses domain.DefaultContextLength.
func ExtractContext(t *content.Tree, root content.NodeID, start, end, contextLength int) (prefix, suffix string) {
	return contextAround(t.BuildTextNodeMap(root), start, end, contextLength)
}

func contextAround(m *content.TextMap, start, end, n int) (prefix, suffix string) {
	if n <= 0 {
		n = domain.DefaultContextLength
	}
	prefix = strings.TrimSpace(m.Slice(start-n, start))
	suffix = strings.TrimSpace(m.Slice(end, end+n))
	return prefix, suffix
}

// boundaryOffset converts a selection boundary point to a projection offset.
func boundaryOffset(t *content.Tree, root content.NodeID, m *content.TextMap, node content.NodeID, offset int) (int, error) {
	if !t.Valid(node) || !t.Contains(root, node) {
		return 0, ErrOutsideContent
	}

	if t.IsText(node) {
		off, ok := m.OffsetOf(node, offset)
		if !ok {
			// Hidden text (script, style) is not part of the projection.
			return 0, ErrOutsideContent
		}
		return off, nil
	}

	children := t.Children(node)
	if offset < 0 || offset > len(children) {
		return 0, ErrOutsideContent
	}

	// The boundary sits before children[offset], or after node's last descendant.
	// Its projection offset is the length of all text that precedes it.
	var stop content.NodeID = content.None
	if offset < len(children) {
		stop = children[offset]
	}
	lengths := make(map[content.NodeID]int, len(m.Spans))
	for _, s := range m.Spans {
		lengths[s.Node] = s.Len()
	}
	total := 0
	done := false
	inNode := false
	t.Walk(root, func(id content.NodeID, _ *content.Node) bool {
		if done {
			return false
		}
		if id == stop {
			done = true
			return false
		}
		if stop == content.None && inNode && !t.Contains(node, id) {
			done = true
			return false
		}
		if id == node {
			inNode = true
		}
		total += lengths[id]
		return true
	})
	return total, nil
}
