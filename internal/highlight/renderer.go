// Package highlight paints anchored highlights onto a content tree, resolves
// clicks on them, and turns user selections into new highlights.
//
// Painting is a full repaint: existing markers are removed, every highlight is
// anchored against the fresh projection, and the anchored ranges are wrapped in
// ascending start order, rebuilding the text map after each one.
package highlight

import (
	"errors"
	"fmt"
	"slices"

	"github.com/readwell/readwell-server/internal/anchor"
	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
)

// Status is the outcome of painting one highlight.
type Status string

// Paint outcomes.
const (
	StatusPainted  Status = "painted"
	StatusOrphaned Status = "orphaned"
	StatusFailed   Status = "failed"
)

// ErrInvalidRange is returned when an anchored range cannot be mapped onto the tree.
var ErrInvalidRange = errors.New("highlight: range cannot be mapped onto the content tree")

// ErrNothingToPaint is returned when every text node of a range already belongs to another marker.
var ErrNothingToPaint = errors.New("highlight: range is already covered by other highlights")

// Result describes what happened to one highlight during a paint pass.
type Result struct {
	Err         error             `json:"-"`
	HighlightID string            `json:"highlight_id"`
	Status      Status            `json:"status"`
	Confidence  anchor.Confidence `json:"confidence,omitempty"`
	Start       int               `json:"start_offset"`
	End         int               `json:"end_offset"`
	Markers     int               `json:"markers"`
	// Moved is set when the anchored range differs from the stored offsets.
	Moved bool `json:"moved"`
}

// Report collects the results of a paint pass in input order.
type Report struct {
	Results []Result `json:"results"`
}

// Count returns how many results have the given status.
func (r Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Result returns the result for a highlight.
func (r Report) Result(highlightID string) (Result, bool) {
	for _, res := range r.Results {
		if res.HighlightID == highlightID {
			return res, true
		}
	}
	return Result{}, false
}

// ClickHandler receives the highlight behind a clicked marker.
type ClickHandler func(h domain.Highlight)

// Painter owns the highlight markers under one root of a content tree.
// It is not safe for concurrent use.
type Painter struct {
	tree    *content.Tree
	onClick ClickHandler
	byID    map[string]domain.Highlight
	root    content.NodeID
}

// NewPainter returns a painter for the subtree at root. onClick may be nil.
func NewPainter(t *content.Tree, root content.NodeID, onClick ClickHandler) *Painter {
	return &Painter{tree: t, root: root, onClick: onClick, byID: make(map[string]domain.Highlight)}
}

// ApplyHighlightsToDOM repaints highlights under root and returns the painter
// holding the click handler, along with the per-highlight report.
func ApplyHighlightsToDOM(t *content.Tree, root content.NodeID, highlights []domain.Highlight, onClick ClickHandler) (*Painter, Report) {
	p := NewPainter(t, root, onClick)
	return p, p.Apply(highlights)
}

// RemoveHighlight unwraps the markers of one highlight and returns how many were removed.
func RemoveHighlight(t *content.Tree, root content.NodeID, highlightID string) int {
	return NewPainter(t, root, nil).Remove(highlightID)
}

type anchored struct {
	h     domain.Highlight
	match anchor.Match
	index int
}

// Apply removes every marker under the root and paints highlights from scratch.
// Highlights that cannot be anchored or mapped are reported and skipped; they
// never stop the rest from painting.
func (p *Painter) Apply(highlights []domain.Highlight) Report {
	p.clear()
	p.byID = make(map[string]domain.Highlight, len(highlights))

	report := Report{Results: make([]Result, len(highlights))}
	doc := anchor.NewDocument(p.tree.PlainText(p.root))

	ranges := make([]anchored, 0, len(highlights))
	for i, h := range highlights {
		p.byID[h.ID] = h
		sel := h.Selector()
		m, err := doc.Locate(sel)
		if err != nil {
			report.Results[i] = Result{HighlightID: h.ID, Status: StatusOrphaned, Err: err, Start: h.StartOffset, End: h.EndOffset}
			continue
		}
		ranges = append(ranges, anchored{h: h, match: m, index: i})
	}

	slices.SortStableFunc(ranges, func(a, b anchored) int {
		if a.match.Start != b.match.Start {
			return a.match.Start - b.match.Start
		}
		return a.match.End - b.match.End
	})

	for _, r := range ranges {
		res := Result{
			HighlightID: r.h.ID,
			Confidence:  r.match.Confidence,
			Start:       r.match.Start,
			End:         r.match.End,
			Moved:       r.match.Moved(r.h.Selector()),
		}
		n, err := p.paint(r.h.ID, domain.ResolveColor(string(r.h.Color)), r.match.Start, r.match.End)
		switch {
		case err != nil:
			res.Status, res.Err = StatusFailed, err
		case n == 0:
			res.Status, res.Err = StatusFailed, ErrNothingToPaint
		default:
			res.Status, res.Markers = StatusPainted, n
		}
		report.Results[r.index] = res
	}
	return report
}

// PaintRange wraps [start, end) of the current projection in markers for id
// without touching other markers. It returns the number of markers created.
func (p *Painter) PaintRange(id string, color domain.Color, start, end int) (int, error) {
	n, err := p.paint(id, domain.ResolveColor(string(color)), start, end)
	if err == nil && n == 0 {
		err = ErrNothingToPaint
	}
	return n, err
}

// Track registers h for click resolution without painting it.
func (p *Painter) Track(h domain.Highlight) {
	p.byID[h.ID] = h
}

// Remove unwraps every marker for highlightID, merges the freed text back into
// its neighbours, and forgets the highlight.
func (p *Painter) Remove(highlightID string) int {
	markers := MarkersFor(p.tree, p.root, highlightID)
	for _, m := range markers {
		// Markers found by the walk are attached elements.
		_, _ = p.tree.Unwrap(m)
	}
	if len(markers) > 0 {
		p.tree.Normalize(p.root)
	}
	delete(p.byID, highlightID)
	return len(markers)
}

// Rename moves the markers of oldID to newID. It returns the number of markers changed.
func (p *Painter) Rename(oldID, newID string) int {
	markers := MarkersFor(p.tree, p.root, oldID)
	for _, m := range markers {
		_ = p.tree.SetAttr(m, AttrHighlightID, newID)
	}
	if h, ok := p.byID[oldID]; ok {
		delete(p.byID, oldID)
		h.ID = newID
		p.byID[newID] = h
	}
	return len(markers)
}

// Recolor repaints the markers of highlightID with a new palette color.
func (p *Painter) Recolor(highlightID string, color domain.Color) int {
	color = domain.ResolveColor(string(color))
	markers := MarkersFor(p.tree, p.root, highlightID)
	for _, m := range markers {
		setMarkerColor(p.tree, m, color)
	}
	if h, ok := p.byID[highlightID]; ok {
		h.Color = color
		p.byID[highlightID] = h
	}
	return len(markers)
}

// ResolveClick maps a clicked node to the highlight whose marker contains it.
func (p *Painter) ResolveClick(node content.NodeID) (domain.Highlight, bool) {
	m := MarkerAt(p.tree, node)
	if m == content.None || !p.tree.Contains(p.root, m) {
		return domain.Highlight{}, false
	}
	h, ok := p.byID[MarkerID(p.tree, m)]
	return h, ok
}

// Click resolves a click on node and invokes the click handler.
// It reports whether a highlight was hit.
func (p *Painter) Click(node content.NodeID) bool {
	h, ok := p.ResolveClick(node)
	if !ok {
		return false
	}
	if p.onClick != nil {
		p.onClick(h)
	}
	return true
}

// clear unwraps every marker under the root.
func (p *Painter) clear() {
	markers := Markers(p.tree, p.root)
	for _, m := range markers {
		_, _ = p.tree.Unwrap(m)
	}
	p.tree.Normalize(p.root)
}

// paint wraps the projection range [start, end) and returns the number of markers created.
func (p *Painter) paint(id string, color domain.Color, start, end int) (int, error) {
	m := p.tree.BuildTextNodeMap(p.root)
	first, startLocal, ok := m.LocateStart(start)
	if !ok {
		return 0, fmt.Errorf("%w: start %d", ErrInvalidRange, start)
	}
	last, endLocal, ok := m.LocateEnd(end)
	if !ok || end <= start {
		return 0, fmt.Errorf("%w: end %d", ErrInvalidRange, end)
	}

	attrs := markerAttrs(id, color)

	if first.Node == last.Node {
		node := first.Node
		if endLocal < first.Len() {
			if _, err := p.tree.SplitText(node, endLocal); err != nil {
				return 0, fmt.Errorf("%w: %w", ErrInvalidRange, err)
			}
		}
		if startLocal > 0 {
			right, err := p.tree.SplitText(node, startLocal)
			if err != nil {
				return 0, fmt.Errorf("%w: %w", ErrInvalidRange, err)
			}
			node = right
		}
		if !wrappable(p.tree, node) || MarkerAt(p.tree, node) != content.None {
			return 0, nil
		}
		if _, err := p.tree.Wrap(node, MarkerTag, attrs...); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		return 1, nil
	}

	// Split both boundary nodes before wrapping anything.
	startNode, endNode := first.Node, last.Node
	if endLocal < last.Len() {
		if _, err := p.tree.SplitText(endNode, endLocal); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
	}
	if startLocal > 0 {
		right, err := p.tree.SplitText(startNode, startLocal)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		startNode = right
	}

	nodes := p.tree.TextNodes(p.root)
	from := slices.Index(nodes, startNode)
	to := slices.Index(nodes, endNode)
	if from < 0 || to < from {
		return 0, ErrInvalidRange
	}

	wrapped := 0
	for _, node := range nodes[from : to+1] {
		if !wrappable(p.tree, node) || MarkerAt(p.tree, node) != content.None {
			continue
		}
		if _, err := p.tree.Wrap(node, MarkerTag, attrs...); err != nil {
			return wrapped, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		wrapped++
	}
	return wrapped, nil
}
