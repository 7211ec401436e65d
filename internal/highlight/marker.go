package highlight

import (
	"fmt"
	"strings"

	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
)

// Marker element shape.
const (
	MarkerTag          = "mark"
	AttrHighlightID    = "data-highlight-id"
	AttrHighlightColor = "data-highlight-color"
	markerClass        = "highlight"
)

func markerAttrs(id string, color domain.Color) []content.Attr {
	sw := color.Swatch()
	return []content.Attr{
		{Key: "class", Val: markerClass + " " + markerClass + "-" + string(color)},
		{Key: AttrHighlightID, Val: id},
		{Key: AttrHighlightColor, Val: string(color)},
		{Key: "style", Val: fmt.Sprintf("background-color: %s; color: %s;", sw.Background, sw.Foreground)},
	}
}

// IsMarker reports whether id is a highlight marker element.
func IsMarker(t *content.Tree, id content.NodeID) bool {
	if !t.IsElement(id, MarkerTag) {
		return false
	}
	_, ok := t.Attr(id, AttrHighlightID)
	return ok
}

// MarkerAt returns the marker enclosing node, or content.None.
func MarkerAt(t *content.Tree, node content.NodeID) content.NodeID {
	return t.Closest(node, func(id content.NodeID, _ *content.Node) bool {
		return IsMarker(t, id)
	})
}

// MarkerID returns the highlight ID carried by a marker.
func MarkerID(t *content.Tree, marker content.NodeID) string {
	v, _ := t.Attr(marker, AttrHighlightID)
	return v
}

// Markers returns every marker under root in document order.
func Markers(t *content.Tree, root content.NodeID) []content.NodeID {
	var out []content.NodeID
	t.Walk(root, func(id content.NodeID, _ *content.Node) bool {
		if IsMarker(t, id) {
			out = append(out, id)
		}
		return true
	})
	return out
}

// MarkersFor returns the markers under root that carry highlightID.
func MarkersFor(t *content.Tree, root content.NodeID, highlightID string) []content.NodeID {
	var out []content.NodeID
	for _, m := range Markers(t, root) {
		if MarkerID(t, m) == highlightID {
			out = append(out, m)
		}
	}
	return out
}

// MarkedText concatenates the text of every marker for highlightID in document order.
func MarkedText(t *content.Tree, root content.NodeID, highlightID string) string {
	var b strings.Builder
	for _, m := range MarkersFor(t, root, highlightID) {
		b.WriteString(t.TextContent(m))
	}
	return b.String()
}

// tableStructure lists parents whose text children the HTML parser foster-parents
// out of the table when they hold anything but whitespace.
var tableStructure = map[string]bool{
	"table": true, "tbody": true, "thead": true, "tfoot": true, "tr": true, "colgroup": true,
}

// wrappable reports whether a marker may wrap the text node. Whitespace between
// table rows or cells cannot carry an inline element and survive a reparse.
func wrappable(t *content.Tree, node content.NodeID) bool {
	if t.TextLen(node) == 0 {
		return false
	}
	parent := t.Node(t.Parent(node))
	if parent == nil || parent.Type != content.ElementNode || !tableStructure[parent.Tag] {
		return true
	}
	return strings.TrimSpace(t.TextContent(node)) != ""
}

func setMarkerColor(t *content.Tree, marker content.NodeID, color domain.Color) {
	for _, a := range markerAttrs(MarkerID(t, marker), color) {
		// Marker IDs are elements, SetAttr cannot fail.
		_ = t.SetAttr(marker, a.Key, a.Val)
	}
}
