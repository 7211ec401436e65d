package domain

// Note is a free-text annotation on an article. With HighlightID set it is
// attached to that highlight; otherwise it is a standalone note on the whole article.
type Note struct {
	Record
	ArticleID   string    `json:"article_id"`
	HighlightID *string   `json:"highlight_id,omitempty"`
	Position    *Position `json:"position,omitempty"`
	Content     string    `json:"content"`
}

// IsStandalone reports whether the note is not attached to a highlight.
func (n *Note) IsStandalone() bool {
	return n.HighlightID == nil || *n.HighlightID == ""
}

// Position is an optional placement hint for notes that are not anchored to text.
type Position struct {
	Page *int    `json:"page,omitempty"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}
