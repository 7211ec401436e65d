package api

import (
	"time"

	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/highlight"
)

// Cache-Control header values.
const (
	CacheNoStore = "no-store"
	CachePrivate = "private, max-age=0, must-revalidate"
)

// ArticleResponse contains article data in API responses.
type ArticleResponse struct {
	ID          string    `json:"id" doc:"Article ID"`
	URL         string    `json:"url" doc:"Original page URL"`
	Title       string    `json:"title" doc:"Article title"`
	Author      string    `json:"author,omitempty" doc:"Article author"`
	Content     string    `json:"content,omitempty" doc:"Reader-view HTML, omitted in lists"`
	ContentHash string    `json:"content_hash" doc:"SHA-256 of the content"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

// HighlightResponse contains highlight data in API responses.
type HighlightResponse struct {
	ID            string    `json:"id" doc:"Highlight ID"`
	ArticleID     string    `json:"article_id" doc:"Article ID"`
	Text          string    `json:"text" doc:"Quoted text, immutable"`
	ContextPrefix string    `json:"context_prefix" doc:"Text just before the quote"`
	ContextSuffix string    `json:"context_suffix" doc:"Text just after the quote"`
	Color         string    `json:"color" doc:"Palette color"`
	Note          *string   `json:"note,omitempty" doc:"Inline note"`
	Tags          []string  `json:"tags" doc:"Normalized tags"`
	StartOffset   int       `json:"start_offset" doc:"Last anchored start, in characters of the text projection"`
	EndOffset     int       `json:"end_offset" doc:"Last anchored end, exclusive"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update time"`
}

// NoteResponse contains note data in API responses.
type NoteResponse struct {
	ID          string           `json:"id" doc:"Note ID"`
	ArticleID   string           `json:"article_id" doc:"Article ID"`
	HighlightID *string          `json:"highlight_id,omitempty" doc:"Highlight the note is attached to"`
	Content     string           `json:"content" doc:"Note text"`
	Position    *PositionPayload `json:"position,omitempty" doc:"Placement hint for standalone notes"`
	CreatedAt   time.Time        `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time        `json:"updated_at" doc:"Last update time"`
}

// PositionPayload is a note placement hint.
type PositionPayload struct {
	X    float64 `json:"x" doc:"Horizontal position"`
	Y    float64 `json:"y" doc:"Vertical position"`
	Page *int    `json:"page,omitempty" doc:"Page number"`
}

// AnchorResult describes how one highlight was anchored during a render.
type AnchorResult struct {
	HighlightID   string `json:"highlight_id" doc:"Highlight ID"`
	Status        string `json:"status" enum:"painted,orphaned,failed" doc:"Paint outcome"`
	Confidence    string `json:"confidence,omitempty" doc:"Anchoring rule: position, unique, context or nearest"`
	StartOffset   int    `json:"start_offset" doc:"Anchored start"`
	EndOffset     int    `json:"end_offset" doc:"Anchored end"`
	Markers       int    `json:"markers" doc:"Number of marker elements painted"`
	Moved         bool   `json:"moved" doc:"Whether the anchored range differs from the stored offsets"`
	LowConfidence bool   `json:"low_confidence" doc:"The match may sit on the wrong occurrence"`
}

func toArticleResponse(a *domain.Article, withContent bool) ArticleResponse {
	resp := ArticleResponse{
		ID:          a.ID,
		URL:         a.URL,
		Title:       a.Title,
		Author:      a.Author,
		ContentHash: a.ContentHash,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if withContent {
		resp.Content = a.Content
	}
	return resp
}

func toHighlightResponse(h *domain.Highlight) HighlightResponse {
	tags := h.Tags
	if tags == nil {
		tags = []string{}
	}
	return HighlightResponse{
		ID:            h.ID,
		ArticleID:     h.ArticleID,
		Text:          h.Text,
		ContextPrefix: h.ContextPrefix,
		ContextSuffix: h.ContextSuffix,
		Color:         string(domain.ResolveColor(string(h.Color))),
		Note:          h.Note,
		Tags:          tags,
		StartOffset:   h.StartOffset,
		EndOffset:     h.EndOffset,
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}
}

func toNoteResponse(n *domain.Note) NoteResponse {
	resp := NoteResponse{
		ID:          n.ID,
		ArticleID:   n.ArticleID,
		HighlightID: n.HighlightID,
		Content:     n.Content,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if n.Position != nil {
		resp.Position = &PositionPayload{X: n.Position.X, Y: n.Position.Y, Page: n.Position.Page}
	}
	return resp
}

func toAnchorResults(report highlight.Report) []AnchorResult {
	out := make([]AnchorResult, len(report.Results))
	for i, res := range report.Results {
		out[i] = AnchorResult{
			HighlightID:   res.HighlightID,
			Status:        string(res.Status),
			Confidence:    string(res.Confidence),
			StartOffset:   res.Start,
			EndOffset:     res.End,
			Markers:       res.Markers,
			Moved:         res.Moved,
			LowConfidence: res.Confidence.IsLow(),
		}
	}
	return out
}

func toPosition(p *PositionPayload) *domain.Position {
	if p == nil {
		return nil
	}
	return &domain.Position{X: p.X, Y: p.Y, Page: p.Page}
}

func highlightResponses(hs []domain.Highlight) []HighlightResponse {
	out := make([]HighlightResponse, len(hs))
	for i := range hs {
		out[i] = toHighlightResponse(&hs[i])
	}
	return out
}
