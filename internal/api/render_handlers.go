package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/readwell/readwell-server/internal/http/response"
	"github.com/readwell/readwell-server/internal/service"
)

func (s *Server) registerRenderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "renderArticle",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}/render",
		Summary:     "Render article",
		Description: "Returns the article HTML with every highlight painted, and how each highlight was anchored",
		Tags:        []string{"Rendering"},
	}, s.handleRenderArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "captureSelection",
		Method:      http.MethodPost,
		Path:        "/api/v1/articles/{id}/selection",
		Summary:     "Capture selection",
		Description: "Turns a selection over the rendered article into a highlight draft, and persists it when asked",
		Tags:        []string{"Rendering"},
	}, s.handleCaptureSelection)

	huma.Register(s.api, huma.Operation{
		OperationID: "highlightAt",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}/highlights/at",
		Summary:     "Resolve click",
		Description: "Returns the highlight painted over a text node of the rendered article",
		Tags:        []string{"Rendering"},
	}, s.handleHighlightAt)
}

// === DTOs ===

// RenderResponse is a painted article.
type RenderResponse struct {
	ArticleID   string         `json:"article_id" doc:"Article ID"`
	ContentHash string         `json:"content_hash" doc:"Hash of the content that was painted"`
	HTML        string         `json:"html" doc:"Article HTML with highlight markers"`
	Highlights  []AnchorResult `json:"highlights" doc:"Anchoring outcome per highlight"`
	Repaired    []string       `json:"repaired,omitempty" doc:"Highlights whose stored offsets were refreshed"`
	Cached      bool           `json:"cached" doc:"Served from the render cache"`
}

// RenderOutput wraps the render response for Huma.
type RenderOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         RenderResponse
}

// SelectionRequest is the request body for capturing a selection.
// Nodes are ordinals of the visible text nodes of the rendered HTML.
type SelectionRequest struct {
	AnchorNode   int      `json:"anchor_node" minimum:"0" doc:"Text node where the selection started"`
	AnchorOffset int      `json:"anchor_offset" minimum:"0" doc:"Character offset in the anchor node"`
	FocusNode    int      `json:"focus_node" minimum:"0" doc:"Text node where the selection ended"`
	FocusOffset  int      `json:"focus_offset" minimum:"0" doc:"Character offset in the focus node"`
	Color        string   `json:"color,omitempty" enum:"yellow,green,blue,pink,purple,orange,red,gray" doc:"Palette color"`
	Note         *string  `json:"note,omitempty" doc:"Inline note"`
	Tags         []string `json:"tags,omitempty" maxItems:"10" doc:"Tags"`
	Persist      bool     `json:"persist,omitempty" doc:"Save the captured highlight"`
}

// SelectionInput wraps the selection request for Huma.
type SelectionInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Body SelectionRequest
}

// DraftResponse is a captured selection before persistence.
type DraftResponse struct {
	Text          string `json:"text" doc:"Selected text"`
	ContextPrefix string `json:"context_prefix" doc:"Text just before the selection"`
	ContextSuffix string `json:"context_suffix" doc:"Text just after the selection"`
	StartOffset   int    `json:"start_offset" doc:"Start in the text projection"`
	EndOffset     int    `json:"end_offset" doc:"End, exclusive"`
	Color         string `json:"color" doc:"Resolved palette color"`
}

// SelectionResponse is the outcome of a selection capture.
type SelectionResponse struct {
	Draft     DraftResponse      `json:"draft" doc:"The captured selection"`
	Highlight *HighlightResponse `json:"highlight,omitempty" doc:"The persisted highlight"`
	HTML      string             `json:"html,omitempty" doc:"Article HTML with the new highlight painted"`
}

// SelectionOutput wraps the selection response for Huma.
type SelectionOutput struct {
	Body SelectionResponse
}

// HighlightAtInput identifies a text node of a rendered article.
type HighlightAtInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Node int    `query:"node" required:"true" minimum:"0" doc:"Ordinal of the clicked text node"`
}

// === Handlers ===

func (s *Server) handleRenderArticle(ctx context.Context, input *ArticleIDInput) (*RenderOutput, error) {
	out, err := s.services.Render.Render(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &RenderOutput{
		CacheControl: CachePrivate,
		Body: RenderResponse{
			ArticleID:   out.ArticleID,
			ContentHash: out.ContentHash,
			HTML:        out.HTML,
			Highlights:  toAnchorResults(out.Report),
			Repaired:    out.Repaired,
			Cached:      out.Cached,
		},
	}, nil
}

func (s *Server) handleCaptureSelection(ctx context.Context, input *SelectionInput) (*SelectionOutput, error) {
	b := input.Body
	res, err := s.services.Render.Capture(ctx, input.ID, service.SelectionRequest{
		AnchorNode:   b.AnchorNode,
		AnchorOffset: b.AnchorOffset,
		FocusNode:    b.FocusNode,
		FocusOffset:  b.FocusOffset,
		Color:        b.Color,
		Note:         b.Note,
		Tags:         b.Tags,
		Persist:      b.Persist,
	})
	if err != nil {
		return nil, err
	}

	resp := SelectionResponse{
		Draft: DraftResponse{
			Text:          res.Draft.Text,
			ContextPrefix: res.Draft.ContextPrefix,
			ContextSuffix: res.Draft.ContextSuffix,
			StartOffset:   res.Draft.StartOffset,
			EndOffset:     res.Draft.EndOffset,
			Color:         string(res.Draft.Color),
		},
		HTML: res.HTML,
	}
	if res.Highlight != nil {
		h := toHighlightResponse(res.Highlight)
		resp.Highlight = &h
	}
	return &SelectionOutput{Body: resp}, nil
}

func (s *Server) handleHighlightAt(ctx context.Context, input *HighlightAtInput) (*HighlightOutput, error) {
	h, err := s.services.Render.HighlightAt(ctx, input.ID, input.Node)
	if err != nil {
		return nil, err
	}
	return &HighlightOutput{Body: toHighlightResponse(h)}, nil
}

// handleExportMarkdown serves GET /api/v1/articles/{id}/export.md.
// The body is rendered fully before writing so errors still get an envelope.
func (s *Server) handleExportMarkdown(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	var buf bytes.Buffer
	if err := s.services.Render.Export(r.Context(), articleID, &buf); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+articleID+`.md"`)
	w.Header().Set("Cache-Control", CacheNoStore)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("export write failed", "article_id", articleID, "error", err)
	}
}
