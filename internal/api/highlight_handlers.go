package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readwell/readwell-server/internal/domain"
)

func (s *Server) registerHighlightRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listHighlights",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}/highlights",
		Summary:     "List highlights",
		Description: "Returns an article's highlights ordered by stored start offset",
		Tags:        []string{"Highlights"},
	}, s.handleListHighlights)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createHighlight",
		Method:        http.MethodPost,
		Path:          "/api/v1/articles/{id}/highlights",
		Summary:       "Create highlight",
		Description:   "Creates a highlight from a quote and offsets. The quote must occur in the article",
		Tags:          []string{"Highlights"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateHighlight)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHighlight",
		Method:      http.MethodGet,
		Path:        "/api/v1/highlights/{id}",
		Summary:     "Get highlight",
		Description: "Returns a highlight by ID",
		Tags:        []string{"Highlights"},
	}, s.handleGetHighlight)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateHighlight",
		Method:      http.MethodPatch,
		Path:        "/api/v1/highlights/{id}",
		Summary:     "Update highlight",
		Description: "Changes color, note or tags. The quote and its anchoring never change",
		Tags:        []string{"Highlights"},
	}, s.handleUpdateHighlight)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteHighlight",
		Method:        http.MethodDelete,
		Path:          "/api/v1/highlights/{id}",
		Summary:       "Delete highlight",
		Description:   "Deletes a highlight. Notes attached to it become standalone",
		Tags:          []string{"Highlights"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteHighlight)
}

// === DTOs ===

// CreateHighlightRequest is the request body for creating a highlight.
type CreateHighlightRequest struct {
	Text          string   `json:"text" minLength:"1" doc:"Exact quoted text"`
	ContextPrefix string   `json:"context_prefix,omitempty" doc:"Text just before the quote"`
	ContextSuffix string   `json:"context_suffix,omitempty" doc:"Text just after the quote"`
	StartOffset   int      `json:"start_offset" minimum:"0" doc:"Start in characters of the text projection"`
	EndOffset     int      `json:"end_offset" minimum:"1" doc:"End, exclusive"`
	Color         string   `json:"color,omitempty" enum:"yellow,green,blue,pink,purple,orange,red,gray" doc:"Palette color, yellow by default"`
	Note          *string  `json:"note,omitempty" doc:"Inline note"`
	Tags          []string `json:"tags,omitempty" maxItems:"10" doc:"Tags, normalized to slugs"`
}

// CreateHighlightInput wraps the create highlight request for Huma.
type CreateHighlightInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Body CreateHighlightRequest
}

// HighlightOutput wraps the highlight response for Huma.
type HighlightOutput struct {
	Body HighlightResponse
}

// ListHighlightsResponse contains an article's highlights.
type ListHighlightsResponse struct {
	Highlights []HighlightResponse `json:"highlights" doc:"Highlights by stored start offset"`
}

// ListHighlightsOutput wraps the list highlights response for Huma.
type ListHighlightsOutput struct {
	Body ListHighlightsResponse
}

// HighlightIDInput identifies a highlight.
type HighlightIDInput struct {
	ID string `path:"id" doc:"Highlight ID"`
}

// UpdateHighlightRequest is the request body for updating a highlight.
type UpdateHighlightRequest struct {
	Color     *string   `json:"color,omitempty" enum:"yellow,green,blue,pink,purple,orange,red,gray" doc:"Palette color"`
	Note      *string   `json:"note,omitempty" doc:"Inline note"`
	ClearNote bool      `json:"clear_note,omitempty" doc:"Remove the inline note"`
	Tags      *[]string `json:"tags,omitempty" maxItems:"10" doc:"Replacement tags"`
}

// UpdateHighlightInput wraps the update highlight request for Huma.
type UpdateHighlightInput struct {
	ID   string `path:"id" doc:"Highlight ID"`
	Body UpdateHighlightRequest
}

// === Handlers ===

func (s *Server) handleListHighlights(ctx context.Context, input *ArticleIDInput) (*ListHighlightsOutput, error) {
	hs, err := s.services.Highlight.ListHighlightsForArticle(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ListHighlightsOutput{Body: ListHighlightsResponse{Highlights: highlightResponses(hs)}}, nil
}

func (s *Server) handleCreateHighlight(ctx context.Context, input *CreateHighlightInput) (*HighlightOutput, error) {
	b := input.Body
	h, err := s.services.Highlight.CreateHighlight(ctx, domain.HighlightDraft{
		ArticleID:     input.ID,
		Text:          b.Text,
		ContextPrefix: b.ContextPrefix,
		ContextSuffix: b.ContextSuffix,
		Color:         domain.Color(b.Color),
		Note:          b.Note,
		Tags:          b.Tags,
		StartOffset:   b.StartOffset,
		EndOffset:     b.EndOffset,
	})
	if err != nil {
		return nil, err
	}
	return &HighlightOutput{Body: toHighlightResponse(h)}, nil
}

func (s *Server) handleGetHighlight(ctx context.Context, input *HighlightIDInput) (*HighlightOutput, error) {
	h, err := s.services.Highlight.GetHighlight(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &HighlightOutput{Body: toHighlightResponse(h)}, nil
}

func (s *Server) handleUpdateHighlight(ctx context.Context, input *UpdateHighlightInput) (*HighlightOutput, error) {
	patch := domain.HighlightPatch{
		Note:      input.Body.Note,
		Tags:      input.Body.Tags,
		ClearNote: input.Body.ClearNote,
	}
	if input.Body.Color != nil {
		c := domain.Color(*input.Body.Color)
		patch.Color = &c
	}

	h, err := s.services.Highlight.UpdateHighlight(ctx, input.ID, patch)
	if err != nil {
		return nil, err
	}
	return &HighlightOutput{Body: toHighlightResponse(h)}, nil
}

func (s *Server) handleDeleteHighlight(ctx context.Context, input *HighlightIDInput) (*struct{}, error) {
	if err := s.services.Highlight.DeleteHighlight(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
