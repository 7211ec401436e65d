package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns every highlight tag with the number of highlights carrying it",
		Tags:        []string{"Tags"},
	}, s.handleListTags)
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	Tag   string `json:"tag" doc:"Tag slug"`
	Count int    `json:"count" doc:"Highlights with this tag"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"Tags by usage, most used first"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.services.Highlight.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = TagResponse{Tag: t.Tag, Count: t.Count}
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}
