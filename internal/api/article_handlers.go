package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readwell/readwell-server/internal/service"
	"github.com/readwell/readwell-server/internal/store"
)

func (s *Server) registerArticleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createArticle",
		Method:        http.MethodPost,
		Path:          "/api/v1/articles",
		Summary:       "Save article",
		Description:   "Saves a page in its reader-view form",
		Tags:          []string{"Articles"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "listArticles",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles",
		Summary:     "List articles",
		Description: "Returns saved articles, newest first, without their content",
		Tags:        []string{"Articles"},
	}, s.handleListArticles)

	huma.Register(s.api, huma.Operation{
		OperationID: "getArticle",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}",
		Summary:     "Get article",
		Description: "Returns an article with its content",
		Tags:        []string{"Articles"},
	}, s.handleGetArticle)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateArticle",
		Method:      http.MethodPatch,
		Path:        "/api/v1/articles/{id}",
		Summary:     "Update article",
		Description: "Updates title, author or content. Highlights survive content changes and are re-anchored on the next render",
		Tags:        []string{"Articles"},
	}, s.handleUpdateArticle)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteArticle",
		Method:        http.MethodDelete,
		Path:          "/api/v1/articles/{id}",
		Summary:       "Delete article",
		Description:   "Deletes an article with its highlights and notes",
		Tags:          []string{"Articles"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteArticle)
}

// === DTOs ===

// CreateArticleRequest is the request body for saving an article.
type CreateArticleRequest struct {
	URL     string `json:"url" minLength:"1" maxLength:"2048" doc:"Original page URL"`
	Title   string `json:"title,omitempty" maxLength:"500" doc:"Article title"`
	Author  string `json:"author,omitempty" maxLength:"200" doc:"Article author"`
	Content string `json:"content" minLength:"1" doc:"Reader-view HTML"`
}

// CreateArticleInput wraps the create article request for Huma.
type CreateArticleInput struct {
	Body CreateArticleRequest
}

// ArticleOutput wraps the article response for Huma.
type ArticleOutput struct {
	Body ArticleResponse
}

// ListArticlesInput contains parameters for listing articles.
type ListArticlesInput struct {
	Cursor string `query:"cursor" doc:"Pagination cursor from a previous page"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Page size"`
}

// ListArticlesResponse is a page of articles.
type ListArticlesResponse struct {
	Articles   []ArticleResponse `json:"articles" doc:"Articles on this page"`
	NextCursor string            `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool              `json:"has_more" doc:"Whether more articles follow"`
}

// ListArticlesOutput wraps the list articles response for Huma.
type ListArticlesOutput struct {
	Body ListArticlesResponse
}

// ArticleIDInput identifies an article.
type ArticleIDInput struct {
	ID string `path:"id" doc:"Article ID"`
}

// UpdateArticleRequest is the request body for updating an article.
type UpdateArticleRequest struct {
	Title   *string `json:"title,omitempty" maxLength:"500" doc:"Article title"`
	Author  *string `json:"author,omitempty" maxLength:"200" doc:"Article author"`
	Content *string `json:"content,omitempty" minLength:"1" doc:"Replacement reader-view HTML"`
}

// UpdateArticleInput wraps the update article request for Huma.
type UpdateArticleInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Body UpdateArticleRequest
}

// === Handlers ===

func (s *Server) handleCreateArticle(ctx context.Context, input *CreateArticleInput) (*ArticleOutput, error) {
	a, err := s.services.Article.CreateArticle(ctx, service.CreateArticleRequest{
		URL:     input.Body.URL,
		Title:   input.Body.Title,
		Author:  input.Body.Author,
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &ArticleOutput{Body: toArticleResponse(a, true)}, nil
}

func (s *Server) handleListArticles(ctx context.Context, input *ListArticlesInput) (*ListArticlesOutput, error) {
	params := store.PaginationParams{Cursor: input.Cursor, Limit: input.Limit}
	params.Validate()

	page, err := s.services.Article.ListArticles(ctx, params)
	if err != nil {
		return nil, err
	}

	articles := make([]ArticleResponse, len(page.Items))
	for i, a := range page.Items {
		articles[i] = toArticleResponse(a, false)
	}
	return &ListArticlesOutput{Body: ListArticlesResponse{
		Articles:   articles,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}}, nil
}

func (s *Server) handleGetArticle(ctx context.Context, input *ArticleIDInput) (*ArticleOutput, error) {
	a, err := s.services.Article.GetArticle(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ArticleOutput{Body: toArticleResponse(a, true)}, nil
}

func (s *Server) handleUpdateArticle(ctx context.Context, input *UpdateArticleInput) (*ArticleOutput, error) {
	a, err := s.services.Article.UpdateArticle(ctx, input.ID, service.UpdateArticleRequest{
		Title:   input.Body.Title,
		Author:  input.Body.Author,
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &ArticleOutput{Body: toArticleResponse(a, true)}, nil
}

func (s *Server) handleDeleteArticle(ctx context.Context, input *ArticleIDInput) (*struct{}, error) {
	if err := s.services.Article.DeleteArticle(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
