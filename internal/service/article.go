// Package service holds the application services behind the HTTP API.
package service

import (
	"context"
	"log/slog"

	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/id"
	"github.com/readwell/readwell-server/internal/sse"
	"github.com/readwell/readwell-server/internal/store"
	"github.com/readwell/readwell-server/internal/validation"
)

// CacheInvalidator drops cached renderings of an article.
type CacheInvalidator interface {
	InvalidateArticle(articleID string) error
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateArticle(string) error { return nil }

// CreateArticleRequest is the input for saving an article.
type CreateArticleRequest struct {
	URL     string `json:"url" validate:"required,url,max=2048"`
	Title   string `json:"title" validate:"max=500"`
	Author  string `json:"author" validate:"max=200"`
	Content string `json:"content" validate:"required"`
}

// UpdateArticleRequest is a partial article update. Replacing Content keeps
// every highlight; they are re-anchored on the next render.
type UpdateArticleRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Author  *string `json:"author,omitempty" validate:"omitempty,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,min=1"`
}

// ArticleService manages saved articles.
type ArticleService struct {
	store     store.Store
	events    sse.Emitter
	cache     CacheInvalidator
	validator *validation.Validator
	logger    *slog.Logger
}

// NewArticleService creates a new article service. cache may be nil.
func NewArticleService(st store.Store, events sse.Emitter, cache CacheInvalidator, logger *slog.Logger) *ArticleService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &ArticleService{
		store:     st,
		events:    events,
		cache:     cache,
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateArticle saves a new article.
func (s *ArticleService) CreateArticle(ctx context.Context, req CreateArticleRequest) (*domain.Article, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	articleID, err := id.Generate(id.PrefixArticle)
	if err != nil {
		return nil, err
	}

	a := &domain.Article{
		Record: domain.Record{ID: articleID},
		URL:    req.URL,
		Title:  req.Title,
		Author: req.Author,
	}
	a.SetContent(req.Content)
	a.InitTimestamps()

	if err := s.store.CreateArticle(ctx, a); err != nil {
		return nil, storeError(err, "article")
	}

	s.logger.Info("article saved", "article_id", a.ID, "url", a.URL)
	return a, nil
}

// GetArticle returns an article by ID.
func (s *ArticleService) GetArticle(ctx context.Context, articleID string) (*domain.Article, error) {
	a, err := s.store.GetArticle(ctx, articleID)
	return a, storeError(err, "article")
}

// ListArticles returns a page of articles, newest first.
func (s *ArticleService) ListArticles(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Article], error) {
	res, err := s.store.ListArticles(ctx, params)
	return res, storeError(err, "article")
}

// UpdateArticle applies a partial update.
func (s *ArticleService) UpdateArticle(ctx context.Context, articleID string, req UpdateArticleRequest) (*domain.Article, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	a, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return nil, storeError(err, "article")
	}

	changed := false
	if req.Title != nil && *req.Title != a.Title {
		a.Title = *req.Title
		changed = true
	}
	if req.Author != nil && *req.Author != a.Author {
		a.Author = *req.Author
		changed = true
	}
	contentChanged := req.Content != nil && a.SetContent(*req.Content)
	if !changed && !contentChanged {
		return a, nil
	}
	a.Touch()

	if err := s.store.UpdateArticle(ctx, a); err != nil {
		return nil, storeError(err, "article")
	}

	if contentChanged {
		if err := s.cache.InvalidateArticle(a.ID); err != nil {
			s.logger.Warn("render cache invalidation failed", "article_id", a.ID, "error", err)
		}
	}
	s.events.Emit(sse.NewArticleUpdatedEvent(a))

	s.logger.Info("article updated", "article_id", a.ID, "content_changed", contentChanged)
	return a, nil
}

// DeleteArticle removes an article with its highlights and notes.
func (s *ArticleService) DeleteArticle(ctx context.Context, articleID string) error {
	highlights, err := s.store.CountHighlightsByArticle(ctx, articleID)
	if err != nil {
		return storeError(err, "highlight")
	}
	if err := s.store.DeleteArticle(ctx, articleID); err != nil {
		return storeError(err, "article")
	}
	if err := s.cache.InvalidateArticle(articleID); err != nil {
		s.logger.Warn("render cache invalidation failed", "article_id", articleID, "error", err)
	}
	s.events.Emit(sse.NewArticleDeletedEvent(articleID))

	s.logger.Info("article deleted", "article_id", articleID, "highlights_removed", highlights)
	return nil
}
