// Package store defines the persistence interface for the Readwell server.
package store

import (
	"context"

	"github.com/readwell/readwell-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Articles
	CreateArticle(ctx context.Context, article *domain.Article) error
	GetArticle(ctx context.Context, id string) (*domain.Article, error)
	GetArticleByURL(ctx context.Context, url string) (*domain.Article, error)
	UpdateArticle(ctx context.Context, article *domain.Article) error
	DeleteArticle(ctx context.Context, id string) error
	ListArticles(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Article], error)

	// Highlights
	CreateHighlight(ctx context.Context, h *domain.Highlight) error
	GetHighlight(ctx context.Context, id string) (*domain.Highlight, error)
	UpdateHighlight(ctx context.Context, h *domain.Highlight) error
	// UpdateHighlightOffsets rewrites the advisory offsets of a highlight
	// after re-anchoring. Quote text and context are left untouched.
	UpdateHighlightOffsets(ctx context.Context, id string, start, end int) error
	DeleteHighlight(ctx context.Context, id string) error
	ListHighlightsByArticle(ctx context.Context, articleID string) ([]*domain.Highlight, error)
	CountHighlightsByArticle(ctx context.Context, articleID string) (int, error)
	ListTags(ctx context.Context) ([]TagCount, error)

	// Notes
	CreateNote(ctx context.Context, n *domain.Note) error
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	UpdateNote(ctx context.Context, n *domain.Note) error
	DeleteNote(ctx context.Context, id string) error
	ListNotesByArticle(ctx context.Context, articleID string) ([]*domain.Note, error)
	ListNotesByHighlight(ctx context.Context, highlightID string) ([]*domain.Note, error)
}

// TagCount is a highlight tag with the number of highlights carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
