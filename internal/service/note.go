package service

import (
	"context"
	"log/slog"

	"github.com/readwell/readwell-server/internal/domain"
	domainerrors "github.com/readwell/readwell-server/internal/errors"
	"github.com/readwell/readwell-server/internal/id"
	"github.com/readwell/readwell-server/internal/sse"
	"github.com/readwell/readwell-server/internal/store"
	"github.com/readwell/readwell-server/internal/validation"
)

// CreateNoteRequest is the input for adding a note to an article.
// With HighlightID set the note is attached to that highlight.
type CreateNoteRequest struct {
	HighlightID *string          `json:"highlight_id,omitempty" validate:"omitempty,min=1"`
	Position    *domain.Position `json:"position,omitempty"`
	Content     string           `json:"content" validate:"required,max=20000"`
}

// UpdateNoteRequest is a partial note update. A note never moves between
// articles or highlights.
type UpdateNoteRequest struct {
	Content  *string          `json:"content,omitempty" validate:"omitempty,min=1,max=20000"`
	Position *domain.Position `json:"position,omitempty"`
}

// NoteService manages article notes.
type NoteService struct {
	store     store.Store
	events    sse.Emitter
	cache     CacheInvalidator
	validator *validation.Validator
	logger    *slog.Logger
}

// NewNoteService creates a new note service. cache may be nil.
func NewNoteService(st store.Store, events sse.Emitter, cache CacheInvalidator, logger *slog.Logger) *NoteService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &NoteService{
		store:     st,
		events:    events,
		cache:     cache,
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateNote adds a note to an article.
func (s *NoteService) CreateNote(ctx context.Context, articleID string, req CreateNoteRequest) (*domain.Note, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetArticle(ctx, articleID); err != nil {
		return nil, storeError(err, "article")
	}
	if req.HighlightID != nil {
		h, err := s.store.GetHighlight(ctx, *req.HighlightID)
		if err != nil {
			return nil, storeError(err, "highlight")
		}
		if h.ArticleID != articleID {
			return nil, domainerrors.Validationf("highlight %s belongs to another article", h.ID)
		}
	}

	noteID, err := id.Generate(id.PrefixNote)
	if err != nil {
		return nil, err
	}

	n := &domain.Note{
		Record:      domain.Record{ID: noteID},
		ArticleID:   articleID,
		HighlightID: req.HighlightID,
		Position:    req.Position,
		Content:     req.Content,
	}
	n.InitTimestamps()

	if err := s.store.CreateNote(ctx, n); err != nil {
		return nil, storeError(err, "note")
	}

	s.invalidate(articleID)
	s.events.Emit(sse.NewNoteCreatedEvent(n))

	s.logger.Info("note created", "note_id", n.ID, "article_id", articleID, "standalone", n.IsStandalone())
	return n, nil
}

// GetNote returns a note by ID.
func (s *NoteService) GetNote(ctx context.Context, noteID string) (*domain.Note, error) {
	n, err := s.store.GetNote(ctx, noteID)
	return n, storeError(err, "note")
}

// UpdateNote changes a note's content or position.
func (s *NoteService) UpdateNote(ctx context.Context, noteID string, req UpdateNoteRequest) (*domain.Note, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	n, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return nil, storeError(err, "note")
	}

	changed := false
	if req.Content != nil && *req.Content != n.Content {
		n.Content = *req.Content
		changed = true
	}
	if req.Position != nil {
		n.Position = req.Position
		changed = true
	}
	if !changed {
		return n, nil
	}
	n.Touch()

	if err := s.store.UpdateNote(ctx, n); err != nil {
		return nil, storeError(err, "note")
	}

	s.invalidate(n.ArticleID)
	s.events.Emit(sse.NewNoteUpdatedEvent(n))
	return n, nil
}

// DeleteNote removes a note.
func (s *NoteService) DeleteNote(ctx context.Context, noteID string) error {
	n, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return storeError(err, "note")
	}
	if err := s.store.DeleteNote(ctx, noteID); err != nil {
		return storeError(err, "note")
	}

	s.invalidate(n.ArticleID)
	s.events.Emit(sse.NewNoteDeletedEvent(n.ArticleID, n.ID))

	s.logger.Info("note deleted", "note_id", n.ID, "article_id", n.ArticleID)
	return nil
}

// ListNotesByArticle returns every note on an article, attached or not.
func (s *NoteService) ListNotesByArticle(ctx context.Context, articleID string) ([]*domain.Note, error) {
	if _, err := s.store.GetArticle(ctx, articleID); err != nil {
		return nil, storeError(err, "article")
	}
	notes, err := s.store.ListNotesByArticle(ctx, articleID)
	return notes, storeError(err, "note")
}

// ListNotesByHighlight returns the notes attached to a highlight.
func (s *NoteService) ListNotesByHighlight(ctx context.Context, highlightID string) ([]*domain.Note, error) {
	if _, err := s.store.GetHighlight(ctx, highlightID); err != nil {
		return nil, storeError(err, "highlight")
	}
	notes, err := s.store.ListNotesByHighlight(ctx, highlightID)
	return notes, storeError(err, "note")
}

func (s *NoteService) invalidate(articleID string) {
	if err := s.cache.InvalidateArticle(articleID); err != nil {
		s.logger.Warn("render cache invalidation failed", "article_id", articleID, "error", err)
	}
}
