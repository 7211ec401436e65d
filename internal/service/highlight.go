package service

import (
	"context"
	"log/slog"

	"github.com/readwell/readwell-server/internal/anchor"
	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
	domainerrors "github.com/readwell/readwell-server/internal/errors"
	"github.com/readwell/readwell-server/internal/highlight"
	"github.com/readwell/readwell-server/internal/id"
	"github.com/readwell/readwell-server/internal/metrics"
	"github.com/readwell/readwell-server/internal/sse"
	"github.com/readwell/readwell-server/internal/store"
	"github.com/readwell/readwell-server/internal/util"
	"github.com/readwell/readwell-server/internal/validation"
)

// CreateHighlightRequest is the validated form of a highlight draft.
type CreateHighlightRequest struct {
	Note          *string  `json:"note,omitempty" validate:"omitempty,max=10000"`
	Text          string   `json:"text" validate:"required,max=10000"`
	ContextPrefix string   `json:"context_prefix" validate:"max=200"`
	ContextSuffix string   `json:"context_suffix" validate:"max=200"`
	Color         string   `json:"color" validate:"palette"`
	Tags          []string `json:"tags" validate:"max=10,dive,max=50"`
	StartOffset   int      `json:"start_offset" validate:"gte=0"`
	EndOffset     int      `json:"end_offset" validate:"gtfield=StartOffset"`
}

// UpdateHighlightRequest is a presentation-only update.
type UpdateHighlightRequest struct {
	Color     *string   `json:"color,omitempty" validate:"omitempty,palette"`
	Note      *string   `json:"note,omitempty" validate:"omitempty,max=10000"`
	Tags      *[]string `json:"tags,omitempty" validate:"omitempty,max=10,dive,max=50"`
	ClearNote bool      `json:"clear_note,omitempty"`
}

// HighlightService persists highlights. It is the persistence collaborator
// of highlight.Reader.
type HighlightService struct {
	store         store.Store
	events        sse.Emitter
	cache         CacheInvalidator
	metrics       *metrics.Metrics
	validator     *validation.Validator
	logger        *slog.Logger
	contextLength int
}

var _ highlight.Persistence = (*HighlightService)(nil)

// NewHighlightService creates a new highlight service. cache may be nil.
func NewHighlightService(st store.Store, events sse.Emitter, cache CacheInvalidator, m *metrics.Metrics, contextLength int, logger *slog.Logger) *HighlightService {
	if cache == nil {
		cache = noopInvalidator{}
	}
	if contextLength <= 0 {
		contextLength = domain.DefaultContextLength
	}
	return &HighlightService{
		store:         st,
		events:        events,
		cache:         cache,
		metrics:       m,
		validator:     validation.New(),
		logger:        logger,
		contextLength: contextLength,
	}
}

// CreateHighlight validates a draft against the article's current text and
// persists it.
//
// The quote must be found in the article. Offsets are replaced by the anchored
// ones when they drifted, and missing context is filled in from the article.
func (s *HighlightService) CreateHighlight(ctx context.Context, draft domain.HighlightDraft) (h *domain.Highlight, err error) {
	defer func() { s.metrics.RecordHighlightOp("create", err) }()

	req := CreateHighlightRequest{
		Text:          draft.Text,
		ContextPrefix: draft.ContextPrefix,
		ContextSuffix: draft.ContextSuffix,
		Color:         string(draft.Color),
		Note:          draft.Note,
		Tags:          draft.Tags,
		StartOffset:   draft.StartOffset,
		EndOffset:     draft.EndOffset,
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	article, err := s.store.GetArticle(ctx, draft.ArticleID)
	if err != nil {
		return nil, storeError(err, "article")
	}

	tree, err := content.ParseHTMLString(article.Content)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "article content cannot be parsed")
	}
	root := tree.Root()

	match, err := anchor.Locate(tree.PlainText(root), draft.Selector())
	if err != nil {
		return nil, domainerrors.Validation("highlight text does not occur in the article").WithCause(err)
	}

	prefix, suffix := draft.ContextPrefix, draft.ContextSuffix
	if prefix == "" && suffix == "" {
		prefix, suffix = highlight.ExtractContext(tree, root, match.Start, match.End, s.contextLength)
	}

	highlightID, err := id.Generate(id.PrefixHighlight)
	if err != nil {
		return nil, err
	}

	h = &domain.Highlight{
		Record:        domain.Record{ID: highlightID},
		ArticleID:     article.ID,
		Text:          draft.Text,
		ContextPrefix: prefix,
		ContextSuffix: suffix,
		Color:         domain.ResolveColor(string(draft.Color)),
		Note:          draft.Note,
		Tags:          normalizeTags(draft.Tags),
		StartOffset:   match.Start,
		EndOffset:     match.End,
	}
	h.InitTimestamps()

	if err := s.store.CreateHighlight(ctx, h); err != nil {
		return nil, storeError(err, "highlight")
	}

	s.invalidate(h.ArticleID)
	s.events.Emit(sse.NewHighlightCreatedEvent(h))

	s.logger.Info("highlight created",
		"highlight_id", h.ID,
		"article_id", h.ArticleID,
		"confidence", match.Confidence,
	)
	return h, nil
}

// GetHighlight returns a highlight by ID.
func (s *HighlightService) GetHighlight(ctx context.Context, highlightID string) (*domain.Highlight, error) {
	h, err := s.store.GetHighlight(ctx, highlightID)
	return h, storeError(err, "highlight")
}

// UpdateHighlight changes color, note or tags. Text and offsets never change.
func (s *HighlightService) UpdateHighlight(ctx context.Context, highlightID string, patch domain.HighlightPatch) (h *domain.Highlight, err error) {
	defer func() { s.metrics.RecordHighlightOp("update", err) }()

	if patch.IsEmpty() {
		return s.GetHighlight(ctx, highlightID)
	}

	req := UpdateHighlightRequest{Note: patch.Note, Tags: patch.Tags, ClearNote: patch.ClearNote}
	if patch.Color != nil {
		c := string(*patch.Color)
		req.Color = &c
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if patch.Tags != nil {
		tags := normalizeTags(*patch.Tags)
		patch.Tags = &tags
	}

	h, err = s.store.GetHighlight(ctx, highlightID)
	if err != nil {
		return nil, storeError(err, "highlight")
	}
	if !h.Apply(patch) {
		return h, nil
	}

	if err := s.store.UpdateHighlight(ctx, h); err != nil {
		return nil, storeError(err, "highlight")
	}

	s.invalidate(h.ArticleID)
	s.events.Emit(sse.NewHighlightUpdatedEvent(h))

	s.logger.Info("highlight updated", "highlight_id", h.ID, "article_id", h.ArticleID)
	return h, nil
}

// DeleteHighlight removes a highlight. Notes attached to it become standalone.
func (s *HighlightService) DeleteHighlight(ctx context.Context, highlightID string) (err error) {
	defer func() { s.metrics.RecordHighlightOp("delete", err) }()

	h, err := s.store.GetHighlight(ctx, highlightID)
	if err != nil {
		return storeError(err, "highlight")
	}
	if err := s.store.DeleteHighlight(ctx, highlightID); err != nil {
		return storeError(err, "highlight")
	}

	s.invalidate(h.ArticleID)
	s.events.Emit(sse.NewHighlightDeletedEvent(h.ArticleID, h.ID))

	s.logger.Info("highlight deleted", "highlight_id", h.ID, "article_id", h.ArticleID)
	return nil
}

// ListHighlightsForArticle returns an article's highlights by stored start offset.
func (s *HighlightService) ListHighlightsForArticle(ctx context.Context, articleID string) ([]domain.Highlight, error) {
	hs, err := s.listHighlights(ctx, articleID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Highlight, len(hs))
	for i, h := range hs {
		out[i] = *h
	}
	return out, nil
}

func (s *HighlightService) listHighlights(ctx context.Context, articleID string) ([]*domain.Highlight, error) {
	if _, err := s.store.GetArticle(ctx, articleID); err != nil {
		return nil, storeError(err, "article")
	}
	hs, err := s.store.ListHighlightsByArticle(ctx, articleID)
	return hs, storeError(err, "highlight")
}

// ListTags returns every highlight tag with its usage count.
func (s *HighlightService) ListTags(ctx context.Context) ([]store.TagCount, error) {
	return s.store.ListTags(ctx)
}

func (s *HighlightService) invalidate(articleID string) {
	if err := s.cache.InvalidateArticle(articleID); err != nil {
		s.logger.Warn("render cache invalidation failed", "article_id", articleID, "error", err)
	}
}

// normalizeTags slugifies tags and never returns nil.
func normalizeTags(tags []string) []string {
	out := util.NormalizeTags(tags)
	if out == nil {
		return []string{}
	}
	return out
}
