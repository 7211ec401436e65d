package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
	domainerrors "github.com/readwell/readwell-server/internal/errors"
	"github.com/readwell/readwell-server/internal/export"
	"github.com/readwell/readwell-server/internal/highlight"
	"github.com/readwell/readwell-server/internal/metrics"
	"github.com/readwell/readwell-server/internal/sse"
	"github.com/readwell/readwell-server/internal/store"
	"github.com/readwell/readwell-server/internal/validation"
)

// RenderCache stores painted articles keyed by article and fingerprint.
type RenderCache interface {
	CacheInvalidator
	Get(ctx context.Context, articleID, fingerprint string, dest any) (bool, error)
	Set(ctx context.Context, articleID, fingerprint string, value any) error
}

// RenderOptions tunes the render service.
type RenderOptions struct {
	ContextLength int
	ReconcileTTL  time.Duration
	// SelfHeal writes re-anchored offsets back to the store.
	SelfHeal bool
}

// RenderedArticle is an article body with its highlights painted in.
type RenderedArticle struct {
	ArticleID   string           `json:"article_id"`
	ContentHash string           `json:"content_hash"`
	HTML        string           `json:"html"`
	Report      highlight.Report `json:"report"`
	// Repaired lists highlights whose stored offsets were rewritten by this render.
	Repaired []string `json:"repaired,omitempty"`
	Cached   bool     `json:"cached"`
}

// SelectionRequest is a browser selection over a rendered article.
// Nodes are ordinals into the visible text nodes of the rendered HTML in
// document order; offsets count runes inside those nodes.
type SelectionRequest struct {
	Tags         []string `json:"tags,omitempty" validate:"max=10,dive,max=50"`
	Note         *string  `json:"note,omitempty" validate:"omitempty,max=10000"`
	Color        string   `json:"color,omitempty" validate:"palette"`
	AnchorNode   int      `json:"anchor_node" validate:"gte=0"`
	AnchorOffset int      `json:"anchor_offset" validate:"gte=0"`
	FocusNode    int      `json:"focus_node" validate:"gte=0"`
	FocusOffset  int      `json:"focus_offset" validate:"gte=0"`
	// Persist saves the captured draft as a highlight. Without it the
	// request only previews the capture.
	Persist bool `json:"persist"`
}

// CaptureResult is the outcome of a selection capture.
type CaptureResult struct {
	Highlight *domain.Highlight     `json:"highlight,omitempty"`
	Draft     domain.HighlightDraft `json:"draft"`
	// HTML is the article body with the new highlight painted, set when persisted.
	HTML string `json:"html,omitempty"`
}

// RenderService paints articles, captures selections and exports annotated articles.
type RenderService struct {
	store      store.Store
	highlights *HighlightService
	cache      RenderCache
	events     sse.Emitter
	metrics    *metrics.Metrics
	validator  *validation.Validator
	logger     *slog.Logger
	opts       RenderOptions
}

// NewRenderService creates a new render service. cache may be nil.
func NewRenderService(
	st store.Store,
	highlights *HighlightService,
	cache RenderCache,
	events sse.Emitter,
	m *metrics.Metrics,
	opts RenderOptions,
	logger *slog.Logger,
) *RenderService {
	if opts.ContextLength <= 0 {
		opts.ContextLength = domain.DefaultContextLength
	}
	return &RenderService{
		store:      st,
		highlights: highlights,
		cache:      cache,
		events:     events,
		metrics:    m,
		validator:  validation.New(),
		logger:     logger,
		opts:       opts,
	}
}

// Render paints every highlight of an article onto its content.
//
// Results are cached under a fingerprint of the content and the highlight
// set, so any mutation of either produces a fresh render.
func (s *RenderService) Render(ctx context.Context, articleID string) (*RenderedArticle, error) {
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return nil, storeError(err, "article")
	}
	hs, err := s.store.ListHighlightsByArticle(ctx, articleID)
	if err != nil {
		return nil, storeError(err, "highlight")
	}

	fp := Fingerprint(article, hs)
	if cached, ok := s.lookup(ctx, articleID, fp); ok {
		return cached, nil
	}

	tree, err := parseArticle(article)
	if err != nil {
		return nil, err
	}
	root := tree.Root()

	start := time.Now()
	_, report := highlight.ApplyHighlightsToDOM(tree, root, values(hs), nil)
	s.recordReport(report, time.Since(start))

	body, err := tree.InnerHTML(root)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "render article")
	}

	out := &RenderedArticle{
		ArticleID:   article.ID,
		ContentHash: article.ContentHash,
		HTML:        body,
		Report:      report,
	}

	if s.opts.SelfHeal {
		out.Repaired = s.heal(ctx, articleID, hs, report)
	}

	// Repaired renders are stale against the store; leave them uncached.
	if len(out.Repaired) == 0 {
		s.save(ctx, articleID, fp, out)
	}
	return out, nil
}

// Capture turns a selection over the rendered article into a highlight draft
// and, when asked, persists it through a reader session so the optimistic
// marker is swapped to the durable ID.
func (s *RenderService) Capture(ctx context.Context, articleID string, req SelectionRequest) (*CaptureResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return nil, storeError(err, "article")
	}
	tree, err := parseArticle(article)
	if err != nil {
		return nil, err
	}
	root := tree.Root()

	reader := highlight.NewReader(articleID, tree, root, s.highlights, highlight.ReaderOptions{
		Logger:        s.logger,
		ContextLength: s.opts.ContextLength,
		ReconcileTTL:  s.opts.ReconcileTTL,
	})
	if _, err := reader.Load(ctx); err != nil {
		return nil, err
	}

	sel, err := selectionOf(tree, root, req)
	if err != nil {
		return nil, domainerrors.Selection(err)
	}

	if !req.Persist {
		draft, err := highlight.CaptureSelection(tree, root, sel, req.Color, s.opts.ContextLength)
		if err != nil {
			return nil, domainerrors.Selection(err)
		}
		draft.ArticleID = articleID
		draft.Note = req.Note
		draft.Tags = normalizeTags(req.Tags)
		return &CaptureResult{Draft: draft}, nil
	}

	res, ok := reader.CreateHighlight(ctx, sel, req.Color,
		highlight.WithNote(req.Note),
		highlight.WithTags(normalizeTags(req.Tags)),
	)
	if !ok {
		if res.TempID != "" {
			reader.Discard(res.TempID)
		}
		return nil, captureError(res)
	}
	h := res.Highlight

	body, err := reader.HTML()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "render article")
	}

	s.logger.Debug("selection captured",
		"article_id", articleID,
		"highlight_id", h.ID,
		"swapped", res.Swapped,
	)
	return &CaptureResult{Highlight: h, Draft: res.Draft, HTML: body}, nil
}

// HighlightAt resolves a click on a text node of the rendered article to the
// highlight painted there.
func (s *RenderService) HighlightAt(ctx context.Context, articleID string, node int) (*domain.Highlight, error) {
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return nil, storeError(err, "article")
	}
	hs, err := s.store.ListHighlightsByArticle(ctx, articleID)
	if err != nil {
		return nil, storeError(err, "highlight")
	}
	tree, err := parseArticle(article)
	if err != nil {
		return nil, err
	}
	root := tree.Root()

	painter, _ := highlight.ApplyHighlightsToDOM(tree, root, values(hs), nil)
	nodes := tree.TextNodes(root)
	if node < 0 || node >= len(nodes) {
		return nil, domainerrors.Validationf("text node %d is outside the article", node)
	}
	h, ok := painter.ResolveClick(nodes[node])
	if !ok {
		return nil, domainerrors.NotFoundf("no highlight at text node %d", node)
	}
	return &h, nil
}

// Export writes an article with its highlights and notes as Markdown.
func (s *RenderService) Export(ctx context.Context, articleID string, w io.Writer) error {
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return storeError(err, "article")
	}
	hs, err := s.store.ListHighlightsByArticle(ctx, articleID)
	if err != nil {
		return storeError(err, "highlight")
	}
	notes, err := s.store.ListNotesByArticle(ctx, articleID)
	if err != nil {
		return storeError(err, "note")
	}
	tree, err := parseArticle(article)
	if err != nil {
		return err
	}
	root := tree.Root()

	_, report := highlight.ApplyHighlightsToDOM(tree, root, values(hs), nil)
	orphaned := make(map[string]bool)
	for _, res := range report.Results {
		if res.Status != highlight.StatusPainted {
			orphaned[res.HighlightID] = true
		}
	}

	return export.Markdown(w, export.Document{
		Article:    article,
		Tree:       tree,
		Root:       root,
		Highlights: hs,
		Notes:      notes,
		Orphaned:   orphaned,
	})
}

// heal rewrites drifted offsets of confidently anchored highlights and
// returns their IDs.
func (s *RenderService) heal(ctx context.Context, articleID string, hs []*domain.Highlight, report highlight.Report) []string {
	var repaired []string
	for i, res := range report.Results {
		if res.Status != highlight.StatusPainted || !res.Moved || res.Confidence.IsLow() {
			continue
		}
		h := hs[i]
		if err := s.store.UpdateHighlightOffsets(ctx, h.ID, res.Start, res.End); err != nil {
			s.logger.Warn("self-heal failed", "highlight_id", h.ID, "error", err)
			continue
		}
		repaired = append(repaired, h.ID)
	}
	if len(repaired) > 0 {
		s.metrics.RepairsTotal.Add(float64(len(repaired)))
		s.events.Emit(sse.NewHighlightsRepairedEvent(articleID, repaired))
		s.logger.Info("highlight offsets repaired", "article_id", articleID, "count", len(repaired))
	}
	return repaired
}

func (s *RenderService) recordReport(report highlight.Report, elapsed time.Duration) {
	for _, res := range report.Results {
		if res.Status == highlight.StatusPainted {
			s.metrics.RecordAnchor(string(res.Confidence))
		}
	}
	s.metrics.RecordRender(elapsed, report.Count(highlight.StatusOrphaned))
}

func (s *RenderService) lookup(ctx context.Context, articleID, fp string) (*RenderedArticle, bool) {
	if s.cache == nil {
		return nil, false
	}
	var out RenderedArticle
	hit, err := s.cache.Get(ctx, articleID, fp, &out)
	if err != nil {
		s.logger.Warn("render cache read failed", "article_id", articleID, "error", err)
		s.metrics.RecordCacheLookup("error")
		return nil, false
	}
	if !hit {
		s.metrics.RecordCacheLookup("miss")
		return nil, false
	}
	s.metrics.RecordCacheLookup("hit")
	out.Cached = true
	out.Repaired = nil
	return &out, true
}

func (s *RenderService) save(ctx context.Context, articleID, fp string, out *RenderedArticle) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, articleID, fp, out); err != nil {
		s.logger.Warn("render cache write failed", "article_id", articleID, "error", err)
	}
}

// Fingerprint identifies the inputs of a render: the article content and
// every anchoring and presentation field of its highlights.
func Fingerprint(article *domain.Article, hs []*domain.Highlight) string {
	sum := sha256.New()
	io.WriteString(sum, article.ContentHash)
	for _, h := range hs {
		for _, field := range []string{
			h.ID, h.Text, h.ContextPrefix, h.ContextSuffix, string(h.Color),
			strconv.Itoa(h.StartOffset), strconv.Itoa(h.EndOffset),
		} {
			sum.Write([]byte{0})
			io.WriteString(sum, field)
		}
	}
	return hex.EncodeToString(sum.Sum(nil))
}

func parseArticle(a *domain.Article) (*content.Tree, error) {
	tree, err := content.ParseHTMLString(a.Content)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "article content cannot be parsed")
	}
	return tree, nil
}

func values(hs []*domain.Highlight) []domain.Highlight {
	out := make([]domain.Highlight, len(hs))
	for i, h := range hs {
		out[i] = *h
	}
	return out
}

func selectionOf(tree *content.Tree, root content.NodeID, req SelectionRequest) (highlight.Selection, error) {
	nodes := tree.TextNodes(root)
	if req.AnchorNode >= len(nodes) || req.FocusNode >= len(nodes) {
		return highlight.Selection{}, highlight.ErrOutsideContent
	}
	return highlight.Selection{
		AnchorNode:   nodes[req.AnchorNode],
		AnchorOffset: req.AnchorOffset,
		FocusNode:    nodes[req.FocusNode],
		FocusOffset:  req.FocusOffset,
	}, nil
}

// captureError classifies a failed Reader.CreateHighlight. Capture and paint
// failures are selection errors; persistence errors pass through.
func captureError(res highlight.CreateResult) error {
	switch {
	case errors.Is(res.Err, highlight.ErrInvalidDraft):
		return domainerrors.Validation(res.Err.Error()).WithCause(res.Err)
	case res.TempID == "":
		return domainerrors.Selection(res.Err)
	case errors.Is(res.Err, highlight.ErrNothingToPaint), errors.Is(res.Err, highlight.ErrInvalidRange):
		return domainerrors.Selection(res.Err)
	default:
		return fmt.Errorf("persist highlight: %w", res.Err)
	}
}
