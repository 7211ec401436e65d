package highlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
)

// Persistence is the remote store of highlights. Calls may fail; the reader
// only assumes the list it re-fetches is eventually consistent.
type Persistence interface {
	CreateHighlight(ctx context.Context, draft domain.HighlightDraft) (*domain.Highlight, error)
	UpdateHighlight(ctx context.Context, id string, patch domain.HighlightPatch) (*domain.Highlight, error)
	DeleteHighlight(ctx context.Context, id string) error
	ListHighlightsForArticle(ctx context.Context, articleID string) ([]domain.Highlight, error)
}

// State is the client-side lifecycle stage of one highlight.
type State string

// Lifecycle: Selecting -> PendingPersist -> Confirmed | Orphaned.
const (
	StateSelecting      State = "selecting"
	StatePendingPersist State = "pending_persist"
	StateConfirmed      State = "confirmed"
	StateOrphaned       State = "orphaned"
)

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	Logger        *slog.Logger
	OnClick       ClickHandler
	ContextLength int
	ReconcileTTL  time.Duration
}

// CreateResult reports what happened to a selection turned into a highlight.
type CreateResult struct {
	Err       error
	Highlight *domain.Highlight
	TempID    string
	Draft     domain.HighlightDraft
	// Swapped is set when the optimistic marker now carries the durable ID.
	Swapped bool
}

// ErrInvalidDraft is returned when a captured draft breaks a highlight invariant.
var ErrInvalidDraft = errors.New("highlight: invalid draft")

// ErrNotPersisted is returned for store operations on a temporary ID.
var ErrNotPersisted = errors.New("highlight: not persisted yet")

// DraftOption annotates a draft before it is painted and persisted.
type DraftOption func(*domain.HighlightDraft)

// WithNote attaches a note to the new highlight.
func WithNote(note *string) DraftOption {
	return func(d *domain.HighlightDraft) { d.Note = note }
}

// WithTags attaches tags to the new highlight.
func WithTags(tags []string) DraftOption {
	return func(d *domain.HighlightDraft) { d.Tags = tags }
}

// Reader is one open article: its content tree, its highlights and their
// markers. It is not safe for concurrent use.
type Reader struct {
	tree       *content.Tree
	store      Persistence
	painter    *Painter
	reconciler *Reconciler
	logger     *slog.Logger
	states     map[string]State
	articleID  string
	highlights []domain.Highlight
	contextLen int
	root       content.NodeID
}

// NewReader opens an article tree for highlighting.
func NewReader(articleID string, t *content.Tree, root content.NodeID, store Persistence, opts ReaderOptions) *Reader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		tree:       t,
		root:       root,
		store:      store,
		articleID:  articleID,
		painter:    NewPainter(t, root, opts.OnClick),
		reconciler: NewReconciler(opts.ReconcileTTL),
		logger:     logger.With("article_id", articleID),
		states:     make(map[string]State),
		contextLen: opts.ContextLength,
	}
}

// Load fetches the article's highlights and paints them.
func (r *Reader) Load(ctx context.Context) (Report, error) {
	hs, err := r.store.ListHighlightsForArticle(ctx, r.articleID)
	if err != nil {
		return Report{}, fmt.Errorf("list highlights: %w", err)
	}
	r.highlights = hs
	return r.Repaint(), nil
}

// Repaint paints the known highlights from scratch. Optimistic markers that
// were never confirmed disappear here; their highlights come back with durable
// IDs once they are part of the list.
func (r *Reader) Repaint() Report {
	report := r.painter.Apply(r.highlights)
	for _, tempID := range r.reconciler.Expire() {
		delete(r.states, tempID)
	}
	for _, p := range r.reconciler.Pending() {
		r.reconciler.Discard(p.TempID)
		delete(r.states, p.TempID)
	}
	for _, res := range report.Results {
		if res.Status == StatusPainted {
			r.states[res.HighlightID] = StateConfirmed
			continue
		}
		r.states[res.HighlightID] = StateOrphaned
		r.logger.Debug("highlight not painted",
			"highlight_id", res.HighlightID,
			"status", res.Status,
			"error", res.Err,
		)
	}
	return report
}

// CreateHighlight paints the selection immediately under a temporary ID,
// persists it, and swaps the marker to the durable ID on confirmation.
//
// It returns false when the selection cannot be captured or painted (nothing
// is persisted then) or when persistence fails. On a persistence failure the
// optimistic marker is left in place; the caller decides whether to Discard it.
func (r *Reader) CreateHighlight(ctx context.Context, sel Selection, color string, opts ...DraftOption) (CreateResult, bool) {
	draft, err := CaptureSelection(r.tree, r.root, sel, color, r.contextLen)
	if err != nil {
		return CreateResult{Err: err}, false
	}
	draft.ArticleID = r.articleID
	for _, opt := range opts {
		opt(&draft)
	}
	if err := draft.Validate(); err != nil {
		return CreateResult{Err: fmt.Errorf("%w: %w", ErrInvalidDraft, err), Draft: draft}, false
	}

	pending := r.reconciler.Track(draft)
	res := CreateResult{TempID: pending.TempID, Draft: draft}

	if _, err := r.painter.PaintRange(pending.TempID, draft.Color, draft.StartOffset, draft.EndOffset); err != nil {
		r.reconciler.Discard(pending.TempID)
		r.painter.Remove(pending.TempID)
		res.Err = err
		return res, false
	}
	r.states[pending.TempID] = StatePendingPersist

	h, err := r.store.CreateHighlight(ctx, draft)
	if err != nil {
		r.logger.Warn("persist highlight failed", "temp_id", pending.TempID, "error", err)
		res.Err = err
		return res, false
	}
	res.Highlight = h
	r.highlights = append(r.highlights, *h)

	tempID, ok := r.reconciler.Confirm(*h)
	if !ok {
		// Left as is; the next repaint reconciles it.
		r.logger.Debug("no pending match for confirmed highlight", "highlight_id", h.ID)
		r.painter.Track(*h)
		return res, true
	}
	r.painter.Rename(tempID, h.ID)
	r.painter.Track(*h)
	delete(r.states, tempID)
	r.states[h.ID] = StateConfirmed
	res.Swapped = true
	return res, true
}

// Discard removes an optimistic marker, typically after a failed persist.
func (r *Reader) Discard(tempID string) bool {
	r.reconciler.Discard(tempID)
	delete(r.states, tempID)
	return r.painter.Remove(tempID) > 0
}

// UpdateHighlight persists a color, note or tag change and repaints the
// marker color. Anchoring is untouched.
func (r *Reader) UpdateHighlight(ctx context.Context, id string, patch domain.HighlightPatch) (*domain.Highlight, error) {
	if IsTempID(id) {
		return nil, fmt.Errorf("update highlight %s: %w", id, ErrNotPersisted)
	}
	h, err := r.store.UpdateHighlight(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update highlight %s: %w", id, err)
	}
	if i := r.indexOf(id); i >= 0 {
		r.highlights[i] = *h
	}
	if patch.Color != nil {
		r.painter.Recolor(id, h.Color)
	}
	r.painter.Track(*h)
	return h, nil
}

// DeleteHighlight deletes a highlight in the store and, once that succeeds,
// removes its markers.
func (r *Reader) DeleteHighlight(ctx context.Context, id string) error {
	if IsTempID(id) {
		return fmt.Errorf("delete highlight %s: %w", id, ErrNotPersisted)
	}
	if err := r.store.DeleteHighlight(ctx, id); err != nil {
		return fmt.Errorf("delete highlight %s: %w", id, err)
	}
	if i := r.indexOf(id); i >= 0 {
		r.highlights = slices.Delete(r.highlights, i, i+1)
	}
	r.painter.Remove(id)
	delete(r.states, id)
	return nil
}

// Click resolves a click on node and notifies the click handler.
func (r *Reader) Click(node content.NodeID) (domain.Highlight, bool) {
	h, ok := r.painter.ResolveClick(node)
	if ok {
		r.painter.Click(node)
	}
	return h, ok
}

// State returns the lifecycle state of a highlight or temporary ID.
func (r *Reader) State(id string) State {
	if s, ok := r.states[id]; ok {
		return s
	}
	return StateSelecting
}

// Highlights returns a copy of the known highlights.
func (r *Reader) Highlights() []domain.Highlight {
	return slices.Clone(r.highlights)
}

// Pending returns the optimistic highlights still waiting for confirmation.
func (r *Reader) Pending() []Pending {
	return r.reconciler.Pending()
}

// HTML serializes the article body with its current markers.
func (r *Reader) HTML() (string, error) {
	return r.tree.InnerHTML(r.root)
}

func (r *Reader) indexOf(id string) int {
	return slices.IndexFunc(r.highlights, func(h domain.Highlight) bool { return h.ID == id })
}
