package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/metrics"
	"github.com/readwell/readwell-server/internal/sse"
	"github.com/readwell/readwell-server/internal/store/sqlite"
)

const testArticleHTML = `<h1>On Reading</h1><p>The quick brown fox jumps over the lazy dog.</p><p>A second paragraph about the brown fox.</p>`

// recordingEmitter collects emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (e *recordingEmitter) Emit(ev sse.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEmitter) types() []sse.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]sse.EventType, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Type
	}
	return out
}

// recordingCache is an in-memory RenderCache that remembers invalidations.
type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]RenderedArticle
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]RenderedArticle)}
}

func (c *recordingCache) Get(_ context.Context, articleID, fp string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[articleID+":"+fp]
	if !ok {
		return false, nil
	}
	*dest.(*RenderedArticle) = v
	return true, nil
}

func (c *recordingCache) Set(_ context.Context, articleID, fp string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[articleID+":"+fp] = *value.(*RenderedArticle)
	return nil
}

func (c *recordingCache) InvalidateArticle(articleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, articleID)
	return nil
}

type testEnv struct {
	store      *sqlite.Store
	events     *recordingEmitter
	cache      *recordingCache
	metrics    *metrics.Metrics
	articles   *ArticleService
	highlights *HighlightService
	notes      *NoteService
	render     *RenderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "readwell.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	env := &testEnv{
		store:   st,
		events:  &recordingEmitter{},
		cache:   newRecordingCache(),
		metrics: metrics.New(),
	}
	env.articles = NewArticleService(st, env.events, env.cache, logger)
	env.highlights = NewHighlightService(st, env.events, env.cache, env.metrics, 30, logger)
	env.notes = NewNoteService(st, env.events, env.cache, logger)
	env.render = NewRenderService(st, env.highlights, env.cache, env.events, env.metrics, RenderOptions{
		ContextLength: 30,
		SelfHeal:      true,
	}, logger)
	return env
}

func (env *testEnv) createArticle(t *testing.T, url, html string) *domain.Article {
	t.Helper()
	a, err := env.articles.CreateArticle(context.Background(), CreateArticleRequest{
		URL:     url,
		Title:   "On Reading",
		Content: html,
	})
	require.NoError(t, err)
	return a
}

func (env *testEnv) createHighlight(t *testing.T, articleID, text string, start, end int) *domain.Highlight {
	t.Helper()
	h, err := env.highlights.CreateHighlight(context.Background(), domain.HighlightDraft{
		ArticleID:   articleID,
		Text:        text,
		StartOffset: start,
		EndOffset:   end,
	})
	require.NoError(t, err)
	return h
}
