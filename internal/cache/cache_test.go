package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	HTML  string `json:"html"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T, ttl time.Duration) *RenderCache {
	t.Helper()
	c, err := OpenInMemory(ttl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRenderCache_SetGet(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "art-1", "fp-a", page{HTML: "<mark>x</mark>", Count: 1}))

	var got page
	ok, err := c.Get(ctx, "art-1", "fp-a", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, page{HTML: "<mark>x</mark>", Count: 1}, got)
}

func TestRenderCache_Miss(t *testing.T) {
	c := newTestCache(t, time.Minute)

	var got page
	ok, err := c.Get(context.Background(), "art-1", "unknown", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRenderCache_InvalidateArticle(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "art-1", "fp-a", page{HTML: "a"}))
	require.NoError(t, c.Set(ctx, "art-1", "fp-b", page{HTML: "b"}))
	require.NoError(t, c.Set(ctx, "art-10", "fp-a", page{HTML: "other"}))

	require.NoError(t, c.InvalidateArticle("art-1"))

	var got page
	ok, err := c.Get(ctx, "art-1", "fp-a", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	// art-10 shares the "art-1" string prefix but not the key prefix.
	ok, err = c.Get(ctx, "art-10", "fp-a", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "other", got.HTML)

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRenderCache_CanceledContext(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Set(ctx, "art-1", "fp", page{}), context.Canceled)
	_, err := c.Get(ctx, "art-1", "fp", &page{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderCache_CloseTwice(t *testing.T) {
	c, err := OpenInMemory(time.Minute, nil)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestRenderCache_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(dir, time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "art-1", "fp", page{HTML: "persisted"}))
	require.NoError(t, c.Close())

	c, err = Open(dir, time.Hour, nil)
	require.NoError(t, err)
	defer c.Close()

	var got page
	ok, err := c.Get(ctx, "art-1", "fp", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", got.HTML)
}
