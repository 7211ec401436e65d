package sse

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readwell/readwell-server/internal/domain"
)

func newTestManager(t *testing.T) (*Manager, context.CancelFunc) {
	t.Helper()
	m := NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m, cancel
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.EventChan:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_ArticleFiltering(t *testing.T) {
	m, _ := newTestManager(t)

	all, err := m.Connect("")
	require.NoError(t, err)
	one, err := m.Connect("art-1")
	require.NoError(t, err)
	other, err := m.Connect("art-2")
	require.NoError(t, err)

	h := &domain.Highlight{Record: domain.Record{ID: "hl-1"}, ArticleID: "art-1", Text: "quick"}
	m.Emit(NewHighlightCreatedEvent(h))

	got := receive(t, all)
	assert.Equal(t, EventHighlightCreated, got.Type)
	got = receive(t, one)
	assert.Equal(t, "art-1", got.ArticleID)
	data, ok := got.Data.(HighlightEventData)
	require.True(t, ok)
	assert.Equal(t, "hl-1", data.Highlight.ID)

	assertNoEvent(t, other)
}

func TestManager_ClientGauge(t *testing.T) {
	m, _ := newTestManager(t)

	var counts []int
	m.OnClientsChanged(func(n int) { counts = append(counts, n) })

	c1, err := m.Connect("")
	require.NoError(t, err)
	c2, err := m.Connect("art-1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Disconnect(c1.ID)
	m.Disconnect(c1.ID) // second disconnect is a no-op
	m.Disconnect(c2.ID)

	assert.Equal(t, []int{1, 2, 1, 0}, counts)
	assert.Equal(t, 0, m.ClientCount())
}

func TestManager_ShutdownDrainsAndStopsEmits(t *testing.T) {
	m, _ := newTestManager(t)

	c, err := m.Connect("")
	require.NoError(t, err)

	m.Emit(NewNoteDeletedEvent("art-1", "note-1"))
	require.NoError(t, m.Shutdown(context.Background()))

	// Emit after shutdown must not panic.
	m.Emit(NewNoteDeletedEvent("art-1", "note-2"))

	var types []EventType
	for e := range c.EventChan {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, EventNoteDeleted)
	assert.Equal(t, 0, m.ClientCount())

	// Shutdown is idempotent.
	assert.NoError(t, m.Shutdown(context.Background()))
}
