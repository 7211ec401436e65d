package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readwell/readwell-server/internal/domain"
	domainerrors "github.com/readwell/readwell-server/internal/errors"
	"github.com/readwell/readwell-server/internal/sse"
)

func TestNoteService_CreateNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createArticle(t, "https://example.com/a", testArticleHTML)
	h := env.createHighlight(t, a.ID, "lazy dog", 45, 53)

	attached, err := env.notes.CreateNote(ctx, a.ID, CreateNoteRequest{HighlightID: &h.ID, Content: "why a dog?"})
	require.NoError(t, err)
	assert.Contains(t, attached.ID, "note-")
	assert.False(t, attached.IsStandalone())

	page := 2
	standalone, err := env.notes.CreateNote(ctx, a.ID, CreateNoteRequest{
		Content:  "overall: short and sweet",
		Position: &domain.Position{X: 0.25, Y: 0.5, Page: &page},
	})
	require.NoError(t, err)
	assert.True(t, standalone.IsStandalone())

	notes, err := env.notes.ListNotesByArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	byHighlight, err := env.notes.ListNotesByHighlight(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, byHighlight, 1)
	assert.Equal(t, attached.ID, byHighlight[0].ID)

	got, err := env.notes.GetNote(ctx, standalone.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Position)
	require.NotNil(t, got.Position.Page)
	assert.Equal(t, 2, *got.Position.Page)
	assert.InDelta(t, 0.25, got.Position.X, 1e-9)
}

func TestNoteService_CreateNote_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createArticle(t, "https://example.com/a", testArticleHTML)
	other := env.createArticle(t, "https://example.com/b", "<p>Another lazy dog.</p>")
	foreign := env.createHighlight(t, other.ID, "lazy dog", 8, 16)

	_, err := env.notes.CreateNote(ctx, a.ID, CreateNoteRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.notes.CreateNote(ctx, "art-missing", CreateNoteRequest{Content: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	missing := "hl-missing"
	_, err = env.notes.CreateNote(ctx, a.ID, CreateNoteRequest{HighlightID: &missing, Content: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.notes.CreateNote(ctx, a.ID, CreateNoteRequest{HighlightID: &foreign.ID, Content: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestNoteService_UpdateAndDeleteNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.createArticle(t, "https://example.com/a", testArticleHTML)

	n, err := env.notes.CreateNote(ctx, a.ID, CreateNoteRequest{Content: "draft"})
	require.NoError(t, err)

	content := "final"
	updated, err := env.notes.UpdateNote(ctx, n.ID, UpdateNoteRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)

	empty := ""
	_, err = env.notes.UpdateNote(ctx, n.ID, UpdateNoteRequest{Content: &empty})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	require.NoError(t, env.notes.DeleteNote(ctx, n.ID))
	_, err = env.notes.GetNote(ctx, n.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	assert.Equal(t,
		[]sse.EventType{sse.EventNoteCreated, sse.EventNoteUpdated, sse.EventNoteDeleted},
		env.events.types(),
	)
}
