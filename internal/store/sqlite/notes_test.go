package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/store"
)

func makeTestNote(id, articleID string, highlightID *string) *domain.Note {
	return &domain.Note{
		Record:      domain.Record{ID: id, CreatedAt: testTime(2), UpdatedAt: testTime(2)},
		ArticleID:   articleID,
		HighlightID: highlightID,
		Content:     "worth rereading",
	}
}

func mustCreateNote(t *testing.T, s *Store, n *domain.Note) {
	t.Helper()
	if err := s.CreateNote(context.Background(), n); err != nil {
		t.Fatalf("CreateNote(%s): %v", n.ID, err)
	}
}

func TestCreateAndGetNote_WithPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))

	page := 3
	n := makeTestNote("note-1", "art-1", nil)
	n.Position = &domain.Position{X: 0.25, Y: 0.5, Page: &page}
	mustCreateNote(t, s, n)

	got, err := s.GetNote(ctx, "note-1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Content != "worth rereading" || !got.IsStandalone() {
		t.Errorf("unexpected note: %+v", got)
	}
	if got.Position == nil || got.Position.X != 0.25 || got.Position.Y != 0.5 {
		t.Fatalf("position: %+v", got.Position)
	}
	if got.Position.Page == nil || *got.Position.Page != 3 {
		t.Errorf("page: %v", got.Position.Page)
	}
}

func TestCreateNote_MissingHighlight(t *testing.T) {
	s := newTestStore(t)
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))

	hid := "hl-none"
	err := s.CreateNote(context.Background(), makeTestNote("note-1", "art-1", &hid))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))
	mustCreateHighlight(t, s, makeTestHighlight("hl-1", "art-1", 4, 9, "quick"))

	n := makeTestNote("note-1", "art-1", nil)
	mustCreateNote(t, s, n)

	hid := "hl-1"
	n.HighlightID = &hid
	n.Content = "attached now"
	n.UpdatedAt = testTime(40)
	if err := s.UpdateNote(ctx, n); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}

	attached, err := s.ListNotesByHighlight(ctx, "hl-1")
	if err != nil {
		t.Fatalf("ListNotesByHighlight: %v", err)
	}
	if len(attached) != 1 || attached[0].Content != "attached now" {
		t.Errorf("unexpected notes: %+v", attached)
	}

	n.ID = "note-missing"
	if err := s.UpdateNote(ctx, n); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndDeleteNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))

	first := makeTestNote("note-a", "art-1", nil)
	second := makeTestNote("note-b", "art-1", nil)
	second.CreatedAt = testTime(5)
	mustCreateNote(t, s, second)
	mustCreateNote(t, s, first)

	notes, err := s.ListNotesByArticle(ctx, "art-1")
	if err != nil {
		t.Fatalf("ListNotesByArticle: %v", err)
	}
	if len(notes) != 2 || notes[0].ID != "note-a" || notes[1].ID != "note-b" {
		t.Fatalf("expected oldest first, got %+v", notes)
	}

	if err := s.DeleteNote(ctx, "note-a"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if err := s.DeleteNote(ctx, "note-a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	notes, err = s.ListNotesByArticle(ctx, "art-1")
	if err != nil {
		t.Fatalf("ListNotesByArticle: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("expected 1 note left, got %d", len(notes))
	}
}
