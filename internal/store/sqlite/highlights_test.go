package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/store"
)

func TestCreateAndGetHighlight(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))

	note := "remember this"
	h := makeTestHighlight("hl-1", "art-1", 10, 15, "brown")
	h.ContextPrefix = "The quick"
	h.ContextSuffix = "fox jumps"
	h.Color = domain.ColorGreen
	h.Note = &note
	h.Tags = []string{"colors", "animals"}
	mustCreateHighlight(t, s, h)

	got, err := s.GetHighlight(ctx, "hl-1")
	if err != nil {
		t.Fatalf("GetHighlight: %v", err)
	}
	if got.Text != "brown" || got.StartOffset != 10 || got.EndOffset != 15 {
		t.Errorf("anchoring fields: %+v", got)
	}
	if got.ContextPrefix != "The quick" || got.ContextSuffix != "fox jumps" {
		t.Errorf("context: %q / %q", got.ContextPrefix, got.ContextSuffix)
	}
	if got.Color != domain.ColorGreen {
		t.Errorf("Color: got %s", got.Color)
	}
	if got.Note == nil || *got.Note != note {
		t.Errorf("Note: got %v", got.Note)
	}
	if fmt.Sprint(got.Tags) != "[colors animals]" {
		t.Errorf("Tags should keep insertion order, got %v", got.Tags)
	}
}

func TestCreateHighlight_MissingArticle(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateHighlight(context.Background(), makeTestHighlight("hl-1", "art-none", 0, 3, "The"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateHighlight_RejectsEmptyRange(t *testing.T) {
	s := newTestStore(t)
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))

	err := s.CreateHighlight(context.Background(), makeTestHighlight("hl-1", "art-1", 5, 5, "x"))
	if err == nil {
		t.Fatal("expected CHECK constraint failure")
	}
}

func TestUpdateHighlight_LeavesAnchoringAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))
	h := makeTestHighlight("hl-1", "art-1", 4, 9, "quick")
	h.Tags = []string{"old"}
	mustCreateHighlight(t, s, h)

	// Mutate anchoring fields in memory; only presentation fields may be written.
	h.Text = "tampered"
	h.StartOffset = 0
	h.Color = domain.ColorBlue
	h.Tags = []string{"new", "fresh"}
	h.UpdatedAt = testTime(30)
	if err := s.UpdateHighlight(ctx, h); err != nil {
		t.Fatalf("UpdateHighlight: %v", err)
	}

	got, err := s.GetHighlight(ctx, "hl-1")
	if err != nil {
		t.Fatalf("GetHighlight: %v", err)
	}
	if got.Text != "quick" || got.StartOffset != 4 {
		t.Errorf("anchoring fields changed: %+v", got)
	}
	if got.Color != domain.ColorBlue {
		t.Errorf("Color: got %s", got.Color)
	}
	if fmt.Sprint(got.Tags) != "[new fresh]" {
		t.Errorf("Tags: got %v", got.Tags)
	}
	if !got.UpdatedAt.Equal(testTime(30)) {
		t.Errorf("UpdatedAt: got %v", got.UpdatedAt)
	}

	h.ID = "hl-missing"
	if err := s.UpdateHighlight(ctx, h); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateHighlightOffsets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))
	mustCreateHighlight(t, s, makeTestHighlight("hl-1", "art-1", 4, 9, "quick"))

	if err := s.UpdateHighlightOffsets(ctx, "hl-1", 24, 29); err != nil {
		t.Fatalf("UpdateHighlightOffsets: %v", err)
	}
	got, err := s.GetHighlight(ctx, "hl-1")
	if err != nil {
		t.Fatalf("GetHighlight: %v", err)
	}
	if got.StartOffset != 24 || got.EndOffset != 29 || got.Text != "quick" {
		t.Errorf("offsets not refreshed: %+v", got)
	}
	if !got.UpdatedAt.Equal(testTime(1)) {
		t.Errorf("self-heal must not touch updated_at, got %v", got.UpdatedAt)
	}

	if err := s.UpdateHighlightOffsets(ctx, "hl-1", 9, 4); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := s.UpdateHighlightOffsets(ctx, "hl-missing", 1, 2); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteHighlight_DetachesNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))
	mustCreateHighlight(t, s, makeTestHighlight("hl-1", "art-1", 4, 9, "quick"))

	hid := "hl-1"
	mustCreateNote(t, s, makeTestNote("note-1", "art-1", &hid))

	if err := s.DeleteHighlight(ctx, "hl-1"); err != nil {
		t.Fatalf("DeleteHighlight: %v", err)
	}

	n, err := s.GetNote(ctx, "note-1")
	if err != nil {
		t.Fatalf("note should survive highlight deletion: %v", err)
	}
	if !n.IsStandalone() {
		t.Errorf("note should be standalone, highlight_id=%v", *n.HighlightID)
	}

	if err := s.DeleteHighlight(ctx, "hl-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListHighlightsByArticle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateArticle(t, s, makeTestArticle("art-1", "https://example.com/fox"))
	mustCreateArticle(t, s, makeTestArticle("art-2", "https://example.com/other"))

	later := makeTestHighlight("hl-late", "art-1", 40, 44, "lazy")
	later.Tags = []string{"dogs"}
	mustCreateHighlight(t, s, later)
	mustCreateHighlight(t, s, makeTestHighlight("hl-early", "art-1", 4, 9, "quick"))
	mustCreateHighlight(t, s, makeTestHighlight("hl-other", "art-2", 0, 3, "The"))

	got, err := s.ListHighlightsByArticle(ctx, "art-1")
	if err != nil {
		t.Fatalf("ListHighlightsByArticle: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 highlights, got %d", len(got))
	}
	if got[0].ID != "hl-early" || got[1].ID != "hl-late" {
		t.Errorf("expected start-offset order, got %s, %s", got[0].ID, got[1].ID)
	}
	if len(got[0].Tags) != 0 || fmt.Sprint(got[1].Tags) != "[dogs]" {
		t.Errorf("tags not attached: %v / %v", got[0].Tags, got[1].Tags)
	}

	n, err := s.CountHighlightsByArticle(ctx, "art-1")
	if err != nil {
		t.Fatalf("CountHighlightsByArticle: %v", err)
	}
	if n != 2 {
		t.Errorf("count: got %d", n)
	}

	empty, err := s.ListHighlightsByArticle(ctx, "art-none")
	if err != nil {
		t.Fatalf("ListHighlightsByArticle: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}
