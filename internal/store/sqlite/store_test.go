package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/readwell/readwell-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testTime returns a fixed base time shifted by offset seconds.
func testTime(offset int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, offset, 0, time.UTC)
}

func makeTestArticle(id, url string) *domain.Article {
	a := &domain.Article{
		Record: domain.Record{ID: id, CreatedAt: testTime(0), UpdatedAt: testTime(0)},
		URL:    url,
		Title:  "The Quick Fox",
	}
	a.Content = "<p>The quick brown fox jumps over the lazy dog.</p>"
	a.ContentHash = domain.HashContent(a.Content)
	return a
}

func makeTestHighlight(id, articleID string, start, end int, text string) *domain.Highlight {
	return &domain.Highlight{
		Record:      domain.Record{ID: id, CreatedAt: testTime(1), UpdatedAt: testTime(1)},
		ArticleID:   articleID,
		Text:        text,
		StartOffset: start,
		EndOffset:   end,
		Color:       domain.ColorYellow,
		Tags:        []string{},
	}
}

func mustCreateArticle(t *testing.T, s *Store, a *domain.Article) {
	t.Helper()
	if err := s.CreateArticle(context.Background(), a); err != nil {
		t.Fatalf("CreateArticle(%s): %v", a.ID, err)
	}
}

func mustCreateHighlight(t *testing.T, s *Store, h *domain.Highlight) {
	t.Helper()
	if err := s.CreateHighlight(context.Background(), h); err != nil {
		t.Fatalf("CreateHighlight(%s): %v", h.ID, err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{"articles", "highlights", "highlight_tags", "notes"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "reopen.db")

	s1, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	mustCreateArticle(t, s1, makeTestArticle("art-1", "https://example.com/fox"))
	s1.Close()

	// Schema statements are idempotent, so a second open must succeed and see the data.
	s2, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	if _, err := s2.GetArticle(context.Background(), "art-1"); err != nil {
		t.Errorf("GetArticle after reopen: %v", err)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestFormatTime_SortsLexically(t *testing.T) {
	whole := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	fraction := whole.Add(100 * time.Millisecond)

	if !(formatTime(whole) < formatTime(fraction)) {
		t.Errorf("expected %q < %q", formatTime(whole), formatTime(fraction))
	}

	parsed, err := parseTime(formatTime(fraction))
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !parsed.Equal(fraction) {
		t.Errorf("round trip: got %v, want %v", parsed, fraction)
	}
}
