package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/highlight"
)

func testArticle() *domain.Article {
	return &domain.Article{
		Record: domain.Record{ID: "art-1"},
		URL:    "https://example.com/fox",
		Title:  "The Fox",
		Author: "Aesop",
	}
}

func TestMarkdown_BodyHighlightsAndNotes(t *testing.T) {
	tree, err := content.ParseHTMLString("<p>The quick brown fox jumps over the lazy dog.</p>")
	require.NoError(t, err)

	note := "classic pangram"
	hl := &domain.Highlight{
		Record:      domain.Record{ID: "hl-1"},
		Text:        "quick brown",
		StartOffset: 4,
		EndOffset:   15,
		Color:       domain.ColorGreen,
		Tags:        []string{"animals"},
		Note:        &note,
	}
	_, report := highlight.ApplyHighlightsToDOM(tree, tree.Root(), []domain.Highlight{*hl}, nil)
	require.Equal(t, 1, report.Count(highlight.StatusPainted))

	hid := "hl-1"
	var buf strings.Builder
	err = Markdown(&buf, Document{
		Article:    testArticle(),
		Tree:       tree,
		Root:       tree.Root(),
		Highlights: []*domain.Highlight{hl},
		Notes: []*domain.Note{
			{ArticleID: "art-1", HighlightID: &hid, Content: "see also Aesop"},
			{ArticleID: "art-1", Content: "read again\nnext week"},
		},
	})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# The Fox\n\n*Aesop*\n\nSource: <https://example.com/fox>\n"))
	assert.Contains(t, out, "The **quick brown** fox jumps over the lazy dog.")
	assert.Contains(t, out, "## Highlights\n\n> quick brown\n\ngreen · #animals\n\nclassic pangram\n\n- see also Aesop\n")
	assert.Contains(t, out, "## Notes\n\n- read again\n  next week\n")
	assert.NotContains(t, out, "data-highlight-id")
}

func TestMarkdown_OrphanedAndNoBody(t *testing.T) {
	a := testArticle()
	a.Title = ""
	a.Author = ""

	hl := &domain.Highlight{Record: domain.Record{ID: "hl-9"}, Text: "vanished words", Color: "chartreuse"}

	var buf strings.Builder
	err := Markdown(&buf, Document{
		Article:    a,
		Highlights: []*domain.Highlight{hl},
		Orphaned:   map[string]bool{"hl-9": true},
	})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# https://example.com/fox\n\nSource:"))
	// Unknown colors fall back to yellow.
	assert.Contains(t, out, "> vanished words\n\nyellow · not found in current text\n")
	assert.NotContains(t, out, "## Notes")
	assert.True(t, strings.HasSuffix(out, "text\n"))
}
