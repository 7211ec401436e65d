package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readwell/readwell-server/internal/anchor"
	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
)

func parse(t *testing.T, html string) *content.Tree {
	t.Helper()
	tr, err := content.ParseHTMLString(html)
	require.NoError(t, err)
	return tr
}

func render(t *testing.T, tr *content.Tree) string {
	t.Helper()
	out, err := tr.InnerHTML(tr.Root())
	require.NoError(t, err)
	return out
}

func hl(id, text string, start, end int) domain.Highlight {
	return domain.Highlight{
		Record:      domain.Record{ID: id},
		Text:        text,
		StartOffset: start,
		EndOffset:   end,
		Color:       domain.ColorYellow,
	}
}

// assertNoNestedMarkers fails if any marker sits inside another marker.
func assertNoNestedMarkers(t *testing.T, tr *content.Tree) {
	t.Helper()
	for _, m := range Markers(tr, tr.Root()) {
		parent := tr.Parent(m)
		assert.Equal(t, content.None, MarkerAt(tr, parent), "marker %d is nested", m)
	}
}

func TestApply_SingleNode(t *testing.T) {
	tr := parse(t, "<p>AAA BBB CCC</p>")

	_, report := ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{hl("hl-1", "BBB", 4, 7)}, nil)

	res, ok := report.Result("hl-1")
	require.True(t, ok)
	assert.Equal(t, StatusPainted, res.Status)
	assert.Equal(t, 1, res.Markers)
	assert.Equal(t, anchor.ConfidencePosition, res.Confidence)

	html := render(t, tr)
	assert.Contains(t, html, `<p>AAA <mark class="highlight highlight-yellow" data-highlight-id="hl-1"`)
	assert.Contains(t, html, `>BBB</mark> CCC</p>`)
	assert.Equal(t, "AAA BBB CCC", tr.PlainText(tr.Root()))
}

func TestApply_ReanchorsAfterEdit(t *testing.T) {
	tr := parse(t, "<p>AAA XXX BBB CCC</p>")

	_, report := ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{hl("hl-1", "BBB", 4, 7)}, nil)

	res, _ := report.Result("hl-1")
	assert.Equal(t, StatusPainted, res.Status)
	assert.Equal(t, 8, res.Start)
	assert.Equal(t, 11, res.End)
	assert.True(t, res.Moved)
	assert.Equal(t, "BBB", MarkedText(tr, tr.Root(), "hl-1"))
}

func TestApply_MultiNodeSpan(t *testing.T) {
	tr := parse(t, "<p>One <em>two</em> three</p><p>four five</p>")
	// Plain text: "One two threefour five"
	h := hl("hl-1", "ne two threefour fi", 1, 20)

	_, report := ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{h}, nil)

	res, _ := report.Result("hl-1")
	require.Equal(t, StatusPainted, res.Status)
	assert.Equal(t, 4, res.Markers)
	assert.Equal(t, h.Text, MarkedText(tr, tr.Root(), "hl-1"))
	assert.Equal(t, "One two threefour five", tr.PlainText(tr.Root()))

	html := render(t, tr)
	assert.True(t, strings.HasPrefix(html, "<p>O<mark"))
	assert.Contains(t, html, `<em><mark`)
	assert.Contains(t, html, `>four fi</mark>ve</p>`)
	assertNoNestedMarkers(t, tr)
}

func TestApply_AcrossTableRowsSurvivesReparse(t *testing.T) {
	tr := parse(t, "<table>\n<tr><td>alpha</td></tr>\n<tr><td>beta</td></tr></table>")
	text := tr.PlainText(tr.Root())
	require.Equal(t, "\nalpha\nbeta", text)
	h := hl("hl-1", "alpha\nbeta", 1, 11)

	_, report := ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{h}, nil)

	res, _ := report.Result("hl-1")
	require.Equal(t, StatusPainted, res.Status)
	assert.Equal(t, 2, res.Markers, "whitespace between rows stays unwrapped")
	assert.Equal(t, text, tr.PlainText(tr.Root()))

	reparsed := parse(t, render(t, tr))
	assert.Equal(t, text, reparsed.PlainText(reparsed.Root()))
	assert.Len(t, reparsed.TextNodes(reparsed.Root()), len(tr.TextNodes(tr.Root())))
	assert.Len(t, MarkersFor(reparsed, reparsed.Root(), "hl-1"), 2)
	for _, m := range MarkersFor(reparsed, reparsed.Root(), "hl-1") {
		assert.True(t, reparsed.IsElement(reparsed.Parent(m), "td"), "marker left its cell")
	}
	assert.Equal(t, "alphabeta", MarkedText(reparsed, reparsed.Root(), "hl-1"))
}

func TestApply_IdempotentRepaint(t *testing.T) {
	tr := parse(t, "<p>The quick brown fox</p><p>jumps over the lazy dog</p>")
	hs := []domain.Highlight{
		hl("hl-1", "quick", 4, 9),
		hl("hl-2", "cat", 16, 19), // orphaned: no such text
		hl("hl-3", "foxjumps over", 16, 29),
	}

	p, _ := ApplyHighlightsToDOM(tr, tr.Root(), hs, nil)
	once := render(t, tr)

	p.Apply(hs)
	twice := render(t, tr)

	assert.Equal(t, once, twice)
	assertNoNestedMarkers(t, tr)
	assert.Len(t, MarkersFor(tr, tr.Root(), "hl-1"), 1)
	assert.Len(t, MarkersFor(tr, tr.Root(), "hl-3"), 2)
}

func TestApply_RepaintWithChangedSet(t *testing.T) {
	tr := parse(t, "<p>alpha beta gamma</p>")
	p, _ := ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{hl("hl-1", "alpha", 0, 5), hl("hl-2", "gamma", 11, 16)}, nil)
	require.Len(t, Markers(tr, tr.Root()), 2)

	p.Apply([]domain.Highlight{hl("hl-2", "gamma", 11, 16)})

	assert.Empty(t, MarkersFor(tr, tr.Root(), "hl-1"))
	assert.Len(t, MarkersFor(tr, tr.Root(), "hl-2"), 1)
	assert.Equal(t, `<p>alpha beta <mark`, render(t, tr)[:len(`<p>alpha beta <mark`)])

	p.Apply(nil)
	assert.Equal(t, "<p>alpha beta gamma</p>", render(t, tr))
	// Text nodes are merged back.
	assert.Len(t, tr.TextNodes(tr.Root()), 1)
}

func TestApply_MarkerTextMatchesQuote(t *testing.T) {
	tr := parse(t, "<h1>Title</h1>\n<p>First <b>bold</b> para.</p>\n<ul><li>item one</li><li>item two</li></ul>")
	text := tr.PlainText(tr.Root())

	quotes := []string{"Title", "First bold", "para.\nitem", "one", "item two", "bold"}
	var hs []domain.Highlight
	for i, q := range quotes {
		start := len([]rune(text[:strings.Index(text, q)]))
		hs = append(hs, hl("hl-"+string(rune('a'+i)), q, start, start+len([]rune(q))))
	}

	_, report := ApplyHighlightsToDOM(tr, tr.Root(), hs, nil)

	for _, h := range hs {
		res, _ := report.Result(h.ID)
		if res.Status != StatusPainted {
			continue
		}
		assert.Equal(t,
			anchor.NormalizeWhitespace(h.Text),
			anchor.NormalizeWhitespace(MarkedText(tr, tr.Root(), h.ID)),
			"highlight %s", h.ID)
	}
	// "bold" sits inside "First bold" and is reported rather than nested.
	res, _ := report.Result("hl-f")
	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrNothingToPaint)
	assertNoNestedMarkers(t, tr)
}

func TestApply_OrphanedIsOmitted(t *testing.T) {
	tr := parse(t, "<p>Only this text remains.</p>")
	hs := []domain.Highlight{
		hl("hl-gone", "deleted paragraph", 0, 17),
		hl("hl-ok", "text", 10, 14),
	}

	var report Report
	assert.NotPanics(t, func() {
		_, report = ApplyHighlightsToDOM(tr, tr.Root(), hs, nil)
	})

	gone, _ := report.Result("hl-gone")
	assert.Equal(t, StatusOrphaned, gone.Status)
	assert.ErrorIs(t, gone.Err, anchor.ErrOrphaned)
	assert.Empty(t, MarkersFor(tr, tr.Root(), "hl-gone"))

	ok, _ := report.Result("hl-ok")
	assert.Equal(t, StatusPainted, ok.Status)
	assert.Equal(t, "text", MarkedText(tr, tr.Root(), "hl-ok"))
	assert.Equal(t, 1, report.Count(StatusOrphaned))
	assert.Equal(t, 1, report.Count(StatusPainted))
}

func TestApply_ProcessesInStartOrder(t *testing.T) {
	tr := parse(t, "<p>one two three four</p>")
	// Input order is reversed; report keeps input order.
	hs := []domain.Highlight{
		hl("hl-4", "four", 14, 18),
		hl("hl-2", "two", 4, 7),
		hl("hl-1", "one", 0, 3),
	}

	_, report := ApplyHighlightsToDOM(tr, tr.Root(), hs, nil)

	require.Len(t, report.Results, 3)
	assert.Equal(t, "hl-4", report.Results[0].HighlightID)
	assert.Equal(t, 3, report.Count(StatusPainted))

	var order []string
	for _, m := range Markers(tr, tr.Root()) {
		order = append(order, MarkerID(tr, m))
	}
	assert.Equal(t, []string{"hl-1", "hl-2", "hl-4"}, order)
}

func TestApply_PartialOverlapPaintsRemainder(t *testing.T) {
	tr := parse(t, "<p>abcdefghij</p>")
	hs := []domain.Highlight{hl("hl-1", "cdef", 2, 6), hl("hl-2", "efgh", 4, 8)}

	_, report := ApplyHighlightsToDOM(tr, tr.Root(), hs, nil)

	assert.Equal(t, 2, report.Count(StatusPainted))
	assert.Equal(t, "cdef", MarkedText(tr, tr.Root(), "hl-1"))
	assert.Equal(t, "gh", MarkedText(tr, tr.Root(), "hl-2"))
	assertNoNestedMarkers(t, tr)
}

func TestApply_ColorFallback(t *testing.T) {
	tr := parse(t, "<p>legacy color</p>")
	h := hl("hl-1", "legacy", 0, 6)
	h.Color = "chartreuse"

	ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{h}, nil)

	marker := MarkersFor(tr, tr.Root(), "hl-1")[0]
	color, _ := tr.Attr(marker, AttrHighlightColor)
	style, _ := tr.Attr(marker, "style")
	assert.Equal(t, "yellow", color)
	assert.Contains(t, style, domain.ColorYellow.Swatch().Background)
}

func TestRemoveHighlight_NormalizesText(t *testing.T) {
	tr := parse(t, "<p>One <em>two</em> three</p>")
	ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{hl("hl-1", "e two th", 2, 10), hl("hl-2", "ree", 10, 13)}, nil)

	removed := RemoveHighlight(tr, tr.Root(), "hl-1")

	assert.Equal(t, 3, removed)
	assert.Empty(t, MarkersFor(tr, tr.Root(), "hl-1"))
	assert.Len(t, MarkersFor(tr, tr.Root(), "hl-2"), 1)
	assert.Equal(t, `<p>One <em>two</em> th<mark`, render(t, tr)[:len(`<p>One <em>two</em> th<mark`)])
	assert.Equal(t, 0, RemoveHighlight(tr, tr.Root(), "hl-1"))
}

func TestPainter_ClickAttribution(t *testing.T) {
	tr := parse(t, "<p>click <b>this phrase</b> please</p>")
	var clicked []string
	p, _ := ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{hl("hl-1", "this", 6, 10)}, func(h domain.Highlight) {
		clicked = append(clicked, h.ID)
	})

	marker := MarkersFor(tr, tr.Root(), "hl-1")[0]
	inner := tr.Children(marker)[0]

	h, ok := p.ResolveClick(inner)
	require.True(t, ok)
	assert.Equal(t, "hl-1", h.ID)

	assert.True(t, p.Click(inner))
	assert.True(t, p.Click(marker))

	// Text outside any marker.
	outside := tr.TextNodes(tr.Root())[0]
	assert.False(t, p.Click(outside))

	assert.Equal(t, []string{"hl-1", "hl-1"}, clicked)
}

func TestPainter_RecolorAndRename(t *testing.T) {
	tr := parse(t, "<p>alpha <i>beta</i> gamma</p>")
	p, _ := ApplyHighlightsToDOM(tr, tr.Root(), []domain.Highlight{hl("temp-1", "alpha beta", 0, 10)}, nil)

	assert.Equal(t, 2, p.Rename("temp-1", "hl-9"))
	assert.Len(t, MarkersFor(tr, tr.Root(), "hl-9"), 2)
	h, ok := p.ResolveClick(tr.Children(MarkersFor(tr, tr.Root(), "hl-9")[0])[0])
	require.True(t, ok)
	assert.Equal(t, "hl-9", h.ID)

	assert.Equal(t, 2, p.Recolor("hl-9", domain.ColorBlue))
	for _, m := range MarkersFor(tr, tr.Root(), "hl-9") {
		class, _ := tr.Attr(m, "class")
		assert.Equal(t, "highlight highlight-blue", class)
	}
}

func TestPainter_PaintRangeInvalid(t *testing.T) {
	tr := parse(t, "<p>short</p>")
	p := NewPainter(tr, tr.Root(), nil)

	_, err := p.PaintRange("hl-1", domain.ColorRed, 3, 99)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = p.PaintRange("hl-1", domain.ColorRed, 3, 3)
	assert.ErrorIs(t, err, ErrInvalidRange)

	n, err := p.PaintRange("hl-1", domain.ColorRed, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = p.PaintRange("hl-2", domain.ColorRed, 1, 4)
	assert.ErrorIs(t, err, ErrNothingToPaint)
}
