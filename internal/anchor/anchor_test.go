package anchor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readwell/readwell-server/internal/domain"
)

func TestLocate_FastPathIsStable(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog."
	sel := domain.Selector{Exact: "brown fox", Start: 10, End: 19}

	doc := NewDocument(text)
	first, err := doc.Locate(sel)
	require.NoError(t, err)
	assert.Equal(t, ConfidencePosition, first.Confidence)
	assert.Equal(t, 10, first.Start)
	assert.Equal(t, 19, first.End)

	for range 5 {
		again, err := doc.Locate(sel)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLocate_FastPathToleratesWhitespace(t *testing.T) {
	text := "Line one\n  continues here."
	sel := domain.Selector{Exact: "one continues", Start: 5, End: 20}

	m, err := Locate(text, sel)
	require.NoError(t, err)
	assert.Equal(t, ConfidencePosition, m.Confidence)
	assert.Equal(t, 5, m.Start)
	assert.Equal(t, 20, m.End)
}

func TestLocate_QuoteFallbackAfterPrepend(t *testing.T) {
	original := "Only this sentence matters here."
	sel := domain.Selector{Exact: "sentence", Start: 10, End: 18}

	m, err := Locate(original, sel)
	require.NoError(t, err)
	require.Equal(t, ConfidencePosition, m.Confidence)

	mutated := "Breaking update: " + original
	m, err = Locate(mutated, sel)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceUnique, m.Confidence)
	assert.Equal(t, "sentence", NewDocument(mutated).Slice(m.Start, m.End))
	assert.Equal(t, 27, m.Start)
	assert.True(t, m.Moved(sel))
}

func TestLocate_InsertionBeforeHighlight(t *testing.T) {
	sel := domain.Selector{Exact: "BBB", Start: 4, End: 7}

	m, err := Locate("AAA BBB CCC", sel)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Start)
	assert.Equal(t, 7, m.End)

	m, err = Locate("AAA XXX BBB CCC", sel)
	require.NoError(t, err)
	assert.Equal(t, 8, m.Start)
	assert.Equal(t, 11, m.End)
	assert.Equal(t, ConfidenceUnique, m.Confidence)
}

func TestLocate_SuffixDisambiguates(t *testing.T) {
	text := "Hello world. Hello again."

	// Stale offsets and no context: both occurrences are plausible, the
	// nearest to the stored start is taken and flagged.
	noContext := domain.Selector{Exact: "Hello", Start: 15, End: 20}
	m, err := Locate(text, noContext)
	require.NoError(t, err)
	assert.Equal(t, 13, m.Start)
	assert.Equal(t, ConfidenceNearest, m.Confidence)
	assert.True(t, m.Confidence.IsLow())

	withSuffix := noContext
	withSuffix.Suffix = " world"
	m, err = Locate(text, withSuffix)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Start)
	assert.Equal(t, 5, m.End)
	assert.Equal(t, ConfidenceContext, m.Confidence)
	assert.False(t, m.Confidence.IsLow())
}

func TestLocate_ValidOffsetsWinOverAmbiguity(t *testing.T) {
	m, err := Locate("Hello world. Hello again.", domain.Selector{Exact: "Hello", Start: 0, End: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Start)
	assert.Equal(t, ConfidencePosition, m.Confidence)
}

func TestLocate_RepeatedPhraseEachKeepsItsOccurrence(t *testing.T) {
	original := "the cat saw the dog"
	first := domain.Selector{Exact: "the", Suffix: " cat saw", Start: 0, End: 3}
	second := domain.Selector{Exact: "the", Prefix: "cat saw ", Suffix: " dog", Start: 12, End: 15}

	mutated := "Intro: " + original
	doc := NewDocument(mutated)

	m1, err := doc.Locate(first)
	require.NoError(t, err)
	m2, err := doc.Locate(second)
	require.NoError(t, err)

	assert.Equal(t, 7, m1.Start)
	assert.Equal(t, 19, m2.Start)
	assert.Equal(t, ConfidenceContext, m1.Confidence)
	assert.Equal(t, ConfidenceContext, m2.Confidence)
}

func TestLocate_ContextDriftFallsBackToNearest(t *testing.T) {
	text := strings.Repeat("Same paragraph text. ", 4)
	sel := domain.Selector{
		Exact:  "paragraph",
		Prefix: "something that no longer exists",
		Start:  50,
		End:    59,
	}

	m, err := Locate(text, sel)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceNearest, m.Confidence)
	// Occurrences start at 5, 26, 47, 68.
	assert.Equal(t, 47, m.Start)
}

func TestLocate_NearestTieTakesEarlier(t *testing.T) {
	// Occurrences at 0 and 10, stored start 5 is equidistant.
	m, err := Locate("abc-------abc", domain.Selector{Exact: "abc", Start: 5, End: 8})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Start)
}

func TestLocate_WhitespaceNormalizedSearch(t *testing.T) {
	// Re-render turned a <br> into a newline plus indentation.
	text := "Intro.\nFirst line\n    second line.\nOutro."
	sel := domain.Selector{Exact: "First line second line", Start: 0, End: 22}

	m, err := Locate(text, sel)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceUnique, m.Confidence)
	assert.True(t, m.Normalized)
	assert.Equal(t, "First line\n    second line", NewDocument(text).Slice(m.Start, m.End))
}

func TestLocate_Orphaned(t *testing.T) {
	_, err := Locate("Completely different content now.", domain.Selector{Exact: "vanished", Start: 3, End: 11})
	assert.ErrorIs(t, err, ErrOrphaned)

	_, err = Locate("anything", domain.Selector{Exact: "  \n ", Start: 0, End: 4})
	assert.ErrorIs(t, err, ErrOrphaned)

	_, err = Locate("", domain.Selector{Exact: "x", Start: 0, End: 1})
	assert.ErrorIs(t, err, ErrOrphaned)
}

func TestLocate_OutOfBoundsOffsets(t *testing.T) {
	m, err := Locate("short text", domain.Selector{Exact: "text", Start: 400, End: 404})
	require.NoError(t, err)
	assert.Equal(t, 6, m.Start)
	assert.Equal(t, 10, m.End)
}

func TestLocate_RuneOffsets(t *testing.T) {
	text := "Ça va? Très bien, merci. Très bien."
	sel := domain.Selector{Exact: "Très bien", Suffix: ".", Start: 0, End: 9}

	m, err := Locate(text, sel)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceContext, m.Confidence)
	assert.Equal(t, 25, m.Start)
	assert.Equal(t, 34, m.End)
	assert.Equal(t, "Très bien", NewDocument(text).Slice(m.Start, m.End))
}

func TestLocate_OverlappingOccurrences(t *testing.T) {
	doc := NewDocument("aaaa")
	assert.Len(t, doc.exactOccurrences("aa"), 3)
}
