package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Highlight limits.
const (
	MaxHighlightTags     = 10
	MaxTagLength         = 50
	DefaultContextLength = 30
)

// Highlight is a persisted annotation over an article's canonical text.
//
// Text is the exact quote and never changes after creation. StartOffset and
// EndOffset are rune offsets into the article's text projection at the time
// they were last anchored; they are advisory and may drift when the content is
// re-rendered. ContextPrefix and ContextSuffix disambiguate repeated quotes.
type Highlight struct {
	Record
	ArticleID     string   `json:"article_id"`
	Text          string   `json:"text"`
	ContextPrefix string   `json:"context_prefix"`
	ContextSuffix string   `json:"context_suffix"`
	Color         Color    `json:"color"`
	Note          *string  `json:"note,omitempty"`
	Tags          []string `json:"tags"`
	StartOffset   int      `json:"start_offset"`
	EndOffset     int      `json:"end_offset"`
}

// Selector returns the anchoring data of the highlight.
func (h *Highlight) Selector() Selector {
	return Selector{
		Exact:  h.Text,
		Prefix: h.ContextPrefix,
		Suffix: h.ContextSuffix,
		Start:  h.StartOffset,
		End:    h.EndOffset,
	}
}

// Apply applies a patch and reports whether anything changed.
// Anchoring fields are never touched.
func (h *Highlight) Apply(p HighlightPatch) bool {
	changed := false
	if p.Color != nil && *p.Color != h.Color {
		h.Color = *p.Color
		changed = true
	}
	if p.ClearNote && h.Note != nil {
		h.Note = nil
		changed = true
	} else if p.Note != nil && (h.Note == nil || *h.Note != *p.Note) {
		note := *p.Note
		h.Note = &note
		changed = true
	}
	if p.Tags != nil {
		h.Tags = append([]string(nil), (*p.Tags)...)
		changed = true
	}
	if changed {
		h.Touch()
	}
	return changed
}

// Selector is the pair of anchoring strategies attached to a highlight:
// a text position (Start, End) and a text quote (Exact with Prefix/Suffix).
type Selector struct {
	Exact  string `json:"exact"`
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// ErrEmptyRange is returned for selectors whose end does not follow their start.
var ErrEmptyRange = errors.New("end offset must be greater than start offset")

// Validate checks the structural invariants of a selector.
func (s Selector) Validate() error {
	if s.Exact == "" {
		return errors.New("quote text is required")
	}
	if s.Start < 0 {
		return fmt.Errorf("start offset %d is negative", s.Start)
	}
	if s.End <= s.Start {
		return ErrEmptyRange
	}
	return nil
}

// HighlightDraft is a captured selection that has not been persisted yet.
type HighlightDraft struct {
	ArticleID     string   `json:"article_id"`
	Text          string   `json:"text"`
	ContextPrefix string   `json:"context_prefix"`
	ContextSuffix string   `json:"context_suffix"`
	Color         Color    `json:"color"`
	Note          *string  `json:"note,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	StartOffset   int      `json:"start_offset"`
	EndOffset     int      `json:"end_offset"`
}

// Selector returns the anchoring data of the draft.
func (d *HighlightDraft) Selector() Selector {
	return Selector{
		Exact:  d.Text,
		Prefix: d.ContextPrefix,
		Suffix: d.ContextSuffix,
		Start:  d.StartOffset,
		End:    d.EndOffset,
	}
}

// Validate checks the draft against the highlight invariants.
func (d *HighlightDraft) Validate() error {
	if err := d.Selector().Validate(); err != nil {
		return err
	}
	if len(d.Tags) > MaxHighlightTags {
		return fmt.Errorf("at most %d tags allowed", MaxHighlightTags)
	}
	for _, t := range d.Tags {
		if utf8.RuneCountInString(t) > MaxTagLength {
			return fmt.Errorf("tag %q exceeds %d characters", t, MaxTagLength)
		}
	}
	return nil
}

// HighlightPatch is a partial update. Only presentation fields are patchable.
type HighlightPatch struct {
	Color     *Color    `json:"color,omitempty"`
	Note      *string   `json:"note,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
	ClearNote bool      `json:"clear_note,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p HighlightPatch) IsEmpty() bool {
	return p.Color == nil && p.Note == nil && p.Tags == nil && !p.ClearNote
}
