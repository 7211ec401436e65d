// Package export renders an annotated article as Markdown.
package export

import (
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/readwell/readwell-server/internal/content"
	"github.com/readwell/readwell-server/internal/domain"
	"github.com/readwell/readwell-server/internal/highlight"
)

// Document is everything that goes into one export.
type Document struct {
	Article *domain.Article
	// Tree is the painted article. When nil, the body section is omitted.
	Tree       *content.Tree
	Highlights []*domain.Highlight
	Notes      []*domain.Note
	// Orphaned lists highlights whose quote was not found in the current content.
	Orphaned map[string]bool
	Root     content.NodeID
}

// Markdown writes doc as Markdown: a title block, the body with highlighted
// passages in bold, then the highlights and the notes.
func Markdown(w io.Writer, doc Document) error {
	var b strings.Builder

	a := doc.Article
	fmt.Fprintf(&b, "# %s\n\n", titleOf(a))
	if a.Author != "" {
		fmt.Fprintf(&b, "*%s*\n\n", a.Author)
	}
	fmt.Fprintf(&b, "Source: <%s>\n\n", a.URL)

	if doc.Tree != nil {
		body, err := bodyMarkdown(doc.Tree, doc.Root)
		if err != nil {
			return err
		}
		if body != "" {
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}

	if len(doc.Highlights) > 0 {
		attached := attachedNotes(doc.Notes)
		b.WriteString("## Highlights\n\n")
		for _, h := range doc.Highlights {
			writeHighlight(&b, h, attached[h.ID], doc.Orphaned[h.ID])
		}
	}

	notes := standaloneNotes(doc.Notes)
	if len(notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range notes {
			writeQuoted(&b, "- ", n.Content)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}

// bodyMarkdown converts the painted tree, turning every marker into <strong>.
// The tree is modified in place.
func bodyMarkdown(t *content.Tree, root content.NodeID) (string, error) {
	for _, m := range highlight.Markers(t, root) {
		n := t.Node(m)
		n.Tag = "strong"
		n.Attrs = nil
	}
	html, err := t.InnerHTML(root)
	if err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert body: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func writeHighlight(b *strings.Builder, h *domain.Highlight, notes []*domain.Note, orphaned bool) {
	writeQuoted(b, "> ", h.Text)

	var meta []string
	meta = append(meta, string(domain.ResolveColor(string(h.Color))))
	for _, tag := range h.Tags {
		meta = append(meta, "#"+tag)
	}
	if orphaned {
		meta = append(meta, "not found in current text")
	}
	fmt.Fprintf(b, "\n%s\n", strings.Join(meta, " · "))

	if h.Note != nil && strings.TrimSpace(*h.Note) != "" {
		fmt.Fprintf(b, "\n%s\n", strings.TrimSpace(*h.Note))
	}
	if len(notes) > 0 {
		b.WriteString("\n")
		for _, n := range notes {
			writeQuoted(b, "- ", n.Content)
		}
	}
	b.WriteString("\n")
}

// writeQuoted writes text with prefix on the first line and matching
// indentation on the rest, so multi-line quotes stay in one block.
func writeQuoted(b *strings.Builder, prefix, text string) {
	cont := prefix
	if prefix == "- " {
		cont = "  "
	}
	for i, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if i == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString(cont)
		}
		b.WriteString(strings.TrimRight(line, " \t"))
		b.WriteString("\n")
	}
}

func attachedNotes(notes []*domain.Note) map[string][]*domain.Note {
	out := make(map[string][]*domain.Note)
	for _, n := range notes {
		if !n.IsStandalone() {
			out[*n.HighlightID] = append(out[*n.HighlightID], n)
		}
	}
	return out
}

func standaloneNotes(notes []*domain.Note) []*domain.Note {
	var out []*domain.Note
	for _, n := range notes {
		if n.IsStandalone() {
			out = append(out, n)
		}
	}
	return out
}

func titleOf(a *domain.Article) string {
	if strings.TrimSpace(a.Title) != "" {
		return a.Title
	}
	return a.URL
}
