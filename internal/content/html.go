package content

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses an HTML fragment in body context into a new tree.
// Doctype nodes are dropped; everything else keeps its document order.
func ParseHTML(r io.Reader) (*Tree, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	t := New()
	for _, n := range nodes {
		t.importNode(t.root, n)
	}
	return t, nil
}

// ParseHTMLString is ParseHTML over a string.
func ParseHTMLString(s string) (*Tree, error) {
	return ParseHTML(strings.NewReader(s))
}

func (t *Tree) importNode(parent NodeID, n *html.Node) {
	var id NodeID
	switch n.Type {
	case html.TextNode:
		id = t.CreateText(n.Data)
	case html.CommentNode:
		id = t.CreateComment(n.Data)
	case html.ElementNode:
		attrs := make([]Attr, 0, len(n.Attr))
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			attrs = append(attrs, Attr{Key: key, Val: a.Val})
		}
		id = t.CreateElement(n.Data, attrs...)
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			t.importNode(parent, c)
		}
		return
	default:
		return
	}
	// Parent is always an element or the document here.
	_ = t.AppendChild(parent, id)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.importNode(id, c)
	}
}

func (t *Tree) exportNode(id NodeID) *html.Node {
	n := &t.nodes[id]
	var out *html.Node
	switch n.Type {
	case TextNode:
		out = &html.Node{Type: html.TextNode, Data: n.Data}
	case CommentNode:
		out = &html.Node{Type: html.CommentNode, Data: n.Data}
	case ElementNode:
		out = &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
		for _, a := range n.Attrs {
			out.Attr = append(out.Attr, html.Attribute{Key: a.Key, Val: a.Val})
		}
	default:
		out = &html.Node{Type: html.DocumentNode}
	}
	for c := n.FirstChild; c != None; c = t.nodes[c].NextSibling {
		out.AppendChild(t.exportNode(c))
	}
	return out
}

// RenderHTML writes the children of id as HTML.
func (t *Tree) RenderHTML(w io.Writer, id NodeID) error {
	if !t.Valid(id) {
		return ErrInvalidNode
	}
	parent := t.exportNode(id)
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
	}
	return nil
}

// InnerHTML returns the serialized children of id.
func (t *Tree) InnerHTML(id NodeID) (string, error) {
	var buf bytes.Buffer
	if err := t.RenderHTML(&buf, id); err != nil {
		return "", err
	}
	return buf.String(), nil
}
