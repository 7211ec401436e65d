package content

import "unicode/utf8"

// runeByteIndex returns the byte index of the n-th rune of s, or len(s) when n is the rune count.
func runeByteIndex(s string, n int) int {
	if n <= 0 {
		return 0
	}
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}

// SplitText splits a text node at a rune offset. The node keeps the text before
// the offset; a new sibling inserted right after it receives the rest, and its ID
// is returned. Offsets 0 and TextLen are allowed and yield an empty side.
func (t *Tree) SplitText(id NodeID, offset int) (NodeID, error) {
	if !t.Valid(id) {
		return None, ErrInvalidNode
	}
	if t.nodes[id].Type != TextNode {
		return None, ErrNotText
	}
	data := t.nodes[id].Data
	if offset < 0 || offset > utf8.RuneCountInString(data) {
		return None, ErrOffsetOutOfRange
	}
	parent := t.nodes[id].Parent
	if parent == None {
		return None, ErrDetached
	}

	cut := runeByteIndex(data, offset)
	right := t.CreateText(data[cut:])
	t.nodes[id].Data = data[:cut]
	if err := t.InsertBefore(parent, right, t.nodes[id].NextSibling); err != nil {
		t.nodes[id].Data = data
		return None, err
	}
	return right, nil
}

// Wrap moves id into a new element that takes its place, and returns the element.
func (t *Tree) Wrap(id NodeID, tag string, attrs ...Attr) (NodeID, error) {
	if !t.Valid(id) {
		return None, ErrInvalidNode
	}
	parent := t.nodes[id].Parent
	if parent == None {
		return None, ErrDetached
	}
	el := t.CreateElement(tag, attrs...)
	if err := t.InsertBefore(parent, el, id); err != nil {
		return None, err
	}
	if err := t.AppendChild(el, id); err != nil {
		return None, err
	}
	return el, nil
}

// Unwrap replaces an element by its children and returns the first of them (or None).
func (t *Tree) Unwrap(el NodeID) (NodeID, error) {
	if !t.IsElement(el, "") {
		return None, ErrNotElement
	}
	parent := t.nodes[el].Parent
	if parent == None {
		return None, ErrDetached
	}
	first := t.nodes[el].FirstChild
	for c := first; c != None; c = t.nodes[el].FirstChild {
		if err := t.InsertBefore(parent, c, el); err != nil {
			return None, err
		}
	}
	t.Remove(el)
	return first, nil
}

// Normalize merges adjacent text nodes and drops empty ones throughout the subtree.
func (t *Tree) Normalize(root NodeID) {
	var parents []NodeID
	t.Walk(root, func(id NodeID, n *Node) bool {
		if n.FirstChild != None {
			parents = append(parents, id)
		}
		return true
	})
	for _, p := range parents {
		c := t.nodes[p].FirstChild
		for c != None {
			next := t.nodes[c].NextSibling
			if t.nodes[c].Type != TextNode {
				c = next
				continue
			}
			for next != None && t.nodes[next].Type == TextNode {
				t.nodes[c].Data += t.nodes[next].Data
				after := t.nodes[next].NextSibling
				t.Remove(next)
				next = after
			}
			if t.nodes[c].Data == "" {
				t.Remove(c)
			}
			c = next
		}
	}
}
