// Package content models a rendered article body as an owned tree of nodes and
// derives the canonical text projection used as the coordinate space for highlights.
//
// Nodes live in an arena and reference each other by NodeID. Removing a node
// detaches it but keeps its slot, so IDs held by callers never point at a
// different node. Document order is depth-first pre-order over the children
// links and is the only order the projection uses.
package content

import (
	"errors"
	"unicode/utf8"
)

// NodeType is the kind of a node.
type NodeType uint8

// Node kinds.
const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

// NodeID indexes a node in its Tree.
type NodeID int

// None is the null NodeID.
const None NodeID = -1

// Attr is an element attribute.
type Attr struct {
	Key string
	Val string
}

// Node is a single arena slot.
type Node struct {
	Tag   string // element name, lowercase
	Data  string // text or comment data
	Attrs []Attr

	Parent      NodeID
	FirstChild  NodeID
	LastChild   NodeID
	PrevSibling NodeID
	NextSibling NodeID

	Type NodeType
}

// Tree errors. Mutations that fail leave the tree unchanged.
var (
	ErrInvalidNode      = errors.New("content: invalid node")
	ErrNotText          = errors.New("content: not a text node")
	ErrNotElement       = errors.New("content: not an element")
	ErrOffsetOutOfRange = errors.New("content: offset out of range")
	ErrHierarchy        = errors.New("content: node cannot be inserted there")
	ErrDetached         = errors.New("content: node is not attached to the document")
)

// Tree is an arena-backed content tree with a single document root.
// A Tree is not safe for concurrent use.
type Tree struct {
	nodes []Node
	root  NodeID
}

// New returns a tree holding an empty document node.
func New() *Tree {
	t := &Tree{}
	t.root = t.alloc(Node{Type: DocumentNode})
	return t
}

// Root returns the document node.
func (t *Tree) Root() NodeID {
	return t.root
}

// Len returns the number of arena slots, including detached nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Valid reports whether id names a slot in this tree.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Node returns the node for id. The pointer is invalidated by node creation.
func (t *Tree) Node(id NodeID) *Node {
	if !t.Valid(id) {
		return nil
	}
	return &t.nodes[id]
}

func (t *Tree) alloc(n Node) NodeID {
	n.Parent, n.FirstChild, n.LastChild, n.PrevSibling, n.NextSibling = None, None, None, None, None
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// CreateElement allocates a detached element.
func (t *Tree) CreateElement(tag string, attrs ...Attr) NodeID {
	return t.alloc(Node{Type: ElementNode, Tag: tag, Attrs: append([]Attr(nil), attrs...)})
}

// CreateText allocates a detached text node.
func (t *Tree) CreateText(data string) NodeID {
	return t.alloc(Node{Type: TextNode, Data: data})
}

// CreateComment allocates a detached comment node.
func (t *Tree) CreateComment(data string) NodeID {
	return t.alloc(Node{Type: CommentNode, Data: data})
}

// IsText reports whether id is a text node.
func (t *Tree) IsText(id NodeID) bool {
	return t.Valid(id) && t.nodes[id].Type == TextNode
}

// IsElement reports whether id is an element, optionally with the given tag.
func (t *Tree) IsElement(id NodeID, tag string) bool {
	if !t.Valid(id) || t.nodes[id].Type != ElementNode {
		return false
	}
	return tag == "" || t.nodes[id].Tag == tag
}

// Parent returns the parent of id or None.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.Valid(id) {
		return None
	}
	return t.nodes[id].Parent
}

// Children returns the child IDs of id in order.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.Valid(id) {
		return nil
	}
	var out []NodeID
	for c := t.nodes[id].FirstChild; c != None; c = t.nodes[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// Contains reports whether descendant is ancestor or lies beneath it.
func (t *Tree) Contains(ancestor, descendant NodeID) bool {
	if !t.Valid(ancestor) || !t.Valid(descendant) {
		return false
	}
	for n := descendant; n != None; n = t.nodes[n].Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// Attached reports whether id is reachable from the document root.
func (t *Tree) Attached(id NodeID) bool {
	return t.Contains(t.root, id)
}

// Closest returns the nearest inclusive ancestor of id matching pred, or None.
func (t *Tree) Closest(id NodeID, pred func(NodeID, *Node) bool) NodeID {
	if !t.Valid(id) {
		return None
	}
	for n := id; n != None; n = t.nodes[n].Parent {
		if pred(n, &t.nodes[n]) {
			return n
		}
	}
	return None
}

// Attr returns the value of an element attribute.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	if !t.Valid(id) {
		return "", false
	}
	for _, a := range t.nodes[id].Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an element attribute.
func (t *Tree) SetAttr(id NodeID, key, val string) error {
	if !t.IsElement(id, "") {
		return ErrNotElement
	}
	n := &t.nodes[id]
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return nil
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
	return nil
}

// AppendChild attaches child as the last child of parent, detaching it first if needed.
func (t *Tree) AppendChild(parent, child NodeID) error {
	return t.InsertBefore(parent, child, None)
}

// InsertBefore attaches child under parent before ref. A ref of None appends.
func (t *Tree) InsertBefore(parent, child, ref NodeID) error {
	if !t.Valid(parent) || !t.Valid(child) {
		return ErrInvalidNode
	}
	if ref != None && (!t.Valid(ref) || t.nodes[ref].Parent != parent) {
		return ErrInvalidNode
	}
	if pt := t.nodes[parent].Type; pt == TextNode || pt == CommentNode {
		return ErrHierarchy
	}
	if child == t.root || t.Contains(child, parent) {
		return ErrHierarchy
	}
	if ref == child {
		return nil
	}

	t.Remove(child)

	c := &t.nodes[child]
	c.Parent = parent
	c.NextSibling = ref
	if ref == None {
		c.PrevSibling = t.nodes[parent].LastChild
		if c.PrevSibling != None {
			t.nodes[c.PrevSibling].NextSibling = child
		} else {
			t.nodes[parent].FirstChild = child
		}
		t.nodes[parent].LastChild = child
		return nil
	}

	c.PrevSibling = t.nodes[ref].PrevSibling
	if c.PrevSibling != None {
		t.nodes[c.PrevSibling].NextSibling = child
	} else {
		t.nodes[parent].FirstChild = child
	}
	t.nodes[ref].PrevSibling = child
	return nil
}

// Remove detaches id from its parent. Its subtree stays intact.
func (t *Tree) Remove(id NodeID) {
	if !t.Valid(id) {
		return
	}
	n := &t.nodes[id]
	if n.Parent == None {
		return
	}
	if n.PrevSibling != None {
		t.nodes[n.PrevSibling].NextSibling = n.NextSibling
	} else {
		t.nodes[n.Parent].FirstChild = n.NextSibling
	}
	if n.NextSibling != None {
		t.nodes[n.NextSibling].PrevSibling = n.PrevSibling
	} else {
		t.nodes[n.Parent].LastChild = n.PrevSibling
	}
	n.Parent, n.PrevSibling, n.NextSibling = None, None, None
}

// Walk visits the subtree of root in document order (depth-first, pre-order).
// Returning false from fn skips the children of that node.
func (t *Tree) Walk(root NodeID, fn func(NodeID, *Node) bool) {
	if !t.Valid(root) {
		return
	}
	n := root
	for {
		descend := fn(n, &t.nodes[n])
		if descend && t.nodes[n].FirstChild != None {
			n = t.nodes[n].FirstChild
			continue
		}
		for n != root && t.nodes[n].NextSibling == None {
			n = t.nodes[n].Parent
		}
		if n == root {
			return
		}
		n = t.nodes[n].NextSibling
	}
}

// TextContent concatenates every text node under id, including hidden ones.
func (t *Tree) TextContent(id NodeID) string {
	var buf []byte
	t.Walk(id, func(_ NodeID, n *Node) bool {
		if n.Type == TextNode {
			buf = append(buf, n.Data...)
		}
		return true
	})
	return string(buf)
}

// TextLen returns the length of a text node in runes.
func (t *Tree) TextLen(id NodeID) int {
	if !t.IsText(id) {
		return 0
	}
	return utf8.RuneCountInString(t.nodes[id].Data)
}
