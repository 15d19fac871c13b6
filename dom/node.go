package dom

import (
	"strings"
)

// ElementGeometry holds computed layout geometry for an element.
// This is set during layout computation and read by region lookups.
type ElementGeometry struct {
	// Box model dimensions
	ContentWidth, ContentHeight                          float64
	PaddingTop, PaddingRight, PaddingBottom, PaddingLeft float64
	BorderTop, BorderRight, BorderBottom, BorderLeft     float64
	MarginTop, MarginRight, MarginBottom, MarginLeft     float64

	// Border box position relative to OffsetParent (or the document when nil)
	OffsetTop, OffsetLeft     float64
	OffsetWidth, OffsetHeight float64
	OffsetParent              *Element

	// Padding box size
	ClientWidth, ClientHeight float64
}

// Attribute is a name/value pair on an element.
type Attribute struct {
	Key   string
	Value string
}

// Element is a node in the document tree. Text nodes are folded into their
// parent's text and comments are dropped; only elements take part in layout
// and visibility tracking.
type Element struct {
	tagName    string
	attributes []Attribute
	text       string
	ownerDoc   *Document
	parent     *Element
	children   []*Element

	// Layout geometry - set during layout computation
	geometry *ElementGeometry
}

func newElement(tagName string, ownerDoc *Document) *Element {
	return &Element{
		tagName:  strings.ToLower(tagName),
		ownerDoc: ownerDoc,
	}
}

// ParentElement returns the parent element, or nil.
func (e *Element) ParentElement() *Element {
	return e.parent
}

// Children returns a copy of the element's children.
func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// FirstElementChild returns the first child, or nil.
func (e *Element) FirstElementChild() *Element {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

// AppendChild adds child as the last child of e, detaching it from its
// previous parent first.
func (e *Element) AppendChild(child *Element) (*Element, error) {
	if child == nil {
		return nil, ErrHierarchyRequest("cannot append a nil element")
	}
	if child.Contains(e) {
		return nil, ErrHierarchyRequest("the new child element contains the parent")
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	return child, nil
}

// InsertBefore inserts child before ref. A nil ref appends.
func (e *Element) InsertBefore(child, ref *Element) (*Element, error) {
	if ref == nil {
		return e.AppendChild(child)
	}
	if ref.parent != e {
		return nil, ErrNotFound("the reference element is not a child of this element")
	}
	if child == nil || child.Contains(e) {
		return nil, ErrHierarchyRequest("the new child element contains the parent")
	}
	if child == ref {
		return child, nil
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	idx := e.indexOf(ref)
	e.children = append(e.children, nil)
	copy(e.children[idx+1:], e.children[idx:])
	e.children[idx] = child
	child.parent = e
	return child, nil
}

// RemoveChild detaches child from e.
func (e *Element) RemoveChild(child *Element) (*Element, error) {
	if child == nil || child.parent != e {
		return nil, ErrNotFound("the element to be removed is not a child of this element")
	}
	e.removeChild(child)
	return child, nil
}

// Remove detaches e from its parent, if any.
func (e *Element) Remove() {
	if e.parent != nil {
		e.parent.removeChild(e)
	}
}

func (e *Element) removeChild(child *Element) {
	if idx := e.indexOf(child); idx >= 0 {
		e.children = append(e.children[:idx], e.children[idx+1:]...)
	}
	child.parent = nil
}

func (e *Element) indexOf(child *Element) int {
	for i, c := range e.children {
		if c == child {
			return i
		}
	}
	return -1
}

// IsConnected reports whether the element is attached to its document's tree.
func (e *Element) IsConnected() bool {
	if e.ownerDoc == nil {
		return false
	}
	root := e
	for root.parent != nil {
		root = root.parent
	}
	return root == e.ownerDoc.documentElement
}

// Walk calls fn for e and every descendant in document order.
// Returning false from fn skips the element's subtree.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.children {
		c.Walk(fn)
	}
}
