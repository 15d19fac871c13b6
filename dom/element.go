package dom

import (
	"strings"

	"github.com/chrisuehlinger/expose/region"
)

// TagName returns the lowercase tag name.
func (e *Element) TagName() string {
	return e.tagName
}

// Text returns the concatenated text of the element's direct text
// children, such as the source of a <script> or <style> element.
func (e *Element) Text() string {
	return e.text
}

// SetText replaces the element's direct text.
func (e *Element) SetText(text string) {
	e.text = text
}

// Id returns the id attribute.
func (e *Element) Id() string {
	return e.GetAttribute("id")
}

// SetId sets the id attribute.
func (e *Element) SetId(id string) {
	e.SetAttribute("id", id)
}

// ClassName returns the class attribute.
func (e *Element) ClassName() string {
	return e.GetAttribute("class")
}

// HasClass reports whether the class attribute contains name.
func (e *Element) HasClass(name string) bool {
	for _, c := range strings.Fields(e.ClassName()) {
		if c == name {
			return true
		}
	}
	return false
}

// Attributes returns a copy of the element's attributes in source order.
func (e *Element) Attributes() []Attribute {
	return append([]Attribute(nil), e.attributes...)
}

// GetAttribute returns the value of the named attribute, or "".
func (e *Element) GetAttribute(name string) string {
	v, _ := e.lookupAttribute(name)
	return v
}

// HasAttribute reports whether the named attribute is present.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.lookupAttribute(name)
	return ok
}

func (e *Element) lookupAttribute(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range e.attributes {
		if a.Key == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttribute sets the named attribute, replacing any existing value.
func (e *Element) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	for i, a := range e.attributes {
		if a.Key == name {
			e.attributes[i].Value = value
			return
		}
	}
	e.attributes = append(e.attributes, Attribute{Key: name, Value: value})
}

// RemoveAttribute removes the named attribute if present.
func (e *Element) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	for i, a := range e.attributes {
		if a.Key == name {
			e.attributes = append(e.attributes[:i], e.attributes[i+1:]...)
			return
		}
	}
}

// Geometry returns the element's layout geometry.
// Returns nil if layout has not been computed or the element is not rendered.
func (e *Element) Geometry() *ElementGeometry {
	return e.geometry
}

// SetGeometry sets the element's layout geometry.
// This is called by the layout engine after layout computation.
func (e *Element) SetGeometry(g *ElementGeometry) {
	e.geometry = g
}

// OffsetWidth returns the layout width including padding and border.
func (e *Element) OffsetWidth() float64 {
	if e.geometry == nil {
		return 0
	}
	return e.geometry.OffsetWidth
}

// OffsetHeight returns the layout height including padding and border.
func (e *Element) OffsetHeight() float64 {
	if e.geometry == nil {
		return 0
	}
	return e.geometry.OffsetHeight
}

// OffsetTop returns the distance from the top of the offset parent.
func (e *Element) OffsetTop() float64 {
	if e.geometry == nil {
		return 0
	}
	return e.geometry.OffsetTop
}

// OffsetLeft returns the distance from the left of the offset parent.
func (e *Element) OffsetLeft() float64 {
	if e.geometry == nil {
		return 0
	}
	return e.geometry.OffsetLeft
}

// OffsetParent returns the offset parent element.
func (e *Element) OffsetParent() *Element {
	if e.geometry == nil {
		return nil
	}
	return e.geometry.OffsetParent
}

// PageOffset returns the border box's top-left corner in document
// coordinates, summing offsets up the offset parent chain.
func (e *Element) PageOffset() (left, top float64, err error) {
	if !e.IsConnected() {
		return 0, 0, ErrInvalidState("<" + e.tagName + "> is not connected to a document")
	}
	for n := e; n != nil; n = n.geometry.OffsetParent {
		if n.geometry == nil {
			return 0, 0, ErrInvalidState("<" + n.tagName + "> has no layout box")
		}
		left += n.geometry.OffsetLeft
		top += n.geometry.OffsetTop
	}
	return left, top, nil
}

// Region returns the element's outer (border box) region in document
// coordinates. Detached or unrendered elements return an InvalidStateError.
func (e *Element) Region() (region.Region, error) {
	left, top, err := e.PageOffset()
	if err != nil {
		return region.Region{}, err
	}
	return region.New(left, top, e.geometry.OffsetWidth, e.geometry.OffsetHeight), nil
}

// GetBoundingClientRect returns a DOMRect representing the element's border
// box relative to the viewport. Returns a zero-sized rect when the element
// cannot be measured.
func (e *Element) GetBoundingClientRect() *DOMRect {
	left, top, err := e.PageOffset()
	if err != nil {
		return NewDOMRect(0, 0, 0, 0)
	}
	win := e.ownerDoc.Window()
	return NewDOMRect(left-win.ScrollX(), top-win.ScrollY(), e.geometry.OffsetWidth, e.geometry.OffsetHeight)
}
