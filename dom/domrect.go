// Package dom provides the element tree the visibility tracker watches:
// documents, elements with layout geometry, and the window viewport.
package dom

import "github.com/chrisuehlinger/expose/region"

// DOMRect is a rectangle in viewport coordinates, as returned by
// GetBoundingClientRect. Width and Height may be negative; the edge
// accessors normalize them.
// https://drafts.fxtf.org/geometry/#DOMRect
type DOMRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewDOMRect creates a DOMRect.
func NewDOMRect(x, y, width, height float64) *DOMRect {
	return &DOMRect{X: x, Y: y, Width: width, Height: height}
}

// Region returns the rectangle as a normalized region.
func (r *DOMRect) Region() region.Region {
	return region.New(r.X, r.Y, r.Width, r.Height)
}

func (r *DOMRect) Top() float64    { return r.Region().Top() }
func (r *DOMRect) Right() float64  { return r.Region().Right() }
func (r *DOMRect) Bottom() float64 { return r.Region().Bottom() }
func (r *DOMRect) Left() float64   { return r.Region().Left() }
