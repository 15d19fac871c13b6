// Package region provides the axis-aligned rectangle used for visibility
// checks and the overlap test between two rectangles.
package region

import "fmt"

// Mode selects how Overlaps compares two regions.
type Mode int

const (
	// Any reports true when the rectangles share at least one point.
	// Touching edges count.
	Any Mode = iota
	// Contained reports true when the second rectangle lies fully inside the first.
	Contained
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Any:
		return "any"
	case Contained:
		return "contained"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Region is an immutable rectangle in document coordinates.
// Width and Height always equal Right-Left and Bottom-Top.
type Region struct {
	left, top, right, bottom float64
}

// New creates a region from its top-left corner and size.
// A negative width or height grows the region to the left or upwards,
// the same way a DOMRect with negative dimensions does.
func New(left, top, width, height float64) Region {
	return FromEdges(left, top, left+width, top+height)
}

// FromEdges creates a region from its four edges.
// Swapped edges are normalized so the result is never inverted.
func FromEdges(left, top, right, bottom float64) Region {
	if right < left {
		left, right = right, left
	}
	if bottom < top {
		top, bottom = bottom, top
	}
	return Region{left: left, top: top, right: right, bottom: bottom}
}

// Left returns the left edge.
func (r Region) Left() float64 { return r.left }

// Top returns the top edge.
func (r Region) Top() float64 { return r.top }

// Right returns the right edge.
func (r Region) Right() float64 { return r.right }

// Bottom returns the bottom edge.
func (r Region) Bottom() float64 { return r.bottom }

// Width returns Right-Left.
func (r Region) Width() float64 { return r.right - r.left }

// Height returns Bottom-Top.
func (r Region) Height() float64 { return r.bottom - r.top }

func (r Region) String() string {
	return fmt.Sprintf("{left:%g top:%g right:%g bottom:%g}", r.left, r.top, r.right, r.bottom)
}

// Overlaps reports whether b is visible inside a under the given mode.
//
// Any is symmetric and boundary inclusive. Contained is true when b lies
// entirely within a. Zero-area regions are valid inputs for both modes.
func Overlaps(a, b Region, mode Mode) bool {
	if mode == Contained {
		return a.left <= b.left && a.right >= b.right &&
			a.top <= b.top && a.bottom >= b.bottom
	}
	return min(a.bottom, b.bottom) >= max(a.top, b.top) &&
		min(a.right, b.right) >= max(a.left, b.left)
}
