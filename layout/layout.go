// Package layout handles the layout/box model calculations.
//
// Every rendered element is laid out as a block box: children stack
// vertically inside their parent's content box, widths fill the containing
// block unless set, and heights come from the style or the children.
// Margins do not collapse.
package layout

import (
	"github.com/chrisuehlinger/expose/css"
	"github.com/chrisuehlinger/expose/dom"
)

// Dimensions represents the dimensions of a layout box.
type Dimensions struct {
	Content Rect
	Padding EdgeSizes
	Border  EdgeSizes
	Margin  EdgeSizes
}

// Rect represents a rectangular area.
type Rect struct {
	X, Y, Width, Height float64
}

// EdgeSizes represents the sizes of edges (top, right, bottom, left).
type EdgeSizes struct {
	Top, Right, Bottom, Left float64
}

// LayoutBox represents a box in the layout tree.
type LayoutBox struct {
	Dimensions Dimensions
	Element    *dom.Element
	Children   []*LayoutBox
}

// PaddingBox returns the area covered by content and padding.
func (d *Dimensions) PaddingBox() Rect {
	return d.Content.ExpandedBy(d.Padding)
}

// BorderBox returns the area covered by content, padding, and border.
func (d *Dimensions) BorderBox() Rect {
	return d.PaddingBox().ExpandedBy(d.Border)
}

// MarginBox returns the area covered by content, padding, border, and margin.
func (d *Dimensions) MarginBox() Rect {
	return d.BorderBox().ExpandedBy(d.Margin)
}

// ExpandedBy returns a rectangle expanded by the given edge sizes.
func (r Rect) ExpandedBy(edge EdgeSizes) Rect {
	return Rect{
		X:      r.X - edge.Left,
		Y:      r.Y - edge.Top,
		Width:  r.Width + edge.Left + edge.Right,
		Height: r.Height + edge.Top + edge.Bottom,
	}
}

// Layout lays out the document against its window width and writes the
// resulting geometry onto every element. Elements with display:none, and
// their subtrees, get nil geometry.
func Layout(doc *dom.Document) *LayoutBox {
	viewport := Dimensions{Content: Rect{Width: doc.Window().InnerWidth()}}
	l := &layouter{styles: css.ResolverForDocument(doc)}
	return l.layoutBlock(doc.DocumentElement(), nil, viewport, 0)
}

// Attach re-runs Layout whenever the document's window is resized.
// Attach before any visibility observer so elements are re-measured after
// the new layout is in place.
func Attach(doc *dom.Document) (cancel func()) {
	return doc.Window().OnResize(func() {
		Layout(doc)
	})
}

type layouter struct {
	styles *css.StyleResolver
}

func (l *layouter) layoutBlock(el *dom.Element, parent *LayoutBox, containing Dimensions, cursorY float64) *LayoutBox {
	style := l.styles.ComputedStyle(el)
	if style.Display() == "none" {
		clearGeometry(el)
		return nil
	}

	box := &LayoutBox{Element: el}
	d := &box.Dimensions
	d.Margin = edges(style.Edges("margin", ""))
	d.Padding = edges(style.Edges("padding", ""))
	d.Border = edges(style.Edges("border", "-width"))

	d.Content.Width = explicitSize(el, style, "width")
	if d.Content.Width < 0 {
		d.Content.Width = containing.Content.Width -
			d.Margin.Left - d.Margin.Right -
			d.Border.Left - d.Border.Right -
			d.Padding.Left - d.Padding.Right
		d.Content.Width = max(d.Content.Width, 0)
	}
	d.Content.X = containing.Content.X + d.Margin.Left + d.Border.Left + d.Padding.Left
	d.Content.Y = cursorY + d.Margin.Top + d.Border.Top + d.Padding.Top

	childY := d.Content.Y
	for _, child := range el.Children() {
		childBox := l.layoutBlock(child, box, *d, childY)
		if childBox == nil {
			continue
		}
		box.Children = append(box.Children, childBox)
		childY += childBox.Dimensions.MarginBox().Height
	}

	d.Content.Height = explicitSize(el, style, "height")
	if d.Content.Height < 0 {
		d.Content.Height = childY - d.Content.Y
	}

	writeGeometry(box, parent)
	return box
}

// explicitSize returns the styled size, falling back to the width/height
// attribute (as on <img>), or -1 when the size is automatic.
func explicitSize(el *dom.Element, style css.Declarations, name string) float64 {
	if px, ok := style.Length(name); ok {
		return max(px, 0)
	}
	if px, ok := css.ParseLength(el.GetAttribute(name)); ok {
		return max(px, 0)
	}
	return -1
}

func writeGeometry(box *LayoutBox, parent *LayoutBox) {
	d := box.Dimensions
	border := d.BorderBox()
	padding := d.PaddingBox()

	geom := &dom.ElementGeometry{
		ContentWidth:  d.Content.Width,
		ContentHeight: d.Content.Height,
		PaddingTop:    d.Padding.Top,
		PaddingRight:  d.Padding.Right,
		PaddingBottom: d.Padding.Bottom,
		PaddingLeft:   d.Padding.Left,
		BorderTop:     d.Border.Top,
		BorderRight:   d.Border.Right,
		BorderBottom:  d.Border.Bottom,
		BorderLeft:    d.Border.Left,
		MarginTop:     d.Margin.Top,
		MarginRight:   d.Margin.Right,
		MarginBottom:  d.Margin.Bottom,
		MarginLeft:    d.Margin.Left,
		OffsetTop:     border.Y,
		OffsetLeft:    border.X,
		OffsetWidth:   border.Width,
		OffsetHeight:  border.Height,
		ClientWidth:   padding.Width,
		ClientHeight:  padding.Height,
	}
	if parent != nil {
		parentBorder := parent.Dimensions.BorderBox()
		geom.OffsetParent = parent.Element
		geom.OffsetTop -= parentBorder.Y
		geom.OffsetLeft -= parentBorder.X
	}
	box.Element.SetGeometry(geom)
}

func clearGeometry(el *dom.Element) {
	el.Walk(func(e *dom.Element) bool {
		e.SetGeometry(nil)
		return true
	})
}

func edges(top, right, bottom, left float64) EdgeSizes {
	return EdgeSizes{Top: top, Right: right, Bottom: bottom, Left: left}
}
