package dom

import (
	"errors"
	"testing"

	"github.com/chrisuehlinger/expose/region"
)

func TestNewDOMRect(t *testing.T) {
	rect := NewDOMRect(10, 20, 100, 50)
	if rect.X != 10 || rect.Y != 20 || rect.Width != 100 || rect.Height != 50 {
		t.Errorf("Unexpected rect %+v", rect)
	}
}

func TestDOMRect_Edges(t *testing.T) {
	rect := NewDOMRect(10, 20, 100, 50)
	if rect.Top() != 20 || rect.Left() != 10 || rect.Right() != 110 || rect.Bottom() != 70 {
		t.Errorf("Unexpected edges %v %v %v %v", rect.Top(), rect.Right(), rect.Bottom(), rect.Left())
	}

	neg := NewDOMRect(100, 100, -50, -30)
	if neg.Top() != 70 || neg.Left() != 50 || neg.Right() != 100 || neg.Bottom() != 100 {
		t.Errorf("Unexpected negative edges %v %v %v %v", neg.Top(), neg.Right(), neg.Bottom(), neg.Left())
	}
	if got := neg.Region(); got != region.FromEdges(50, 70, 100, 100) {
		t.Errorf("Expected normalized region, got %v", got)
	}
}

// layoutChain builds body > outer > inner with fixed geometry.
func layoutChain(t *testing.T) (*Document, *Element, *Element) {
	t.Helper()
	doc := NewDocument()
	root := doc.DocumentElement()
	body := doc.Body()
	outer := doc.CreateElement("div")
	inner := doc.CreateElement("div")
	body.AppendChild(outer)
	outer.AppendChild(inner)

	root.SetGeometry(&ElementGeometry{OffsetWidth: 1024, OffsetHeight: 3000})
	body.SetGeometry(&ElementGeometry{OffsetTop: 8, OffsetLeft: 8, OffsetWidth: 1008, OffsetHeight: 2984, OffsetParent: root})
	outer.SetGeometry(&ElementGeometry{OffsetTop: 100, OffsetLeft: 0, OffsetWidth: 500, OffsetHeight: 400, OffsetParent: body})
	inner.SetGeometry(&ElementGeometry{OffsetTop: 20, OffsetLeft: 30, OffsetWidth: 200, OffsetHeight: 50, OffsetParent: outer})
	return doc, outer, inner
}

func TestElement_PageOffset(t *testing.T) {
	_, _, inner := layoutChain(t)

	left, top, err := inner.PageOffset()
	if err != nil {
		t.Fatalf("PageOffset failed: %v", err)
	}
	if left != 38 || top != 128 {
		t.Errorf("Expected (38, 128), got (%v, %v)", left, top)
	}
}

func TestElement_Region(t *testing.T) {
	_, _, inner := layoutChain(t)

	r, err := inner.Region()
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if r != region.New(38, 128, 200, 50) {
		t.Errorf("Unexpected region %v", r)
	}
}

func TestElement_RegionDetached(t *testing.T) {
	doc, outer, inner := layoutChain(t)
	outer.Remove()

	if _, err := inner.Region(); !errors.Is(err, ErrInvalidStateError) {
		t.Errorf("Expected InvalidStateError for a detached element, got %v", err)
	}
	if _, err := doc.RegionOf(inner); err == nil {
		t.Error("Expected RegionOf to fail for a detached element")
	}
}

func TestElement_RegionWithoutLayout(t *testing.T) {
	doc, _, inner := layoutChain(t)
	inner.SetGeometry(nil)

	if _, err := doc.RegionOf(inner); !errors.Is(err, ErrInvalidStateError) {
		t.Errorf("Expected InvalidStateError for an unrendered element, got %v", err)
	}
	if r := inner.GetBoundingClientRect(); r.Width != 0 || r.Height != 0 {
		t.Errorf("Expected empty rect, got %+v", r)
	}
}

func TestDocument_RegionOfForeignElement(t *testing.T) {
	doc, _, _ := layoutChain(t)
	_, _, foreign := layoutChain(t)

	if _, err := doc.RegionOf(foreign); !errors.Is(err, ErrInvalidStateError) {
		t.Errorf("Expected InvalidStateError for another document's element, got %v", err)
	}
	if _, err := doc.RegionOf(nil); !errors.Is(err, ErrNotFoundError) {
		t.Errorf("Expected NotFoundError for nil, got %v", err)
	}
}

func TestElement_GetBoundingClientRect(t *testing.T) {
	doc, _, inner := layoutChain(t)
	doc.Window().ScrollTo(0, 100)

	r := inner.GetBoundingClientRect()
	if r.X != 38 || r.Y != 28 || r.Width != 200 || r.Height != 50 {
		t.Errorf("Unexpected client rect %+v", r)
	}
}
