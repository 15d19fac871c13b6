package ui

import (
	"errors"

	"fyne.io/fyne/v2"

	"github.com/chrisuehlinger/expose/region"
)

var (
	// ErrNotLaidOut is returned while the scroll has no size.
	ErrNotLaidOut = errors.New("ui: scroll has not been laid out")
	// ErrNotInContent is returned for objects outside the scroll content.
	ErrNotInContent = errors.New("ui: object is not inside the scroll content")
	// ErrHidden is returned for hidden objects and objects in hidden
	// containers.
	ErrHidden = errors.New("ui: object is hidden")
)

// ScrollProvider measures objects inside a Scroll. Regions are in content
// coordinates: the viewport is the scroll offset extended by the scroll
// size, and an object's region is its position accumulated through the
// containers between it and the content.
type ScrollProvider struct {
	scroll *Scroll
}

// NewScrollProvider creates a provider for objects inside s.
func NewScrollProvider(s *Scroll) *ScrollProvider {
	return &ScrollProvider{scroll: s}
}

// ViewportRegion returns the visible part of the content.
func (p *ScrollProvider) ViewportRegion() (region.Region, error) {
	size := p.scroll.Size()
	if size.IsZero() {
		return region.Region{}, ErrNotLaidOut
	}
	offset := p.scroll.Offset()
	return region.New(float64(offset.X), float64(offset.Y), float64(size.Width), float64(size.Height)), nil
}

// RegionOf returns obj's bounds within the content. Only *fyne.Container
// children are searched; objects inside other widgets cannot be found.
func (p *ScrollProvider) RegionOf(obj fyne.CanvasObject) (region.Region, error) {
	if obj == nil {
		return region.Region{}, ErrNotInContent
	}
	content := p.scroll.Content()
	var pos fyne.Position
	if obj != content {
		var err error
		if pos, err = locate(content, obj); err != nil {
			return region.Region{}, err
		}
	}
	if !content.Visible() || !obj.Visible() {
		return region.Region{}, ErrHidden
	}
	size := obj.Size()
	return region.New(float64(pos.X), float64(pos.Y), float64(size.Width), float64(size.Height)), nil
}

// locate returns target's position relative to parent's origin.
func locate(parent, target fyne.CanvasObject) (fyne.Position, error) {
	c, ok := parent.(*fyne.Container)
	if !ok {
		return fyne.Position{}, ErrNotInContent
	}
	for _, child := range c.Objects {
		if child == target {
			return child.Position(), nil
		}
		pos, err := locate(child, target)
		if errors.Is(err, ErrNotInContent) {
			continue
		}
		if err != nil {
			return fyne.Position{}, err
		}
		if !child.Visible() {
			return fyne.Position{}, ErrHidden
		}
		return child.Position().Add(pos), nil
	}
	return fyne.Position{}, ErrNotInContent
}
