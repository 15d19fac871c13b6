// Package ui connects the visibility tracker to Fyne: a scroll container
// whose scroll and resize changes can be observed, a region provider for
// the objects inside it and a task queue that runs callbacks on the Fyne
// main goroutine.
package ui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type listener struct {
	id int
	fn func()
}

// Scroll is a scroll container that notifies subscribers when its offset
// or size changes.
type Scroll struct {
	widget.BaseWidget

	scroll     *container.Scroll
	lastOffset fyne.Position

	mu       sync.Mutex
	nextID   int
	onScroll []listener
	onResize []listener
}

// NewScroll creates a scroll container around content scrolling in both
// directions.
func NewScroll(content fyne.CanvasObject) *Scroll {
	return newScroll(container.NewScroll(content))
}

// NewVScroll creates a vertically scrolling container around content.
func NewVScroll(content fyne.CanvasObject) *Scroll {
	return newScroll(container.NewVScroll(content))
}

func newScroll(inner *container.Scroll) *Scroll {
	s := &Scroll{scroll: inner}
	inner.OnScrolled = func(fyne.Position) {
		s.offsetChanged()
	}
	s.ExtendBaseWidget(s)
	return s
}

// CreateRenderer is a private method to Fyne which links this widget to
// its renderer.
func (s *Scroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.scroll)
}

// Content returns the scrolled object.
func (s *Scroll) Content() fyne.CanvasObject {
	return s.scroll.Content
}

// Offset returns the current scroll offset.
func (s *Scroll) Offset() fyne.Position {
	return s.scroll.Offset
}

// Resize sets the visible size and notifies resize subscribers when it
// changed.
func (s *Scroll) Resize(size fyne.Size) {
	if size == s.Size() {
		return
	}
	s.BaseWidget.Resize(size)
	s.dispatch(&s.onResize)
}

// ScrollTo moves the offset, clamped to the scrollable range of the
// content.
func (s *Scroll) ScrollTo(offset fyne.Position) {
	limit := s.maxOffset()
	offset.X = max(min(offset.X, limit.X), 0)
	offset.Y = max(min(offset.Y, limit.Y), 0)
	if offset == s.scroll.Offset {
		return
	}
	s.scroll.Offset = offset
	s.scroll.Refresh()
	s.offsetChanged()
}

func (s *Scroll) maxOffset() fyne.Position {
	size := s.scroll.Size()
	content := s.scroll.Content.MinSize().Max(size)
	return fyne.NewPos(content.Width-size.Width, content.Height-size.Height)
}

// offsetChanged notifies scroll subscribers once per distinct offset, no
// matter whether the change came from ScrollTo or from user input.
func (s *Scroll) offsetChanged() {
	if s.scroll.Offset == s.lastOffset {
		return
	}
	s.lastOffset = s.scroll.Offset
	s.dispatch(&s.onScroll)
}

// OnScroll subscribes fn to offset changes and returns a cancel function.
func (s *Scroll) OnScroll(fn func()) (cancel func()) {
	return s.subscribe(&s.onScroll, fn)
}

// OnResize subscribes fn to size changes and returns a cancel function.
func (s *Scroll) OnResize(fn func()) (cancel func()) {
	return s.subscribe(&s.onResize, fn)
}

func (s *Scroll) subscribe(list *[]listener, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	*list = append(*list, listener{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range *list {
			if l.id == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

func (s *Scroll) dispatch(list *[]listener) {
	s.mu.Lock()
	listeners := make([]listener, len(*list))
	copy(listeners, *list)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn()
	}
}
