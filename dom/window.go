package dom

import (
	"sync"

	"github.com/chrisuehlinger/expose/region"
)

// Default viewport size for new windows.
const (
	DefaultInnerWidth  = 1024
	DefaultInnerHeight = 768
)

type listener struct {
	id int
	fn func()
}

// Window is the viewport onto a document. It owns the scroll position and
// viewport size, and notifies subscribers when either changes.
type Window struct {
	doc         *Document
	innerWidth  float64
	innerHeight float64
	scrollX     float64
	scrollY     float64

	mu       sync.Mutex
	nextID   int
	onScroll []listener
	onResize []listener
}

func newWindow(doc *Document) *Window {
	return &Window{
		doc:         doc,
		innerWidth:  DefaultInnerWidth,
		innerHeight: DefaultInnerHeight,
	}
}

// Document returns the displayed document.
func (w *Window) Document() *Document {
	return w.doc
}

// InnerWidth returns the viewport width.
func (w *Window) InnerWidth() float64 { return w.innerWidth }

// InnerHeight returns the viewport height.
func (w *Window) InnerHeight() float64 { return w.innerHeight }

// ScrollX returns the horizontal scroll offset.
func (w *Window) ScrollX() float64 { return w.scrollX }

// ScrollY returns the vertical scroll offset.
func (w *Window) ScrollY() float64 { return w.scrollY }

// Region returns the visible part of the document:
// {scrollX, scrollY, scrollX+innerWidth, scrollY+innerHeight}.
func (w *Window) Region() region.Region {
	return region.New(w.scrollX, w.scrollY, w.innerWidth, w.innerHeight)
}

// ScrollTo moves the viewport. Offsets are clamped to the scrollable range
// when the document has been laid out, and to zero otherwise. Scroll
// listeners run only when the position actually changes.
func (w *Window) ScrollTo(x, y float64) {
	x, y = w.clampScroll(x, y)
	if x == w.scrollX && y == w.scrollY {
		return
	}
	w.scrollX, w.scrollY = x, y
	w.dispatch(&w.onScroll)
}

// ScrollBy moves the viewport relative to its current position.
func (w *Window) ScrollBy(dx, dy float64) {
	w.ScrollTo(w.scrollX+dx, w.scrollY+dy)
}

func (w *Window) clampScroll(x, y float64) (float64, float64) {
	if root := w.doc.documentElement; root != nil && root.geometry != nil {
		x = min(x, root.geometry.OffsetWidth-w.innerWidth)
		y = min(y, root.geometry.OffsetHeight-w.innerHeight)
	}
	return max(x, 0), max(y, 0)
}

// ResizeTo changes the viewport size and notifies resize listeners. The
// scroll position is then re-clamped against the relaid-out document; if
// that moves it, scroll listeners are notified as well.
func (w *Window) ResizeTo(width, height float64) {
	width, height = max(width, 0), max(height, 0)
	if width == w.innerWidth && height == w.innerHeight {
		return
	}
	w.innerWidth, w.innerHeight = width, height
	w.dispatch(&w.onResize)

	x, y := w.clampScroll(w.scrollX, w.scrollY)
	if x == w.scrollX && y == w.scrollY {
		return
	}
	w.scrollX, w.scrollY = x, y
	w.dispatch(&w.onScroll)
}

// OnScroll subscribes fn to scroll changes and returns a cancel function.
func (w *Window) OnScroll(fn func()) (cancel func()) {
	return w.subscribe(&w.onScroll, fn)
}

// OnResize subscribes fn to viewport size changes and returns a cancel function.
// Listeners run in subscription order, so a layout pass subscribed first
// has completed before later listeners measure elements.
func (w *Window) OnResize(fn func()) (cancel func()) {
	return w.subscribe(&w.onResize, fn)
}

func (w *Window) subscribe(list *[]listener, fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	id := w.nextID
	*list = append(*list, listener{id: id, fn: fn})
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, l := range *list {
			if l.id == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return
			}
		}
	}
}

func (w *Window) dispatch(list *[]listener) {
	w.mu.Lock()
	listeners := make([]listener, len(*list))
	copy(listeners, *list)
	w.mu.Unlock()

	for _, l := range listeners {
		l.fn()
	}
}
