package ui

import (
	"sync"

	"fyne.io/fyne/v2"

	"github.com/chrisuehlinger/expose/expose"
)

// MainQueue posts tasks to the Fyne main goroutine in FIFO order. Tasks
// never run inside Post, even when Post is called on the main goroutine.
type MainQueue struct {
	loop *expose.Loop
	do   func(func())

	mu        sync.Mutex
	scheduled bool
}

// NewMainQueue creates a queue running its tasks with fyne.Do.
func NewMainQueue() *MainQueue {
	return newMainQueue(fyne.Do)
}

func newMainQueue(do func(func())) *MainQueue {
	return &MainQueue{loop: expose.NewLoop(), do: do}
}

// Post queues task and schedules a drain if none is pending.
func (q *MainQueue) Post(task func()) {
	q.loop.Post(task)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.scheduled {
		return
	}
	q.scheduled = true
	// The goroutine hop keeps the drain out of the caller's stack.
	go q.do(q.drain)
}

func (q *MainQueue) drain() {
	q.mu.Lock()
	q.scheduled = false
	q.mu.Unlock()
	q.loop.Drain()
}

// Pending returns the number of tasks waiting to run.
func (q *MainQueue) Pending() int {
	return q.loop.Pending()
}

// NewObserver creates an observer for objects inside s, attached to its
// scroll and resize signals, with callbacks run on the main goroutine.
// The returned function detaches the observer from s.
func NewObserver(s *Scroll, opts ...expose.Option) (*expose.Observer[fyne.CanvasObject], func()) {
	opts = append([]expose.Option{expose.WithQueue(NewMainQueue())}, opts...)
	o := expose.NewObserver[fyne.CanvasObject](NewScrollProvider(s), opts...)
	return o, o.Attach(s.OnScroll, s.OnResize)
}
