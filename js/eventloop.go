package js

import (
	"sync"
)

// eventLoop manages the JavaScript event loop for microtasks and macrotasks.
// It is the task queue visibility callbacks are posted to, so they run as
// macrotasks after the script or signal that found them visible returns.
type eventLoop struct {
	microtasks []func()
	macrotasks []func()
	mu         sync.Mutex
}

// newEventLoop creates a new event loop.
func newEventLoop() *eventLoop {
	return &eventLoop{
		microtasks: make([]func(), 0),
		macrotasks: make([]func(), 0),
	}
}

// queueMicrotask adds a microtask to the queue.
// Microtasks are executed before the next macrotask.
func (el *eventLoop) queueMicrotask(task func()) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.microtasks = append(el.microtasks, task)
}

// Post adds a macrotask to the queue. It never runs the task synchronously.
func (el *eventLoop) Post(task func()) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.macrotasks = append(el.macrotasks, task)
}

// runOnce processes one iteration of the event loop.
// It drains all microtasks, runs due timers, then executes one macrotask.
// Returns true if a macrotask ran.
func (el *eventLoop) runOnce(r *Runtime) bool {
	el.drainMicrotasks()

	r.timers.process(r)
	el.drainMicrotasks()

	el.mu.Lock()
	if len(el.macrotasks) == 0 {
		el.mu.Unlock()
		return false
	}
	t := el.macrotasks[0]
	el.macrotasks = el.macrotasks[1:]
	el.mu.Unlock()

	t()
	el.drainMicrotasks()
	return true
}

func (el *eventLoop) drainMicrotasks() {
	for {
		el.mu.Lock()
		if len(el.microtasks) == 0 {
			el.mu.Unlock()
			return
		}
		t := el.microtasks[0]
		el.microtasks = el.microtasks[1:]
		el.mu.Unlock()

		t()
	}
}

// hasPending returns true if there are any pending tasks.
func (el *eventLoop) hasPending() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.microtasks) > 0 || len(el.macrotasks) > 0
}

// clear removes all pending tasks.
func (el *eventLoop) clear() {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.microtasks = el.microtasks[:0]
	el.macrotasks = el.macrotasks[:0]
}
