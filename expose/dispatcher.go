package expose

import "log"

// Dispatcher hands fired callbacks to a task queue so they run after the
// current pass or registration returns, never inside it.
type Dispatcher[T comparable] struct {
	queue  TaskQueue
	logger *log.Logger
	fired  int
}

// NewDispatcher creates a dispatcher posting to queue.
func NewDispatcher[T comparable](queue TaskQueue, logger *log.Logger) *Dispatcher[T] {
	return &Dispatcher[T]{queue: queue, logger: logger}
}

// Fire marks reg fired and schedules its callback. It returns false when reg
// had already fired; a registration's callback is scheduled at most once.
// Callbacks fired in one pass run in the order Fire was called. A panicking
// callback is recovered and logged.
func (d *Dispatcher[T]) Fire(reg *Registration[T]) bool {
	if reg.state == StateFired {
		return false
	}
	reg.state = StateFired
	cb := reg.callback
	reg.callback = nil
	d.fired++

	id, target := reg.ID, reg.Target
	d.queue.Post(func() {
		defer func() {
			if p := recover(); p != nil {
				d.logger.Printf("expose: callback for %s panicked: %v", id, p)
			}
		}()
		cb(target)
	})
	return true
}

// Fired returns how many registrations have been fired.
func (d *Dispatcher[T]) Fired() int {
	return d.fired
}
