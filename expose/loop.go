package expose

import "sync"

// TaskQueue schedules work for a later turn of the host's event loop.
// Post must not run the task synchronously.
type TaskQueue interface {
	Post(task func())
}

// Loop is a FIFO task queue drained by its owner. Post is safe to call from
// any goroutine; RunOnce and Drain must be called from the goroutine that
// owns the observers using this loop.
type Loop struct {
	mu    sync.Mutex
	tasks []func()
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{tasks: make([]func(), 0)}
}

// Post queues a task for the next turn.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, task)
}

// RunOnce runs the tasks that were queued when it was called, in order.
// Tasks posted while they run wait for the next turn.
// Returns the number of tasks run.
func (l *Loop) RunOnce() int {
	l.mu.Lock()
	batch := l.tasks
	l.tasks = make([]func(), 0)
	l.mu.Unlock()

	for _, task := range batch {
		task()
	}
	return len(batch)
}

// Drain runs turns until the queue is empty and returns the total number of
// tasks run.
func (l *Loop) Drain() int {
	total := 0
	for l.Pending() > 0 {
		total += l.RunOnce()
	}
	return total
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}
