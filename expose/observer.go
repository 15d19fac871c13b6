// Package expose fires one-shot callbacks when watched targets enter a
// viewport.
//
// An Observer owns a TrackedSet of pending registrations. Registering a
// target checks it once against the live viewport: a visible target fires
// right away, otherwise it is tracked. Every viewport change signal (scroll,
// resize, the initial Start) runs a pass over the tracked set; registrations
// found visible are removed and their callbacks posted to a TaskQueue, so a
// callback never runs inside the pass that found it.
//
// Passes are not debounced by default: every signal runs a full pass.
// WithCoalescing trades that for one pass per burst of signals.
//
// An Observer is not safe for concurrent use. Drive it, and drain its task
// queue, from a single goroutine.
package expose

import (
	"io"
	"log"
	"time"

	"github.com/bep/debounce"
)

// Signal subscribes a handler to a viewport change source and returns a
// function that cancels the subscription. dom.Window's OnScroll and
// OnResize have this shape.
type Signal func(handler func()) (cancel func())

// Stats reports observer activity.
type Stats struct {
	Passes  int // passes run
	Fired   int // registrations fired
	Tracked int // registrations currently tracked
}

// Option configures an Observer.
type Option func(*options)

type options struct {
	queue    TaskQueue
	logger   *log.Logger
	coalesce time.Duration
}

// WithQueue sets the task queue callbacks are posted to. The default is a
// private Loop reachable through Observer.Loop.
func WithQueue(q TaskQueue) Option {
	return func(o *options) { o.queue = q }
}

// WithLogger sets the logger for skipped measurements and recovered
// callback panics. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCoalescing collapses viewport signals arriving within d of each other
// into one pass, posted to the task queue after the burst ends.
func WithCoalescing(d time.Duration) Option {
	return func(o *options) { o.coalesce = d }
}

// Observer watches targets of type T against one viewport.
type Observer[T comparable] struct {
	provider   RegionProvider[T]
	set        *TrackedSet[T]
	dispatcher *Dispatcher[T]
	queue      TaskQueue
	loop       *Loop
	logger     *log.Logger
	debounced  func(func())

	passing bool
	rerun   bool
	passes  int
}

// NewObserver creates an observer measuring with provider.
func NewObserver[T comparable](provider RegionProvider[T], opts ...Option) *Observer[T] {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard, "", 0)
	}

	o := &Observer[T]{
		provider: provider,
		queue:    cfg.queue,
		logger:   cfg.logger,
	}
	if o.queue == nil {
		o.loop = NewLoop()
		o.queue = o.loop
	} else if l, ok := o.queue.(*Loop); ok {
		o.loop = l
	}
	o.set = NewTrackedSet(provider, o.logger)
	o.dispatcher = NewDispatcher[T](o.queue, o.logger)
	if cfg.coalesce > 0 {
		o.debounced = debounce.New(cfg.coalesce)
	}
	return o
}

// Loop returns the observer's Loop, or nil when WithQueue supplied a queue
// of another type.
func (o *Observer[T]) Loop() *Loop {
	return o.loop
}

// Register watches each target with cb. Targets already in view fire at
// once; the rest are tracked until a pass finds them visible. A nil cb is
// rejected with ErrInvalidCallback before anything is registered. No
// targets is a no-op.
func (o *Observer[T]) Register(targets []T, cb Callback[T]) ([]*Registration[T], error) {
	if cb == nil {
		return nil, InvalidCallback("no callback function provided")
	}
	if len(targets) == 0 {
		return nil, nil
	}

	viewport, err := o.provider.ViewportRegion()
	regs := make([]*Registration[T], 0, len(targets))
	for _, target := range targets {
		reg := newRegistration(target, cb)
		regs = append(regs, reg)
		if err != nil {
			// Without a viewport nothing can be visible yet.
			reg.state = StateTracked
			o.set.items = append(o.set.items, reg)
			continue
		}
		if o.set.Track(reg, viewport) == AlreadyVisible {
			o.dispatcher.Fire(reg)
		}
	}
	if err != nil {
		o.logger.Printf("expose: viewport unavailable at registration, tracking %d targets: %v", len(targets), err)
	}
	return regs, nil
}

// Start runs the initial pass.
func (o *Observer[T]) Start() {
	o.runPass()
}

// ViewportMayHaveChanged runs a pass over the tracked set. A pass requested
// while one is running is run right after it instead of nesting.
func (o *Observer[T]) ViewportMayHaveChanged() {
	if o.debounced != nil {
		o.debounced(func() {
			o.queue.Post(o.runPass)
		})
		return
	}
	o.runPass()
}

// Attach subscribes the observer to viewport change signals. The returned
// function cancels every subscription.
func (o *Observer[T]) Attach(signals ...Signal) (detach func()) {
	cancels := make([]func(), 0, len(signals))
	for _, sig := range signals {
		cancels = append(cancels, sig(o.ViewportMayHaveChanged))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func (o *Observer[T]) runPass() {
	if o.passing {
		o.rerun = true
		return
	}
	o.passing = true
	defer func() { o.passing = false }()

	for {
		o.rerun = false
		o.pass()
		if !o.rerun {
			return
		}
	}
}

func (o *Observer[T]) pass() {
	viewport, err := o.provider.ViewportRegion()
	if err != nil {
		o.logger.Printf("expose: skipping pass, viewport cannot be measured: %v", err)
		return
	}
	o.passes++
	for _, reg := range o.set.ProcessOnce(viewport) {
		o.dispatcher.Fire(reg)
	}
}

// Tracked returns the observer's tracked set.
func (o *Observer[T]) Tracked() *TrackedSet[T] {
	return o.set
}

// Stats returns activity counters.
func (o *Observer[T]) Stats() Stats {
	return Stats{
		Passes:  o.passes,
		Fired:   o.dispatcher.Fired(),
		Tracked: o.set.Len(),
	}
}
