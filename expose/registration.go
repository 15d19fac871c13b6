package expose

import (
	"github.com/chrisuehlinger/expose/region"
	"github.com/google/uuid"
)

// Callback is invoked once when its target becomes visible.
type Callback[T comparable] func(target T)

// State is the lifecycle position of a registration.
type State int

const (
	// StateRegistered is a registration that has not been checked yet.
	StateRegistered State = iota
	// StateTracked is waiting in a TrackedSet for its target to become visible.
	StateTracked
	// StateFired has had its callback handed to the dispatcher. It never
	// leaves this state.
	StateFired
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateTracked:
		return "tracked"
	case StateFired:
		return "fired"
	default:
		return "unknown"
	}
}

// Registration is one pending visibility callback for one target.
// Registrations of the same target are independent of each other.
type Registration[T comparable] struct {
	ID     uuid.UUID
	Target T

	callback Callback[T]
	state    State

	// cached region, valid when measured is true
	region   region.Region
	measured bool

	// set during a pass when the registration is found visible
	removed bool
}

func newRegistration[T comparable](target T, cb Callback[T]) *Registration[T] {
	return &Registration[T]{
		ID:       uuid.New(),
		Target:   target,
		callback: cb,
		state:    StateRegistered,
	}
}

// State returns the registration's lifecycle state.
func (r *Registration[T]) State() State {
	return r.state
}

// CachedRegion returns the last measured region of the target. ok is false
// when the target has not been measured successfully since it was tracked
// or since its last failed measurement.
func (r *Registration[T]) CachedRegion() (reg region.Region, ok bool) {
	return r.region, r.measured
}
