package expose

// SpecialEvent adapts an Observer to a host event system with per-target
// listener lists, like the "expose" event in the js package. The host calls
// Setup when the first listener for the event is attached to a target and
// Trigger delivers the event to that target's listeners once it is visible.
type SpecialEvent[T comparable] struct {
	Observer *Observer[T]
	Trigger  Callback[T]
}

// Setup registers target with the same immediate-check-then-track logic as
// Observer.Register. It returns false: the event is synthetic and the host
// must not bind a native listener for it.
func (e SpecialEvent[T]) Setup(target T) bool {
	if _, err := e.Observer.Register([]T{target}, e.Trigger); err != nil {
		e.Observer.logger.Printf("expose: special event setup: %v", err)
	}
	return false
}

// Teardown is called when the last listener is removed. Pending
// registrations are left to fire; it returns false for the same reason as
// Setup.
func (e SpecialEvent[T]) Teardown(target T) bool {
	return false
}
