package js

import (
	"sync"

	"github.com/dop251/goja"
)

// eventListener represents a registered event listener.
type eventListener struct {
	id       int
	callback goja.Callable
	value    goja.Value // Original value for comparison
	once     bool
}

// EventTarget manages event listeners for a target.
type EventTarget struct {
	listeners map[string][]eventListener
	nextID    int
	mu        sync.RWMutex
}

// NewEventTarget creates a new EventTarget.
func NewEventTarget() *EventTarget {
	return &EventTarget{
		listeners: make(map[string][]eventListener),
	}
}

// AddEventListener registers an event listener. It returns false when the
// same function is already registered for the type.
func (et *EventTarget) AddEventListener(eventType string, callback goja.Callable, value goja.Value, once bool) bool {
	et.mu.Lock()
	defer et.mu.Unlock()

	for _, l := range et.listeners[eventType] {
		if l.value.SameAs(value) {
			return false
		}
	}

	et.nextID++
	et.listeners[eventType] = append(et.listeners[eventType], eventListener{
		id:       et.nextID,
		callback: callback,
		value:    value,
		once:     once,
	})
	return true
}

// RemoveEventListener unregisters an event listener. It returns true when
// a listener was removed.
func (et *EventTarget) RemoveEventListener(eventType string, value goja.Value) bool {
	et.mu.Lock()
	defer et.mu.Unlock()

	listeners := et.listeners[eventType]
	for i, l := range listeners {
		if l.value.SameAs(value) {
			et.listeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
			return true
		}
	}
	return false
}

// DispatchEvent calls every listener registered for the event's type when
// dispatch starts, with this set to thisObj. It returns false if a listener
// called preventDefault on a cancelable event.
func (et *EventTarget) DispatchEvent(r *Runtime, thisObj goja.Value, event *goja.Object) bool {
	et.mu.RLock()
	eventType := event.Get("type").String()
	listeners := make([]eventListener, len(et.listeners[eventType]))
	copy(listeners, et.listeners[eventType])
	et.mu.RUnlock()

	for _, l := range listeners {
		if l.once {
			et.removeByID(eventType, l.id)
		}

		r.call(l.callback, thisObj, event)

		if stopImmediate := event.Get("_stopImmediate"); stopImmediate != nil && stopImmediate.ToBoolean() {
			break
		}
	}

	if defaultPrevented := event.Get("defaultPrevented"); defaultPrevented != nil {
		return !defaultPrevented.ToBoolean()
	}
	return true
}

func (et *EventTarget) removeByID(eventType string, id int) {
	et.mu.Lock()
	defer et.mu.Unlock()
	listeners := et.listeners[eventType]
	for i, l := range listeners {
		if l.id == id {
			et.listeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
			return
		}
	}
}

// HasEventListeners returns true if there are any listeners for the event type.
func (et *EventTarget) HasEventListeners(eventType string) bool {
	et.mu.RLock()
	defer et.mu.RUnlock()
	return len(et.listeners[eventType]) > 0
}

// SpecialEvent customizes how listeners for one event type are attached.
// Setup runs when the first listener for the type is added to a target and
// Teardown when the last one is removed. Both return true when the host
// should also bind a native listener; synthetic events return false.
type SpecialEvent interface {
	Setup(target any) bool
	Teardown(target any) bool
}

// EventBinder adds event handling to JS objects. Targets are keyed by the
// Go value the JS object wraps, so every binding of one element shares its
// listeners.
type EventBinder struct {
	runtime   *Runtime
	targetMap map[any]*EventTarget
	special   map[string]SpecialEvent
	mu        sync.RWMutex
}

// NewEventBinder creates a new event binder.
func NewEventBinder(runtime *Runtime) *EventBinder {
	return &EventBinder{
		runtime:   runtime,
		targetMap: make(map[any]*EventTarget),
		special:   make(map[string]SpecialEvent),
	}
}

// RegisterSpecialEvent installs hooks for an event type.
func (eb *EventBinder) RegisterSpecialEvent(eventType string, hooks SpecialEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.special[eventType] = hooks
}

func (eb *EventBinder) specialEvent(eventType string) SpecialEvent {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.special[eventType]
}

// GetOrCreateTarget gets or creates the EventTarget for key.
func (eb *EventBinder) GetOrCreateTarget(key any) *EventTarget {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if target, ok := eb.targetMap[key]; ok {
		return target
	}

	target := NewEventTarget()
	eb.targetMap[key] = target
	return target
}

// BindEventTarget adds addEventListener, removeEventListener and
// dispatchEvent to obj, storing listeners under key.
func (eb *EventBinder) BindEventTarget(obj *goja.Object, key any) {
	vm := eb.runtime.vm

	obj.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}

		eventType := call.Arguments[0].String()
		callback, ok := goja.AssertFunction(call.Arguments[1])
		if !ok {
			return goja.Undefined()
		}

		once := false
		if len(call.Arguments) > 2 {
			if opts, ok := call.Arguments[2].(*goja.Object); ok {
				if v := opts.Get("once"); v != nil {
					once = v.ToBoolean()
				}
			}
		}

		target := eb.GetOrCreateTarget(key)
		first := !target.HasEventListeners(eventType)
		if target.AddEventListener(eventType, callback, call.Arguments[1], once) && first {
			if hooks := eb.specialEvent(eventType); hooks != nil {
				hooks.Setup(key)
			}
		}
		return goja.Undefined()
	})

	obj.Set("removeEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}

		eventType := call.Arguments[0].String()
		target := eb.GetOrCreateTarget(key)
		if target.RemoveEventListener(eventType, call.Arguments[1]) && !target.HasEventListeners(eventType) {
			if hooks := eb.specialEvent(eventType); hooks != nil {
				hooks.Teardown(key)
			}
		}
		return goja.Undefined()
	})

	obj.Set("dispatchEvent", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'dispatchEvent': 1 argument required"))
		}
		event, ok := call.Arguments[0].(*goja.Object)
		if !ok {
			panic(vm.NewTypeError("Failed to execute 'dispatchEvent': parameter 1 is not of type 'Event'"))
		}
		event.Set("target", obj)
		event.Set("currentTarget", obj)
		return vm.ToValue(eb.GetOrCreateTarget(key).DispatchEvent(eb.runtime, obj, event))
	})
}

// Dispatch creates an event of eventType and dispatches it on the target
// stored under key, with this set to obj.
func (eb *EventBinder) Dispatch(obj *goja.Object, key any, eventType string) bool {
	event := eb.CreateEvent(eventType, false)
	event.Set("target", obj)
	event.Set("currentTarget", obj)
	return eb.GetOrCreateTarget(key).DispatchEvent(eb.runtime, obj, event)
}

// CreateEvent creates a new Event object.
func (eb *EventBinder) CreateEvent(eventType string, cancelable bool) *goja.Object {
	vm := eb.runtime.vm
	event := vm.NewObject()

	event.Set("type", eventType)
	event.Set("target", goja.Null())
	event.Set("currentTarget", goja.Null())
	event.Set("cancelable", cancelable)
	event.Set("defaultPrevented", false)
	event.Set("timeStamp", float64(0))

	// Internal flags
	event.Set("_stopImmediate", false)

	event.Set("preventDefault", func(call goja.FunctionCall) goja.Value {
		if event.Get("cancelable").ToBoolean() {
			event.Set("defaultPrevented", true)
		}
		return goja.Undefined()
	})

	event.Set("stopImmediatePropagation", func(call goja.FunctionCall) goja.Value {
		event.Set("_stopImmediate", true)
		return goja.Undefined()
	})

	return event
}

// SetupEventConstructors sets up the Event constructor on the global object.
func (eb *EventBinder) SetupEventConstructors() {
	vm := eb.runtime.vm

	vm.Set("Event", func(call goja.ConstructorCall) *goja.Object {
		eventType := ""
		if len(call.Arguments) > 0 {
			eventType = call.Arguments[0].String()
		}

		cancelable := false
		if len(call.Arguments) > 1 {
			if opts, ok := call.Arguments[1].(*goja.Object); ok {
				if v := opts.Get("cancelable"); v != nil && !goja.IsUndefined(v) {
					cancelable = v.ToBoolean()
				}
			}
		}

		return eb.CreateEvent(eventType, cancelable)
	})
}

// ClearTargets clears all event target registrations.
func (eb *EventBinder) ClearTargets() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.targetMap = make(map[any]*EventTarget)
}
