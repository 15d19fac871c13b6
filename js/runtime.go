// Package js runs page scripts against the dom tree with the goja
// JavaScript engine (pure Go ES5.1+ implementation), and exposes the
// visibility tracker to them.
package js

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chrisuehlinger/expose/expose"
	"github.com/dop251/goja"
)

// Runtime wraps a goja JavaScript runtime with browser-specific functionality.
type Runtime struct {
	vm        *goja.Runtime
	window    *goja.Object
	console   *goja.Object
	timers    *timerManager
	eventLoop *eventLoop
	logger    *log.Logger

	// mu serializes script execution; errMu guards the error list, which is
	// also appended to from callbacks running inside a script.
	mu      sync.Mutex
	errMu   sync.Mutex
	errors  []error
	onError func(error)
}

// NewRuntime creates a new JavaScript runtime. Console output goes to
// stdout until SetLogger is called.
func NewRuntime() *Runtime {
	vm := goja.New()

	r := &Runtime{
		vm:        vm,
		timers:    newTimerManager(),
		eventLoop: newEventLoop(),
		logger:    log.New(os.Stdout, "", 0),
		errors:    make([]error, 0),
	}

	// Set up global objects
	r.setupConsole()
	r.setupTimers()
	r.setupWindow()

	return r
}

// VM returns the underlying goja runtime.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// Queue returns the runtime's macrotask queue. Visibility callbacks posted
// to it run from RunEventLoop.
func (r *Runtime) Queue() expose.TaskQueue {
	return r.eventLoop
}

// SetLogger sets the logger console output is written to.
func (r *Runtime) SetLogger(l *log.Logger) {
	r.logger = l
}

// SetOnError sets a callback for JavaScript errors.
func (r *Runtime) SetOnError(handler func(error)) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.onError = handler
}

// Execute runs JavaScript code and returns the result.
func (r *Runtime) Execute(code string) (result goja.Value, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Recover from panics in the goja parser/runtime
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script execution panic: %v", p)
			r.reportError(err)
		}
	}()

	result, err = r.vm.RunString(code)
	if err != nil {
		r.reportError(err)
	}
	return result, err
}

// ExecuteScript runs JavaScript code from a script element.
// Errors are reported and returned but do not stop later scripts.
func (r *Runtime) ExecuteScript(code, src string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Recover from panics in the goja parser/compiler
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script compilation panic in %s: %v", src, p)
			r.reportError(err)
		}
	}()

	program, err := goja.Compile(src, code, false)
	if err != nil {
		r.reportError(err)
		return err
	}

	_, err = r.vm.RunProgram(program)
	if err != nil {
		r.reportError(err)
	}
	return err
}

// call invokes a JS function outside of Execute, reporting any exception
// instead of propagating it.
func (r *Runtime) call(fn goja.Callable, this goja.Value, args ...goja.Value) (goja.Value, bool) {
	result, err := fn(this, args...)
	if err != nil {
		r.reportError(err)
		return goja.Undefined(), false
	}
	return result, true
}

func (r *Runtime) reportError(err error) {
	r.errMu.Lock()
	r.errors = append(r.errors, err)
	handler := r.onError
	r.errMu.Unlock()

	if handler != nil {
		handler(err)
	}
}

// Errors returns all errors that occurred during execution.
func (r *Runtime) Errors() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return append([]error{}, r.errors...)
}

// ClearErrors clears the error list.
func (r *Runtime) ClearErrors() {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.errors = r.errors[:0]
}

// RunEventLoop runs microtasks and due timers, then one macrotask.
// Returns true if a macrotask ran.
func (r *Runtime) RunEventLoop() bool {
	return r.eventLoop.runOnce(r)
}

// RunUntilIdle runs the event loop until no tasks are queued. Pending
// timers are waited for as long as they fall due within maxWait of the
// call. Returns the number of macrotasks run.
func (r *Runtime) RunUntilIdle(maxWait time.Duration) int {
	deadline := time.Now().Add(maxWait)
	ran := 0
	for {
		if r.RunEventLoop() {
			ran++
			continue
		}
		if r.eventLoop.hasPending() {
			continue
		}
		if !r.timers.hasPending() {
			return ran
		}
		wait := r.timers.nextDueTime()
		if time.Now().Add(wait).After(deadline) {
			return ran
		}
		time.Sleep(wait)
	}
}

// HasPendingWork returns true if there are timers or callbacks waiting.
func (r *Runtime) HasPendingWork() bool {
	return r.timers.hasPending() || r.eventLoop.hasPending()
}

// Reset drops pending tasks and timers.
func (r *Runtime) Reset() {
	r.eventLoop.clear()
	r.timers.clear()
}

// setupConsole creates the console object with log, warn, error, etc.
func (r *Runtime) setupConsole() {
	console := r.vm.NewObject()

	levels := []struct{ name, prefix string }{
		{"log", ""},
		{"warn", "[WARN] "},
		{"error", "[ERROR] "},
		{"info", "[INFO] "},
		{"debug", "[DEBUG] "},
	}
	for _, level := range levels {
		prefix := level.prefix
		console.Set(level.name, func(call goja.FunctionCall) goja.Value {
			r.logger.Print(prefix + formatArgs(call.Arguments))
			return goja.Undefined()
		})
	}

	// console.assert
	console.Set("assert", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || !call.Arguments[0].ToBoolean() {
			args := "Assertion failed"
			if len(call.Arguments) > 1 {
				args = formatArgs(call.Arguments[1:])
			}
			r.logger.Print("[ASSERT] " + args)
		}
		return goja.Undefined()
	})

	// console.count
	counts := make(map[string]int)
	console.Set("count", func(call goja.FunctionCall) goja.Value {
		label := "default"
		if len(call.Arguments) > 0 {
			label = call.Arguments[0].String()
		}
		counts[label]++
		r.logger.Printf("%s: %d", label, counts[label])
		return goja.Undefined()
	})

	r.console = console
	r.vm.Set("console", console)
}

// setupTimers creates setTimeout, setInterval, clearTimeout, clearInterval
// and queueMicrotask.
func (r *Runtime) setupTimers() {
	schedule := func(call goja.FunctionCall, repeat bool) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			return goja.Undefined()
		}

		delay := int64(0)
		if len(call.Arguments) > 1 {
			delay = max(call.Arguments[1].ToInteger(), 0)
		}

		// Get additional arguments to pass to callback
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = call.Arguments[2:]
		}

		d := time.Duration(delay) * time.Millisecond
		if repeat {
			// Minimum interval of 4ms per HTML spec
			d = max(d, 4*time.Millisecond)
			return r.vm.ToValue(r.timers.setInterval(callback, d, args))
		}
		return r.vm.ToValue(r.timers.setTimeout(callback, d, args))
	}
	clearTimer := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			r.timers.clearTimer(int(call.Arguments[0].ToInteger()))
		}
		return goja.Undefined()
	}

	r.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return schedule(call, false)
	})
	r.vm.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		return schedule(call, true)
	})
	r.vm.Set("clearTimeout", clearTimer)
	r.vm.Set("clearInterval", clearTimer)

	r.vm.Set("queueMicrotask", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			panic(r.vm.NewTypeError("Failed to execute 'queueMicrotask': parameter 1 is not of type 'Function'"))
		}
		r.eventLoop.queueMicrotask(func() {
			r.call(callback, goja.Undefined())
		})
		return goja.Undefined()
	})
}

// setupWindow makes the global object the window. The document's viewport
// properties are bound later by DOMBinder.BindWindow.
func (r *Runtime) setupWindow() {
	// Use the global object as window/self/globalThis
	// so properties set on window are available globally.
	window := r.vm.GlobalObject()

	r.vm.Set("window", window)
	r.vm.Set("self", window)
	r.vm.Set("globalThis", window)

	window.Set("devicePixelRatio", 1.0)

	// window.performance (basic)
	performance := r.vm.NewObject()
	startTime := time.Now()
	performance.Set("now", func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(float64(time.Since(startTime).Nanoseconds()) / 1e6)
	})
	performance.Set("timeOrigin", float64(startTime.UnixNano())/1e6)
	window.Set("performance", performance)

	r.window = window
}

// formatArgs formats function call arguments for console output.
func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatValue(arg)
	}
	return strings.Join(parts, " ")
}

// formatValue formats a single value for output.
func formatValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	return v.String()
}
