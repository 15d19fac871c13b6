package js

import (
	"strconv"
	"strings"
	"time"

	"github.com/chrisuehlinger/expose/dom"
	"github.com/chrisuehlinger/expose/expose"
	"github.com/chrisuehlinger/expose/layout"
)

// ScriptExecutor loads a document into a runtime: it lays the page out,
// creates the page's visibility observer, binds the DOM and runs the
// page's scripts.
type ScriptExecutor struct {
	runtime      *Runtime
	domBinder    *DOMBinder
	eventBinder  *EventBinder
	exposeBinder *ExposeBinder

	currentDocument *dom.Document
	observer        *expose.Observer[*dom.Element]
	observerOpts    []expose.Option
	detach          []func()
}

// NewScriptExecutor creates a new script executor.
func NewScriptExecutor(runtime *Runtime) *ScriptExecutor {
	eventBinder := NewEventBinder(runtime)
	eventBinder.SetupEventConstructors()

	return &ScriptExecutor{
		runtime:     runtime,
		domBinder:   NewDOMBinder(runtime, eventBinder),
		eventBinder: eventBinder,
	}
}

// Runtime returns the JavaScript runtime.
func (se *ScriptExecutor) Runtime() *Runtime {
	return se.runtime
}

// DOMBinder returns the DOM binder.
func (se *ScriptExecutor) DOMBinder() *DOMBinder {
	return se.domBinder
}

// EventBinder returns the event binder.
func (se *ScriptExecutor) EventBinder() *EventBinder {
	return se.eventBinder
}

// Observer returns the current document's visibility observer, or nil
// before SetupDocument.
func (se *ScriptExecutor) Observer() *expose.Observer[*dom.Element] {
	return se.observer
}

// Document returns the current document.
func (se *ScriptExecutor) Document() *dom.Document {
	return se.currentDocument
}

// SetObserverOptions sets extra options for observers created by later
// SetupDocument calls. Callbacks are always posted to the runtime's queue.
func (se *ScriptExecutor) SetObserverOptions(opts ...expose.Option) {
	se.observerOpts = opts
}

// SetupDocument lays out doc, creates its observer and binds document and
// window to the runtime. Bindings of a previous document are released.
func (se *ScriptExecutor) SetupDocument(doc *dom.Document) {
	se.release()
	se.domBinder.ClearCache()
	se.domBinder.elementExtends = nil
	se.eventBinder.ClearTargets()
	se.currentDocument = doc
	win := doc.Window()

	// Layout subscribes first so resize passes measure the new geometry.
	layout.Layout(doc)
	se.detach = append(se.detach, layout.Attach(doc))

	opts := append([]expose.Option{expose.WithQueue(se.runtime.Queue())}, se.observerOpts...)
	se.observer = expose.NewObserver[*dom.Element](doc, opts...)
	se.detach = append(se.detach, se.observer.Attach(win.OnScroll, win.OnResize))

	se.domBinder.SetMutationHook(func() {
		layout.Layout(doc)
	})

	se.exposeBinder = NewExposeBinder(se.runtime, se.domBinder, se.eventBinder, doc, se.observer)
	se.exposeBinder.Bind()

	se.domBinder.BindDocument(doc)
	se.detach = append(se.detach, se.domBinder.BindWindow(win))
}

// ExecuteScripts runs every inline script of doc in document order.
// A failing script does not stop later ones; all errors are returned.
func (se *ScriptExecutor) ExecuteScripts(doc *dom.Document) []error {
	var errs []error
	for i, script := range doc.ElementsByTagName("script") {
		if err := se.executeScript(script, i); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// executeScript executes a single script element.
func (se *ScriptExecutor) executeScript(script *dom.Element, index int) error {
	// Check if this is JavaScript (or has no type, which defaults to JavaScript)
	scriptType := script.GetAttribute("type")
	if scriptType != "" && scriptType != "text/javascript" && scriptType != "application/javascript" {
		return nil
	}

	// External scripts are not fetched
	if script.GetAttribute("src") != "" {
		return nil
	}

	code := strings.TrimSpace(script.Text())
	if code == "" {
		return nil
	}

	// Get script location for error reporting
	name := script.Id()
	if name == "" {
		name = "inline-" + strconv.Itoa(index)
	}
	return se.runtime.ExecuteScript(code, name)
}

// DispatchDOMContentLoaded dispatches DOMContentLoaded on the document,
// then runs the observer's initial pass.
func (se *ScriptExecutor) DispatchDOMContentLoaded() {
	if se.currentDocument == nil {
		return
	}
	jsDoc := se.runtime.vm.Get("document").ToObject(se.runtime.vm)
	se.eventBinder.Dispatch(jsDoc, se.currentDocument, "DOMContentLoaded")
	se.observer.Start()
}

// Load sets up doc, runs its scripts and signals that the document is
// ready. Script errors are returned; they do not stop the load.
func (se *ScriptExecutor) Load(doc *dom.Document) []error {
	se.SetupDocument(doc)
	errs := se.ExecuteScripts(doc)
	se.DispatchDOMContentLoaded()
	return errs
}

// RunEventLoop runs queued work until the runtime is idle, waiting at most
// maxWait for pending timers. Returns the number of tasks run.
func (se *ScriptExecutor) RunEventLoop(maxWait time.Duration) int {
	return se.runtime.RunUntilIdle(maxWait)
}

// RunEventLoopOnce runs one iteration of the event loop.
func (se *ScriptExecutor) RunEventLoopOnce() bool {
	return se.runtime.RunEventLoop()
}

func (se *ScriptExecutor) release() {
	for _, fn := range se.detach {
		fn()
	}
	se.detach = nil
}

// Cleanup detaches the current document and clears caches, pending tasks
// and errors.
func (se *ScriptExecutor) Cleanup() {
	se.release()
	se.domBinder.ClearCache()
	se.eventBinder.ClearTargets()
	se.runtime.Reset()
	se.runtime.ClearErrors()
}
