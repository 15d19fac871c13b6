package js

import (
	"errors"
	"strings"

	"github.com/chrisuehlinger/expose/css"
	"github.com/chrisuehlinger/expose/dom"
	"github.com/dop251/goja"
)

// DOMBinder provides methods to bind DOM objects to JavaScript.
type DOMBinder struct {
	runtime    *Runtime
	events     *EventBinder
	elementMap map[*dom.Element]*goja.Object // Cache to return same JS object for same element
	document   *dom.Document                 // Current document for creating new elements

	onMutation     func()
	elementExtends []func(el *dom.Element, obj *goja.Object)
}

// NewDOMBinder creates a new DOM binder for the given runtime.
func NewDOMBinder(runtime *Runtime, events *EventBinder) *DOMBinder {
	return &DOMBinder{
		runtime:    runtime,
		events:     events,
		elementMap: make(map[*dom.Element]*goja.Object),
	}
}

// SetMutationHook sets a function called after scripts change the tree or
// an attribute, typically a relayout.
func (b *DOMBinder) SetMutationHook(fn func()) {
	b.onMutation = fn
}

// ExtendElements registers fn to add properties to every element binding.
// It applies to elements bound after the call.
func (b *DOMBinder) ExtendElements(fn func(el *dom.Element, obj *goja.Object)) {
	b.elementExtends = append(b.elementExtends, fn)
}

func (b *DOMBinder) mutated() {
	if b.onMutation != nil {
		b.onMutation()
	}
}

// BindDocument binds doc as the global document object.
func (b *DOMBinder) BindDocument(doc *dom.Document) *goja.Object {
	vm := b.runtime.vm
	b.document = doc
	jsDoc := vm.NewObject()
	jsDoc.Set("_goDocument", doc)

	jsDoc.DefineAccessorProperty("documentElement", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementValue(doc.DocumentElement())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsDoc.DefineAccessorProperty("head", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementValue(doc.Head())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsDoc.DefineAccessorProperty("body", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementValue(doc.Body())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsDoc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Null()
		}
		return b.elementValue(doc.GetElementById(call.Arguments[0].String()))
	})

	jsDoc.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return b.elementArray(nil)
		}
		return b.elementArray(doc.ElementsByTagName(call.Arguments[0].String()))
	})

	jsDoc.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return b.BindElement(doc.CreateElement(call.Arguments[0].String()))
	})

	b.bindQueryMethods(jsDoc, doc.DocumentElement)
	b.events.BindEventTarget(jsDoc, doc)

	vm.Set("document", jsDoc)
	return jsDoc
}

// BindWindow adds the viewport of win to the global window object and
// forwards scroll and resize signals to window listeners. The returned
// function stops forwarding.
func (b *DOMBinder) BindWindow(win *dom.Window) (unbind func()) {
	vm := b.runtime.vm
	window := b.runtime.window

	accessor := func(name string, get func() float64) {
		window.DefineAccessorProperty(name, vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(get())
		}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	accessor("innerWidth", win.InnerWidth)
	accessor("innerHeight", win.InnerHeight)
	accessor("outerWidth", win.InnerWidth)
	accessor("outerHeight", win.InnerHeight)
	accessor("scrollX", win.ScrollX)
	accessor("scrollY", win.ScrollY)
	accessor("pageXOffset", win.ScrollX)
	accessor("pageYOffset", win.ScrollY)

	window.Set("scrollTo", func(call goja.FunctionCall) goja.Value {
		x, y := scrollArgs(call, win.ScrollX(), win.ScrollY())
		win.ScrollTo(x, y)
		return goja.Undefined()
	})
	window.Set("scroll", window.Get("scrollTo"))

	window.Set("scrollBy", func(call goja.FunctionCall) goja.Value {
		x, y := scrollArgs(call, 0, 0)
		win.ScrollBy(x, y)
		return goja.Undefined()
	})

	window.Set("resizeTo", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("Failed to execute 'resizeTo' on 'Window': 2 arguments required"))
		}
		win.ResizeTo(call.Arguments[0].ToFloat(), call.Arguments[1].ToFloat())
		return goja.Undefined()
	})

	b.events.BindEventTarget(window, win)
	cancelScroll := win.OnScroll(func() {
		b.events.Dispatch(window, win, "scroll")
	})
	cancelResize := win.OnResize(func() {
		b.events.Dispatch(window, win, "resize")
	})
	return func() {
		cancelScroll()
		cancelResize()
	}
}

// scrollArgs reads (x, y) or ({left, top}) arguments. Missing members keep
// the given defaults.
func scrollArgs(call goja.FunctionCall, x, y float64) (float64, float64) {
	if len(call.Arguments) == 1 {
		if opts, ok := call.Arguments[0].(*goja.Object); ok {
			if v := opts.Get("left"); v != nil && !goja.IsUndefined(v) {
				x = v.ToFloat()
			}
			if v := opts.Get("top"); v != nil && !goja.IsUndefined(v) {
				y = v.ToFloat()
			}
			return x, y
		}
	}
	if len(call.Arguments) > 0 {
		x = call.Arguments[0].ToFloat()
	}
	if len(call.Arguments) > 1 {
		y = call.Arguments[1].ToFloat()
	}
	return x, y
}

// BindElement returns the JS object for el, creating it on first use.
func (b *DOMBinder) BindElement(el *dom.Element) *goja.Object {
	if el == nil {
		return nil
	}

	// Check cache
	if jsObj, ok := b.elementMap[el]; ok {
		return jsObj
	}

	vm := b.runtime.vm
	jsEl := vm.NewObject()
	b.elementMap[el] = jsEl

	// Store reference to the Go element
	jsEl.Set("_goElement", el)

	jsEl.DefineAccessorProperty("tagName", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(strings.ToUpper(el.TagName()))
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("id", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.Id())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			el.SetId(call.Arguments[0].String())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("className", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.ClassName())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			el.SetAttribute("class", call.Arguments[0].String())
			b.mutated()
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("textContent", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.Text())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			el.SetText(call.Arguments[0].String())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	b.bindAttributeMethods(jsEl, el)
	b.bindTreeMethods(jsEl, el)
	b.bindGeometry(jsEl, el)
	b.bindQueryMethods(jsEl, func() *dom.Element { return el })
	b.events.BindEventTarget(jsEl, el)

	for _, extend := range b.elementExtends {
		extend(el, jsEl)
	}
	return jsEl
}

func (b *DOMBinder) bindAttributeMethods(jsEl *goja.Object, el *dom.Element) {
	vm := b.runtime.vm

	jsEl.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'getAttribute' on 'Element': 1 argument required"))
		}
		name := call.Arguments[0].String()
		if !el.HasAttribute(name) {
			return goja.Null()
		}
		return vm.ToValue(el.GetAttribute(name))
	})

	jsEl.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("Failed to execute 'setAttribute' on 'Element': 2 arguments required"))
		}
		el.SetAttribute(call.Arguments[0].String(), call.Arguments[1].String())
		b.mutated()
		return goja.Undefined()
	})

	jsEl.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			el.RemoveAttribute(call.Arguments[0].String())
			b.mutated()
		}
		return goja.Undefined()
	})

	jsEl.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return vm.ToValue(false)
		}
		return vm.ToValue(el.HasAttribute(call.Arguments[0].String()))
	})
}

func (b *DOMBinder) bindTreeMethods(jsEl *goja.Object, el *dom.Element) {
	vm := b.runtime.vm

	jsEl.DefineAccessorProperty("parentElement", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementValue(el.ParentElement())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("children", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementArray(el.Children())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("firstElementChild", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementValue(el.FirstElementChild())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("isConnected", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.IsConnected())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child := b.requireElement(call, 0, "appendChild")
		if _, err := el.AppendChild(child); err != nil {
			b.throwError(err)
		}
		b.mutated()
		return call.Arguments[0]
	})

	jsEl.Set("insertBefore", func(call goja.FunctionCall) goja.Value {
		child := b.requireElement(call, 0, "insertBefore")
		var ref *dom.Element
		if len(call.Arguments) > 1 {
			ref = b.getGoElement(call.Arguments[1])
		}
		if _, err := el.InsertBefore(child, ref); err != nil {
			b.throwError(err)
		}
		b.mutated()
		return call.Arguments[0]
	})

	jsEl.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		child := b.requireElement(call, 0, "removeChild")
		if _, err := el.RemoveChild(child); err != nil {
			b.throwError(err)
		}
		b.mutated()
		return call.Arguments[0]
	})

	jsEl.Set("remove", func(call goja.FunctionCall) goja.Value {
		el.Remove()
		b.mutated()
		return goja.Undefined()
	})

	jsEl.Set("contains", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return vm.ToValue(false)
		}
		other := b.getGoElement(call.Arguments[0])
		return vm.ToValue(other != nil && el.Contains(other))
	})
}

func (b *DOMBinder) bindGeometry(jsEl *goja.Object, el *dom.Element) {
	vm := b.runtime.vm

	accessor := func(name string, get func() float64) {
		jsEl.DefineAccessorProperty(name, vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(get())
		}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	accessor("offsetTop", el.OffsetTop)
	accessor("offsetLeft", el.OffsetLeft)
	accessor("offsetWidth", el.OffsetWidth)
	accessor("offsetHeight", el.OffsetHeight)

	jsEl.DefineAccessorProperty("offsetParent", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementValue(el.OffsetParent())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.Set("getBoundingClientRect", func(call goja.FunctionCall) goja.Value {
		rect := el.GetBoundingClientRect()
		obj := vm.NewObject()
		obj.Set("x", rect.X)
		obj.Set("y", rect.Y)
		obj.Set("width", rect.Width)
		obj.Set("height", rect.Height)
		obj.Set("top", rect.Top())
		obj.Set("right", rect.Right())
		obj.Set("bottom", rect.Bottom())
		obj.Set("left", rect.Left())
		return obj
	})
}

// bindQueryMethods adds querySelector and querySelectorAll searching the
// descendants of root().
func (b *DOMBinder) bindQueryMethods(obj *goja.Object, root func() *dom.Element) {
	obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		el, err := css.QuerySelector(root(), b.selectorArg(call, "querySelector"))
		if err != nil {
			b.throwError(err)
		}
		return b.elementValue(el)
	})

	obj.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		els, err := css.QuerySelectorAll(root(), b.selectorArg(call, "querySelectorAll"))
		if err != nil {
			b.throwError(err)
		}
		return b.elementArray(els)
	})
}

func (b *DOMBinder) selectorArg(call goja.FunctionCall, method string) string {
	if len(call.Arguments) < 1 {
		panic(b.runtime.vm.NewTypeError("Failed to execute '" + method + "': 1 argument required"))
	}
	return call.Arguments[0].String()
}

// QueryElements resolves a selector string against the bound document.
func (b *DOMBinder) QueryElements(selector string) ([]*dom.Element, error) {
	if b.document == nil {
		return nil, dom.ErrInvalidState("no document is bound")
	}
	return css.QuerySelectorAll(b.document.DocumentElement(), selector)
}

// getGoElement returns the element wrapped by v, or nil.
func (b *DOMBinder) getGoElement(v goja.Value) *dom.Element {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	goEl := obj.Get("_goElement")
	if goEl == nil {
		return nil
	}
	el, _ := goEl.Export().(*dom.Element)
	return el
}

func (b *DOMBinder) requireElement(call goja.FunctionCall, idx int, method string) *dom.Element {
	if len(call.Arguments) <= idx {
		panic(b.runtime.vm.NewTypeError("Failed to execute '" + method + "' on 'Element': 1 argument required"))
	}
	el := b.getGoElement(call.Arguments[idx])
	if el == nil {
		panic(b.runtime.vm.NewTypeError("Failed to execute '" + method + "' on 'Element': parameter 1 is not of type 'Element'"))
	}
	return el
}

func (b *DOMBinder) elementValue(el *dom.Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	return b.BindElement(el)
}

func (b *DOMBinder) elementArray(els []*dom.Element) goja.Value {
	arr := make([]any, len(els))
	for i, el := range els {
		arr[i] = b.BindElement(el)
	}
	return b.runtime.vm.NewArray(arr...)
}

// throwError throws err as a JS exception. DOM errors keep their name.
func (b *DOMBinder) throwError(err error) {
	vm := b.runtime.vm
	var domErr *dom.DOMError
	if !errors.As(err, &domErr) {
		panic(vm.NewGoError(err))
	}
	exc, ctorErr := vm.New(vm.Get("Error"), vm.ToValue(domErr.Message))
	if ctorErr != nil {
		panic(vm.NewGoError(err))
	}
	exc.Set("name", domErr.Name)
	panic(exc)
}

// ClearCache drops all cached element bindings.
func (b *DOMBinder) ClearCache() {
	b.elementMap = make(map[*dom.Element]*goja.Object)
}
