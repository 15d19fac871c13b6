package js

import (
	"errors"
	"strconv"

	"github.com/chrisuehlinger/expose/dom"
	"github.com/chrisuehlinger/expose/expose"
	"github.com/chrisuehlinger/expose/region"
	"github.com/dop251/goja"
)

// ExposeEventType is the synthetic event fired on an element the first
// time it is found inside the viewport.
const ExposeEventType = "expose"

// ExposeBinder makes an element observer available to scripts: the global
// expose function, element.onExpose, the "expose" event and the region
// helpers getRegion, inRegion and getViewportRegion.
type ExposeBinder struct {
	runtime  *Runtime
	dom      *DOMBinder
	events   *EventBinder
	document *dom.Document
	observer *expose.Observer[*dom.Element]
}

// NewExposeBinder creates a binder registering with observer.
func NewExposeBinder(runtime *Runtime, domBinder *DOMBinder, events *EventBinder, doc *dom.Document, observer *expose.Observer[*dom.Element]) *ExposeBinder {
	return &ExposeBinder{
		runtime:  runtime,
		dom:      domBinder,
		events:   events,
		document: doc,
		observer: observer,
	}
}

// elementEvent adapts the generic special event to the event binder, whose
// targets are keyed by arbitrary Go values.
type elementEvent struct {
	special expose.SpecialEvent[*dom.Element]
}

func (e elementEvent) Setup(target any) bool {
	el, ok := target.(*dom.Element)
	if !ok {
		return false
	}
	return e.special.Setup(el)
}

func (e elementEvent) Teardown(target any) bool {
	el, ok := target.(*dom.Element)
	if !ok {
		return false
	}
	return e.special.Teardown(el)
}

// Bind installs the globals, the element extensions and the "expose"
// event hooks. Call it before any element is bound.
func (x *ExposeBinder) Bind() {
	vm := x.runtime.vm

	x.events.RegisterSpecialEvent(ExposeEventType, elementEvent{
		special: expose.SpecialEvent[*dom.Element]{
			Observer: x.observer,
			Trigger: func(el *dom.Element) {
				x.events.Dispatch(x.dom.BindElement(el), el, ExposeEventType)
			},
		},
	})

	x.dom.ExtendElements(x.extendElement)

	exposeFn := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'expose': 2 arguments required"))
		}
		targets := x.resolveTargets(call.Arguments[0])
		x.register(targets, call.Argument(1))
		return x.dom.elementArray(targets)
	}).(*goja.Object)

	exposeFn.Set("tracked", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(x.observer.Tracked().Len())
	})
	exposeFn.Set("refresh", func(call goja.FunctionCall) goja.Value {
		x.observer.ViewportMayHaveChanged()
		return goja.Undefined()
	})
	vm.Set("expose", exposeFn)

	x.runtime.window.Set("getViewportRegion", func(call goja.FunctionCall) goja.Value {
		viewport, err := x.document.ViewportRegion()
		if err != nil {
			x.dom.throwError(err)
		}
		return x.regionValue(viewport)
	})
}

func (x *ExposeBinder) extendElement(el *dom.Element, obj *goja.Object) {
	vm := x.runtime.vm

	obj.Set("onExpose", func(call goja.FunctionCall) goja.Value {
		x.register([]*dom.Element{el}, call.Argument(0))
		return obj
	})

	obj.Set("getRegion", func(call goja.FunctionCall) goja.Value {
		return x.regionValue(x.measure(el))
	})

	obj.Set("inRegion", func(call goja.FunctionCall) goja.Value {
		r := x.measure(el)
		other, ok := x.regionArg(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("Failed to execute 'inRegion': parameter 1 is not a region or an element"))
		}
		mode := region.Any
		if call.Argument(1).ToBoolean() {
			mode = region.Contained
		}
		return vm.ToValue(region.Overlaps(other, r, mode))
	})
}

// register adds a visibility registration calling fn with this set to the
// element. A non-function fn throws a TypeError naming InvalidCallback.
func (x *ExposeBinder) register(targets []*dom.Element, fn goja.Value) {
	callback, ok := goja.AssertFunction(fn)
	var cb expose.Callback[*dom.Element]
	if ok {
		cb = func(el *dom.Element) {
			jsEl := x.dom.BindElement(el)
			x.runtime.call(callback, jsEl, jsEl)
		}
	}
	if _, err := x.observer.Register(targets, cb); err != nil {
		var exposeErr *expose.Error
		if errors.As(err, &exposeErr) {
			panic(x.runtime.vm.NewTypeError(exposeErr.Error()))
		}
		x.dom.throwError(err)
	}
}

// resolveTargets accepts a selector string, an element or an array of
// elements.
func (x *ExposeBinder) resolveTargets(v goja.Value) []*dom.Element {
	if el := x.dom.getGoElement(v); el != nil {
		return []*dom.Element{el}
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Array" {
		var targets []*dom.Element
		length := obj.Get("length").ToInteger()
		for i := int64(0); i < length; i++ {
			if el := x.dom.getGoElement(obj.Get(strconv.FormatInt(i, 10))); el != nil {
				targets = append(targets, el)
			}
		}
		return targets
	}
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	targets, err := x.dom.QueryElements(v.String())
	if err != nil {
		x.dom.throwError(err)
	}
	return targets
}

// regionArg reads an element or a {left, top, right, bottom} object.
// Missing right or bottom edges are derived from width and height.
func (x *ExposeBinder) regionArg(v goja.Value) (region.Region, bool) {
	if el := x.dom.getGoElement(v); el != nil {
		r, err := x.document.RegionOf(el)
		if err != nil {
			x.dom.throwError(err)
		}
		return r, true
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return region.Region{}, false
	}
	num := func(name string) (float64, bool) {
		val := obj.Get(name)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			return 0, false
		}
		return val.ToFloat(), true
	}
	left, okLeft := num("left")
	top, okTop := num("top")
	if !okLeft || !okTop {
		return region.Region{}, false
	}
	right, okRight := num("right")
	if !okRight {
		width, _ := num("width")
		right = left + width
	}
	bottom, okBottom := num("bottom")
	if !okBottom {
		height, _ := num("height")
		bottom = top + height
	}
	return region.FromEdges(left, top, right, bottom), true
}

// measure returns el's region or throws. The DOM cause, if any, is found
// through the UnmeasurableTarget wrapper and thrown under its own name.
func (x *ExposeBinder) measure(el *dom.Element) region.Region {
	r, err := x.document.RegionOf(el)
	if err != nil {
		x.dom.throwError(expose.UnmeasurableTarget("cannot measure <"+el.TagName()+">", err))
	}
	return r
}

func (x *ExposeBinder) regionValue(r region.Region) *goja.Object {
	obj := x.runtime.vm.NewObject()
	obj.Set("left", r.Left())
	obj.Set("right", r.Right())
	obj.Set("top", r.Top())
	obj.Set("bottom", r.Bottom())
	obj.Set("width", r.Width())
	obj.Set("height", r.Height())
	return obj
}
