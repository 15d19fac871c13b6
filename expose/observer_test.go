package expose

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/chrisuehlinger/expose/region"
)

// fakeProvider serves regions from a map. Targets missing from the map
// cannot be measured.
type fakeProvider struct {
	viewport    region.Region
	viewportErr error
	regions     map[string]region.Region
	onViewport  func()
}

func newFakeProvider(viewport region.Region) *fakeProvider {
	return &fakeProvider{viewport: viewport, regions: make(map[string]region.Region)}
}

func (p *fakeProvider) ViewportRegion() (region.Region, error) {
	if p.onViewport != nil {
		p.onViewport()
	}
	return p.viewport, p.viewportErr
}

func (p *fakeProvider) RegionOf(target string) (region.Region, error) {
	r, ok := p.regions[target]
	if !ok {
		return region.Region{}, errors.New(target + " is detached")
	}
	return r, nil
}

// recorder collects callback invocations in order.
type recorder struct {
	calls []string
}

func (r *recorder) callback(tag string) Callback[string] {
	return func(target string) {
		r.calls = append(r.calls, tag+":"+target)
	}
}

var (
	firstScreen = region.FromEdges(0, 0, 800, 600)
	belowFold   = region.FromEdges(0, 1000, 100, 1100)
)

func TestRegisterInvalidCallback(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["footer"] = belowFold
	o := NewObserver[string](p)

	regs, err := o.Register([]string{"footer"}, nil)
	if !errors.Is(err, ErrInvalidCallback) {
		t.Fatalf("Expected ErrInvalidCallback, got %v", err)
	}
	if regs != nil {
		t.Errorf("Expected no registrations, got %d", len(regs))
	}
	if o.Tracked().Len() != 0 {
		t.Errorf("Expected tracked set to be unchanged, got %d entries", o.Tracked().Len())
	}
}

func TestRegisterNoTargets(t *testing.T) {
	o := NewObserver[string](newFakeProvider(firstScreen))
	var rec recorder

	regs, err := o.Register(nil, rec.callback("a"))
	if err != nil {
		t.Fatalf("Expected no error for zero targets, got %v", err)
	}
	if len(regs) != 0 || o.Tracked().Len() != 0 {
		t.Error("Expected zero targets to be a no-op")
	}
}

func TestHiddenTargetStaysTracked(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["footer"] = belowFold
	o := NewObserver[string](p)
	var rec recorder

	regs, err := o.Register([]string{"footer"}, rec.callback("a"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	o.Start()
	o.Loop().Drain()

	if len(rec.calls) != 0 {
		t.Errorf("Expected no callbacks, got %v", rec.calls)
	}
	if !o.Tracked().Contains("footer") {
		t.Error("Expected footer to remain tracked")
	}
	reg := regs[0]
	if reg.State() != StateTracked {
		t.Errorf("Expected state tracked, got %v", reg.State())
	}
	cached, ok := reg.CachedRegion()
	if !ok || cached != belowFold {
		t.Errorf("Expected cached region %v, got %v (measured=%v)", belowFold, cached, ok)
	}
}

func TestScrollIntoViewFiresOnce(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["footer"] = belowFold
	o := NewObserver[string](p)
	var rec recorder

	regs, _ := o.Register([]string{"footer"}, rec.callback("a"))
	o.Start()

	p.viewport = region.FromEdges(0, 500, 800, 1100)
	o.ViewportMayHaveChanged()

	if len(rec.calls) != 0 {
		t.Fatal("Expected callback to be deferred until the loop runs")
	}
	if o.Tracked().Contains("footer") {
		t.Error("Expected footer to be removed during the pass")
	}
	if regs[0].State() != StateFired {
		t.Errorf("Expected state fired, got %v", regs[0].State())
	}

	o.Loop().Drain()
	o.ViewportMayHaveChanged()
	o.ViewportMayHaveChanged()
	o.Loop().Drain()

	if len(rec.calls) != 1 || rec.calls[0] != "a:footer" {
		t.Errorf("Expected exactly one callback, got %v", rec.calls)
	}
	if s := o.Stats(); s.Fired != 1 || s.Tracked != 0 || s.Passes != 4 {
		t.Errorf("Unexpected stats %+v", s)
	}
}

func TestAlreadyVisibleNeverTracked(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["hero"] = region.FromEdges(0, 100, 800, 400)
	o := NewObserver[string](p)
	var rec recorder

	regs, _ := o.Register([]string{"hero"}, rec.callback("a"))

	if o.Tracked().Len() != 0 {
		t.Error("Expected visible target not to be tracked")
	}
	if regs[0].State() != StateFired {
		t.Errorf("Expected state fired, got %v", regs[0].State())
	}
	if len(rec.calls) != 0 {
		t.Error("Expected callback not to run synchronously")
	}
	if o.Loop().Pending() != 1 {
		t.Errorf("Expected one queued callback, got %d", o.Loop().Pending())
	}

	o.Loop().Drain()
	if len(rec.calls) != 1 {
		t.Errorf("Expected one callback, got %v", rec.calls)
	}
}

func TestRegistrationsOfSameTargetAreIndependent(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["card"] = belowFold
	o := NewObserver[string](p)
	var rec recorder

	o.Register([]string{"card"}, rec.callback("first"))
	o.Start()

	// The card moves into view. A fresh registration sees the new region
	// and fires at once; the first one still holds the old cached region.
	p.regions["card"] = region.FromEdges(0, 200, 100, 300)
	o.Register([]string{"card"}, rec.callback("second"))
	o.Loop().Drain()

	if len(rec.calls) != 1 || rec.calls[0] != "second:card" {
		t.Fatalf("Expected only the second registration to fire, got %v", rec.calls)
	}
	if o.Tracked().Count("card") != 1 {
		t.Fatalf("Expected first registration to remain tracked, got %d", o.Tracked().Count("card"))
	}

	// The first pass refreshes the stale cache, the next one fires.
	o.ViewportMayHaveChanged()
	o.Loop().Drain()
	if len(rec.calls) != 1 {
		t.Errorf("Expected stale cache to defer firing by one pass, got %v", rec.calls)
	}
	o.ViewportMayHaveChanged()
	o.Loop().Drain()
	if len(rec.calls) != 2 || rec.calls[1] != "first:card" {
		t.Errorf("Expected first registration to fire, got %v", rec.calls)
	}
	if o.Tracked().Contains("card") {
		t.Error("Expected card to leave the set once all registrations fired")
	}
}

func TestDuplicateRegistrationsBothFire(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["card"] = belowFold
	o := NewObserver[string](p)
	var rec recorder

	o.Register([]string{"card"}, rec.callback("a"))
	o.Register([]string{"card"}, rec.callback("b"))
	if o.Tracked().Count("card") != 2 {
		t.Fatalf("Expected two entries for card, got %d", o.Tracked().Count("card"))
	}

	p.viewport = region.FromEdges(0, 900, 800, 1500)
	o.ViewportMayHaveChanged()
	o.Loop().Drain()

	if strings.Join(rec.calls, ",") != "a:card,b:card" {
		t.Errorf("Expected both callbacks in order, got %v", rec.calls)
	}
}

func TestCallbacksRunInVisitOrder(t *testing.T) {
	p := newFakeProvider(firstScreen)
	o := NewObserver[string](p)
	var rec recorder

	targets := []string{"one", "two", "three", "four"}
	for i, name := range targets {
		p.regions[name] = region.New(0, 1000+float64(i)*50, 100, 40)
	}
	p.regions["far"] = region.New(0, 5000, 100, 40)
	o.Register(append(targets, "far"), rec.callback("x"))

	p.viewport = region.FromEdges(0, 700, 800, 1300)
	o.ViewportMayHaveChanged()
	o.Loop().Drain()

	if strings.Join(rec.calls, ",") != "x:one,x:two,x:three,x:four" {
		t.Errorf("Unexpected order %v", rec.calls)
	}
	if !o.Tracked().Contains("far") || o.Tracked().Len() != 1 {
		t.Errorf("Expected only far to remain, got %d entries", o.Tracked().Len())
	}
}

func TestUnmeasurableTargetIsRetried(t *testing.T) {
	p := newFakeProvider(firstScreen)
	var logs bytes.Buffer
	o := NewObserver[string](p, WithLogger(log.New(&logs, "", 0)))
	var rec recorder

	regs, err := o.Register([]string{"lazy"}, rec.callback("a"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !o.Tracked().Contains("lazy") {
		t.Fatal("Expected unmeasurable target to be tracked")
	}
	if _, ok := regs[0].CachedRegion(); ok {
		t.Error("Expected no cached region for an unmeasurable target")
	}

	o.ViewportMayHaveChanged()
	o.Loop().Drain()
	if len(rec.calls) != 0 || !o.Tracked().Contains("lazy") {
		t.Fatal("Expected unmeasurable target to be skipped and kept")
	}
	if !strings.Contains(logs.String(), "UnmeasurableTarget") {
		t.Errorf("Expected UnmeasurableTarget in logs, got %q", logs.String())
	}

	p.regions["lazy"] = region.FromEdges(10, 10, 50, 50)
	o.ViewportMayHaveChanged()
	o.Loop().Drain()
	if len(rec.calls) != 1 {
		t.Errorf("Expected target to fire once measurable, got %v", rec.calls)
	}
}

func TestDetachedTargetDropsCachedRegion(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["card"] = belowFold
	o := NewObserver[string](p)
	var rec recorder

	regs, _ := o.Register([]string{"card"}, rec.callback("a"))
	delete(p.regions, "card")
	o.ViewportMayHaveChanged()

	if _, ok := regs[0].CachedRegion(); ok {
		t.Error("Expected cached region to be dropped after a failed measurement")
	}

	// The old cached region would now overlap, but a detached target must
	// not fire from stale geometry.
	p.viewport = region.FromEdges(0, 900, 800, 1500)
	o.ViewportMayHaveChanged()
	o.Loop().Drain()
	if len(rec.calls) != 0 {
		t.Errorf("Expected no callback for a detached target, got %v", rec.calls)
	}
	if o.Tracked().Count("card") != 1 {
		t.Error("Expected detached target to stay tracked")
	}
}

func TestPanickingCallbackDoesNotAffectOthers(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["bad"] = belowFold
	p.regions["good"] = belowFold
	p.regions["later"] = region.New(0, 3000, 10, 10)
	var logs bytes.Buffer
	o := NewObserver[string](p, WithLogger(log.New(&logs, "", 0)))
	var rec recorder

	o.Register([]string{"bad"}, func(string) { panic("boom") })
	o.Register([]string{"good", "later"}, rec.callback("ok"))

	p.viewport = region.FromEdges(0, 900, 800, 1500)
	o.ViewportMayHaveChanged()
	o.Loop().Drain()

	if len(rec.calls) != 1 || rec.calls[0] != "ok:good" {
		t.Errorf("Expected good callback to run, got %v", rec.calls)
	}
	if !strings.Contains(logs.String(), "panicked: boom") {
		t.Errorf("Expected panic to be logged, got %q", logs.String())
	}
	if o.Tracked().Len() != 1 || !o.Tracked().Contains("later") {
		t.Error("Expected tracked set to hold only the unfired target")
	}
}

func TestCallbackRegisteringDuringDispatch(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["a"] = belowFold
	p.regions["b"] = belowFold
	o := NewObserver[string](p)
	var rec recorder

	o.Register([]string{"a"}, func(target string) {
		rec.calls = append(rec.calls, "fired:"+target)
		// Re-register the same target from inside its own callback.
		o.Register([]string{target, "b"}, rec.callback("again"))
	})

	p.viewport = region.FromEdges(0, 900, 800, 1500)
	o.ViewportMayHaveChanged()
	if o.Loop().RunOnce() != 1 {
		t.Fatal("Expected exactly the first callback in the first turn")
	}
	if o.Loop().Pending() != 2 {
		t.Fatalf("Expected both re-registrations queued for the next turn, got %d", o.Loop().Pending())
	}
	o.Loop().Drain()

	want := "fired:a,again:a,again:b"
	if got := strings.Join(rec.calls, ","); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestReentrantPassIsQueued(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["card"] = belowFold
	o := NewObserver[string](p)
	o.Register([]string{"card"}, func(string) {})

	depth, maxDepth := 0, 0
	reentered := false
	p.onViewport = func() {
		depth++
		maxDepth = max(maxDepth, depth)
		if !reentered {
			reentered = true
			o.ViewportMayHaveChanged()
		}
		depth--
	}

	o.ViewportMayHaveChanged()
	if maxDepth != 1 {
		t.Errorf("Expected passes not to nest, max depth %d", maxDepth)
	}
	if o.Stats().Passes != 2 {
		t.Errorf("Expected the reentrant request to run as a second pass, got %d", o.Stats().Passes)
	}
}

func TestViewportErrorSkipsPass(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["card"] = belowFold
	o := NewObserver[string](p)
	o.Register([]string{"card"}, func(string) {})

	p.viewportErr = errors.New("window closed")
	o.ViewportMayHaveChanged()
	if o.Stats().Passes != 0 {
		t.Errorf("Expected no pass without a viewport, got %d", o.Stats().Passes)
	}
	if !o.Tracked().Contains("card") {
		t.Error("Expected registration to survive a skipped pass")
	}
}

func TestRegisterWithoutViewportTracks(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["hero"] = region.FromEdges(0, 0, 10, 10)
	p.viewportErr = errors.New("not ready")
	o := NewObserver[string](p)
	var rec recorder

	o.Register([]string{"hero"}, rec.callback("a"))
	if !o.Tracked().Contains("hero") {
		t.Fatal("Expected registration to be tracked while the viewport is unavailable")
	}

	p.viewportErr = nil
	o.Start()
	o.Loop().Drain()
	if len(rec.calls) != 1 {
		t.Errorf("Expected callback after the viewport became available, got %v", rec.calls)
	}
}

// fakeSignal is a subscribable change source.
type fakeSignal struct {
	handlers map[int]func()
	next     int
}

func (s *fakeSignal) subscribe(fn func()) func() {
	if s.handlers == nil {
		s.handlers = make(map[int]func())
	}
	s.next++
	id := s.next
	s.handlers[id] = fn
	return func() { delete(s.handlers, id) }
}

func (s *fakeSignal) emit() {
	for _, fn := range s.handlers {
		fn()
	}
}

func TestAttachSignals(t *testing.T) {
	p := newFakeProvider(firstScreen)
	o := NewObserver[string](p)
	var scroll, resize fakeSignal

	detach := o.Attach(scroll.subscribe, resize.subscribe)
	scroll.emit()
	resize.emit()
	if o.Stats().Passes != 2 {
		t.Errorf("Expected a pass per signal, got %d", o.Stats().Passes)
	}

	detach()
	scroll.emit()
	resize.emit()
	if o.Stats().Passes != 2 {
		t.Errorf("Expected no passes after detach, got %d", o.Stats().Passes)
	}
}

func TestCoalescingCollapsesBursts(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["card"] = belowFold
	o := NewObserver[string](p, WithCoalescing(20*time.Millisecond))
	var rec recorder
	o.Register([]string{"card"}, rec.callback("a"))

	p.viewport = region.FromEdges(0, 900, 800, 1500)
	for i := 0; i < 5; i++ {
		o.ViewportMayHaveChanged()
	}
	if o.Stats().Passes != 0 {
		t.Fatal("Expected coalesced passes to be deferred")
	}

	deadline := time.Now().Add(2 * time.Second)
	for o.Loop().Pending() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	o.Loop().Drain()

	if o.Stats().Passes != 1 {
		t.Errorf("Expected one pass for the burst, got %d", o.Stats().Passes)
	}
	if len(rec.calls) != 1 {
		t.Errorf("Expected callback after the coalesced pass, got %v", rec.calls)
	}
}

func TestSpecialEventSetup(t *testing.T) {
	p := newFakeProvider(firstScreen)
	p.regions["img"] = belowFold
	p.regions["logo"] = region.FromEdges(0, 0, 10, 10)
	o := NewObserver[string](p)
	var rec recorder
	ev := SpecialEvent[string]{Observer: o, Trigger: rec.callback("expose")}

	if ev.Setup("img") {
		t.Error("Expected Setup to refuse a native listener")
	}
	if ev.Setup("logo") {
		t.Error("Expected Setup to refuse a native listener")
	}
	if !o.Tracked().Contains("img") || o.Tracked().Contains("logo") {
		t.Error("Expected only the hidden target to be tracked")
	}
	if ev.Teardown("img") {
		t.Error("Expected Teardown to return false")
	}

	o.Loop().Drain()
	if len(rec.calls) != 1 || rec.calls[0] != "expose:logo" {
		t.Errorf("Expected visible target to be triggered, got %v", rec.calls)
	}
}

func TestSeparateObserversDoNotInterfere(t *testing.T) {
	page := newFakeProvider(firstScreen)
	page.regions["card"] = belowFold
	sidebar := newFakeProvider(region.FromEdges(0, 0, 200, 2000))
	sidebar.regions["card"] = belowFold

	pageObs := NewObserver[string](page)
	sidebarObs := NewObserver[string](sidebar)
	var rec recorder
	pageObs.Register([]string{"card"}, rec.callback("page"))
	sidebarObs.Register([]string{"card"}, rec.callback("sidebar"))

	pageObs.Loop().Drain()
	sidebarObs.Loop().Drain()

	if len(rec.calls) != 1 || rec.calls[0] != "sidebar:card" {
		t.Errorf("Expected only the sidebar observer to fire, got %v", rec.calls)
	}
	if !pageObs.Tracked().Contains("card") {
		t.Error("Expected page observer to keep tracking card")
	}
}
