package js

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

// fakeClock replaces the runtime's timer clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestRuntime(t *testing.T) (*Runtime, *fakeClock) {
	t.Helper()
	r := NewRuntime()
	r.SetLogger(log.New(&bytes.Buffer{}, "", 0))
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	r.timers.now = func() time.Time { return clock.now }
	return r, clock
}

func TestRuntimeBasic(t *testing.T) {
	r, _ := newTestRuntime(t)

	result, err := r.Execute("1 + 2")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToInteger() != 3 {
		t.Errorf("Expected 3, got %v", result.ToInteger())
	}
}

func TestRuntimeFunctions(t *testing.T) {
	r, _ := newTestRuntime(t)

	_, err := r.Execute(`
		function add(a, b) {
			return a + b;
		}
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	result, err := r.Execute("add(3, 4)")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToInteger() != 7 {
		t.Errorf("Expected 7, got %v", result.ToInteger())
	}
}

func TestRuntimeConsole(t *testing.T) {
	r := NewRuntime()
	var buf bytes.Buffer
	r.SetLogger(log.New(&buf, "", 0))

	_, err := r.Execute(`
		console.log("test", 1, null, undefined);
		console.warn("careful");
		console.error("broken");
		console.assert(1 === 2, "math");
		console.assert(true, "never printed");
		console.count();
		console.count();
	`)
	if err != nil {
		t.Fatalf("console methods failed: %v", err)
	}

	want := []string{
		"test 1 null undefined",
		"[WARN] careful",
		"[ERROR] broken",
		"[ASSERT] math",
		"default: 1",
		"default: 2",
	}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRuntimeSetTimeout(t *testing.T) {
	r, clock := newTestRuntime(t)

	_, err := r.Execute(`
		var called = false;
		setTimeout(function() {
			called = true;
		}, 10);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	r.RunEventLoop()
	if result, _ := r.Execute("called"); result.ToBoolean() {
		t.Error("setTimeout callback ran before its delay")
	}

	clock.advance(10 * time.Millisecond)
	r.RunEventLoop()
	if result, _ := r.Execute("called"); !result.ToBoolean() {
		t.Error("setTimeout callback was not called")
	}
	if r.HasPendingWork() {
		t.Error("Expected no pending work after the timeout ran")
	}
}

func TestRuntimeSetTimeoutArguments(t *testing.T) {
	r, _ := newTestRuntime(t)

	_, err := r.Execute(`
		var sum = 0;
		setTimeout(function(a, b) { sum = a + b; }, 0, 2, 3);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	r.RunEventLoop()

	result, _ := r.Execute("sum")
	if result.ToInteger() != 5 {
		t.Errorf("Expected 5, got %v", result.ToInteger())
	}
}

func TestRuntimeTimerOrder(t *testing.T) {
	r, clock := newTestRuntime(t)

	_, err := r.Execute(`
		var order = [];
		setTimeout(function() { order.push("b"); }, 20);
		setTimeout(function() { order.push("a"); }, 10);
		setTimeout(function() { order.push("c"); }, 20);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	clock.advance(25 * time.Millisecond)
	r.RunEventLoop()

	result, _ := r.Execute("order.join(',')")
	if result.String() != "a,b,c" {
		t.Errorf("Expected 'a,b,c', got %v", result.String())
	}
}

func TestRuntimeClearTimeout(t *testing.T) {
	r, clock := newTestRuntime(t)

	_, err := r.Execute(`
		var called = false;
		var id = setTimeout(function() {
			called = true;
		}, 10);
		clearTimeout(id);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	clock.advance(20 * time.Millisecond)
	r.RunEventLoop()

	result, err := r.Execute("called")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToBoolean() {
		t.Error("setTimeout callback was called after clearTimeout")
	}
}

func TestRuntimeSetInterval(t *testing.T) {
	r, clock := newTestRuntime(t)

	_, err := r.Execute(`
		var count = 0;
		var id = setInterval(function() {
			count++;
		}, 10);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		clock.advance(10 * time.Millisecond)
		r.RunEventLoop()
	}
	_, _ = r.Execute("clearInterval(id)")
	clock.advance(10 * time.Millisecond)
	r.RunEventLoop()

	result, err := r.Execute("count")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToInteger() != 3 {
		t.Errorf("Expected 3, got %v", result.ToInteger())
	}
}

func TestRuntimeQueueMicrotask(t *testing.T) {
	r, _ := newTestRuntime(t)

	_, err := r.Execute(`
		var order = [];
		setTimeout(function() { order.push(2); }, 0);
		queueMicrotask(function() {
			order.push(1);
		});
		order.push(0);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	r.RunEventLoop()

	result, err := r.Execute("order.join(',')")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.String() != "0,1,2" {
		t.Errorf("Expected '0,1,2', got %v", result.String())
	}

	if _, err := r.Execute("queueMicrotask(42)"); err == nil {
		t.Error("Expected TypeError for a non-function microtask")
	}
}

func TestRuntimeQueuePost(t *testing.T) {
	r, _ := newTestRuntime(t)

	var ran []int
	r.Queue().Post(func() { ran = append(ran, 1) })
	r.Queue().Post(func() { ran = append(ran, 2) })

	if len(ran) != 0 {
		t.Fatalf("Expected posted tasks to wait for the loop, got %v", ran)
	}
	if n := r.RunUntilIdle(0); n != 2 {
		t.Errorf("Expected 2 tasks run, got %d", n)
	}
	if len(ran) != 2 || ran[0] != 1 || ran[1] != 2 {
		t.Errorf("Expected [1 2], got %v", ran)
	}
}

func TestRuntimeRunUntilIdleWaitsForTimers(t *testing.T) {
	r := NewRuntime()
	r.SetLogger(log.New(&bytes.Buffer{}, "", 0))

	_, err := r.Execute(`
		var fired = false;
		setTimeout(function() { fired = true; }, 5);
		setTimeout(function() { fired = "late"; }, 60000);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	r.RunUntilIdle(100 * time.Millisecond)

	result, _ := r.Execute("fired")
	if result.String() != "true" {
		t.Errorf("Expected the short timer only, got %v", result.String())
	}
	if !r.HasPendingWork() {
		t.Error("Expected the long timer to stay pending")
	}
	r.Reset()
	if r.HasPendingWork() {
		t.Error("Expected Reset to drop pending timers")
	}
}

func TestRuntimeWindow(t *testing.T) {
	r, _ := newTestRuntime(t)

	result, err := r.Execute("typeof window")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.String() != "object" {
		t.Errorf("Expected 'object', got %v", result.String())
	}

	result, err = r.Execute("globalThis === window && self === window")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.ToBoolean() {
		t.Error("Expected globalThis and self to be window")
	}

	result, err = r.Execute("devicePixelRatio")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.ToFloat() != 1 {
		t.Errorf("Expected 1, got %v", result.ToFloat())
	}
}

func TestRuntimePerformance(t *testing.T) {
	r, _ := newTestRuntime(t)

	result, err := r.Execute("performance.now()")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	now := result.ToFloat()
	if now < 0 {
		t.Errorf("Expected performance.now() >= 0, got %v", now)
	}

	time.Sleep(5 * time.Millisecond)

	result, err = r.Execute("performance.now()")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if later := result.ToFloat(); later <= now {
		t.Errorf("Expected performance.now() to increase, got %v then %v", now, later)
	}
}

func TestRuntimeErrorHandling(t *testing.T) {
	r, _ := newTestRuntime(t)

	var reported []error
	r.SetOnError(func(err error) { reported = append(reported, err) })

	_, err := r.Execute("this is not valid javascript")
	if err == nil {
		t.Error("Expected error for invalid JavaScript")
	}

	if len(r.Errors()) != 1 {
		t.Errorf("Expected 1 recorded error, got %d", len(r.Errors()))
	}
	if len(reported) != 1 {
		t.Errorf("Expected 1 reported error, got %d", len(reported))
	}

	r.ClearErrors()
	if errs := r.Errors(); len(errs) != 0 {
		t.Errorf("Expected errors to be cleared, got %d", len(errs))
	}
}

func TestRuntimeCallbackErrorsAreCollected(t *testing.T) {
	r, _ := newTestRuntime(t)

	_, err := r.Execute(`
		var after = false;
		setTimeout(function() { throw new Error("timer failed"); }, 0);
		setTimeout(function() { after = true; }, 0);
	`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	r.RunEventLoop()

	errs := r.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "timer failed") {
		t.Errorf("Expected the timer error to be collected, got %v", errs)
	}
	if result, _ := r.Execute("after"); !result.ToBoolean() {
		t.Error("Expected the second timer to run after the first threw")
	}
}

func TestRuntimeExecuteScript(t *testing.T) {
	r, _ := newTestRuntime(t)

	if err := r.ExecuteScript("var fromScript = 'ok';", "first.js"); err != nil {
		t.Fatalf("ExecuteScript failed: %v", err)
	}
	if err := r.ExecuteScript("var = ;", "broken.js"); err == nil {
		t.Fatal("Expected a compile error")
	}
	if len(r.Errors()) != 1 {
		t.Errorf("Expected 1 recorded error, got %d", len(r.Errors()))
	}

	result, err := r.Execute("fromScript")
	if err != nil {
		t.Errorf("Runtime should still work after a failed script: %v", err)
	}
	if result.String() != "ok" {
		t.Errorf("Expected 'ok', got %v", result.String())
	}
}
