package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/samber/lo"

	"github.com/chrisuehlinger/expose/dom"
	"github.com/chrisuehlinger/expose/expose"
	"github.com/chrisuehlinger/expose/js"
)

// Status is the outcome of a scenario.
type Status int

const (
	StatusPass Status = iota
	StatusFail
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StepResult is the state after one step has settled.
type StepResult struct {
	Action  string
	ScrollX float64
	ScrollY float64
	Width   float64
	Height  float64
	Fired   int      // callbacks fired so far
	Tracked int      // registrations still waiting
	Records []string // records added by this step
}

// Result is the outcome of running one scenario.
type Result struct {
	Name     string
	File     string
	Status   Status
	Message  string
	Records  []string
	Steps    []StepResult
	Errors   []string
	Console  []string
	Duration time.Duration
}

// Runner runs scenarios and collects their results.
type Runner struct {
	Results []Result
	// Timeout bounds how long each step waits for pending timers.
	Timeout time.Duration
}

// NewRunner creates a runner with a one second step timeout.
func NewRunner() *Runner {
	return &Runner{
		Results: make([]Result, 0),
		Timeout: time.Second,
	}
}

// RunFile loads and runs the scenario at path and appends its result.
func (r *Runner) RunFile(path string) Result {
	s, err := LoadFile(path)
	if err != nil {
		result := Result{Name: path, File: path, Status: StatusError, Message: err.Error()}
		r.Results = append(r.Results, result)
		return result
	}
	return r.Run(s)
}

// Run runs s and appends its result.
func (r *Runner) Run(s *Scenario) Result {
	result := r.run(s)
	r.Results = append(r.Results, result)
	return result
}

func (r *Runner) run(s *Scenario) Result {
	start := time.Now()
	result := Result{Name: s.Name, File: s.File}
	finish := func(status Status, message string) Result {
		result.Status = status
		result.Message = message
		result.Duration = time.Since(start)
		return result
	}

	doc, err := dom.ParseHTML(s.Page)
	if err != nil {
		return finish(StatusError, fmt.Sprintf("Failed to parse HTML: %v", err))
	}
	doc.Window().ResizeTo(s.Viewport.Width, s.Viewport.Height)

	var console bytes.Buffer
	runtime := js.NewRuntime()
	runtime.SetLogger(log.New(&console, "", 0))
	runtime.SetOnError(func(err error) {
		result.Errors = append(result.Errors, err.Error())
	})
	rec := newRecorder()
	rec.install(runtime.VM())

	executor := js.NewScriptExecutor(runtime)
	opts := []expose.Option{expose.WithLogger(log.New(&console, "expose: ", 0))}
	if s.Coalesce > 0 {
		opts = append(opts, expose.WithCoalescing(s.Coalesce))
	}
	executor.SetObserverOptions(opts...)
	defer executor.Cleanup()

	var failures []string
	executor.Load(doc)
	r.settle(executor, 0)
	result.Steps = append(result.Steps, snapshot("load", executor, rec.take()))

	for i, step := range s.Steps {
		switch {
		case step.Scroll != nil:
			doc.Window().ScrollTo(step.Scroll.X, step.Scroll.Y)
		case step.Resize != nil:
			doc.Window().ResizeTo(step.Resize.Width, step.Resize.Height)
		case strings.TrimSpace(step.Script) != "":
			// Errors reach result.Errors through the runtime's error hook.
			_ = runtime.ExecuteScript(step.Script, fmt.Sprintf("step-%d", i+1))
		}
		r.settle(executor, step.Wait)

		sr := snapshot(step.Action(), executor, rec.take())
		if step.Expect != nil && !slices.Equal(sr.Records, step.Expect) {
			failures = append(failures, fmt.Sprintf("step %d (%s): expected records %v, got %v", i+1, sr.Action, step.Expect, sr.Records))
		}
		result.Steps = append(result.Steps, sr)
	}

	result.Records = rec.all()
	result.Console = lo.Filter(strings.Split(console.String(), "\n"), func(line string, _ int) bool {
		return line != ""
	})

	if s.Expect != nil && !slices.Equal(result.Records, s.Expect) {
		failures = append(failures, fmt.Sprintf("expected records %v, got %v", s.Expect, result.Records))
	}
	if len(result.Errors) > 0 {
		failures = append(failures, fmt.Sprintf("%d script error(s)", len(result.Errors)))
	}
	if len(failures) > 0 {
		return finish(StatusFail, strings.Join(failures, "\n"))
	}
	return finish(StatusPass, "")
}

// settle runs the event loop until it is idle. A positive wait keeps the
// loop polling for that long so coalesced passes get a chance to land.
func (r *Runner) settle(executor *js.ScriptExecutor, wait time.Duration) {
	executor.RunEventLoop(max(r.Timeout, wait))
	if wait <= 0 {
		return
	}
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if !executor.RunEventLoopOnce() {
			time.Sleep(time.Millisecond)
		}
	}
	executor.RunEventLoop(r.Timeout)
}

func snapshot(action string, executor *js.ScriptExecutor, records []string) StepResult {
	win := executor.Document().Window()
	stats := executor.Observer().Stats()
	return StepResult{
		Action:  action,
		ScrollX: win.ScrollX(),
		ScrollY: win.ScrollY(),
		Width:   win.InnerWidth(),
		Height:  win.InnerHeight(),
		Fired:   stats.Fired,
		Tracked: stats.Tracked,
		Records: records,
	}
}

// recorder backs the record() global scenario pages use to log what they
// saw, e.g. record(this.id) from a visibility callback.
type recorder struct {
	records []string
	mark    int
}

func newRecorder() *recorder {
	return &recorder{records: make([]string, 0)}
}

func (rec *recorder) install(vm *goja.Runtime) {
	vm.Set("record", func(call goja.FunctionCall) goja.Value {
		parts := lo.Map(call.Arguments, func(v goja.Value, _ int) string {
			return v.String()
		})
		rec.records = append(rec.records, strings.Join(parts, " "))
		return goja.Undefined()
	})
}

// take returns the records added since the previous call.
func (rec *recorder) take() []string {
	out := slices.Clone(rec.records[rec.mark:])
	rec.mark = len(rec.records)
	return out
}

func (rec *recorder) all() []string {
	return slices.Clone(rec.records)
}

// Summary counts results by status.
func (r *Runner) Summary() (passed, failed, errored int) {
	for _, result := range r.Results {
		switch result.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusError:
			errored++
		}
	}
	return
}

// JSONResult is the JSON form of a Result.
type JSONResult struct {
	Scenario string           `json:"scenario"`
	File     string           `json:"file,omitempty"`
	Status   string           `json:"status"`
	Message  string           `json:"message,omitempty"`
	Duration int64            `json:"duration"`
	Records  []string         `json:"records"`
	Errors   []string         `json:"errors,omitempty"`
	Steps    []JSONStepResult `json:"steps"`
}

// JSONStepResult is the JSON form of a StepResult.
type JSONStepResult struct {
	Action  string   `json:"action"`
	ScrollX float64  `json:"scrollX"`
	ScrollY float64  `json:"scrollY"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Fired   int      `json:"fired"`
	Tracked int      `json:"tracked"`
	Records []string `json:"records"`
}

// ExportJSON exports all results as indented JSON.
func (r *Runner) ExportJSON() ([]byte, error) {
	results := lo.Map(r.Results, func(result Result, _ int) JSONResult {
		return JSONResult{
			Scenario: result.Name,
			File:     result.File,
			Status:   result.Status.String(),
			Message:  result.Message,
			Duration: result.Duration.Milliseconds(),
			Records:  lo.Ternary(result.Records == nil, []string{}, result.Records),
			Errors:   result.Errors,
			Steps: lo.Map(result.Steps, func(s StepResult, _ int) JSONStepResult {
				return JSONStepResult(s)
			}),
		}
	})
	return json.MarshalIndent(results, "", "  ")
}
