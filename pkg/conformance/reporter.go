package conformance

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Event is one case outcome delivered to a reporter.
type Event struct {
	RunID    string        `json:"run_id"`
	Suite    string        `json:"suite"`
	Case     string        `json:"case"`
	Relation string        `json:"relation"`
	Left     string        `json:"left"`
	Right    string        `json:"right"`
	Expected bool          `json:"expected"`
	Actual   bool          `json:"actual"`
	Passed   bool          `json:"passed"`
	Skipped  bool          `json:"skipped,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// EventState tallies outcomes across a run.
type EventState struct {
	mu      sync.Mutex
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int
}

func (s *EventState) record(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Total++
	switch {
	case ev.Error != "":
		s.Errors++
		s.Failed++
	case ev.Skipped:
		s.Skipped++
	case ev.Passed:
		s.Passed++
	default:
		s.Failed++
	}
}

// Failures reports whether any case failed or errored.
func (s *EventState) Failures() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Failed > 0
}

// Reporter renders run progress. Implementations must tolerate concurrent
// Case calls from parallel suites.
type Reporter interface {
	RunStart(runID string, suites int)
	SuiteStart(suite *Suite)
	Case(ev Event)
	RunEnd(state *EventState)
}

// NewReporter builds a reporter by format name: doc (default), json, tap.
func NewReporter(format string, w io.Writer) (Reporter, error) {
	switch format {
	case "", "doc":
		return &docReporter{w: w}, nil
	case "json":
		return &jsonReporter{w: w}, nil
	case "tap":
		return &tapReporter{w: w}, nil
	default:
		return nil, fmt.Errorf("conformance: unknown reporter format %q (expected doc, json, or tap)", format)
	}
}

type docReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *docReporter) RunStart(runID string, suites int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "run %s: %d suite(s)\n", runID, suites)
}

func (r *docReporter) SuiteStart(suite *Suite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "\n%s\n", suite.Name)
}

func (r *docReporter) Case(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case ev.Error != "":
		fmt.Fprintf(r.w, "  ERROR %s: %s\n", ev.Case, ev.Error)
	case ev.Skipped:
		fmt.Fprintf(r.w, "  skip  %s (%s)\n", ev.Case, ev.Reason)
	case ev.Passed:
		fmt.Fprintf(r.w, "  ok    %s\n", ev.Case)
	default:
		fmt.Fprintf(r.w, "  FAIL  %s: %s %s %s => %t, want %t\n",
			ev.Case, ev.Left, ev.Relation, ev.Right, ev.Actual, ev.Expected)
	}
}

func (r *docReporter) RunEnd(state *EventState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "\n%d total, %d passed, %d failed, %d skipped\n",
		state.Total, state.Passed, state.Failed, state.Skipped)
}

type jsonReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *jsonReporter) RunStart(runID string, suites int) {
	r.emit(map[string]any{"event": "run_start", "run_id": runID, "suites": suites})
}

func (r *jsonReporter) SuiteStart(suite *Suite) {
	r.emit(map[string]any{"event": "suite_start", "suite": suite.Name, "path": suite.Path})
}

func (r *jsonReporter) Case(ev Event) {
	r.emit(struct {
		EventName string `json:"event"`
		Event
	}{EventName: "case", Event: ev})
}

func (r *jsonReporter) RunEnd(state *EventState) {
	r.emit(map[string]any{
		"event": "run_end", "total": state.Total, "passed": state.Passed,
		"failed": state.Failed, "skipped": state.Skipped, "errors": state.Errors,
	})
}

func (r *jsonReporter) emit(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(r.w, `{"event":"encode_error","error":%q}`+"\n", err.Error())
		return
	}
	r.w.Write(append(data, '\n'))
}

type tapReporter struct {
	mu   sync.Mutex
	w    io.Writer
	next int
}

func (r *tapReporter) RunStart(runID string, suites int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, "TAP version 13")
	fmt.Fprintf(r.w, "# run %s\n", runID)
}

func (r *tapReporter) SuiteStart(suite *Suite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "# suite %s\n", suite.Name)
}

func (r *tapReporter) Case(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	name := ev.Suite + " :: " + ev.Case
	switch {
	case ev.Error != "":
		fmt.Fprintf(r.w, "not ok %d - %s # error: %s\n", r.next, name, ev.Error)
	case ev.Skipped:
		fmt.Fprintf(r.w, "ok %d - %s # SKIP %s\n", r.next, name, ev.Reason)
	case ev.Passed:
		fmt.Fprintf(r.w, "ok %d - %s\n", r.next, name)
	default:
		fmt.Fprintf(r.w, "not ok %d - %s\n", r.next, name)
	}
}

func (r *tapReporter) RunEnd(state *EventState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "1..%d\n", r.next)
}
