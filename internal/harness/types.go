package harness

import "fmt"

// TraceEvent is one entry of a scenario's execution trace. Fields
// serialize to canonical, deterministic JSON for golden comparison; the
// Result map holds only JSON-stable value types (strings, ints, bools,
// slices of those).
type TraceEvent struct {
	Step   int            `json:"step"`
	Action string         `json:"action"`
	Group  string         `json:"group"`
	User   string         `json:"user"`
	Error  string         `json:"error,omitempty"`
	Result map[string]any `json:"result,omitempty"`
}

// Result is the outcome of running one scenario.
type Result struct {
	Scenario string
	Passed   bool
	Failures []string
	Trace    []TraceEvent
}

// failf records a failed expectation without stopping the run; scenarios
// report every failure at once.
func (r *Result) failf(format string, args ...any) {
	r.Passed = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}
