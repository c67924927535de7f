// Package harness is the conformance framework for the attendance
// engine. Scenarios are YAML files describing a sequence of requests
// (check-ins, sweeps, retractions) with expected outcomes; the harness
// drives a real engine over a throwaway store and records a
// deterministic trace for golden comparison.
//
// Every scenario runs against a fresh engine and fresh store files, with
// fixed request tokens, so the same scenario always produces the same
// trace bytes.
package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/store"
)

// Run executes a scenario end to end and returns its result. Execution
// errors (unparseable steps, store setup failure) return an error;
// expectation failures do not; they land in Result.Failures.
func Run(scenario *Scenario) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "rollcall-harness-*")
	if err != nil {
		return nil, fmt.Errorf("create scenario workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	gateway := store.New(
		filepath.Join(dir, store.DefaultAttendanceFile),
		filepath.Join(dir, store.DefaultSalaryFile),
	)
	eng, err := engine.New(gateway, engine.Options{
		Penalty: scenario.Penalty,
		Admins:  scenario.Admins,
		Tokens:  engine.NewFixedGenerator(),
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	result := &Result{Scenario: scenario.Name, Passed: true}

	for i, step := range scenario.Steps {
		ts, err := step.parseAt()
		if err != nil {
			return nil, fmt.Errorf("scenario %s step %d: %w", scenario.Name, i+1, err)
		}

		res, dispatchErr := eng.Dispatch(engine.Request{
			Group:     step.Group,
			User:      step.User,
			Name:      step.Name,
			Timestamp: ts,
			IsAdmin:   step.Admin,
			Action:    engine.Action(step.Action),
		})

		event := TraceEvent{
			Step:   i + 1,
			Action: step.Action,
			Group:  step.Group,
			User:   step.User,
		}
		if dispatchErr != nil {
			event.Error = errorCode(dispatchErr)
		} else {
			event.Result = summarize(res)
		}
		result.Trace = append(result.Trace, event)

		checkStep(result, i+1, step.Expect, res, dispatchErr)
	}

	checkFinal(result, scenario, eng)
	return result, nil
}

// checkStep evaluates one step's expectation against its outcome.
func checkStep(result *Result, n int, expect *Expect, res *engine.Result, err error) {
	if expect == nil {
		if err != nil {
			result.failf("step %d: unexpected error: %v", n, err)
		}
		return
	}

	if expect.Error != "" {
		if err == nil {
			result.failf("step %d: expected error %s, got success", n, expect.Error)
		} else if code := errorCode(err); code != expect.Error {
			result.failf("step %d: expected error %s, got %s", n, expect.Error, code)
		}
		return
	}
	if err != nil {
		result.failf("step %d: unexpected error: %v", n, err)
		return
	}

	if expect.Status != "" {
		if res.Mark == nil {
			result.failf("step %d: expected mark outcome", n)
		} else if string(res.Mark.Status) != expect.Status {
			result.failf("step %d: expected status %s, got %s", n, expect.Status, res.Mark.Status)
		}
	}
	if expect.Late != nil {
		if res.Mark == nil || res.Mark.Late != *expect.Late {
			result.failf("step %d: late mismatch", n)
		}
	}
	if expect.Penalty != nil {
		if res.Mark == nil || res.Mark.Penalty != *expect.Penalty {
			result.failf("step %d: penalty mismatch", n)
		}
	}
	if expect.Count != nil {
		if res.Count == nil || res.Count.Total != *expect.Count {
			result.failf("step %d: count mismatch", n)
		}
	}
	if expect.Total != nil {
		total, ok := outcomeTotal(res)
		if !ok || total != *expect.Total {
			result.failf("step %d: total mismatch", n)
		}
	}
	if expect.Penalized != nil {
		if res.Sweep == nil {
			result.failf("step %d: expected sweep outcome", n)
		} else if ids := memberIDs(res.Sweep.Penalized); !slices.Equal(ids, expect.Penalized) {
			result.failf("step %d: penalized %v, expected %v", n, ids, expect.Penalized)
		}
	}
	if expect.Restored != nil {
		if res.Retraction == nil {
			result.failf("step %d: expected retraction outcome", n)
		} else if ids := restorationIDs(res.Retraction.Restored); !slices.Equal(ids, expect.Restored) {
			result.failf("step %d: restored %v, expected %v", n, ids, expect.Restored)
		}
	}
}

// checkFinal evaluates the scenario's final-state assertions through the
// public dispatch surface, as a synthetic admin.
func checkFinal(result *Result, scenario *Scenario, eng *engine.Engine) {
	if len(scenario.Final) == 0 {
		return
	}
	lastStep := scenario.Steps[len(scenario.Steps)-1]
	ts, _ := lastStep.parseAt()

	for group, want := range scenario.Final {
		if want.TotalDeductions == nil {
			continue
		}
		res, err := eng.Dispatch(engine.Request{
			Group:     group,
			User:      "harness",
			Timestamp: ts,
			IsAdmin:   true,
			Action:    engine.ActionShowDeductions,
		})
		total := 0
		if err == nil {
			total = res.Deductions.Total
		} else if !engine.IsNoData(err) {
			result.failf("final %s: %v", group, err)
			continue
		}
		if total != *want.TotalDeductions {
			result.failf("final %s: total deductions %d, expected %d", group, total, *want.TotalDeductions)
		}
	}
}

// outcomeTotal pulls the total out of whichever outcome carries one.
func outcomeTotal(res *engine.Result) (int, bool) {
	switch {
	case res.Deductions != nil:
		return res.Deductions.Total, true
	case res.Retraction != nil:
		return res.Retraction.Total, true
	}
	return 0, false
}

// errorCode extracts the engine error code, or "ERROR" for anything else.
func errorCode(err error) string {
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return "ERROR"
}

func memberIDs(members []ledger.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}

func restorationIDs(rs []ledger.Restoration) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.UserID
	}
	return ids
}

// summarize flattens an engine result into JSON-stable primitives for
// the trace. Key order is irrelevant here; encoding/json sorts map keys.
func summarize(res *engine.Result) map[string]any {
	out := map[string]any{}
	switch {
	case res.Mark != nil:
		out["status"] = string(res.Mark.Status)
		out["session"] = string(res.Mark.Session)
		if res.Mark.Status == ledger.MarkCreated {
			out["late"] = res.Mark.Late
			out["time"] = res.Mark.Time
			if res.Mark.Penalty > 0 {
				out["penalty"] = res.Mark.Penalty
			}
		}
	case res.Count != nil:
		out["date"] = res.Count.Date
		out["total"] = res.Count.Total
	case res.List != nil:
		out["date"] = res.List.Date
		out["morning"] = entryLines(res.List.Morning)
		out["evening"] = entryLines(res.List.Evening)
	case res.Deductions != nil:
		users := make([]string, len(res.Deductions.Users))
		for i, u := range res.Deductions.Users {
			users[i] = fmt.Sprintf("%s=%d", u.UserID, u.Amount)
		}
		out["users"] = users
		out["total"] = res.Deductions.Total
	case res.Cleared != nil:
		out["records"] = res.Cleared.Records
	case res.Sweep != nil:
		out["date"] = res.Sweep.Date
		out["session"] = string(res.Sweep.Session)
		out["penalized"] = memberIDs(res.Sweep.Penalized)
	case res.Retraction != nil:
		out["date"] = res.Retraction.Date
		out["restored"] = restorationIDs(res.Retraction.Restored)
		out["total"] = res.Retraction.Total
	case res.Ack:
		out["ack"] = true
	}
	return out
}

func entryLines(entries []ledger.AttendanceEntry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		status := "on_time"
		if e.Late {
			status = "late"
		}
		lines[i] = fmt.Sprintf("%s %s %s", e.UserID, e.Time, status)
	}
	return lines
}
