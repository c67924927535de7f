package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StepTimeLayout is the timestamp format for scenario steps, interpreted
// in the local zone like everything else in the engine.
const StepTimeLayout = "2006-01-02 15:04:05"

// Scenario defines a conformance scenario: a named sequence of engine
// requests with per-step expectations and optional final-state checks.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Penalty overrides the deduction amount. Zero means the default.
	Penalty int `yaml:"penalty,omitempty"`

	// Admins lists the configured administrator IDs for the run.
	Admins []string `yaml:"admins,omitempty"`

	// Steps is the request sequence, executed in order.
	Steps []Step `yaml:"steps"`

	// Final holds per-group state checks evaluated after the last step.
	Final map[string]FinalState `yaml:"final,omitempty"`
}

// Step is one engine request plus its expectation.
type Step struct {
	// At is the request timestamp, in StepTimeLayout.
	At string `yaml:"at"`

	Group  string `yaml:"group"`
	User   string `yaml:"user"`
	Name   string `yaml:"name,omitempty"`
	Admin  bool   `yaml:"admin,omitempty"`
	Action string `yaml:"action"`

	// Expect validates the step's outcome. Nil means "must succeed".
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome a step must produce. Only set fields are
// checked.
type Expect struct {
	// Error is the expected engine error code; empty means success.
	Error string `yaml:"error,omitempty"`

	Status    string   `yaml:"status,omitempty"`    // mark: created | already_marked
	Late      *bool    `yaml:"late,omitempty"`      // mark
	Penalty   *int     `yaml:"penalty,omitempty"`   // mark
	Count     *int     `yaml:"count,omitempty"`     // count
	Total     *int     `yaml:"total,omitempty"`     // show_deductions / clear_missing_today
	Penalized []string `yaml:"penalized,omitempty"` // sweep_missing, user IDs in order
	Restored  []string `yaml:"restored,omitempty"`  // clear_missing_today, user IDs in order
}

// FinalState is a per-group check evaluated once all steps have run.
type FinalState struct {
	// TotalDeductions is the expected group-wide deduction total.
	TotalDeductions *int `yaml:"total_deductions,omitempty"`
}

// parseAt parses a step timestamp.
func (s Step) parseAt() (time.Time, error) {
	ts, err := time.ParseInLocation(StepTimeLayout, s.At, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("step timestamp %q: %w", s.At, err)
	}
	return ts, nil
}

// Validate checks scenario well-formedness before execution.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario missing name")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %s has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if _, err := step.parseAt(); err != nil {
			return fmt.Errorf("scenario %s step %d: %w", s.Name, i+1, err)
		}
		if step.Group == "" || step.User == "" {
			return fmt.Errorf("scenario %s step %d: group and user are required", s.Name, i+1)
		}
		if step.Action == "" {
			return fmt.Errorf("scenario %s step %d: action is required", s.Name, i+1)
		}
	}
	return nil
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadDir loads every *.yaml scenario in a directory, sorted by file
// name for a deterministic run order.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
