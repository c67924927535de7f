package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "basic.yaml", `
name: basic
description: "single on-time check-in"
admins: ["boss"]
steps:
  - at: "2025-03-10 10:05:00"
    group: g
    user: u
    name: "Umar"
    action: mark
    expect:
      status: created
      late: false
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Name)
	assert.Equal(t, []string{"boss"}, s.Admins)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "mark", s.Steps[0].Action)
	assert.Equal(t, "Umar", s.Steps[0].Name)
	require.NotNil(t, s.Steps[0].Expect)
	assert.Equal(t, "created", s.Steps[0].Expect.Status)
	require.NotNil(t, s.Steps[0].Expect.Late)
	assert.False(t, *s.Steps[0].Expect.Late)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "bad.yaml", "name: [unclosed")
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestScenarioValidate(t *testing.T) {
	step := func() Step {
		return Step{At: "2025-03-10 10:05:00", Group: "g", User: "u", Action: "mark"}
	}

	tests := []struct {
		name     string
		scenario Scenario
		wantErr  string
	}{
		{
			name:     "valid",
			scenario: Scenario{Name: "ok", Steps: []Step{step()}},
		},
		{
			name:     "missing name",
			scenario: Scenario{Steps: []Step{step()}},
			wantErr:  "missing name",
		},
		{
			name:     "no steps",
			scenario: Scenario{Name: "empty"},
			wantErr:  "has no steps",
		},
		{
			name: "bad timestamp",
			scenario: func() Scenario {
				s := step()
				s.At = "10:05"
				return Scenario{Name: "ts", Steps: []Step{s}}
			}(),
			wantErr: "step 1",
		},
		{
			name: "missing user",
			scenario: func() Scenario {
				s := step()
				s.User = ""
				return Scenario{Name: "who", Steps: []Step{s}}
			}(),
			wantErr: "group and user are required",
		},
		{
			name: "missing action",
			scenario: func() Scenario {
				s := step()
				s.Action = ""
				return Scenario{Name: "what", Steps: []Step{s}}
			}(),
			wantErr: "action is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scenario.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", "name: second\nsteps:\n  - at: \"2025-03-10 10:05:00\"\n    group: g\n    user: u\n    action: mark\n")
	writeScenario(t, dir, "a.yaml", "name: first\nsteps:\n  - at: \"2025-03-10 10:05:00\"\n    group: g\n    user: u\n    action: mark\n")
	writeScenario(t, dir, "notes.txt", "not a scenario")

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "first", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenario files")
}
