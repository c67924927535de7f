package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig writes a config pointing data files at a temp dir and
// returns the config path. Repeated invocations against the same config
// share state through the data files.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf("admins: [\"boss\"]\ndata:\n  dir: %q\n", dir)
	path := filepath.Join(dir, "rollcall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--config", cfgPath))
	err := cmd.Execute()
	return out.String(), err
}

func TestMarkCommand_OnTime(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1", "-n", "Umar",
		"--at", "2025-03-10 10:05:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Marked on time for the morning session at 10:05:00.")
}

func TestMarkCommand_Idempotent(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 10:05:00")
	require.NoError(t, err)

	// State persists between invocations through the data files.
	out, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 10:20:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Already marked for the morning session today.")
}

func TestMarkCommand_LateDeducts(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1", "-n", "Umar",
		"--at", "2025-03-10 10:35:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Marked late for the morning session at 10:35:00. Deducted 50 PKR.")

	out, err = runCLI(t, cfg, "deductions", "-g", "office", "-u", "boss")
	require.NoError(t, err)
	assert.Contains(t, out, "Umar (u1): 50 PKR")
	assert.Contains(t, out, "Total: 50 PKR")
}

func TestMarkCommand_JSON(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 17:00:01", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "created", data["status"])
	assert.Equal(t, "evening", data["session"])
	assert.Equal(t, true, data["late"])
	assert.Equal(t, float64(50), data["penalty"])
}

func TestMarkCommand_InvalidAt(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1", "--at", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCountAndListCommands(t *testing.T) {
	cfg := writeTestConfig(t)

	for i, at := range []string{"2025-03-10 10:05:00", "2025-03-10 10:06:00", "2025-03-10 16:40:00"} {
		_, err := runCLI(t, cfg, "mark", "-g", "office",
			"-u", fmt.Sprintf("u%d", i+1), "-n", fmt.Sprintf("User %d", i+1), "--at", at)
		require.NoError(t, err)
	}

	out, err := runCLI(t, cfg, "count", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 18:00:00")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-10: 3 check-ins")

	out, err = runCLI(t, cfg, "list", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 18:00:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Attendance for 2025-03-10")
	assert.Contains(t, out, "Morning (2):")
	assert.Contains(t, out, "Evening (1):")
	assert.Contains(t, out, "10:05:00  User 1  u1  on time")
}

func TestDeductionsCommand_PermissionDenied(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 10:05:00")
	require.NoError(t, err)

	out, err := runCLI(t, cfg, "deductions", "-g", "office", "-u", "u1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "PERMISSION_DENIED")
}

func TestSweepAndClearMissingCommands(t *testing.T) {
	cfg := writeTestConfig(t)

	// Seed membership the day before, then only u1 checks in today.
	for _, u := range []string{"u1", "u2"} {
		_, err := runCLI(t, cfg, "mark", "-g", "office", "-u", u,
			"--at", "2025-03-09 10:05:00")
		require.NoError(t, err)
	}
	_, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 10:05:00")
	require.NoError(t, err)

	out, err := runCLI(t, cfg, "sweep", "-g", "office", "-u", "boss",
		"--at", "2025-03-10 11:00:00")
	require.NoError(t, err)
	assert.Contains(t, out, "missing the morning session on 2025-03-10")
	assert.Contains(t, out, "(u2)")
	assert.NotContains(t, out, "(u1)")

	out, err = runCLI(t, cfg, "clear-missing", "-g", "office", "-u", "boss",
		"--at", "2025-03-10 12:00:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 50 PKR across 1 members for 2025-03-10")

	// Nothing left to retract.
	out, err = runCLI(t, cfg, "clear-missing", "-g", "office", "-u", "boss",
		"--at", "2025-03-10 12:30:00")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "NO_DATA")
}

func TestClearCommands(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := runCLI(t, cfg, "mark", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 10:35:00")
	require.NoError(t, err)

	// Dispatching as boss lazily creates boss's own salary record, so the
	// clear touches two records.
	out, err := runCLI(t, cfg, "clear-deductions", "-g", "office", "-u", "boss")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared deductions for 2 members.")

	out, err = runCLI(t, cfg, "clear-attendance", "-g", "office", "-u", "boss")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared attendance records for office.")

	out, err = runCLI(t, cfg, "count", "-g", "office", "-u", "u1",
		"--at", "2025-03-10 18:00:00")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-10: 0 check-ins")
}

func TestAdminsCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := runCLI(t, cfg, "admins")
	require.NoError(t, err)
	assert.Contains(t, out, "boss")
}

func TestAdminsCommand_NoneConfigured(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rollcall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("data:\n  dir: %q\n", dir)), 0o644))

	out, err := runCLI(t, path, "admins")
	require.NoError(t, err)
	assert.Contains(t, out, "No admins configured.")
}
