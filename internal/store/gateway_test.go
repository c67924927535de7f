package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/policy"
)

func tempGateway(t *testing.T) *Gateway {
	t.Helper()
	dir := t.TempDir()
	return New(
		filepath.Join(dir, DefaultAttendanceFile),
		filepath.Join(dir, DefaultSalaryFile),
	)
}

func sampleState() (ledger.AttendanceState, ledger.SalaryState) {
	attendance := ledger.AttendanceState{
		"g1": {
			"2025-03-10": &ledger.DayRecord{
				Morning: []ledger.AttendanceEntry{{
					UserID:  "u1",
					Name:    "alice",
					Date:    "2025-03-10",
					Time:    "10:05:00",
					Session: policy.SessionMorning,
				}},
			},
		},
	}
	salary := ledger.SalaryState{
		"g1": {
			"u2": &ledger.SalaryRecord{
				Name:       "bob",
				Deductions: 50,
				History:    []ledger.DeductionEvent{{Date: "2025-03-10", Amount: 50, Reason: ledger.ReasonLate}},
			},
		},
	}
	return attendance, salary
}

func TestLoad_MissingFiles(t *testing.T) {
	g := tempGateway(t)

	attendance, salary, err := g.Load()
	require.NoError(t, err)
	assert.Empty(t, attendance)
	assert.Empty(t, salary)
}

func TestSaveAllRoundTrip(t *testing.T) {
	g := tempGateway(t)
	attendance, salary := sampleState()

	require.NoError(t, g.SaveAll(attendance, salary))

	loadedAtt, loadedSal, err := g.Load()
	require.NoError(t, err)
	assert.Equal(t, attendance, loadedAtt)
	assert.Equal(t, salary, loadedSal)
}

func TestLoad_CorruptFileQuarantined(t *testing.T) {
	g := tempGateway(t)
	attendance, salary := sampleState()
	require.NoError(t, g.SaveAll(attendance, salary))

	require.NoError(t, os.WriteFile(g.AttendancePath(), []byte("{not json"), 0o644))

	loadedAtt, loadedSal, err := g.Load()
	require.NoError(t, err)
	assert.Empty(t, loadedAtt, "corrupt attendance file loads as empty state")
	assert.Equal(t, salary, loadedSal, "salary file is unaffected")

	// The bad file was renamed aside.
	_, statErr := os.Stat(g.AttendancePath() + ".bak")
	assert.NoError(t, statErr)
	_, statErr = os.Stat(g.AttendancePath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_EmptyFileQuarantined(t *testing.T) {
	g := tempGateway(t)
	require.NoError(t, os.WriteFile(g.SalaryPath(), nil, 0o644))

	_, salary, err := g.Load()
	require.NoError(t, err)
	assert.Empty(t, salary)

	_, statErr := os.Stat(g.SalaryPath() + ".bak")
	assert.NoError(t, statErr)
}

func TestLoad_ReconcilesStaleTotal(t *testing.T) {
	g := tempGateway(t)

	// Deductions disagrees with history: load repairs to the history sum.
	doc := map[string]map[string]any{
		"g1": {
			"u1": map[string]any{
				"username":   "alice",
				"deductions": 10,
				"history": []map[string]any{
					{"date": "2025-03-10", "amount": 50, "reason": "late"},
				},
			},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(g.SalaryPath(), data, 0o644))

	_, salary, err := g.Load()
	require.NoError(t, err)
	rec := salary["g1"]["u1"]
	require.NotNil(t, rec)
	assert.Equal(t, 50, rec.Deductions)
	assert.Equal(t, rec.HistoryTotal(), rec.Deductions)
}

func TestLoad_DropsNullRecords(t *testing.T) {
	g := tempGateway(t)

	require.NoError(t, os.WriteFile(g.AttendancePath(),
		[]byte(`{"g1": {"2025-03-10": null}}`), 0o644))
	require.NoError(t, os.WriteFile(g.SalaryPath(),
		[]byte(`{"g1": {"u1": null, "u2": {"username":"bob","deductions":0,"history":[]}}}`), 0o644))

	attendance, salary, err := g.Load()
	require.NoError(t, err)
	assert.Empty(t, attendance["g1"])
	assert.NotContains(t, salary["g1"], "u1")
	assert.Contains(t, salary["g1"], "u2")
}

func TestSaveAll_NoTempLeftovers(t *testing.T) {
	g := tempGateway(t)
	attendance, salary := sampleState()
	require.NoError(t, g.SaveAll(attendance, salary))
	require.NoError(t, g.SaveAll(attendance, salary))

	entries, err := os.ReadDir(filepath.Dir(g.AttendancePath()))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "only the two documents should remain")
}

func TestSaveAll_UnwritableDir(t *testing.T) {
	g := New("/nonexistent-dir/att.json", "/nonexistent-dir/sal.json")
	err := g.SaveAll(make(ledger.AttendanceState), make(ledger.SalaryState))
	assert.Error(t, err)
}
