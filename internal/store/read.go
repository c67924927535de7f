package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/rollcall/internal/ledger"
)

// Load reads both documents. A missing file yields empty state; an
// unreadable or malformed file is quarantined (renamed to <path>.bak) and
// replaced by empty state, with a warning. Load never fails startup for
// corruption; it only errors on I/O problems other than non-existence.
func (g *Gateway) Load() (ledger.AttendanceState, ledger.SalaryState, error) {
	attendance := make(ledger.AttendanceState)
	if err := loadDocument(g.attendancePath, &attendance); err != nil {
		return nil, nil, fmt.Errorf("load attendance document: %w", err)
	}
	normalizeAttendance(attendance)

	salary := make(ledger.SalaryState)
	if err := loadDocument(g.salaryPath, &salary); err != nil {
		return nil, nil, fmt.Errorf("load salary document: %w", err)
	}
	normalizeSalary(salary)

	return attendance, salary, nil
}

// loadDocument reads one JSON file into out. Corruption quarantines the
// file and leaves out untouched (empty).
func loadDocument(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if len(data) == 0 {
		quarantine(path, fmt.Errorf("empty file"))
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		quarantine(path, err)
		return nil
	}
	return nil
}

// quarantine renames a corrupt file aside so the next save starts clean.
// Rename failure is logged and swallowed: recovery must not block startup.
func quarantine(path string, cause error) {
	backup := path + ".bak"
	slog.Warn("quarantining corrupt store file",
		"path", path,
		"backup", backup,
		"cause", cause,
	)
	if err := os.Rename(path, backup); err != nil {
		slog.Warn("quarantine rename failed", "path", path, "error", err)
	}
}

// normalizeAttendance validates the loaded document once, at the
// boundary: nil day records are dropped so the ledger never sees them.
func normalizeAttendance(state ledger.AttendanceState) {
	for group, days := range state {
		for date, rec := range days {
			if rec == nil {
				slog.Warn("dropping malformed day record", "group", group, "date", date)
				delete(days, date)
			}
		}
	}
}

// normalizeSalary validates the loaded document once, at the boundary.
// Nil records are dropped; a cached total that disagrees with its history
// is reconciled to the history sum, keeping the running-total invariant
// true from the first mutation onward.
func normalizeSalary(state ledger.SalaryState) {
	for group, records := range state {
		for id, rec := range records {
			if rec == nil {
				slog.Warn("dropping malformed salary record", "group", group, "user", id)
				delete(records, id)
				continue
			}
			if total := rec.HistoryTotal(); rec.Deductions != total {
				slog.Warn("reconciling salary total to history sum",
					"group", group,
					"user", id,
					"cached", rec.Deductions,
					"history", total,
				)
				rec.Deductions = total
			}
		}
	}
}
