package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/rollcall/internal/ledger"
)

// SaveAll writes both documents. Each file is written atomically
// (temp-then-rename), so a crash between the two renames leaves at most
// one document stale, not corrupt. Errors propagate to the caller: a
// mutation whose save fails must be reported as failed, not swallowed.
func (g *Gateway) SaveAll(attendance ledger.AttendanceState, salary ledger.SalaryState) error {
	if err := saveDocument(g.attendancePath, attendance); err != nil {
		return fmt.Errorf("save attendance document: %w", err)
	}
	if err := saveDocument(g.salaryPath, salary); err != nil {
		return fmt.Errorf("save salary document: %w", err)
	}
	return nil
}

// saveDocument marshals v with indentation (the files are hand-inspected
// in practice) and renames a temp file into place.
func saveDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}
	return nil
}
