// Package store is the persistence gateway: durable load/save of the two
// ledger documents as whole JSON files.
//
// The layout on disk mirrors the in-memory state exactly:
//
//	attendance.json: { group: { date: { morning: [entry...], evening: [entry...] } } }
//	salary.json:     { group: { user_id: { username, deductions, history } } }
//
// Corruption is never fatal: an unreadable file is renamed aside as a
// backup and replaced by empty state at load time. Saves write to a temp
// file and rename into place, so a crash mid-write leaves at most one
// document stale, never corrupt.
package store

// Gateway persists the attendance and salary documents to two independent
// files. Loads and saves are whole-file operations; the engine serializes
// them per dispatch, so the gateway itself carries no locking.
type Gateway struct {
	attendancePath string
	salaryPath     string
}

// Default file names, matching the original data files.
const (
	DefaultAttendanceFile = "attendance_records.json"
	DefaultSalaryFile     = "salary_records.json"
)

// New creates a gateway over the two file paths. The files need not
// exist; a missing file loads as empty state.
func New(attendancePath, salaryPath string) *Gateway {
	return &Gateway{
		attendancePath: attendancePath,
		salaryPath:     salaryPath,
	}
}

// AttendancePath returns the attendance document path.
func (g *Gateway) AttendancePath() string { return g.attendancePath }

// SalaryPath returns the salary document path.
func (g *Gateway) SalaryPath() string { return g.salaryPath }
