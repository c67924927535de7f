// Package ledger holds the two per-group ledgers at the heart of the
// engine: the attendance ledger (who checked in, when, late or not) and
// the salary ledger (running deduction totals with an append-only,
// filterable history).
//
// Both ledgers are plain in-memory structures keyed by group. They carry
// no locking of their own; the engine serializes access per group. The
// JSON tags on the record types define the persisted document layout and
// must not change without a store migration.
package ledger

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rollcall/internal/policy"
)

// UnknownName is recorded when a caller supplies no display name.
const UnknownName = "unknown"

// Reason categorizes a deduction event.
type Reason string

const (
	// ReasonLate is applied when a check-in falls outside both windows.
	ReasonLate Reason = "late"

	// ReasonMissing is applied by the sweep to users who never checked in.
	ReasonMissing Reason = "missing"
)

// AttendanceEntry records one check-in. Entries are immutable after
// creation: corrections happen only through the salary ledger's history,
// never by editing an entry in place.
type AttendanceEntry struct {
	UserID  string         `json:"user_id"`
	Name    string         `json:"username"`
	Date    string         `json:"date"`
	Time    string         `json:"time"`
	Late    bool           `json:"late"`
	Session policy.Session `json:"session"`
}

// DayRecord holds one calendar day's entries, one ordered slice per
// session. Order is order of arrival, not sorted by time.
//
// INVARIANT: a user ID appears at most once in Morning and at most once
// in Evening. Enforced before insertion by AttendanceLedger.Mark.
type DayRecord struct {
	Morning []AttendanceEntry `json:"morning"`
	Evening []AttendanceEntry `json:"evening"`
}

// Entries returns the slice for a session.
func (d *DayRecord) Entries(s policy.Session) []AttendanceEntry {
	if s == policy.SessionMorning {
		return d.Morning
	}
	return d.Evening
}

// contains reports whether the user already has an entry for the session.
func (d *DayRecord) contains(s policy.Session, userID string) bool {
	for _, e := range d.Entries(s) {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func (d *DayRecord) append(s policy.Session, e AttendanceEntry) {
	if s == policy.SessionMorning {
		d.Morning = append(d.Morning, e)
	} else {
		d.Evening = append(d.Evening, e)
	}
}

// Len counts entries across both sessions.
func (d *DayRecord) Len() int {
	return len(d.Morning) + len(d.Evening)
}

// DeductionEvent is one line of salary history. Append-only except for
// bulk clears and reason-scoped retraction.
type DeductionEvent struct {
	Date   string `json:"date"`
	Amount int    `json:"amount"`
	Reason Reason `json:"reason"`
}

// SalaryRecord is the per-user deduction state within a group. The user ID
// is the map key in SalaryState, not a field, matching the persisted
// layout.
//
// INVARIANT: Deductions == sum of History[*].Amount after every mutation.
// All mutations go through SalaryLedger methods, which preserve this.
type SalaryRecord struct {
	Name       string           `json:"username"`
	Deductions int              `json:"deductions"`
	History    []DeductionEvent `json:"history"`
}

// HistoryTotal sums the history amounts. Used to verify the running-total
// invariant; it must always equal Deductions.
func (r *SalaryRecord) HistoryTotal() int {
	total := 0
	for _, e := range r.History {
		total += e.Amount
	}
	return total
}

// Member is a (user ID, display name) pair, the unit of the sweep's
// known-members universe.
type Member struct {
	ID   string
	Name string
}

// AttendanceState is the persisted shape of the attendance ledger:
// group → date → day record.
type AttendanceState map[string]map[string]*DayRecord

// SalaryState is the persisted shape of the salary ledger:
// group → user ID → salary record.
type SalaryState map[string]map[string]*SalaryRecord

// normalizeName NFC-normalizes a display name, substituting UnknownName
// for the empty string. Names arrive from chat transports in arbitrary
// Unicode; normalizing at the boundary keeps lookups and golden output
// stable across differently-composed inputs.
func normalizeName(name string) string {
	if name == "" {
		return UnknownName
	}
	return norm.NFC.String(name)
}
