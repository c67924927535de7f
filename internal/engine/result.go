package engine

import (
	"fmt"
	"time"

	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/policy"
)

// Action names an engine operation. The string values are the wire-level
// names used by scenario files and the CLI.
type Action string

const (
	ActionMark            Action = "mark"
	ActionCount           Action = "count"
	ActionList            Action = "list"
	ActionShowDeductions  Action = "show_deductions"
	ActionClearDeductions Action = "clear_deductions"
	ActionSweepMissing    Action = "sweep_missing"
	ActionClearMissing    Action = "clear_missing_today"
	ActionClearAttendance Action = "clear_attendance"
)

// adminOnly lists the actions that require the admin flag.
var adminOnly = map[Action]bool{
	ActionShowDeductions:  true,
	ActionClearDeductions: true,
	ActionSweepMissing:    true,
	ActionClearMissing:    true,
	ActionClearAttendance: true,
}

// ParseAction converts a wire-level action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionMark, ActionCount, ActionList, ActionShowDeductions,
		ActionClearDeductions, ActionSweepMissing, ActionClearMissing,
		ActionClearAttendance:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// AdminOnly reports whether the action requires admin.
func (a Action) AdminOnly() bool {
	return adminOnly[a]
}

// Request is one inbound event from the transport layer: who did what,
// where, and when. A zero Timestamp means "now" per the engine's clock.
type Request struct {
	Group     string
	User      string
	Name      string
	Timestamp time.Time
	IsAdmin   bool
	Action    Action
}

// Result is the structured outcome of a dispatch. Exactly one of the
// per-action fields is populated, matching Action; the presentation layer
// renders it however it likes.
type Result struct {
	Action Action
	Token  string // request token, for log correlation

	Mark       *MarkOutcome       // mark
	Count      *CountOutcome      // count
	List       *ListOutcome       // list
	Deductions *DeductionsOutcome // show_deductions
	Cleared    *ClearedOutcome    // clear_deductions
	Sweep      *SweepOutcome      // sweep_missing
	Retraction *RetractionOutcome // clear_missing_today
	Ack        bool               // clear_attendance
}

// MarkOutcome reports a check-in attempt.
type MarkOutcome struct {
	Status  ledger.MarkStatus
	Session policy.Session
	Late    bool
	Time    string // HH:MM:SS of the recorded entry; empty on already_marked
	Penalty int    // amount deducted, 0 unless late and non-admin
}

// CountOutcome reports the entry total for a date.
type CountOutcome struct {
	Date  string
	Total int
}

// ListOutcome reports a date's entries per session, insertion order.
type ListOutcome struct {
	Date    string
	Morning []ledger.AttendanceEntry
	Evening []ledger.AttendanceEntry
}

// UserDeduction is one row of the deduction report.
type UserDeduction struct {
	UserID string
	Name   string
	Amount int
}

// DeductionsOutcome reports per-user totals and the group total, ordered
// by user ID.
type DeductionsOutcome struct {
	Users []UserDeduction
	Total int
}

// ClearedOutcome reports how many salary records were reset.
type ClearedOutcome struct {
	Records int
}

// SweepOutcome reports the users penalized by a missing sweep, in
// discovery order. An empty Penalized means everyone had marked.
type SweepOutcome struct {
	Date      string
	Session   policy.Session
	Penalty   int
	Penalized []ledger.Member
}

// RetractionOutcome reports a reason-scoped retraction.
type RetractionOutcome struct {
	Date     string
	Reason   ledger.Reason
	Restored []ledger.Restoration
	Total    int
}
