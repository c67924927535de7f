package ledger

import (
	"sort"
	"time"

	"github.com/roach88/rollcall/internal/policy"
)

// MarkStatus distinguishes a fresh entry from an idempotent repeat.
type MarkStatus string

const (
	MarkCreated       MarkStatus = "created"
	MarkAlreadyMarked MarkStatus = "already_marked"
)

// MarkResult is the outcome of AttendanceLedger.Mark.
type MarkResult struct {
	Status  MarkStatus
	Session policy.Session
	Late    bool
	Entry   *AttendanceEntry // nil when Status is MarkAlreadyMarked
}

// AttendanceLedger is the per-group, per-day, per-session check-in record.
// Not safe for concurrent use; the engine serializes access per group.
type AttendanceLedger struct {
	windows policy.WindowPolicy
	state   AttendanceState
}

// NewAttendanceLedger wraps loaded state (pass nil for empty) with the
// given window policy.
func NewAttendanceLedger(windows policy.WindowPolicy, state AttendanceState) *AttendanceLedger {
	if state == nil {
		state = make(AttendanceState)
	}
	return &AttendanceLedger{windows: windows, state: state}
}

// State exposes the underlying state for persistence.
func (l *AttendanceLedger) State() AttendanceState {
	return l.state
}

// Windows returns the ledger's window policy.
func (l *AttendanceLedger) Windows() policy.WindowPolicy {
	return l.windows
}

// day returns the group's record for a date, creating it lazily.
func (l *AttendanceLedger) day(group, date string) *DayRecord {
	days, ok := l.state[group]
	if !ok {
		days = make(map[string]*DayRecord)
		l.state[group] = days
	}
	rec, ok := days[date]
	if !ok {
		rec = &DayRecord{}
		days[date] = rec
	}
	return rec
}

// Mark records a check-in for the session the timestamp classifies into.
//
// Idempotent per (group, date, session, user): a repeat call returns
// MarkAlreadyMarked and mutates nothing, whatever its timestamp. The late
// flag is the window test from the policy; exempt callers (admins) are
// never flagged late, matching the original rule that admins check in
// without penalty at any hour.
func (l *AttendanceLedger) Mark(group, userID, name string, ts time.Time, exempt bool) MarkResult {
	session := l.windows.Classify(ts)
	date := policy.DateKey(ts)

	rec := l.day(group, date)
	if rec.contains(session, userID) {
		return MarkResult{Status: MarkAlreadyMarked, Session: session}
	}

	late := !exempt && !l.windows.OnTime(ts)
	entry := AttendanceEntry{
		UserID:  userID,
		Name:    normalizeName(name),
		Date:    date,
		Time:    policy.ClockKey(ts),
		Late:    late,
		Session: session,
	}
	rec.append(session, entry)

	return MarkResult{Status: MarkCreated, Session: session, Late: late, Entry: &entry}
}

// Count sums entries across both sessions for a date.
func (l *AttendanceLedger) Count(group, date string) int {
	if rec, ok := l.state[group][date]; ok {
		return rec.Len()
	}
	return 0
}

// List returns the date's entries per session, in insertion order. The
// returned slices are copies; callers cannot mutate ledger state through
// them.
func (l *AttendanceLedger) List(group, date string) (morning, evening []AttendanceEntry) {
	rec, ok := l.state[group][date]
	if !ok {
		return nil, nil
	}
	morning = make([]AttendanceEntry, len(rec.Morning))
	copy(morning, rec.Morning)
	evening = make([]AttendanceEntry, len(rec.Evening))
	copy(evening, rec.Evening)
	return morning, evening
}

// Marked returns the set of user IDs with an entry for the session on the
// date.
func (l *AttendanceLedger) Marked(group, date string, s policy.Session) map[string]bool {
	marked := make(map[string]bool)
	if rec, ok := l.state[group][date]; ok {
		for _, e := range rec.Entries(s) {
			marked[e.UserID] = true
		}
	}
	return marked
}

// SeenMembers reconstructs the member universe from every entry the group
// has ever recorded, across all dates and sessions. Deduplicated by user
// ID; first-seen position wins, last-seen display name wins. Dates are
// walked in sorted order so the result is deterministic.
//
// This is the sweep's fallback when no salary records exist yet. It never
// prunes: a one-time visitor from months ago stays "known" forever.
func (l *AttendanceLedger) SeenMembers(group string) []Member {
	days := l.state[group]
	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var order []string
	names := make(map[string]string)
	for _, date := range dates {
		rec := days[date]
		for _, s := range policy.Sessions {
			for _, e := range rec.Entries(s) {
				if _, seen := names[e.UserID]; !seen {
					order = append(order, e.UserID)
				}
				names[e.UserID] = e.Name
			}
		}
	}

	members := make([]Member, len(order))
	for i, id := range order {
		members[i] = Member{ID: id, Name: names[id]}
	}
	return members
}

// Clear removes every DayRecord for the group. Irreversible.
func (l *AttendanceLedger) Clear(group string) {
	delete(l.state, group)
}
