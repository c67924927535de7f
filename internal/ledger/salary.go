package ledger

import "sort"

// Restoration reports one record touched by a retraction: who, and how
// much was removed from their running total.
type Restoration struct {
	UserID string
	Name   string
	Amount int
}

// SalaryLedger is the per-group, per-user deduction ledger. Not safe for
// concurrent use; the engine serializes access per group.
type SalaryLedger struct {
	state SalaryState
}

// NewSalaryLedger wraps loaded state (pass nil for empty).
func NewSalaryLedger(state SalaryState) *SalaryLedger {
	if state == nil {
		state = make(SalaryState)
	}
	return &SalaryLedger{state: state}
}

// State exposes the underlying state for persistence.
func (l *SalaryLedger) State() SalaryState {
	return l.state
}

// Ensure fetches the record for (group, user), creating it lazily. A
// record with no display name on file is backfilled from the given name;
// an existing non-empty name is never overwritten.
func (l *SalaryLedger) Ensure(group, userID, name string) *SalaryRecord {
	records, ok := l.state[group]
	if !ok {
		records = make(map[string]*SalaryRecord)
		l.state[group] = records
	}
	rec, ok := records[userID]
	if !ok {
		rec = &SalaryRecord{Name: normalizeName(name)}
		records[userID] = rec
		return rec
	}
	if rec.Name == "" || rec.Name == UnknownName {
		if name != "" {
			rec.Name = normalizeName(name)
		}
	}
	return rec
}

// ApplyDeduction appends a history event and bumps the running total by
// the same amount, preserving the deductions==sum(history) invariant.
// Never fails for a non-negative amount.
func (l *SalaryLedger) ApplyDeduction(group, userID, name, date string, amount int, reason Reason) {
	rec := l.Ensure(group, userID, name)
	rec.History = append(rec.History, DeductionEvent{Date: date, Amount: amount, Reason: reason})
	rec.Deductions += amount
}

// TotalFor sums the running totals across the group.
func (l *SalaryLedger) TotalFor(group string) int {
	total := 0
	for _, rec := range l.state[group] {
		total += rec.Deductions
	}
	return total
}

// RecordsFor returns the group's records keyed by user ID. The map is a
// fresh copy but the records are the live pointers; callers must treat
// them as read-only.
func (l *SalaryLedger) RecordsFor(group string) map[string]*SalaryRecord {
	records := make(map[string]*SalaryRecord, len(l.state[group]))
	for id, rec := range l.state[group] {
		records[id] = rec
	}
	return records
}

// Members returns the group's users as (ID, name) pairs sorted by user ID.
// This is the sweep's preferred member universe; the sort gives it a
// deterministic discovery order (map insertion order is not recoverable).
func (l *SalaryLedger) Members(group string) []Member {
	records := l.state[group]
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	members := make([]Member, len(ids))
	for i, id := range ids {
		members[i] = Member{ID: id, Name: records[id].Name}
	}
	return members
}

// ClearAll zeroes every record in the group: deductions to 0, history to
// empty. Returns the number of records reset.
func (l *SalaryLedger) ClearAll(group string) int {
	records := l.state[group]
	for _, rec := range records {
		rec.Deductions = 0
		rec.History = nil
	}
	return len(records)
}

// Retract removes every history event matching exactly (date, reason)
// across the group, decrementing each touched record's total by the exact
// sum removed. The floor at zero is defensive; if the running-total
// invariant holds the removed sum can never exceed the total.
//
// Records with no matching events are skipped entirely and do not appear
// in the report. Results are ordered by user ID for determinism.
func (l *SalaryLedger) Retract(group, date string, reason Reason) []Restoration {
	records := l.state[group]
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var restored []Restoration
	for _, id := range ids {
		rec := records[id]
		removed := 0
		kept := rec.History[:0]
		for _, e := range rec.History {
			if e.Date == date && e.Reason == reason {
				removed += e.Amount
				continue
			}
			kept = append(kept, e)
		}
		if removed == 0 {
			continue
		}
		rec.History = kept
		rec.Deductions -= removed
		if rec.Deductions < 0 {
			rec.Deductions = 0
		}
		restored = append(restored, Restoration{UserID: id, Name: rec.Name, Amount: removed})
	}
	return restored
}
