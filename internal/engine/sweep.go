package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/policy"
)

// sweepMissing penalizes every known non-admin member of the group who
// has no entry for the current session today.
//
// The member universe prefers the salary ledger (everyone ever ensured in
// the group); only when that is empty does it fall back to every user ID
// seen across the group's whole attendance history. The fallback never
// prunes, so long-departed one-time users stay "known".
//
// NOT idempotent: a second sweep for the same session on the same day
// penalizes the same users again. Callers must guard against accidental
// repeat invocation; the engine only logs when it detects a repeat.
func (e *Engine) sweepMissing(req Request, ts time.Time, token string, res *Result) error {
	date := policy.DateKey(ts)
	session := e.attendance.Windows().Classify(ts)

	members := e.memberUniverse(req.Group)
	if len(members) == 0 {
		return NewNoData("no known members (no historical data)", req.Group)
	}

	marked := e.attendance.Marked(req.Group, date, session)

	var missing []ledger.Member
	for _, m := range members {
		if marked[m.ID] || e.admins[m.ID] {
			continue
		}
		missing = append(missing, m)
	}

	outcome := &SweepOutcome{Date: date, Session: session, Penalty: e.penalty}
	res.Sweep = outcome

	if len(missing) == 0 {
		slog.Info("sweep found no missing members",
			"token", token,
			"group", req.Group,
			"session", session,
			"date", date,
		)
		return nil
	}

	for _, m := range missing {
		if e.sweptBefore(req.Group, m.ID, date) {
			slog.Warn("repeat sweep penalizes user again",
				"token", token,
				"group", req.Group,
				"user", m.ID,
				"date", date,
			)
		}
		e.salary.ApplyDeduction(req.Group, m.ID, m.Name, date, e.penalty, ledger.ReasonMissing)
	}
	outcome.Penalized = missing

	slog.Info("missing members penalized",
		"token", token,
		"group", req.Group,
		"session", session,
		"date", date,
		"count", len(missing),
		"penalty", e.penalty,
	)
	return e.persist(token)
}

// memberUniverse builds the known-members set for a group: the salary
// ledger's user set when non-empty, otherwise every user seen across the
// group's attendance history. Note that Dispatch ensures the requester's
// salary record before acting, so through the public path the fallback
// engages only for state loaded from disk with an empty salary document.
func (e *Engine) memberUniverse(group string) []ledger.Member {
	if members := e.salary.Members(group); len(members) > 0 {
		return members
	}
	return e.attendance.SeenMembers(group)
}

// sweptBefore reports whether the user already carries a missing
// deduction for the date. Detection only; the repeat penalty still
// applies.
func (e *Engine) sweptBefore(group, userID, date string) bool {
	rec, ok := e.salary.RecordsFor(group)[userID]
	if !ok {
		return false
	}
	for _, ev := range rec.History {
		if ev.Date == date && ev.Reason == ledger.ReasonMissing {
			return true
		}
	}
	return false
}
