// Package engine is the attendance/deduction state engine: it classifies
// check-ins into sessions, applies idempotent per-session marking and late
// penalties, sweeps for users who never checked in, and retracts specific
// categories of deductions on request.
//
// The engine owns both ledgers exclusively and persists them through the
// store gateway before reporting success for any mutating action.
//
// Thread-safety model:
//   - Dispatch(): safe from any goroutine; one engine-wide mutex wraps
//     the whole {mutate, persist} pair. Both ledgers share top-level
//     state maps and every persist snapshots the whole state, so
//     finer-grained locking cannot give SaveAll a consistent view.
//   - The ledgers themselves carry no locking and are touched only under
//     the engine lock.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/roach88/rollcall/internal/ledger"
	"github.com/roach88/rollcall/internal/policy"
	"github.com/roach88/rollcall/internal/store"
)

// DefaultPenalty is the stock deduction amount for a late or missing
// check-in.
const DefaultPenalty = 50

// Options configures an Engine. Zero-value fields fall back to defaults
// (stock windows, DefaultPenalty, system clock, UUIDv7 tokens, no admins).
type Options struct {
	Windows policy.WindowPolicy
	Penalty int
	Admins  []string
	Clock   Clock
	Tokens  TokenGenerator
}

// Engine is the dispatcher over the two ledgers and the store gateway.
type Engine struct {
	gateway    *store.Gateway
	attendance *ledger.AttendanceLedger
	salary     *ledger.SalaryLedger

	penalty int
	admins  map[string]bool
	clock   Clock
	tokens  TokenGenerator

	mu sync.Mutex // serializes {mutate, persist} across all groups
}

// New loads both ledgers through the gateway and builds an engine.
// Corrupt store files are quarantined during the load and never fail
// construction; genuine I/O errors do.
func New(gateway *store.Gateway, opts Options) (*Engine, error) {
	if opts.Penalty == 0 {
		opts.Penalty = DefaultPenalty
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Tokens == nil {
		opts.Tokens = UUIDv7Generator{}
	}
	if (opts.Windows == policy.WindowPolicy{}) {
		opts.Windows = policy.DefaultWindowPolicy()
	}
	if err := opts.Windows.Validate(); err != nil {
		return nil, fmt.Errorf("window policy: %w", err)
	}

	attendanceState, salaryState, err := gateway.Load()
	if err != nil {
		return nil, fmt.Errorf("load ledgers: %w", err)
	}

	admins := make(map[string]bool, len(opts.Admins))
	for _, id := range opts.Admins {
		admins[id] = true
	}

	return &Engine{
		gateway:    gateway,
		attendance: ledger.NewAttendanceLedger(opts.Windows, attendanceState),
		salary:     ledger.NewSalaryLedger(salaryState),
		penalty:    opts.Penalty,
		admins:     admins,
		clock:      opts.Clock,
		tokens:     opts.Tokens,
	}, nil
}

// Penalty returns the configured deduction amount.
func (e *Engine) Penalty() int { return e.penalty }

// Admins returns the configured admin IDs, sorted.
func (e *Engine) Admins() []string {
	ids := make([]string, 0, len(e.admins))
	for id := range e.admins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dispatch processes one inbound event end to end: resolve the session
// from the timestamp, mutate the ledgers, persist, and return the
// structured outcome. Mutating actions report failure if the persist
// fails; the caller sees the error, never a silent partial success.
func (e *Engine) Dispatch(req Request) (*Result, error) {
	if req.Group == "" {
		return nil, NewInvalidRequest("request missing group")
	}
	if req.User == "" {
		return nil, NewInvalidRequest("request missing user")
	}
	if _, err := ParseAction(string(req.Action)); err != nil {
		return nil, NewInvalidRequest(err.Error())
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = e.clock.Now()
	}

	token := e.tokens.Generate()
	isAdmin := req.IsAdmin || e.admins[req.User]

	if req.Action.AdminOnly() && !isAdmin {
		slog.Info("permission denied",
			"token", token,
			"action", req.Action,
			"group", req.Group,
			"user", req.User,
		)
		return nil, NewPermissionDenied(req.Action, req.Group, req.User)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Anyone who touches the engine becomes a known member of the group:
	// the salary record is ensured up front, before the action runs.
	e.salary.Ensure(req.Group, req.User, req.Name)

	res := &Result{Action: req.Action, Token: token}
	var err error
	switch req.Action {
	case ActionMark:
		err = e.mark(req, ts, isAdmin, token, res)
	case ActionCount:
		e.count(req, ts, res)
	case ActionList:
		e.list(req, ts, res)
	case ActionShowDeductions:
		err = e.showDeductions(req, res)
	case ActionClearDeductions:
		err = e.clearDeductions(req, token, res)
	case ActionSweepMissing:
		err = e.sweepMissing(req, ts, token, res)
	case ActionClearMissing:
		err = e.clearMissingToday(req, ts, token, res)
	case ActionClearAttendance:
		err = e.clearAttendance(req, token, res)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// mark records a check-in, penalizing late non-admins.
func (e *Engine) mark(req Request, ts time.Time, isAdmin bool, token string, res *Result) error {
	mr := e.attendance.Mark(req.Group, req.User, req.Name, ts, isAdmin)
	outcome := &MarkOutcome{Status: mr.Status, Session: mr.Session}
	res.Mark = outcome

	if mr.Status == ledger.MarkAlreadyMarked {
		slog.Debug("already marked",
			"token", token,
			"group", req.Group,
			"user", req.User,
			"session", mr.Session,
		)
		return nil
	}

	outcome.Late = mr.Late
	outcome.Time = mr.Entry.Time
	if mr.Late {
		// Mark never sets Late for admins, so this branch is non-admin only.
		e.salary.ApplyDeduction(req.Group, req.User, req.Name, mr.Entry.Date, e.penalty, ledger.ReasonLate)
		outcome.Penalty = e.penalty
	}

	slog.Info("attendance marked",
		"token", token,
		"group", req.Group,
		"user", req.User,
		"session", mr.Session,
		"late", mr.Late,
		"admin", isAdmin,
	)
	return e.persist(token)
}

func (e *Engine) count(req Request, ts time.Time, res *Result) {
	date := policy.DateKey(ts)
	res.Count = &CountOutcome{Date: date, Total: e.attendance.Count(req.Group, date)}
}

func (e *Engine) list(req Request, ts time.Time, res *Result) {
	date := policy.DateKey(ts)
	morning, evening := e.attendance.List(req.Group, date)
	res.List = &ListOutcome{Date: date, Morning: morning, Evening: evening}
}

func (e *Engine) showDeductions(req Request, res *Result) error {
	records := e.salary.RecordsFor(req.Group)
	if len(records) == 0 {
		return NewNoData("no deductions recorded", req.Group)
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	outcome := &DeductionsOutcome{Users: make([]UserDeduction, 0, len(ids))}
	for _, id := range ids {
		rec := records[id]
		outcome.Users = append(outcome.Users, UserDeduction{UserID: id, Name: rec.Name, Amount: rec.Deductions})
		outcome.Total += rec.Deductions
	}
	res.Deductions = outcome
	return nil
}

func (e *Engine) clearDeductions(req Request, token string, res *Result) error {
	n := e.salary.ClearAll(req.Group)
	res.Cleared = &ClearedOutcome{Records: n}
	slog.Info("deductions cleared", "token", token, "group", req.Group, "records", n)
	return e.persist(token)
}

func (e *Engine) clearMissingToday(req Request, ts time.Time, token string, res *Result) error {
	date := policy.DateKey(ts)
	restored := e.salary.Retract(req.Group, date, ledger.ReasonMissing)
	if len(restored) == 0 {
		return NewNoData(fmt.Sprintf("no missing deductions for %s", date), req.Group)
	}

	outcome := &RetractionOutcome{Date: date, Reason: ledger.ReasonMissing, Restored: restored}
	for _, r := range restored {
		outcome.Total += r.Amount
	}
	res.Retraction = outcome

	slog.Info("missing deductions retracted",
		"token", token,
		"group", req.Group,
		"date", date,
		"records", len(restored),
		"total", outcome.Total,
	)
	return e.persist(token)
}

func (e *Engine) clearAttendance(req Request, token string, res *Result) error {
	e.attendance.Clear(req.Group)
	res.Ack = true
	slog.Info("attendance cleared", "token", token, "group", req.Group)
	return e.persist(token)
}

// persist writes both ledgers through the gateway. Called at the end of
// every mutating action, still under the engine lock, so the marshal
// always sees a stable snapshot of both state maps.
func (e *Engine) persist(token string) error {
	if err := e.gateway.SaveAll(e.attendance.State(), e.salary.State()); err != nil {
		slog.Error("persist failed", "token", token, "error", err)
		return fmt.Errorf("persist ledgers: %w", err)
	}
	return nil
}
