// Package policy classifies check-in timestamps into attendance sessions
// and decides whether a check-in counts as on-time.
//
// Classification is a two-step design:
//
//  1. A coarse midday cut assigns the SESSION (which day-slot absorbs the
//     entry): before 13:00:00 local time is morning, everything else is
//     evening.
//  2. An independent inclusive window test decides whether a PENALTY
//     applies. A timestamp outside both windows is late no matter which
//     session it was assigned to.
//
// The two steps are deliberately decoupled: a 14:30 check-in lands in the
// evening slot and is late, because 14:30 is outside the evening window.
package policy

import (
	"fmt"
	"time"
)

// Session is one of the two daily attendance slots.
type Session string

const (
	SessionMorning Session = "morning"
	SessionEvening Session = "evening"
)

// Sessions lists both sessions in day order. The order is fixed and used
// wherever per-session output must be deterministic.
var Sessions = []Session{SessionMorning, SessionEvening}

// middayCut is the session boundary: times strictly before it are morning.
// This is a fixed rule, independent of the configured windows.
var middayCut = TimeOfDay{Hour: 13}

// TimeOfDay is a wall-clock instant within a day, seconds resolution.
// The zero value is midnight.
type TimeOfDay struct {
	Hour   int `yaml:"hour" json:"hour"`
	Minute int `yaml:"minute" json:"minute"`
	Second int `yaml:"second" json:"second"`
}

// Seconds returns the offset from midnight.
func (t TimeOfDay) Seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Seconds() < other.Seconds()
}

// String renders as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Validate checks field ranges.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return fmt.Errorf("time of day out of range: %s", t)
	}
	return nil
}

// At extracts the TimeOfDay from a timestamp, truncating sub-second
// precision. Sub-second truncation keeps the window bounds inclusive: a
// check-in at 10:30:00.900 still reads as 10:30:00.
func At(ts time.Time) TimeOfDay {
	return TimeOfDay{Hour: ts.Hour(), Minute: ts.Minute(), Second: ts.Second()}
}

// Window is an inclusive [Start, End] time-of-day interval.
type Window struct {
	Start TimeOfDay `yaml:"start" json:"start"`
	End   TimeOfDay `yaml:"end" json:"end"`
}

// Contains reports whether t falls within the closed interval.
func (w Window) Contains(t TimeOfDay) bool {
	s := t.Seconds()
	return s >= w.Start.Seconds() && s <= w.End.Seconds()
}

// Validate checks both bounds and their ordering.
func (w Window) Validate() error {
	if err := w.Start.Validate(); err != nil {
		return fmt.Errorf("window start: %w", err)
	}
	if err := w.End.Validate(); err != nil {
		return fmt.Errorf("window end: %w", err)
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("window end %s precedes start %s", w.End, w.Start)
	}
	return nil
}

// String renders as [HH:MM:SS, HH:MM:SS].
func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start, w.End)
}

// WindowPolicy holds the two on-time windows. Construct with
// DefaultWindowPolicy or from config; the zero value rejects everything as
// late and should not be used.
type WindowPolicy struct {
	Morning Window
	Evening Window
}

// DefaultWindowPolicy returns the stock windows:
// morning [10:00:00, 10:30:00], evening [16:30:00, 17:00:00].
func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{
		Morning: Window{
			Start: TimeOfDay{Hour: 10},
			End:   TimeOfDay{Hour: 10, Minute: 30},
		},
		Evening: Window{
			Start: TimeOfDay{Hour: 16, Minute: 30},
			End:   TimeOfDay{Hour: 17},
		},
	}
}

// Classify assigns the session for a timestamp via the midday cut.
// The result says which day-slot absorbs the entry, not whether it is late.
func (WindowPolicy) Classify(ts time.Time) Session {
	if At(ts).Before(middayCut) {
		return SessionMorning
	}
	return SessionEvening
}

// OnTime reports whether the timestamp falls inside either inclusive
// window. Both windows are tested regardless of the assigned session,
// matching the original two-step rule.
func (p WindowPolicy) OnTime(ts time.Time) bool {
	t := At(ts)
	return p.Morning.Contains(t) || p.Evening.Contains(t)
}

// Validate checks both windows and that they do not overlap the midday cut
// in a way that would contradict session assignment (the morning window
// must end before the cut, the evening window must start at or after it).
func (p WindowPolicy) Validate() error {
	if err := p.Morning.Validate(); err != nil {
		return fmt.Errorf("morning: %w", err)
	}
	if err := p.Evening.Validate(); err != nil {
		return fmt.Errorf("evening: %w", err)
	}
	if !p.Morning.End.Before(middayCut) {
		return fmt.Errorf("morning window %s must end before %s", p.Morning, middayCut)
	}
	if p.Evening.Start.Before(middayCut) {
		return fmt.Errorf("evening window %s must not start before %s", p.Evening, middayCut)
	}
	return nil
}

// DateKey formats a timestamp's calendar date as YYYY-MM-DD. This is the
// canonical date key used across both ledgers and the persisted documents.
func DateKey(ts time.Time) string {
	return ts.Format("2006-01-02")
}

// ClockKey formats a timestamp's time-of-day as HH:MM:SS, the form stored
// on attendance entries.
func ClockKey(ts time.Time) string {
	return ts.Format("15:04:05")
}
