package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/policy"
)

func newAttendance() *AttendanceLedger {
	return NewAttendanceLedger(policy.DefaultWindowPolicy(), nil)
}

func stamp(h, m, s int) time.Time {
	return time.Date(2025, 3, 10, h, m, s, 0, time.Local)
}

func TestMark_OnTime(t *testing.T) {
	l := newAttendance()

	res := l.Mark("g1", "u1", "alice", stamp(10, 5, 0), false)
	require.Equal(t, MarkCreated, res.Status)
	assert.Equal(t, policy.SessionMorning, res.Session)
	assert.False(t, res.Late)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "2025-03-10", res.Entry.Date)
	assert.Equal(t, "10:05:00", res.Entry.Time)
}

func TestMark_Late(t *testing.T) {
	l := newAttendance()

	res := l.Mark("g1", "u1", "alice", stamp(10, 45, 0), false)
	require.Equal(t, MarkCreated, res.Status)
	assert.Equal(t, policy.SessionMorning, res.Session)
	assert.True(t, res.Late)
}

func TestMark_IdempotentPerSession(t *testing.T) {
	l := newAttendance()

	first := l.Mark("g1", "u1", "alice", stamp(10, 5, 0), false)
	require.Equal(t, MarkCreated, first.Status)

	// Second mark in the same session, any timestamp: no mutation.
	second := l.Mark("g1", "u1", "alice", stamp(10, 20, 0), false)
	assert.Equal(t, MarkAlreadyMarked, second.Status)
	assert.Nil(t, second.Entry)

	morning, _ := l.List("g1", "2025-03-10")
	require.Len(t, morning, 1)
	assert.Equal(t, "10:05:00", morning[0].Time)
}

func TestMark_SessionsIndependent(t *testing.T) {
	l := newAttendance()

	require.Equal(t, MarkCreated, l.Mark("g1", "u1", "alice", stamp(10, 5, 0), false).Status)

	// Same day, evening session: a fresh entry, not a repeat.
	res := l.Mark("g1", "u1", "alice", stamp(16, 40, 0), false)
	assert.Equal(t, MarkCreated, res.Status)
	assert.Equal(t, policy.SessionEvening, res.Session)
	assert.False(t, res.Late)

	assert.Equal(t, 2, l.Count("g1", "2025-03-10"))
}

func TestMark_ExemptNeverLate(t *testing.T) {
	l := newAttendance()

	res := l.Mark("g1", "admin", "boss", stamp(11, 30, 0), true)
	require.Equal(t, MarkCreated, res.Status)
	assert.False(t, res.Late)
	assert.False(t, res.Entry.Late)
}

func TestMark_GroupsIsolated(t *testing.T) {
	l := newAttendance()

	l.Mark("g1", "u1", "alice", stamp(10, 5, 0), false)
	res := l.Mark("g2", "u1", "alice", stamp(10, 6, 0), false)
	assert.Equal(t, MarkCreated, res.Status)

	assert.Equal(t, 1, l.Count("g1", "2025-03-10"))
	assert.Equal(t, 1, l.Count("g2", "2025-03-10"))
}

func TestMark_NormalizesName(t *testing.T) {
	l := newAttendance()

	// "é" as e + combining acute composes to the single NFC rune.
	res := l.Mark("g1", "u1", "rémy", stamp(10, 5, 0), false)
	require.Equal(t, MarkCreated, res.Status)
	assert.Equal(t, "rémy", res.Entry.Name)

	res = l.Mark("g1", "u2", "", stamp(10, 6, 0), false)
	assert.Equal(t, UnknownName, res.Entry.Name)
}

func TestList_InsertionOrderAndCopy(t *testing.T) {
	l := newAttendance()

	// Arrival order, not time order: carol's late entry interleaves.
	l.Mark("g1", "u2", "bob", stamp(10, 10, 0), false)
	l.Mark("g1", "u3", "carol", stamp(10, 50, 0), false)
	l.Mark("g1", "u1", "alice", stamp(10, 2, 0), false)

	morning, evening := l.List("g1", "2025-03-10")
	assert.Empty(t, evening)
	require.Len(t, morning, 3)
	assert.Equal(t, []string{"u2", "u3", "u1"}, []string{morning[0].UserID, morning[1].UserID, morning[2].UserID})

	// Returned slice is a copy.
	morning[0].Name = "mallory"
	fresh, _ := l.List("g1", "2025-03-10")
	assert.Equal(t, "bob", fresh[0].Name)
}

func TestCount_EmptyDate(t *testing.T) {
	l := newAttendance()
	assert.Zero(t, l.Count("g1", "2025-03-10"))
}

func TestMarked(t *testing.T) {
	l := newAttendance()

	l.Mark("g1", "u1", "alice", stamp(10, 5, 0), false)
	l.Mark("g1", "u2", "bob", stamp(16, 40, 0), false)

	marked := l.Marked("g1", "2025-03-10", policy.SessionMorning)
	assert.Equal(t, map[string]bool{"u1": true}, marked)
}

func TestSeenMembers(t *testing.T) {
	l := newAttendance()

	l.Mark("g1", "u1", "alice", stamp(10, 5, 0), false)
	l.Mark("g1", "u2", "bob", stamp(16, 40, 0), false)
	// Next day: u1 reappears under a new name, u3 is new.
	next := time.Date(2025, 3, 11, 10, 5, 0, 0, time.Local)
	l.Mark("g1", "u1", "alicia", next, false)
	l.Mark("g1", "u3", "carol", next.Add(time.Minute), false)

	members := l.SeenMembers("g1")
	require.Len(t, members, 3)
	// First-seen order, last-seen name.
	assert.Equal(t, Member{ID: "u1", Name: "alicia"}, members[0])
	assert.Equal(t, Member{ID: "u2", Name: "bob"}, members[1])
	assert.Equal(t, Member{ID: "u3", Name: "carol"}, members[2])
}

func TestClear(t *testing.T) {
	l := newAttendance()

	l.Mark("g1", "u1", "alice", stamp(10, 5, 0), false)
	l.Mark("g2", "u1", "alice", stamp(10, 5, 0), false)
	l.Clear("g1")

	assert.Zero(t, l.Count("g1", "2025-03-10"))
	assert.Empty(t, l.SeenMembers("g1"))
	assert.Equal(t, 1, l.Count("g2", "2025-03-10"))
}

func TestMark_AfterClearIsFresh(t *testing.T) {
	l := newAttendance()

	l.Mark("g1", "u1", "alice", stamp(10, 5, 0), false)
	l.Clear("g1")

	res := l.Mark("g1", "u1", "alice", stamp(10, 20, 0), false)
	assert.Equal(t, MarkCreated, res.Status)
}
