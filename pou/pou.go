// Package pou implements the Point-of-Uncertainty manager from spec.md
// ยง4.1: a nested checkpoint/rollback discipline over a ParseState.
//
// A Mark is an index into an arena of Snapshot records (package
// internal/arena), per spec.md ยง9's "index-plus-arena" design note: nested
// marks are cheap to create and release because they never require copying
// or ownership transfer, only bumping and truncating a watermark.
package pou

import "github.com/brnnnfx/daffodil/internal/arena"

// Status is a static property of each ChildParser: whether it ever creates
// a point of uncertainty around its own parse attempts.
type Status int8

const (
	NoPoU Status = iota
	HasPoU
)

// Snapshot is everything a Mark needs to remember to undo a speculative
// attempt: the caller (pstate.State) supplies and restores these fields,
// the Manager only stores and hands them back.
type Snapshot struct {
	BitPos          uint64
	InfosetArenaLen int
	ParentChildLen  int
	ArrayPos        uint64
	GroupPos        uint64
	GroupStackDepth int
	Success         bool
}

// Mark identifies one checkpoint on the Manager's stack.
type Mark struct {
	idx        arena.Pointer[Snapshot]
	resolved   bool
	label      string
	context    any
	discharged bool
}

// IsResolved reports whether the child parser conclusively decided (e.g.
// consumed a discriminator) before failing. A resolved mark cannot be
// backtracked into: Reset on a resolved mark is still permitted (the spec
// asserts the non-resolved case only for AbsentRep), but the driver
// consults this to decide whether a failure must be relabeled
// UnorderedSeqDiscriminatedFailure instead of being swallowed.
func (m *Mark) IsResolved() bool { return m.resolved }

// Discriminate marks m as resolved. Called when the child parser being
// guarded by m has consumed enough input to conclusively commit to this
// branch (e.g. matched a discriminator).
func (m *Mark) Discriminate() { m.resolved = true }

// Label returns the mark's diagnostic label.
func (m *Mark) Label() string { return m.label }

// Manager owns the LIFO stack of active Marks for one parse invocation.
//
// A Manager is not safe for concurrent use; per spec.md ยง5, a ParseState
// (and therefore its Manager) is exclusive to one driver invocation.
type Manager struct {
	snapshots arena.Arena[Snapshot]
	stack     []*Mark
}

// Depth returns the number of currently active marks.
func (m *Manager) Depth() int { return len(m.stack) }

// Top returns the innermost currently active mark, or nil if none is
// active. This is how a child parser signals discrimination without being
// handed the mark object directly: it asks the ParseState for "whatever
// PoU currently guards me" (see pstate.State.DiscriminateTop).
func (m *Manager) Top() *Mark {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// Mark pushes a new checkpoint carrying snap, labeled for diagnostics.
func (m *Manager) Mark(label string, context any, snap Snapshot) *Mark {
	m.snapshots.New(snap)
	mk := &Mark{
		idx:     arena.Pointer[Snapshot](m.snapshots.Len()),
		label:   label,
		context: context,
	}
	m.stack = append(m.stack, mk)
	return mk
}

// top asserts mark is the top of the stack and returns its snapshot.
func (m *Manager) top(mark *Mark) Snapshot {
	if len(m.stack) == 0 || m.stack[len(m.stack)-1] != mark {
		panic("pou: mark operation on a non-top mark (mis-nested PoU discipline)")
	}
	if mark.discharged {
		panic("pou: mark already discarded or reset")
	}
	return *mark.idx.In(&m.snapshots)
}

// Discard commits mark: its snapshot is dropped and every side effect
// produced since it was created is retained.
func (m *Manager) Discard(mark *Mark) {
	m.top(mark) // validates LIFO discipline; snapshot unused on commit
	mark.discharged = true
	m.stack = m.stack[:len(m.stack)-1]
	m.snapshots.Truncate(int(mark.idx) - 1)
}

// Reset rolls mark back: the returned Snapshot is what the caller
// (pstate.State) must restore onto bit position, infoset, and counters,
// after which the mark is popped.
func (m *Manager) Reset(mark *Mark) Snapshot {
	snap := m.top(mark)
	mark.discharged = true
	m.stack = m.stack[:len(m.stack)-1]
	m.snapshots.Truncate(int(mark.idx) - 1)
	return snap
}

// WithPointOfUncertainty is the scoped helper from spec.md ยง4.1: it marks,
// runs body, and guarantees the mark is released (discarded, by default)
// on every exit path, including a panic, unless body itself already
// discarded or reset it via the Manager.
//
// body receives the live *Mark so it can call Discriminate, or explicitly
// Discard/Reset through m before returning. Most callers (the sequence
// driver included) call Mark/Discard/Reset directly to match the spec's
// pseudocode one-for-one; this helper exists for call sites that want the
// deterministic-cleanup guarantee without replicating the defer by hand.
func WithPointOfUncertainty[R any](m *Manager, label string, context any, snap Snapshot, body func(mark *Mark) R) (result R, mark *Mark) {
	mark = m.Mark(label, context, snap)
	defer func() {
		if !mark.discharged {
			m.Discard(mark)
		}
	}()

	result = body(mark)
	return result, mark
}
