package pstate

import (
	"github.com/brnnnfx/daffodil/diagnostics"
	"github.com/brnnnfx/daffodil/pou"
)

// snapshot captures everything a PoU mark needs to restore: bit position,
// infoset arena length, the current parent's child-list length, and the
// counters/group-stack-depth/status spec.md ยง9 names.
func (s *State) snapshot() pou.Snapshot {
	return pou.Snapshot{
		BitPos:          s.cursor.Pos(),
		InfosetArenaLen: s.infoset.ArenaLen(),
		ParentChildLen:  s.infoset.ChildCount(s.parent),
		ArrayPos:        s.arrayPos,
		GroupPos:        s.groupPos,
		GroupStackDepth: len(s.groupIndexStack),
		Success:         s.status.success,
	}
}

// restore applies a previously captured snapshot: truncates the infoset
// arena and the current parent's children back to the mark, rewinds the
// cursor, restores counters, and sets processorStatus to Success (a PoU
// reset always recovers a soft failure, per spec.md ยง4.1).
func (s *State) restore(snap pou.Snapshot) {
	s.infoset.TruncateChildren(s.parent, snap.ParentChildLen)
	s.infoset.TruncateArena(snap.InfosetArenaLen)
	s.cursor.Seek(snap.BitPos)
	s.arrayPos = snap.ArrayPos
	s.groupPos = snap.GroupPos
	// A mark is always created and released within the same sequence
	// invocation that owns the current stack frame, so depth must already
	// match; this catches a driver bug rather than "fixing" the stack.
	diagnostics.Assertf(len(s.groupIndexStack) == snap.GroupStackDepth,
		"pstate: PoU reset crossed a group-index-stack frame boundary")
	s.status = ProcessorStatus{success: true}
}

// Mark creates a new point of uncertainty, snapshotting the current state.
// label and context are for diagnostics only.
func (s *State) Mark(label string, context any) *pou.Mark {
	return s.pou.Mark(label, context, s.snapshot())
}

// Discard commits mark: every side effect produced since it was created is
// retained.
func (s *State) Discard(mark *pou.Mark) {
	s.pou.Discard(mark)
}

// Reset rolls back to mark: bit position, infoset, and counters are
// restored, and processorStatus becomes Success.
func (s *State) Reset(mark *pou.Mark) {
	snap := s.pou.Reset(mark)
	s.restore(snap)
}

// Discriminate marks the given PoU as resolved: the child parser guarded by
// it has conclusively committed to this branch (e.g. consumed a
// discriminator) and a subsequent failure cannot be backtracked past it.
func (s *State) Discriminate(mark *pou.Mark) {
	mark.Discriminate()
}

// PoUDepth returns the number of currently active PoU marks, used by
// property tests to assert the PoU-balance invariant (spec.md ยง8
// invariant 2).
func (s *State) PoUDepth() int { return s.pou.Depth() }

// DiscriminateTop marks the innermost active PoU (if any) as resolved. A
// ChildParser calls this from within ParseOne to signal that it has
// conclusively committed to its current branch (e.g. consumed a
// discriminator), without needing to know whether it is even running
// under a PoU โ€” if there is none active, this is a no-op.
func (s *State) DiscriminateTop() {
	if mark := s.pou.Top(); mark != nil {
		mark.Discriminate()
	}
}
