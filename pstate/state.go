// Package pstate implements ParseState (spec.md ยง3): the mutable cursor
// over bit-level input and its companion infoset tree, carrying status,
// position counters, and the PoU stack that the sequence driver coordinates.
package pstate

import (
	"github.com/brnnnfx/daffodil/bitstream"
	"github.com/brnnnfx/daffodil/diagnostics"
	"github.com/brnnnfx/daffodil/infoset"
	"github.com/brnnnfx/daffodil/internal/interval"
	"github.com/brnnnfx/daffodil/pou"
)

// ChildRange names the occurrence that consumed a given bit interval, so a
// forward-progress diagnostic can report which earlier occurrence a
// zero-width one collided with instead of just "no forward progress".
type ChildRange struct {
	Name       string
	Occurrence uint64
}

// Tunable holds the safety caps a parse invocation must respect.
type Tunable struct {
	// MaxOccursBounds caps arrayPos (spec.md ยง3 invariant); exceeding it is
	// a fatal TunableLimitExceeded, never recoverable via PoU.
	MaxOccursBounds uint64
}

// ProcessorStatus is the Success/Failure(cause) status from spec.md ยง3.
type ProcessorStatus struct {
	success bool
	cause   *diagnostics.Diagnostic
}

// IsSuccess reports whether the processor status is currently Success.
func (p ProcessorStatus) IsSuccess() bool { return p.success }

// IsFailure reports whether the processor status is currently Failure.
func (p ProcessorStatus) IsFailure() bool { return !p.success }

// Cause returns the diagnostic that caused a Failure status, or nil if the
// status is Success.
func (p ProcessorStatus) Cause() *diagnostics.Diagnostic { return p.cause }

// State is the mutable ParseState a single sequence.Parse invocation
// operates on. It is not safe for concurrent use: per spec.md ยง5, exactly
// one driver owns a State for the duration of one parse.
type State struct {
	cursor  *bitstream.Cursor
	infoset *infoset.Tree
	parent  infoset.Ref // the current sequence's parent complex node

	status ProcessorStatus

	arrayPos uint64
	groupPos uint64

	groupIndexStack []uint64

	Tunable Tunable

	pou pou.Manager

	// consumed records the bit range each array occurrence attempt spanned,
	// keyed by its closed interval; ArrayDriver's forward-progress check
	// consults it to name which prior occurrence a zero-width one collides
	// with (spec.md's interval-map design note).
	consumed interval.Map[uint64, ChildRange]

	Diagnostics *diagnostics.Handler

	aff affinity
}

// New creates a ParseState over data, rooted at a fresh infoset node named
// rootName, with processorStatus initialized to Success as the external
// interface contract (spec.md ยง6) requires of callers.
func New(data []byte, rootName string, tunable Tunable) *State {
	s := &State{
		cursor:      bitstream.NewCursor(data),
		infoset:     infoset.NewTree(rootName),
		status:      ProcessorStatus{success: true},
		Tunable:     tunable,
		Diagnostics: diagnostics.NewHandler(),
	}
	s.parent = s.infoset.Root()
	s.aff.bind()
	return s
}

// CheckAffinity enforces the single-owner-goroutine model from spec.md ยง5.
// It is a no-op unless built with the daffodil_strict tag (see
// affinity_strict.go); sequence.Parse calls it on entry.
func (s *State) CheckAffinity() { s.aff.check() }

// Cursor exposes the underlying bit cursor for ChildParser implementations
// that need to read input directly.
func (s *State) Cursor() *bitstream.Cursor { return s.cursor }

// Infoset exposes the underlying tree for ChildParser implementations that
// need to build nodes.
func (s *State) Infoset() *infoset.Tree { return s.infoset }

// BitPos0b returns the current 0-based bit offset, a read-only projection
// of the cursor's position.
func (s *State) BitPos0b() uint64 { return s.cursor.Pos() }

// Status returns the current processor status.
func (s *State) Status() ProcessorStatus { return s.status }

// IsSuccess reports whether the processor status is Success.
func (s *State) IsSuccess() bool { return s.status.IsSuccess() }

// IsFailure reports whether the processor status is Failure.
func (s *State) IsFailure() bool { return s.status.IsFailure() }

// SetSuccess sets the processor status to Success, clearing any cause.
func (s *State) SetSuccess() { s.status = ProcessorStatus{success: true} }

// SetFailure sets the processor status to Failure with the given cause,
// and reports it to the diagnostics handler.
func (s *State) SetFailure(cause *diagnostics.Diagnostic) {
	s.status = ProcessorStatus{success: false, cause: cause}
	s.Diagnostics.Report(cause)
}

// ArrayPos returns the 1-based occurrence index within the current
// repeating child.
func (s *State) ArrayPos() uint64 { return s.arrayPos }

// SetArrayPos sets ArrayPos directly; used by ArrayDriver bookkeeping.
func (s *State) SetArrayPos(v uint64) { s.arrayPos = v }

// GroupPos returns the 1-based index of the current child within its
// enclosing group.
func (s *State) GroupPos() uint64 { return s.groupPos }

// SetGroupPos sets GroupPos directly; used by SequenceDriver/ArrayDriver
// bookkeeping.
func (s *State) SetGroupPos(v uint64) { s.groupPos = v }

// PushGroupIndex pushes a new group index frame, called on entry to any
// sequence (spec.md ยง3 invariant).
func (s *State) PushGroupIndex(initial uint64) {
	s.groupIndexStack = append(s.groupIndexStack, initial)
}

// PopGroupIndex pops the current group index frame, called on exit from
// any sequence, regardless of success or failure.
func (s *State) PopGroupIndex() {
	diagnostics.Assertf(len(s.groupIndexStack) > 0, "PopGroupIndex called with empty group index stack")
	s.groupIndexStack = s.groupIndexStack[:len(s.groupIndexStack)-1]
}

// GroupIndexDepth returns the current depth of the group index stack, used
// by property tests to assert the balance invariant.
func (s *State) GroupIndexDepth() int { return len(s.groupIndexStack) }

// Parent returns the infoset node that child terms currently append to.
func (s *State) Parent() infoset.Ref { return s.parent }

// PushParent sets a new current parent (on entry to a nested group) and
// returns the prior one, for the caller to restore on exit.
func (s *State) PushParent(p infoset.Ref) (prior infoset.Ref) {
	prior = s.parent
	s.parent = p
	return prior
}

// SetParent restores a previously saved parent.
func (s *State) SetParent(p infoset.Ref) { s.parent = p }

// AppendChild appends child to the current parent's child list.
func (s *State) AppendChild(child infoset.Ref) {
	s.infoset.AppendChild(s.parent, child)
}

// ChildCount returns how many children the current parent has.
func (s *State) ChildCount() int {
	return s.infoset.ChildCount(s.parent)
}

// RecordConsumed indexes the closed bit interval [start, end] as having been
// consumed by the given occurrence, returning whichever already-recorded
// interval it overlaps, if any. ArrayDriver calls this from
// checkForwardProgress so a zero-width collision can be reported against
// the occurrence it collides with.
func (s *State) RecordConsumed(start, end uint64, name string, occurrence uint64) interval.Interval[uint64, ChildRange] {
	return s.consumed.Insert(start, end, ChildRange{Name: name, Occurrence: occurrence})
}
