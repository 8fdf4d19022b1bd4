package sequence

import (
	"github.com/brnnnfx/daffodil/diagnostics"
	"github.com/brnnnfx/daffodil/pou"
	"github.com/brnnnfx/daffodil/pstate"
	"github.com/brnnnfx/daffodil/status"
	"github.com/brnnnfx/daffodil/term"
)

// fatalAbort unwinds every enclosing frame, bypassing all PoU recovery,
// when a TunableLimitExceeded is raised (spec.md ยง7: "fatal; ... not
// recoverable by PoU"). Using panic/recover for exactly this one error
// class keeps the recursive ArrayDriver/SequenceDriver/parseOneInstance
// call chain from having to thread a second error return through every
// frame for a condition that must always bypass ordinary control flow;
// Parse is the only place that recovers it.
type fatalAbort struct{ diag *diagnostics.Diagnostic }

// checkN enforces the occurrence-limit check from spec.md ยง4.3: before
// each attempt, if arrayPos has already exceeded the tunable bound, abort
// the whole parse.
func checkN(ps *pstate.State, child term.ChildParser) {
	if ps.ArrayPos() > ps.Tunable.MaxOccursBounds {
		panic(fatalAbort{diagnostics.NewTunableLimitExceeded(ps.BitPos0b(),
			"occurrence count for %s exceeded tunable bound %d",
			child.TRD().PrefixedName, ps.Tunable.MaxOccursBounds)})
	}
}

// parseOneInstance implements spec.md ยง4.4: it decides whether this
// attempt needs its own point of uncertainty and, if so, wraps it before
// delegating to parseOneInstanceWithMaybePoU.
//
// ais is the ArrayIndexStatus in effect for this attempt as computed by
// the caller (ArrayDriver) immediately before calling in; it is ignored by
// scalar call sites (SequenceDriver passes the zero value and discards the
// result). The returned ArrayIndex is either ais unchanged or status.Done,
// per the dispatch table in spec.md ยง4.4.
func parseOneInstance(ps *pstate.State, child term.ChildParser, roStatus status.RequiredOptionalStatus, isOrdered bool, ais status.ArrayIndex) (status.ArrayIndex, status.Attempt) {
	needsPoU := isOrdered && child.PoUStatus() == pou.HasPoU && roStatus.IsOptional()
	return parseOneInstanceWithMaybePoU(ps, child, roStatus, ais, needsPoU)
}

func parseOneInstanceWithMaybePoU(ps *pstate.State, child term.ChildParser, roStatus status.RequiredOptionalStatus, ais status.ArrayIndex, needsPoU bool) (status.ArrayIndex, status.Attempt) {
	checkN(ps, child)

	priorPos := ps.BitPos0b()

	var mark *pou.Mark
	if needsPoU {
		mark = ps.Mark(child.TRD().PrefixedName, child.Context())
	}

	result := child.ParseOne(ps, &roStatus)
	_ = ps.BitPos0b() // currPos is observed via ps directly below where needed

	resolved := true
	if mark != nil {
		resolved = mark.IsResolved()
	}

	diagnostics.Assertf(ps.IsSuccess() == result.IsSuccessOrAbsent(),
		"status biconditional violated: processorStatus success=%v but result=%v", ps.IsSuccess(), result.Kind)

	switch {
	case result.IsSuccess():
		if mark != nil {
			ps.Discard(mark)
		}
		return ais, result

	case result.IsAbsent():
		diagnostics.Assertf(mark == nil || !resolved, "AbsentRep returned after the guarding PoU was already discriminated")
		if mark != nil {
			ps.Reset(mark)
		} else {
			// Open question in spec.md ยง9, resolved conservatively: a
			// non-PoU absent rep still rewinds to the pre-attempt position.
			ps.Cursor().Seek(priorPos)
		}
		return ais, result

	case result.IsMissingSeparator() && ps.IsSuccess():
		return status.Done(), result

	case result.IsFailed():
		diagnostics.Assertf(ps.IsFailure(), "Failed* result with Success processorStatus")

		switch {
		case mark != nil && !resolved && roStatus.IsOptional():
			ps.Reset(mark)
			return status.Done(), status.Absent()

		case mark != nil && resolved:
			// The child already committed to this branch (it discriminated)
			// before failing: there is nothing left to roll back, so the mark
			// is discharged by committing it, not resetting it. Discard only
			// pops the PoU stack frame here; it does not touch processorStatus,
			// which SetFailure above has already set to Failure.
			ps.Discard(mark)
			rewritten := status.Failure(status.UnorderedSeqDiscriminatedFailure, diagnostics.Discriminated(result.Cause))
			ps.SetFailure(rewritten.Cause)
			return status.Done(), rewritten

		case child.TRD().IsArray:
			cause := diagnostics.NewParseError(ps.BitPos0b(), "Failed to populate %s[%d]. Cause: %v",
				child.TRD().PrefixedName, ps.ArrayPos(), errCause(result))
			ps.SetFailure(cause)
			return status.Done(), status.Failure(result.Kind, cause)

		default:
			return status.Done(), result
		}

	default:
		diagnostics.Assertf(false, "parseOneInstanceWithMaybePoU: unreachable result kind %v", result.Kind)
		return status.Done(), result
	}
}

func errCause(a status.Attempt) any {
	if a.Cause == nil {
		return "unspecified"
	}
	return a.Cause.Unwrap()
}
