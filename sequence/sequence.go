// Package sequence implements the sequence combinator parser: the
// ArrayDriver and SequenceDriver described in spec.md ยง4.3 and ยง4.5, plus
// the shared parseOneInstance machinery in attempt.go.
package sequence

import (
	"github.com/brnnnfx/daffodil/diagnostics"
	"github.com/brnnnfx/daffodil/pou"
	"github.com/brnnnfx/daffodil/pstate"
	"github.com/brnnnfx/daffodil/status"
	"github.com/brnnnfx/daffodil/term"
)

// Parse runs the sequence combinator driver over children (spec.md ยง4.5),
// the single entry point named in spec.md ยง6. On entry ps.IsSuccess() must
// already hold; Parse restores the group-index-stack depth on every exit
// path. When it returns without a TunableLimitExceeded abort, every PoU
// mark it created has been discarded or reset; after such an abort, the
// marks that were active when the limit was hit stay on ps's PoU stack.
//
// children is already in compiled schema order; for an unordered sequence
// this same order is what flattenAndValidateChildNodes sorts arrival-order
// infoset children back into once the group's alternatives are exhausted.
func Parse(ps *pstate.State, children []term.ChildParser, isOrdered bool) (attempt status.Attempt) {
	ps.CheckAffinity()
	ps.PushGroupIndex(1)
	defer ps.PopGroupIndex()

	startDepth := ps.PoUDepth()

	// A TunableLimitExceeded is fatal and must bypass every PoU recovery
	// frame between where it was raised (checkN, arbitrarily deep inside
	// nested arrays/sequences) and here, per spec.md ยง7. Catching the
	// fatalAbort sentinel only at this top-level entry point is cheaper
	// than threading a second error return through every recursive call.
	// A recovered abort skips the PoU-balance assertion below: panicking
	// out of however many frames were mid-attempt is exactly what leaves
	// their marks undischarged, and that is expected here, not a bug.
	defer func() {
		r := recover()
		if r == nil {
			diagnostics.Assertf(ps.PoUDepth() == startDepth, "sequence.Parse returned with unreleased PoU marks")
			return
		}
		abort, ok := r.(fatalAbort)
		if !ok {
			panic(r)
		}
		ps.SetFailure(abort.diag)
		attempt = status.Failure(status.FailureUnspecified, abort.diag)
	}()

	infosetStart := ps.ChildCount()

	var result, prior status.Attempt
	var lastChild term.ChildParser

	if isOrdered {
		result, prior, lastChild = runOrdered(ps, children)
	} else {
		result, prior, lastChild = runUnordered(ps, children, infosetStart)
	}

	if lastChild != nil {
		lastChild.FinalChecks(ps, result, prior)
	}
	return result
}

func schemaOrderOf(children []term.ChildParser) func(name string) (int, bool) {
	rank := make(map[string]int, len(children))
	for i, c := range children {
		rank[c.TRD().PrefixedName] = i
	}
	return func(name string) (int, bool) {
		r, ok := rank[name]
		return r, ok
	}
}

func runOrdered(ps *pstate.State, children []term.ChildParser) (result, prior status.Attempt, lastChild term.ChildParser) {
	isDone := false
	for i := 0; i < len(children) && !isDone && ps.IsSuccess(); i++ {
		child := children[i]
		lastChild = child

		r, consulted, done := dispatchOne(ps, child, true)
		if consulted {
			prior, result = result, r
		}
		isDone = done
	}
	return result, prior, lastChild
}

// runUnordered implements the "Ordering semantics" prose of spec.md ยง4.5:
// any remaining candidate may match at the current position; the first one
// that does consumes and is retired from the candidate pool, and the
// driver tries the (now smaller) pool again from the current position.
// Candidates that are absent this round stay eligible for a later round.
// A discriminated failure from any candidate stops the whole sequence
// immediately without trying the rest โ€” this is the one case spec.md ยง4.5
// singles out as not delegable to "try the next candidate".
func runUnordered(ps *pstate.State, children []term.ChildParser, infosetStart int) (result, prior status.Attempt, lastChild term.ChildParser) {
	remaining := append([]term.ChildParser(nil), children...)
	isDone := false

	for !isDone && ps.IsSuccess() && len(remaining) > 0 {
		matchedAt := -1

		for i, child := range remaining {
			r, consulted, done := dispatchOne(ps, child, false)
			if consulted {
				prior, result = result, r
				lastChild = child
			}

			if done {
				isDone = true
				break
			}
			if r.IsSuccess() {
				matchedAt = i
				break
			}
			// AbsentRep or a non-represented side effect: this candidate
			// isn't present this round; try the next one.
		}

		if isDone {
			break
		}
		if matchedAt < 0 {
			// No remaining candidate matched: the unordered group is
			// exhausted with everything left legitimately absent.
			isDone = true
			break
		}
		remaining = append(remaining[:matchedAt], remaining[matchedAt+1:]...)
	}

	ps.Infoset().FlattenAndValidate(ps.Parent(), infosetStart, schemaOrderOf(children))
	return result, prior, lastChild
}

// dispatchOne runs a single child's contribution to the sequence, per the
// "match child" block of spec.md ยง4.5. consulted reports whether result
// is a new outcome the caller should fold into its running result/prior
// pair (false for NonRepresentedChildParser, whose outcome is a pure side
// effect). done reports whether the sequence-level loop should stop after
// this child.
//
// Dispatch is ordered narrowest-interface-first: RepeatingChildParser and
// ScalarChildParser each add methods beyond plain ChildParser, so a type
// switch distinguishes them; anything matching neither is treated as
// NonRepresentedChildParser, whose interface is identical to ChildParser's
// by design (spec.md ยง4.2 gives it no extra capability).
func dispatchOne(ps *pstate.State, child term.ChildParser, isOrdered bool) (result status.Attempt, consulted, done bool) {
	switch c := child.(type) {
	case term.RepeatingChildParser:
		result, _ = ArrayDriver(ps, c, isOrdered)
		return result, true, false

	case term.ScalarChildParser:
		ro := c.StaticRequiredOptionalStatus()

		// spec.md ยง4.4 gates parseOneInstance's own PoU creation on
		// isOrdered, deferring unordered speculation to an external
		// "choice layer" it doesn't otherwise model. A bare sequence has
		// no such layer above it, so for an unordered sequence this
		// per-candidate dispatch loop plays that role itself: every
		// candidate attempt is speculative by virtue of the unordered
		// context, independent of the child's own static PoUStatus.
		needsPoU := !isOrdered || (c.PoUStatus() == pou.HasPoU && ro.IsOptional())
		_, result = parseOneInstanceWithMaybePoU(ps, c, ro, status.ArrayIndex{}, needsPoU)

		if !isOrdered {
			// Each unordered candidate is probed in isolation by
			// runUnordered's own round loop, which is what decides that
			// "not present this round" means "try the next candidate" โ€”
			// that decision does not belong here, so a plain AbsentRep is
			// reported back unconsulted rather than ending the sequence.
			switch {
			case result.IsSuccess():
				ps.SetGroupPos(ps.GroupPos() + 1)
				return result, true, false
			case result.IsDiscriminated():
				return result, true, true
			case isUnorderedTerminalFailure(result):
				ps.SetSuccess()
				return result, true, true
			default:
				return result, false, false
			}
		}

		switch {
		case result.IsAbsent():
			ps.SetSuccess()
			done = true
		case result.IsDiscriminated():
			done = true
		}
		ps.SetGroupPos(ps.GroupPos() + 1)
		return result, true, done

	default: // NonRepresentedChildParser
		child.ParseOne(ps, nil)
		return status.Attempt{}, false, false
	}
}

func isUnorderedTerminalFailure(a status.Attempt) bool {
	return a.Kind == status.MissingItem || a.Kind == status.MissingSeparator || a.Kind == status.FailureUnspecified
}
