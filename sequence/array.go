package sequence

import (
	"github.com/brnnnfx/daffodil/diagnostics"
	"github.com/brnnnfx/daffodil/pstate"
	"github.com/brnnnfx/daffodil/status"
	"github.com/brnnnfx/daffodil/term"
)

// ArrayDriver implements spec.md ยง4.3: the per-iteration loop that drives a
// RepeatingChildParser through its occurrences, enforcing forward progress
// and the occurrence-count bound. It returns the last two dispositioned
// attempts, for the caller (sequence.Parse) to feed into the child's
// FinalChecks once the whole sequence has decided which child was last.
//
// arrayPos on ps is the count of occurrences already completed; a
// RepeatingChildParser's ArrayIndexStatus reads it to compute the next
// occurrence number, and the driver only advances it once an attempt has
// actually been dispositioned (not Done).
func ArrayDriver(ps *pstate.State, child term.RepeatingChildParser, isOrdered bool) (status.Attempt, status.Attempt) {
	ps.CheckAffinity()

	child.StartArray(ps)
	defer child.EndArray(ps)

	min := child.MinRepeats(ps)
	max := child.MaxRepeats(ps)

	var last, prior status.Attempt

	for {
		ais := child.ArrayIndexStatus(min, max, ps)
		if ps.IsFailure() || ais.IsDone() {
			break
		}

		ro, ok := ais.RequiredOptionalStatus()
		diagnostics.Assertf(ok, "ArrayIndexStatus returned neither Done nor a Required/Optional status")

		priorPos := ps.BitPos0b()
		ais, result := parseOneInstance(ps, child, ro, isOrdered, ais)
		prior, last = last, result
		currPos := ps.BitPos0b()

		if ps.IsSuccess() && !child.IsBoundedMax() && (result.IsAbsent() || result.IsSuccess()) {
			ais = checkForwardProgress(ps, child, currPos, priorPos, ais)
		}

		if !ais.IsDone() {
			ps.SetArrayPos(ps.ArrayPos() + 1)
		}

		if currPos > priorPos ||
			(result.IsAbsent() && ps.IsSuccess() && child.IsPositional()) ||
			result.IsSuccess() {
			ps.SetGroupPos(ps.GroupPos() + 1)
		}

		if ais.IsDone() {
			break
		}
	}

	return last, prior
}

// checkForwardProgress implements the rule from spec.md ยง4.3: a zero-width
// attempt past the first group position can never make progress, and
// looping on it would hang forever once min is already satisfied.
//
// Before deciding, it records the bit range this occurrence just consumed
// in ps's consumed-interval index (pstate.RecordConsumed), so that when the
// range turns out to be zero-width and colliding, the resulting diagnostic
// can name the earlier occurrence it collided with instead of just saying
// "no forward progress".
func checkForwardProgress(ps *pstate.State, child term.RepeatingChildParser, currPos, priorPos uint64, ais status.ArrayIndex) status.ArrayIndex {
	end := priorPos
	if currPos > priorPos {
		end = currPos - 1
	}
	overlap := ps.RecordConsumed(priorPos, end, child.TRD().PrefixedName, ais.Occurrence)

	if currPos != priorPos || ps.GroupPos() <= 1 {
		return ais
	}

	if overlap.Value != nil {
		ps.SetFailure(diagnostics.NewParseError(currPos,
			"No forward progress: %s[%d] consumed the same bit range as %s[%d]",
			child.TRD().PrefixedName, ais.Occurrence, overlap.Value.Name, overlap.Value.Occurrence))
	} else {
		ps.SetFailure(diagnostics.NewParseError(currPos, "No forward progress"))
	}
	return status.Done()
}
