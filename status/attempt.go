// Package status implements the two tagged-variant families the sequence
// driver matches on: ParseAttemptStatus (spec.md ยง3) and ArrayIndexStatus.
//
// Both are modeled as small structs carrying an integer tag plus predicate
// methods, in the style of the teacher's report.Level: a closed enum with
// behavior attached, rather than an interface hierarchy with type
// switches sprinkled through driver code.
package status

import "github.com/brnnnfx/daffodil/diagnostics"

// AttemptKind is the tag of a ParseAttempt.
type AttemptKind int8

const (
	Uninitialized AttemptKind = iota

	// SuccessNormal and SuccessEmptyRep are the two
	// SuccessParseAttemptStatus sub-kinds modeled here. The driver treats
	// both alike (IsSuccess); FinalChecks can tell them apart.
	// Schema-specific success sub-kinds beyond these have no kind of their
	// own; any detail about them travels in the Cause field.
	SuccessNormal
	SuccessEmptyRep

	AbsentRep
	MissingItem
	MissingSeparator
	UnorderedSeqDiscriminatedFailure
	FailureUnspecified
)

// Attempt is the result of one ChildParser.ParseOne call.
type Attempt struct {
	Kind  AttemptKind
	Cause *diagnostics.Diagnostic
}

// Success returns a normal successful attempt.
func Success() Attempt { return Attempt{Kind: SuccessNormal} }

// SuccessEmpty returns a successful attempt that matched zero-width
// content (an "empty representation"), distinguished from SuccessNormal so
// that FinalChecks (e.g. trailingEmptyStrict) can tell them apart.
func SuccessEmpty() Attempt { return Attempt{Kind: SuccessEmptyRep} }

// Absent returns the benign "this occurrence is not present" outcome.
func Absent() Attempt { return Attempt{Kind: AbsentRep} }

// Failure returns a failed attempt of the given kind, carrying its cause.
// kind must not be one of the success/absent kinds; use Success/Absent for
// those.
func Failure(kind AttemptKind, cause *diagnostics.Diagnostic) Attempt {
	diagnostics.Assertf(kind == MissingItem || kind == MissingSeparator ||
		kind == UnorderedSeqDiscriminatedFailure || kind == FailureUnspecified,
		"status.Failure called with non-failure kind %d", kind)
	return Attempt{Kind: kind, Cause: cause}
}

// IsUninitialized reports whether this attempt has never been assigned a
// real outcome.
func (a Attempt) IsUninitialized() bool { return a.Kind == Uninitialized }

// IsSuccess reports whether a is any SuccessParseAttemptStatus sub-kind.
func (a Attempt) IsSuccess() bool {
	return a.Kind == SuccessNormal || a.Kind == SuccessEmptyRep
}

// IsAbsent reports whether a is AbsentRep.
func (a Attempt) IsAbsent() bool { return a.Kind == AbsentRep }

// IsSuccessOrAbsent is the predicate the status biconditional
// (spec.md ยง3, invariant 6 in ยง8) is checked against.
func (a Attempt) IsSuccessOrAbsent() bool { return a.IsSuccess() || a.IsAbsent() }

// IsFailed reports whether a is any Failed* kind: non-success, non-absent,
// and not Uninitialized.
func (a Attempt) IsFailed() bool {
	return !a.IsUninitialized() && !a.IsSuccessOrAbsent()
}

// IsMissingSeparator reports whether a is specifically MissingSeparator,
// which the ArrayDriver treats differently from other failures (it forces
// Done without treating the occurrence as failed outright when combined
// with an overall successful processor status; see parseOneInstanceWithMaybePoU).
func (a Attempt) IsMissingSeparator() bool { return a.Kind == MissingSeparator }

// IsDiscriminated reports whether a has already been rewritten to
// UnorderedSeqDiscriminatedFailure.
func (a Attempt) IsDiscriminated() bool { return a.Kind == UnorderedSeqDiscriminatedFailure }
