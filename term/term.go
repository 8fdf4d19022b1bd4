// Package term defines the ChildParser protocol (spec.md ยง4.2): the
// capability abstraction the sequence driver dispatches over, covering the
// three kinds of term a compiled sequence's children can be: a scalar
// element, a repeating (array/optional) element, or a non-represented
// construct.
//
// Rather than a class hierarchy, this is modeled as one small interface per
// kind; implementations embed the shared Common record, and the driver
// tells the kinds apart with a plain Go type switch โ€” the same shape the teacher uses for
// its small number of node kinds (a shared embedded record plus one
// concrete type per kind) rather than deep interface inheritance.
package term

import (
	"github.com/brnnnfx/daffodil/pou"
	"github.com/brnnnfx/daffodil/pstate"
	"github.com/brnnnfx/daffodil/status"
)

// TRD is the compiled, static Term Runtime Descriptor for a schema term:
// everything the driver and diagnostics need to know about a term that
// never changes across parse attempts.
type TRD struct {
	PrefixedName   string
	IsArray        bool
	SchemaLocation string
}

// Common is embedded by every ChildParser implementation. It carries the
// fields spec.md ยง4.2 says every child exposes besides ParseOne and
// FinalChecks.
type Common struct {
	TRDValue     TRD
	ContextValue any
	PoUValue     pou.Status
}

// TRD returns the term's compiled descriptor.
func (c Common) TRD() TRD { return c.TRDValue }

// Context returns identity used for PoU labeling and diagnostics.
func (c Common) Context() any { return c.ContextValue }

// PoUStatus reports whether this child ever creates a point of uncertainty
// around its own parse attempts.
func (c Common) PoUStatus() pou.Status { return c.PoUValue }

// ChildParser is the capability every sequence child exposes, regardless
// of kind.
type ChildParser interface {
	TRD() TRD
	Context() any
	PoUStatus() pou.Status

	// ParseOne attempts exactly one occurrence. roStatus is nil for
	// NonRepresentedChildParser, whose result is not consulted by the
	// driver (spec.md ยง4.2).
	ParseOne(ps *pstate.State, roStatus *status.RequiredOptionalStatus) status.Attempt

	// FinalChecks runs trailing validations once the sequence has decided
	// this child is its last attempted one. last is the most recent
	// attempt's result, prior is the one before it (spec.md ยง9: "the
	// driver must preserve the prior/current pair for finalChecks").
	FinalChecks(ps *pstate.State, last, prior status.Attempt)
}

// ScalarChildParser is a ChildParser that is not repeating: a single
// mandatory or optional element.
type ScalarChildParser interface {
	ChildParser

	// StaticRequiredOptionalStatus reports whether this scalar is required
	// or optional, independent of any parse attempt (always present for
	// scalars per spec.md ยง4.2).
	StaticRequiredOptionalStatus() status.RequiredOptionalStatus
}

// RepeatingChildParser is a ChildParser whose occurrences form an array:
// zero-or-more, optional, or bounded-repeated content.
type RepeatingChildParser interface {
	ChildParser

	MinRepeats(ps *pstate.State) uint64
	MaxRepeats(ps *pstate.State) uint64
	IsBoundedMax() bool
	IsPositional() bool

	StartArray(ps *pstate.State)
	EndArray(ps *pstate.State)

	// ArrayIndexStatus computes the per-iteration status from (min, max,
	// currentOccurrence) plus whatever speculative context ps carries. It
	// must be a pure function of its inputs and must return status.Done
	// when min is satisfied and further speculation is disallowed.
	ArrayIndexStatus(min, max uint64, ps *pstate.State) status.ArrayIndex
}

// NonRepresentedChildParser is a ChildParser whose ParseOne is a pure side
// effect: the driver does not consult its result and does NOT advance
// groupPos for it (spec.md ยง4.2, ยง9).
type NonRepresentedChildParser interface {
	ChildParser
}
