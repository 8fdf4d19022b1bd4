// Package diagnostics defines the error taxonomy the sequence driver uses
// (spec.md ยง7): a recoverable ParseError, a fatal TunableLimitExceeded, and
// an InvariantViolation that represents a programmer error.
//
// The shape is grounded on the teacher's reporter package: a positioned
// error type (ErrorWithPos-alike) plus a small Handler that remembers the
// first fatal error while letting a caller keep going to collect more
// diagnostics when that's useful (e.g. during tests).
package diagnostics

import (
	"errors"
	"fmt"
)

// Kind classifies a Diagnostic.
type Kind int8

const (
	// KindParseError is recoverable: if a PoU exists and is unresolved, the
	// driver swallows it via reset instead of surfacing it.
	KindParseError Kind = iota
	// KindTunableLimitExceeded is fatal and never recoverable via PoU.
	KindTunableLimitExceeded
	// KindInvariantViolation indicates a programmer error; the driver
	// panics rather than returning this as an ordinary failure.
	KindInvariantViolation
	// KindUnorderedDiscriminated marks a failure that occurred after an
	// unordered alternative committed past its point of uncertainty.
	KindUnorderedDiscriminated
)

func (k Kind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindTunableLimitExceeded:
		return "TunableLimitExceeded"
	case KindInvariantViolation:
		return "InvariantViolation"
	case KindUnorderedDiscriminated:
		return "UnorderedSeqDiscriminatedFailure"
	default:
		return "Unknown"
	}
}

// Diagnostic is an error about a parse, positioned at a 0-based bit offset.
type Diagnostic struct {
	Kind     Kind
	BitPos0b uint64
	Err      error
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("bit %d: %s: %v", d.BitPos0b, d.Kind, d.Err)
}

// Unwrap exposes the underlying error, stripped of position and kind, to
// errors.Is/errors.As callers.
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// GetPosition returns the 0-based bit offset where this diagnostic was
// raised, mirroring the teacher's ErrorWithPos.GetPosition.
func (d *Diagnostic) GetPosition() uint64 {
	return d.BitPos0b
}

// NewParseError builds a recoverable parse-error diagnostic.
func NewParseError(bitPos0b uint64, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: KindParseError, BitPos0b: bitPos0b, Err: fmt.Errorf(format, args...)}
}

// NewTunableLimitExceeded builds a fatal schema-limit diagnostic.
func NewTunableLimitExceeded(bitPos0b uint64, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: KindTunableLimitExceeded, BitPos0b: bitPos0b, Err: fmt.Errorf(format, args...)}
}

// Discriminated rewrites a failed diagnostic to carry
// KindUnorderedDiscriminated, marking it as non-backtrackable.
func Discriminated(d *Diagnostic) *Diagnostic {
	if d == nil {
		return &Diagnostic{Kind: KindUnorderedDiscriminated, Err: errors.New("unordered sequence alternative discriminated then failed")}
	}
	return &Diagnostic{Kind: KindUnorderedDiscriminated, BitPos0b: d.BitPos0b, Err: d.Err}
}

// IsFatal reports whether d must abort the whole parse rather than being
// absorbed by a PoU reset.
func (d *Diagnostic) IsFatal() bool {
	return d.Kind == KindTunableLimitExceeded
}

// invariantViolation panics with an InvariantViolation diagnostic. Per
// spec.md ยง7, mis-nested PoU operations and broken status biconditionals
// are programmer errors, not recoverable parse failures.
type invariantViolation struct {
	*Diagnostic
}

// Assertf panics with an InvariantViolation diagnostic if cond is false.
func Assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(invariantViolation{&Diagnostic{
		Kind: KindInvariantViolation,
		Err:  fmt.Errorf(format, args...),
	}})
}
