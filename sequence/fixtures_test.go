package sequence_test

import (
	"math"

	"github.com/brnnnfx/daffodil/diagnostics"
	"github.com/brnnnfx/daffodil/pou"
	"github.com/brnnnfx/daffodil/pstate"
	"github.com/brnnnfx/daffodil/status"
	"github.com/brnnnfx/daffodil/term"
)

// unbounded is the sentinel MaxRepeats a RepeatingChildParser fixture
// returns when it has no static upper bound; IsBoundedMax reports false in
// that case, and the occurrence-limit check (ยง4.3) is what actually stops
// the array.
const unbounded = math.MaxUint64

// byteField is a required-or-optional scalar that consumes exactly one
// byte as its value, then opportunistically consumes a following '|'
// infix separator if one is present. Grounds S1/S2's "sequence of scalars
// read from a delimited byte stream" scenario.
type byteField struct {
	term.Common
	required bool
}

func newByteField(name string, required bool) *byteField {
	return &byteField{
		Common:   term.Common{TRDValue: term.TRD{PrefixedName: name}},
		required: required,
	}
}

func (f *byteField) StaticRequiredOptionalStatus() status.RequiredOptionalStatus {
	if f.required {
		return status.StaticRequired()
	}
	return status.StaticOptional()
}

func (f *byteField) ParseOne(ps *pstate.State, ro *status.RequiredOptionalStatus) status.Attempt {
	if ps.Cursor().AtEnd() {
		if ro != nil && ro.IsOptional() {
			return status.Absent()
		}
		cause := diagnostics.NewParseError(ps.BitPos0b(), "missing required element %s", f.TRDValue.PrefixedName)
		ps.SetFailure(cause)
		return status.Failure(status.MissingItem, cause)
	}

	v, _ := ps.Cursor().ReadBits(8)
	ps.AppendChild(ps.Infoset().NewSimple(f.TRDValue.PrefixedName, string([]byte{byte(v)})))

	if b, ok := ps.Cursor().PeekBits(8); ok && byte(b) == '|' {
		ps.Cursor().Advance(8)
	}
	return status.Success()
}

func (f *byteField) FinalChecks(ps *pstate.State, last, prior status.Attempt) {}

// taggedField models a discriminator-led unordered-group member: it is
// present at the current position only if the next byte equals its tag,
// in which case it consumes the tag and one value byte. It always
// discriminates on a tag match, by design of ยง4.4's "unordered sequences
// defer PoU to the choice layer" note as applied within SequenceDriver's
// own per-candidate dispatch (see sequence.go dispatchOne): once a
// candidate's tag has matched, the driver must not try to backtrack past
// it as if it had never been tried.
type taggedField struct {
	term.Common
	tag byte
	// failAfterTag, when true, always fails after consuming the tag byte
	// (for exercising UnorderedSeqDiscriminatedFailure, S7).
	failAfterTag bool
}

func newTaggedField(name string, tag byte) *taggedField {
	return &taggedField{
		Common: term.Common{TRDValue: term.TRD{PrefixedName: name}, PoUValue: pou.HasPoU},
		tag:    tag,
	}
}

func (f *taggedField) StaticRequiredOptionalStatus() status.RequiredOptionalStatus {
	return status.StaticOptional()
}

func (f *taggedField) ParseOne(ps *pstate.State, ro *status.RequiredOptionalStatus) status.Attempt {
	b, ok := ps.Cursor().PeekBits(8)
	if !ok || byte(b) != f.tag {
		return status.Absent()
	}
	ps.Cursor().Advance(8)
	ps.DiscriminateTop()

	if f.failAfterTag {
		cause := diagnostics.NewParseError(ps.BitPos0b(), "tagged field %s failed after its discriminator", f.TRDValue.PrefixedName)
		ps.SetFailure(cause)
		return status.Failure(status.MissingItem, cause)
	}

	v, ok := ps.Cursor().ReadBits(8)
	if !ok {
		cause := diagnostics.NewParseError(ps.BitPos0b(), "missing value after tag %q", f.tag)
		ps.SetFailure(cause)
		return status.Failure(status.MissingItem, cause)
	}
	ps.AppendChild(ps.Infoset().NewSimple(f.TRDValue.PrefixedName, string([]byte{byte(v)})))
	return status.Success()
}

func (f *taggedField) FinalChecks(ps *pstate.State, last, prior status.Attempt) {}

// repeatingBase shares the static array shape across the ArrayDriver
// fixtures below; each fixture overrides ParseOne for its own scenario.
type repeatingBase struct {
	term.Common
	min, max   uint64
	bounded    bool
	positional bool
}

func (r *repeatingBase) MinRepeats(ps *pstate.State) uint64 { return r.min }
func (r *repeatingBase) MaxRepeats(ps *pstate.State) uint64 { return r.max }
func (r *repeatingBase) IsBoundedMax() bool                 { return r.bounded }
func (r *repeatingBase) IsPositional() bool                 { return r.positional }
func (r *repeatingBase) StartArray(ps *pstate.State)        {}
func (r *repeatingBase) EndArray(ps *pstate.State)          {}
func (r *repeatingBase) FinalChecks(ps *pstate.State, last, prior status.Attempt) {}

func (r *repeatingBase) ArrayIndexStatus(min, max uint64, ps *pstate.State) status.ArrayIndex {
	occurrence := ps.ArrayPos() + 1
	if r.bounded && occurrence > max {
		return status.Done()
	}
	if occurrence <= min {
		return status.Required(occurrence)
	}
	return status.Optional(occurrence)
}

// zeroWidthArray always succeeds without consuming any input, to drive the
// forward-progress check (S3).
type zeroWidthArray struct{ repeatingBase }

func newZeroWidthArray(name string) *zeroWidthArray {
	return &zeroWidthArray{repeatingBase{
		Common: term.Common{TRDValue: term.TRD{PrefixedName: name, IsArray: true}},
		min:    0, max: unbounded, bounded: false,
	}}
}

func (z *zeroWidthArray) ParseOne(ps *pstate.State, ro *status.RequiredOptionalStatus) status.Attempt {
	ps.AppendChild(ps.Infoset().NewSimple(z.TRDValue.PrefixedName, ""))
	return status.SuccessEmpty()
}

// partialThenFailArray succeeds on its first occurrence (consuming one
// byte), then on its second occurrence advances 40 bits, appends an
// infoset node, and fails without discriminating โ€” exercising PoU
// rollback fidelity (S4).
type partialThenFailArray struct{ repeatingBase }

func newPartialThenFailArray(name string) *partialThenFailArray {
	return &partialThenFailArray{repeatingBase{
		Common: term.Common{TRDValue: term.TRD{PrefixedName: name, IsArray: true}, PoUValue: pou.HasPoU},
		min:    0, max: 3, bounded: true,
	}}
}

func (p *partialThenFailArray) ParseOne(ps *pstate.State, ro *status.RequiredOptionalStatus) status.Attempt {
	occurrence := ps.ArrayPos() + 1
	if occurrence == 1 {
		v, _ := ps.Cursor().ReadBits(8)
		ps.AppendChild(ps.Infoset().NewSimple(p.TRDValue.PrefixedName, string([]byte{byte(v)})))
		return status.Success()
	}
	ps.Cursor().Advance(40)
	ps.AppendChild(ps.Infoset().NewSimple(p.TRDValue.PrefixedName, "partial"))
	cause := diagnostics.NewParseError(ps.BitPos0b(), "%s[%d] failed before discriminating", p.TRDValue.PrefixedName, occurrence)
	ps.SetFailure(cause)
	return status.Failure(status.MissingItem, cause)
}

// alwaysSucceedArray succeeds forever, consuming one bit per occurrence,
// to drive the tunable occurrence-limit check (S5).
type alwaysSucceedArray struct{ repeatingBase }

func newAlwaysSucceedArray(name string) *alwaysSucceedArray {
	return &alwaysSucceedArray{repeatingBase{
		Common: term.Common{TRDValue: term.TRD{PrefixedName: name, IsArray: true}},
		min:    0, max: unbounded, bounded: false,
	}}
}

func (a *alwaysSucceedArray) ParseOne(ps *pstate.State, ro *status.RequiredOptionalStatus) status.Attempt {
	ps.Cursor().Advance(1)
	ps.AppendChild(ps.Infoset().NewSimple(a.TRDValue.PrefixedName, nil))
	return status.Success()
}
