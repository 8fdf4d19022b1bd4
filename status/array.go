package status

// ArrayKind is the tag of an ArrayIndex status.
type ArrayKind int8

const (
	ArrayUninitialized ArrayKind = iota
	ArrayRequired
	ArrayOptional
	ArrayDone
)

// ArrayIndex is the per-iteration status the ArrayDriver asks a
// RepeatingChildParser to compute from (min, max, currentOccurrence) plus
// speculative context.
type ArrayIndex struct {
	Kind       ArrayKind
	Occurrence uint64
}

// Required returns the status for a required occurrence at the given
// 1-based index.
func Required(occurrence uint64) ArrayIndex {
	return ArrayIndex{Kind: ArrayRequired, Occurrence: occurrence}
}

// Optional returns the status for an optional (speculative) occurrence at
// the given 1-based index.
func Optional(occurrence uint64) ArrayIndex {
	return ArrayIndex{Kind: ArrayOptional, Occurrence: occurrence}
}

// Done signals that the array has no more occurrences to attempt.
func Done() ArrayIndex { return ArrayIndex{Kind: ArrayDone} }

// IsDone reports whether the array loop should stop.
func (a ArrayIndex) IsDone() bool { return a.Kind == ArrayDone }

// IsRequiredOrOptional reports whether a carries a RequiredOptionalStatus,
// i.e. it is neither Uninitialized nor Done.
func (a ArrayIndex) IsRequiredOrOptional() bool {
	return a.Kind == ArrayRequired || a.Kind == ArrayOptional
}

// RequiredOptionalStatus narrows a to the RequiredOptionalStatus the spec
// asks the driver to pass into parseOneInstance. The second return value
// is false if a is Uninitialized or Done, in which case the zero value
// must not be used.
func (a ArrayIndex) RequiredOptionalStatus() (RequiredOptionalStatus, bool) {
	if !a.IsRequiredOrOptional() {
		return RequiredOptionalStatus{}, false
	}
	return RequiredOptionalStatus{required: a.Kind == ArrayRequired}, true
}

// RequiredOptionalStatus is shared by ArrayIndex (Required/Optional) and by
// a ScalarChildParser's static required/optional classification; it is the
// type parseOneInstance actually consumes.
type RequiredOptionalStatus struct {
	required bool
}

// StaticRequired returns the RequiredOptionalStatus for a term that is
// always required (most scalars).
func StaticRequired() RequiredOptionalStatus { return RequiredOptionalStatus{required: true} }

// StaticOptional returns the RequiredOptionalStatus for a term that may be
// legitimately absent (e.g. a trailing optional scalar).
func StaticOptional() RequiredOptionalStatus { return RequiredOptionalStatus{required: false} }

// IsRequired reports whether this status demands the occurrence be present.
func (r RequiredOptionalStatus) IsRequired() bool { return r.required }

// IsOptional reports whether this status allows the occurrence to be
// absent.
func (r RequiredOptionalStatus) IsOptional() bool { return !r.required }
