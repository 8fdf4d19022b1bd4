//go:build daffodil_strict

package pstate

import "github.com/petermattis/goid"

// Under the daffodil_strict build tag, a State remembers which goroutine
// created it and panics if touched from another one. spec.md ยง5 states
// that a ParseState is exclusively owned by one driver invocation for the
// duration of a parse with no suspension points; this turns a violation of
// that model into a fast, loud failure instead of a silent data race, at
// the cost of a goroutine-local lookup on every check. It is off by
// default because production parses should not pay for an assertion that
// a correct driver can never trip.
type affinity struct {
	owner int64
	bound bool
}

func (a *affinity) bind() {
	a.owner = goid.Get()
	a.bound = true
}

func (a *affinity) check() {
	if !a.bound {
		a.bind()
		return
	}
	if got := goid.Get(); got != a.owner {
		panic("pstate: ParseState touched from a goroutine other than its owner")
	}
}
