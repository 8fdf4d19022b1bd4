//go:build !daffodil_strict

package pstate

// affinity is a no-op outside the daffodil_strict build; see
// affinity_strict.go for the enforced version.
type affinity struct{}

func (*affinity) bind()  {}
func (*affinity) check() {}
