// Package parallel runs many independent sequence.Parse invocations with
// bounded concurrency.
//
// Grounded on the teacher's Compiler.Compile (compiler.go): a
// golang.org/x/sync/semaphore.Weighted bounds how many jobs run at once,
// each job gets its own goroutine, and results are collected through a
// per-job ready channel rather than a shared mutable slice guarded by a
// mutex. The core sequence driver itself has no concurrency story of its
// own (spec.md ยง5: one ParseState, exclusively owned by one driver
// invocation) โ€” this package exists purely to run many independent
// invocations side by side, never to make a single one concurrent.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/brnnnfx/daffodil/pstate"
	"github.com/brnnnfx/daffodil/sequence"
	"github.com/brnnnfx/daffodil/status"
	"github.com/brnnnfx/daffodil/term"
)

// Job is one independent sequence.Parse invocation: its own ParseState,
// exclusively owned for the duration of the call (spec.md ยง5), plus the
// compiled children it drives.
type Job struct {
	PState    *pstate.State
	Children  []term.ChildParser
	IsOrdered bool
}

// Result is the outcome of one Job, keyed by its position in the slice
// passed to Run.
type Result struct {
	Index   int
	Attempt status.Attempt
}

// Pool bounds how many Jobs run concurrently.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a Pool that runs at most maxParallelism jobs at once. A
// non-positive maxParallelism is replaced by
// min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)), matching the teacher's
// default parallelism policy.
func NewPool(maxParallelism int) *Pool {
	if maxParallelism <= 0 {
		maxParallelism = runtime.GOMAXPROCS(-1)
		if cpus := runtime.NumCPU(); cpus < maxParallelism {
			maxParallelism = cpus
		}
	}
	return &Pool{sem: semaphore.NewWeighted(int64(maxParallelism))}
}

type jobResult struct {
	ready   chan struct{}
	attempt status.Attempt
	err     error
}

// Run drives every job to completion, at most p's parallelism limit at
// once, and returns one Result per job in the same order as jobs.
//
// Each job's ParseState is exclusive to the goroutine running it; Run
// shares no mutable state across jobs, matching spec.md ยง5's "independent
// ParseStates" guarantee for concurrent parses. If ctx is canceled before
// every job completes, Run returns the context's error; jobs already
// running are not interrupted mid-attempt (spec.md ยง5: cancellation is
// cooperative between child attempts, never mid-attempt), but no further
// jobs are started.
func (p *Pool) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	results := make([]*jobResult, len(jobs))
	for i, job := range jobs {
		r := &jobResult{ready: make(chan struct{})}
		results[i] = r

		if err := p.sem.Acquire(ctx, 1); err != nil {
			r.err = err
			close(r.ready)
			continue
		}

		go func(job Job, r *jobResult) {
			defer p.sem.Release(1)
			defer close(r.ready)
			r.attempt = sequence.Parse(job.PState, job.Children, job.IsOrdered)
		}(job, r)
	}

	out := make([]Result, len(jobs))
	for i, r := range results {
		select {
		case <-r.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if r.err != nil {
			return nil, r.err
		}
		out[i] = Result{Index: i, Attempt: r.attempt}
	}
	return out, nil
}
