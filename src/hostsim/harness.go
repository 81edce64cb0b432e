// Package hostsim drives the kernel's CPU-indexed subsystems
// (src/sched, src/lockdep) on host hardware by standing in a fixed
// number of goroutines for simulated CPUs, one per src/sched.Executor,
// so the work-stealing and lock-ordering properties that only show up
// across multiple cores can be exercised without real hardware.
//
// Grounded on spec.md §4.E ("host-testing mode uses CPU 0 and
// serializes tests" for single-CPU cases) and §8's end-to-end
// scenarios, which name fixtures this package's tests build directly.
package hostsim

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"hadron/src/sched"
)

// Harness owns a fixed set of simulated CPUs and runs their executors'
// run loops concurrently until every spawned task has completed or the
// context is cancelled.
type Harness struct {
	CPUs []*sched.Executor

	remaining atomic.Int64
}

// NewHarness returns a harness with n simulated CPUs, numbered 0..n-1.
func NewHarness(n int) *Harness {
	h := &Harness{CPUs: make([]*sched.Executor, n)}
	for i := range h.CPUs {
		h.CPUs[i] = sched.NewExecutor(i)
	}
	return h
}

// Spawn queues a task onto the given simulated CPU, wrapping its step
// function so the harness can tell RunUntilIdle when the last task has
// completed. The returned JoinHandle behaves exactly as Executor.Spawn's.
func (h *Harness) Spawn(cpu int, priority sched.Priority, step sched.StepFunc) (sched.TaskId, *sched.JoinHandle) {
	h.remaining.Add(1)
	wrapped := func(w *sched.Waker) sched.Poll {
		result := step(w)
		if result == sched.Ready {
			h.remaining.Add(-1)
		}
		return result
	}
	return h.CPUs[cpu].Spawn(priority, wrapped)
}

// RunUntilIdle drives every simulated CPU's RunTick loop concurrently
// until no spawned task remains incomplete, the context is cancelled,
// or one CPU's loop returns an error. A CPU with nothing to poll or
// steal yields instead of busy-spinning a full core.
func (h *Harness) RunUntilIdle(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, ex := range h.CPUs {
		ex := ex
		g.Go(func() error {
			for h.remaining.Load() > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if !ex.RunTick(h.CPUs) {
					runtime.Gosched()
				}
			}
			return nil
		})
	}
	return g.Wait()
}
