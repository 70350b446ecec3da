// Package dispatch implements the fork-join "call N indices" worker pool
// primitive the kernel dispatches chunked photon-transport work through.
// Grounded on the teacher's chunked goroutine/WaitGroup worker split,
// generalized from a fixed two-phase organism update into a reusable
// call(N, func(index)) primitive.
package dispatch

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Dispatcher is a fork-join worker pool: Call blocks the caller until
// every index in [0, N) has been passed to target exactly once, across
// NumWorkers goroutines. The dispatcher owns no persistent goroutines
// between calls — each Call spins up its workers and joins them, which
// keeps the idle -> running -> idle state machine trivial to reason
// about and avoids a teardown path to get wrong.
type Dispatcher struct {
	numWorkers int
}

// New builds a Dispatcher with numWorkers workers. numWorkers <= 0 uses
// runtime.GOMAXPROCS(0).
func New(numWorkers int) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{numWorkers: numWorkers}
}

// NumWorkers returns the worker count this dispatcher was built with.
func (d *Dispatcher) NumWorkers() int {
	return d.numWorkers
}

// Call invokes target(workerID, index) for every index in [0, n),
// partitioning the range into contiguous chunks across d.NumWorkers()
// goroutines, and blocks until all have returned. workerID identifies
// which of the [0, NumWorkers()) goroutines is calling, stable for the
// duration of one Call — callers use it to pick a thread-local resource
// (a per-worker random stream, a scratch buffer) without contention.
// If any invocation returns a non-nil error, Call returns the first such
// error after all in-flight invocations finish; indices not yet started
// are skipped, matching spec.md §7's "unstarted units are skipped"
// propagation rule.
func (d *Dispatcher) Call(n int, target func(workerID, index int) error) error {
	if n <= 0 {
		return nil
	}

	numWorkers := d.numWorkers
	if numWorkers > n {
		numWorkers = n
	}
	chunkSize := (n + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	var failed atomic.Bool

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(workerID, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if failed.Load() {
					return
				}
				if err := target(workerID, i); err != nil {
					once.Do(func() { firstErr = err })
					failed.Store(true)
					return
				}
			}
		}(w, start, end)
	}
	wg.Wait()

	return firstErr
}
