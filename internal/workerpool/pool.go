// Package workerpool adapts the teacher's generic, channel-driven
// Service[TMsg, TRes]/ServiceManager[TMsg, TRes] pattern (the
// inbox/outbox channel pair plus a fixed goroutine loop) from a
// long-lived message-passing actor into a one-shot batch fan-out/fan-in:
// a fixed set of jobs is distributed over GOMAXPROCS workers and every
// result is collected before Run returns. The generic two-type-parameter
// shape (job in, result out) is kept; the indefinite loop/stop-channel
// machinery is not needed for a batch of known size, so it is dropped
// rather than carried over unused.
package workerpool

import (
	"runtime"
	"sync"
)

// Run partitions jobs across workers (default GOMAXPROCS workers when
// workers <= 0) and applies fn to each, returning results in the same
// order as jobs. fn must be safe to call concurrently from multiple
// goroutines.
func Run[TJob any, TRes any](jobs []TJob, workers int, fn func(TJob) TRes) []TRes {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers == 0 {
		return nil
	}

	results := make([]TRes, len(jobs))

	type indexedJob struct {
		idx int
		job TJob
	}
	in := make(chan indexedJob, len(jobs))
	for i, j := range jobs {
		in <- indexedJob{idx: i, job: j}
	}
	close(in)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ij := range in {
				results[ij.idx] = fn(ij.job)
			}
		}()
	}
	wg.Wait()

	return results
}
