package pipeline

import (
	"sync"

	"github.com/spaghettifunk/forgegraph/engine/core"
)

// JobSystem runs batches of independent work concurrently and blocks until
// the whole batch finishes, adapted from the engine's general-purpose job
// system. Unlike the original's fixed worker channel, RunParallel spawns
// one goroutine per item: the feature pipeline runs chunked work
// (runChunked, on goroutines of its own) inside RunParallel jobs, and a
// fixed-size worker channel can starve itself when every worker is
// blocked waiting on inner work. A WaitGroup-per-batch has no such
// hazard and the Go scheduler multiplexes the goroutines onto GOMAXPROCS
// threads regardless.
type JobSystem struct {
	maxInFlight int
}

func NewJobSystem(maxInFlight int) *JobSystem {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &JobSystem{maxInFlight: maxInFlight}
}

// RunParallel runs fn(i) for i in [0, n) and blocks until every call has
// completed. A panic in one call is logged and does not abort the others.
func (js *JobSystem) RunParallel(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n == 1 {
		defer func() {
			if r := recover(); r != nil {
				core.LogError("pipeline: job panic recovered: %v", r)
			}
		}()
		fn(0)
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer func() {
				if r := recover(); r != nil {
					core.LogError("pipeline: job panic recovered: %v", r)
				}
				wg.Done()
			}()
			fn(i)
		}()
	}
	wg.Wait()
}

// Shutdown is a no-op kept for symmetry with the engine's job system
// lifecycle; RunParallel has no persistent goroutines to tear down.
func (js *JobSystem) Shutdown() {}
