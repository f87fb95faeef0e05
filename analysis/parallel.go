package analysis

import (
	"sync"
)

// parallelThreshold is the minimum agent count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 16

// workChunk is a range of roster slots for a worker to process.
type workChunk struct {
	start, end int
}

// forEachSlot calls fn for every index in [0, n). Each index is visited by
// exactly one goroutine, so fn may write to slot i of a preallocated slice
// without locking. Returns after all calls have finished.
func forEachSlot(n, workers int, fn func(i int)) {
	if n == 0 {
		return
	}
	if workers <= 1 || n < parallelThreshold {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	if workers > n {
		workers = n
	}

	chunkSize := max(1, n/(workers*4))
	work := make(chan workChunk, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range work {
				for i := c.start; i < c.end; i++ {
					fn(i)
				}
			}
		}()
	}

	for start := 0; start < n; start += chunkSize {
		work <- workChunk{start: start, end: min(start+chunkSize, n)}
	}
	close(work)
	wg.Wait()
}
