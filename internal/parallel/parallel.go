// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package parallel provides a disjoint-output parallel-for: every
// goroutine writes only to indices in its own contiguous chunk, so the
// result is identical no matter how many goroutines ran it (spec §7,
// "determinism... independent of thread count").
package parallel

import (
	"runtime"
	"sync"
)

// For calls fn(i) for every i in [0, n), splitting the range into
// contiguous chunks run on separate goroutines. fn must only write to
// state addressed by i (or a caller-owned "next" buffer indexed by i),
// never to shared accumulators, or the disjoint-output guarantee breaks.
func For(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
