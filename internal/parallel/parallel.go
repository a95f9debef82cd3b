// Package parallel provides worker-pool helpers for per-sample batch work.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Number of worker goroutines to use.
	MinPerItem int  // Minimum scalar work per item to justify a goroutine.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinPerItem: 1 << 12,
	}
}

// ForSamples executes f(i) for i in [0, n), one item per batch sample.
// work is the approximate scalar work per sample; small batches run
// sequentially to avoid goroutine overhead.
func ForSamples(n, work int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < 2 || work < cfg.MinPerItem {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	workers := min(cfg.NumWorkers, n)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
