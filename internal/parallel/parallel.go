// Package parallel fans independent work items out over goroutines for the
// CPU kernels.
package parallel

import (
	"fmt"
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
//
// Conv4D work items are whole 2D images, so the chunk floor is much lower
// than for elementwise loops.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4,
	}
}

// Sequential returns a Config that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{NumWorkers: 1, MinChunkSize: 1}
}

// WithWorkers returns a copy of cfg using n workers. n <= 1 disables parallelism.
func (cfg Config) WithWorkers(n int) Config {
	if n <= 1 {
		cfg.Enabled = false
		cfg.NumWorkers = 1
		return cfg
	}
	cfg.Enabled = true
	cfg.NumWorkers = n
	return cfg
}

// Validate rejects configurations that cannot schedule any work.
func (cfg Config) Validate() error {
	if cfg.Enabled && cfg.NumWorkers < 1 {
		return fmt.Errorf("parallel: NumWorkers must be >= 1 when enabled, got %d", cfg.NumWorkers)
	}
	if cfg.MinChunkSize < 0 {
		return fmt.Errorf("parallel: MinChunkSize must be >= 0, got %d", cfg.MinChunkSize)
	}
	return nil
}

// ForChunks splits [0, n) into contiguous chunks and calls f(start, end) for
// each, concurrently when enabled. Each chunk runs on exactly one goroutine, so
// f may keep per-chunk scratch buffers. Falls back to a single call when
// parallelism is disabled or n is too small.
func ForChunks(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*max(cfg.MinChunkSize, 1) {
		f(0, n)
		return
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for i in [0, n) with optional parallelism.
func For(n int, f func(i int), cfg Config) {
	ForChunks(n, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}
