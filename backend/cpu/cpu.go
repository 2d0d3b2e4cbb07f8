// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/parallel"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend runs pure Go kernels (im2col convolution, dense matmul,
// group normalization, bilinear resize) and fans independent images out over
// goroutines.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how kernels fan out over goroutines.
type ParallelConfig = parallel.Config

// New creates a new CPU backend using every available core.
//
// Example:
//
//	import "github.com/born-ml/hypercorr/backend/cpu"
//
//	func main() {
//	    backend := cpu.New()
//	    _ = backend
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithWorkers creates a CPU backend limited to n worker goroutines.
// n <= 1 runs every kernel on the calling goroutine.
func NewWithWorkers(n int) (*Backend, error) {
	return internalcpu.NewWithConfig(parallel.DefaultConfig().WithWorkers(n))
}

// DefaultParallelConfig returns the parallel configuration used by New.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}
