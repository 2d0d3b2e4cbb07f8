// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for the correlation learner.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Im2col algorithm for 2D convolutions with per-axis stride and padding
//   - Float32 and Float64 support
//   - Per-image parallelism with results independent of worker count
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/hypercorr/backend/cpu"
//	    "github.com/born-ml/hypercorr/nn"
//	)
//
//	func main() {
//	    backend, _ := cpu.NewWithWorkers(4)
//	    relu := nn.NewReLU[float32](backend)
//	    _ = relu
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each kernel allocates its own
// output and scratch buffers.
package cpu
