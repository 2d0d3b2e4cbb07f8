// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor type used by the hypercorr
// correlation learner.
//
// # Overview
//
// Tensors are dense, row-major and generic over precision:
//   - Tensor[T] with T float32 or float64
//   - NumPy-style broadcasting for Add and Mul
//   - Reshape views, contiguous Permute copies, IndexSelect gathers
//   - Typed errors: ShapeError (ErrShapeMismatch), BroadcastError (ErrBroadcast)
//
// # Basic Usage
//
//	import "github.com/born-ml/hypercorr/tensor"
//
//	func main() {
//	    volume := tensor.Zeros[float32](tensor.Shape{2, 9, 11, 11, 11, 11}, tensor.CPU)
//	    keys, _ := volume.Permute(0, 4, 5, 1, 2, 3)
//	    _ = keys
//	}
//
// # Hypercorrelation Volumes
//
// A hypercorrelation volume is a rank-6 tensor indexed
// (batch, channel, qRow, qCol, kRow, kCol): two independent 2D grids per
// batch element and channel. Every operation returns a new tensor and
// leaves its inputs unchanged; Reshape shares storage with its source.
//
// # Device Support
//
// Only CPU tensors are computed. CUDA and WebGPU are recognized names so
// configuration can reject them with a clear error.
package tensor
