// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package conv4d provides the center-pivot 4D convolution.
//
// A Conv4D convolves a (batch, channel, qRow, qCol, kRow, kCol) volume as the
// sum of two 2D convolutions: one over the query axes batched across key
// positions, one over the key axes batched across query positions. When a
// stride applies to the pair a branch does not convolve, that pair is
// subsampled by index gathering so both branches agree in shape.
//
// Example:
//
//	params, err := conv4d.SplitParams(
//	    []int{3, 3, 3, 3}, // kernel
//	    []int{2, 2, 2, 2}, // stride
//	    []int{1, 1, 1, 1}, // padding
//	)
//	layer, err := conv4d.New[float32](16, 32, params, cpu.New(), conv4d.DefaultOptions())
//	out, err := layer.Forward(volume)
package conv4d

import (
	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/conv4d"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Conv4D is a center-pivot 4D convolution.
type Conv4D[T tensor.Float] = conv4d.Conv4D[T]

// Window is the kernel, stride and padding of one axis pair.
type Window = conv4d.Window

// Params holds the query and key windows.
type Params = conv4d.Params

// Options configures initialization and logging.
type Options = conv4d.Options

// Pruner subsamples an axis pair by stride.
type Pruner = conv4d.Pruner

// PruneIndex is the gather index for one axis-pair extent.
type PruneIndex = conv4d.PruneIndex

// New creates a Conv4D layer.
func New[T tensor.Float](inChannels, outChannels int, params Params, backend *cpu.CPUBackend, opts Options) (*Conv4D[T], error) {
	return conv4d.New[T](inChannels, outChannels, params, backend, opts)
}

// DefaultOptions returns biased convolutions with N(0, sqrt(2/fan_out))
// weights and zero bias.
func DefaultOptions() Options {
	return conv4d.DefaultOptions()
}

// SplitParams splits 4-tuples of (qRow, qCol, kRow, kCol) values into query
// and key windows.
func SplitParams(kernel, stride, padding []int) (Params, error) {
	return conv4d.SplitParams(kernel, stride, padding)
}

// Cubic returns a k×k×k×k window with padding k/2.
func Cubic(k, queryStride, keyStride int) Params {
	return conv4d.Cubic(k, queryStride, keyStride)
}

// Indices returns {0, stride, 2*stride, ...} below extent.
func Indices(stride, extent int) []int {
	return conv4d.Indices(stride, extent)
}

// NewPruner creates a pruner for a (row, col) stride.
func NewPruner(stride [2]int) *Pruner {
	return conv4d.NewPruner(stride)
}
