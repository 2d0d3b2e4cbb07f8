// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Float is the constraint for tensor element types: float32 or float64.
type Float = tensor.Float

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 9, 11, 11, 11, 11} is a batch of two 9-channel volumes.
type Shape = tensor.Shape

// Tensor is a dense tensor of element type T.
type Tensor[T Float] = tensor.Tensor[T]

// Errors.
var (
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrBroadcast     = tensor.ErrBroadcast
	ErrInvalidAxis   = tensor.ErrInvalidAxis
)

// ShapeError reports two shapes that were required to agree.
type ShapeError = tensor.ShapeError

// BroadcastError reports shapes that cannot be broadcast together.
type BroadcastError = tensor.BroadcastError

// Creation functions

// New creates a zero-filled tensor, validating the shape.
func New[T Float](shape Shape, device Device) (*Tensor[T], error) {
	return tensor.New[T](shape, device)
}

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, tensor.CPU)
func Zeros[T Float](shape Shape, device Device) *Tensor[T] {
	return tensor.Zeros[T](shape, device)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	x := tensor.Full[float64](tensor.Shape{11, 11}, 1, tensor.CPU)
func Full[T Float](shape Shape, value T, device Device) *Tensor[T] {
	return tensor.Full[T](shape, value, device)
}

// FromSlice creates a tensor from a copy of a Go slice.
//
// Example:
//
//	data := []float32{1, 2, 3, 4, 5, 6}
//	x, err := tensor.FromSlice(data, tensor.Shape{2, 3}, tensor.CPU)
func FromSlice[T Float](data []T, shape Shape, device Device) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape, device)
}

// Convert returns a copy of t with elements converted to U.
func Convert[U, T Float](t *Tensor[T]) *Tensor[U] {
	return tensor.Convert[U](t)
}

// Utility functions

// BroadcastShapes computes the result shape of broadcasting a and b.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// ParseDataType parses "float32" or "float64".
func ParseDataType(name string) (DataType, bool) {
	return tensor.ParseDataType(name)
}

// ParseDevice parses a device name such as "cpu".
func ParseDevice(name string) (Device, bool) {
	return tensor.ParseDevice(name)
}

// DataTypeOf returns the DataType of the element type T.
func DataTypeOf[T Float]() DataType {
	return tensor.DataTypeOf[T]()
}
