// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/born-ml/hypercorr/tensor"
)

// TestTensorCreationFunctions verifies the creation wrappers.
func TestTensorCreationFunctions(t *testing.T) {
	z := tensor.Zeros[float32](tensor.Shape{2, 3}, tensor.CPU)
	if !z.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Zeros shape = %v, want [2 3]", z.Shape())
	}
	if z.DType() != tensor.Float32 {
		t.Errorf("Zeros dtype = %v, want float32", z.DType())
	}

	f := tensor.Full[float64](tensor.Shape{4}, 2.5, tensor.CPU)
	for i, v := range f.Data() {
		if v != 2.5 {
			t.Errorf("Full[%d] = %v, want 2.5", i, v)
		}
	}

	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if got := x.At(1, 2); got != 6 {
		t.Errorf("At(1, 2) = %v, want 6", got)
	}

	if _, err := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{2, 3}, tensor.CPU); err == nil {
		t.Error("FromSlice with wrong length should fail")
	}

	if _, err := tensor.New[float32](tensor.Shape{2, 0}, tensor.CPU); err == nil {
		t.Error("New with zero dimension should fail")
	}

	c := tensor.Convert[float32](x)
	if c.DType() != tensor.Float32 || c.At(0, 1) != 2 {
		t.Errorf("Convert = %v", c)
	}
}

// TestHypercorrelationLayout verifies permuting a rank-6 volume and back.
func TestHypercorrelationLayout(t *testing.T) {
	shape := tensor.Shape{1, 2, 3, 2, 2, 3}
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = float64(i)
	}
	v, err := tensor.FromSlice(data, shape, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	keys, err := v.Permute(0, 4, 5, 1, 2, 3)
	if err != nil {
		t.Fatalf("Permute failed: %v", err)
	}
	if got, want := keys.At(0, 1, 2, 1, 2, 0), v.At(0, 1, 2, 0, 1, 2); got != want {
		t.Errorf("permuted element = %v, want %v", got, want)
	}

	back, err := keys.Permute(0, 3, 4, 5, 1, 2)
	if err != nil {
		t.Fatalf("Permute back failed: %v", err)
	}
	if !back.AllClose(v, 0) {
		t.Error("round trip permutation changed the volume")
	}
}

// TestErrors verifies that the public error values match wrapped errors.
func TestErrors(t *testing.T) {
	a := tensor.Zeros[float64](tensor.Shape{2, 3}, tensor.CPU)
	b := tensor.Zeros[float64](tensor.Shape{4, 3}, tensor.CPU)

	_, err := a.Add(b)
	if !errors.Is(err, tensor.ErrBroadcast) {
		t.Fatalf("Add error = %v, want ErrBroadcast", err)
	}
	var bErr *tensor.BroadcastError
	if !errors.As(err, &bErr) || bErr.Dim != 0 {
		t.Errorf("BroadcastError = %+v, want dimension 0", bErr)
	}

	if _, _, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 5}); err != nil {
		t.Errorf("BroadcastShapes failed: %v", err)
	}

	_, err = a.Squeeze(0)
	if !errors.Is(err, tensor.ErrShapeMismatch) {
		t.Errorf("Squeeze error = %v, want ErrShapeMismatch", err)
	}
}

// TestParse verifies name parsing for data types and devices.
func TestParse(t *testing.T) {
	if dt, ok := tensor.ParseDataType("float64"); !ok || dt != tensor.Float64 {
		t.Errorf("ParseDataType(float64) = %v, %v", dt, ok)
	}
	if _, ok := tensor.ParseDataType("int8"); ok {
		t.Error("ParseDataType(int8) should fail")
	}
	if d, ok := tensor.ParseDevice("cpu"); !ok || d != tensor.CPU {
		t.Errorf("ParseDevice(cpu) = %v, %v", d, ok)
	}
}
