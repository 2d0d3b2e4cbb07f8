package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense, row-major, contiguous multi-dimensional array.
//
// Operations never modify their receiver; they return a new tensor. Reshape
// is the one exception to copying: it returns a view sharing the receiver's
// storage, which is safe because nothing writes to a tensor after it has been
// produced.
//
// Example:
//
//	x := tensor.Zeros[float32](tensor.Shape{2, 9, 11, 11, 11, 11}, tensor.CPU)
//	y, err := x.Permute(0, 4, 5, 1, 2, 3)
type Tensor[T Float] struct {
	shape   Shape
	strides []int
	data    []T
	device  Device
}

// New creates a zero-filled tensor, validating the shape.
func New[T Float](shape Shape, device Device) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Tensor[T]{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    make([]T, shape.NumElements()),
		device:  device,
	}, nil
}

// Zeros creates a tensor filled with zeros.
// Panics on an invalid shape.
func Zeros[T Float](shape Shape, device Device) *Tensor[T] {
	t, err := New[T](shape, device)
	if err != nil {
		panic(err)
	}
	return t
}

// Full creates a tensor filled with value.
func Full[T Float](shape Shape, value T, device Device) *Tensor[T] {
	t := Zeros[T](shape, device)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Float](data []T, shape Shape, device Device) (*Tensor[T], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New[T](shape, device)
	if err != nil {
		return nil, err
	}
	copy(t.data, data)
	return t, nil
}

// Convert returns a copy of t with elements converted to precision U.
func Convert[U, T Float](t *Tensor[T]) *Tensor[U] {
	out := Zeros[U](t.shape, t.device)
	for i, v := range t.data {
		out.data[i] = U(v)
	}
	return out
}

// Shape returns the tensor's shape. The returned slice must not be modified.
func (t *Tensor[T]) Shape() Shape {
	return t.shape
}

// Rank returns the number of dimensions.
func (t *Tensor[T]) Rank() int {
	return len(t.shape)
}

// Dim returns the extent of dimension i. Negative i counts from the end.
func (t *Tensor[T]) Dim(i int) int {
	if i < 0 {
		i += len(t.shape)
	}
	return t.shape[i]
}

// DType returns the tensor's data type.
func (t *Tensor[T]) DType() DataType {
	return DataTypeOf[T]()
}

// Device returns the tensor's compute device.
func (t *Tensor[T]) Device() Device {
	return t.device
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return len(t.data)
}

// Data returns the tensor's backing slice (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor and
// every view sharing its storage.
func (t *Tensor[T]) Data() []T {
	return t.data
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T]) At(indices ...int) T {
	return t.data[t.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T]) Set(value T, indices ...int) {
	t.data[t.offset(indices)] = value
}

func (t *Tensor[T]) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * t.strides[i]
	}
	return offset
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[T]) Clone() *Tensor[T] {
	data := make([]T, len(t.data))
	copy(data, t.data)
	return &Tensor[T]{
		shape:   t.shape.Clone(),
		strides: append([]int(nil), t.strides...),
		data:    data,
		device:  t.device,
	}
}

// AllClose reports whether both tensors have the same shape and every pair of
// elements differs by at most tol.
func (t *Tensor[T]) AllClose(other *Tensor[T], tol float64) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if math.Abs(float64(v)-float64(other.data[i])) > tol {
			return false
		}
	}
	return true
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.DType(), t.shape, t.device)
}
