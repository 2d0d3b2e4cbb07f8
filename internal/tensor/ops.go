package tensor

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Reshape returns a view of t with a new shape. One dimension may be -1.
func (t *Tensor[T]) Reshape(dims ...int) (*Tensor[T], error) {
	shape, err := Shape(dims).Resolve(len(t.data))
	if err != nil {
		return nil, err
	}
	return &Tensor[T]{
		shape:   shape,
		strides: shape.ComputeStrides(),
		data:    t.data,
		device:  t.device,
	}, nil
}

// Permute returns a contiguous copy of t with its axes reordered so that
// output axis i is input axis dims[i].
func (t *Tensor[T]) Permute(dims ...int) (*Tensor[T], error) {
	rank := len(t.shape)
	if len(dims) != rank {
		return nil, fmt.Errorf("permute: got %d axes for rank-%d tensor", len(dims), rank)
	}
	seen := make([]bool, rank)
	outShape := make(Shape, rank)
	srcStrides := make([]int, rank)
	for i, d := range dims {
		if d < 0 || d >= rank || seen[d] {
			return nil, axisError("permute", d, rank)
		}
		seen[d] = true
		outShape[i] = t.shape[d]
		srcStrides[i] = t.strides[d]
	}

	out := Zeros[T](outShape, t.device)
	if rank == 0 {
		copy(out.data, t.data)
		return out, nil
	}

	// Walk the output in row-major order while tracking the source offset.
	coord := make([]int, rank)
	src := 0
	last := rank - 1
	for i := range out.data {
		out.data[i] = t.data[src]
		for ax := last; ax >= 0; ax-- {
			coord[ax]++
			src += srcStrides[ax]
			if coord[ax] < outShape[ax] {
				break
			}
			src -= coord[ax] * srcStrides[ax]
			coord[ax] = 0
		}
	}
	return out, nil
}

// IndexSelect gathers the given positions along dim.
// The output has len(index) entries along dim, in index order.
func (t *Tensor[T]) IndexSelect(dim int, index []int) (*Tensor[T], error) {
	rank := len(t.shape)
	if dim < 0 || dim >= rank {
		return nil, axisError("index_select", dim, rank)
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("index_select: empty index along dim %d", dim)
	}
	n := t.shape[dim]
	for _, idx := range index {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("index_select: index %d out of range for dim %d (size %d)", idx, dim, n)
		}
	}

	outShape := t.shape.Clone()
	outShape[dim] = len(index)
	out := Zeros[T](outShape, t.device)

	outer := Shape(t.shape[:dim]).NumElements()
	inner := Shape(t.shape[dim+1:]).NumElements()
	dst := 0
	for o := 0; o < outer; o++ {
		base := o * n * inner
		for _, idx := range index {
			src := base + idx*inner
			copy(out.data[dst:dst+inner], t.data[src:src+inner])
			dst += inner
		}
	}
	return out, nil
}

// Squeeze removes dimension dim, which must have extent 1.
func (t *Tensor[T]) Squeeze(dim int) (*Tensor[T], error) {
	rank := len(t.shape)
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		return nil, axisError("squeeze", dim, rank)
	}
	if t.shape[dim] != 1 {
		return nil, &ShapeError{Op: "squeeze", Expected: Shape{1}, Actual: Shape{t.shape[dim]}, Detail: fmt.Sprintf("dim %d", dim)}
	}
	dims := make([]int, 0, rank-1)
	dims = append(dims, t.shape[:dim]...)
	dims = append(dims, t.shape[dim+1:]...)
	return t.Reshape(dims...)
}

// Expand materializes t broadcast to shape.
func (t *Tensor[T]) Expand(shape Shape) (*Tensor[T], error) {
	outShape, _, err := BroadcastShapes(t.shape, shape)
	if err != nil {
		return nil, err
	}
	if !outShape.Equal(shape) {
		return nil, &ShapeError{Op: "expand", Expected: shape, Actual: t.shape}
	}
	return t.broadcastTo(outShape), nil
}

func (t *Tensor[T]) broadcastTo(outShape Shape) *Tensor[T] {
	out := Zeros[T](outShape, t.device)
	if len(outShape) == 0 {
		out.data[0] = t.data[0]
		return out
	}
	srcStrides := broadcastStrides(t.shape, outShape)
	coord := make([]int, len(outShape))
	src := 0
	last := len(outShape) - 1
	for i := range out.data {
		out.data[i] = t.data[src]
		for ax := last; ax >= 0; ax-- {
			coord[ax]++
			src += srcStrides[ax]
			if coord[ax] < outShape[ax] {
				break
			}
			src -= coord[ax] * srcStrides[ax]
			coord[ax] = 0
		}
	}
	return out
}

// Add returns t + other with NumPy broadcasting.
func (t *Tensor[T]) Add(other *Tensor[T]) (*Tensor[T], error) {
	return t.binary("add", other, addBlock[T])
}

// Mul returns t * other (elementwise) with NumPy broadcasting.
func (t *Tensor[T]) Mul(other *Tensor[T]) (*Tensor[T], error) {
	return t.binary("mul", other, mulBlock[T])
}

func (t *Tensor[T]) binary(op string, other *Tensor[T], block func(dst, src []T)) (*Tensor[T], error) {
	outShape, _, err := BroadcastShapes(t.shape, other.shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var lhs *Tensor[T]
	if t.shape.Equal(outShape) {
		lhs = t.Clone()
	} else {
		lhs = t.broadcastTo(outShape)
	}
	rhs := other
	if !rhs.shape.Equal(outShape) {
		rhs = other.broadcastTo(outShape)
	}

	block(lhs.data, rhs.data)
	return lhs, nil
}

// addBlock accumulates src into dst, using the vecmath kernels for float64.
func addBlock[T Float](dst, src []T) {
	d, ok1 := any(dst).([]float64)
	s, ok2 := any(src).([]float64)
	if ok1 && ok2 {
		vecmath.AddBlockInPlace(d, s)
		return
	}
	for i := range dst {
		dst[i] += src[i]
	}
}

func mulBlock[T Float](dst, src []T) {
	d, ok1 := any(dst).([]float64)
	s, ok2 := any(src).([]float64)
	if ok1 && ok2 {
		vecmath.MulBlockInPlace(d, s)
		return
	}
	for i := range dst {
		dst[i] *= src[i]
	}
}

func scaleBlock[T Float](dst []T, scale float64) {
	if d, ok := any(dst).([]float64); ok {
		vecmath.ScaleBlock(d, d, scale)
		return
	}
	for i := range dst {
		dst[i] = T(float64(dst[i]) * scale)
	}
}
