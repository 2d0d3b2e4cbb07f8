package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arange[T Float](shape Shape) *Tensor[T] {
	t := Zeros[T](shape, CPU)
	for i := range t.data {
		t.data[i] = T(i)
	}
	return t
}

func TestFromSlice_ShapeCheck(t *testing.T) {
	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, CPU)
	require.Error(t, err)

	x, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, CPU)
	require.NoError(t, err)
	assert.Equal(t, float32(3), x.At(1, 0))
	assert.Equal(t, Float32, x.DType())
}

func TestDataTypeOf(t *testing.T) {
	type myFloat float64
	assert.Equal(t, Float32, DataTypeOf[float32]())
	assert.Equal(t, Float64, DataTypeOf[float64]())
	assert.Equal(t, Float64, DataTypeOf[myFloat]())
}

func TestReshape_InfersDimension(t *testing.T) {
	x := arange[float32](Shape{2, 3, 4})

	y, err := x.Reshape(2, -1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 12}, y.Shape())
	assert.Equal(t, x.At(1, 2, 3), y.At(1, 11))

	_, err = x.Reshape(5, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = x.Reshape(-1, -1)
	require.Error(t, err)
}

func TestPermute_MatchesIndexing(t *testing.T) {
	x := arange[float64](Shape{2, 3, 4, 5})

	y, err := x.Permute(0, 3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 5, 3, 4}, y.Shape())

	for a := 0; a < 2; a++ {
		for b := 0; b < 3; b++ {
			for c := 0; c < 4; c++ {
				for d := 0; d < 5; d++ {
					require.Equal(t, x.At(a, b, c, d), y.At(a, d, b, c))
				}
			}
		}
	}
}

func TestPermute_RoundTrip(t *testing.T) {
	x := arange[float32](Shape{2, 3, 2, 3, 2, 2})

	y, err := x.Permute(0, 4, 5, 1, 2, 3)
	require.NoError(t, err)
	z, err := y.Permute(0, 3, 4, 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, x.Data(), z.Data())
	assert.Equal(t, x.Shape(), z.Shape())
}

func TestPermute_InvalidAxes(t *testing.T) {
	x := arange[float32](Shape{2, 3})

	_, err := x.Permute(0, 0)
	assert.True(t, errors.Is(err, ErrInvalidAxis))

	_, err = x.Permute(0)
	assert.Error(t, err)
}

func TestIndexSelect(t *testing.T) {
	x := arange[float32](Shape{2, 5, 3})

	y, err := x.IndexSelect(1, []int{0, 2, 4})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3, 3}, y.Shape())
	for b := 0; b < 2; b++ {
		for j, idx := range []int{0, 2, 4} {
			for k := 0; k < 3; k++ {
				assert.Equal(t, x.At(b, idx, k), y.At(b, j, k))
			}
		}
	}

	_, err = x.IndexSelect(1, []int{5})
	assert.Error(t, err)
	_, err = x.IndexSelect(3, []int{0})
	assert.True(t, errors.Is(err, ErrInvalidAxis))
}

func TestAdd_Broadcast(t *testing.T) {
	a := arange[float32](Shape{2, 3})
	b, err := FromSlice([]float32{10, 20, 30}, Shape{3}, CPU)
	require.NoError(t, err)

	c, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 21, 32, 13, 24, 35}, c.Data())

	// Inputs are untouched.
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5}, a.Data())
}

func TestMul_Float64UsesSameSemantics(t *testing.T) {
	a := arange[float64](Shape{2, 2})
	b := Full[float64](Shape{2, 2}, 2, CPU)

	c, err := a.Mul(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 6}, c.Data())

	d, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4, 5}, d.Data())
}

func TestMul_BroadcastError(t *testing.T) {
	a := arange[float32](Shape{2, 3})
	b := arange[float32](Shape{2, 4})

	_, err := a.Mul(b)
	require.Error(t, err)
	var be *BroadcastError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.Dim)
	assert.True(t, errors.Is(err, ErrBroadcast))
}

func TestExpand(t *testing.T) {
	x, err := FromSlice([]float32{1, 2}, Shape{2, 1}, CPU)
	require.NoError(t, err)

	y, err := x.Expand(Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1, 2, 2, 2}, y.Data())

	_, err = x.Expand(Shape{3, 3})
	assert.Error(t, err)
}

func TestSqueeze(t *testing.T) {
	x := arange[float32](Shape{2, 1, 3})

	y, err := x.Squeeze(1)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, y.Shape())

	_, err = x.Squeeze(0)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestSumAndMeanAxes(t *testing.T) {
	x := arange[float64](Shape{2, 2, 3})

	s, err := x.SumAxes(1, true)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 1, 1}, s.Shape())
	assert.Equal(t, []float64{15, 51}, s.Data())

	m, err := x.MeanAxes(1, false)
	require.NoError(t, err)
	assert.Equal(t, Shape{2}, m.Shape())
	assert.InDeltaSlice(t, []float64{2.5, 8.5}, m.Data(), 1e-12)

	m32, err := Convert[float32](x).MeanAxes(2, false)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 2}, m32.Shape())
	assert.InDeltaSlice(t, []float32{1, 4, 7, 10}, m32.Data(), 1e-6)
}

func TestBroadcastShapes(t *testing.T) {
	out, needs, err := BroadcastShapes(Shape{1, 1, 11, 11, 11, 11}, Shape{2, 9, 11, 11, 11, 11})
	require.NoError(t, err)
	assert.True(t, needs)
	assert.Equal(t, Shape{2, 9, 11, 11, 11, 11}, out)

	_, needs, err = BroadcastShapes(Shape{3, 5}, Shape{3, 5})
	require.NoError(t, err)
	assert.False(t, needs)
}
