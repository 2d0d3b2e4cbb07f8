package cpu

import (
	"testing"

	"github.com/born-ml/hypercorr/internal/parallel"
	"github.com/born-ml/hypercorr/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq[T tensor.Float](shape tensor.Shape, start, step T) *tensor.Tensor[T] {
	t := tensor.Zeros[T](shape, tensor.CPU)
	v := start
	for i := range t.Data() {
		t.Data()[i] = v
		v += step
	}
	return t
}

// TestConv2D_BasicForward tests basic Conv2D forward pass.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// Input: [1, 1, 3, 3]
	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := seq[float32](tensor.Shape{1, 1, 3, 3}, 1, 1)

	// Identity-like kernel:
	// 1 0
	// 0 1
	kernel, err := tensor.FromSlice([]float32{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2}, tensor.CPU)
	require.NoError(t, err)

	output, err := Conv2D(backend, input, kernel, nil, [2]int{1, 1}, [2]int{0, 0})
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, output.Shape())
	// Diagonal sums: 1+5, 2+6, 4+8, 5+9
	assert.Equal(t, []float32{6, 8, 12, 14}, output.Data())
}

// TestConv2D_WithPadding tests Conv2D with zero padding.
func TestConv2D_WithPadding(t *testing.T) {
	backend := New()

	input := tensor.Full[float64](tensor.Shape{1, 1, 3, 3}, 1, tensor.CPU)
	kernel := tensor.Full[float64](tensor.Shape{1, 1, 3, 3}, 1, tensor.CPU)

	output, err := Conv2D(backend, input, kernel, nil, [2]int{1, 1}, [2]int{1, 1})
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 1, 3, 3}, output.Shape())
	// Corners see 4 ones, edges 6, centre 9.
	assert.Equal(t, []float64{4, 6, 4, 6, 9, 6, 4, 6, 4}, output.Data())
}

// TestConv2D_PerAxisStrideAndPadding checks that height and width use their own settings.
func TestConv2D_PerAxisStrideAndPadding(t *testing.T) {
	backend := New()

	input := seq[float32](tensor.Shape{1, 1, 5, 4}, 0, 1)
	kernel := tensor.Full[float32](tensor.Shape{1, 1, 1, 1}, 1, tensor.CPU)

	output, err := Conv2D(backend, input, kernel, nil, [2]int{2, 1}, [2]int{0, 1})
	require.NoError(t, err)

	// out_h = (5 - 1)/2 + 1 = 3, out_w = (4 + 2 - 1)/1 + 1 = 6
	require.Equal(t, tensor.Shape{1, 1, 3, 6}, output.Shape())
	assert.Equal(t, []float32{
		0, 0, 1, 2, 3, 0,
		0, 8, 9, 10, 11, 0,
		0, 16, 17, 18, 19, 0,
	}, output.Data())
}

// TestConv2D_MultiChannelWithBias tests channel reduction and bias.
func TestConv2D_MultiChannelWithBias(t *testing.T) {
	backend := New()

	input := tensor.Full[float32](tensor.Shape{2, 3, 4, 4}, 1, tensor.CPU)
	kernel := tensor.Full[float32](tensor.Shape{2, 3, 3, 3}, 0.5, tensor.CPU)
	bias, err := tensor.FromSlice([]float32{1, -1}, tensor.Shape{2}, tensor.CPU)
	require.NoError(t, err)

	output, err := Conv2D(backend, input, kernel, bias, [2]int{1, 1}, [2]int{0, 0})
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2, 2, 2}, output.Shape())

	// 27 taps * 0.5 = 13.5
	for n := 0; n < 2; n++ {
		for h := 0; h < 2; h++ {
			for w := 0; w < 2; w++ {
				assert.InDelta(t, 14.5, output.At(n, 0, h, w), 1e-6)
				assert.InDelta(t, 12.5, output.At(n, 1, h, w), 1e-6)
			}
		}
	}
}

func TestConv2D_Errors(t *testing.T) {
	backend := New()

	input := tensor.Zeros[float32](tensor.Shape{1, 2, 3, 3}, tensor.CPU)
	kernel := tensor.Zeros[float32](tensor.Shape{1, 3, 3, 3}, tensor.CPU)
	_, err := Conv2D(backend, input, kernel, nil, [2]int{1, 1}, [2]int{0, 0})
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	big := tensor.Zeros[float32](tensor.Shape{1, 2, 5, 5}, tensor.CPU)
	_, err = Conv2D(backend, input, big, nil, [2]int{1, 1}, [2]int{0, 0})
	assert.Error(t, err)

	flat := tensor.Zeros[float32](tensor.Shape{2, 3, 3}, tensor.CPU)
	_, err = Conv2D(backend, flat, kernel, nil, [2]int{1, 1}, [2]int{0, 0})
	assert.Error(t, err)

	_, err = Conv2D(backend, input, tensor.Zeros[float32](tensor.Shape{1, 2, 1, 1}, tensor.CPU), nil, [2]int{0, 1}, [2]int{0, 0})
	assert.Error(t, err)
}

// TestConv2D_ParallelMatchesSequential verifies worker count does not change results.
func TestConv2D_ParallelMatchesSequential(t *testing.T) {
	seqBackend, err := NewWithConfig(parallel.Sequential())
	require.NoError(t, err)
	parBackend, err := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
	require.NoError(t, err)

	input := seq[float32](tensor.Shape{9, 2, 6, 6}, -1, 0.013)
	kernel := seq[float32](tensor.Shape{3, 2, 3, 3}, 0.5, -0.021)

	a, err := Conv2D(seqBackend, input, kernel, nil, [2]int{2, 2}, [2]int{1, 1})
	require.NoError(t, err)
	b, err := Conv2D(parBackend, input, kernel, nil, [2]int{2, 2}, [2]int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, a.Data(), b.Data())
}
