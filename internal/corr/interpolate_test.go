package corr

import (
	"testing"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyRamp returns a volume whose value is the key-row index, for every other
// axis.
func keyRamp(shape tensor.Shape) *tensor.Tensor[float64] {
	v := tensor.Zeros[float64](shape, tensor.CPU)
	for b := 0; b < shape[0]; b++ {
		for c := 0; c < shape[1]; c++ {
			for i := 0; i < shape[2]; i++ {
				for j := 0; j < shape[3]; j++ {
					for k := 0; k < shape[4]; k++ {
						for l := 0; l < shape[5]; l++ {
							v.Set(float64(k), b, c, i, j, k, l)
						}
					}
				}
			}
		}
	}
	return v
}

func TestInterpolateKeyAxes(t *testing.T) {
	backend := cpu.New()
	v := keyRamp(tensor.Shape{2, 3, 2, 3, 2, 2})

	out, err := InterpolateKeyAxes(backend, v, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 2, 3, 3, 4}, out.Shape())

	// Aligned corners: rows 0, 0.5, 1 of the original key grid.
	assert.InDelta(t, 0.0, out.At(1, 2, 1, 2, 0, 3), 1e-12)
	assert.InDelta(t, 0.5, out.At(0, 1, 0, 1, 1, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(1, 0, 1, 0, 2, 2), 1e-12)
}

func TestInterpolateQueryAxes(t *testing.T) {
	backend := cpu.New()
	v := keyRamp(tensor.Shape{1, 2, 2, 2, 3, 3})

	// Values depend only on the key row, so resizing the query axes keeps
	// them and leaves the key axes untouched.
	out, err := InterpolateQueryAxes(backend, v, 5, 4)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 5, 4, 3, 3}, out.Shape())
	for i := 0; i < 5; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, 2.0, out.At(0, 1, i, j, 2, 0), 1e-12)
		}
	}

	same, err := InterpolateQueryAxes(backend, v, 2, 2)
	require.NoError(t, err)
	assert.True(t, v.AllClose(same, 1e-12))
}

func TestInterpolate_Errors(t *testing.T) {
	backend := cpu.New()
	_, err := InterpolateKeyAxes(backend, tensor.Zeros[float64](tensor.Shape{1, 1, 2, 2}, tensor.CPU), 2, 2)
	assert.Error(t, err)

	_, err = InterpolateQueryAxes(backend, keyRamp(tensor.Shape{1, 1, 2, 2, 2, 2}), 0, 2)
	assert.Error(t, err)
}
