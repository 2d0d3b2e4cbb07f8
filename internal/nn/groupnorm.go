package nn

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// DefaultGroupNormEps is the variance floor used by NewGroupNorm.
const DefaultGroupNormEps = 1e-5

// GroupNorm normalizes over groups of channels for inputs of shape
// [batch, channels, *spatial]. Scale starts at 1 and shift at 0.
type GroupNorm[T tensor.Float] struct {
	groups   int
	channels int
	eps      float64
	gamma    *Parameter[T]
	beta     *Parameter[T]
	backend  *cpu.CPUBackend
}

// NewGroupNorm creates a GroupNorm layer over the given channel count.
func NewGroupNorm[T tensor.Float](groups, channels int, backend *cpu.CPUBackend) (*GroupNorm[T], error) {
	if groups <= 0 || channels <= 0 {
		return nil, configErrorf("group_norm", "groups", "invalid groups=%d channels=%d", groups, channels)
	}
	if channels%groups != 0 {
		return nil, configErrorf("group_norm", "groups", "%d channels not divisible into %d groups", channels, groups)
	}
	shape := tensor.Shape{channels}
	return &GroupNorm[T]{
		groups:   groups,
		channels: channels,
		eps:      DefaultGroupNormEps,
		gamma:    NewParameter("weight", tensor.Full[T](shape, 1, backend.Device())),
		beta:     NewParameter("bias", tensor.Zeros[T](shape, backend.Device())),
		backend:  backend,
	}, nil
}

// Forward normalizes the input.
func (g *GroupNorm[T]) Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	if input.Rank() < 2 || input.Dim(1) != g.channels {
		return nil, &tensor.ShapeError{
			Op:       "group_norm",
			Expected: tensor.Shape{-1, g.channels},
			Actual:   input.Shape(),
			Detail:   "channel axis",
		}
	}
	return cpu.GroupNorm(g.backend, input, g.gamma.Tensor(), g.beta.Tensor(), g.groups, g.eps)
}

// Parameters returns [weight, bias] (scale and shift).
func (g *GroupNorm[T]) Parameters() []*Parameter[T] {
	return []*Parameter[T]{g.gamma, g.beta}
}

// String returns a string representation of the layer.
func (g *GroupNorm[T]) String() string {
	return fmt.Sprintf("GroupNorm(%d, %d, eps=%g)", g.groups, g.channels, g.eps)
}
