package corr

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/conv4d"
	"github.com/born-ml/hypercorr/internal/nn"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// EncoderBlock is a stack of (Conv4D -> GroupNorm -> ReLU) stages.
//
// The stages are flattened into one Sequential, so stage i owns modules
// 3i, 3i+1 and 3i+2 and its parameters are named "3i.conv1.weight",
// "3i+1.weight" and so on.
type EncoderBlock[T tensor.Float] struct {
	cfg    BlockConfig
	convs  []*conv4d.Conv4D[T]
	layers *nn.Sequential[T]
}

// NewEncoderBlock builds a block. Stage 0 reads cfg.InChannels; every later
// stage reads the previous stage's width.
func NewEncoderBlock[T tensor.Float](cfg BlockConfig, groups int, backend *cpu.CPUBackend, opts conv4d.Options) (*EncoderBlock[T], error) {
	if err := cfg.Validate(groups); err != nil {
		return nil, err
	}

	b := &EncoderBlock[T]{cfg: cfg, layers: nn.NewSequential[T]()}
	in := cfg.InChannels
	for i, width := range cfg.Widths {
		k := cfg.Kernels[i]
		params, err := conv4d.SplitParams(
			[]int{k, k, k, k},
			[]int{cfg.QueryStrides[i], cfg.QueryStrides[i], cfg.KeyStrides[i], cfg.KeyStrides[i]},
			[]int{k / 2, k / 2, k / 2, k / 2},
		)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		conv, err := conv4d.New[T](in, width, params, backend, opts)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		norm, err := nn.NewGroupNorm[T](groups, width, backend)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}

		b.layers.Add(conv)
		b.layers.Add(norm)
		b.layers.Add(nn.NewReLU[T](backend))
		b.convs = append(b.convs, conv)
		in = width
	}
	return b, nil
}

// Forward runs every stage in order.
func (b *EncoderBlock[T]) Forward(x *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	return b.layers.Forward(x)
}

// Parameters returns the parameters of every stage.
func (b *EncoderBlock[T]) Parameters() []*nn.Parameter[T] {
	return b.layers.Parameters()
}

// OutputShape infers the block's output shape for an input shape.
func (b *EncoderBlock[T]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	shape := in
	for i, conv := range b.convs {
		var err error
		if shape, err = conv.OutputShape(shape); err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return shape, nil
}

// InChannels returns the channel count of stage 0.
func (b *EncoderBlock[T]) InChannels() int {
	return b.cfg.InChannels
}

// OutChannels returns the width of the final stage.
func (b *EncoderBlock[T]) OutChannels() int {
	return b.cfg.OutChannels()
}

// Stages returns the 4D convolution of each stage.
func (b *EncoderBlock[T]) Stages() []*conv4d.Conv4D[T] {
	return b.convs
}
