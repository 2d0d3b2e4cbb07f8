package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Conv2DConfig describes a 2D convolution with independent height/width
// kernel, stride and padding.
type Conv2DConfig struct {
	InChannels  int
	OutChannels int
	Kernel      [2]int
	Stride      [2]int
	Padding     [2]int
	Bias        bool
	WeightInit  Init
	BiasInit    Init
}

// Validate checks the configuration.
func (c Conv2DConfig) Validate() error {
	if c.InChannels <= 0 || c.OutChannels <= 0 {
		return configErrorf("conv2d", "channels", "invalid channels in=%d, out=%d", c.InChannels, c.OutChannels)
	}
	if c.Kernel[0] <= 0 || c.Kernel[1] <= 0 {
		return configErrorf("conv2d", "kernel", "invalid kernel size %v", c.Kernel)
	}
	if c.Stride[0] <= 0 || c.Stride[1] <= 0 {
		return configErrorf("conv2d", "stride", "invalid stride %v", c.Stride)
	}
	if c.Padding[0] < 0 || c.Padding[1] < 0 {
		return configErrorf("conv2d", "padding", "invalid padding %v", c.Padding)
	}
	return nil
}

// Conv2D is a 2D convolutional layer.
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels, kernel_h, kernel_w]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding_h - kernel_h) / stride_h + 1
//	out_w = (width + 2*padding_w - kernel_w) / stride_w + 1
type Conv2D[T tensor.Float] struct {
	cfg    Conv2DConfig
	weight *Parameter[T]
	bias   *Parameter[T] // nil when cfg.Bias is false

	backend *cpu.CPUBackend
}

// NewConv2D creates a new 2D convolutional layer.
//
// The weight fan-out reported to the init policy is
// kernel_h * kernel_w * out_channels; fan-in is kernel_h * kernel_w * in_channels.
func NewConv2D[T tensor.Float](cfg Conv2DConfig, backend *cpu.CPUBackend, rng *rand.Rand) (*Conv2D[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	area := cfg.Kernel[0] * cfg.Kernel[1]
	fan := Fan{In: area * cfg.InChannels, Out: area * cfg.OutChannels}
	weightShape := tensor.Shape{cfg.OutChannels, cfg.InChannels, cfg.Kernel[0], cfg.Kernel[1]}

	w, err := Initialize[T](cfg.WeightInit, weightShape, fan, backend.Device(), rng)
	if err != nil {
		return nil, fmt.Errorf("conv2d weight: %w", err)
	}

	c := &Conv2D[T]{
		cfg:     cfg,
		weight:  NewParameter("weight", w),
		backend: backend,
	}

	if cfg.Bias {
		b, err := Initialize[T](cfg.BiasInit, tensor.Shape{cfg.OutChannels}, fan, backend.Device(), rng)
		if err != nil {
			return nil, fmt.Errorf("conv2d bias: %w", err)
		}
		c.bias = NewParameter("bias", b)
	}

	return c, nil
}

// Forward performs the forward pass.
func (c *Conv2D[T]) Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	shape := input.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("conv2d: expected 4D input [N,C,H,W], got %dD", len(shape))
	}
	if shape[1] != c.cfg.InChannels {
		return nil, &tensor.ShapeError{
			Op:       "conv2d",
			Expected: tensor.Shape{shape[0], c.cfg.InChannels, shape[2], shape[3]},
			Actual:   shape,
			Detail:   "input channels",
		}
	}

	var bias *tensor.Tensor[T]
	if c.bias != nil {
		bias = c.bias.Tensor()
	}
	return cpu.Conv2D(c.backend, input, c.weight.Tensor(), bias, c.cfg.Stride, c.cfg.Padding)
}

// Parameters returns all learned parameters.
func (c *Conv2D[T]) Parameters() []*Parameter[T] {
	if c.bias != nil {
		return []*Parameter[T]{c.weight, c.bias}
	}
	return []*Parameter[T]{c.weight}
}

// Weight returns the weight parameter.
func (c *Conv2D[T]) Weight() *Parameter[T] {
	return c.weight
}

// Bias returns the bias parameter, or nil.
func (c *Conv2D[T]) Bias() *Parameter[T] {
	return c.bias
}

// Config returns the layer configuration.
func (c *Conv2D[T]) Config() Conv2DConfig {
	return c.cfg
}

// OutputSize computes output spatial dimensions for the given input size.
func (c *Conv2D[T]) OutputSize(h, w int) [2]int {
	return [2]int{
		(h+2*c.cfg.Padding[0]-c.cfg.Kernel[0])/c.cfg.Stride[0] + 1,
		(w+2*c.cfg.Padding[1]-c.cfg.Kernel[1])/c.cfg.Stride[1] + 1,
	}
}

// String returns a string representation of the layer.
func (c *Conv2D[T]) String() string {
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=%v, stride=%v, padding=%v, bias=%v)",
		c.cfg.InChannels, c.cfg.OutChannels, c.cfg.Kernel, c.cfg.Stride, c.cfg.Padding, c.cfg.Bias)
}
