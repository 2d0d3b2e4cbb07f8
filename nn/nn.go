// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/nn"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module[T tensor.Float] = nn.Module[T]

// Parameter represents a learned tensor with a dotted name.
type Parameter[T tensor.Float] = nn.Parameter[T]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[T tensor.Float](name string, t *tensor.Tensor[T]) *Parameter[T] {
	return nn.NewParameter(name, t)
}

// StateDict collects a module's parameters by name.
func StateDict[T tensor.Float](m Module[T]) map[string]*tensor.Tensor[T] {
	return nn.StateDict(m)
}

// LoadStateDict copies named tensors into the module's parameters.
func LoadStateDict[T tensor.Float](m Module[T], state map[string]*tensor.Tensor[T]) error {
	return nn.LoadStateDict(m, state)
}

// Errors

// ErrConfiguration matches every construction-time configuration error.
var ErrConfiguration = nn.ErrConfiguration

// ConfigError provides detail about a configuration failure.
type ConfigError = nn.ConfigError

// Initialization

// Init is a per-tensor initialization policy.
type Init = nn.Init

// Fan holds the fan-in and fan-out used by scaled initializers.
type Fan = nn.Fan

// Zeros initializes with 0.
func Zeros() Init { return nn.Zeros() }

// Constant initializes with v.
func Constant(v float64) Init { return nn.Constant(v) }

// Normal draws from N(0, std).
func Normal(std float64) Init { return nn.Normal(std) }

// Uniform draws from U(-bound, bound).
func Uniform(bound float64) Init { return nn.Uniform(bound) }

// KaimingNormalFanOut draws from N(0, sqrt(2/fan_out)).
func KaimingNormalFanOut() Init { return nn.KaimingNormalFanOut() }

// LeCunUniform draws from U(-1/sqrt(fan_in), 1/sqrt(fan_in)).
func LeCunUniform() Init { return nn.LeCunUniform() }

// XavierUniform draws from U(-sqrt(6/(fan_in+fan_out)), sqrt(6/(fan_in+fan_out))).
func XavierUniform() Init { return nn.XavierUniform() }

// Layers

// Conv2D represents a 2D convolutional layer.
type Conv2D[T tensor.Float] = nn.Conv2D[T]

// Conv2DConfig configures a Conv2D layer.
type Conv2DConfig = nn.Conv2DConfig

// NewConv2D creates a new 2D convolutional layer.
//
// Example:
//
//	conv, err := nn.NewConv2D[float32](nn.Conv2DConfig{
//	    InChannels: 9, OutChannels: 16,
//	    Kernel: [2]int{5, 5}, Stride: [2]int{2, 2}, Padding: [2]int{2, 2},
//	    Bias: true, WeightInit: nn.KaimingNormalFanOut(), BiasInit: nn.Zeros(),
//	}, backend, nil)
func NewConv2D[T tensor.Float](cfg Conv2DConfig, backend *cpu.CPUBackend, rng *rand.Rand) (*Conv2D[T], error) {
	return nn.NewConv2D[T](cfg, backend, rng)
}

// Linear represents a fully connected (dense) layer.
type Linear[T tensor.Float] = nn.Linear[T]

// NewLinear creates a new linear layer.
func NewLinear[T tensor.Float](inFeatures, outFeatures int, weightInit, biasInit Init, backend *cpu.CPUBackend, rng *rand.Rand) (*Linear[T], error) {
	return nn.NewLinear[T](inFeatures, outFeatures, weightInit, biasInit, backend, rng)
}

// GroupNorm normalizes groups of channels.
type GroupNorm[T tensor.Float] = nn.GroupNorm[T]

// NewGroupNorm creates a GroupNorm layer with scale 1 and shift 0.
func NewGroupNorm[T tensor.Float](groups, channels int, backend *cpu.CPUBackend) (*GroupNorm[T], error) {
	return nn.NewGroupNorm[T](groups, channels, backend)
}

// Activations

// ReLU represents the rectified linear unit activation.
type ReLU[T tensor.Float] = nn.ReLU[T]

// NewReLU creates a new ReLU activation.
func NewReLU[T tensor.Float](backend *cpu.CPUBackend) *ReLU[T] {
	return nn.NewReLU[T](backend)
}

// Containers

// Sequential chains modules together.
type Sequential[T tensor.Float] = nn.Sequential[T]

// NewSequential creates a new Sequential container.
func NewSequential[T tensor.Float](modules ...Module[T]) *Sequential[T] {
	return nn.NewSequential(modules...)
}
