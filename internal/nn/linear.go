package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
type Linear[T tensor.Float] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[T]
	bias        *Parameter[T]
	backend     *cpu.CPUBackend
}

// NewLinear creates a new Linear layer with the given init policies.
// LeCunUniform for both weight and bias reproduces the common default.
func NewLinear[T tensor.Float](inFeatures, outFeatures int, weightInit, biasInit Init, backend *cpu.CPUBackend, rng *rand.Rand) (*Linear[T], error) {
	if inFeatures <= 0 || outFeatures <= 0 {
		return nil, configErrorf("linear", "features", "invalid features in=%d, out=%d", inFeatures, outFeatures)
	}
	fan := Fan{In: inFeatures, Out: outFeatures}

	w, err := Initialize[T](weightInit, tensor.Shape{outFeatures, inFeatures}, fan, backend.Device(), rng)
	if err != nil {
		return nil, fmt.Errorf("linear weight: %w", err)
	}
	b, err := Initialize[T](biasInit, tensor.Shape{outFeatures}, fan, backend.Device(), rng)
	if err != nil {
		return nil, fmt.Errorf("linear bias: %w", err)
	}

	return &Linear[T]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", w),
		bias:        NewParameter("bias", b),
		backend:     backend,
	}, nil
}

// Forward computes the output of the linear layer.
func (l *Linear[T]) Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	return cpu.Linear(l.backend, input, l.weight.Tensor(), l.bias.Tensor())
}

// Parameters returns [weight, bias].
func (l *Linear[T]) Parameters() []*Parameter[T] {
	return []*Parameter[T]{l.weight, l.bias}
}

// InFeatures returns the number of input features.
func (l *Linear[T]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[T]) OutFeatures() int {
	return l.outFeatures
}

// Weight returns the weight parameter.
func (l *Linear[T]) Weight() *Parameter[T] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[T]) Bias() *Parameter[T] {
	return l.bias
}
