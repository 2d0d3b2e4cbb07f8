package nn

import (
	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU[T tensor.Float] struct {
	backend *cpu.CPUBackend
}

// NewReLU creates a new ReLU activation module.
func NewReLU[T tensor.Float](backend *cpu.CPUBackend) *ReLU[T] {
	return &ReLU[T]{backend: backend}
}

// Forward applies ReLU activation.
func (r *ReLU[T]) Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	return cpu.ReLU(r.backend, input)
}

// Parameters returns nil (ReLU has no learned parameters).
func (r *ReLU[T]) Parameters() []*Parameter[T] {
	return nil
}
