// Package nn implements the neural network layers the correlation encoder is
// assembled from.
//
// This package provides:
//   - Module interface: Base interface for all NN components
//   - Parameter: Learned tensors with stable dotted names
//   - Init: Per-layer initialization policy
//   - Conv2D, Linear, GroupNorm, ReLU
//   - Sequential: Container for stacking layers
//
// Layers return errors instead of panicking when shapes or configuration are
// wrong, so a misconfigured encoder fails at construction or first use with
// the expected and actual shapes attached.
package nn

import (
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Type parameter T selects the numeric precision.
type Module[T tensor.Float] interface {
	// Forward computes the output of the module given an input tensor.
	// The input is never modified.
	Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error)

	// Parameters returns all learned parameters of this module, including
	// nested modules. Modules without parameters return nil.
	Parameters() []*Parameter[T]
}

// StateDict collects a module's parameters by name.
func StateDict[T tensor.Float](m Module[T]) map[string]*tensor.Tensor[T] {
	state := make(map[string]*tensor.Tensor[T])
	for _, p := range m.Parameters() {
		state[p.Name()] = p.Tensor()
	}
	return state
}

// LoadStateDict copies tensors from state into the module's parameters.
// Every parameter must be present with a matching shape; extra entries are
// ignored so a single file can hold several modules. Nothing is replaced
// unless every parameter can be loaded.
func LoadStateDict[T tensor.Float](m Module[T], state map[string]*tensor.Tensor[T]) error {
	params := m.Parameters()
	loaded := make([]*tensor.Tensor[T], len(params))
	for i, p := range params {
		t, ok := state[p.Name()]
		if !ok {
			return &ConfigError{Layer: "state_dict", Field: p.Name(), Reason: "missing from state dict"}
		}
		if err := p.check(t); err != nil {
			return err
		}
		loaded[i] = t.Clone()
	}
	for i, p := range params {
		p.tensor = loaded[i]
	}
	return nil
}
