package nn

import (
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Parameter represents a learned tensor in a neural network.
//
// Parameters carry a dotted name (e.g. "block1.0.conv1.weight") that is used
// as the key when weights are loaded from a SafeTensors file.
type Parameter[T tensor.Float] struct {
	name   string
	tensor *tensor.Tensor[T]
}

// NewParameter creates a new parameter.
func NewParameter[T tensor.Float](name string, t *tensor.Tensor[T]) *Parameter[T] {
	return &Parameter[T]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[T]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[T]) Tensor() *tensor.Tensor[T] {
	return p.tensor
}

// Load replaces the parameter's values with a copy of t.
// The shape must match the parameter's current shape.
func (p *Parameter[T]) Load(t *tensor.Tensor[T]) error {
	if err := p.check(t); err != nil {
		return err
	}
	p.tensor = t.Clone()
	return nil
}

func (p *Parameter[T]) check(t *tensor.Tensor[T]) error {
	if !t.Shape().Equal(p.tensor.Shape()) {
		return &tensor.ShapeError{Op: "load " + p.name, Expected: p.tensor.Shape(), Actual: t.Shape()}
	}
	return nil
}

// prefixed returns params renamed with prefix + "." + name.
func prefixed[T tensor.Float](prefix string, params []*Parameter[T]) []*Parameter[T] {
	for _, p := range params {
		p.name = prefix + "." + p.name
	}
	return params
}

// Prefix renames every parameter of a freshly built module by prepending
// prefix. Call it once, when the module is attached to its parent.
func Prefix[T tensor.Float](prefix string, m Module[T]) {
	prefixed(prefix, m.Parameters())
}
