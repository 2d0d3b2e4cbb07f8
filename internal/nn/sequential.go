package nn

import (
	"fmt"
	"strconv"

	"github.com/born-ml/hypercorr/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input. Parameters of the
// module at index i are renamed "i.<name>" when the module is added.
type Sequential[T tensor.Float] struct {
	modules []Module[T]
}

// NewSequential creates a new Sequential container.
func NewSequential[T tensor.Float](modules ...Module[T]) *Sequential[T] {
	s := &Sequential[T]{}
	for _, m := range modules {
		s.Add(m)
	}
	return s
}

// Forward applies all modules in sequence. The first failing module's error
// is returned, annotated with its index.
func (s *Sequential[T]) Forward(input *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	output := input
	for i, module := range s.modules {
		var err error
		output, err = module.Forward(output)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
	}
	return output, nil
}

// Parameters returns all learned parameters from all modules.
func (s *Sequential[T]) Parameters() []*Parameter[T] {
	var params []*Parameter[T]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Add appends a module to the sequence.
func (s *Sequential[T]) Add(module Module[T]) {
	Prefix(strconv.Itoa(len(s.modules)), module)
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential[T]) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential[T]) Module(index int) Module[T] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}
