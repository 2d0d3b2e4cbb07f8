package cpu

import (
	"github.com/born-ml/hypercorr/internal/tensor"
)

// ReLU applies max(0, x) element-wise and returns a new tensor.
func ReLU[T tensor.Float](cpu *CPUBackend, x *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	if err := cpu.checkDevice("relu", x); err != nil {
		return nil, err
	}
	out := tensor.Zeros[T](x.Shape(), cpu.device)
	dst := out.Data()
	for i, v := range x.Data() {
		if v > 0 {
			dst[i] = v
		}
	}
	return out, nil
}
