package cpu

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/parallel"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Linear computes y = x @ W.T + b.
//
// Input shape:  [batch, in_features]
// Weight shape: [out_features, in_features]
// Bias shape:   [out_features] (may be nil)
// Output shape: [batch, out_features]
func Linear[T tensor.Float](cpu *CPUBackend, x, weight, bias *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	xs, ws := x.Shape(), weight.Shape()
	if len(xs) != 2 || len(ws) != 2 {
		return nil, fmt.Errorf("linear: expected 2D input and weight, got %v and %v", xs, ws)
	}
	if err := cpu.checkDevice("linear", x); err != nil {
		return nil, err
	}
	batch, in := xs[0], xs[1]
	out := ws[0]
	if ws[1] != in {
		return nil, &tensor.ShapeError{Op: "linear", Expected: tensor.Shape{batch, ws[1]}, Actual: xs}
	}
	if bias != nil && !bias.Shape().Equal(tensor.Shape{out}) {
		return nil, &tensor.ShapeError{Op: "linear", Expected: tensor.Shape{out}, Actual: bias.Shape(), Detail: "bias"}
	}

	result := tensor.Zeros[T](tensor.Shape{batch, out}, cpu.device)
	xd, wd, rd := x.Data(), weight.Data(), result.Data()
	var bd []T
	if bias != nil {
		bd = bias.Data()
	}

	parallel.For(batch, func(i int) {
		row := xd[i*in : (i+1)*in]
		for j := 0; j < out; j++ {
			var sum T
			if bd != nil {
				sum = bd[j]
			}
			for k, w := range wd[j*in : (j+1)*in] {
				sum += w * row[k]
			}
			rd[i*out+j] = sum
		}
	}, cpu.parallel)

	return result, nil
}
