package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/hypercorr/internal/parallel"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// GroupNorm normalizes x over channel groups.
//
// Input shape: [batch, channels, *spatial] with any number of spatial axes.
// Channels are split into `groups` contiguous groups; each (batch, group)
// slice is normalized to zero mean and unit variance (biased estimator) and
// then scaled and shifted per channel:
//
//	y = (x - mean) / sqrt(var + eps) * gamma[c] + beta[c]
func GroupNorm[T tensor.Float](cpu *CPUBackend, x, gamma, beta *tensor.Tensor[T], groups int, eps float64) (*tensor.Tensor[T], error) {
	shape := x.Shape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("group_norm: expected at least 2D input, got %v", shape)
	}
	if err := cpu.checkDevice("group_norm", x); err != nil {
		return nil, err
	}
	batch, channels := shape[0], shape[1]
	if groups <= 0 || channels%groups != 0 {
		return nil, fmt.Errorf("group_norm: %d channels cannot be split into %d groups", channels, groups)
	}
	want := tensor.Shape{channels}
	if !gamma.Shape().Equal(want) || !beta.Shape().Equal(want) {
		return nil, &tensor.ShapeError{Op: "group_norm", Expected: want, Actual: gamma.Shape(), Detail: "affine parameters"}
	}

	spatial := tensor.Shape(shape[2:]).NumElements()
	perGroup := channels / groups
	groupLen := perGroup * spatial

	out := tensor.Zeros[T](shape, cpu.device)
	src, dst := x.Data(), out.Data()
	g, b := gamma.Data(), beta.Data()

	parallel.For(batch*groups, func(k int) {
		n, grp := k/groups, k%groups
		base := (n*channels + grp*perGroup) * spatial
		slice := src[base : base+groupLen]

		var mean float64
		for _, v := range slice {
			mean += float64(v)
		}
		mean /= float64(groupLen)

		var variance float64
		for _, v := range slice {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= float64(groupLen)
		inv := 1 / math.Sqrt(variance+eps)

		for c := 0; c < perGroup; c++ {
			ch := grp*perGroup + c
			scale := float64(g[ch]) * inv
			shift := float64(b[ch]) - mean*scale
			off := base + c*spatial
			for i := 0; i < spatial; i++ {
				dst[off+i] = T(float64(src[off+i])*scale + shift)
			}
		}
	}, cpu.parallel)

	return out, nil
}
