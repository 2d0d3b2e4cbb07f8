package cpu

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/parallel"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// ResizeBilinear resamples the two trailing axes of a [N, C, H, W] tensor to
// [N, C, outH, outW] using bilinear interpolation with aligned corners: the
// first and last samples of each axis map exactly onto the input's first and
// last samples.
func ResizeBilinear[T tensor.Float](cpu *CPUBackend, x *tensor.Tensor[T], outH, outW int) (*tensor.Tensor[T], error) {
	shape := x.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("resize_bilinear: input must be 4D [N,C,H,W], got %dD", len(shape))
	}
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("resize_bilinear: invalid output size %dx%d", outH, outW)
	}
	if err := cpu.checkDevice("resize_bilinear", x); err != nil {
		return nil, err
	}
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]

	ys := alignedCoords(H, outH)
	xs := alignedCoords(W, outW)

	out := tensor.Zeros[T](tensor.Shape{N, C, outH, outW}, cpu.device)
	src, dst := x.Data(), out.Data()

	parallel.For(N*C, func(p int) {
		in := src[p*H*W : (p+1)*H*W]
		o := dst[p*outH*outW : (p+1)*outH*outW]
		for i, yc := range ys {
			for j, xc := range xs {
				top := float64(in[yc.lo*W+xc.lo])*(1-xc.frac) + float64(in[yc.lo*W+xc.hi])*xc.frac
				bot := float64(in[yc.hi*W+xc.lo])*(1-xc.frac) + float64(in[yc.hi*W+xc.hi])*xc.frac
				o[i*outW+j] = T(top*(1-yc.frac) + bot*yc.frac)
			}
		}
	}, cpu.parallel)

	return out, nil
}

type sampleCoord struct {
	lo, hi int
	frac   float64
}

func alignedCoords(in, out int) []sampleCoord {
	coords := make([]sampleCoord, out)
	scale := 0.0
	if out > 1 {
		scale = float64(in-1) / float64(out-1)
	}
	for i := range coords {
		pos := float64(i) * scale
		lo := int(pos)
		if lo > in-1 {
			lo = in - 1
		}
		hi := min(lo+1, in-1)
		coords[i] = sampleCoord{lo: lo, hi: hi, frac: pos - float64(lo)}
	}
	return coords
}
