package cpu

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/parallel"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Bias shape:   [out_channels] (may be nil)
// Output shape: [batch, out_channels, out_h, out_w]
//
// Stride and padding are given per axis as (height, width):
//
//	out_h = (height + 2*padding[0] - kernel_h) / stride[0] + 1
//	out_w = (width  + 2*padding[1] - kernel_w) / stride[1] + 1
//
// Each batch image is independent, so images are split across workers. Every
// output element is accumulated in the same order regardless of the worker
// count, which keeps results bit-identical between runs.
//
// Reference: "High Performance Convolutional Neural Networks for Document Processing"
// (Chellapilla et al., 2006).
func Conv2D[T tensor.Float](cpu *CPUBackend, input, kernel, bias *tensor.Tensor[T], stride, padding [2]int) (*tensor.Tensor[T], error) {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		return nil, fmt.Errorf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape))
	}
	if len(kernelShape) != 4 {
		return nil, fmt.Errorf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape))
	}
	if err := cpu.checkDevice("conv2d", input); err != nil {
		return nil, err
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		return nil, fmt.Errorf("conv2d: invalid stride %v", stride)
	}
	if padding[0] < 0 || padding[1] < 0 {
		return nil, fmt.Errorf("conv2d: invalid padding %v", padding)
	}

	N := inputShape[0]     // batch size
	CIn := inputShape[1]   // input channels
	H := inputShape[2]     // input height
	W := inputShape[3]     // input width
	COut := kernelShape[0] // output channels
	KH := kernelShape[2]   // kernel height
	KW := kernelShape[3]   // kernel width

	if kernelShape[1] != CIn {
		return nil, &tensor.ShapeError{
			Op:       "conv2d",
			Expected: tensor.Shape{COut, CIn, KH, KW},
			Actual:   kernelShape,
			Detail:   "kernel input channels differ from input channels",
		}
	}
	if bias != nil && !bias.Shape().Equal(tensor.Shape{COut}) {
		return nil, &tensor.ShapeError{Op: "conv2d", Expected: tensor.Shape{COut}, Actual: bias.Shape(), Detail: "bias"}
	}

	HOut := (H+2*padding[0]-KH)/stride[0] + 1
	WOut := (W+2*padding[1]-KW)/stride[1] + 1
	if H+2*padding[0] < KH || W+2*padding[1] < KW || HOut <= 0 || WOut <= 0 {
		return nil, fmt.Errorf("conv2d: kernel %dx%d does not fit input %dx%d with padding %v",
			KH, KW, H, W, padding)
	}

	output := tensor.Zeros[T](tensor.Shape{N, COut, HOut, WOut}, cpu.device)

	g := im2colGeom{C: CIn, H: H, W: W, KH: KH, KW: KW, HOut: HOut, WOut: WOut, stride: stride, padding: padding}
	inData := input.Data()
	kData := kernel.Data()
	outData := output.Data()
	var bData []T
	if bias != nil {
		bData = bias.Data()
	}

	colWidth := CIn * KH * KW
	positions := HOut * WOut
	inImage := CIn * H * W
	outImage := COut * positions

	parallel.ForChunks(N, func(start, end int) {
		// colBuf: [H_out * W_out, C_in * K_h * K_w], reused for every image in the chunk.
		colBuf := make([]T, positions*colWidth)
		for n := start; n < end; n++ {
			im2col(colBuf, inData[n*inImage:(n+1)*inImage], g)
			dst := outData[n*outImage : (n+1)*outImage]

			// dst[co, p] = bias[co] + sum_k kernel[co, k] * col[p, k]
			for co := 0; co < COut; co++ {
				wRow := kData[co*colWidth : (co+1)*colWidth]
				var b T
				if bData != nil {
					b = bData[co]
				}
				for p := 0; p < positions; p++ {
					col := colBuf[p*colWidth : (p+1)*colWidth]
					sum := b
					for k, w := range wRow {
						sum += w * col[k]
					}
					dst[co*positions+p] = sum
				}
			}
		}
	}, cpu.parallel)

	return output, nil
}

// im2colGeom carries the geometry of a single-image im2col transform.
type im2colGeom struct {
	C, H, W         int
	KH, KW          int
	HOut, WOut      int
	stride, padding [2]int
}

// im2col transforms one [C, H, W] image into a column matrix.
//
// Output: colBuf [H_out * W_out, C * K_h * K_w]
//
// Each row of colBuf corresponds to one output position and holds the
// flattened input patch under the kernel; out-of-bounds taps are zero.
func im2col[T tensor.Float](colBuf, image []T, g im2colGeom) {
	bufIdx := 0
	for outH := 0; outH < g.HOut; outH++ {
		hStart := outH*g.stride[0] - g.padding[0]
		for outW := 0; outW < g.WOut; outW++ {
			wStart := outW*g.stride[1] - g.padding[1]
			for c := 0; c < g.C; c++ {
				plane := image[c*g.H*g.W : (c+1)*g.H*g.W]
				for kh := 0; kh < g.KH; kh++ {
					h := hStart + kh
					for kw := 0; kw < g.KW; kw++ {
						w := wStart + kw
						if h >= 0 && h < g.H && w >= 0 && w < g.W {
							colBuf[bufIdx] = plane[h*g.W+w]
						} else {
							colBuf[bufIdx] = 0
						}
						bufIdx++
					}
				}
			}
		}
	}
}
