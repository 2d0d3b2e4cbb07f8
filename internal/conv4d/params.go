package conv4d

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/nn"
)

// Window is the kernel, stride and padding applied to one axis pair.
type Window struct {
	Kernel  [2]int
	Stride  [2]int
	Padding [2]int
}

// Strided reports whether either axis of the pair is subsampled.
func (w Window) Strided() bool {
	return w.Stride[0] > 1 || w.Stride[1] > 1
}

// OutputSize returns the extent of the pair after convolving (h, w).
func (w Window) OutputSize(h, wd int) [2]int {
	return [2]int{
		(h+2*w.Padding[0]-w.Kernel[0])/w.Stride[0] + 1,
		(wd+2*w.Padding[1]-w.Kernel[1])/w.Stride[1] + 1,
	}
}

func (w Window) validate(pair string) error {
	for i := 0; i < 2; i++ {
		if w.Kernel[i] <= 0 {
			return &nn.ConfigError{Layer: "conv4d", Field: pair + ".kernel", Reason: fmt.Sprintf("must be > 0, got %v", w.Kernel)}
		}
		if w.Stride[i] <= 0 {
			return &nn.ConfigError{Layer: "conv4d", Field: pair + ".stride", Reason: fmt.Sprintf("must be > 0, got %v", w.Stride)}
		}
		if w.Padding[i] < 0 {
			return &nn.ConfigError{Layer: "conv4d", Field: pair + ".padding", Reason: fmt.Sprintf("must be >= 0, got %v", w.Padding)}
		}
	}
	return nil
}

// Params holds the convolution windows for the query and key axis pairs.
type Params struct {
	Query Window
	Key   Window
}

// Validate checks both windows.
func (p Params) Validate() error {
	if err := p.Query.validate("query"); err != nil {
		return err
	}
	return p.Key.validate("key")
}

// SplitParams partitions 4-tuples of (qRow, qCol, kRow, kCol) kernel, stride
// and padding into query and key windows.
func SplitParams(kernel, stride, padding []int) (Params, error) {
	for _, t := range []struct {
		name string
		v    []int
	}{{"kernel", kernel}, {"stride", stride}, {"padding", padding}} {
		if len(t.v) != 4 {
			return Params{}, &nn.ConfigError{
				Layer:  "conv4d",
				Field:  t.name,
				Reason: fmt.Sprintf("expected 4 values (qRow, qCol, kRow, kCol), got %d", len(t.v)),
			}
		}
	}
	p := Params{
		Query: Window{
			Kernel:  [2]int{kernel[0], kernel[1]},
			Stride:  [2]int{stride[0], stride[1]},
			Padding: [2]int{padding[0], padding[1]},
		},
		Key: Window{
			Kernel:  [2]int{kernel[2], kernel[3]},
			Stride:  [2]int{stride[2], stride[3]},
			Padding: [2]int{padding[2], padding[3]},
		},
	}
	return p, p.Validate()
}

// Cubic returns the parameters used by the encoder: a k×k×k×k kernel with
// "same" padding k/2, query stride qs on both query axes and key stride ks on
// both key axes.
func Cubic(k, queryStride, keyStride int) Params {
	pad := [2]int{k / 2, k / 2}
	return Params{
		Query: Window{Kernel: [2]int{k, k}, Stride: [2]int{queryStride, queryStride}, Padding: pad},
		Key:   Window{Kernel: [2]int{k, k}, Stride: [2]int{keyStride, keyStride}, Padding: pad},
	}
}
