package corr

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/nn"
	"github.com/born-ml/hypercorr/internal/safetensors"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// PriorName is the parameter and SafeTensors key of the distance prior.
const PriorName = "dist"

// DistancePrior is a learned positional weighting of shape
// (1, 1, qRow, qCol, kRow, kCol) multiplied into the volume before encoding.
//
// It is built from a (qRow, kRow) matrix W replicated along the column axes,
// so element [0, 0, i, j, k, l] equals W[i, k].
type DistancePrior[T tensor.Float] struct {
	dist *nn.Parameter[T]
}

// NewDistancePrior builds a prior from weight.
//
// weight may be:
//   - rank 2 (qRow, kRow): replicated to qCols query columns and kCols key columns
//   - rank 1 of length n*n: read as an (n, n) matrix, then replicated
//   - rank 6 (1, 1, qRow, qCol, kRow, kCol): used as is; qCols and kCols are ignored
func NewDistancePrior[T tensor.Float](weight *tensor.Tensor[T], qCols, kCols int) (*DistancePrior[T], error) {
	w := weight
	switch weight.Rank() {
	case 6:
		s := weight.Shape()
		if s[0] != 1 || s[1] != 1 {
			return nil, &nn.ConfigError{Layer: "distance_prior", Field: "shape", Reason: fmt.Sprintf("rank-6 prior must have leading (1, 1), got %v", s)}
		}
		return &DistancePrior[T]{dist: nn.NewParameter(PriorName, weight.Clone())}, nil
	case 1:
		n := squareSide(weight.NumElements())
		if n == 0 {
			return nil, &nn.ConfigError{Layer: "distance_prior", Field: "shape", Reason: fmt.Sprintf("flat prior of length %d is not a square matrix", weight.NumElements())}
		}
		var err error
		if w, err = weight.Reshape(n, n); err != nil {
			return nil, err
		}
	case 2:
	default:
		return nil, &nn.ConfigError{Layer: "distance_prior", Field: "shape", Reason: fmt.Sprintf("expected rank 1, 2 or 6, got %v", weight.Shape())}
	}
	if qCols <= 0 || kCols <= 0 {
		return nil, &nn.ConfigError{Layer: "distance_prior", Field: "columns", Reason: fmt.Sprintf("column extents must be > 0, got %d and %d", qCols, kCols)}
	}

	qRows, kRows := w.Dim(0), w.Dim(1)
	pivot, err := w.Reshape(1, 1, qRows, 1, kRows, 1)
	if err != nil {
		return nil, err
	}
	dist, err := pivot.Expand(tensor.Shape{1, 1, qRows, qCols, kRows, kCols})
	if err != nil {
		return nil, err
	}
	return &DistancePrior[T]{dist: nn.NewParameter(PriorName, dist)}, nil
}

func squareSide(n int) int {
	for s := 1; s*s <= n; s++ {
		if s*s == n {
			return s
		}
	}
	return 0
}

// Apply multiplies the volume by the prior, broadcasting over batch and
// channel. A prior whose spatial axes do not broadcast against the volume is
// a BroadcastError.
func (p *DistancePrior[T]) Apply(volume *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	if volume.Rank() != 6 {
		return nil, fmt.Errorf("distance prior: expected rank-6 volume, got %v", volume.Shape())
	}
	dist := p.dist.Tensor()
	out, _, err := tensor.BroadcastShapes(volume.Shape(), dist.Shape())
	if err != nil {
		return nil, fmt.Errorf("distance prior: %w", err)
	}
	if !out.Equal(volume.Shape()) {
		return nil, fmt.Errorf("distance prior: %w",
			&tensor.BroadcastError{A: volume.Shape(), B: dist.Shape(), Dim: firstGrowth(volume.Shape(), out)})
	}
	return volume.Mul(dist)
}

// firstGrowth returns the first axis where the broadcast result exceeds the
// volume.
func firstGrowth(volume, out tensor.Shape) int {
	for i := range volume {
		if volume[i] != out[i] {
			return i
		}
	}
	return len(volume)
}

// Shape returns the prior's rank-6 shape.
func (p *DistancePrior[T]) Shape() tensor.Shape {
	return p.dist.Tensor().Shape()
}

// Parameters returns the single "dist" parameter.
func (p *DistancePrior[T]) Parameters() []*nn.Parameter[T] {
	return []*nn.Parameter[T]{p.dist}
}

// LoadPrior reads a prior from a SafeTensors file. The tensor is taken from
// the "dist" key, or from the file's only tensor when that key is absent.
func LoadPrior[T tensor.Float](path string, qCols, kCols int) (*DistancePrior[T], error) {
	r, err := safetensors.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load prior: %w", err)
	}
	defer func() {
		_ = r.Close() // Read-only file
	}()

	name := PriorName
	if _, err := r.Info(name); err != nil {
		names := r.Names()
		if len(names) != 1 {
			return nil, fmt.Errorf("load prior %s: %w: no %q tensor among %d entries", path, safetensors.ErrTensorNotFound, PriorName, len(names))
		}
		name = names[0]
	}

	weight, err := safetensors.Load[T](r, name, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("load prior %s: %w", path, err)
	}
	return NewDistancePrior(weight, qCols, kCols)
}
