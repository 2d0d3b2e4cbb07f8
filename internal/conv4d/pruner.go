package conv4d

import (
	"fmt"
	"sync"

	"github.com/born-ml/hypercorr/internal/tensor"
)

// PruneIndex selects a strided sub-grid of a flattened (rows, cols) axis pair.
//
// Flat holds row*width + col for every selected (row, col) in row-major
// order, so it is strictly increasing. It is shared with the pruner's cache
// and must not be modified.
type PruneIndex struct {
	Rows int
	Cols int
	Flat []int
}

// Indices returns {0, stride, 2*stride, ...} truncated below extent.
// Its length is ceil(extent / stride).
func Indices(stride, extent int) []int {
	if stride <= 0 || extent <= 0 {
		return nil
	}
	idx := make([]int, 0, (extent+stride-1)/stride)
	for i := 0; i < extent; i += stride {
		idx = append(idx, i)
	}
	return idx
}

type pruneKey struct {
	stride [2]int
	extent [2]int
}

// Pruner subsamples one axis pair of a hypercorrelation volume.
//
// Index sets are memoized per (stride, extent), so a call with a different
// extent always gets its own correct index set. The table is guarded by a
// mutex; a Pruner may be shared by concurrent forward passes.
type Pruner struct {
	stride [2]int

	mu    sync.Mutex
	cache map[pruneKey]PruneIndex
}

// NewPruner creates a pruner for the given (row, col) stride.
func NewPruner(stride [2]int) *Pruner {
	return &Pruner{
		stride: stride,
		cache:  make(map[pruneKey]PruneIndex),
	}
}

// Stride returns the pruner's (row, col) stride.
func (p *Pruner) Stride() [2]int {
	return p.stride
}

// Index returns the prune index for a (rows, cols) extent.
func (p *Pruner) Index(extent [2]int) PruneIndex {
	key := pruneKey{stride: p.stride, extent: extent}

	p.mu.Lock()
	defer p.mu.Unlock()

	if idx, ok := p.cache[key]; ok {
		return idx
	}

	rows := Indices(p.stride[0], extent[0])
	cols := Indices(p.stride[1], extent[1])
	flat := make([]int, 0, len(rows)*len(cols))
	for _, r := range rows {
		for _, c := range cols {
			flat = append(flat, r*extent[1]+c)
		}
	}
	idx := PruneIndex{Rows: len(rows), Cols: len(cols), Flat: flat}
	p.cache[key] = idx
	return idx
}

// cached reports how many index sets are memoized.
func (p *Pruner) cached() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

func volumeDims[T tensor.Float](op string, v *tensor.Tensor[T]) (b, c, ha, wa, hb, wb int, err error) {
	s := v.Shape()
	if len(s) != 6 {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("%s: expected rank-6 volume (batch, channel, qRow, qCol, kRow, kCol), got %v", op, s)
	}
	return s[0], s[1], s[2], s[3], s[4], s[5], nil
}

// PruneKeyAxes subsamples the (kRow, kCol) pair of v, keeping every other
// axis intact: flatten the pair, gather the selected positions, unflatten.
func PruneKeyAxes[T tensor.Float](p *Pruner, v *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	b, c, ha, wa, hb, wb, err := volumeDims("prune key axes", v)
	if err != nil {
		return nil, err
	}
	idx := p.Index([2]int{hb, wb})

	flat, err := v.Reshape(b, c, ha, wa, hb*wb)
	if err != nil {
		return nil, err
	}
	picked, err := flat.IndexSelect(4, idx.Flat)
	if err != nil {
		return nil, err
	}
	return picked.Reshape(b, c, ha, wa, idx.Rows, idx.Cols)
}

// PruneQueryAxes subsamples the (qRow, qCol) pair of v. The flattened query
// axis is moved last for the gather and moved back afterwards.
func PruneQueryAxes[T tensor.Float](p *Pruner, v *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	b, c, ha, wa, hb, wb, err := volumeDims("prune query axes", v)
	if err != nil {
		return nil, err
	}
	idx := p.Index([2]int{ha, wa})

	flat, err := v.Reshape(b, c, ha*wa, hb, wb)
	if err != nil {
		return nil, err
	}
	last, err := flat.Permute(0, 1, 3, 4, 2)
	if err != nil {
		return nil, err
	}
	picked, err := last.IndexSelect(4, idx.Flat)
	if err != nil {
		return nil, err
	}
	back, err := picked.Permute(0, 1, 4, 2, 3)
	if err != nil {
		return nil, err
	}
	return back.Reshape(b, c, idx.Rows, idx.Cols, hb, wb)
}
