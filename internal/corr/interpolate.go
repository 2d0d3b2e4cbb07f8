package corr

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// InterpolateQueryAxes bilinearly resizes the (qRow, qCol) axes of a volume
// to (h, w) with aligned corners, independently for every key position.
func InterpolateQueryAxes[T tensor.Float](backend *cpu.CPUBackend, volume *tensor.Tensor[T], h, w int) (*tensor.Tensor[T], error) {
	return resizePair(backend, volume, h, w, [6]int{0, 4, 5, 1, 2, 3}, [6]int{0, 3, 4, 5, 1, 2})
}

// InterpolateKeyAxes bilinearly resizes the (kRow, kCol) axes of a volume to
// (h, w) with aligned corners, independently for every query position.
func InterpolateKeyAxes[T tensor.Float](backend *cpu.CPUBackend, volume *tensor.Tensor[T], h, w int) (*tensor.Tensor[T], error) {
	return resizePair(backend, volume, h, w, [6]int{0, 2, 3, 1, 4, 5}, [6]int{0, 3, 1, 2, 4, 5})
}

func resizePair[T tensor.Float](backend *cpu.CPUBackend, volume *tensor.Tensor[T], h, w int, fold, unfold [6]int) (*tensor.Tensor[T], error) {
	if volume.Rank() != 6 {
		return nil, fmt.Errorf("interpolate: expected rank-6 volume, got %v", volume.Shape())
	}
	s := volume.Shape()
	folded, err := volume.Permute(fold[:]...)
	if err != nil {
		return nil, err
	}
	b, o1, o2, c := s[fold[0]], s[fold[1]], s[fold[2]], s[fold[3]]
	images, err := folded.Reshape(b*o1*o2, c, s[fold[4]], s[fold[5]])
	if err != nil {
		return nil, err
	}
	resized, err := cpu.ResizeBilinear(backend, images, h, w)
	if err != nil {
		return nil, fmt.Errorf("interpolate: %w", err)
	}
	unfolded, err := resized.Reshape(b, o1, o2, c, h, w)
	if err != nil {
		return nil, err
	}
	return unfolded.Permute(unfold[:]...)
}
