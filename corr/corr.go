// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package corr

import (
	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/corr"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Encoder scores hypercorrelation volumes.
type Encoder[T tensor.Float] = corr.Encoder[T]

// EncoderBlock is a stack of (Conv4D, GroupNorm, ReLU) stages.
type EncoderBlock[T tensor.Float] = corr.EncoderBlock[T]

// DistancePrior is a learned positional weighting of the volume.
type DistancePrior[T tensor.Float] = corr.DistancePrior[T]

// Config configures an Encoder.
type Config = corr.Config

// BlockConfig describes one encoder block.
type BlockConfig = corr.BlockConfig

// PriorName is the parameter and SafeTensors key of the distance prior.
const PriorName = corr.PriorName

// DefaultConfig returns the reference four-block configuration: widths
// 16/32/64/128 over a 9-channel input.
func DefaultConfig() Config {
	return corr.DefaultConfig()
}

// NewEncoder builds an encoder. prior may be nil.
//
// Example:
//
//	enc, err := corr.NewEncoder[float32](corr.DefaultConfig(), nil)
//	logits, err := enc.Score(volume, false) // shape (batch,)
func NewEncoder[T tensor.Float](cfg Config, prior *DistancePrior[T]) (*Encoder[T], error) {
	return corr.NewEncoder(cfg, prior)
}

// NewDistancePrior builds a prior from a (qRow, kRow) matrix, a flat square
// vector, or a full (1, 1, qRow, qCol, kRow, kCol) tensor.
func NewDistancePrior[T tensor.Float](weight *tensor.Tensor[T], qCols, kCols int) (*DistancePrior[T], error) {
	return corr.NewDistancePrior(weight, qCols, kCols)
}

// LoadPrior reads a prior from a SafeTensors file.
func LoadPrior[T tensor.Float](path string, qCols, kCols int) (*DistancePrior[T], error) {
	return corr.LoadPrior[T](path, qCols, kCols)
}

// InterpolateQueryAxes resizes the (qRow, qCol) axes of a volume.
func InterpolateQueryAxes[T tensor.Float](backend *cpu.CPUBackend, volume *tensor.Tensor[T], h, w int) (*tensor.Tensor[T], error) {
	return corr.InterpolateQueryAxes(backend, volume, h, w)
}

// InterpolateKeyAxes resizes the (kRow, kCol) axes of a volume.
func InterpolateKeyAxes[T tensor.Float](backend *cpu.CPUBackend, volume *tensor.Tensor[T], h, w int) (*tensor.Tensor[T], error) {
	return corr.InterpolateKeyAxes(backend, volume, h, w)
}
