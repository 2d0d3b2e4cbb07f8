package corr

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/hypercorr/internal/nn"
	"github.com/born-ml/hypercorr/internal/parallel"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// BlockConfig describes one encoder block. Widths, Kernels, QueryStrides and
// KeyStrides hold one entry per stage and must have equal length.
type BlockConfig struct {
	InChannels   int
	Widths       []int
	Kernels      []int
	QueryStrides []int
	KeyStrides   []int
}

// OutChannels returns the width of the last stage.
func (b BlockConfig) OutChannels() int {
	if len(b.Widths) == 0 {
		return 0
	}
	return b.Widths[len(b.Widths)-1]
}

// Validate checks arity and per-stage values.
func (b BlockConfig) Validate(groups int) error {
	n := len(b.Widths)
	if n == 0 {
		return &nn.ConfigError{Layer: "encoder_block", Field: "widths", Reason: "at least one stage is required"}
	}
	if len(b.Kernels) != n || len(b.QueryStrides) != n || len(b.KeyStrides) != n {
		return &nn.ConfigError{
			Layer: "encoder_block",
			Field: "stages",
			Reason: fmt.Sprintf("widths, kernels, query strides and key strides must have equal length, got %d/%d/%d/%d",
				n, len(b.Kernels), len(b.QueryStrides), len(b.KeyStrides)),
		}
	}
	if b.InChannels <= 0 {
		return &nn.ConfigError{Layer: "encoder_block", Field: "in_channels", Reason: fmt.Sprintf("must be > 0, got %d", b.InChannels)}
	}
	for i, w := range b.Widths {
		if w <= 0 || w%groups != 0 {
			return &nn.ConfigError{
				Layer:  "encoder_block",
				Field:  fmt.Sprintf("widths[%d]", i),
				Reason: fmt.Sprintf("width %d must be positive and divisible by %d groups", w, groups),
			}
		}
	}
	return nil
}

// Config configures an Encoder.
type Config struct {
	Blocks []BlockConfig
	Groups int // GroupNorm groups in every stage
	Hidden int // width of the classifier's hidden layer

	Device   tensor.Device
	Parallel parallel.Config

	Logger *slog.Logger // defaults to slog.Default()
	Rand   *rand.Rand   // parameter initialization source; nil uses the math/rand global source
}

// DefaultConfig returns the reference four-block configuration.
func DefaultConfig() Config {
	return Config{
		Blocks: []BlockConfig{
			{InChannels: 9, Widths: []int{16}, Kernels: []int{5}, QueryStrides: []int{2}, KeyStrides: []int{2}},
			{InChannels: 16, Widths: []int{16, 32}, Kernels: []int{3, 3}, QueryStrides: []int{1, 2}, KeyStrides: []int{1, 2}},
			{InChannels: 32, Widths: []int{32, 32, 64}, Kernels: []int{3, 3, 3}, QueryStrides: []int{1, 1, 2}, KeyStrides: []int{1, 1, 2}},
			{InChannels: 64, Widths: []int{64, 64, 128}, Kernels: []int{3, 3, 3}, QueryStrides: []int{1, 1, 1}, KeyStrides: []int{1, 1, 1}},
		},
		Groups:   4,
		Hidden:   128,
		Device:   tensor.CPU,
		Parallel: parallel.DefaultConfig(),
	}
}

// InChannels returns the channel count the encoder expects.
func (c Config) InChannels() int {
	if len(c.Blocks) == 0 {
		return 0
	}
	return c.Blocks[0].InChannels
}

// OutChannels returns the width fed into the classifier.
func (c Config) OutChannels() int {
	if len(c.Blocks) == 0 {
		return 0
	}
	return c.Blocks[len(c.Blocks)-1].OutChannels()
}

// Validate checks every block and the chaining between them.
func (c Config) Validate() error {
	if c.Device != tensor.CPU {
		return &nn.ConfigError{Layer: "encoder", Field: "device", Reason: fmt.Sprintf("unsupported device %s", c.Device)}
	}
	if c.Groups <= 0 {
		return &nn.ConfigError{Layer: "encoder", Field: "groups", Reason: fmt.Sprintf("must be > 0, got %d", c.Groups)}
	}
	if c.Hidden <= 0 {
		return &nn.ConfigError{Layer: "encoder", Field: "hidden", Reason: fmt.Sprintf("must be > 0, got %d", c.Hidden)}
	}
	if len(c.Blocks) == 0 {
		return &nn.ConfigError{Layer: "encoder", Field: "blocks", Reason: "at least one block is required"}
	}
	for i, b := range c.Blocks {
		if err := b.Validate(c.Groups); err != nil {
			return fmt.Errorf("block%d: %w", i+1, err)
		}
		if i > 0 && b.InChannels != c.Blocks[i-1].OutChannels() {
			return &nn.ConfigError{
				Layer: "encoder",
				Field: fmt.Sprintf("block%d.in_channels", i+1),
				Reason: fmt.Sprintf("block%d produces %d channels but block%d expects %d",
					i, c.Blocks[i-1].OutChannels(), i+1, b.InChannels),
			}
		}
	}
	return c.Parallel.Validate()
}
