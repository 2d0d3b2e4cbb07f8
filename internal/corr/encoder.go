package corr

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/conv4d"
	"github.com/born-ml/hypercorr/internal/nn"
	"github.com/born-ml/hypercorr/internal/safetensors"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Encoder scores hypercorrelation volumes.
//
// Parameter names follow the reference network: "block1.0.conv1.weight",
// "block4.7.bias", "mlp.0.weight", "mlp.2.bias" and, when a prior is
// attached, "dist".
type Encoder[T tensor.Float] struct {
	cfg     Config
	backend *cpu.CPUBackend
	blocks  []*EncoderBlock[T]
	mlp     *nn.Sequential[T]
	prior   *DistancePrior[T]
	logger  *slog.Logger
}

// NewEncoder builds an encoder. prior may be nil, in which case Score
// rejects reweighting.
func NewEncoder[T tensor.Float](cfg Config, prior *DistancePrior[T]) (*Encoder[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := cpu.NewWithConfig(cfg.Parallel)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := conv4d.DefaultOptions()
	opts.Logger = logger
	opts.Rand = cfg.Rand

	e := &Encoder[T]{
		cfg:     cfg,
		backend: backend,
		prior:   prior,
		logger:  logger,
	}
	for i, bc := range cfg.Blocks {
		block, err := NewEncoderBlock[T](bc, cfg.Groups, backend, opts)
		if err != nil {
			return nil, fmt.Errorf("block%d: %w", i+1, err)
		}
		nn.Prefix[T]("block"+strconv.Itoa(i+1), block)
		e.blocks = append(e.blocks, block)
	}

	// Linear layers keep the common U(±1/sqrt(fan_in)) default.
	hidden, err := nn.NewLinear[T](cfg.OutChannels(), cfg.Hidden, nn.LeCunUniform(), nn.LeCunUniform(), backend, cfg.Rand)
	if err != nil {
		return nil, fmt.Errorf("mlp: %w", err)
	}
	head, err := nn.NewLinear[T](cfg.Hidden, 1, nn.LeCunUniform(), nn.LeCunUniform(), backend, cfg.Rand)
	if err != nil {
		return nil, fmt.Errorf("mlp: %w", err)
	}
	e.mlp = nn.NewSequential[T](hidden, nn.NewReLU[T](backend), head)
	nn.Prefix[T]("mlp", e.mlp)

	logger.Debug("correlation encoder built",
		"blocks", len(e.blocks),
		"in_channels", cfg.InChannels(),
		"out_channels", cfg.OutChannels(),
		"parameters", len(e.Parameters()),
		"prior", prior != nil,
	)
	return e, nil
}

// Score encodes a (batch, channel, qRow, qCol, kRow, kCol) volume into one
// logit per batch element. With reweight the volume is first multiplied by
// the distance prior.
func (e *Encoder[T]) Score(volume *tensor.Tensor[T], reweight bool) (*tensor.Tensor[T], error) {
	if volume.Rank() != 6 {
		return nil, fmt.Errorf("encoder: expected rank-6 volume (batch, channel, qRow, qCol, kRow, kCol), got %v", volume.Shape())
	}
	if volume.Dim(1) != e.cfg.InChannels() {
		want := volume.Shape().Clone()
		want[1] = e.cfg.InChannels()
		return nil, &tensor.ShapeError{Op: "encoder", Expected: want, Actual: volume.Shape(), Detail: "input channels"}
	}

	x := volume
	if reweight {
		if e.prior == nil {
			return nil, &nn.ConfigError{Layer: "encoder", Field: "prior", Reason: "reweighting requested but no distance prior is attached"}
		}
		var err error
		if x, err = e.prior.Apply(volume); err != nil {
			return nil, err
		}
	}

	for i, block := range e.blocks {
		var err error
		if x, err = block.Forward(x); err != nil {
			return nil, fmt.Errorf("block%d: %w", i+1, err)
		}
	}

	pooled, err := x.MeanAxes(2, false)
	if err != nil {
		return nil, err
	}
	logits, err := e.mlp.Forward(pooled)
	if err != nil {
		return nil, fmt.Errorf("mlp: %w", err)
	}
	return logits.Squeeze(1)
}

// Forward scores the volume without reweighting.
func (e *Encoder[T]) Forward(volume *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	return e.Score(volume, false)
}

// OutputShapes returns the volume shape after each block for an input shape,
// without running the encoder.
func (e *Encoder[T]) OutputShapes(in tensor.Shape) ([]tensor.Shape, error) {
	shapes := make([]tensor.Shape, 0, len(e.blocks))
	shape := in
	for i, block := range e.blocks {
		var err error
		if shape, err = block.OutputShape(shape); err != nil {
			return nil, fmt.Errorf("block%d: %w", i+1, err)
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}

// Parameters returns every block, classifier and prior parameter.
func (e *Encoder[T]) Parameters() []*nn.Parameter[T] {
	var params []*nn.Parameter[T]
	for _, block := range e.blocks {
		params = append(params, block.Parameters()...)
	}
	params = append(params, e.mlp.Parameters()...)
	if e.prior != nil {
		params = append(params, e.prior.Parameters()...)
	}
	return params
}

// StateDict returns the parameters keyed by name.
func (e *Encoder[T]) StateDict() map[string]*tensor.Tensor[T] {
	return nn.StateDict[T](e)
}

// LoadStateDict replaces every parameter with the tensor of the same name.
func (e *Encoder[T]) LoadStateDict(state map[string]*tensor.Tensor[T]) error {
	return nn.LoadStateDict[T](e, state)
}

// LoadWeights loads pretrained parameters from a SafeTensors file.
func (e *Encoder[T]) LoadWeights(path string) error {
	r, err := safetensors.Open(path)
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	defer func() {
		_ = r.Close() // Read-only file
	}()

	if _, err := r.Verify(); err != nil {
		return fmt.Errorf("load weights %s: %w", path, err)
	}
	state, err := safetensors.LoadAll[T](r, tensor.CPU)
	if err != nil {
		return fmt.Errorf("load weights %s: %w", path, err)
	}

	var attach *DistancePrior[T]
	dist, ok := state[PriorName]
	switch {
	case !ok && e.prior != nil:
		// A prior loaded on its own survives a weights file that does not carry one.
		state[PriorName] = e.prior.dist.Tensor()
	case ok && e.prior == nil:
		if attach, err = priorFromState(dist); err != nil {
			return fmt.Errorf("load weights %s: %w", path, err)
		}
	}
	if err := e.LoadStateDict(state); err != nil {
		return fmt.Errorf("load weights %s: %w", path, err)
	}
	if attach != nil {
		e.prior = attach
		e.logger.Info("attached distance prior from weights", "path", path, "shape", attach.Shape())
	}
	e.logger.Info("loaded encoder weights", "path", path, "tensors", len(state))
	return nil
}

// priorFromState builds a prior from a stored "dist" tensor. Matrices are
// taken as square grids, so each column extent equals its row extent.
func priorFromState[T tensor.Float](dist *tensor.Tensor[T]) (*DistancePrior[T], error) {
	switch dist.Rank() {
	case 2:
		return NewDistancePrior(dist, dist.Dim(0), dist.Dim(1))
	case 1:
		n := squareSide(dist.NumElements())
		return NewDistancePrior(dist, n, n)
	default:
		return NewDistancePrior(dist, 1, 1)
	}
}

// SaveWeights writes every parameter to a SafeTensors file.
func (e *Encoder[T]) SaveWeights(path string) error {
	return safetensors.WriteFile(path, e.StateDict(), map[string]string{"format": "hypercorr"})
}

// Blocks returns the encoder blocks in order.
func (e *Encoder[T]) Blocks() []*EncoderBlock[T] {
	return e.blocks
}

// Prior returns the attached distance prior, or nil.
func (e *Encoder[T]) Prior() *DistancePrior[T] {
	return e.prior
}

// Backend returns the CPU backend the encoder runs on.
func (e *Encoder[T]) Backend() *cpu.CPUBackend {
	return e.backend
}

// Config returns the encoder configuration.
func (e *Encoder[T]) Config() Config {
	return e.cfg
}
