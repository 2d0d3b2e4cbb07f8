package conv4d

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/nn"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// Options configures a Conv4D beyond its channel counts and windows.
type Options struct {
	Bias       bool
	WeightInit nn.Init
	BiasInit   nn.Init
	Logger     *slog.Logger // defaults to slog.Default()
	Rand       *rand.Rand   // nil uses the math/rand global source
}

// DefaultOptions returns biased convolutions with N(0, sqrt(2/fan_out))
// weights and zero bias.
func DefaultOptions() Options {
	return Options{
		Bias:       true,
		WeightInit: nn.KaimingNormalFanOut(),
		BiasInit:   nn.Zeros(),
	}
}

// Conv4D is a center-pivot 4D convolution.
//
// Input shape:  [batch, in_channels, qRow, qCol, kRow, kCol]
// Output shape: [batch, out_channels, qRow', qCol', kRow', kCol']
//
// The output is conv1 (over query axes, batched across key positions) plus
// conv2 (over key axes, batched across query positions). Parameters are named
// "conv1.weight", "conv1.bias", "conv2.weight", "conv2.bias".
type Conv4D[T tensor.Float] struct {
	inChannels  int
	outChannels int
	params      Params

	conv1 *nn.Conv2D[T] // query axes
	conv2 *nn.Conv2D[T] // key axes

	keyPruner   *Pruner
	queryPruner *Pruner

	logger   *slog.Logger
	warnOnce sync.Once
}

// New creates a Conv4D layer.
func New[T tensor.Float](inChannels, outChannels int, params Params, backend *cpu.CPUBackend, opts Options) (*Conv4D[T], error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	newConv := func(name string, w Window) (*nn.Conv2D[T], error) {
		conv, err := nn.NewConv2D[T](nn.Conv2DConfig{
			InChannels:  inChannels,
			OutChannels: outChannels,
			Kernel:      w.Kernel,
			Stride:      w.Stride,
			Padding:     w.Padding,
			Bias:        opts.Bias,
			WeightInit:  opts.WeightInit,
			BiasInit:    opts.BiasInit,
		}, backend, opts.Rand)
		if err != nil {
			return nil, fmt.Errorf("conv4d %s: %w", name, err)
		}
		nn.Prefix[T](name, conv)
		return conv, nil
	}

	conv1, err := newConv("conv1", params.Query)
	if err != nil {
		return nil, err
	}
	conv2, err := newConv("conv2", params.Key)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Conv4D[T]{
		inChannels:  inChannels,
		outChannels: outChannels,
		params:      params,
		conv1:       conv1,
		conv2:       conv2,
		keyPruner:   NewPruner(params.Key.Stride),
		queryPruner: NewPruner(params.Query.Stride),
		logger:      logger,
	}, nil
}

// Forward convolves the volume.
func (c *Conv4D[T]) Forward(x *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	out1, out2, err := c.Branches(x)
	if err != nil {
		return nil, err
	}
	out1, err = c.reconcile(out1, out2)
	if err != nil {
		return nil, err
	}
	return out1.Add(out2)
}

// Branches returns the two branch outputs before reconciliation and summation:
// the query-axis convolution and the key-axis convolution.
func (c *Conv4D[T]) Branches(x *tensor.Tensor[T]) (*tensor.Tensor[T], *tensor.Tensor[T], error) {
	_, ch, _, _, _, _, err := volumeDims("conv4d", x)
	if err != nil {
		return nil, nil, err
	}
	if ch != c.inChannels {
		want := x.Shape().Clone()
		want[1] = c.inChannels
		return nil, nil, &tensor.ShapeError{Op: "conv4d", Expected: want, Actual: x.Shape(), Detail: "input channels"}
	}

	// Branch 1: prune key axes first so the query convolution is batched
	// across the reduced key grid.
	src1 := x
	if c.params.Key.Strided() {
		if src1, err = PruneKeyAxes(c.keyPruner, x); err != nil {
			return nil, nil, err
		}
	}
	out1, err := convPair(c.conv1, src1, [6]int{0, 4, 5, 1, 2, 3}, [6]int{0, 3, 4, 5, 1, 2})
	if err != nil {
		return nil, nil, fmt.Errorf("conv4d query branch: %w", err)
	}

	// Branch 2 starts again from the unconvolved input.
	src2 := x
	if c.params.Query.Strided() {
		if src2, err = PruneQueryAxes(c.queryPruner, x); err != nil {
			return nil, nil, err
		}
	}
	out2, err := convPair(c.conv2, src2, [6]int{0, 2, 3, 1, 4, 5}, [6]int{0, 3, 1, 2, 4, 5})
	if err != nil {
		return nil, nil, fmt.Errorf("conv4d key branch: %w", err)
	}

	return out1, out2, nil
}

// convPair folds the three axes named by fold[0], fold[1], fold[2] into the
// batch, runs conv over the remaining (channel, row, col) axes, unfolds, and
// restores the volume layout with unfold.
func convPair[T tensor.Float](conv *nn.Conv2D[T], v *tensor.Tensor[T], fold, unfold [6]int) (*tensor.Tensor[T], error) {
	s := v.Shape()
	folded, err := v.Permute(fold[:]...)
	if err != nil {
		return nil, err
	}
	b, o1, o2 := s[fold[0]], s[fold[1]], s[fold[2]]
	images, err := folded.Reshape(b*o1*o2, s[fold[3]], s[fold[4]], s[fold[5]])
	if err != nil {
		return nil, err
	}

	y, err := conv.Forward(images)
	if err != nil {
		return nil, err
	}

	ys := y.Shape()
	unfolded, err := y.Reshape(b, o1, o2, ys[1], ys[2], ys[3])
	if err != nil {
		return nil, err
	}
	return unfolded.Permute(unfold[:]...)
}

// reconcile aligns branch 1 with branch 2 before summation.
//
// Matching shapes pass through. If the key extents differ and the key padding
// is zero, branch 1 is sum-pooled over its key axes and branch 2 must have
// singleton key axes. Any other difference is a ShapeMismatchError.
func (c *Conv4D[T]) reconcile(out1, out2 *tensor.Tensor[T]) (*tensor.Tensor[T], error) {
	s1, s2 := out1.Shape(), out2.Shape()

	if !s1[4:].Equal(s2[4:]) {
		if c.params.Key.Padding != [2]int{0, 0} {
			return nil, &tensor.ShapeError{Op: "conv4d", Expected: s1, Actual: s2, Detail: "key extents differ between branches under nonzero key padding"}
		}
		if s2[4] != 1 || s2[5] != 1 {
			return nil, &tensor.ShapeError{Op: "conv4d", Expected: tensor.Shape{s2[0], s2[1], s2[2], s2[3], 1, 1}, Actual: s2, Detail: "zero-padding fallback needs singleton key axes in the key branch"}
		}

		c.warnOnce.Do(func() {
			c.logger.Warn("conv4d: zero-padding shape reconciliation triggered, review this configuration",
				"in_channels", c.inChannels,
				"out_channels", c.outChannels,
				"query_window", c.params.Query,
				"key_window", c.params.Key,
				"query_branch", s1.Clone(),
				"key_branch", s2.Clone(),
			)
		})

		var err error
		if out1, err = out1.SumAxes(4, true); err != nil {
			return nil, err
		}
		s1 = out1.Shape()
	}

	if !s1[:4].Equal(s2[:4]) {
		return nil, &tensor.ShapeError{Op: "conv4d", Expected: s1, Actual: s2, Detail: "query extents differ between branches"}
	}
	return out1, nil
}

// OutputShape infers the output shape for an input shape without running the
// convolution, applying the same reconciliation rules as Forward.
func (c *Conv4D[T]) OutputShape(in tensor.Shape) (tensor.Shape, error) {
	if len(in) != 6 {
		return nil, fmt.Errorf("conv4d: expected rank-6 shape, got %v", in)
	}
	if in[1] != c.inChannels {
		want := in.Clone()
		want[1] = c.inChannels
		return nil, &tensor.ShapeError{Op: "conv4d", Expected: want, Actual: in, Detail: "input channels"}
	}

	qh, qw, kh, kw := in[2], in[3], in[4], in[5]
	q := c.params.Query
	k := c.params.Key
	if qh+2*q.Padding[0] < q.Kernel[0] || qw+2*q.Padding[1] < q.Kernel[1] ||
		kh+2*k.Padding[0] < k.Kernel[0] || kw+2*k.Padding[1] < k.Kernel[1] {
		return nil, fmt.Errorf("conv4d: kernels %v/%v do not fit spatial extents %v", q.Kernel, k.Kernel, in[2:])
	}

	// Branch 1: query convolved, key pruned by the key stride.
	q1 := q.OutputSize(qh, qw)
	k1 := [2]int{len(Indices(k.Stride[0], kh)), len(Indices(k.Stride[1], kw))}
	if !k.Strided() {
		k1 = [2]int{kh, kw}
	}
	// Branch 2: query pruned by the query stride, key convolved.
	q2 := [2]int{len(Indices(q.Stride[0], qh)), len(Indices(q.Stride[1], qw))}
	if !q.Strided() {
		q2 = [2]int{qh, qw}
	}
	k2 := k.OutputSize(kh, kw)

	s1 := tensor.Shape{in[0], c.outChannels, q1[0], q1[1], k1[0], k1[1]}
	s2 := tensor.Shape{in[0], c.outChannels, q2[0], q2[1], k2[0], k2[1]}
	if k1 != k2 {
		if k.Padding != [2]int{0, 0} {
			return nil, &tensor.ShapeError{Op: "conv4d", Expected: s1, Actual: s2, Detail: "key extents differ between branches under nonzero key padding"}
		}
		if k2 != [2]int{1, 1} {
			return nil, &tensor.ShapeError{Op: "conv4d", Expected: tensor.Shape{s2[0], s2[1], s2[2], s2[3], 1, 1}, Actual: s2, Detail: "zero-padding fallback needs singleton key axes in the key branch"}
		}
		s1[4], s1[5] = 1, 1
	}
	if q1 != q2 {
		return nil, &tensor.ShapeError{Op: "conv4d", Expected: s1, Actual: s2, Detail: "query extents differ between branches"}
	}
	return s2, nil
}

// Parameters returns the parameters of both branch convolutions.
func (c *Conv4D[T]) Parameters() []*nn.Parameter[T] {
	return append(c.conv1.Parameters(), c.conv2.Parameters()...)
}

// InChannels returns the number of input channels.
func (c *Conv4D[T]) InChannels() int {
	return c.inChannels
}

// OutChannels returns the number of output channels.
func (c *Conv4D[T]) OutChannels() int {
	return c.outChannels
}

// Params returns the query and key windows.
func (c *Conv4D[T]) Params() Params {
	return c.params
}

// QueryConv returns the 2D convolution applied over the query axes.
func (c *Conv4D[T]) QueryConv() *nn.Conv2D[T] {
	return c.conv1
}

// KeyConv returns the 2D convolution applied over the key axes.
func (c *Conv4D[T]) KeyConv() *nn.Conv2D[T] {
	return c.conv2
}

// String returns a string representation of the layer.
func (c *Conv4D[T]) String() string {
	return fmt.Sprintf("Conv4D(in_channels=%d, out_channels=%d, query=%+v, key=%+v)",
		c.inChannels, c.outChannels, c.params.Query, c.params.Key)
}
