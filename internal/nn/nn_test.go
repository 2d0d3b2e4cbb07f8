package nn

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/hypercorr/internal/backend/cpu"
	"github.com/born-ml/hypercorr/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConv(t *testing.T, in, out, k int) *Conv2D[float64] {
	t.Helper()
	conv, err := NewConv2D[float64](Conv2DConfig{
		InChannels:  in,
		OutChannels: out,
		Kernel:      [2]int{k, k},
		Stride:      [2]int{1, 1},
		Padding:     [2]int{k / 2, k / 2},
		Bias:        true,
		WeightInit:  KaimingNormalFanOut(),
		BiasInit:    Zeros(),
	}, cpu.New(), rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	return conv
}

func TestInitialize_KaimingFanOutStd(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fan := Fan{In: 9 * 64, Out: 9 * 64}

	w, err := Initialize[float64](KaimingNormalFanOut(), tensor.Shape{64, 64, 3, 3}, fan, tensor.CPU, rng)
	require.NoError(t, err)

	var sum, sq float64
	for _, v := range w.Data() {
		sum += v
		sq += v * v
	}
	n := float64(w.NumElements())
	mean := sum / n
	std := math.Sqrt(sq/n - mean*mean)

	assert.InDelta(t, 0, mean, 0.005)
	assert.InDelta(t, math.Sqrt(2.0/float64(fan.Out)), std, 0.003)
}

func TestInitialize_Policies(t *testing.T) {
	c, err := Initialize[float32](Constant(1), tensor.Shape{4}, Fan{}, tensor.CPU, nil)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1, 1}, c.Data())

	u, err := Initialize[float32](LeCunUniform(), tensor.Shape{1000}, Fan{In: 16}, tensor.CPU, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	for _, v := range u.Data() {
		require.LessOrEqual(t, math.Abs(float64(v)), 0.25)
	}

	_, err = Initialize[float32](KaimingNormalFanOut(), tensor.Shape{4}, Fan{}, tensor.CPU, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = Initialize[float32](Init{Kind: InitKind(99)}, tensor.Shape{4}, Fan{}, tensor.CPU, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.Equal(t, "kaiming_normal_fan_out", InitKaimingNormalFanOut.String())
}

func TestInitialize_Reproducible(t *testing.T) {
	a, err := Initialize[float32](Normal(0.5), tensor.Shape{16}, Fan{}, tensor.CPU, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := Initialize[float32](Normal(0.5), tensor.Shape{16}, Fan{}, tensor.CPU, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a.Data(), b.Data())
}

func TestConv2D_CreationAndForward(t *testing.T) {
	conv := newConv(t, 3, 6, 3)

	assert.Equal(t, tensor.Shape{6, 3, 3, 3}, conv.Weight().Tensor().Shape())
	assert.Equal(t, make([]float64, 6), conv.Bias().Tensor().Data())
	assert.Len(t, conv.Parameters(), 2)
	assert.Equal(t, [2]int{8, 8}, conv.OutputSize(8, 8))

	out, err := conv.Forward(tensor.Zeros[float64](tensor.Shape{2, 3, 8, 8}, tensor.CPU))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 6, 8, 8}, out.Shape())

	_, err = conv.Forward(tensor.Zeros[float64](tensor.Shape{2, 4, 8, 8}, tensor.CPU))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestConv2D_InvalidConfig(t *testing.T) {
	_, err := NewConv2D[float32](Conv2DConfig{InChannels: 1, OutChannels: 1, Kernel: [2]int{3, 3}}, cpu.New(), nil)
	require.Error(t, err)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "stride", ce.Field)
}

func TestLinear_Forward(t *testing.T) {
	lin, err := NewLinear[float32](3, 2, Zeros(), Constant(0.5), cpu.New(), nil)
	require.NoError(t, err)

	x := tensor.Full[float32](tensor.Shape{4, 3}, 1, tensor.CPU)
	y, err := lin.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 2}, y.Shape())
	for _, v := range y.Data() {
		assert.Equal(t, float32(0.5), v)
	}

	_, err = NewLinear[float32](0, 2, Zeros(), Zeros(), cpu.New(), nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestGroupNorm_Layer(t *testing.T) {
	backend := cpu.New()

	_, err := NewGroupNorm[float32](4, 6, backend)
	assert.ErrorIs(t, err, ErrConfiguration)

	gn, err := NewGroupNorm[float32](4, 16, backend)
	require.NoError(t, err)

	_, err = gn.Forward(tensor.Zeros[float32](tensor.Shape{1, 8, 2, 2}, tensor.CPU))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	out, err := gn.Forward(tensor.Full[float32](tensor.Shape{1, 16, 2, 2, 2, 2}, 3, tensor.CPU))
	require.NoError(t, err)
	for _, v := range out.Data() {
		assert.InDelta(t, 0, v, 1e-6)
	}
}

func TestSequential_NamesAndStateDict(t *testing.T) {
	backend := cpu.New()
	conv := newConv(t, 1, 4, 3)
	gn, err := NewGroupNorm[float64](2, 4, backend)
	require.NoError(t, err)

	seq := NewSequential[float64](conv, gn, NewReLU[float64](backend))
	Prefix("block1", seq)

	names := make([]string, 0)
	for _, p := range seq.Parameters() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"block1.0.weight", "block1.0.bias", "block1.1.weight", "block1.1.bias"}, names)
	assert.Equal(t, 3, seq.Len())

	state := StateDict[float64](seq)
	require.Len(t, state, 4)

	// Load a modified bias and check it is used.
	newBias := tensor.Full[float64](tensor.Shape{4}, 2, tensor.CPU)
	state["block1.0.bias"] = newBias
	require.NoError(t, LoadStateDict[float64](seq, state))
	assert.Equal(t, []float64{2, 2, 2, 2}, conv.Bias().Tensor().Data())

	// Loading copies: later edits to the source do not leak in.
	newBias.Data()[0] = 9
	assert.Equal(t, 2.0, conv.Bias().Tensor().Data()[0])

	delete(state, "block1.1.weight")
	assert.ErrorIs(t, LoadStateDict[float64](seq, state), ErrConfiguration)

	state["block1.1.weight"] = tensor.Zeros[float64](tensor.Shape{5}, tensor.CPU)
	assert.ErrorIs(t, LoadStateDict[float64](seq, state), tensor.ErrShapeMismatch)

	// A failed load leaves every parameter as it was, including ones listed
	// before the bad entry.
	assert.Equal(t, []float64{2, 2, 2, 2}, conv.Bias().Tensor().Data())
}

func TestSequential_ForwardErrorCarriesIndex(t *testing.T) {
	backend := cpu.New()
	gn, err := NewGroupNorm[float64](1, 2, backend)
	require.NoError(t, err)
	seq := NewSequential[float64](NewReLU[float64](backend), gn)

	_, err = seq.Forward(tensor.Zeros[float64](tensor.Shape{1, 3, 2}, tensor.CPU))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module 1")
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}
