package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/hypercorr/internal/tensor"
)

// InitKind selects an initialization rule.
type InitKind int

// Initialization rules. Each layer declares the rule for each of its
// parameters at construction; nothing is inferred from layer types.
const (
	// InitZeros fills with 0.
	InitZeros InitKind = iota
	// InitConstant fills with Init.Value.
	InitConstant
	// InitNormal draws from N(0, Init.Std).
	InitNormal
	// InitUniform draws from U(-Init.Bound, Init.Bound).
	InitUniform
	// InitKaimingNormalFanOut draws from N(0, sqrt(2 / fan_out)).
	InitKaimingNormalFanOut
	// InitLeCunUniform draws from U(-1/sqrt(fan_in), 1/sqrt(fan_in)).
	InitLeCunUniform
	// InitXavierUniform draws from U(-sqrt(6/(fan_in+fan_out)), sqrt(6/(fan_in+fan_out))).
	InitXavierUniform
)

// String returns the rule name.
func (k InitKind) String() string {
	switch k {
	case InitZeros:
		return "zeros"
	case InitConstant:
		return "constant"
	case InitNormal:
		return "normal"
	case InitUniform:
		return "uniform"
	case InitKaimingNormalFanOut:
		return "kaiming_normal_fan_out"
	case InitLeCunUniform:
		return "lecun_uniform"
	case InitXavierUniform:
		return "xavier_uniform"
	default:
		return fmt.Sprintf("InitKind(%d)", int(k))
	}
}

// Init is a tagged initialization policy.
type Init struct {
	Kind  InitKind
	Value float64 // InitConstant
	Std   float64 // InitNormal
	Bound float64 // InitUniform
}

// Zeros returns the all-zero policy.
func Zeros() Init { return Init{Kind: InitZeros} }

// Constant returns a constant-fill policy.
func Constant(v float64) Init { return Init{Kind: InitConstant, Value: v} }

// Normal returns a N(0, std) policy.
func Normal(std float64) Init { return Init{Kind: InitNormal, Std: std} }

// Uniform returns a U(-bound, bound) policy.
func Uniform(bound float64) Init { return Init{Kind: InitUniform, Bound: bound} }

// KaimingNormalFanOut returns the variance-scaled normal policy used for
// rectified-linear networks.
func KaimingNormalFanOut() Init { return Init{Kind: InitKaimingNormalFanOut} }

// LeCunUniform returns the fan-in scaled uniform policy.
func LeCunUniform() Init { return Init{Kind: InitLeCunUniform} }

// XavierUniform returns the Glorot uniform policy.
func XavierUniform() Init { return Init{Kind: InitXavierUniform} }

// Fan holds the fan-in and fan-out a layer reports for its weight tensor.
type Fan struct {
	In, Out int
}

// Validate checks that the policy can be applied with the given fans.
func (i Init) Validate(fan Fan) error {
	switch i.Kind {
	case InitZeros, InitConstant:
		return nil
	case InitNormal:
		if i.Std < 0 {
			return configErrorf("init", "std", "must be >= 0, got %g", i.Std)
		}
	case InitUniform:
		if i.Bound < 0 {
			return configErrorf("init", "bound", "must be >= 0, got %g", i.Bound)
		}
	case InitKaimingNormalFanOut:
		if fan.Out <= 0 {
			return configErrorf("init", "fan_out", "must be > 0, got %d", fan.Out)
		}
	case InitLeCunUniform:
		if fan.In <= 0 {
			return configErrorf("init", "fan_in", "must be > 0, got %d", fan.In)
		}
	case InitXavierUniform:
		if fan.In+fan.Out <= 0 {
			return configErrorf("init", "fan", "fan_in + fan_out must be > 0")
		}
	default:
		return configErrorf("init", "kind", "unknown rule %v", i.Kind)
	}
	return nil
}

// Initialize creates a tensor of the given shape filled according to policy.
// rng may be nil, in which case the math/rand global source is used.
func Initialize[T tensor.Float](policy Init, shape tensor.Shape, fan Fan, device tensor.Device, rng *rand.Rand) (*tensor.Tensor[T], error) {
	if err := policy.Validate(fan); err != nil {
		return nil, err
	}
	t, err := tensor.New[T](shape, device)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // Using math/rand for weight initialization (not security-critical)
	normal, uniform := rand.NormFloat64, rand.Float64
	if rng != nil {
		normal = rng.NormFloat64
		uniform = rng.Float64
	}

	data := t.Data()
	switch policy.Kind {
	case InitZeros:
	case InitConstant:
		for i := range data {
			data[i] = T(policy.Value)
		}
	case InitNormal:
		fillNormal(data, policy.Std, normal)
	case InitKaimingNormalFanOut:
		fillNormal(data, math.Sqrt(2/float64(fan.Out)), normal)
	case InitUniform:
		fillUniform(data, policy.Bound, uniform)
	case InitLeCunUniform:
		fillUniform(data, 1/math.Sqrt(float64(fan.In)), uniform)
	case InitXavierUniform:
		fillUniform(data, math.Sqrt(6/float64(fan.In+fan.Out)), uniform)
	}
	return t, nil
}

func fillNormal[T tensor.Float](data []T, std float64, normal func() float64) {
	for i := range data {
		data[i] = T(normal() * std)
	}
}

func fillUniform[T tensor.Float](data []T, bound float64, uniform func() float64) {
	for i := range data {
		data[i] = T((uniform()*2 - 1) * bound)
	}
}
