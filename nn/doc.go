// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network layers the correlation encoder is
// assembled from.
//
// # Overview
//
// This package contains:
//   - Layers: Conv2D, Linear, GroupNorm
//   - Activations: ReLU
//   - Utilities: Sequential, Module interface, Parameter, state dicts
//   - Initialization: Init policies (Zeros, Normal, KaimingNormalFanOut, LeCunUniform, ...)
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/hypercorr/backend/cpu"
//	    "github.com/born-ml/hypercorr/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    hidden, _ := nn.NewLinear[float32](128, 128, nn.LeCunUniform(), nn.LeCunUniform(), backend, nil)
//	    head, _ := nn.NewLinear[float32](128, 1, nn.LeCunUniform(), nn.LeCunUniform(), backend, nil)
//	    mlp := nn.NewSequential[float32](hidden, nn.NewReLU[float32](backend), head)
//	    _ = mlp
//	}
//
// # Parameter Names
//
// Parameters carry dotted names. Sequential prefixes each child's parameters
// with its index, so the classifier above exposes "0.weight", "0.bias",
// "2.weight" and "2.bias". StateDict and LoadStateDict use these names.
//
// # Errors
//
// Construction problems are *ConfigError values matching ErrConfiguration.
// Shape problems at run time match tensor.ErrShapeMismatch.
package nn
