// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package corr provides the correlation learner: an encoder that turns a
// hypercorrelation volume into one matching logit per batch element.
//
// # Overview
//
// The encoder chains four blocks of center-pivot 4D convolutions, each
// followed by group normalization and ReLU, averages the result over the
// four spatial axes and applies a Linear -> ReLU -> Linear classifier.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/hypercorr/corr"
//	    "github.com/born-ml/hypercorr/tensor"
//	)
//
//	func main() {
//	    enc, err := corr.NewEncoder[float32](corr.DefaultConfig(), nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    volume := tensor.Zeros[float32](tensor.Shape{2, 9, 11, 11, 11, 11}, tensor.CPU)
//	    logits, err := enc.Score(volume, false) // shape (2,)
//	}
//
// # Distance Prior
//
// A DistancePrior multiplies the volume before encoding when Score is called
// with reweight set. It is usually loaded with LoadPrior and attached at
// construction.
//
// # Pretrained Weights
//
// Encoder.LoadWeights reads a SafeTensors file keyed by parameter name
// ("block1.0.conv1.weight", "mlp.2.bias", "dist").
package corr
