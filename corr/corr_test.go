// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package corr_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/born-ml/hypercorr/corr"
	"github.com/born-ml/hypercorr/nn"
	"github.com/born-ml/hypercorr/tensor"
)

// TestEncoderPublicAPI runs the default encoder end to end.
func TestEncoderPublicAPI(t *testing.T) {
	cfg := corr.DefaultConfig()
	cfg.Rand = rand.New(rand.NewSource(1))
	cfg.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	prior, err := corr.NewDistancePrior(tensor.Full[float32](tensor.Shape{5, 5}, 1, tensor.CPU), 5, 5)
	if err != nil {
		t.Fatalf("NewDistancePrior failed: %v", err)
	}
	enc, err := corr.NewEncoder(cfg, prior)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	volume := tensor.Full[float32](tensor.Shape{4, 9, 5, 5, 5, 5}, 0.25, tensor.CPU)
	logits, err := enc.Score(volume, true)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if !logits.Shape().Equal(tensor.Shape{4}) {
		t.Errorf("logits shape = %v, want [4]", logits.Shape())
	}
}

// TestConfigErrorsArePublic verifies errors match the public sentinels.
func TestConfigErrorsArePublic(t *testing.T) {
	cfg := corr.DefaultConfig()
	cfg.Blocks[1].InChannels = 8
	if _, err := corr.NewEncoder[float64](cfg, nil); !errors.Is(err, nn.ErrConfiguration) {
		t.Errorf("NewEncoder error = %v, want ErrConfiguration", err)
	}
}
