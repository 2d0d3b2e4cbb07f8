// Package main provides the corrscore CLI.
//
// corrscore builds the correlation encoder, optionally loads a distance prior
// and pretrained weights from SafeTensors files, and scores a random
// hypercorrelation volume.
//
// Usage:
//
//	go run ./cmd/corrscore -batch 2 -size 11 -precision float32
//	go run ./cmd/corrscore -prior dist.safetensors -weights encoder.safetensors -reweight
//	go run ./cmd/corrscore version
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/born-ml/hypercorr/backend/cpu"
	"github.com/born-ml/hypercorr/corr"
	"github.com/born-ml/hypercorr/tensor"
)

const version = "v0.1.0-dev"

type options struct {
	batch      int
	channels   int
	size       int
	prior      string
	weights    string
	save       string
	reweight   bool
	seed       int64
	workers    int
	iterations int
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("corrscore %s\n", version)
		return
	}

	var opts options
	flag.IntVar(&opts.batch, "batch", 2, "Batch size")
	flag.IntVar(&opts.channels, "channels", 9, "Input channels of the volume")
	flag.IntVar(&opts.size, "size", 11, "Extent of each of the four spatial axes")
	precision := flag.String("precision", "float32", "Element type: float32 or float64")
	flag.StringVar(&opts.prior, "prior", "", "SafeTensors file holding the distance prior")
	flag.StringVar(&opts.weights, "weights", "", "SafeTensors file holding pretrained encoder weights")
	flag.StringVar(&opts.save, "save", "", "Write the encoder weights to this SafeTensors file")
	flag.BoolVar(&opts.reweight, "reweight", false, "Multiply the volume by the distance prior before encoding")
	flag.Int64Var(&opts.seed, "seed", 1, "Seed for parameter initialization and the random volume")
	flag.IntVar(&opts.workers, "workers", 0, "Worker goroutines for CPU kernels (0 = all cores)")
	flag.IntVar(&opts.iterations, "iterations", 1, "Number of timed Score calls")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dtype, ok := tensor.ParseDataType(*precision)
	if !ok {
		log.Fatalf("unknown precision %q (want float32 or float64)", *precision)
	}

	var err error
	switch dtype {
	case tensor.Float64:
		err = run[float64](opts, logger)
	default:
		err = run[float32](opts, logger)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run[T tensor.Float](opts options, logger *slog.Logger) error {
	if opts.batch <= 0 || opts.channels <= 0 || opts.size <= 0 || opts.iterations <= 0 {
		return fmt.Errorf("batch, channels, size and iterations must be positive")
	}

	cfg := corr.DefaultConfig()
	cfg.Blocks[0].InChannels = opts.channels
	cfg.Logger = logger
	cfg.Rand = rand.New(rand.NewSource(opts.seed)) //nolint:gosec // G404: deterministic initialization, not security.
	if opts.workers > 0 {
		cfg.Parallel = cpu.DefaultParallelConfig().WithWorkers(opts.workers)
	}

	var prior *corr.DistancePrior[T]
	if opts.prior != "" {
		var err error
		if prior, err = corr.LoadPrior[T](opts.prior, opts.size, opts.size); err != nil {
			return err
		}
		logger.Info("loaded distance prior", "path", opts.prior, "shape", prior.Shape())
	}

	enc, err := corr.NewEncoder(cfg, prior)
	if err != nil {
		return err
	}
	if opts.weights != "" {
		if err := enc.LoadWeights(opts.weights); err != nil {
			return err
		}
	}

	shape := tensor.Shape{opts.batch, opts.channels, opts.size, opts.size, opts.size, opts.size}
	blockShapes, err := enc.OutputShapes(shape)
	if err != nil {
		return err
	}
	for i, s := range blockShapes {
		logger.Debug("block output", "block", i+1, "shape", s)
	}

	volume := randomVolume[T](shape, opts.seed+1)

	var logits *tensor.Tensor[T]
	var total time.Duration
	for i := 0; i < opts.iterations; i++ {
		start := time.Now()
		if logits, err = enc.Score(volume, opts.reweight); err != nil {
			return err
		}
		total += time.Since(start)
	}

	fmt.Printf("Volume: %v (%s), reweight=%v\n", shape, tensor.DataTypeOf[T](), opts.reweight)
	fmt.Printf("Score: avg=%.2fms over %d iteration(s)\n",
		float64(total.Microseconds())/1000/float64(opts.iterations), opts.iterations)
	for i, v := range logits.Data() {
		fmt.Printf("  logit[%d] = %.6f\n", i, float64(v))
	}

	if opts.save != "" {
		if err := enc.SaveWeights(opts.save); err != nil {
			return err
		}
		logger.Info("saved encoder weights", "path", opts.save, "parameters", len(enc.Parameters()))
	}
	return nil
}

func randomVolume[T tensor.Float](shape tensor.Shape, seed int64) *tensor.Tensor[T] {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // G404: synthetic input.
	v := tensor.Zeros[T](shape, tensor.CPU)
	data := v.Data()
	for i := range data {
		data[i] = T(rng.Float64())
	}
	return v
}
