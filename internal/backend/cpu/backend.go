// Package cpu implements the CPU compute kernels used by the nn layers.
package cpu

import (
	"fmt"

	"github.com/born-ml/hypercorr/internal/parallel"
	"github.com/born-ml/hypercorr/internal/tensor"
)

// CPUBackend runs tensor kernels on the host, fanning independent images out
// over goroutines according to its parallel.Config.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) (*CPUBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: cfg,
	}, nil
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Parallel returns the backend's parallel configuration.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.parallel
}

func (cpu *CPUBackend) checkDevice(op string, t interface{ Device() tensor.Device }) error {
	if t.Device() != cpu.device {
		return fmt.Errorf("%s: tensor on %s, backend runs on %s", op, t.Device(), cpu.device)
	}
	return nil
}
