package tensor

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices. Only CPU has kernels; the rest exist so that a
// configuration naming them can be rejected explicitly.
const (
	CPU Device = iota
	CUDA
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// ParseDevice maps a device name to its Device.
func ParseDevice(name string) (Device, bool) {
	switch name {
	case "cpu", "CPU":
		return CPU, true
	case "cuda", "CUDA":
		return CUDA, true
	case "webgpu", "WebGPU":
		return WebGPU, true
	default:
		return 0, false
	}
}
