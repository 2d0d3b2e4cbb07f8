package safetensors

import "errors"

// Common errors.
var (
	ErrInvalidHeader    = errors.New("invalid safetensors header")
	ErrTensorNotFound   = errors.New("tensor not found")
	ErrUnsupportedDType = errors.New("unsupported dtype")
	ErrChecksumMismatch = errors.New("checksum mismatch: file may be corrupted")
)
