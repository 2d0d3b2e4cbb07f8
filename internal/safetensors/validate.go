package safetensors

import (
	"fmt"
	"sort"
	"strings"
)

// Limits applied to every header.
const (
	maxHeaderSize  = 100 * 1024 * 1024
	maxTensorCount = 100_000
	maxNameLen     = 4096
)

// ValidationError describes a structurally invalid header.
type ValidationError struct {
	Kind    string // e.g. "offset_overlap", "invalid_name"
	Tensor  string
	Tensor2 string // second tensor of an overlap
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Tensor2 != "":
		return fmt.Sprintf("%v: %s: tensors %q and %q: %s", ErrInvalidHeader, e.Kind, e.Tensor, e.Tensor2, e.Details)
	case e.Tensor != "":
		return fmt.Sprintf("%v: %s: tensor %q: %s", ErrInvalidHeader, e.Kind, e.Tensor, e.Details)
	default:
		return fmt.Sprintf("%v: %s: %s", ErrInvalidHeader, e.Kind, e.Details)
	}
}

// Unwrap lets errors.Is match ErrInvalidHeader.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidHeader
}

func validateName(name string) error {
	if name == "" || len(name) > maxNameLen {
		return &ValidationError{Kind: "invalid_name", Tensor: name, Details: fmt.Sprintf("length %d outside [1, %d]", len(name), maxNameLen)}
	}
	if strings.ContainsRune(name, 0) {
		return &ValidationError{Kind: "invalid_name", Tensor: name, Details: "contains null byte"}
	}
	return nil
}

// validateTensors checks names, offsets and overlap between data regions.
// dataLen is the length of the data section, or negative when unknown.
func validateTensors(tensors map[string]TensorInfo, dataLen int64) error {
	if len(tensors) > maxTensorCount {
		return &ValidationError{Kind: "too_many_tensors", Details: fmt.Sprintf("got %d, max %d", len(tensors), maxTensorCount)}
	}

	names := make([]string, 0, len(tensors))
	for name, info := range tensors {
		if err := validateName(name); err != nil {
			return err
		}
		if info.DataOffsets[0] < 0 || info.DataOffsets[1] < info.DataOffsets[0] {
			return &ValidationError{Kind: "invalid_offsets", Tensor: name, Details: fmt.Sprintf("data offsets %v", info.DataOffsets)}
		}
		if dataLen >= 0 && info.DataOffsets[1] > dataLen {
			return &ValidationError{Kind: "offset_out_of_bounds", Tensor: name, Details: fmt.Sprintf("data offsets %v past data section of %d bytes", info.DataOffsets, dataLen)}
		}
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		a, b := tensors[names[i]].DataOffsets, tensors[names[j]].DataOffsets
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return names[i] < names[j]
	})
	for i := 1; i < len(names); i++ {
		prev, cur := tensors[names[i-1]].DataOffsets, tensors[names[i]].DataOffsets
		if prev[1] > cur[0] {
			return &ValidationError{
				Kind:    "offset_overlap",
				Tensor:  names[i-1],
				Tensor2: names[i],
				Details: fmt.Sprintf("regions %v and %v overlap", prev, cur),
			}
		}
	}
	return nil
}

// dataSize is the end of the last tensor region.
func dataSize(tensors map[string]TensorInfo) int64 {
	var end int64
	for _, info := range tensors {
		end = max(end, info.DataOffsets[1])
	}
	return end
}
