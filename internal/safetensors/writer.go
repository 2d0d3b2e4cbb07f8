package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/hypercorr/internal/tensor"
)

// Write encodes tensors to w in SafeTensors format. Tensors are laid out in
// alphabetical order by name, in the element type of T. The metadata gains a
// ChecksumKey entry with the SHA-256 of the data section.
func Write[T tensor.Float](w io.Writer, tensors map[string]*tensor.Tensor[T], metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if name == metadataKey {
			return fmt.Errorf("%w: reserved tensor name %q", ErrInvalidHeader, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	dtype := F32
	if tensor.DataTypeOf[T]() == tensor.Float64 {
		dtype = F64
	}

	header := make(map[string]any, len(names)+1)
	var offset int64
	for _, name := range names {
		t := tensors[name]
		size := int64(t.NumElements() * tensor.DataTypeOf[T]().Size())
		header[name] = TensorInfo{
			DType:       dtype,
			Shape:       t.Shape().Clone(),
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	payload := make([]byte, 0, offset)
	for _, name := range names {
		for _, v := range tensors[name].Data() {
			if dtype == F32 {
				payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(float32(v)))
			} else {
				payload = binary.LittleEndian.AppendUint64(payload, math.Float64bits(float64(v)))
			}
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[ChecksumKey] = checksum(payload)
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// WriteFile writes tensors to a new SafeTensors file at path.
func WriteFile[T tensor.Float](path string, tensors map[string]*tensor.Tensor[T], metadata map[string]string) (err error) {
	//nolint:gosec // G304: output path is chosen by the caller.
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(file, tensors, metadata)
}
