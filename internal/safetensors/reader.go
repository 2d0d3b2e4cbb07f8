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

const metadataKey = "__metadata__"

// DType is a SafeTensors element type name.
type DType string

// Element types. Only F32 and F64 can be decoded.
const (
	F16  DType = "F16"
	BF16 DType = "BF16"
	F32  DType = "F32"
	F64  DType = "F64"
	I32  DType = "I32"
	I64  DType = "I64"
)

func (d DType) size() (int, error) {
	switch d {
	case F32:
		return 4, nil
	case F64:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDType, d)
	}
}

// TensorInfo describes one tensor entry in the header.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// Reader reads tensors from a SafeTensors source.
type Reader struct {
	src        io.ReaderAt
	closer     io.Closer
	tensors    map[string]TensorInfo
	metadata   map[string]string
	dataOffset int64
}

// Open opens a SafeTensors file.
func Open(path string) (*Reader, error) {
	//nolint:gosec // G304: weight files are chosen by the caller.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	r, err := newReader(file, stat.Size())
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = file
	return r, nil
}

// NewReader parses the header from src. Tensor data is read lazily.
//
// When src reports its length through a Size() int64 method (bytes.Reader,
// io.SectionReader), tensor regions past the end are rejected up front.
func NewReader(src io.ReaderAt) (*Reader, error) {
	size := int64(-1)
	if s, ok := src.(interface{ Size() int64 }); ok {
		size = s.Size()
	}
	return newReader(src, size)
}

// newReader parses the header; size < 0 means the source length is unknown.
func newReader(src io.ReaderAt, size int64) (*Reader, error) {
	var sizeBuf [8]byte
	if _, err := src.ReadAt(sizeBuf[:], 0); err != nil {
		return nil, fmt.Errorf("%w: failed to read header size: %v", ErrInvalidHeader, err)
	}
	headerSize := binary.LittleEndian.Uint64(sizeBuf[:])
	if headerSize == 0 || headerSize > maxHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidHeader, headerSize)
	}
	if size >= 0 && int64(8+headerSize) > size { //nolint:gosec // G115: bounded by maxHeaderSize.
		return nil, fmt.Errorf("%w: header size %d exceeds file size %d", ErrInvalidHeader, headerSize, size)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := src.ReadAt(headerBytes, 8); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrInvalidHeader, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	r := &Reader{
		src:        src,
		tensors:    make(map[string]TensorInfo, len(raw)),
		dataOffset: int64(8 + headerSize), //nolint:gosec // G115: bounded by maxHeaderSize.
	}
	for name, value := range raw {
		if name == metadataKey {
			if err := json.Unmarshal(value, &r.metadata); err != nil {
				return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidHeader, err)
			}
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, fmt.Errorf("%w: tensor %s: %v", ErrInvalidHeader, name, err)
		}
		r.tensors[name] = info
	}
	dataLen := int64(-1)
	if size >= 0 {
		dataLen = size - r.dataOffset
	}
	if err := validateTensors(r.tensors, dataLen); err != nil {
		return nil, err
	}
	return r, nil
}

// Close closes the underlying file when the reader was created by Open.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Metadata returns the "__metadata__" map, or nil.
func (r *Reader) Metadata() map[string]string {
	return r.metadata
}

// Names returns the tensor names in sorted order.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.tensors))
	for name := range r.tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info returns the header entry for name.
func (r *Reader) Info(name string) (TensorInfo, error) {
	info, ok := r.tensors[name]
	if !ok {
		return TensorInfo{}, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return info, nil
}

// Load decodes the named tensor into precision T.
func Load[T tensor.Float](r *Reader, name string, device tensor.Device) (*tensor.Tensor[T], error) {
	info, err := r.Info(name)
	if err != nil {
		return nil, err
	}
	elemSize, err := info.DType.size()
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	shape := tensor.Shape(info.Shape)
	if len(shape) == 0 {
		shape = tensor.Shape{1}
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", name, err)
	}
	span := info.DataOffsets[1] - info.DataOffsets[0]
	n, ok := elementsWithin(shape, span/int64(elemSize))
	if !ok || int64(n*elemSize) != span {
		return nil, fmt.Errorf("%w: tensor %s spans %d bytes, does not match shape %v of %s",
			ErrInvalidHeader, name, span, shape, info.DType)
	}

	buf := make([]byte, span)
	if _, err := r.src.ReadAt(buf, r.dataOffset+info.DataOffsets[0]); err != nil {
		return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
	}

	data := make([]T, n)
	switch info.DType {
	case F32:
		for i := range data {
			data[i] = T(math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])))
		}
	case F64:
		for i := range data {
			data[i] = T(math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:])))
		}
	}
	return tensor.FromSlice(data, shape, device)
}

// elementsWithin multiplies out shape, giving up as soon as the count passes
// limit so an oversized header shape cannot overflow.
func elementsWithin(shape tensor.Shape, limit int64) (int, bool) {
	n := int64(1)
	for _, d := range shape {
		if n > limit/int64(d) {
			return 0, false
		}
		n *= int64(d)
	}
	return int(n), true
}

// LoadAll decodes every tensor in the file.
func LoadAll[T tensor.Float](r *Reader, device tensor.Device) (map[string]*tensor.Tensor[T], error) {
	out := make(map[string]*tensor.Tensor[T], len(r.tensors))
	for _, name := range r.Names() {
		t, err := Load[T](r, name, device)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}
