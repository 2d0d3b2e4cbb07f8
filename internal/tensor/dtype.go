// Package tensor provides the dense tensor type used by the correlation encoder.
package tensor

import "unsafe"

// Float is a constraint for supported tensor element types.
// Precision is chosen at construction time through this type parameter.
type Float interface {
	~float32 | ~float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseDataType maps a name such as "float32" to its DataType.
func ParseDataType(name string) (DataType, bool) {
	switch name {
	case "float32", "f32":
		return Float32, true
	case "float64", "f64":
		return Float64, true
	default:
		return 0, false
	}
}

// DataTypeOf returns the DataType matching the type parameter T.
func DataTypeOf[T Float]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	}
	// Named float types fall back on their size.
	if unsafe.Sizeof(dummy) == 4 {
		return Float32
	}
	return Float64
}
