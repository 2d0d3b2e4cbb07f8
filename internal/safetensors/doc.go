// Package safetensors reads and writes the SafeTensors file format.
//
// SafeTensors layout:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw little-endian bytes]
//
// The header maps tensor names to {dtype, shape, data_offsets}, plus an
// optional "__metadata__" string map. Only F32 and F64 tensors are decoded;
// both load into either precision.
package safetensors
