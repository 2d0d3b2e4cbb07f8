package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrBroadcast     = errors.New("shapes not compatible for broadcasting")
	ErrInvalidAxis   = errors.New("invalid axis")
)

// ShapeError reports two shapes that were required to agree.
type ShapeError struct {
	Op       string // Operation that detected the mismatch
	Expected Shape
	Actual   Shape
	Detail   string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("%s: %v: expected %v, got %v", e.Op, ErrShapeMismatch, e.Expected, e.Actual)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unwrap lets errors.Is match ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// BroadcastError reports the first dimension at which two shapes conflict.
type BroadcastError struct {
	A, B Shape
	Dim  int // Dimension index in the broadcast result
}

// Error implements the error interface.
func (e *BroadcastError) Error() string {
	return fmt.Sprintf("%v: %v vs %v (dimension %d)", ErrBroadcast, e.A, e.B, e.Dim)
}

// Unwrap lets errors.Is match ErrBroadcast.
func (e *BroadcastError) Unwrap() error {
	return ErrBroadcast
}

func axisError(op string, axis, rank int) error {
	return fmt.Errorf("%s: %w %d for rank-%d tensor", op, ErrInvalidAxis, axis, rank)
}
