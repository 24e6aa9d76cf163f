package tensor

import (
	"fmt"
	"math"
)

// DType is the runtime element type of a Tensor.
type DType int

const (
	Float32 DType = iota
	Int8
	Int32
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// Range returns the representable integer range of a narrow type.
func (d DType) Range() (lo, hi int32) {
	switch d {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Int32:
		return math.MinInt32, math.MaxInt32
	default:
		return 0, 0
	}
}

// QuantizeInfo maps narrow values q to real values (q - Zero) * Scale.
type QuantizeInfo struct {
	Scale float32
	Zero  int32
}

// Validate checks that scale is positive and finite and that the zero point
// fits the narrow type.
func (q QuantizeInfo) Validate(dt DType) error {
	if !(q.Scale > 0) || math.IsInf(float64(q.Scale), 0) {
		return fmt.Errorf("tensor: quantize scale must be positive and finite, got %g", q.Scale)
	}

	lo, hi := dt.Range()
	if q.Zero < lo || q.Zero > hi {
		return fmt.Errorf("tensor: zero point %d outside %s range [%d, %d]", q.Zero, dt, lo, hi)
	}

	return nil
}
