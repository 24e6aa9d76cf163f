package tensor

import (
	"errors"
	"fmt"
)

// Tensor is a dense, row-major tensor. Exactly one of the typed buffers is
// live, selected by dtype. Narrow (int8) tensors may carry QuantizeInfo.
type Tensor struct {
	shape []int64
	dtype DType
	f32   []float32
	i8    []int8
	i32   []int32
	quant *QuantizeInfo
}

// New creates a float32 tensor from data and shape.
func New(data []float32, shape []int64) (*Tensor, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	if len(data) != total {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)", len(data), shape, total)
	}

	s := append([]int64(nil), shape...)
	d := append([]float32(nil), data...)

	return &Tensor{shape: s, dtype: Float32, f32: d}, nil
}

// NewInt8 creates an int8 tensor. q may be nil.
func NewInt8(data []int8, shape []int64, q *QuantizeInfo) (*Tensor, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	if len(data) != total {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)", len(data), shape, total)
	}

	t := &Tensor{
		shape: append([]int64(nil), shape...),
		dtype: Int8,
		i8:    append([]int8(nil), data...),
	}
	if q != nil {
		if err := t.SetQuantizeInfo(*q); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// NewInt32 creates an int32 accumulator tensor.
func NewInt32(data []int32, shape []int64) (*Tensor, error) {
	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	if len(data) != total {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)", len(data), shape, total)
	}

	return &Tensor{
		shape: append([]int64(nil), shape...),
		dtype: Int32,
		i32:   append([]int32(nil), data...),
	}, nil
}

// Zeros creates a zero-initialized float32 tensor.
func Zeros(shape []int64) (*Tensor, error) {
	return ZerosOf(Float32, shape)
}

// ZerosOf creates a zero-initialized tensor of the given element type.
func ZerosOf(dt DType, shape []int64) (*Tensor, error) {
	t := &Tensor{dtype: dt}
	if err := t.Resize(shape); err != nil {
		return nil, err
	}

	return t, nil
}

// Empty creates an unsized tensor of the given element type. Kernels size it
// with Resize before writing.
func Empty(dt DType) *Tensor {
	t := &Tensor{dtype: dt, shape: []int64{0}}
	t.alloc(0)

	return t
}

// Resize sets a new shape and replaces the buffer with a zeroed one.
// Attached quantization metadata is kept.
func (t *Tensor) Resize(shape []int64) error {
	if t == nil {
		return errors.New("tensor: resize on nil tensor")
	}

	total, err := shapeElemCount(shape)
	if err != nil {
		return err
	}

	t.shape = append([]int64(nil), shape...)
	t.alloc(total)

	return nil
}

func (t *Tensor) alloc(n int) {
	t.f32, t.i8, t.i32 = nil, nil, nil

	switch t.dtype {
	case Float32:
		t.f32 = make([]float32, n)
	case Int8:
		t.i8 = make([]int8, n)
	case Int32:
		t.i32 = make([]int32, n)
	}
}

func (t *Tensor) Shape() []int64 {
	if t == nil {
		return nil
	}

	return append([]int64(nil), t.shape...)
}

// Dim returns the size of dimension dim. Negative dims count from the end.
func (t *Tensor) Dim(dim int) (int64, error) {
	if t == nil {
		return 0, errors.New("tensor: dim on nil tensor")
	}

	d, err := normalizeDim(dim, len(t.shape))
	if err != nil {
		return 0, fmt.Errorf("tensor: %w", err)
	}

	return t.shape[d], nil
}

func (t *Tensor) DType() DType {
	if t == nil {
		return Float32
	}

	return t.dtype
}

// Data returns a copy of the float32 data. Nil for non-float tensors.
func (t *Tensor) Data() []float32 {
	if t == nil {
		return nil
	}

	return append([]float32(nil), t.f32...)
}

// RawData returns the underlying float32 slice.
// Callers must treat it as read-only.
func (t *Tensor) RawData() []float32 {
	if t == nil {
		return nil
	}

	return t.f32
}

// Int8Data returns the underlying int8 slice.
func (t *Tensor) Int8Data() []int8 {
	if t == nil {
		return nil
	}

	return t.i8
}

// Int32Data returns the underlying int32 slice.
func (t *Tensor) Int32Data() []int32 {
	if t == nil {
		return nil
	}

	return t.i32
}

func (t *Tensor) ElemCount() int {
	if t == nil {
		return 0
	}

	switch t.dtype {
	case Int8:
		return len(t.i8)
	case Int32:
		return len(t.i32)
	default:
		return len(t.f32)
	}
}

func (t *Tensor) Rank() int {
	if t == nil {
		return 0
	}

	return len(t.shape)
}

// QuantizeInfo returns the attached quantization metadata, if any.
func (t *Tensor) QuantizeInfo() (QuantizeInfo, bool) {
	if t == nil || t.quant == nil {
		return QuantizeInfo{}, false
	}

	return *t.quant, true
}

// SetQuantizeInfo attaches quantization metadata. Only int8 tensors carry it.
func (t *Tensor) SetQuantizeInfo(q QuantizeInfo) error {
	if t == nil {
		return errors.New("tensor: set quantize info on nil tensor")
	}

	if t.dtype != Int8 {
		return fmt.Errorf("tensor: quantize info requires %s tensor, got %s", Int8, t.dtype)
	}

	if err := q.Validate(t.dtype); err != nil {
		return err
	}

	t.quant = &q

	return nil
}

// Quantized reports whether the tensor takes the narrow numeric path.
func (t *Tensor) Quantized() bool {
	return t != nil && t.dtype == Int8 && t.quant != nil
}

// At returns the element at coord as float64, regardless of element type.
func (t *Tensor) At(coord ...int64) (float64, error) {
	if t == nil {
		return 0, errors.New("tensor: at on nil tensor")
	}

	if len(coord) != len(t.shape) {
		return 0, fmt.Errorf("tensor: at expects %d coordinates, got %d", len(t.shape), len(coord))
	}

	for i, c := range coord {
		if c < 0 || c >= t.shape[i] {
			return 0, fmt.Errorf("tensor: coordinate %d (%d) out of range for size %d", i, c, t.shape[i])
		}
	}

	off := coordToLinear(coord, computeStrides(t.shape))

	switch t.dtype {
	case Int8:
		return float64(t.i8[off]), nil
	case Int32:
		return float64(t.i32[off]), nil
	default:
		return float64(t.f32[off]), nil
	}
}

// Clone returns a deep copy including quantization metadata.
func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}

	dup := &Tensor{
		shape: append([]int64(nil), t.shape...),
		dtype: t.dtype,
	}

	if t.f32 != nil {
		dup.f32 = append([]float32(nil), t.f32...)
	}

	if t.i8 != nil {
		dup.i8 = append([]int8(nil), t.i8...)
	}

	if t.i32 != nil {
		dup.i32 = append([]int32(nil), t.i32...)
	}

	if t.quant != nil {
		q := *t.quant
		dup.quant = &q
	}

	return dup
}

// Reshape returns a copy with a new shape and the same values.
func (t *Tensor) Reshape(shape []int64) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("tensor: reshape on nil tensor")
	}

	total, err := shapeElemCount(shape)
	if err != nil {
		return nil, err
	}

	if total != t.ElemCount() {
		return nil, fmt.Errorf("tensor: cannot reshape %v (%d elements) to %v (%d elements)", t.shape, t.ElemCount(), shape, total)
	}

	dup := t.Clone()
	dup.shape = append([]int64(nil), shape...)

	return dup, nil
}

func (t *Tensor) String() string {
	if t == nil {
		return "Tensor(nil)"
	}

	if t.quant != nil {
		return fmt.Sprintf("Tensor[%s]%v scale=%g zero=%d", t.dtype, t.shape, t.quant.Scale, t.quant.Zero)
	}

	return fmt.Sprintf("Tensor[%s]%v", t.dtype, t.shape)
}
