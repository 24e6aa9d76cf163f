package quant

import (
	"errors"
	"fmt"

	"github.com/example/go-deconv/internal/runtime/tensor"
)

// QuantizeAsymmetric converts a float32 tensor to an int8 tensor with
// auto-derived asymmetric metadata.
func QuantizeAsymmetric(t *tensor.Tensor) (*tensor.Tensor, error) {
	if err := requireFloat(t); err != nil {
		return nil, err
	}

	data, q, err := AutoQuantizeAsymmetric(t.RawData())
	if err != nil {
		return nil, err
	}

	return tensor.NewInt8(data, t.Shape(), &q)
}

// QuantizeSymmetric converts a float32 tensor to an int8 tensor with
// auto-derived symmetric metadata.
func QuantizeSymmetric(t *tensor.Tensor) (*tensor.Tensor, error) {
	if err := requireFloat(t); err != nil {
		return nil, err
	}

	data, q, err := AutoQuantizeSymmetric(t.RawData())
	if err != nil {
		return nil, err
	}

	return tensor.NewInt8(data, t.Shape(), &q)
}

// QuantizeBias converts a float32 bias into the int32 accumulator domain of
// input * filter.
func QuantizeBias(bias, input, filter *tensor.Tensor) (*tensor.Tensor, error) {
	if err := requireFloat(bias); err != nil {
		return nil, err
	}

	qi, ok := input.QuantizeInfo()
	if !ok {
		return nil, errors.New("quant: bias requires quantized input")
	}

	qf, ok := filter.QuantizeInfo()
	if !ok {
		return nil, errors.New("quant: bias requires quantized filter")
	}

	data, err := QuantizeInt32(bias.RawData(), BiasScale(qi, qf))
	if err != nil {
		return nil, err
	}

	return tensor.NewInt32(data, bias.Shape())
}

// CalibratedOutput returns an unsized int8 tensor whose metadata covers the
// value range of ref. ref itself is left untouched.
func CalibratedOutput(ref *tensor.Tensor) (*tensor.Tensor, error) {
	if err := requireFloat(ref); err != nil {
		return nil, err
	}

	q, err := AdjustRange(ref.RawData())
	if err != nil {
		return nil, err
	}

	out := tensor.Empty(tensor.Int8)
	if err := out.SetQuantizeInfo(q); err != nil {
		return nil, err
	}

	return out, nil
}

// DequantizeTensor converts a quantized int8 tensor back to float32.
func DequantizeTensor(t *tensor.Tensor) (*tensor.Tensor, error) {
	if t == nil {
		return nil, errors.New("quant: dequantize nil tensor")
	}

	q, ok := t.QuantizeInfo()
	if !ok {
		return nil, fmt.Errorf("quant: dequantize requires quantized tensor, got %s", t)
	}

	return tensor.New(Dequantize(t.Int8Data(), q), t.Shape())
}

func requireFloat(t *tensor.Tensor) error {
	if t == nil {
		return errors.New("quant: nil tensor")
	}

	if t.DType() != tensor.Float32 {
		return fmt.Errorf("quant: expected %s tensor, got %s", tensor.Float32, t.DType())
	}

	return nil
}
