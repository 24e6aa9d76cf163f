// Package quant implements the linear float32 <-> int8 codec used by the
// narrow kernel paths.
//
// A narrow value q represents the real value (q - zero) * scale. Asymmetric
// parameters cover [min(values, 0), max(values, 0)] so zero is always exactly
// representable; symmetric parameters fix zero at 0.
package quant

import (
	"errors"
	"fmt"
	"math"

	"github.com/example/go-deconv/internal/runtime/tensor"
)

const (
	qmin = math.MinInt8
	qmax = math.MaxInt8

	// asymmetricSteps is the number of steps across the full int8 range.
	asymmetricSteps = qmax - qmin
	// symmetricSteps keeps -128 unused so the range is symmetric around 0.
	symmetricSteps = qmax
)

var errEmpty = errors.New("quant: empty value buffer")

// AutoQuantizeAsymmetric derives scale/zero from the value range and
// quantizes values with them.
func AutoQuantizeAsymmetric(values []float32) ([]int8, tensor.QuantizeInfo, error) {
	q, err := AdjustRange(values)
	if err != nil {
		return nil, tensor.QuantizeInfo{}, err
	}

	out := make([]int8, len(values))
	QuantizeWithScaleAndZero(values, q, out)

	return out, q, nil
}

// AutoQuantizeSymmetric derives scale = max|v| / 127 and quantizes values
// with zero point 0.
func AutoQuantizeSymmetric(values []float32) ([]int8, tensor.QuantizeInfo, error) {
	if len(values) == 0 {
		return nil, tensor.QuantizeInfo{}, errEmpty
	}

	var absMax float64
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, tensor.QuantizeInfo{}, fmt.Errorf("quant: non-finite value %g at %d", v, i)
		}

		absMax = math.Max(absMax, math.Abs(f))
	}

	q := tensor.QuantizeInfo{Scale: 1, Zero: 0}
	if absMax > 0 {
		q.Scale = positiveScale(absMax / symmetricSteps)
	}

	out := make([]int8, len(values))
	QuantizeWithScaleAndZero(values, q, out)

	return out, q, nil
}

// AdjustRange returns the tightest asymmetric int8 parameters covering the
// observed range of values. The buffer is not modified.
func AdjustRange(values []float32) (tensor.QuantizeInfo, error) {
	if len(values) == 0 {
		return tensor.QuantizeInfo{}, errEmpty
	}

	lo, hi := 0.0, 0.0
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return tensor.QuantizeInfo{}, fmt.Errorf("quant: non-finite value %g at %d", v, i)
		}

		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}

	if hi == lo {
		return tensor.QuantizeInfo{Scale: 1, Zero: qmin}, nil
	}

	scale := positiveScale((hi - lo) / asymmetricSteps)
	zero := clampInt(qmin+math.Round(-lo/float64(scale)), qmin, qmax)

	return tensor.QuantizeInfo{Scale: scale, Zero: int32(zero)}, nil
}

// QuantizeWithScaleAndZero writes round(v/scale) + zero, clamped to int8,
// into out. len(out) must be >= len(values).
func QuantizeWithScaleAndZero(values []float32, q tensor.QuantizeInfo, out []int8) {
	s := float64(q.Scale)
	z := float64(q.Zero)

	for i, v := range values {
		out[i] = int8(clampInt(math.Round(float64(v)/s)+z, qmin, qmax))
	}
}

// QuantizeInt32 quantizes values into the int32 domain with a fixed scale
// and zero point 0. Used for biases added to int32 accumulators.
func QuantizeInt32(values []float32, scale float32) ([]int32, error) {
	if !(scale > 0) {
		return nil, fmt.Errorf("quant: int32 scale must be positive, got %g", scale)
	}

	s := float64(scale)
	out := make([]int32, len(values))

	for i, v := range values {
		out[i] = int32(clampInt(math.Round(float64(v)/s), math.MinInt32, math.MaxInt32))
	}

	return out, nil
}

// Dequantize returns (q - zero) * scale for each narrow value.
func Dequantize(values []int8, q tensor.QuantizeInfo) []float32 {
	out := make([]float32, len(values))
	s := float64(q.Scale)

	for i, v := range values {
		out[i] = float32(float64(int32(v)-q.Zero) * s)
	}

	return out
}

// BiasScale is the scale of a bias added to the product of two quantized
// operands: it lives in the accumulator domain, input scale * filter scale.
func BiasScale(input, filter tensor.QuantizeInfo) float32 {
	return positiveScale(float64(input.Scale) * float64(filter.Scale))
}

// Multiplier is the factor that rescales an accumulator in the
// input*filter domain to the output scale.
func Multiplier(input, filter, output tensor.QuantizeInfo) float64 {
	return float64(input.Scale) * float64(filter.Scale) / float64(output.Scale)
}

// Requantize maps an int32 accumulator onto the output's int8 grid.
func Requantize(acc int32, multiplier float64, zero int32) int8 {
	return int8(clampInt(math.Round(float64(acc)*multiplier)+float64(zero), qmin, qmax))
}

func clampInt(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// positiveScale narrows s to float32 and keeps it strictly positive.
func positiveScale(s float64) float32 {
	f := float32(s)
	if f <= 0 {
		return math.SmallestNonzeroFloat32
	}

	return f
}
