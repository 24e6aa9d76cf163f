package ops

import (
	"github.com/example/go-deconv/internal/runtime/tensor"
)

// Geometry is the resolved spatial output size and padding of a 2-D kernel.
type Geometry struct {
	OutH      int
	OutW      int
	PadTop    int
	PadBottom int
	PadLeft   int
	PadRight  int
}

// EffectiveKernel is the extent of a dilated kernel: d*(k-1) + 1.
func EffectiveKernel(k, d int) int {
	return d*(k-1) + 1
}

// DeconvOutputSize returns the transposed-convolution output size along one
// axis and the total padding removed from the scatter region.
//
//	VALID: (I-1)*S + K_eff
//	SAME:  I*S
//	FULL:  (I-1)*S + K_eff + (S-1)
//
// FULL is the largest output whose forward VALID convolution maps back to I.
func DeconvOutputSize(in, k, s, d int, mode Padding) (out, padTotal int) {
	kEff := EffectiveKernel(k, d)
	span := (in-1)*s + kEff

	switch mode {
	case PaddingSame:
		out = in * s
		padTotal = max(0, span-out)
	case PaddingFull:
		out = span + s - 1
	default:
		out = span
	}

	return out, padTotal
}

// ConvOutputSize returns the forward-convolution output size along one axis
// and the total implicit padding.
//
//	VALID: (I-K_eff)/S + 1
//	SAME:  (I-1)/S + 1
//	FULL:  (I+K_eff-2)/S + 1
func ConvOutputSize(in, k, s, d int, mode Padding) (out, padTotal int) {
	kEff := EffectiveKernel(k, d)

	switch mode {
	case PaddingSame:
		out = (in-1)/s + 1
	case PaddingFull:
		out = (in+kEff-2)/s + 1
	default:
		if in < kEff {
			return 0, 0
		}

		out = (in-kEff)/s + 1
	}

	padTotal = max(0, (out-1)*s+kEff-in)

	return out, padTotal
}

// ResolveDeconv derives the output geometry of a transposed convolution.
// A non-nil outputShape overrides the computed size; it must hold [H, W] or
// [N, H, W, C] as int32 and each spatial size must be >= (I-1)*S + 1.
func ResolveDeconv(p Param, inH, inW, kH, kW int, outputShape *tensor.Tensor) (Geometry, error) {
	if err := p.Validate(); err != nil {
		return Geometry{}, err
	}

	if inH <= 0 || inW <= 0 || kH <= 0 || kW <= 0 {
		return Geometry{}, invalidShapef("deconv needs positive input %dx%d and kernel %dx%d", inH, inW, kH, kW)
	}

	var g Geometry
	var padH, padW int

	g.OutH, padH = DeconvOutputSize(inH, kH, p.Strides[0], p.Dilations[0], p.Padding)
	g.OutW, padW = DeconvOutputSize(inW, kW, p.Strides[1], p.Dilations[1], p.Padding)
	g.PadTop, g.PadBottom = padH/2, padH-padH/2
	g.PadLeft, g.PadRight = padW/2, padW-padW/2

	if p.Explicit != nil {
		e := p.Explicit
		g.PadTop, g.PadBottom, g.PadLeft, g.PadRight = e[0], e[1], e[2], e[3]
		g.OutH = (inH-1)*p.Strides[0] + EffectiveKernel(kH, p.Dilations[0]) - e[0] - e[1]
		g.OutW = (inW-1)*p.Strides[1] + EffectiveKernel(kW, p.Dilations[1]) - e[2] - e[3]
	}

	if outputShape != nil {
		oh, ow, err := explicitOutputSize(outputShape)
		if err != nil {
			return Geometry{}, err
		}

		if minH := (inH-1)*p.Strides[0] + 1; oh < minH {
			return Geometry{}, invalidShapef("output height %d below minimum %d", oh, minH)
		}

		if minW := (inW-1)*p.Strides[1] + 1; ow < minW {
			return Geometry{}, invalidShapef("output width %d below minimum %d", ow, minW)
		}

		g.OutH, g.OutW = oh, ow

		if p.Explicit == nil {
			padH = max(0, (inH-1)*p.Strides[0]+EffectiveKernel(kH, p.Dilations[0])-oh)
			padW = max(0, (inW-1)*p.Strides[1]+EffectiveKernel(kW, p.Dilations[1])-ow)
			g.PadTop, g.PadBottom = padH/2, padH-padH/2
			g.PadLeft, g.PadRight = padW/2, padW-padW/2
		}
	}

	if g.OutH <= 0 || g.OutW <= 0 {
		return Geometry{}, invalidShapef("deconv produced non-positive output %dx%d", g.OutH, g.OutW)
	}

	return g, nil
}

// ResolveConv derives the output geometry of a forward convolution.
func ResolveConv(p Param, inH, inW, kH, kW int) (Geometry, error) {
	if err := p.Validate(); err != nil {
		return Geometry{}, err
	}

	if inH <= 0 || inW <= 0 || kH <= 0 || kW <= 0 {
		return Geometry{}, invalidShapef("conv needs positive input %dx%d and kernel %dx%d", inH, inW, kH, kW)
	}

	var g Geometry

	if e := p.Explicit; e != nil {
		g.PadTop, g.PadBottom, g.PadLeft, g.PadRight = e[0], e[1], e[2], e[3]
		hSpan := inH + e[0] + e[1] - EffectiveKernel(kH, p.Dilations[0])
		wSpan := inW + e[2] + e[3] - EffectiveKernel(kW, p.Dilations[1])
		if hSpan < 0 || wSpan < 0 {
			return Geometry{}, invalidShapef("kernel larger than padded input")
		}

		g.OutH = hSpan/p.Strides[0] + 1
		g.OutW = wSpan/p.Strides[1] + 1

		return g, nil
	}

	var padH, padW int

	g.OutH, padH = ConvOutputSize(inH, kH, p.Strides[0], p.Dilations[0], p.Padding)
	g.OutW, padW = ConvOutputSize(inW, kW, p.Strides[1], p.Dilations[1], p.Padding)
	g.PadTop, g.PadBottom = padH/2, padH-padH/2
	g.PadLeft, g.PadRight = padW/2, padW-padW/2

	if g.OutH <= 0 || g.OutW <= 0 {
		return Geometry{}, invalidShapef("conv produced non-positive output %dx%d", g.OutH, g.OutW)
	}

	return g, nil
}

func explicitOutputSize(t *tensor.Tensor) (h, w int, err error) {
	if t.DType() != tensor.Int32 {
		return 0, 0, invalidShapef("output shape must be int32, got %s", t.DType())
	}

	v := t.Int32Data()

	switch len(v) {
	case 2:
		return int(v[0]), int(v[1]), nil
	case 4:
		return int(v[1]), int(v[2]), nil
	default:
		return 0, 0, invalidShapef("output shape must hold 2 or 4 values, got %d", len(v))
	}
}
