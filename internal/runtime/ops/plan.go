package ops

import (
	"github.com/example/go-deconv/internal/runtime/tensor"
)

// resolve validates the call and resolves its geometry. Every structural
// check runs before any narrow-path restriction so a malformed call is
// always InvalidShape.
func (k *Kernel) resolve(input, filter, bias, outputShape, output *tensor.Tensor) (plan, error) {
	if input == nil || filter == nil || output == nil {
		return plan{}, invalidShapef("%s requires non-nil input/filter/output", k.kind)
	}

	narrow, err := k.checkTypes(input, filter, bias, output)
	if err != nil {
		return plan{}, err
	}

	inShape := input.Shape()
	fShape := filter.Shape()

	if len(inShape) != 4 || len(fShape) != 4 {
		return plan{}, invalidShapef("%s expects rank-4 input/filter, got %v and %v", k.kind, inShape, fShape)
	}

	p := plan{
		batch:       int(inShape[0]),
		inH:         int(inShape[1]),
		inW:         int(inShape[2]),
		inC:         int(inShape[3]),
		outPerGroup: int(fShape[0]),
		kH:          int(fShape[1]),
		kW:          int(fShape[2]),
		strideH:     k.param.Strides[0],
		strideW:     k.param.Strides[1],
		dilH:        k.param.Dilations[0],
		dilW:        k.param.Dilations[1],
		narrow:      narrow,
	}

	if p.batch <= 0 || p.inC <= 0 || p.outPerGroup <= 0 {
		return plan{}, invalidShapef("%s input %v / filter %v has empty batch or channels", k.kind, inShape, fShape)
	}

	if fc := int(fShape[3]); fc != p.inC {
		return plan{}, invalidShapef("%s filter channels %d != input channels %d", k.kind, fc, p.inC)
	}

	groups := p.inC
	if !k.kind.depthwise() {
		groups = k.param.Groups
	}

	if p.inC%groups != 0 {
		return plan{}, invalidShapef("%s input channels %d not divisible by groups %d", k.kind, p.inC, groups)
	}

	p.inPerGroup = p.inC / groups
	p.outC = groups * p.outPerGroup

	if bias != nil {
		if bs := bias.Shape(); len(bs) != 1 || int(bs[0]) != p.outC {
			return plan{}, invalidShapef("%s bias shape %v does not match output channels %d", k.kind, bs, p.outC)
		}
	}

	var g Geometry

	if k.kind == KindDepthwiseConv2D {
		if outputShape != nil {
			return plan{}, invalidShapef("%s does not accept an explicit output shape", k.kind)
		}

		g, err = ResolveConv(k.param, p.inH, p.inW, p.kH, p.kW)
	} else {
		g, err = ResolveDeconv(k.param, p.inH, p.inW, p.kH, p.kW, outputShape)
		if err == nil {
			err = k.checkOutputShapeDims(outputShape, p)
		}
	}

	if err != nil {
		return plan{}, err
	}

	p.outH, p.outW = g.OutH, g.OutW
	p.padTop, p.padLeft = g.PadTop, g.PadLeft

	if narrow {
		if err := k.checkNarrow(p); err != nil {
			return plan{}, err
		}
	}

	return p, nil
}

func (k *Kernel) checkTypes(input, filter, bias, output *tensor.Tensor) (bool, error) {
	switch {
	case input.DType() == tensor.Float32:
		if filter.DType() != tensor.Float32 || output.DType() != tensor.Float32 {
			return false, invalidShapef("%s float path needs float32 filter/output, got %s and %s", k.kind, filter.DType(), output.DType())
		}

		if bias != nil && bias.DType() != tensor.Float32 {
			return false, invalidShapef("%s float path needs float32 bias, got %s", k.kind, bias.DType())
		}

		return false, nil
	case input.Quantized():
		if !filter.Quantized() {
			return false, invalidShapef("%s narrow path needs quantized int8 filter, got %s", k.kind, filter)
		}

		if !output.Quantized() {
			return false, invalidShapef("%s narrow path needs quantized int8 output, got %s", k.kind, output)
		}

		if bias != nil && bias.DType() != tensor.Int32 {
			return false, invalidShapef("%s narrow path needs int32 bias, got %s", k.kind, bias.DType())
		}

		return true, nil
	default:
		return false, invalidShapef("%s unsupported input %s", k.kind, input)
	}
}

// checkOutputShapeDims verifies batch and channel of a 4-value output shape.
func (k *Kernel) checkOutputShapeDims(outputShape *tensor.Tensor, p plan) error {
	if outputShape == nil || outputShape.ElemCount() != 4 {
		return nil
	}

	v := outputShape.Int32Data()
	if int(v[0]) != p.batch || int(v[3]) != p.outC {
		return invalidShapef("%s output shape %v disagrees with batch %d / channels %d", k.kind, v, p.batch, p.outC)
	}

	return nil
}

// checkNarrow rejects the configurations the 8-bit path does not compute.
func (k *Kernel) checkNarrow(p plan) error {
	if p.batch > 1 {
		return unsupportedf("%s int8 path requires batch 1, got %d", k.kind, p.batch)
	}

	if k.kind.depthwise() && p.outPerGroup > 1 {
		return unsupportedf("%s int8 path requires multiplier 1, got %d", k.kind, p.outPerGroup)
	}

	if k.param.Padding == PaddingFull && (p.dilH > 1 || p.dilW > 1) {
		return unsupportedf("%s int8 path does not support dilation %dx%d with FULL padding", k.kind, p.dilH, p.dilW)
	}

	return nil
}
