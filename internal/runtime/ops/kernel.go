package ops

import (
	"context"
	"fmt"

	"github.com/example/go-deconv/internal/runtime/quant"
	"github.com/example/go-deconv/internal/runtime/tensor"
)

// Kind selects the kernel variant. It is fixed at construction.
type Kind int

const (
	// KindDepthwiseConv2D is the forward depthwise convolution reference.
	KindDepthwiseConv2D Kind = iota
	// KindDepthwiseDeconv2D is a transposed convolution with one group per
	// input channel and an optional channel multiplier.
	KindDepthwiseDeconv2D
	// KindGroupDeconv2D is a transposed convolution over Param.Groups
	// contiguous channel blocks.
	KindGroupDeconv2D
)

func (k Kind) String() string {
	switch k {
	case KindDepthwiseConv2D:
		return "depthwise_conv2d"
	case KindDepthwiseDeconv2D:
		return "depthwise_deconv2d"
	case KindGroupDeconv2D:
		return "group_deconv2d"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindDepthwiseConv2D, KindDepthwiseDeconv2D, KindGroupDeconv2D} {
		if k.String() == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("ops: unknown kernel %q", s)
}

func (k Kind) depthwise() bool {
	return k == KindDepthwiseConv2D || k == KindDepthwiseDeconv2D
}

// Kernel is a 2-D depthwise or grouped (de)convolution. It holds only its
// immutable Param, so independent kernels may run concurrently over
// disjoint tensors.
type Kernel struct {
	kind  Kind
	param Param
}

// New builds a kernel of the given kind. Depthwise kinds derive their group
// count from the input channels and ignore Param.Groups.
func New(kind Kind, p Param) (*Kernel, error) {
	if kind < KindDepthwiseConv2D || kind > KindGroupDeconv2D {
		return nil, fmt.Errorf("ops: unknown kernel kind %d", int(kind))
	}

	if kind.depthwise() && p.Groups == 0 {
		p.Groups = 1
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &Kernel{kind: kind, param: p.clone()}, nil
}

func NewDepthwiseConv2D(p Param) (*Kernel, error) { return New(KindDepthwiseConv2D, p) }

func NewDepthwiseDeconv2D(p Param) (*Kernel, error) { return New(KindDepthwiseDeconv2D, p) }

func NewGroupDeconv2D(p Param) (*Kernel, error) { return New(KindGroupDeconv2D, p) }

func (k *Kernel) Kind() Kind { return k.kind }

func (k *Kernel) Param() Param { return k.param.clone() }

// Compute runs the kernel. input is [N,H,W,C], filter [M,Kh,Kw,C] and
// output is resized to [N,Ho,Wo,G*M]. bias and outputShape may be nil;
// outputShape only applies to the transposed variants.
//
// Float32 tensors take the float path. An int8 input with QuantizeInfo
// takes the narrow path: filter and output must be quantized int8 and bias
// int32 in the input*filter scale.
//
// Errors wrap ErrInvalidShape or ErrUnsupportedConfiguration and are
// reported before output is touched. ctx is accepted for the calling
// framework and not consulted.
func (k *Kernel) Compute(_ context.Context, input, filter, bias, outputShape, output *tensor.Tensor) error {
	p, err := k.resolve(input, filter, bias, outputShape, output)
	if err != nil {
		return err
	}

	if err := output.Resize(p.outShape()); err != nil {
		return invalidShapef("%s: resize output: %v", k.kind, err)
	}

	if p.narrow {
		k.computeNarrow(p, input, filter, bias, output)
		return nil
	}

	runKernel(k.kind, p, input.RawData(), filter.RawData(), output.RawData())
	if bias != nil {
		addBias(output.RawData(), bias.RawData(), p.outC)
	}

	return nil
}

func (k *Kernel) computeNarrow(p plan, input, filter, bias, output *tensor.Tensor) {
	qi, _ := input.QuantizeInfo()
	qf, _ := filter.QuantizeInfo()
	qo, _ := output.QuantizeInfo()

	in := getScratch(input.ElemCount())
	defer putScratch(in)
	widen(in, input.Int8Data(), qi.Zero)

	f := getScratch(filter.ElemCount())
	defer putScratch(f)
	widen(f, filter.Int8Data(), qf.Zero)

	acc := getScratch(p.outLen())
	defer putScratch(acc)

	runKernel(k.kind, p, in, f, acc)
	if bias != nil {
		addBias(acc, bias.Int32Data(), p.outC)
	}

	mult := quant.Multiplier(qi, qf, qo)
	out := output.Int8Data()

	for i, a := range acc {
		out[i] = quant.Requantize(a, mult, qo.Zero)
	}
}

// runKernel executes the variant body on already-widened buffers.
func runKernel[T accum](kind Kind, p plan, in, filter, out []T) {
	if kind == KindDepthwiseConv2D {
		gatherDepthwiseConv(p, in, filter, out)
		return
	}

	scatterDeconv(p, in, filter, out)
}
