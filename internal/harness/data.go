package harness

import (
	"math/rand/v2"

	"github.com/example/go-deconv/internal/runtime/ops"
	"github.com/example/go-deconv/internal/runtime/tensor"
)

// caseData holds the float buffers of one case.
type caseData struct {
	input  *tensor.Tensor
	filter *tensor.Tensor
	bias   *tensor.Tensor
}

// newRand returns the stream for case index under seed. Each case draws from
// its own stream so results do not depend on scheduling.
func newRand(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(index)))
}

// uniform draws n values from [-1, 1).
func uniform(r *rand.Rand, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(r.Float64()*2 - 1)
	}

	return out
}

// generate draws input, filter and bias in that order.
func generate(r *rand.Rand, c Case, kind ops.Kind) (caseData, error) {
	inShape, fShape := c.inputShape(), c.filterShape()
	outC := c.outChannels(kind)

	inN, err := tensor.ElemCount(inShape)
	if err != nil {
		return caseData{}, err
	}

	fN, err := tensor.ElemCount(fShape)
	if err != nil {
		return caseData{}, err
	}

	input, err := tensor.New(uniform(r, inN), inShape)
	if err != nil {
		return caseData{}, err
	}

	filter, err := tensor.New(uniform(r, fN), fShape)
	if err != nil {
		return caseData{}, err
	}

	bias, err := tensor.New(uniform(r, outC), []int64{int64(outC)})
	if err != nil {
		return caseData{}, err
	}

	return caseData{input: input, filter: filter, bias: bias}, nil
}

// Operands are the tensors case index draws under seed, in float32 and in
// int8 form.
type Operands struct {
	Input, Filter, Bias    *tensor.Tensor
	QInput, QFilter, QBias *tensor.Tensor
}

// NewOperands reproduces the data the runner feeds case index.
func NewOperands(c Case, seed uint64, index int) (Operands, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Operands{}, err
	}

	kind, err := c.Kind()
	if err != nil {
		return Operands{}, err
	}

	data, err := generate(newRand(seed, index), c, kind)
	if err != nil {
		return Operands{}, err
	}

	qIn, qFilter, qBias, err := quantizeOperands(data)
	if err != nil {
		return Operands{}, err
	}

	return Operands{
		Input:   data.input,
		Filter:  data.filter,
		Bias:    data.bias,
		QInput:  qIn,
		QFilter: qFilter,
		QBias:   qBias,
	}, nil
}
