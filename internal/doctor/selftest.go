package doctor

import (
	"context"
	"fmt"
	"math"

	"github.com/example/go-deconv/internal/runtime/ops"
	"github.com/example/go-deconv/internal/runtime/tensor"
)

// KernelSelfTest runs a 3x3x2 depthwise convolution with a known answer and
// a 2x2 transposed convolution whose output tiles its input.
func KernelSelfTest() error {
	ctx := context.Background()

	input, err := tensor.New([]float32{
		1, 2, 2, 4, 3, 6,
		4, 8, 5, 10, 6, 12,
		7, 14, 8, 16, 9, 18,
	}, []int64{1, 3, 3, 2})
	if err != nil {
		return err
	}

	filter, err := tensor.New([]float32{1, 2, 2, 4, 3, 6, 4, 8}, []int64{1, 2, 2, 2})
	if err != nil {
		return err
	}

	bias, err := tensor.New([]float32{0.1, 0.2}, []int64{2})
	if err != nil {
		return err
	}

	conv, err := ops.NewDepthwiseConv2D(ops.DefaultParam())
	if err != nil {
		return err
	}

	out := tensor.Empty(tensor.Float32)
	if err := conv.Compute(ctx, input, filter, bias, nil, out); err != nil {
		return err
	}

	if err := expect("depthwise_conv2d", out.RawData(), []float32{37.1, 148.2, 47.1, 188.2, 67.1, 268.2, 77.1, 308.2}); err != nil {
		return err
	}

	p := ops.DefaultParam()
	p.Strides = [2]int{2, 2}

	deconv, err := ops.NewDepthwiseDeconv2D(p)
	if err != nil {
		return err
	}

	small, err := tensor.New([]float32{1, 2, 3, 4}, []int64{1, 2, 2, 1})
	if err != nil {
		return err
	}

	ones, err := tensor.New([]float32{1, 1, 1, 1}, []int64{1, 2, 2, 1})
	if err != nil {
		return err
	}

	if err := deconv.Compute(ctx, small, ones, nil, nil, out); err != nil {
		return err
	}

	return expect("depthwise_deconv2d", out.RawData(), []float32{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	})
}

func expect(name string, got, want []float32) error {
	if len(got) != len(want) {
		return fmt.Errorf("%s: got %d values, want %d", name, len(got), len(want))
	}

	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			return fmt.Errorf("%s: element %d = %g, want %g", name, i, got[i], want[i])
		}
	}

	return nil
}
