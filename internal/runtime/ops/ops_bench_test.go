package ops

import (
	"context"
	"testing"

	"github.com/example/go-deconv/internal/runtime/tensor"
)

func benchDeconv(b *testing.B, kind Kind, p Param, c, h, w, m, k int, narrow bool) {
	b.Helper()

	input := mustTensorT(b, seqDataT(h*w*c), []int64{1, int64(h), int64(w), int64(c)})
	filter := mustTensorT(b, seqDataT(m*k*k*c), []int64{int64(m), int64(k), int64(k), int64(c)})
	out := tensor.Empty(tensor.Float32)

	if narrow {
		q := tensor.QuantizeInfo{Scale: 1.0 / 127}
		input = mustInt8T(b, make([]int8, h*w*c), input.Shape(), q)
		filter = mustInt8T(b, make([]int8, m*k*k*c), filter.Shape(), q)
		out = tensor.Empty(tensor.Int8)

		if err := out.SetQuantizeInfo(q); err != nil {
			b.Fatalf("SetQuantizeInfo: %v", err)
		}
	}

	kernel := mustKernel(b, kind, p)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := kernel.Compute(ctx, input, filter, nil, nil, out); err != nil {
			b.Fatalf("%s: %v", kind, err)
		}
	}
}

func BenchmarkDepthwiseDeconv2D256x28(b *testing.B) {
	p := DefaultParam()
	p.Padding = PaddingSame
	benchDeconv(b, KindDepthwiseDeconv2D, p, 256, 28, 28, 1, 3, false)
}

func BenchmarkDepthwiseDeconv2D256x28Int8(b *testing.B) {
	p := DefaultParam()
	p.Padding = PaddingSame
	benchDeconv(b, KindDepthwiseDeconv2D, p, 256, 28, 28, 1, 3, true)
}

func BenchmarkGroupDeconv2D128x56Stride2(b *testing.B) {
	p := DefaultParam()
	p.Strides = [2]int{2, 2}
	p.Padding = PaddingSame
	p.Groups = 32
	benchDeconv(b, KindGroupDeconv2D, p, 128, 56, 56, 4, 3, false)
}

func BenchmarkDepthwiseConv2D512x14(b *testing.B) {
	p := DefaultParam()
	p.Padding = PaddingSame
	benchDeconv(b, KindDepthwiseConv2D, p, 512, 14, 13, 1, 3, false)
}
