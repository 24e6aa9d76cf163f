package ops

import (
	"context"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/example/go-deconv/internal/runtime/tensor"
)

func seqDataT(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32((i%17)-8) / 17
	}

	return out
}

func randDataT(seed uint64, n int) []float32 {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	out := make([]float32, n)
	for i := range out {
		out[i] = float32(r.Float64()*2 - 1)
	}

	return out
}

func equalApprox(got, want []float32, tol float64) bool {
	if len(got) != len(want) {
		return false
	}

	for i := range got {
		delta := math.Abs(float64(got[i] - want[i]))
		if delta > tol {
			return false
		}
	}

	return true
}

func maxAbsDiff(got, want []float32) float64 {
	var worst float64
	for i := range got {
		worst = max(worst, math.Abs(float64(got[i]-want[i])))
	}

	return worst
}

func mustTensorT(t testing.TB, data []float32, shape []int64) *tensor.Tensor {
	t.Helper()

	tt, err := tensor.New(data, shape)
	if err != nil {
		t.Fatalf("tensor.New(%v, %v): %v", data, shape, err)
	}

	return tt
}

func mustInt8T(t testing.TB, data []int8, shape []int64, q tensor.QuantizeInfo) *tensor.Tensor {
	t.Helper()

	tt, err := tensor.NewInt8(data, shape, &q)
	if err != nil {
		t.Fatalf("tensor.NewInt8(%v): %v", shape, err)
	}

	return tt
}

func mustInt32T(t testing.TB, data []int32, shape []int64) *tensor.Tensor {
	t.Helper()

	tt, err := tensor.NewInt32(data, shape)
	if err != nil {
		t.Fatalf("tensor.NewInt32(%v): %v", shape, err)
	}

	return tt
}

func mustKernel(t testing.TB, kind Kind, p Param) *Kernel {
	t.Helper()

	k, err := New(kind, p)
	if err != nil {
		t.Fatalf("New(%s): %v", kind, err)
	}

	return k
}

// computeT runs k on the float path and returns the resized output.
func computeT(t testing.TB, k *Kernel, input, filter, bias, outputShape *tensor.Tensor) *tensor.Tensor {
	t.Helper()

	out := tensor.Empty(tensor.Float32)
	if err := k.Compute(context.Background(), input, filter, bias, outputShape, out); err != nil {
		t.Fatalf("%s compute: %v", k.Kind(), err)
	}

	return out
}

func assertErrContains(t *testing.T, err error, substr string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}

	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("error %q does not contain %q", err.Error(), substr)
	}
}

func assertShape(t *testing.T, got *tensor.Tensor, want ...int64) {
	t.Helper()

	shape := got.Shape()
	if len(shape) != len(want) {
		t.Fatalf("shape = %v, want %v", shape, want)
	}

	for i := range want {
		if shape[i] != want[i] {
			t.Fatalf("shape = %v, want %v", shape, want)
		}
	}
}
