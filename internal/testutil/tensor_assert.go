package testutil

import (
	"math"
	"slices"
	"testing"

	"github.com/example/go-deconv/internal/runtime/tensor"
)

// AssertShape fails the test unless t has exactly the given dimensions.
func AssertShape(tb testing.TB, t *tensor.Tensor, dims ...int64) {
	tb.Helper()

	if t == nil {
		tb.Fatalf("tensor is nil, want shape %v", dims)
		return
	}

	if got := t.Shape(); !slices.Equal(got, dims) {
		tb.Fatalf("shape = %v, want %v", got, dims)
	}
}

// AssertClose checks every element with |got-want| <= abs + rel*|want|.
func AssertClose(tb testing.TB, got, want []float32, abs, rel float64) {
	tb.Helper()

	if len(got) != len(want) {
		tb.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
		return
	}

	for i := range want {
		d := math.Abs(float64(got[i]) - float64(want[i]))
		if d > abs+rel*math.Abs(float64(want[i])) {
			tb.Fatalf("element %d = %g, want %g (diff %g, abs %g, rel %g)", i, got[i], want[i], d, abs, rel)
			return
		}
	}
}

// AssertSimilar checks a lossy result against its reference: the largest
// element difference must not exceed delta and the cosine similarity must
// be at least 1-delta.
func AssertSimilar(tb testing.TB, got, want []float32, delta float64) {
	tb.Helper()

	if len(got) != len(want) {
		tb.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
		return
	}

	var maxDiff, dot, ng, nw float64
	for i := range want {
		g, w := float64(got[i]), float64(want[i])
		maxDiff = max(maxDiff, math.Abs(g-w))
		dot += g * w
		ng += g * g
		nw += w * w
	}

	if maxDiff > delta {
		tb.Fatalf("max abs diff %g exceeds %g", maxDiff, delta)
		return
	}

	if ng == 0 && nw == 0 {
		return
	}

	if cos := dot / (math.Sqrt(ng) * math.Sqrt(nw)); cos < 1-delta {
		tb.Fatalf("cosine similarity %g below %g", cos, 1-delta)
	}
}
