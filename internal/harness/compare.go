package harness

import (
	"fmt"
	"math"

	"github.com/example/go-deconv/internal/runtime/ops"
)

// MaxAbsDiff is the largest element-wise |got - want|. Lengths must match.
func MaxAbsDiff(got, want []float32) (float64, error) {
	if len(got) != len(want) {
		return 0, fmt.Errorf("harness: length mismatch %d vs %d", len(got), len(want))
	}

	var worst float64
	for i := range got {
		worst = max(worst, math.Abs(float64(got[i])-float64(want[i])))
	}

	return worst, nil
}

// CosineSimilarity of two equal-length vectors. Two all-zero vectors are
// identical (1); one all-zero vector against a non-zero one scores 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("harness: length mismatch %d vs %d", len(a), len(b))
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}

	switch {
	case na == 0 && nb == 0:
		return 1, nil
	case na == 0 || nb == 0:
		return 0, nil
	}

	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// exceedsTolerance returns the first index where |got-want| > Abs + Rel*|want|,
// or -1 when every element agrees.
func exceedsTolerance(got []float32, want []float64, tol ops.Tolerance) int {
	for i := range got {
		limit := tol.Abs + tol.Rel*math.Abs(want[i])
		if math.Abs(float64(got[i])-want[i]) > limit {
			return i
		}
	}

	return -1
}

func maxAbsDiff64(got []float32, want []float64) float64 {
	var worst float64
	for i := range got {
		worst = max(worst, math.Abs(float64(got[i])-want[i]))
	}

	return worst
}
