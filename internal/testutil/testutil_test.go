package testutil_test

import (
	"fmt"
	"testing"

	"github.com/example/go-deconv/internal/runtime/tensor"
	"github.com/example/go-deconv/internal/testutil"
)

func TestRequireFullSweep_RunsWhenForced(t *testing.T) {
	t.Setenv(testutil.FullSweepEnv, "1")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireFullSweep(fakeT)
	if skipped {
		t.Error("RequireFullSweep skipped although the override is set")
	}
}

func TestRequireFullSweep_SkipsOnlyInShortMode(t *testing.T) {
	t.Setenv(testutil.FullSweepEnv, "")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireFullSweep(fakeT)
	if skipped != testing.Short() {
		t.Errorf("skipped = %v, want %v", skipped, testing.Short())
	}
}

func TestAssertShape(t *testing.T) {
	x, err := tensor.Zeros([]int64{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertShape(t, x, 1, 2, 3, 4)

	ft := &failTracker{TB: t}
	testutil.AssertShape(ft, x, 1, 2, 3)
	if !ft.failed {
		t.Error("AssertShape accepted a wrong shape")
	}
}

func TestAssertClose(t *testing.T) {
	testutil.AssertClose(t, []float32{1, 100.001}, []float32{1, 100}, 1e-6, 1e-4)

	for _, tc := range []struct {
		got, want []float32
	}{
		{[]float32{1}, []float32{1, 2}},
		{[]float32{1.1}, []float32{1}},
	} {
		ft := &failTracker{TB: t}
		testutil.AssertClose(ft, tc.got, tc.want, 1e-3, 0)
		if !ft.failed {
			t.Errorf("AssertClose(%v, %v) did not fail", tc.got, tc.want)
		}
	}
}

func TestAssertSimilar(t *testing.T) {
	testutil.AssertSimilar(t, []float32{1, 2, 3}, []float32{1.02, 1.98, 3.01}, 0.1)
	testutil.AssertSimilar(t, []float32{0, 0}, []float32{0, 0}, 0.1)

	for _, tc := range []struct {
		got, want []float32
	}{
		{[]float32{1, 2}, []float32{1, 2.5}},
		{[]float32{0.05, -0.05}, []float32{-0.05, 0.05}},
	} {
		ft := &failTracker{TB: t}
		testutil.AssertSimilar(ft, tc.got, tc.want, 0.1)
		if !ft.failed {
			t.Errorf("AssertSimilar(%v, %v) did not fail", tc.got, tc.want)
		}
	}
}

// skipTracker is a minimal testing.TB implementation that intercepts Skip calls.
type skipTracker struct {
	testing.TB
	onSkip func()
}

func (s *skipTracker) Helper() {}

func (s *skipTracker) Skipf(_ string, _ ...any) {
	s.onSkip()
	// Do NOT call s.TB.Skip; that would skip the outer test.
}

// failTracker records Fatalf instead of stopping the outer test.
type failTracker struct {
	testing.TB
	failed bool
	msg    string
}

func (f *failTracker) Helper() {}

func (f *failTracker) Fatalf(format string, args ...any) {
	f.failed = true
	f.msg = fmt.Sprintf(format, args...)
}
