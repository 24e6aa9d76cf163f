package bench_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/go-deconv/internal/bench"
)

// ---------------------------------------------------------------------------
// Aggregation (min/max/mean)
// ---------------------------------------------------------------------------

func TestStats_MinMaxMean(t *testing.T) {
	durations := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}
	s := bench.ComputeStats(durations)

	assert.Equal(t, 100*time.Millisecond, s.Min)
	assert.Equal(t, 300*time.Millisecond, s.Max)
	assert.Equal(t, 200*time.Millisecond, s.Mean)
}

func TestStats_SingleRun(t *testing.T) {
	s := bench.ComputeStats([]time.Duration{150 * time.Millisecond})
	assert.Equal(t, s.Min, s.Max)
	assert.Equal(t, s.Min, s.Mean)
}

func TestStats_Empty(t *testing.T) {
	assert.Equal(t, bench.Stats{}, bench.ComputeStats(nil))
}

func TestCalcNsPerElem(t *testing.T) {
	assert.InDelta(t, 2.5, bench.CalcNsPerElem(250*time.Nanosecond, 100), 1e-12)
	assert.Zero(t, bench.CalcNsPerElem(time.Second, 0))
}

// ---------------------------------------------------------------------------
// Measurement
// ---------------------------------------------------------------------------

func TestMeasure_WarmupAndRuns(t *testing.T) {
	calls := 0
	fn := func(context.Context) (int, error) {
		calls++
		return 64, nil
	}

	runs, err := bench.Measure(context.Background(), 2, 3, fn)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, 5, calls)
	assert.False(t, runs[0].Cold)

	for i, r := range runs {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, 64, r.Elements)
	}

	assert.Len(t, bench.Durations(runs), 3)
}

func TestMeasure_ColdWithoutWarmup(t *testing.T) {
	runs, err := bench.Measure(context.Background(), 0, 2, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.True(t, runs[0].Cold)
	assert.False(t, runs[1].Cold)
}

func TestMeasure_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := bench.Measure(context.Background(), 0, 2, func(context.Context) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	_, err = bench.Measure(context.Background(), 1, 0, func(context.Context) (int, error) { return 0, nil })
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = bench.Measure(ctx, 0, 1, func(context.Context) (int, error) { return 0, nil })
	require.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// Threshold gate
// ---------------------------------------------------------------------------

func TestMeanThreshold(t *testing.T) {
	assert.Error(t, bench.CheckMeanThreshold(2*time.Second, time.Second))
	assert.NoError(t, bench.CheckMeanThreshold(time.Second, time.Second))
	assert.NoError(t, bench.CheckMeanThreshold(time.Hour, 0))
}

// ---------------------------------------------------------------------------
// Output formatting
// ---------------------------------------------------------------------------

func TestFormatTable_ContainsHeaders(t *testing.T) {
	runs := []bench.RunResult{
		{Index: 0, Cold: true, Duration: 8 * time.Millisecond, Elements: 1000, NsPerElem: 8000},
		{Index: 1, Cold: false, Duration: 5 * time.Millisecond, Elements: 1000, NsPerElem: 5000},
	}
	stats := bench.ComputeStats(bench.Durations(runs))

	var buf strings.Builder
	bench.FormatTable("depthwise_deconv2d float32", runs, stats, &buf)
	out := strings.ToLower(buf.String())

	for _, want := range []string{"depthwise_deconv2d", "run", "cold", "ms", "ns/elem", "(mean)"} {
		assert.Contains(t, out, want)
	}
}

func TestFormatJSON_IsValidJSON(t *testing.T) {
	runs := []bench.RunResult{
		{Index: 0, Cold: true, Duration: 1500 * time.Microsecond, Elements: 10, NsPerElem: 150000},
	}
	stats := bench.ComputeStats(bench.Durations(runs))

	var buf bytes.Buffer
	bench.FormatJSON("k", runs, stats, &buf)

	var out struct {
		Label string `json:"label"`
		Runs  []struct {
			DurationMS float64 `json:"duration_ms"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "k", out.Label)
	require.Len(t, out.Runs, 1)
	assert.InDelta(t, 1.5, out.Runs[0].DurationMS, 1e-9)
}
