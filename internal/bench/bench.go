// Package bench provides timing primitives for the deconvcheck bench command.
package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing of a single kernel call.
type RunResult struct {
	Index    int
	Cold     bool // true for the first run when no warmup preceded it
	Duration time.Duration
	Elements int // output elements written
	// NsPerElem is Duration spread over Elements.
	NsPerElem float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// The slice must be non-empty.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations extracts the durations of runs.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// CalcNsPerElem returns nanoseconds per output element.
// Returns 0 if elements is zero to avoid division by zero.
func CalcNsPerElem(d time.Duration, elements int) float64 {
	if elements <= 0 {
		return 0
	}
	return float64(d.Nanoseconds()) / float64(elements)
}

// ---------------------------------------------------------------------------
// Measurement
// ---------------------------------------------------------------------------

// Func is one benchmarked call. It reports how many output elements it wrote.
type Func func(ctx context.Context) (elements int, err error)

// Measure calls fn warmup times untimed, then runs times timed. The first
// error aborts the measurement.
func Measure(ctx context.Context, warmup, runs int, fn Func) ([]RunResult, error) {
	if runs < 1 {
		return nil, errors.New("bench: runs must be >= 1")
	}

	for i := range warmup {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := fn(ctx); err != nil {
			return nil, fmt.Errorf("bench: warmup %d: %w", i+1, err)
		}
	}

	results := make([]RunResult, 0, runs)
	for i := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		elems, err := fn(ctx)
		d := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("bench: run %d: %w", i+1, err)
		}

		results = append(results, RunResult{
			Index:     i,
			Cold:      i == 0 && warmup == 0,
			Duration:  d,
			Elements:  elems,
			NsPerElem: CalcNsPerElem(d, elems),
		})
	}

	return results, nil
}

// ---------------------------------------------------------------------------
// Threshold gate
// ---------------------------------------------------------------------------

// CheckMeanThreshold returns an error if mean > threshold.
// A threshold of 0 disables the gate.
func CheckMeanThreshold(mean, threshold time.Duration) error {
	if threshold <= 0 {
		return nil
	}
	if mean > threshold {
		return fmt.Errorf("mean %s exceeds threshold %s", mean, threshold)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(label string, runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	if label != "" {
		fmt.Fprintln(sb, label)
	}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %12s  %10s\n", "Run", "Cold", "MS", "Elements", "ns/elem")
	fmt.Fprintln(sb, strings.Repeat("-", 50))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.3f  %12d  %10.3f\n",
			r.Index+1,
			cold,
			ms(r.Duration),
			r.Elements,
			r.NsPerElem,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 50))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  (min)\n", "", "", ms(stats.Min))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  (mean)\n", "", "", ms(stats.Mean))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.3f  (max)\n", "", "", ms(stats.Max))

	fmt.Fprint(w, sb.String())
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Label string    `json:"label,omitempty"`
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	Elements   int     `json:"elements"`
	NsPerElem  float64 `json:"ns_per_elem"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(label string, runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Label: label,
		Runs:  make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  ms(stats.Min),
			MeanMS: ms(stats.Mean),
			MaxMS:  ms(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: ms(r.Duration),
			Elements:   r.Elements,
			NsPerElem:  r.NsPerElem,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
