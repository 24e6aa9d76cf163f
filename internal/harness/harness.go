// Package harness validates the convolution kernels over a configuration
// sweep. Every case runs the float path against a float64 reference, then
// quantizes the same data, runs the int8 path and compares its dequantized
// output with the float result. Cases the int8 path must reject are checked
// for UnsupportedConfiguration instead.
package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-deconv/internal/runtime/ops"
	"github.com/example/go-deconv/internal/runtime/quant"
	"github.com/example/go-deconv/internal/runtime/tensor"
)

var (
	// ErrMismatch reports outputs that disagree beyond tolerance.
	ErrMismatch = errors.New("harness: outputs disagree")
	// ErrUnexpectedStatus reports a kernel call whose status differs from
	// the one the case expects.
	ErrUnexpectedStatus = errors.New("harness: unexpected status")
)

// Options configures a Runner.
type Options struct {
	Seed    uint64
	Workers int
	// FloatTolerance and QuantTolerance override the absolute tolerance of
	// ops.KernelTolerances when > 0.
	FloatTolerance float64
	QuantTolerance float64
}

// Result is the outcome of one case.
type Result struct {
	Index int
	Case  Case
	// Status is what the int8 call returned.
	Status ops.Status
	// FloatMaxDiff is the float path versus the float64 reference.
	FloatMaxDiff float64
	// QuantMaxDiff and Cosine compare dequantized int8 output with the float
	// path.
	QuantMaxDiff float64
	Cosine       float64
	Duration     time.Duration
	// Err is nil when the case passed.
	Err error
}

func (r Result) Passed() bool { return r.Err == nil }

// Runner executes sweeps. It is safe for concurrent use.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// NewRunner returns a Runner. A nil logger uses slog.Default().
func NewRunner(opts Options, logger *slog.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{opts: opts, logger: logger}
}

// Run executes all cases with up to Options.Workers in flight. A case failure
// is recorded in its Result; the returned error is only set when ctx ends
// before the sweep completes.
func (r *Runner) Run(ctx context.Context, cases []Case) (Report, error) {
	results := make([]Result, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = r.RunCase(gctx, i, c)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("harness: sweep interrupted: %w", err)
	}

	return Report{Results: results}, nil
}

// RunCase executes a single case and logs its outcome.
func (r *Runner) RunCase(ctx context.Context, index int, c Case) Result {
	c = c.Normalize()
	start := time.Now()

	res := r.runCase(ctx, index, c)
	res.Index, res.Case = index, c
	res.Duration = time.Since(start)

	attrs := []slog.Attr{
		slog.String("case", c.Name),
		slog.String("status", res.Status.String()),
		slog.Float64("float_max_abs_diff", res.FloatMaxDiff),
		slog.Float64("max_abs_diff", res.QuantMaxDiff),
		slog.Float64("cosine", res.Cosine),
		slog.Int64("duration_ms", res.Duration.Milliseconds()),
	}

	if res.Err != nil {
		attrs = append(attrs, slog.String("error", res.Err.Error()))
		r.logger.LogAttrs(ctx, slog.LevelError, "case failed", attrs...)
	} else {
		r.logger.LogAttrs(ctx, slog.LevelInfo, "case passed", attrs...)
	}

	return res
}

func (r *Runner) runCase(ctx context.Context, index int, c Case) Result {
	var res Result

	if err := c.Validate(); err != nil {
		res.Status = ops.StatusInvalidShape
		res.Err = err

		return res
	}

	kind, _ := c.Kind()
	p, _ := c.Param()

	kernel, err := ops.New(kind, p)
	if err != nil {
		res.Status = ops.StatusOf(err)
		res.Err = err

		return res
	}

	data, err := generate(newRand(r.opts.Seed, index), c, kind)
	if err != nil {
		res.Err = err
		return res
	}

	if c.ExpectUnsupported {
		res.Status, res.Err = r.expectRejected(ctx, kernel, data)
		return res
	}

	floatOut, err := r.checkFloat(ctx, c, kind, p, kernel, data, &res)
	if err != nil {
		res.Err = err
		return res
	}

	res.Err = r.checkQuant(ctx, kind, kernel, data, floatOut, &res)

	return res
}

// checkFloat runs the float path and compares it with the float64 reference.
func (r *Runner) checkFloat(ctx context.Context, c Case, kind ops.Kind, p ops.Param, kernel *ops.Kernel, data caseData, res *Result) (*tensor.Tensor, error) {
	out := tensor.Empty(tensor.Float32)
	if err := kernel.Compute(ctx, data.input, data.filter, data.bias, nil, out); err != nil {
		return nil, fmt.Errorf("%w: float path returned %s: %w", ErrUnexpectedStatus, ops.StatusOf(err), err)
	}

	want, err := reference(c, kind, p, data)
	if err != nil {
		return nil, err
	}

	got := out.RawData()
	if len(got) != len(want) {
		return nil, fmt.Errorf("%w: float output has %d elements, reference %d", ErrMismatch, len(got), len(want))
	}

	tol, err := r.tolerance(kind, false)
	if err != nil {
		return nil, err
	}

	res.FloatMaxDiff = maxAbsDiff64(got, want)
	if i := exceedsTolerance(got, want, tol); i >= 0 {
		return nil, fmt.Errorf("%w: float element %d = %g, reference %g (tolerance %+v)", ErrMismatch, i, got[i], want[i], tol)
	}

	return out, nil
}

// checkQuant quantizes the case, runs the int8 path and compares the
// dequantized result with the float output.
func (r *Runner) checkQuant(ctx context.Context, kind ops.Kind, kernel *ops.Kernel, data caseData, floatOut *tensor.Tensor, res *Result) error {
	qIn, qFilter, qBias, err := quantizeOperands(data)
	if err != nil {
		return err
	}

	qOut, err := quant.CalibratedOutput(floatOut)
	if err != nil {
		return err
	}

	err = kernel.Compute(ctx, qIn, qFilter, qBias, nil, qOut)

	res.Status = ops.StatusOf(err)
	if err != nil {
		return fmt.Errorf("%w: int8 path returned %s: %w", ErrUnexpectedStatus, res.Status, err)
	}

	deq, err := quant.DequantizeTensor(qOut)
	if err != nil {
		return err
	}

	got, want := deq.RawData(), floatOut.RawData()

	if res.QuantMaxDiff, err = MaxAbsDiff(got, want); err != nil {
		return err
	}

	if res.Cosine, err = CosineSimilarity(got, want); err != nil {
		return err
	}

	tol, err := r.tolerance(kind, true)
	if err != nil {
		return err
	}

	if res.QuantMaxDiff > tol.Abs {
		return fmt.Errorf("%w: int8 max abs diff %.4g exceeds %.4g", ErrMismatch, res.QuantMaxDiff, tol.Abs)
	}

	if res.Cosine < 1-tol.Abs {
		return fmt.Errorf("%w: int8 cosine similarity %.4g below %.4g", ErrMismatch, res.Cosine, 1-tol.Abs)
	}

	return nil
}

// expectRejected asserts the int8 path refuses the case. The output carries
// placeholder metadata since nothing may be written to it.
func (r *Runner) expectRejected(ctx context.Context, kernel *ops.Kernel, data caseData) (ops.Status, error) {
	qIn, qFilter, qBias, err := quantizeOperands(data)
	if err != nil {
		return ops.StatusOK, err
	}

	out := tensor.Empty(tensor.Int8)
	if err := out.SetQuantizeInfo(tensor.QuantizeInfo{Scale: 1}); err != nil {
		return ops.StatusOK, err
	}

	status := ops.StatusOf(kernel.Compute(ctx, qIn, qFilter, qBias, nil, out))
	if status != ops.StatusUnsupportedConfiguration {
		return status, fmt.Errorf("%w: int8 path returned %s, want %s", ErrUnexpectedStatus, status, ops.StatusUnsupportedConfiguration)
	}

	return status, nil
}

// quantizeOperands applies asymmetric input, symmetric filter and
// product-scale bias quantization.
func quantizeOperands(data caseData) (input, filter, bias *tensor.Tensor, err error) {
	if input, err = quant.QuantizeAsymmetric(data.input); err != nil {
		return nil, nil, nil, fmt.Errorf("harness: quantize input: %w", err)
	}

	if filter, err = quant.QuantizeSymmetric(data.filter); err != nil {
		return nil, nil, nil, fmt.Errorf("harness: quantize filter: %w", err)
	}

	if bias, err = quant.QuantizeBias(data.bias, input, filter); err != nil {
		return nil, nil, nil, fmt.Errorf("harness: quantize bias: %w", err)
	}

	return input, filter, bias, nil
}

func (r *Runner) tolerance(kind ops.Kind, narrow bool) (ops.Tolerance, error) {
	tol, err := ops.KernelTolerance(kind, narrow)
	if err != nil {
		return ops.Tolerance{}, err
	}

	override := r.opts.FloatTolerance
	if narrow {
		override = r.opts.QuantTolerance
	}

	if override > 0 {
		tol.Abs = override
	}

	return tol, nil
}
