package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-deconv/internal/bench"
	"github.com/example/go-deconv/internal/harness"
	"github.com/example/go-deconv/internal/runtime/ops"
	"github.com/example/go-deconv/internal/runtime/quant"
	"github.com/example/go-deconv/internal/runtime/tensor"
)

func newBenchCmd() *cobra.Command {
	var (
		c          harness.Case
		stride     []int
		dilation   []int
		precision  string
		format     string
		threshold  time.Duration
		cpuProfile string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time one kernel configuration on the float and int8 paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if err := checkFormat(format); err != nil {
				return err
			}

			if len(stride) != 2 || len(dilation) != 2 {
				return errors.New("--stride and --dilation need 2 values each")
			}

			c.StrideH, c.StrideW = stride[0], stride[1]
			c.DilationH, c.DilationW = dilation[0], dilation[1]

			targets, err := benchTargets(c, cfg.Harness.Seed, precision)
			if err != nil {
				return err
			}

			if cpuProfile != "" {
				stop, err := startCPUProfile(cpuProfile)
				if err != nil {
					return err
				}
				defer stop()
			}

			out := cmd.OutOrStdout()
			for _, tg := range targets {
				runs, err := bench.Measure(cmd.Context(), cfg.Bench.Warmup, cfg.Bench.Runs, tg.fn)
				if err != nil {
					return fmt.Errorf("%s: %w", tg.label, err)
				}

				stats := bench.ComputeStats(bench.Durations(runs))
				slog.Debug("bench finished", "target", tg.label, "mean_ms", stats.Mean.Milliseconds())

				writeBench(out, tg.label, runs, stats, format)

				if err := bench.CheckMeanThreshold(stats.Mean, threshold); err != nil {
					return fmt.Errorf("%s: %w", tg.label, err)
				}
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.Kernel, "kernel", ops.KindDepthwiseDeconv2D.String(), "Kernel: depthwise_conv2d|depthwise_deconv2d|group_deconv2d")
	f.IntVar(&c.Batch, "batch", 1, "Batch size")
	f.IntVar(&c.Channels, "channels", 32, "Input channels")
	f.IntVar(&c.Height, "height", 56, "Input height")
	f.IntVar(&c.Width, "width", 56, "Input width")
	f.IntVar(&c.KernelH, "kernel-h", 3, "Filter height")
	f.IntVar(&c.KernelW, "kernel-w", 3, "Filter width")
	f.IntVar(&c.Multiplier, "multiplier", 1, "Depth multiplier (outputs per group for group_deconv2d)")
	f.IntVar(&c.Groups, "groups", 1, "Group count for group_deconv2d")
	f.StringVar(&c.Padding, "padding", ops.PaddingSame.String(), "Padding mode: VALID|SAME|FULL")
	f.IntSliceVar(&stride, "stride", []int{2, 2}, "Strides as h,w")
	f.IntSliceVar(&dilation, "dilation", []int{1, 1}, "Dilations as h,w")
	f.StringVar(&precision, "precision", "both", "Path to time: float32|int8|both")
	f.StringVar(&format, "format", "table", "Output format: table|json")
	f.DurationVar(&threshold, "max-mean", 0, "Exit non-zero if a mean run time exceeds this value (0 = disabled)")
	f.StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")

	return cmd
}

type benchTarget struct {
	label string
	fn    bench.Func
}

// benchTargets builds the timed calls for c. The int8 output is calibrated
// from one float run so the narrow path sees realistic metadata.
func benchTargets(c harness.Case, seed uint64, precision string) ([]benchTarget, error) {
	c = c.Normalize()

	kind, err := c.Kind()
	if err != nil {
		return nil, err
	}

	p, err := c.Param()
	if err != nil {
		return nil, err
	}

	kernel, err := ops.New(kind, p)
	if err != nil {
		return nil, err
	}

	operands, err := harness.NewOperands(c, seed, 0)
	if err != nil {
		return nil, err
	}

	floatOut := tensor.Empty(tensor.Float32)
	floatFn := func(ctx context.Context) (int, error) {
		if err := kernel.Compute(ctx, operands.Input, operands.Filter, operands.Bias, nil, floatOut); err != nil {
			return 0, err
		}

		return floatOut.ElemCount(), nil
	}

	var targets []benchTarget

	switch precision {
	case "float32", "both":
		targets = append(targets, benchTarget{label: c.Name + " float32", fn: floatFn})
	case "int8":
	default:
		return nil, fmt.Errorf("--precision must be float32, int8 or both, got %q", precision)
	}

	if precision == "float32" {
		return targets, nil
	}

	if _, err := floatFn(context.Background()); err != nil {
		return nil, err
	}

	qOut, err := quant.CalibratedOutput(floatOut)
	if err != nil {
		return nil, err
	}

	targets = append(targets, benchTarget{
		label: c.Name + " int8",
		fn: func(ctx context.Context) (int, error) {
			if err := kernel.Compute(ctx, operands.QInput, operands.QFilter, operands.QBias, nil, qOut); err != nil {
				return 0, err
			}

			return qOut.ElemCount(), nil
		},
	})

	return targets, nil
}

func writeBench(w io.Writer, label string, runs []bench.RunResult, stats bench.Stats, format string) {
	if format == "json" {
		bench.FormatJSON(label, runs, stats, w)
		return
	}

	bench.FormatTable(label, runs, stats, w)
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()

		if err := f.Close(); err != nil {
			slog.Warn("close cpu profile", "path", path, "error", err)
		}
	}, nil
}
