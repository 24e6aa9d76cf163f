package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/go-deconv/internal/runtime/ops"
	"github.com/example/go-deconv/internal/runtime/tensor"
)

type shapeOptions struct {
	Kernel   string
	InH, InW int
	KH, KW   int
	Stride   []int
	Dilation []int
	Padding  string
	Pads     []int
	OutputH  int
	OutputW  int
	Format   string
}

func newShapeCmd() *cobra.Command {
	var opts shapeOptions

	cmd := &cobra.Command{
		Use:   "shape",
		Short: "Print the output size and padding a kernel would use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(opts.Format); err != nil {
				return err
			}

			g, err := resolveShape(opts)
			if err != nil {
				return err
			}

			return writeGeometry(cmd.OutOrStdout(), g, opts.Format)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Kernel, "kernel", ops.KindDepthwiseDeconv2D.String(), "Kernel: depthwise_conv2d|depthwise_deconv2d|group_deconv2d")
	f.IntVar(&opts.InH, "in-h", 0, "Input height (required)")
	f.IntVar(&opts.InW, "in-w", 0, "Input width (required)")
	f.IntVar(&opts.KH, "kernel-h", 0, "Filter height (required)")
	f.IntVar(&opts.KW, "kernel-w", 0, "Filter width (required)")
	f.IntSliceVar(&opts.Stride, "stride", []int{1, 1}, "Strides as h,w")
	f.IntSliceVar(&opts.Dilation, "dilation", []int{1, 1}, "Dilations as h,w")
	f.StringVar(&opts.Padding, "padding", ops.PaddingValid.String(), "Padding mode: VALID|SAME|FULL")
	f.IntSliceVar(&opts.Pads, "pads", nil, "Explicit padding as top,bottom,left,right")
	f.IntVar(&opts.OutputH, "output-h", 0, "Requested deconv output height (0 = derived)")
	f.IntVar(&opts.OutputW, "output-w", 0, "Requested deconv output width (0 = derived)")
	f.StringVar(&opts.Format, "format", "table", "Output format: table|json")

	return cmd
}

func resolveShape(opts shapeOptions) (ops.Geometry, error) {
	kind, err := ops.ParseKind(opts.Kernel)
	if err != nil {
		return ops.Geometry{}, err
	}

	p, err := shapeParam(opts)
	if err != nil {
		return ops.Geometry{}, err
	}

	if kind == ops.KindDepthwiseConv2D {
		if opts.OutputH != 0 || opts.OutputW != 0 {
			return ops.Geometry{}, fmt.Errorf("--output-h/--output-w only apply to transposed kernels")
		}

		return ops.ResolveConv(p, opts.InH, opts.InW, opts.KH, opts.KW)
	}

	var outputShape *tensor.Tensor
	if opts.OutputH != 0 || opts.OutputW != 0 {
		outputShape, err = tensor.NewInt32([]int32{int32(opts.OutputH), int32(opts.OutputW)}, []int64{2})
		if err != nil {
			return ops.Geometry{}, err
		}
	}

	return ops.ResolveDeconv(p, opts.InH, opts.InW, opts.KH, opts.KW, outputShape)
}

func shapeParam(opts shapeOptions) (ops.Param, error) {
	p := ops.DefaultParam()

	if len(opts.Stride) != 2 {
		return p, fmt.Errorf("--stride needs 2 values, got %d", len(opts.Stride))
	}

	if len(opts.Dilation) != 2 {
		return p, fmt.Errorf("--dilation needs 2 values, got %d", len(opts.Dilation))
	}

	p.Strides = [2]int{opts.Stride[0], opts.Stride[1]}
	p.Dilations = [2]int{opts.Dilation[0], opts.Dilation[1]}

	mode, err := ops.ParsePadding(opts.Padding)
	if err != nil {
		return p, err
	}

	p.Padding = mode

	switch len(opts.Pads) {
	case 0:
	case 4:
		e := ops.ExplicitPadding{opts.Pads[0], opts.Pads[1], opts.Pads[2], opts.Pads[3]}
		p.Explicit = &e
	default:
		return p, fmt.Errorf("--pads needs 4 values, got %d", len(opts.Pads))
	}

	return p, p.Validate()
}

type jsonGeometry struct {
	OutH      int `json:"out_h"`
	OutW      int `json:"out_w"`
	PadTop    int `json:"pad_top"`
	PadBottom int `json:"pad_bottom"`
	PadLeft   int `json:"pad_left"`
	PadRight  int `json:"pad_right"`
}

func writeGeometry(w io.Writer, g ops.Geometry, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(jsonGeometry(g))
	}

	_, err := fmt.Fprintf(w, "output: %dx%d\npadding: top=%d bottom=%d left=%d right=%d\n",
		g.OutH, g.OutW, g.PadTop, g.PadBottom, g.PadLeft, g.PadRight)

	return err
}
