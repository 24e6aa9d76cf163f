package harness

import "github.com/example/go-deconv/internal/runtime/ops"

var (
	conv     = ops.KindDepthwiseConv2D.String()
	deconv   = ops.KindDepthwiseDeconv2D.String()
	groupDec = ops.KindGroupDeconv2D.String()
)

// DefaultSweep is the built-in validation sweep: the supported int8
// depthwise convolution configurations, transposed counterparts for both
// deconvolution kernels, and the configurations the int8 path rejects.
func DefaultSweep() []Case {
	cases := []Case{
		{Kernel: conv, Channels: 1024, Height: 7, Width: 7, KernelH: 3, KernelW: 3, Padding: "VALID"},
		{Kernel: conv, Channels: 1024, Height: 7, Width: 7, KernelH: 3, KernelW: 3, Padding: "SAME"},
		{Kernel: conv, Channels: 1024, Height: 7, Width: 7, KernelH: 3, KernelW: 3, Padding: "FULL"},
		{Kernel: conv, Channels: 512, Height: 14, Width: 13, KernelH: 3, KernelW: 3, Padding: "SAME"},
		{Kernel: conv, Channels: 512, Height: 14, Width: 13, KernelH: 5, KernelW: 5, Padding: "SAME", StrideH: 2, StrideW: 2},
		{Kernel: conv, Channels: 256, Height: 28, Width: 28, KernelH: 3, KernelW: 3, Padding: "SAME"},
		{Kernel: conv, Channels: 128, Height: 56, Width: 56, KernelH: 3, KernelW: 3, Padding: "SAME", StrideH: 2, StrideW: 2},
		{Kernel: conv, Channels: 3, Height: 1000, Width: 1000, KernelH: 4, KernelW: 3, Padding: "FULL", StrideH: 2, StrideW: 1},
		{Kernel: conv, Channels: 3, Height: 1000, Width: 1000, KernelH: 4, KernelW: 3, Padding: "FULL", StrideH: 2, StrideW: 3},

		{Kernel: deconv, Channels: 1024, Height: 7, Width: 7, KernelH: 3, KernelW: 3, Padding: "VALID"},
		{Kernel: deconv, Channels: 1024, Height: 7, Width: 7, KernelH: 3, KernelW: 3, Padding: "SAME"},
		{Kernel: deconv, Channels: 1024, Height: 7, Width: 7, KernelH: 3, KernelW: 3, Padding: "FULL"},
		{Kernel: deconv, Channels: 512, Height: 14, Width: 13, KernelH: 5, KernelW: 5, Padding: "SAME", StrideH: 2, StrideW: 2},
		{Kernel: deconv, Channels: 256, Height: 28, Width: 28, KernelH: 3, KernelW: 3, Padding: "SAME"},
		{Kernel: deconv, Channels: 128, Height: 28, Width: 28, KernelH: 3, KernelW: 3, Padding: "SAME", StrideH: 2, StrideW: 2},
		{Kernel: deconv, Channels: 64, Height: 16, Width: 16, KernelH: 3, KernelW: 3, Padding: "VALID", DilationH: 2, DilationW: 2},
		{Kernel: deconv, Channels: 3, Height: 500, Width: 500, KernelH: 4, KernelW: 3, Padding: "FULL", StrideH: 2, StrideW: 3},

		{Kernel: groupDec, Channels: 64, Height: 14, Width: 14, KernelH: 3, KernelW: 3, Padding: "SAME", StrideH: 2, StrideW: 2, Groups: 32, Multiplier: 2},
		{Kernel: groupDec, Channels: 32, Height: 16, Width: 12, KernelH: 3, KernelW: 3, Padding: "VALID", Groups: 16},
		{Kernel: groupDec, Channels: 128, Height: 7, Width: 7, KernelH: 2, KernelW: 2, Padding: "FULL", StrideH: 2, StrideW: 2, Groups: 128},

		// Rejected by the int8 path.
		{Kernel: conv, Batch: 3, Channels: 128, Height: 56, Width: 56, KernelH: 3, KernelW: 3, Padding: "SAME", StrideH: 2, StrideW: 2, ExpectUnsupported: true},
		{Kernel: conv, Multiplier: 2, Channels: 1024, Height: 7, Width: 7, KernelH: 3, KernelW: 3, Padding: "SAME", ExpectUnsupported: true},
		{Kernel: conv, Multiplier: 2, Channels: 1024, Height: 7, Width: 7, KernelH: 3, KernelW: 3, Padding: "SAME", StrideH: 2, StrideW: 2, ExpectUnsupported: true},
		{Kernel: conv, Channels: 3, Height: 1000, Width: 1000, KernelH: 4, KernelW: 3, Padding: "FULL", DilationH: 3, DilationW: 5, ExpectUnsupported: true},
		{Kernel: conv, Channels: 3, Height: 1000, Width: 1000, KernelH: 4, KernelW: 3, Padding: "FULL", StrideW: 3, DilationH: 3, ExpectUnsupported: true},
		{Kernel: deconv, Batch: 2, Channels: 16, Height: 8, Width: 8, KernelH: 3, KernelW: 3, Padding: "SAME", ExpectUnsupported: true},
		{Kernel: deconv, Multiplier: 2, Channels: 16, Height: 8, Width: 8, KernelH: 3, KernelW: 3, Padding: "SAME", ExpectUnsupported: true},
		{Kernel: groupDec, Channels: 16, Height: 8, Width: 8, KernelH: 3, KernelW: 3, Padding: "FULL", DilationH: 2, DilationW: 2, Groups: 4, ExpectUnsupported: true},
	}

	for i := range cases {
		cases[i] = cases[i].Normalize()
	}

	return cases
}
