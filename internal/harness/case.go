package harness

import (
	"errors"
	"fmt"

	"github.com/example/go-deconv/internal/runtime/ops"
)

// Case is one configuration of the validation sweep. Zero values of the
// numeric fields mean their default (1), an empty Kernel means
// depthwise_deconv2d and an empty Padding means VALID.
type Case struct {
	Name       string `mapstructure:"name"`
	Kernel     string `mapstructure:"kernel"`
	Batch      int    `mapstructure:"batch"`
	Multiplier int    `mapstructure:"multiplier"`
	Channels   int    `mapstructure:"channels"`
	Height     int    `mapstructure:"height"`
	Width      int    `mapstructure:"width"`
	KernelH    int    `mapstructure:"kernel_h"`
	KernelW    int    `mapstructure:"kernel_w"`
	Padding    string `mapstructure:"padding"`
	StrideH    int    `mapstructure:"stride_h"`
	StrideW    int    `mapstructure:"stride_w"`
	DilationH  int    `mapstructure:"dilation_h"`
	DilationW  int    `mapstructure:"dilation_w"`
	Groups     int    `mapstructure:"groups"`
	// ExpectUnsupported marks a configuration the int8 path must reject.
	ExpectUnsupported bool `mapstructure:"expect_unsupported"`
}

// Normalize fills defaulted fields.
func (c Case) Normalize() Case {
	if c.Kernel == "" {
		c.Kernel = ops.KindDepthwiseDeconv2D.String()
	}

	if c.Padding == "" {
		c.Padding = ops.PaddingValid.String()
	}

	for _, f := range []*int{&c.Batch, &c.Multiplier, &c.StrideH, &c.StrideW, &c.DilationH, &c.DilationW, &c.Groups} {
		if *f == 0 {
			*f = 1
		}
	}

	if c.Name == "" {
		c.Name = c.label()
	}

	return c
}

func (c Case) label() string {
	return fmt.Sprintf("%s/n%d-m%d-c%d-%dx%d-k%dx%d-%s-s%dx%d-d%dx%d-g%d",
		c.Kernel, c.Batch, c.Multiplier, c.Channels, c.Height, c.Width,
		c.KernelH, c.KernelW, c.Padding, c.StrideH, c.StrideW, c.DilationH, c.DilationW, c.Groups)
}

// Validate reports a malformed case. It expects a normalized case.
func (c Case) Validate() error {
	kind, err := ops.ParseKind(c.Kernel)
	if err != nil {
		return err
	}

	if c.Channels <= 0 || c.Height <= 0 || c.Width <= 0 || c.KernelH <= 0 || c.KernelW <= 0 {
		return fmt.Errorf("harness: case %s needs positive channels, spatial and kernel sizes", c.Name)
	}

	if c.Batch < 0 || c.Multiplier < 0 {
		return fmt.Errorf("harness: case %s has negative batch or multiplier", c.Name)
	}

	if kind == ops.KindGroupDeconv2D && c.Channels%c.Groups != 0 {
		return fmt.Errorf("harness: case %s channels %d not divisible by groups %d", c.Name, c.Channels, c.Groups)
	}

	_, err = c.Param()

	return err
}

// Kind is the kernel variant the case exercises.
func (c Case) Kind() (ops.Kind, error) {
	return ops.ParseKind(c.Kernel)
}

// Param converts the case geometry into kernel parameters.
func (c Case) Param() (ops.Param, error) {
	padding, err := ops.ParsePadding(c.Padding)
	if err != nil {
		return ops.Param{}, err
	}

	p := ops.Param{
		Strides:   [2]int{c.StrideH, c.StrideW},
		Dilations: [2]int{c.DilationH, c.DilationW},
		Padding:   padding,
		Groups:    c.Groups,
	}

	if err := p.Validate(); err != nil {
		return ops.Param{}, errors.Join(fmt.Errorf("harness: case %s", c.Name), err)
	}

	return p, nil
}

func (c Case) outChannels(kind ops.Kind) int {
	if kind == ops.KindGroupDeconv2D {
		return c.Groups * c.Multiplier
	}

	return c.Channels * c.Multiplier
}

func (c Case) inputShape() []int64 {
	return []int64{int64(c.Batch), int64(c.Height), int64(c.Width), int64(c.Channels)}
}

func (c Case) filterShape() []int64 {
	return []int64{int64(c.Multiplier), int64(c.KernelH), int64(c.KernelW), int64(c.Channels)}
}
