package harness

import (
	"github.com/example/go-deconv/internal/runtime/ops"
)

// reference computes the case in float64 with an output-major gather, the
// formulation independent of the kernels' scatter order. It is the float
// path's baseline.
func reference(c Case, kind ops.Kind, p ops.Param, d caseData) ([]float64, error) {
	var (
		g   ops.Geometry
		err error
	)

	if kind == ops.KindDepthwiseConv2D {
		g, err = ops.ResolveConv(p, c.Height, c.Width, c.KernelH, c.KernelW)
	} else {
		g, err = ops.ResolveDeconv(p, c.Height, c.Width, c.KernelH, c.KernelW, nil)
	}

	if err != nil {
		return nil, err
	}

	groups := c.Channels
	if kind == ops.KindGroupDeconv2D {
		groups = c.Groups
	}

	var (
		in       = d.input.RawData()
		filter   = d.filter.RawData()
		bias     = d.bias.RawData()
		m        = c.Multiplier
		outC     = groups * m
		perGroup = c.Channels / groups
		out      = make([]float64, c.Batch*g.OutH*g.OutW*outC)
	)

	// tap maps output coordinate o and kernel tap k to an input coordinate.
	tap := func(o, k, s, dil, pad, size int) (int, bool) {
		if kind == ops.KindDepthwiseConv2D {
			i := o*s + k*dil - pad
			return i, i >= 0 && i < size
		}

		num := o + pad - k*dil
		if num < 0 || num%s != 0 || num/s >= size {
			return 0, false
		}

		return num / s, true
	}

	for n := range c.Batch {
		for oh := range g.OutH {
			for ow := range g.OutW {
				for oc := range outC {
					grp, mi := oc/m, oc%m

					sum := float64(bias[oc])

					for ic := grp * perGroup; ic < (grp+1)*perGroup; ic++ {
						for kh := range c.KernelH {
							ih, ok := tap(oh, kh, p.Strides[0], p.Dilations[0], g.PadTop, c.Height)
							if !ok {
								continue
							}

							for kw := range c.KernelW {
								iw, ok := tap(ow, kw, p.Strides[1], p.Dilations[1], g.PadLeft, c.Width)
								if !ok {
									continue
								}

								x := in[((n*c.Height+ih)*c.Width+iw)*c.Channels+ic]
								w := filter[((mi*c.KernelH+kh)*c.KernelW+kw)*c.Channels+ic]
								sum += float64(x) * float64(w)
							}
						}
					}

					out[((n*g.OutH+oh)*g.OutW+ow)*outC+oc] = sum
				}
			}
		}
	}

	return out, nil
}
