package ops

// accum is the element type a kernel body accumulates in: float32 for the
// float path, int32 for the narrow path after widening.
type accum interface {
	~float32 | ~int32
}

// plan is the fully validated geometry of one Compute call. NHWC layout,
// filter [outPerGroup, kH, kW, inC]; input channel c belongs to group
// c/inPerGroup and feeds output channels group*outPerGroup + m.
type plan struct {
	batch, inH, inW, inC int
	kH, kW               int
	outH, outW, outC     int

	inPerGroup, outPerGroup int

	strideH, strideW int
	dilH, dilW       int
	padTop, padLeft  int

	narrow bool
}

func (p plan) outShape() []int64 {
	return []int64{int64(p.batch), int64(p.outH), int64(p.outW), int64(p.outC)}
}

func (p plan) outLen() int {
	return p.batch * p.outH * p.outW * p.outC
}

// scatterDeconv computes a transposed convolution by distributing each input
// element into every output position its filter taps reach. out must be
// zeroed. Iteration is input-major, then (m, kh, kw), so repeated calls add
// in the same order and produce identical results.
func scatterDeconv[T accum](p plan, in, filter, out []T) {
	for n := range p.batch {
		for h := range p.inH {
			for w := range p.inW {
				inBase := ((n*p.inH+h)*p.inW + w) * p.inC

				for c := range p.inC {
					x := in[inBase+c]
					if x == 0 {
						continue
					}

					ocBase := (c / p.inPerGroup) * p.outPerGroup

					for m := range p.outPerGroup {
						for kh := range p.kH {
							oh := h*p.strideH + kh*p.dilH - p.padTop
							if oh < 0 || oh >= p.outH {
								continue
							}

							fRow := (m*p.kH + kh) * p.kW
							outRow := (n*p.outH + oh) * p.outW

							for kw := range p.kW {
								ow := w*p.strideW + kw*p.dilW - p.padLeft
								if ow < 0 || ow >= p.outW {
									continue
								}

								out[(outRow+ow)*p.outC+ocBase+m] += x * filter[(fRow+kw)*p.inC+c]
							}
						}
					}
				}
			}
		}
	}
}

// addBias adds bias[oc] once to every output element of channel oc.
func addBias[T accum](out, bias []T, outC int) {
	if bias == nil {
		return
	}

	for base := 0; base < len(out); base += outC {
		row := out[base : base+outC]
		for oc, b := range bias {
			row[oc] += b
		}
	}
}
