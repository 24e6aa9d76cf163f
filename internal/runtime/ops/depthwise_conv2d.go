package ops

// gatherDepthwiseConv is the forward depthwise convolution used as the
// reference operator: every output position gathers the input window of its
// own channel. Output channel c*M + m reads filter slice m of channel c.
func gatherDepthwiseConv[T accum](p plan, in, filter, out []T) {
	for n := range p.batch {
		for oh := range p.outH {
			for ow := range p.outW {
				outBase := ((n*p.outH+oh)*p.outW + ow) * p.outC

				for c := range p.inC {
					for m := range p.outPerGroup {
						var sum T

						for kh := range p.kH {
							ih := oh*p.strideH + kh*p.dilH - p.padTop
							if ih < 0 || ih >= p.inH {
								continue
							}

							inRow := (n*p.inH + ih) * p.inW
							fRow := (m*p.kH + kh) * p.kW

							for kw := range p.kW {
								iw := ow*p.strideW + kw*p.dilW - p.padLeft
								if iw < 0 || iw >= p.inW {
									continue
								}

								sum += in[(inRow+iw)*p.inC+c] * filter[(fRow+kw)*p.inC+c]
							}
						}

						out[outBase+c*p.outPerGroup+m] = sum
					}
				}
			}
		}
	}
}
