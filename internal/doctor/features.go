package doctor

import "golang.org/x/sys/cpu"

// CPUFeatures reports the SIMD extensions of the host that matter for
// convolution kernels.
func CPUFeatures() []string {
	var out []string

	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}

	add(cpu.X86.HasSSE41, "sse4.1")
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasFMA, "fma")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.X86.HasAVX512VNNI, "avx512vnni")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasASIMDDP, "asimddp")
	add(cpu.ARM64.HasSVE, "sve")

	return out
}
