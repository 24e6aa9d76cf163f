package ops

import "sync"

// scratchPools is a size-class pool for the int32 buffers of the narrow
// path: widened input/filter copies and the accumulator.
//
// Size classes are powers of two from 2^10 (1 Ki) to 2^26 (64 Mi values).
// A request for n values rounds up to the next power-of-two class.
var scratchPools [17]sync.Pool // indices 10..26 -> pools[0..16]

// getScratch returns a zeroed []int32 of exactly n elements from the pool.
// The caller MUST call putScratch when done.
func getScratch(n int) []int32 {
	cls := scratchClass(n)
	sz := 1 << (cls + 10)
	// Past the largest class the rounded size is smaller than n; such
	// buffers are allocated directly and never pooled.
	if sz < n {
		return make([]int32, n)
	}

	if v := scratchPools[cls].Get(); v != nil {
		buf, ok := v.([]int32)
		if !ok {
			return make([]int32, n)
		}

		buf = buf[:n]
		clear(buf)

		return buf
	}

	buf := make([]int32, sz)

	return buf[:n]
}

// putScratch returns a buffer obtained from getScratch back to the pool.
// Oversized buffers (that bypassed the pool in getScratch) are dropped.
func putScratch(buf []int32) {
	c := cap(buf)

	cls := scratchClass(c)
	if 1<<(cls+10) < c {
		return
	}

	buf = buf[:c]
	scratchPools[cls].Put(buf)
}

// scratchClass returns the pool index for a buffer of n elements.
func scratchClass(n int) int {
	if n <= 1<<10 {
		return 0
	}
	// Bit length of (n-1) gives the exponent for the next power of two.
	bits := 0

	v := n - 1
	for v > 0 {
		v >>= 1
		bits++
	}

	return min(max(bits-10, 0), 16)
}

// widen copies narrow values into dst with the zero point removed.
func widen(dst []int32, src []int8, zero int32) {
	for i, v := range src {
		dst[i] = int32(v) - zero
	}
}
