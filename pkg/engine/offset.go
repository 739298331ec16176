package engine

// Source draws uniform integers in [0, n). *math/rand/v2.Rand satisfies it.
type Source interface {
	Int64N(n int64) int64
}

// OffsetFor returns the byte offset of the i-th I/O. Sequential workloads sweep
// the first count blocks in order; random workloads pick one of those same
// blocks uniformly, with replacement.
func OffsetFor(mode Mode, i int64, blockSize int, count int64, rng Source) int64 {
	bs := int64(blockSize)
	if mode.Pattern == Random {
		return bs * rng.Int64N(count)
	}
	return bs * i
}
