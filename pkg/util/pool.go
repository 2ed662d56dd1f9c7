package util

import "runtime"

// GetOptimalPoolSize sizes CPU-bound pools: 2x cores, clamped to [4, 32].
// The CGO-heavy parse path benefits from running more goroutines than
// cores; the cap bounds per-grammar parser memory.
func GetOptimalPoolSize() int {
	size := runtime.NumCPU() * 2
	if size < 4 {
		size = 4
	}
	if size > 32 {
		size = 32
	}
	return size
}

// GetOptimalPoolSizeWithOverride uses override when positive, otherwise
// the CPU-derived default.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
