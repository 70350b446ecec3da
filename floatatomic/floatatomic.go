// Package floatatomic provides a compare-and-swap additive float64
// accumulator, the pattern every shared write target in the kernel
// (per-cell absorption, per-instrument flux) relies on since Go has no
// native atomic float type.
package floatatomic

import (
	"math"
	"sync/atomic"
)

// Add atomically adds delta to the float64 stored in bucket's bit pattern.
func Add(bucket *atomic.Uint64, delta float64) {
	for {
		old := bucket.Load()
		newVal := math.Float64frombits(old) + delta
		if bucket.CompareAndSwap(old, math.Float64bits(newVal)) {
			return
		}
	}
}

// Load reads the float64 stored in bucket's bit pattern.
func Load(bucket *atomic.Uint64) float64 {
	return math.Float64frombits(bucket.Load())
}
