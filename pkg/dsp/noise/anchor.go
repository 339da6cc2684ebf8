// Package noise provides deterministic, tempo-synchronized noise for timing
// humanization.
//
// Every value is a pure function of (seed, segment index, sub-seed) or of
// (seed, speed, beat), so rewinding or looping the transport reproduces the
// exact same curve without any stored phase.
package noise

import "math"

// Sub-seeds decorrelate the independent draws made for a single segment.
const (
	SubSeedValue   uint32 = 0
	SubSeedTension uint32 = 100
)

// Scrambling constants applied before the avalanche mix.
const (
	indexLowMul  uint32 = 0x9e3779b1
	indexHighMul uint32 = 0x7feb352d
	subSeedMul   uint32 = 0x846ca68b
)

// Anchor returns a pseudo-random value in [-1, 1] for the given segment index.
// It is pure, total and allocation free.
func Anchor(seed uint32, index int64, subSeed uint32) float64 {
	u := uint64(index)
	h := seed + uint32(u)*indexLowMul + uint32(u>>32)*indexHighMul + subSeed*subSeedMul
	h = mix32(h)
	return float64(h)/float64(math.MaxUint32)*2 - 1
}

// mix32 is the murmur3 32-bit finalizer.
func mix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
