package humanizer

import "math"

// Bounds are the worst-case latency and delay derived from the static
// control bounds.
type Bounds struct {
	// LatencyMs is the fixed delay that absorbs the largest early shift.
	LatencyMs float64
	// MaxDelayMs is the latency plus the largest late shift.
	MaxDelayMs    float64
	SafetySamples int
}

// Resolve computes the bounds for cfg.
//
// The shift is range * 0.5 * (center + noise) with noise in [-1, 1]. It is
// bilinear in range and (center + noise), so its extremes sit on the corners
// of the control box.
func Resolve(cfg Config) Bounds {
	lo, hi := 0.0, 0.0
	for _, r := range []float64{cfg.Range.Min, cfg.Range.Max} {
		for _, s := range []float64{cfg.Center.Min - 1, cfg.Center.Max + 1} {
			shift := r * 0.5 * s
			lo = math.Min(lo, shift)
			hi = math.Max(hi, shift)
		}
	}

	return Bounds{
		LatencyMs:     -lo,
		MaxDelayMs:    -lo + hi,
		SafetySamples: cfg.SafetySamples,
	}
}

// LatencySamples returns the latency rounded up to whole samples.
func (b Bounds) LatencySamples(sampleRate float64) int {
	return msToSamplesCeil(b.LatencyMs, sampleRate)
}

// MaxDelaySamples returns the delay line length needed at sampleRate,
// including the safety margin.
func (b Bounds) MaxDelaySamples(sampleRate float64) int {
	return b.LatencySamples(sampleRate) + msToSamplesCeil(b.MaxDelayMs-b.LatencyMs, sampleRate) + b.SafetySamples
}

func msToSamplesCeil(ms, sampleRate float64) int {
	if !(ms > 0) || !(sampleRate > 0) {
		return 0
	}
	return int(math.Ceil(ms * sampleRate / 1000))
}

// DisplayRange returns the earliest and latest shift, in milliseconds
// relative to the latency, that rangeMs and center can produce.
func DisplayRange(rangeMs, center float64) (minMs, maxMs float64) {
	return rangeMs * 0.5 * (center - 1), rangeMs * 0.5 * (center + 1)
}
