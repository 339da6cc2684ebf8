package noise

import "math"

// Default shaping constants for the segment blend.
const (
	DefaultSpeedFloor  = 0.1
	DefaultTensionMin  = 0.1
	DefaultTensionMax  = 0.45
	DefaultTensionGain = 8.0
)

// Generator evaluates smooth segment noise at an absolute beat position.
//
// Musical time is cut into segments of `speed` beats. Each segment boundary
// carries an anchor (value, tension) derived from the seed, and the curve
// between two anchors is a rational quartic Bezier blend that lingers near
// each anchor in proportion to its tension.
type Generator struct {
	Seed        uint32
	SpeedFloor  float64
	TensionMin  float64
	TensionMax  float64
	TensionGain float64
}

// NewGenerator returns a generator with the default shaping constants.
func NewGenerator(seed uint32) Generator {
	return Generator{
		Seed:        seed,
		SpeedFloor:  DefaultSpeedFloor,
		TensionMin:  DefaultTensionMin,
		TensionMax:  DefaultTensionMax,
		TensionGain: DefaultTensionGain,
	}
}

// Segment splits a beat position into a signed segment index and the phase
// within that segment, in [0, 1).
func (g Generator) Segment(beat, speed float64) (int64, float64) {
	floor := g.SpeedFloor
	if !(floor > 0) {
		floor = DefaultSpeedFloor
	}
	// Also catches NaN speed.
	if !(speed >= floor) {
		speed = floor
	}

	pos := beat / speed
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return 0, 0
	}

	whole := math.Floor(pos)
	phase := pos - whole
	if phase >= 1 {
		phase = 0
		whole++
	}
	return int64(whole), phase
}

// Tension returns the mapped tension of the anchor at index.
func (g Generator) Tension(index int64) float64 {
	r := math.Abs(Anchor(g.Seed, index, SubSeedTension))
	return g.TensionMin + r*(g.TensionMax-g.TensionMin)
}

// Evaluate returns the noise value in [-1, 1] at beat for the given segment
// length in beats.
func (g Generator) Evaluate(beat, speed float64) float64 {
	index, t := g.Segment(beat, speed)

	y0 := Anchor(g.Seed, index, SubSeedValue)
	y1 := Anchor(g.Seed, index+1, SubSeedValue)

	return blend(y0, y1, g.Tension(index), g.Tension(index+1), t, g.TensionGain)
}

// blend computes a rational quartic Bezier with control points
// (y0, y0, mid, y1, y1). The inner weights are scaled by the anchor tensions.
// The result is a convex combination of y0 and y1.
func blend(y0, y1, k0, k1, t, gain float64) float64 {
	u := 1 - t

	b0 := u * u * u * u
	b1 := 4 * t * u * u * u
	b2 := 6 * t * t * u * u
	b3 := 4 * t * t * t * u
	b4 := t * t * t * t

	w1 := b1 * (1 + gain*k0)
	w3 := b3 * (1 + gain*k1)

	mid := 0.5 * (y0 + y1)
	num := (b0+w1)*y0 + b2*mid + (w3+b4)*y1
	den := b0 + w1 + b2 + w3 + b4

	v := num / den

	lo, hi := y0, y1
	if lo > hi {
		lo, hi = hi, lo
	}
	// Rounding can step one ulp outside the hull.
	if v < lo {
		v = lo
	} else if v > hi {
		v = hi
	}
	return v
}
