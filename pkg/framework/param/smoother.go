package param

import (
	"math"
	"sync/atomic"
)

// SmoothingType defines different parameter smoothing algorithms.
type SmoothingType int

const (
	// LinearSmoothing ramps at a constant rate and lands exactly on the target
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing uses a one-pole approach (-60dB over the ramp time).
	// The last tick of the ramp snaps the remaining ~0.1% onto the target.
	ExponentialSmoothing
)

// Smoother ramps a value toward its target over a fixed wall-clock time to
// prevent zipper noise.
//
// SetTarget may be called from any goroutine; it is a single atomic store
// picked up by the next Tick. Tick, Reset and SetCurrentAndTarget belong to
// the audio goroutine.
type Smoother struct {
	smoothingType SmoothingType
	target        atomic.Uint64

	current    float64
	rampTarget float64
	step       float64
	coeff      float64
	countdown  int
	rampSteps  int
}

// NewSmoother creates a smoother with no ramp time; call Reset before use.
func NewSmoother(smoothingType SmoothingType) *Smoother {
	return &Smoother{smoothingType: smoothingType}
}

// Reset configures the ramp length and snaps the current value to the target.
func (s *Smoother) Reset(sampleRate, rampSeconds float64) {
	steps := 0
	if sampleRate > 0 && rampSeconds > 0 {
		steps = int(math.Round(sampleRate * rampSeconds))
	}
	s.rampSteps = steps

	s.coeff = 0
	if steps > 0 {
		s.coeff = math.Exp(-6.908 / float64(steps))
	}

	s.SetCurrentAndTarget(s.Target())
}

// SetTarget sets the value to ramp toward.
func (s *Smoother) SetTarget(target float64) {
	s.target.Store(math.Float64bits(target))
}

// Target returns the most recently requested target.
func (s *Smoother) Target() float64 {
	return math.Float64frombits(s.target.Load())
}

// SetCurrentAndTarget jumps straight to value without ramping.
func (s *Smoother) SetCurrentAndTarget(value float64) {
	s.SetTarget(value)
	s.current = value
	s.rampTarget = value
	s.countdown = 0
}

// Tick advances the smoother by one sample and returns the new value.
func (s *Smoother) Tick() float64 {
	if target := s.Target(); target != s.rampTarget {
		s.startRamp(target)
	}

	if s.countdown <= 0 {
		return s.current
	}
	s.countdown--

	if s.countdown == 0 {
		s.current = s.rampTarget
		return s.current
	}

	switch s.smoothingType {
	case ExponentialSmoothing:
		s.current = s.rampTarget + (s.current-s.rampTarget)*s.coeff
	default:
		s.current += s.step
	}

	return s.current
}

// Current returns the last value produced by Tick.
func (s *Smoother) Current() float64 {
	return s.current
}

// IsSmoothing returns true while a ramp is in progress.
func (s *Smoother) IsSmoothing() bool {
	return s.countdown > 0
}

// RampSteps returns the ramp length in samples.
func (s *Smoother) RampSteps() int {
	return s.rampSteps
}

// startRamp begins a new ramp from wherever the current value is.
func (s *Smoother) startRamp(target float64) {
	s.rampTarget = target

	if s.rampSteps == 0 {
		s.current = target
		s.countdown = 0
		return
	}

	s.countdown = s.rampSteps
	s.step = (target - s.current) / float64(s.rampSteps)
}
