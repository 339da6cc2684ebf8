// Package humanizer shifts audio back and forth in time by a smooth, tempo
// locked, reproducible random offset.
//
// An Engine evaluates segment noise at the absolute beat position of every
// sample, turns it into a delay around a fixed latency and reads the input
// through a fractional delay line. The Processor wraps the engine with host
// parameters, bus negotiation and state persistence.
package humanizer

import (
	"fmt"
	"math"

	"github.com/justyntemme/timedrift/pkg/dsp/noise"
	"github.com/justyntemme/timedrift/pkg/framework/param"
)

// ControlSpec describes the static bounds of one user control.
type ControlSpec struct {
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Default float64
}

// Clamp limits v to the control bounds. NaN maps to the default.
func (c ControlSpec) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return c.Default
	}
	return math.Max(c.Min, math.Min(c.Max, v))
}

func (c ControlSpec) validate() error {
	if !(c.Min <= c.Max) || math.IsInf(c.Min, 0) || math.IsInf(c.Max, 0) {
		return fmt.Errorf("%s: bounds [%v, %v]: %w", c.Name, c.Min, c.Max, ErrInvalidConfig)
	}
	if !(c.Default >= c.Min && c.Default <= c.Max) {
		return fmt.Errorf("%s: default %v outside [%v, %v]: %w", c.Name, c.Default, c.Min, c.Max, ErrInvalidConfig)
	}
	return nil
}

// Config is the immutable configuration shared by the resolver, the engine
// and the processor.
type Config struct {
	// Range is the maximum time shift in milliseconds.
	Range ControlSpec
	// Center biases the shift: -1 is fully early, 1 fully late.
	Center ControlSpec
	// Speed is the segment length in beats.
	Speed ControlSpec

	RampSeconds float64
	Smoothing   param.SmoothingType

	SpeedFloor  float64
	TensionMin  float64
	TensionMax  float64
	TensionGain float64

	// SafetySamples are added to the delay line beyond the worst case.
	SafetySamples int
}

// DefaultConfig returns the stock control bounds.
func DefaultConfig() Config {
	return Config{
		Range:  ControlSpec{Name: "Range", Unit: "ms", Min: 0, Max: 200, Default: 20},
		Center: ControlSpec{Name: "Center", Min: -1, Max: 1, Default: 0},
		Speed:  ControlSpec{Name: "Speed", Unit: "beats", Min: 1, Max: 16, Default: 4},

		RampSeconds: 0.05,
		Smoothing:   param.LinearSmoothing,

		SpeedFloor:  noise.DefaultSpeedFloor,
		TensionMin:  noise.DefaultTensionMin,
		TensionMax:  noise.DefaultTensionMax,
		TensionGain: noise.DefaultTensionGain,

		SafetySamples: 1024,
	}
}

// Validate checks that the bounds are ordered and finite.
func (c Config) Validate() error {
	for _, spec := range []ControlSpec{c.Range, c.Center, c.Speed} {
		if err := spec.validate(); err != nil {
			return err
		}
	}
	if !(c.RampSeconds >= 0) || math.IsInf(c.RampSeconds, 0) {
		return fmt.Errorf("ramp time %v: %w", c.RampSeconds, ErrInvalidConfig)
	}
	if !(c.SpeedFloor > 0) {
		return fmt.Errorf("speed floor %v: %w", c.SpeedFloor, ErrInvalidConfig)
	}
	if !(c.TensionMin >= 0 && c.TensionMin <= c.TensionMax) {
		return fmt.Errorf("tension range [%v, %v]: %w", c.TensionMin, c.TensionMax, ErrInvalidConfig)
	}
	if c.SafetySamples < 0 {
		return fmt.Errorf("safety margin %d: %w", c.SafetySamples, ErrInvalidConfig)
	}
	return nil
}

func (c Config) generator(seed uint32) noise.Generator {
	return noise.Generator{
		Seed:        seed,
		SpeedFloor:  c.SpeedFloor,
		TensionMin:  c.TensionMin,
		TensionMax:  c.TensionMax,
		TensionGain: c.TensionGain,
	}
}
