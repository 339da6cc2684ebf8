// Package bus provides audio bus layouts and layout negotiation.
package bus

import "fmt"

// Direction represents the bus direction
type Direction int32

const (
	// DirectionInput represents input bus
	DirectionInput Direction = 0
	// DirectionOutput represents output bus
	DirectionOutput Direction = 1
)

// Channel counts of the supported layouts
const (
	Mono   = 1
	Stereo = 2
)

// Info contains bus configuration
type Info struct {
	Direction    Direction
	ChannelCount int32
	Name         string
}

// Configuration is one main input bus and one main output bus
type Configuration struct {
	Input  Info
	Output Info
}

// NewStereoConfiguration creates a standard stereo I/O configuration
func NewStereoConfiguration() *Configuration {
	return &Configuration{
		Input:  Info{Direction: DirectionInput, ChannelCount: Stereo, Name: "Stereo In"},
		Output: Info{Direction: DirectionOutput, ChannelCount: Stereo, Name: "Stereo Out"},
	}
}

// NewMonoConfiguration creates a mono I/O configuration
func NewMonoConfiguration() *Configuration {
	return &Configuration{
		Input:  Info{Direction: DirectionInput, ChannelCount: Mono, Name: "Mono In"},
		Output: Info{Direction: DirectionOutput, ChannelCount: Mono, Name: "Mono Out"},
	}
}

// IsLayoutSupported reports whether an input/output channel arrangement can
// be processed: mono or stereo, with matching input and output.
func IsLayoutSupported(inputs, outputs int32) bool {
	if outputs != Mono && outputs != Stereo {
		return false
	}
	return inputs == outputs
}

// Negotiate returns the configuration for a requested arrangement.
func Negotiate(inputs, outputs int32) (*Configuration, error) {
	if !IsLayoutSupported(inputs, outputs) {
		return nil, fmt.Errorf("bus: %d in / %d out: %w", inputs, outputs, ErrUnsupportedLayout)
	}
	if outputs == Mono {
		return NewMonoConfiguration(), nil
	}
	return NewStereoConfiguration(), nil
}

// Channels returns the processing channel count
func (c *Configuration) Channels() int {
	return int(c.Output.ChannelCount)
}

// GetBusInfo returns the main bus for a direction
func (c *Configuration) GetBusInfo(direction Direction) *Info {
	if direction == DirectionInput {
		return &c.Input
	}
	return &c.Output
}
