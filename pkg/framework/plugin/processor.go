// Package plugin provides the processor contract a host drives and a base
// implementation that carries parameters, bus layout and state.
package plugin

import (
	"fmt"
	"io"

	"github.com/justyntemme/timedrift/pkg/framework/bus"
	"github.com/justyntemme/timedrift/pkg/framework/param"
	"github.com/justyntemme/timedrift/pkg/framework/process"
	"github.com/justyntemme/timedrift/pkg/framework/state"
)

// Processor is the interface a host uses to drive an audio effect.
type Processor interface {
	// Initialize prepares for audio at sampleRate with blocks of at most maxBlockSize frames.
	Initialize(sampleRate float64, maxBlockSize int32) error
	// ProcessAudio processes one block - zero allocations allowed!
	ProcessAudio(ctx *process.Context)
	GetParameters() *param.Registry
	GetBuses() *bus.Configuration
	SetActive(active bool) error
	GetLatencySamples() int32
	GetTailSamples() int32
}

// BaseProcessor provides common functionality for audio processors
type BaseProcessor struct {
	info       Info
	params     *param.Registry
	buses      *bus.Configuration
	state      *state.Manager
	sampleRate float64

	// Optional callbacks for customization
	onInitialize func(sampleRate float64, maxBlockSize int32) error
	onSetActive  func(active bool) error
	onReset      func()
}

// NewBaseProcessor creates a new base processor with the given bus configuration
func NewBaseProcessor(info Info, buses *bus.Configuration) *BaseProcessor {
	if buses == nil {
		buses = bus.NewStereoConfiguration() // Default to stereo
	}

	params := param.NewRegistry()
	return &BaseProcessor{
		info:   info,
		params: params,
		buses:  buses,
		state:  state.NewManager(params),
	}
}

// Info returns the plugin metadata.
func (b *BaseProcessor) Info() Info {
	return b.info
}

// Initialize implements the Processor interface
func (b *BaseProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	if b.onInitialize != nil {
		if err := b.onInitialize(sampleRate, maxBlockSize); err != nil {
			return err
		}
	}

	b.sampleRate = sampleRate
	return nil
}

// GetParameters implements the Processor interface
func (b *BaseProcessor) GetParameters() *param.Registry {
	return b.params
}

// GetBuses implements the Processor interface
func (b *BaseProcessor) GetBuses() *bus.Configuration {
	return b.buses
}

// SetBusArrangement switches to the layout the host asks for, if supported.
func (b *BaseProcessor) SetBusArrangement(inputs, outputs int32) error {
	cfg, err := bus.Negotiate(inputs, outputs)
	if err != nil {
		return fmt.Errorf("plugin %s: %w", b.info.Name, err)
	}
	b.buses = cfg
	return nil
}

// SetActive implements the Processor interface
func (b *BaseProcessor) SetActive(active bool) error {
	if !active && b.onReset != nil {
		b.onReset()
	}

	if b.onSetActive != nil {
		return b.onSetActive(active)
	}

	return nil
}

// GetLatencySamples implements the Processor interface - default no latency
func (b *BaseProcessor) GetLatencySamples() int32 {
	return 0
}

// GetTailSamples implements the Processor interface - default no tail
func (b *BaseProcessor) GetTailSamples() int32 {
	return 0
}

// SampleRate returns the sample rate of the last successful Initialize
func (b *BaseProcessor) SampleRate() float64 {
	return b.sampleRate
}

// SaveState writes the parameters and any custom state to w.
func (b *BaseProcessor) SaveState(w io.Writer) error {
	return b.state.Save(w)
}

// LoadState restores what SaveState wrote.
func (b *BaseProcessor) LoadState(r io.Reader) error {
	return b.state.Load(r)
}

// OnInitialize sets a callback for initialization. An error from fn aborts
// Initialize and keeps the previous sample rate.
func (b *BaseProcessor) OnInitialize(fn func(sampleRate float64, maxBlockSize int32) error) {
	b.onInitialize = fn
}

// OnSetActive sets a callback for activation/deactivation
func (b *BaseProcessor) OnSetActive(fn func(active bool) error) {
	b.onSetActive = fn
}

// OnReset sets a callback for when the processor should reset its state
func (b *BaseProcessor) OnReset(fn func()) {
	b.onReset = fn
}

// OnState sets the functions that save and load state beyond the parameters
func (b *BaseProcessor) OnState(save func(w io.Writer) error, load state.LoadFunc) {
	b.state.SetCustomState(save, load)
}
