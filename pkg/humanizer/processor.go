package humanizer

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/justyntemme/timedrift/pkg/framework/bus"
	"github.com/justyntemme/timedrift/pkg/framework/debug"
	"github.com/justyntemme/timedrift/pkg/framework/param"
	"github.com/justyntemme/timedrift/pkg/framework/plugin"
	"github.com/justyntemme/timedrift/pkg/framework/process"
	"github.com/justyntemme/timedrift/pkg/framework/state"
)

// Parameter IDs
const (
	ParamRange uint32 = iota
	ParamCenter
	ParamSpeed
)

// PluginInfo describes the processor.
var PluginInfo = plugin.Info{
	ID:       "com.justyntemme.timedrift",
	Name:     "TimeDrift",
	Version:  "1.0.0",
	Vendor:   "timedrift",
	Category: "Fx|Delay",
}

// Processor binds an Engine to host parameters, bus layout and state.
type Processor struct {
	*plugin.BaseProcessor

	engine *Engine
	log    *debug.Logger

	rangeParam  *param.Parameter
	centerParam *param.Parameter
	speedParam  *param.Parameter

	snapPending atomic.Bool
}

var _ plugin.Processor = (*Processor)(nil)

// NewProcessor creates a stereo processor. A nil logger uses debug.Default().
func NewProcessor(cfg Config, logger *debug.Logger) (*Processor, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = debug.Default()
	}

	p := &Processor{
		BaseProcessor: plugin.NewBaseProcessor(PluginInfo, bus.NewStereoConfiguration()),
		engine:        engine,
		log:           logger,
		rangeParam:    newControl(ParamRange, cfg.Range),
		centerParam:   newControl(ParamCenter, cfg.Center),
		speedParam:    newControl(ParamSpeed, cfg.Speed),
	}

	if err := p.GetParameters().Add(p.rangeParam, p.centerParam, p.speedParam); err != nil {
		return nil, err
	}

	p.OnInitialize(p.initialize)
	p.OnReset(engine.Reset)
	p.OnState(p.saveSeed, p.loadSeed)

	return p, nil
}

func newControl(id uint32, spec ControlSpec) *param.Parameter {
	return param.New(id, spec.Name).
		Range(spec.Min, spec.Max).
		Default(spec.Default).
		Unit(spec.Unit).
		Build()
}

func (p *Processor) initialize(sampleRate float64, maxBlockSize int32) error {
	channels := p.GetBuses().Channels()
	p.pullParameters()
	if err := p.engine.Prepare(sampleRate, int(maxBlockSize), channels); err != nil {
		p.log.Error("initialize failed: %v", err)
		return err
	}
	p.log.Info("prepared %.0f Hz, %d frames, %d channels, latency %d samples, delay line %d samples",
		sampleRate, maxBlockSize, channels, p.engine.RequiredLatencySamples(), p.engine.MaxDelaySamples())
	return nil
}

// ProcessAudio implements plugin.Processor.
func (p *Processor) ProcessAudio(ctx *process.Context) {
	p.pullParameters()
	if p.snapPending.Swap(false) {
		p.engine.SnapToTargets()
	}
	p.engine.Process(ctx.Input, ctx.Output, ctx.Transport.PositionBeats, ctx.Transport.BPM())
}

func (p *Processor) pullParameters() {
	p.engine.SetRange(p.rangeParam.GetPlainValue())
	p.engine.SetCenter(p.centerParam.GetPlainValue())
	p.engine.SetSpeed(p.speedParam.GetPlainValue())
}

// GetLatencySamples implements plugin.Processor.
func (p *Processor) GetLatencySamples() int32 {
	return int32(p.engine.RequiredLatencySamples())
}

// GetTailSamples implements plugin.Processor. Input keeps sounding for up
// to the full delay line after it stops.
func (p *Processor) GetTailSamples() int32 {
	return int32(p.engine.MaxDelaySamples())
}

// Engine returns the wrapped engine.
func (p *Processor) Engine() *Engine {
	return p.engine
}

// LoadState restores parameters and seed. The restored controls take
// effect without a ramp at the next block.
func (p *Processor) LoadState(r io.Reader) error {
	if err := p.BaseProcessor.LoadState(r); err != nil {
		p.log.Warn("state not restored: %v", err)
		return err
	}
	p.snapPending.Store(true)
	p.log.Debug("state restored: seed %d range %.2f center %.2f speed %.2f",
		p.engine.Seed(), p.rangeParam.GetPlainValue(), p.centerParam.GetPlainValue(), p.speedParam.GetPlainValue())
	return nil
}

const seedSize = 4

func (p *Processor) saveSeed(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, p.engine.Seed())
}

// loadSeed requires the seed block; without it a restored render would not
// reproduce.
func (p *Processor) loadSeed(r io.Reader) (func(), error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if len(data) != seedSize {
		return nil, fmt.Errorf("seed block of %d bytes: %w", len(data), state.ErrInvalidFormat)
	}
	seed := binary.LittleEndian.Uint32(data)
	return func() { p.engine.SetSeed(seed) }, nil
}
