package humanizer

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/justyntemme/timedrift/pkg/dsp/delay"
	"github.com/justyntemme/timedrift/pkg/framework/param"
	"github.com/justyntemme/timedrift/pkg/framework/process"
)

// Engine applies the time humanization to blocks of audio.
//
// Prepare, Reset and Process belong to the audio goroutine. The control
// setters, Seed/SetSeed and DisplayValue are single atomic words and may be
// used from any goroutine.
type Engine struct {
	cfg    Config
	bounds Bounds

	seed    atomic.Uint32
	display atomic.Uint64

	rangeMs *param.Smoother
	center  *param.Smoother
	speed   *param.Smoother

	line *delay.Line

	prepared       bool
	sampleRate     float64
	blockSize      int
	latencySamples int
	latencyMs      float64
}

// NewEngine creates an engine with a random seed and the default control values.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		bounds:  Resolve(cfg),
		rangeMs: param.NewSmoother(cfg.Smoothing),
		center:  param.NewSmoother(cfg.Smoothing),
		speed:   param.NewSmoother(cfg.Smoothing),
		line:    delay.New(),
	}
	e.seed.Store(rand.Uint32())
	e.rangeMs.SetCurrentAndTarget(cfg.Range.Default)
	e.center.SetCurrentAndTarget(cfg.Center.Default)
	e.speed.SetCurrentAndTarget(cfg.Speed.Default)

	return e, nil
}

// Prepare sizes the delay line for the given stream format. It must be
// called before processing and whenever the format changes. On error the
// previous prepared state is kept.
func (e *Engine) Prepare(sampleRate float64, blockSize, channels int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("prepare: sample rate %v: %w", sampleRate, ErrInvalidSampleRate)
	}
	if blockSize <= 0 {
		return fmt.Errorf("prepare: block size %d: %w", blockSize, ErrInvalidBlockSize)
	}
	if channels <= 0 {
		return fmt.Errorf("prepare: %d channels: %w", channels, ErrInvalidChannelCount)
	}

	if err := e.line.Prepare(channels, e.bounds.MaxDelaySamples(sampleRate)); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}

	e.sampleRate = sampleRate
	e.blockSize = blockSize
	e.latencySamples = e.bounds.LatencySamples(sampleRate)
	e.latencyMs = float64(e.latencySamples) * 1000 / sampleRate

	for _, s := range e.smoothers() {
		s.Reset(sampleRate, e.cfg.RampSeconds)
	}
	e.display.Store(math.Float64bits(e.latencyMs))
	e.prepared = true

	return nil
}

// Reset clears the delay line and jumps every control to its target.
func (e *Engine) Reset() {
	e.line.Reset()
	e.SnapToTargets()
}

// SnapToTargets ends any ramp in progress.
func (e *Engine) SnapToTargets() {
	for _, s := range e.smoothers() {
		s.SetCurrentAndTarget(s.Target())
	}
}

func (e *Engine) smoothers() [3]*param.Smoother {
	return [3]*param.Smoother{e.rangeMs, e.center, e.speed}
}

// Process humanizes one block. beatAtBlockStart is the musical position of
// the first frame in quarter notes. Input and output may alias. Before a
// successful Prepare the input is copied through unchanged.
func (e *Engine) Process(input, output [][]float32, beatAtBlockStart, bpm float64) {
	if !e.prepared {
		passThrough(input, output)
		return
	}
	if len(output) == 0 {
		return
	}

	channels := min(len(input), len(output), e.line.Channels())
	frames := len(output[0])
	for ch := 0; ch < channels; ch++ {
		frames = min(frames, len(input[ch]), len(output[ch]))
	}
	for ch := channels; ch < len(output); ch++ {
		clear(output[ch])
	}
	if frames == 0 {
		return
	}

	bpm = process.Transport{Tempo: bpm}.BPM()
	beatsPerSample := bpm / 60 / e.sampleRate
	gen := e.cfg.generator(e.seed.Load())

	var delayMs float64
	for i := 0; i < frames; i++ {
		r := e.rangeMs.Tick()
		c := e.center.Tick()
		s := e.speed.Tick()

		beat := beatAtBlockStart + float64(i)*beatsPerSample
		n := gen.Evaluate(beat, s)

		delayMs = e.latencyMs + r*0.5*(c+n)
		e.line.SetDelay(delayMs * e.sampleRate / 1000)

		for ch := 0; ch < channels; ch++ {
			e.line.PushSample(ch, input[ch][i])
			output[ch][i] = e.line.PopSample(ch)
		}
	}

	e.display.Store(math.Float64bits(delayMs))
}

func passThrough(input, output [][]float32) {
	for ch, out := range output {
		if ch < len(input) {
			n := copy(out, input[ch])
			clear(out[n:])
			continue
		}
		clear(out)
	}
}

// Prepared reports whether Prepare has succeeded at least once.
func (e *Engine) Prepared() bool {
	return e.prepared
}

// SampleRate returns the prepared sample rate.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// BlockSize returns the prepared maximum block size.
func (e *Engine) BlockSize() int {
	return e.blockSize
}

// Channels returns the prepared channel count.
func (e *Engine) Channels() int {
	return e.line.Channels()
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Bounds returns the resolved worst-case latency and delay.
func (e *Engine) Bounds() Bounds {
	return e.bounds
}

// RequiredLatencySamples is the fixed latency the host must compensate.
func (e *Engine) RequiredLatencySamples() int {
	return e.latencySamples
}

// MaxDelaySamples returns the delay line capacity.
func (e *Engine) MaxDelaySamples() int {
	return e.line.MaxDelay()
}

// SetSeed replaces the noise seed. It takes effect at the next block.
func (e *Engine) SetSeed(seed uint32) {
	e.seed.Store(seed)
}

// Seed returns the noise seed.
func (e *Engine) Seed() uint32 {
	return e.seed.Load()
}

// DisplayValue returns the total delay in milliseconds of the last sample
// of the most recent block.
func (e *Engine) DisplayValue() float64 {
	return math.Float64frombits(e.display.Load())
}

// SetRange sets the range target in milliseconds.
func (e *Engine) SetRange(ms float64) {
	e.rangeMs.SetTarget(ms)
}

// SetCenter sets the center target.
func (e *Engine) SetCenter(center float64) {
	e.center.SetTarget(center)
}

// SetSpeed sets the segment length target in beats.
func (e *Engine) SetSpeed(beats float64) {
	e.speed.SetTarget(beats)
}

// Range returns the range target.
func (e *Engine) Range() float64 {
	return e.rangeMs.Target()
}

// Center returns the center target.
func (e *Engine) Center() float64 {
	return e.center.Target()
}

// Speed returns the speed target.
func (e *Engine) Speed() float64 {
	return e.speed.Target()
}

// DisplayRange returns the earliest and latest shift the current targets
// can produce, relative to the latency.
func (e *Engine) DisplayRange() (minMs, maxMs float64) {
	return DisplayRange(e.Range(), e.Center())
}
