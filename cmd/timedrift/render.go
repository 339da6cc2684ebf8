package main

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/justyntemme/timedrift/pkg/audiofile"
	"github.com/justyntemme/timedrift/pkg/framework/debug"
	"github.com/justyntemme/timedrift/pkg/framework/process"
	"github.com/justyntemme/timedrift/pkg/humanizer"
)

// renderer pulls audio from a source through the processor the way a host
// would: fixed size blocks, a running transport and latency compensation.
// The first GetLatencySamples output frames are dropped and the same number
// of silent frames are fed after the source ends, so the output lines up
// with the input frame for frame.
type renderer struct {
	proc *humanizer.Processor
	src  audiofile.Source

	ctx         *process.Context
	interleaved []float32
	in, out     [][]float32
	view        [][]float32

	block    int
	channels int
	skip     int
	flush    int
	srcDone  bool
	rendered atomic.Int64

	profiler *debug.BlockProfiler
	analyzer *debug.AudioAnalyzer
}

func processingChannels(srcChannels int) int {
	if srcChannels >= 2 {
		return 2
	}
	return 1
}

func newRenderer(proc *humanizer.Processor, src audiofile.Source, block int, bpm, startBeat float64) (*renderer, error) {
	if block <= 0 {
		return nil, fmt.Errorf("block size %d must be positive", block)
	}
	if src.Channels() <= 0 {
		return nil, audiofile.ErrInvalidChannels
	}

	channels := processingChannels(src.Channels())
	if err := proc.SetBusArrangement(int32(channels), int32(channels)); err != nil {
		return nil, err
	}
	sampleRate := float64(src.SampleRate())
	if err := proc.Initialize(sampleRate, int32(block)); err != nil {
		return nil, err
	}

	latency := int(proc.GetLatencySamples())

	r := &renderer{
		proc:        proc,
		src:         src,
		ctx:         process.NewContext(sampleRate),
		interleaved: make([]float32, block*src.Channels()),
		in:          make([][]float32, channels),
		out:         make([][]float32, channels),
		view:        make([][]float32, channels),
		block:       block,
		channels:    channels,
		skip:        latency,
		flush:       latency,
		profiler:    debug.NewBlockProfiler(sampleRate),
		analyzer:    debug.NewAudioAnalyzer(),
	}
	for ch := range r.in {
		r.in[ch] = make([]float32, block)
		r.out[ch] = make([]float32, block)
	}
	r.ctx.Input = make([][]float32, channels)
	r.ctx.Output = make([][]float32, channels)
	r.ctx.Transport = process.Transport{Tempo: bpm, PositionBeats: startBeat, Playing: true}

	return r, nil
}

// Next returns the next block of compensated output. The slices are reused
// by the following call. It returns io.EOF once the source and the latency
// tail are both exhausted.
func (r *renderer) Next() ([][]float32, int, error) {
	for {
		frames := 0
		if !r.srcDone {
			n, err := audiofile.ReadFrames(r.src, r.interleaved)
			if errors.Is(err, io.EOF) {
				r.srcDone = true
			} else if err != nil {
				return nil, 0, fmt.Errorf("reading input: %w", err)
			}
			audiofile.Deinterleave(r.interleaved, r.src.Channels(), r.in, n)
			frames = n
		}

		if frames == 0 {
			if r.flush == 0 {
				return nil, 0, io.EOF
			}
			frames = min(r.flush, r.block)
			r.flush -= frames
			for ch := range r.in {
				clear(r.in[ch][:frames])
			}
		}

		for ch := 0; ch < r.channels; ch++ {
			r.ctx.Input[ch] = r.in[ch][:frames]
			r.ctx.Output[ch] = r.out[ch][:frames]
		}

		stop := r.profiler.Start(frames)
		r.proc.ProcessAudio(r.ctx)
		stop()
		r.ctx.Advance(frames)

		start := min(r.skip, frames)
		r.skip -= start
		if start == frames {
			continue
		}

		for ch := range r.view {
			r.view[ch] = r.out[ch][start:frames]
		}
		emitted := frames - start
		r.rendered.Add(int64(emitted))
		r.analyzer.Add(r.view, emitted)
		return r.view, emitted, nil
	}
}

// Rendered returns the number of output frames produced so far. It may be
// called while another goroutine is rendering.
func (r *renderer) Rendered() int {
	return int(r.rendered.Load())
}

// Seconds returns the rendered duration.
func (r *renderer) Seconds() float64 {
	return float64(r.Rendered()) / r.ctx.SampleRate
}
