// Package delay provides a multichannel fractional delay line whose delay may
// change every sample.
package delay

import (
	"fmt"
	"math"

	"github.com/justyntemme/timedrift/pkg/dsp/interpolation"
)

// Line is a circular-buffer delay shared by several channels. All channels use
// the same delay value, so a stereo signal keeps its image while it is shifted.
//
// Prepare is the only method that allocates. PushSample and PopSample must be
// called in push-then-pop order for each channel on every sample.
type Line struct {
	buffers  [][]float32
	writePos []int
	size     int

	delay    float64
	whole    int
	frac     float32
	maxDelay int
}

// New creates an unprepared delay line
func New() *Line {
	return &Line{}
}

// Prepare allocates and clears the buffers for the given channel count and
// maximum delay in samples.
func (d *Line) Prepare(channels, maxDelaySamples int) error {
	if channels <= 0 {
		return fmt.Errorf("delay: %d channels: %w", channels, ErrInvalidChannels)
	}
	if maxDelaySamples < 0 {
		return fmt.Errorf("delay: max delay %d samples: %w", maxDelaySamples, ErrInvalidMaxDelay)
	}

	// One extra slot for the interpolation neighbour, one for the write head.
	size := maxDelaySamples + 2

	d.buffers = make([][]float32, channels)
	for ch := range d.buffers {
		d.buffers[ch] = make([]float32, size)
	}
	d.writePos = make([]int, channels)
	d.size = size
	d.maxDelay = maxDelaySamples

	d.SetDelay(d.delay)
	return nil
}

// Prepared reports whether Prepare has succeeded at least once
func (d *Line) Prepared() bool {
	return d.size > 0
}

// Reset clears the delay buffers
func (d *Line) Reset() {
	for ch := range d.buffers {
		buf := d.buffers[ch]
		for i := range buf {
			buf[i] = 0
		}
		d.writePos[ch] = 0
	}
}

// Channels returns the prepared channel count
func (d *Line) Channels() int {
	return len(d.buffers)
}

// MaxDelay returns the largest delay, in samples, the line can produce
func (d *Line) MaxDelay() int {
	return d.maxDelay
}

// SetDelay sets the delay in samples. Values outside [0, MaxDelay] are
// clamped so the read head never leaves the buffer.
func (d *Line) SetDelay(samples float64) {
	max := float64(d.maxDelay)
	switch {
	case !(samples > 0):
		samples = 0
	case samples > max:
		samples = max
	}

	d.delay = samples
	whole := math.Floor(samples)
	d.whole = int(whole)
	d.frac = float32(samples - whole)
}

// Delay returns the current (clamped) delay in samples
func (d *Line) Delay() float64 {
	return d.delay
}

// PushSample writes the next input sample of a channel
func (d *Line) PushSample(channel int, sample float32) {
	d.buffers[channel][d.writePos[channel]] = sample
}

// PopSample reads the delayed sample of a channel with linear interpolation
// and advances that channel's write head.
func (d *Line) PopSample(channel int) float32 {
	buf := d.buffers[channel]
	w := d.writePos[channel]

	i0 := w - d.whole
	if i0 < 0 {
		i0 += d.size
	}
	i1 := i0 - 1
	if i1 < 0 {
		i1 += d.size
	}

	out := interpolation.Linear(buf[i0], buf[i1], d.frac)

	w++
	if w >= d.size {
		w = 0
	}
	d.writePos[channel] = w

	return out
}

// Process pushes one sample and pops the delayed one
func (d *Line) Process(channel int, sample float32) float32 {
	d.PushSample(channel, sample)
	return d.PopSample(channel)
}
