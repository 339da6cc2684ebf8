package debug

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// BlockProfiler measures how long each processed block takes compared with
// the real-time duration of the audio it produced.
type BlockProfiler struct {
	mu         sync.Mutex
	sampleRate float64

	blocks    uint64
	frames    uint64
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	worstLoad float64

	now func() time.Time
}

// NewBlockProfiler creates a profiler for audio at sampleRate.
func NewBlockProfiler(sampleRate float64) *BlockProfiler {
	return &BlockProfiler{
		sampleRate: sampleRate,
		now:        time.Now,
	}
}

// Start begins timing one block of frames. Call the returned function when
// the block is done.
func (p *BlockProfiler) Start(frames int) func() {
	start := p.now()
	return func() {
		p.Record(frames, p.now().Sub(start))
	}
}

// Record stores the time taken to process frames.
func (p *BlockProfiler) Record(frames int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.blocks == 0 || elapsed < p.minTime {
		p.minTime = elapsed
	}
	if elapsed > p.maxTime {
		p.maxTime = elapsed
	}
	p.blocks++
	p.frames += uint64(frames)
	p.totalTime += elapsed

	if budget := p.duration(uint64(frames)); budget > 0 {
		if load := float64(elapsed) / float64(budget); load > p.worstLoad {
			p.worstLoad = load
		}
	}
}

func (p *BlockProfiler) duration(frames uint64) time.Duration {
	if p.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / p.sampleRate * float64(time.Second))
}

// Stats is a snapshot of the profiler counters.
type Stats struct {
	Blocks    uint64
	Frames    uint64
	Total     time.Duration
	Min       time.Duration
	Max       time.Duration
	Average   time.Duration
	AudioTime time.Duration
	// Load is processing time over audio time; above 1 means slower than real time.
	Load      float64
	WorstLoad float64
}

// Stats returns the current counters.
func (p *BlockProfiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Blocks:    p.blocks,
		Frames:    p.frames,
		Total:     p.totalTime,
		Min:       p.minTime,
		Max:       p.maxTime,
		AudioTime: p.duration(p.frames),
		WorstLoad: p.worstLoad,
	}
	if p.blocks > 0 {
		s.Average = p.totalTime / time.Duration(p.blocks)
	}
	if s.AudioTime > 0 {
		s.Load = float64(s.Total) / float64(s.AudioTime)
	}
	return s
}

// Reset clears all measurements.
func (p *BlockProfiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks, p.frames = 0, 0
	p.totalTime, p.minTime, p.maxTime = 0, 0, 0
	p.worstLoad = 0
}

// Report generates a human readable summary.
func (p *BlockProfiler) Report() string {
	s := p.Stats()
	if s.Blocks == 0 {
		return "No blocks processed"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "blocks=%d frames=%d audio=%v cpu=%v ", s.Blocks, s.Frames, s.AudioTime.Round(time.Millisecond), s.Total.Round(time.Microsecond))
	fmt.Fprintf(&sb, "avg=%v min=%v max=%v ", s.Average, s.Min, s.Max)
	fmt.Fprintf(&sb, "load=%.2f%% worst=%.2f%%", s.Load*100, s.WorstLoad*100)
	return sb.String()
}
