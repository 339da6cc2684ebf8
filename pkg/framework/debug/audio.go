package debug

import (
	"fmt"
	"math"
)

// AudioAnalyzer accumulates level statistics over a stream of
// non-interleaved blocks.
type AudioAnalyzer struct {
	clippingThreshold float32

	peak       float32
	sumSquares float64
	samples    uint64
	clipped    uint64
	nonFinite  uint64
}

// NewAudioAnalyzer creates an analyzer flagging samples at or above 0.99 as clipped.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{clippingThreshold: 0.99}
}

// AnalysisResult contains the accumulated statistics.
type AnalysisResult struct {
	Peak           float32
	RMS            float32
	Samples        uint64
	ClippedSamples uint64
	// NonFinite counts NaN and infinite samples; they are excluded from Peak and RMS.
	NonFinite uint64
}

// PeakDB returns the peak level in dBFS.
func (r AnalysisResult) PeakDB() float64 {
	if r.Peak <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(r.Peak))
}

// String formats the result for logging.
func (r AnalysisResult) String() string {
	return fmt.Sprintf("peak=%.4f (%.1f dBFS) rms=%.4f clipped=%d non-finite=%d",
		r.Peak, r.PeakDB(), r.RMS, r.ClippedSamples, r.NonFinite)
}

// Add accumulates the first frames samples of every channel.
func (a *AudioAnalyzer) Add(channels [][]float32, frames int) {
	for _, ch := range channels {
		n := frames
		if n > len(ch) {
			n = len(ch)
		}
		for _, s := range ch[:n] {
			v := float64(s)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				a.nonFinite++
				continue
			}
			abs := float32(math.Abs(v))
			if abs > a.peak {
				a.peak = abs
			}
			if abs >= a.clippingThreshold {
				a.clipped++
			}
			a.sumSquares += v * v
			a.samples++
		}
	}
}

// Result returns the statistics accumulated so far.
func (a *AudioAnalyzer) Result() AnalysisResult {
	r := AnalysisResult{
		Peak:           a.peak,
		Samples:        a.samples,
		ClippedSamples: a.clipped,
		NonFinite:      a.nonFinite,
	}
	if a.samples > 0 {
		r.RMS = float32(math.Sqrt(a.sumSquares / float64(a.samples)))
	}
	return r
}

// Reset clears the accumulated statistics.
func (a *AudioAnalyzer) Reset() {
	*a = AudioAnalyzer{clippingThreshold: a.clippingThreshold}
}

// CheckBuffer returns a description of every NaN or infinite sample in buffer.
func CheckBuffer(buffer []float32, name string) []string {
	var issues []string
	for i, s := range buffer {
		switch v := float64(s); {
		case math.IsNaN(v):
			issues = append(issues, fmt.Sprintf("%s[%d]: NaN", name, i))
		case math.IsInf(v, 0):
			issues = append(issues, fmt.Sprintf("%s[%d]: Inf", name, i))
		}
	}
	return issues
}
