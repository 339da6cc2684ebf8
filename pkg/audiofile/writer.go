package audiofile

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVWriter encodes non-interleaved float32 blocks as integer PCM WAV.
type WAVWriter struct {
	enc      *wav.Encoder
	format   *goaudio.Format
	bitDepth int
	buf      *goaudio.IntBuffer
	frames   int
}

// NewWAVWriter starts a WAV stream on w. bitDepth must be 16, 24 or 32.
func NewWAVWriter(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*WAVWriter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wav writer: %d Hz: %w", sampleRate, ErrInvalidSampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("wav writer: %d channels: %w", channels, ErrInvalidChannels)
	}
	if _, err := fullScale(bitDepth); err != nil {
		return nil, fmt.Errorf("wav writer: %w", err)
	}

	format := &goaudio.Format{NumChannels: channels, SampleRate: sampleRate}
	return &WAVWriter{
		enc:      wav.NewEncoder(w, sampleRate, bitDepth, channels, wavFormatPCM),
		format:   format,
		bitDepth: bitDepth,
		buf:      &goaudio.IntBuffer{Format: format, SourceBitDepth: bitDepth},
	}, nil
}

// WriteFrames writes the first frames samples of each channel. Channels
// missing from block are written as silence.
func (w *WAVWriter) WriteFrames(block [][]float32, frames int) error {
	channels := w.format.NumChannels
	need := frames * channels
	if cap(w.buf.Data) < need {
		w.buf.Data = make([]int, need)
	}
	w.buf.Data = w.buf.Data[:need]

	for ch := 0; ch < channels; ch++ {
		var src []float32
		if ch < len(block) {
			src = block[ch]
		}
		for i := 0; i < frames; i++ {
			v := 0
			if i < len(src) {
				v = floatToInt(src[i], w.bitDepth)
			}
			w.buf.Data[i*channels+ch] = v
		}
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav writer: %w", err)
	}
	w.frames += frames
	return nil
}

// Frames returns the number of frames written so far.
func (w *WAVWriter) Frames() int {
	return w.frames
}

// Close finalizes the headers. It does not close the underlying writer.
func (w *WAVWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wav writer: %w", err)
	}
	return nil
}
