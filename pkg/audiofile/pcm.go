package audiofile

import (
	"bytes"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
)

// pcmReader is the part of the go-audio WAV and AIFF decoders that sources need.
type pcmReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// pcmSource adapts a go-audio integer PCM decoder to Source.
type pcmSource struct {
	dec        pcmReader
	sampleRate int
	channels   int
	scale      float32
	intBuf     *goaudio.IntBuffer
}

func newPCMSource(dec pcmReader, bitDepth int) (*pcmSource, error) {
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, ErrInvalidChannels
	}
	if format.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	return &pcmSource{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		scale:      scale,
	}, nil
}

func (s *pcmSource) SampleRate() int { return s.sampleRate }
func (s *pcmSource) Channels() int   { return s.channels }
func (s *pcmSource) Close() error    { return nil }

func (s *pcmSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	for i := 0; i < n; i++ {
		dst[i] = float32(s.intBuf.Data[i]) / s.scale
	}
	return n, err
}

func fullScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 1 << 15, nil
	case 24:
		return 1 << 23, nil
	case 32:
		return 1 << 31, nil
	}
	return 0, fmt.Errorf("%d bits: %w", bitDepth, ErrUnsupportedBitDepth)
}

// floatToInt converts a sample in [-1,1] to a signed integer at bitDepth,
// clamping out-of-range values and mapping NaN to zero.
func floatToInt(x float32, bitDepth int) int {
	if x != x {
		return 0
	}
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	peak := float64(int64(1)<<(bitDepth-1) - 1)
	return int(math.Round(float64(x) * peak))
}

// readSeeker returns r as an io.ReadSeeker, buffering it in memory if needed.
// The go-audio decoders seek between chunks.
func readSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
