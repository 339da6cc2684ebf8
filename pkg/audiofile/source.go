// Package audiofile decodes audio files into float32 sample streams and
// writes processed audio back out as WAV.
package audiofile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Source is a decoded PCM stream.
type Source interface {
	// SampleRate of the stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// It returns the number of values written, not frames. n == 0 with
	// io.EOF means the stream is finished.
	ReadSamples(dst []float32) (n int, err error)
	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Format keys
const (
	FormatWAV    = "wav"
	FormatAIFF   = "aiff"
	FormatMP3    = "mp3"
	FormatVorbis = "ogg vorbis"
)

// Registry maps format keys to decoders.
type Registry struct {
	mu     sync.Mutex
	codecs map[string]Decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry returns a registry with every built-in decoder.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FormatWAV, WAVDecoder{})
	r.Register(FormatAIFF, AIFFDecoder{})
	r.Register(FormatMP3, MP3Decoder{})
	r.Register(FormatVorbis, VorbisDecoder{})
	return r
}

// Register adds or replaces the decoder for format.
func (r *Registry) Register(format string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[format] = d
}

// Get returns the decoder for format.
func (r *Registry) Get(format string) (Decoder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.codecs[format]
	return d, ok
}

// Formats returns the registered format keys in sorted order.
func (r *Registry) Formats() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var extensions = map[string]string{
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".aif":  FormatAIFF,
	".aiff": FormatAIFF,
	".mp3":  FormatMP3,
	".ogg":  FormatVorbis,
	".oga":  FormatVorbis,
}

// FormatForPath guesses the format key from a file extension.
func FormatForPath(path string) (string, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Sniff identifies a format from the first bytes of a file.
func Sniff(header []byte) (string, bool) {
	switch {
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return FormatWAV, true
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return FormatAIFF, true
	case len(header) >= 4 && bytes.Equal(header[:4], []byte("OggS")):
		return FormatVorbis, true
	case len(header) >= 3 && bytes.Equal(header[:3], []byte("ID3")):
		return FormatMP3, true
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return FormatMP3, true
	}
	return "", false
}

// Decode reads r, identifying the format from its content.
func (r *Registry) Decode(rd io.Reader) (Source, string, error) {
	br := bufio.NewReader(rd)
	header, err := br.Peek(12)
	if err != nil && len(header) == 0 {
		return nil, "", fmt.Errorf("audiofile: reading header: %w", err)
	}

	format, ok := Sniff(header)
	if !ok {
		return nil, "", ErrUnknownFormat
	}
	src, err := r.decodeAs(format, br)
	return src, format, err
}

func (r *Registry) decodeAs(format string, rd io.Reader) (Source, error) {
	d, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("audiofile: %s: %w", format, ErrUnknownFormat)
	}
	src, err := d.Decode(rd)
	if err != nil {
		return nil, fmt.Errorf("audiofile: decoding %s: %w", format, err)
	}
	return src, nil
}

// Open decodes the file at path. The format is sniffed from the content,
// falling back to the extension.
func (r *Registry) Open(path string) (Source, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("audiofile: %w", err)
	}

	header := make([]byte, 12)
	n, _ := io.ReadFull(f, header)
	format, ok := Sniff(header[:n])
	if !ok {
		format, ok = FormatForPath(path)
	}
	if !ok {
		f.Close()
		return nil, "", fmt.Errorf("audiofile: %s: %w", path, ErrUnknownFormat)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("audiofile: %w", err)
	}

	src, err := r.decodeAs(format, f)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	return &fileSource{Source: src, file: f}, format, nil
}

// fileSource closes the underlying file along with the decoder.
type fileSource struct {
	Source
	file *os.File
}

func (s *fileSource) Close() error {
	err := s.Source.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// ReadFrames fills buf with whole interleaved frames, calling ReadSamples
// until buf is full or the stream ends. It returns the number of frames read;
// a short count comes with io.EOF.
func ReadFrames(src Source, buf []float32) (int, error) {
	channels := src.Channels()
	if channels <= 0 {
		return 0, ErrInvalidChannels
	}
	want := len(buf) - len(buf)%channels

	total := 0
	stalls := 0
	for total < want {
		n, err := src.ReadSamples(buf[total:want])
		total += n
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return total / channels, io.EOF
		}
		if err != nil {
			return total / channels, err
		}
		if n == 0 {
			// Some decoders return (0, nil) between packets.
			stalls++
			if stalls > 100 {
				return total / channels, io.ErrNoProgress
			}
			continue
		}
		stalls = 0
	}
	return total / channels, nil
}
