package audiofile

import "errors"

var (
	// ErrUnknownFormat is returned when no decoder matches the input
	ErrUnknownFormat = errors.New("unknown audio format")
	// ErrInvalidFile is returned when the input is not a valid file of the expected format
	ErrInvalidFile = errors.New("invalid audio file")
	// ErrUnsupportedBitDepth is returned for PCM bit depths other than 16, 24 and 32
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	// ErrUnsupportedEncoding is returned for non-PCM WAV data
	ErrUnsupportedEncoding = errors.New("unsupported sample encoding")
	// ErrInvalidChannels is returned for a channel count below one
	ErrInvalidChannels = errors.New("invalid channel count")
	// ErrInvalidSampleRate is returned for a sample rate below one
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)
