package humanizer

import "errors"

var (
	// ErrInvalidSampleRate is returned by Prepare for a non-positive or non-finite sample rate
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	// ErrInvalidBlockSize is returned by Prepare for a non-positive block size
	ErrInvalidBlockSize = errors.New("invalid block size")
	// ErrInvalidChannelCount is returned by Prepare for a non-positive channel count
	ErrInvalidChannelCount = errors.New("invalid channel count")
	// ErrInvalidConfig is returned for inconsistent control bounds
	ErrInvalidConfig = errors.New("invalid configuration")
)
