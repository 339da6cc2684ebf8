package delay

import "errors"

var (
	// ErrInvalidChannels is returned by Prepare for a non-positive channel count
	ErrInvalidChannels = errors.New("channel count must be positive")
	// ErrInvalidMaxDelay is returned by Prepare for a negative maximum delay
	ErrInvalidMaxDelay = errors.New("maximum delay must not be negative")
)
