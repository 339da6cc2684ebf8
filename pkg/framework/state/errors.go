package state

import "errors"

var (
	// ErrInvalidFormat is returned when the data is not a saved state
	ErrInvalidFormat = errors.New("invalid state format")
	// ErrUnsupportedVersion is returned for states written by a newer version
	ErrUnsupportedVersion = errors.New("unsupported state version")
	// ErrCustomTooLarge is returned when the custom block exceeds 1 MiB
	ErrCustomTooLarge = errors.New("custom state block too large")
)
