package bus

import "errors"

// ErrUnsupportedLayout is returned for channel arrangements other than
// mono->mono and stereo->stereo.
var ErrUnsupportedLayout = errors.New("unsupported bus layout")
