package param

import "errors"

// ErrDuplicateParameter is returned when a parameter ID or name is registered twice.
var ErrDuplicateParameter = errors.New("duplicate parameter")
