package track

import "errors"

// ErrInvalidConfig is returned when a track's stored fields cannot produce a
// valid message.
var ErrInvalidConfig = errors.New("track: invalid config")
