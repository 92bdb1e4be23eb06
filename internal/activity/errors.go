package activity

import "errors"

// ErrNotFound is returned when an activity entry does not exist.
var ErrNotFound = errors.New("activity: not found")
