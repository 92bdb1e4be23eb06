package routing

import "errors"

var (
	// ErrMalformed is returned when the routing document cannot be decoded.
	// Load still returns an empty document alongside it.
	ErrMalformed = errors.New("routing: malformed document")

	// ErrInvalid is returned by Document.Validate.
	ErrInvalid = errors.New("routing: invalid document")
)
