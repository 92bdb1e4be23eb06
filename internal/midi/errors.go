package midi

import "errors"

// Domain errors for the midi package.
var (
	// ErrUnknownKind is returned when a message kind name is not recognised.
	ErrUnknownKind = errors.New("midi: unknown message kind")

	// ErrInvalidField is returned when a field value has the wrong type.
	ErrInvalidField = errors.New("midi: invalid field value")

	// ErrOutOfRange is returned when a field value does not fit its MIDI range.
	ErrOutOfRange = errors.New("midi: field value out of range")

	// ErrInvalidMessage is returned when raw bytes are not one complete message.
	ErrInvalidMessage = errors.New("midi: invalid message")
)
