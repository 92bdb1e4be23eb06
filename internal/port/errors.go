package port

import "errors"

// Domain errors for the port package.
var (
	// ErrUnknownType is returned when no driver is registered for a port type.
	ErrUnknownType = errors.New("port: unknown port type")

	// ErrOpenFailed is returned when a device cannot be opened.
	ErrOpenFailed = errors.New("port: open failed")

	// ErrReadFailed is returned once the device stops delivering input.
	ErrReadFailed = errors.New("port: read failed")

	// ErrSendFailed is returned when a message cannot be written.
	ErrSendFailed = errors.New("port: send failed")

	// ErrClosed is returned by operations on a closed port.
	ErrClosed = errors.New("port: closed")
)
