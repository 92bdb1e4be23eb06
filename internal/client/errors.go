package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchTrack is returned when an event or command names a track the
	// client does not own.
	ErrNoSuchTrack = errors.New("client: no such track")

	// ErrStopped is returned when talking to a worker that has exited.
	ErrStopped = errors.New("client: worker stopped")

	// ErrUnknownCommand is returned for commands the worker does not handle.
	ErrUnknownCommand = errors.New("client: unknown command")
)

// NoSuchTrackError names the client and the missing track.
type NoSuchTrackError struct {
	Client string
	Label  string
}

func (e *NoSuchTrackError) Error() string {
	return fmt.Sprintf("client %q has no track %q", e.Client, e.Label)
}

// Unwrap lets errors.Is match ErrNoSuchTrack.
func (e *NoSuchTrackError) Unwrap() error { return ErrNoSuchTrack }
