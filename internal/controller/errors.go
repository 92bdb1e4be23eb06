package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSuchSignal is returned when a signal label is unknown to a controller.
	ErrNoSuchSignal = errors.New("controller: no such signal")

	// ErrStopped is returned when talking to a worker that has exited.
	ErrStopped = errors.New("controller: worker stopped")

	// ErrUnknownCommand is returned for commands the worker does not handle.
	ErrUnknownCommand = errors.New("controller: unknown command")
)

// NoSuchSignalError names the controller and the unknown signal label.
type NoSuchSignalError struct {
	Controller string
	Signal     string
}

func (e *NoSuchSignalError) Error() string {
	return fmt.Sprintf("controller %q has no signal %q", e.Controller, e.Signal)
}

// Unwrap lets errors.Is match ErrNoSuchSignal.
func (e *NoSuchSignalError) Unwrap() error { return ErrNoSuchSignal }
